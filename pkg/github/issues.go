package github

import (
	"context"
	"fmt"
	"sort"

	gh "github.com/google/go-github/v68/github"
)

// IssueAPI is the part of the issues API a step uses on the issue or pull
// request that triggered it.
type IssueAPI interface {
	AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error
	RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error
	CreateComment(ctx context.Context, owner, repo string, number int, body string) error
	EditIssueState(ctx context.Context, owner, repo string, number int, state string) error
}

// Issues returns the REST implementation of IssueAPI.
func (c *Client) Issues() IssueAPI {
	return &restIssues{client: c.REST}
}

type restIssues struct {
	client *gh.Client
}

func (c *restIssues) AddLabels(ctx context.Context, owner, repo string, number int, labels []string) error {
	_, _, err := c.client.Issues.AddLabelsToIssue(ctx, owner, repo, number, labels)
	return err
}

func (c *restIssues) RemoveLabel(ctx context.Context, owner, repo string, number int, label string) error {
	_, err := c.client.Issues.RemoveLabelForIssue(ctx, owner, repo, number, label)
	return err
}

func (c *restIssues) CreateComment(ctx context.Context, owner, repo string, number int, body string) error {
	_, _, err := c.client.Issues.CreateComment(ctx, owner, repo, number, &gh.IssueComment{
		Body: &body,
	})
	return err
}

func (c *restIssues) EditIssueState(ctx context.Context, owner, repo string, number int, state string) error {
	_, _, err := c.client.Issues.Edit(ctx, owner, repo, number, &gh.IssueRequest{
		State: &state,
	})
	return err
}

type issueCommand struct {
	needsArg bool
	run      func(ctx context.Context, api IssueAPI, issue Issue, arg string) error
}

var issueCommands = map[string]issueCommand{
	"add-label": {true, func(ctx context.Context, api IssueAPI, i Issue, label string) error {
		return api.AddLabels(ctx, i.Owner, i.Repo, i.Number, []string{label})
	}},
	"remove-label": {true, func(ctx context.Context, api IssueAPI, i Issue, label string) error {
		return api.RemoveLabel(ctx, i.Owner, i.Repo, i.Number, label)
	}},
	"comment": {true, func(ctx context.Context, api IssueAPI, i Issue, body string) error {
		return api.CreateComment(ctx, i.Owner, i.Repo, i.Number, body)
	}},
	"close": {false, func(ctx context.Context, api IssueAPI, i Issue, _ string) error {
		return api.EditIssueState(ctx, i.Owner, i.Repo, i.Number, "closed")
	}},
	"reopen": {false, func(ctx context.Context, api IssueAPI, i Issue, _ string) error {
		return api.EditIssueState(ctx, i.Owner, i.Repo, i.Number, "open")
	}},
}

// IssueCommands lists the names accepted by ApplyIssueCommand.
func IssueCommands() []string {
	names := make([]string, 0, len(issueCommands))
	for name := range issueCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyIssueCommand runs the named command against issue. add-label and
// remove-label take a label as arg, comment takes the body.
func ApplyIssueCommand(ctx context.Context, api IssueAPI, issue Issue, name, arg string) error {
	cmd, ok := issueCommands[name]
	if !ok {
		return fmt.Errorf("unknown issue command %q", name)
	}
	if issue.Number == 0 {
		return fmt.Errorf("%s: event has no issue or pull request number", name)
	}
	if cmd.needsArg && arg == "" {
		return fmt.Errorf("%s: missing argument", name)
	}
	if err := cmd.run(ctx, api, issue, arg); err != nil {
		return fmt.Errorf("%s %s/%s#%d: %w", name, issue.Owner, issue.Repo, issue.Number, err)
	}
	return nil
}
