// Package github exposes the workflow run context and API clients for the
// repository a step runs against.
package github

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/sekia-ai/actionkit/pkg/core"
)

const (
	defaultAPIURL     = "https://api.github.com"
	defaultServerURL  = "https://github.com"
	defaultGraphQLURL = "https://api.github.com/graphql"
)

// Context describes the workflow run, hydrated from the runner environment
// and the webhook payload in GITHUB_EVENT_PATH.
type Context struct {
	Payload    map[string]any `json:"payload"`
	EventName  string         `json:"event_name"`
	SHA        string         `json:"sha"`
	Ref        string         `json:"ref"`
	Workflow   string         `json:"workflow"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor"`
	Job        string         `json:"job"`
	RunNumber  int64          `json:"run_number"`
	RunID      int64          `json:"run_id"`
	APIURL     string         `json:"api_url"`
	ServerURL  string         `json:"server_url"`
	GraphQLURL string         `json:"graphql_url"`

	repository string
	rawPayload []byte
}

// Repo identifies a repository.
type Repo struct {
	Owner string `json:"owner"`
	Repo  string `json:"repo"`
}

// Issue identifies an issue or pull request. Number is 0 when the payload
// carries none.
type Issue struct {
	Owner  string `json:"owner"`
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

// NewContext reads the context from a's environment. A GITHUB_EVENT_PATH
// that does not exist is reported on a's writer and leaves Payload empty.
func NewContext(a *core.Action) (*Context, error) {
	env := a.Env()
	c := &Context{
		Payload:    map[string]any{},
		EventName:  lookup(env, "GITHUB_EVENT_NAME", ""),
		SHA:        lookup(env, "GITHUB_SHA", ""),
		Ref:        lookup(env, "GITHUB_REF", ""),
		Workflow:   lookup(env, "GITHUB_WORKFLOW", ""),
		Action:     lookup(env, "GITHUB_ACTION", ""),
		Actor:      lookup(env, "GITHUB_ACTOR", ""),
		Job:        lookup(env, "GITHUB_JOB", ""),
		APIURL:     lookup(env, "GITHUB_API_URL", defaultAPIURL),
		ServerURL:  lookup(env, "GITHUB_SERVER_URL", defaultServerURL),
		GraphQLURL: lookup(env, "GITHUB_GRAPHQL_URL", defaultGraphQLURL),
		repository: lookup(env, "GITHUB_REPOSITORY", ""),
	}

	var err error
	if c.RunNumber, err = lookupInt(env, "GITHUB_RUN_NUMBER"); err != nil {
		return nil, err
	}
	if c.RunID, err = lookupInt(env, "GITHUB_RUN_ID"); err != nil {
		return nil, err
	}

	eventPath := lookup(env, "GITHUB_EVENT_PATH", "")
	if eventPath == "" {
		return c, nil
	}
	data, err := os.ReadFile(eventPath)
	if os.IsNotExist(err) {
		if _, err := io.WriteString(a.Writer(), "GITHUB_EVENT_PATH "+eventPath+" does not exist"+core.EOL); err != nil {
			return nil, err
		}
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}
	if err := json.Unmarshal(data, &c.Payload); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}
	c.rawPayload = data
	return c, nil
}

// Repo returns the repository from GITHUB_REPOSITORY, falling back to the
// payload's repository object.
func (c *Context) Repo() (Repo, error) {
	if c.repository != "" {
		owner, repo, ok := strings.Cut(c.repository, "/")
		if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
			return Repo{}, fmt.Errorf("invalid GITHUB_REPOSITORY %q, want 'owner/repo'", c.repository)
		}
		return Repo{Owner: owner, Repo: repo}, nil
	}

	if repository, ok := c.Payload["repository"].(map[string]any); ok {
		owner, _ := repository["owner"].(map[string]any)
		login, _ := owner["login"].(string)
		name, _ := repository["name"].(string)
		if login != "" && name != "" {
			return Repo{Owner: login, Repo: name}, nil
		}
	}

	return Repo{}, fmt.Errorf("context.repo requires a GITHUB_REPOSITORY environment variable like 'owner/repo'")
}

// Issue returns the issue or pull request the event refers to.
func (c *Context) Issue() (Issue, error) {
	repo, err := c.Repo()
	if err != nil {
		return Issue{}, err
	}

	var number int
	if issue, ok := c.Payload["issue"].(map[string]any); ok {
		number = toInt(issue["number"])
	} else if pr, ok := c.Payload["pull_request"].(map[string]any); ok {
		number = toInt(pr["number"])
	} else {
		number = toInt(c.Payload["number"])
	}
	return Issue{Owner: repo.Owner, Repo: repo.Repo, Number: number}, nil
}

// WebhookPayload decodes the commonly used fields of the event payload.
func (c *Context) WebhookPayload() (WebhookPayload, error) {
	var p WebhookPayload
	if len(c.rawPayload) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(c.rawPayload, &p); err != nil {
		return p, fmt.Errorf("decode webhook payload: %w", err)
	}
	return p, nil
}

// ParseEvent decodes the payload into the go-github event type matching
// EventName, e.g. *github.PullRequestEvent for "pull_request".
func (c *Context) ParseEvent() (any, error) {
	if len(c.rawPayload) == 0 {
		return nil, fmt.Errorf("no event payload loaded")
	}
	ev, err := gh.ParseWebHook(c.EventName, c.rawPayload)
	if err != nil {
		return nil, fmt.Errorf("parse %s event: %w", c.EventName, err)
	}
	return ev, nil
}

func lookup(env core.Environment, key, fallback string) string {
	if v, ok := env.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func lookupInt(env core.Environment, key string) (int64, error) {
	v := lookup(env, key, "0")
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// JSON numbers arrive as float64.
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}
