package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/pkg/github"
)

// contextView is the JSON shape printed by the context command.
type contextView struct {
	*github.Context
	Repo  *github.Repo  `json:"repo,omitempty"`
	Issue *github.Issue `json:"issue,omitempty"`
	Event string        `json:"event_type,omitempty"`
}

func newContextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the workflow run context as JSON",
		Long: `Hydrates the run context from GITHUB_* variables and the event payload
and prints it as JSON, with the repository and issue resolved when known.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := actionFor(cmd)
			c, err := github.NewContext(a)
			if err != nil {
				return fmt.Errorf("load context: %w", err)
			}

			view := contextView{Context: c}
			if repo, err := c.Repo(); err == nil {
				view.Repo = &repo
				if issue, err := c.Issue(); err == nil && issue.Number != 0 {
					view.Issue = &issue
				}
			}
			if event, err := c.ParseEvent(); err == nil && event != nil {
				view.Event = fmt.Sprintf("%T", event)
			} else if err != nil {
				logger.Debug().Err(err).Str("event", c.EventName).Msg("event payload not parsed")
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}
