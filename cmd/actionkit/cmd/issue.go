package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/pkg/github"
)

func newIssueCmd() *cobra.Command {
	var (
		token  string
		number int
	)

	cmd := &cobra.Command{
		Use:   "issue <command> [arg]",
		Short: "Act on the issue or pull request that triggered the run",
		Long: fmt.Sprintf(`Runs one of %s against the issue or
pull request in the event payload. add-label and remove-label take a label,
comment takes the body ("-" reads stdin).

The token is taken from --token, GITHUB_TOKEN, or the github-token or token
input, in that order.`, strings.Join(github.IssueCommands(), ", ")),
		Args:      cobra.RangeArgs(1, 2),
		ValidArgs: github.IssueCommands(),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := actionFor(cmd)
			c, err := github.NewContext(a)
			if err != nil {
				return fmt.Errorf("load context: %w", err)
			}
			issue, err := c.Issue()
			if err != nil {
				return err
			}
			if number != 0 {
				issue.Number = number
			}

			var arg string
			if len(args) == 2 {
				v, err := readValue(cmd, args[1], false)
				if err != nil {
					return err
				}
				arg = v.(string)
			}

			client, err := github.NewClient(cmd.Context(), c, github.ResolveToken(a, token))
			if err != nil {
				return err
			}
			logger.Debug().
				Str("command", args[0]).
				Str("repo", issue.Owner+"/"+issue.Repo).
				Int("number", issue.Number).
				Msg("issue command")
			return github.ApplyIssueCommand(cmd.Context(), client.Issues(), issue, args[0], arg)
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "API token")
	cmd.Flags().IntVar(&number, "number", 0, "issue or pull request number (default: from the event payload)")
	return cmd
}
