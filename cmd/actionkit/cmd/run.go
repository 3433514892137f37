package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/internal/runner"
)

func newRunCmd() *cobra.Command {
	var (
		opts       runner.Options
		inputs     []string
		replayFile string
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a step under a local runner emulator",
		Long: `Runs a command the way a runner would run a step: with GITHUB_ENV,
GITHUB_PATH, GITHUB_OUTPUT and GITHUB_STATE files, INPUT_* variables and the
event payload. Workflow commands on stdout are interpreted, registered masks
are applied to the echoed output and the collected result is printed as
JSON on stdout. The step's own output goes to stderr.

With --replay the workflow commands in a saved log are interpreted instead
of running a command.

Examples:
  actionkit run --input name=world -- ./entrypoint.sh
  actionkit run --event push.json --event-name push -- go run ./cmd/step
  actionkit run --replay step.log`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if replayFile == "" && len(args) == 0 {
				return fmt.Errorf("a command or --replay is required")
			}

			opts.Env = os.Environ()
			opts.Output = cmd.ErrOrStderr()
			opts.Inputs = make(map[string]string, len(inputs))
			for _, kv := range inputs {
				name, value, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("invalid --input %q (want name=value)", kv)
				}
				opts.Inputs[name] = value
			}

			s, err := runner.NewSession(opts, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			var res *runner.Result
			if replayFile != "" {
				f, err := os.Open(replayFile)
				if err != nil {
					return fmt.Errorf("open replay log: %w", err)
				}
				res = s.Scan(f)
				f.Close()
			} else {
				res, err = s.Run(cmd.Context(), args[0], args[1:]...)
				if err != nil {
					return err
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			return exitWith(res.ExitCode)
		},
	}

	cmd.Flags().StringArrayVarP(&inputs, "input", "i", nil, "action input as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.EventPath, "event", "", "webhook payload file exposed as GITHUB_EVENT_PATH")
	cmd.Flags().StringVar(&opts.EventName, "event-name", "", "value of GITHUB_EVENT_NAME")
	cmd.Flags().StringVar(&opts.Repository, "repository", "", "value of GITHUB_REPOSITORY (owner/repo)")
	cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "do not provide channel files so steps fall back to stdout commands")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "set RUNNER_DEBUG=1")
	cmd.Flags().StringVar(&replayFile, "replay", "", "interpret workflow commands from a saved log instead of running a command")
	return cmd
}
