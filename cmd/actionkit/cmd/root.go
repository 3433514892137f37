package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/internal/workspace"
	"github.com/sekia-ai/actionkit/pkg/core"
)

var (
	cfgFile string
	cfg     workspace.Config
	logger  = zerolog.Nop()

	// Version is set by the main package via ldflags.
	Version = "dev"
)

// exitError carries a child process or action exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// ExitCodeOf maps an error returned by the root command to a process exit
// code.
func ExitCodeOf(err error) int {
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	return 1
}

func exitWith(code int) error {
	if code == 0 {
		return nil
	}
	return &exitError{code: code}
}

// NewRootCmd creates the root actionkit command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "actionkit",
		Short: "Talk to the GitHub Actions runner from shell steps",
		Long: `actionkit writes workflow commands and file commands for the runner that
executes the current step, runs commands across mono repository workspaces,
and emulates a runner locally to test steps.

Workflow commands go to stdout. Logs go to stderr.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = workspace.LoadConfig(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			level, err := zerolog.ParseLevel(cfg.Log.Level)
			if err != nil {
				return fmt.Errorf("parse log.level: %w", err)
			}
			logger = zerolog.New(
				zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339},
			).Level(level).With().Timestamp().Logger()
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: ./actionkit.toml)")

	rootCmd.AddCommand(newWorkspaceCmd())
	rootCmd.AddCommand(newWorkspacesCmd())
	rootCmd.AddCommand(newSetOutputCmd())
	rootCmd.AddCommand(newSaveStateCmd())
	rootCmd.AddCommand(newGetStateCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newAddPathCmd())
	rootCmd.AddCommand(newAddMaskCmd())
	rootCmd.AddCommand(newInputCmd())
	rootCmd.AddCommand(newAnnotationCmd("notice"))
	rootCmd.AddCommand(newAnnotationCmd("warning"))
	rootCmd.AddCommand(newAnnotationCmd("error"))
	rootCmd.AddCommand(newDebugCmd())
	rootCmd.AddCommand(newEchoCmd())
	rootCmd.AddCommand(newFailCmd())
	rootCmd.AddCommand(newGroupCmd())
	rootCmd.AddCommand(newIDTokenCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSecretsCmd())
	rootCmd.AddCommand(newContextCmd())
	rootCmd.AddCommand(newIssueCmd())

	return rootCmd
}

// actionFor binds an Action to the command's stdout and the process
// environment.
func actionFor(cmd *cobra.Command) *core.Action {
	return core.New(core.WithWriter(cmd.OutOrStdout()))
}

