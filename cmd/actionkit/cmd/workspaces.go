package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sekia-ai/actionkit/internal/workspace"
)

func newManager(cmd *cobra.Command) (*workspace.Manager, error) {
	return workspace.NewManager(cfg.Workspaces, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

func newWorkspaceCmd() *cobra.Command {
	var filterPaths bool

	cmd := &cobra.Command{
		Use:   "workspace [--filter-paths] <name> <args...>",
		Short: "Run a command in a specified workspace",
		Long: `Runs the configured runner (workspaces.runner) with args inside the
workspace directory. Flags after the workspace name are passed through.

Examples:
  actionkit workspace api test ./...
  actionkit workspace --filter-paths api vet packages/api/server.go`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			code, err := m.Run(cmd.Context(), args[0], args[1:], filterPaths)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&filterPaths, "filter-paths", false, "keep only path arguments inside the workspace")
	return cmd
}

func newWorkspacesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspaces",
		Short: "List workspaces or run a command in all of them",
	}

	cmd.AddCommand(newWorkspacesListCmd())
	cmd.AddCommand(newWorkspacesForeachCmd())

	return cmd
}

func newWorkspacesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all available workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			return m.PrintList()
		},
	}
}

func newWorkspacesForeachCmd() *cobra.Command {
	var filterPaths bool

	cmd := &cobra.Command{
		Use:   "foreach [--filter-paths] <args...>",
		Short: "Run a command for all workspaces",
		Long: `Runs the command in every workspace, one after another. The exit code is
that of the last workspace that failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := newManager(cmd)
			if err != nil {
				return err
			}
			code, err := m.ForEach(cmd.Context(), args, filterPaths)
			if err != nil {
				return err
			}
			return exitWith(code)
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&filterPaths, "filter-paths", false, "keep only path arguments inside each workspace")
	return cmd
}
