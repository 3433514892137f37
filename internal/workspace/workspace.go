// Package workspace runs commands inside the workspaces of a mono
// repository. A workspace is a subdirectory of the workspaces dir that
// contains the marker file.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
)

const arrow = "➤"

// Manager discovers workspaces and runs commands in them.
type Manager struct {
	dir    string
	marker string
	runner string
	out    io.Writer
	errOut io.Writer

	info lipgloss.Style
	warn lipgloss.Style
	fail lipgloss.Style

	logger zerolog.Logger
}

// NewManager resolves cfg.Dir against the working directory. Command output
// goes to out and errOut.
func NewManager(cfg WorkspacesConfig, out, errOut io.Writer, logger zerolog.Logger) (*Manager, error) {
	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspaces dir: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	r := lipgloss.NewRenderer(out)
	return &Manager{
		dir:    dir,
		marker: cfg.Marker,
		runner: cfg.Runner,
		out:    out,
		errOut: errOut,
		info:   r.NewStyle().Foreground(lipgloss.Color("4")),
		warn:   r.NewStyle().Foreground(lipgloss.Color("3")),
		fail:   r.NewStyle().Foreground(lipgloss.Color("1")),
		logger: logger.With().Str("component", "workspace").Logger(),
	}, nil
}

// Dir returns the directory of the named workspace.
func (m *Manager) Dir(name string) string {
	return filepath.Join(m.dir, name)
}

// Exists reports whether name is a workspace.
func (m *Manager) Exists(name string) bool {
	info, err := os.Stat(filepath.Join(m.Dir(name), m.marker))
	return err == nil && !info.IsDir()
}

// List returns the workspace names in lexical order.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, fmt.Errorf("read workspaces dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && m.Exists(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// PrintList writes one arrow-prefixed line per workspace.
func (m *Manager) PrintList() error {
	names, err := m.List()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintf(m.out, "%s %s\n", m.info.Render(arrow), name)
	}
	return nil
}

// Run executes the runner with args inside the named workspace and returns
// its exit code. An unknown workspace yields 1. With filterPaths, path
// arguments outside the workspace are dropped and the workspace is skipped
// with exit code 0 when none of them fall inside it.
func (m *Manager) Run(ctx context.Context, name string, args []string, filterPaths bool) (int, error) {
	if !m.Exists(name) {
		fmt.Fprintf(m.out, "%s %s not found\n", m.fail.Render(arrow), name)
		return 1, nil
	}
	dir := m.Dir(name)

	if filterPaths {
		filtered, ok := FilterPaths(dir, args)
		if !ok {
			fmt.Fprintf(m.out, "%s %s no files to run\n", m.warn.Render(arrow), name)
			return 0, nil
		}
		args = filtered
	}

	fmt.Fprintf(m.out, "%s %s\n\n", m.info.Render(arrow), name)

	bin, argv := m.runner, args
	if bin == "" {
		if len(args) == 0 {
			return 1, fmt.Errorf("no command given for workspace %s", name)
		}
		bin, argv = args[0], args[1:]
	}

	cmd := exec.CommandContext(ctx, bin, argv...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = m.out
	cmd.Stderr = m.errOut

	m.logger.Debug().Str("workspace", name).Str("runner", bin).Strs("args", argv).Msg("running in workspace")
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("run in %s: %w", name, err)
	}
	return 0, nil
}

// ForEach runs args in every workspace. The result is the exit code of the
// last workspace that failed, or 0.
func (m *Manager) ForEach(ctx context.Context, args []string, filterPaths bool) (int, error) {
	names, err := m.List()
	if err != nil {
		return 1, err
	}
	code := 0
	for _, name := range names {
		c, err := m.Run(ctx, name, args, filterPaths)
		if err != nil {
			return 1, err
		}
		fmt.Fprintln(m.out)
		if c != 0 {
			code = c
		}
	}
	return code, nil
}

// FilterPaths rewrites args for a run inside dir. The first argument is the
// subcommand and is kept. Arguments naming an existing path are kept,
// relative to dir, only when the path lies inside dir. Arguments that are
// not existing paths pass through. ok reports whether any path was kept.
func FilterPaths(dir string, args []string) (filtered []string, ok bool) {
	if len(args) == 0 {
		return args, false
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)

	filtered = append(filtered, args[0])
	for _, arg := range args[1:] {
		resolved, exists := resolvePath(arg)
		if !exists {
			filtered = append(filtered, arg)
			continue
		}
		if strings.HasPrefix(resolved, prefix) {
			ok = true
			filtered = append(filtered, strings.TrimPrefix(resolved, prefix))
		}
	}
	return filtered, ok
}

func resolvePath(arg string) (string, bool) {
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", false
	}
	if _, err := os.Stat(abs); err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return abs, true
}
