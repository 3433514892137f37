package workspace

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

// newTestRepo lays out dir/packages/{alpha,beta,gamma} where gamma has no
// marker file.
func newTestRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"beta", "alpha", "gamma"} {
		dir := filepath.Join(root, "packages", name)
		if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
			t.Fatal(err)
		}
		if name != "gamma" {
			if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+name+"\n"), 0644); err != nil {
				t.Fatal(err)
			}
		}
		os.WriteFile(filepath.Join(dir, "src", "main.go"), []byte("package main\n"), 0644)
	}
	os.WriteFile(filepath.Join(root, "packages", "README"), nil, 0644)
	return root
}

func newTestManager(t *testing.T, root, runner string) (*Manager, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	m, err := NewManager(WorkspacesConfig{
		Dir:    filepath.Join(root, "packages"),
		Marker: "go.mod",
		Runner: runner,
	}, &out, &out, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	return m, &out
}

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestList(t *testing.T) {
	m, out := newTestManager(t, newTestRepo(t), "sh")

	names, err := m.List()
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"alpha", "beta"}; !reflect.DeepEqual(names, want) {
		t.Errorf("List = %v, want %v", names, want)
	}

	if err := m.PrintList(); err != nil {
		t.Fatal(err)
	}
	if want := "➤ alpha\n➤ beta\n"; out.String() != want {
		t.Errorf("PrintList = %q, want %q", out.String(), want)
	}
}

func TestList_MissingDir(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir(), "sh")
	if _, err := m.List(); err == nil {
		t.Error("expected error for missing workspaces dir")
	}
}

func TestRun(t *testing.T) {
	requireShell(t)
	m, out := newTestManager(t, newTestRepo(t), "sh")

	code, err := m.Run(context.Background(), "alpha", []string{"-c", "pwd; exit 3"}, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
	got := out.String()
	if !strings.HasPrefix(got, "➤ alpha\n\n") {
		t.Errorf("output = %q", got)
	}
	if !strings.Contains(got, filepath.Join("packages", "alpha")) {
		t.Errorf("command did not run in workspace dir: %q", got)
	}
}

func TestRun_NotFound(t *testing.T) {
	m, out := newTestManager(t, newTestRepo(t), "sh")

	for _, name := range []string{"gamma", "missing"} {
		out.Reset()
		code, err := m.Run(context.Background(), name, []string{"-c", "true"}, false)
		if err != nil {
			t.Fatal(err)
		}
		if code != 1 {
			t.Errorf("%s: exit code = %d, want 1", name, code)
		}
		if want := "➤ " + name + " not found\n"; out.String() != want {
			t.Errorf("%s: output = %q, want %q", name, out.String(), want)
		}
	}
}

func TestRun_NoRunner(t *testing.T) {
	requireShell(t)
	m, out := newTestManager(t, newTestRepo(t), "")

	code, err := m.Run(context.Background(), "beta", []string{"sh", "-c", "echo direct"}, false)
	if err != nil || code != 0 {
		t.Fatalf("code = %d, err = %v", code, err)
	}
	if !strings.Contains(out.String(), "direct\n") {
		t.Errorf("output = %q", out.String())
	}

	if _, err := m.Run(context.Background(), "beta", nil, false); err == nil {
		t.Error("expected error with no runner and no args")
	}
}

func TestRun_FilterPathsSkips(t *testing.T) {
	root := newTestRepo(t)
	m, out := newTestManager(t, root, "sh")

	other := filepath.Join(root, "packages", "beta", "src", "main.go")
	code, err := m.Run(context.Background(), "alpha", []string{"-c", other}, true)
	if err != nil {
		t.Fatal(err)
	}
	if code != 0 {
		t.Errorf("exit code = %d, want 0", code)
	}
	if want := "➤ alpha no files to run\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestForEach(t *testing.T) {
	requireShell(t)
	m, out := newTestManager(t, newTestRepo(t), "sh")

	script := `case "$(basename "$(pwd)")" in alpha) exit 2;; *) exit 0;; esac`
	code, err := m.ForEach(context.Background(), []string{"-c", script}, false)
	if err != nil {
		t.Fatal(err)
	}
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if want := "➤ alpha\n\n\n➤ beta\n\n\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestFilterPaths(t *testing.T) {
	root := newTestRepo(t)
	alpha := filepath.Join(root, "packages", "alpha")
	inside := filepath.Join(alpha, "src", "main.go")
	outside := filepath.Join(root, "packages", "beta", "src", "main.go")

	tests := []struct {
		name   string
		args   []string
		want   []string
		wantOK bool
	}{
		{"empty", nil, nil, false},
		{"subcommand only", []string{"test"}, []string{"test"}, false},
		{"inside", []string{"test", inside}, []string{"test", filepath.Join("src", "main.go")}, true},
		{"outside dropped", []string{"test", outside}, []string{"test"}, false},
		{"mixed", []string{"vet", "-v", outside, inside, "./..."}, []string{"vet", "-v", filepath.Join("src", "main.go"), "./..."}, true},
		{"workspace dir itself", []string{"test", alpha}, []string{"test"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FilterPaths(alpha, tt.args)
			if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterPaths = %v, %v; want %v, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	if wd, err := os.Getwd(); err != nil {
		t.Fatal(err)
	} else if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	} else {
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	t.Setenv("HOME", t.TempDir())

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "info" || cfg.Workspaces.Dir != "packages" || cfg.Workspaces.Marker != "go.mod" || cfg.Workspaces.Runner != "go" {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "actionkit.toml")
	content := `
[log]
level = "debug"

[workspaces]
dir = "modules"
marker = "pyproject.toml"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTIONKIT_WORKSPACES_RUNNER", "hatch")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || cfg.Workspaces.Dir != "modules" || cfg.Workspaces.Marker != "pyproject.toml" {
		t.Errorf("file values = %+v", cfg)
	}
	if cfg.Workspaces.Runner != "hatch" {
		t.Errorf("runner = %q, want env override", cfg.Workspaces.Runner)
	}
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadConfig_EncryptedWithoutIdentity(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("ACTIONKIT_AGE_KEY", "")
	t.Setenv("ACTIONKIT_AGE_KEY_FILE", "")
	path := filepath.Join(t.TempDir(), "actionkit.toml")
	os.WriteFile(path, []byte("[workspaces]\nrunner = \"ENC[c2VjcmV0]\"\n"), 0644)

	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "no age identity") {
		t.Errorf("err = %v", err)
	}
}
