package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sekia-ai/actionkit/pkg/core"
)

// execute runs the root command in an empty working directory with no
// channel files configured.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	// Equivalent of t.Chdir (Go 1.24+) for older toolchains.
	if wd, err := os.Getwd(); err != nil {
		t.Fatal(err)
	} else if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	} else {
		t.Cleanup(func() { _ = os.Chdir(wd) })
	}
	t.Setenv("HOME", t.TempDir())
	for _, ch := range []core.Channel{core.ChannelEnv, core.ChannelPath, core.ChannelOutput, core.ChannelState} {
		if _, ok := os.LookupEnv(ch.EnvVar()); !ok {
			t.Setenv(ch.EnvVar(), "")
		}
	}

	var out, errOut bytes.Buffer
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestSetOutput_Legacy(t *testing.T) {
	out, err := execute(t, "a\nb\n", "set-output", "result", "-")
	if err != nil {
		t.Fatal(err)
	}
	if want := core.EOL + "::set-output name=result::a%0Ab" + core.EOL; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestSetOutput_FileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GITHUB_OUTPUT", path)

	out, err := execute(t, "", "set-output", "--json", "data", `{"b":[true,null],"a":1.50}`)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Errorf("stdout = %q, want nothing", out)
	}
	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSuffix(string(data), core.EOL), core.EOL)
	if len(lines) != 3 {
		t.Fatalf("file = %q", data)
	}
	if !strings.HasPrefix(lines[0], "data<<"+core.DelimiterPrefix) || lines[2] != strings.TrimPrefix(lines[0], "data<<") {
		t.Errorf("framing = %q", data)
	}
	if lines[1] != `{"a":1.50,"b":[true,null]}` {
		t.Errorf("value = %q", lines[1])
	}
}

func TestSetOutput_BadJSON(t *testing.T) {
	if _, err := execute(t, "", "set-output", "--json", "x", "{nope"); err == nil {
		t.Error("expected decode error")
	}
}

func TestAnnotation(t *testing.T) {
	out, err := execute(t, "", "warning", "--title", "Lint: unused", "--file", "main.go", "--line", "3", "--col", "7", "50% done")
	if err != nil {
		t.Fatal(err)
	}
	want := "::warning title=Lint%3A unused,file=main.go,line=3,col=7::50%25 done" + core.EOL
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestAnnotation_ExplicitZero(t *testing.T) {
	out, err := execute(t, "", "notice", "--line", "0", "--end-column", "0", "top")
	if err != nil {
		t.Fatal(err)
	}
	if want := "::notice line=0,endColumn=0::top" + core.EOL; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestFail(t *testing.T) {
	out, err := execute(t, "", "fail", "boom")
	if ExitCodeOf(err) != 1 {
		t.Errorf("exit code = %d (err %v), want 1", ExitCodeOf(err), err)
	}
	if want := "::error::boom" + core.EOL; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestGroupAndEcho(t *testing.T) {
	out, err := execute(t, "", "group", "start", "Build")
	if err != nil || out != "::group::Build"+core.EOL {
		t.Errorf("group start = %q, %v", out, err)
	}
	out, err = execute(t, "", "group", "end")
	if err != nil || out != "::endgroup::"+core.EOL {
		t.Errorf("group end = %q, %v", out, err)
	}
	out, err = execute(t, "", "echo", "off")
	if err != nil || out != "::echo::off"+core.EOL {
		t.Errorf("echo = %q, %v", out, err)
	}
	if _, err := execute(t, "", "echo", "maybe"); err == nil {
		t.Error("expected error for invalid echo arg")
	}
}

func TestInput(t *testing.T) {
	t.Setenv("INPUT_FILES", "  a.go\n\n  b.go  \n")
	t.Setenv("INPUT_DRY_RUN", "True")

	out, err := execute(t, "", "input", "--multiline", "files")
	if err != nil || out != "a.go\nb.go\n" {
		t.Errorf("multiline = %q, %v", out, err)
	}
	out, err = execute(t, "", "input", "--bool", "dry run")
	if err != nil || out != "true\n" {
		t.Errorf("bool = %q, %v", out, err)
	}
	if _, err := execute(t, "", "input", "--required", "missing"); err == nil {
		t.Error("expected error for missing required input")
	}
}

func TestWorkspace_NotFound(t *testing.T) {
	out, err := execute(t, "", "workspace", "nope", "test")
	if ExitCodeOf(err) != 1 {
		t.Errorf("exit code = %d (err %v), want 1", ExitCodeOf(err), err)
	}
	if !strings.Contains(out, "nope not found") {
		t.Errorf("output = %q", out)
	}
}

func TestRun_Replay(t *testing.T) {
	log := filepath.Join(t.TempDir(), "step.log")
	content := "hello\n::add-mask::pw\n\n::set-output name=answer::42\n::notice file=a.go::done\n"
	if err := os.WriteFile(log, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "", "run", "--replay", log)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Outputs     map[string]string `json:"outputs"`
		Masks       []string          `json:"masks"`
		Annotations []struct {
			Level string `json:"level"`
		} `json:"annotations"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode result %q: %v", out, err)
	}
	if res.Outputs["answer"] != "42" || len(res.Masks) != 1 || len(res.Annotations) != 1 || res.Annotations[0].Level != "notice" {
		t.Errorf("result = %+v", res)
	}
}

func TestRun_RequiresCommand(t *testing.T) {
	if _, err := execute(t, "", "run"); err == nil {
		t.Error("expected error without command or --replay")
	}
}

func TestContext(t *testing.T) {
	event := filepath.Join(t.TempDir(), "event.json")
	os.WriteFile(event, []byte(`{"action":"opened","issue":{"number":7},"repository":{"name":"r","owner":{"login":"o"}}}`), 0644)
	t.Setenv("GITHUB_EVENT_PATH", event)
	t.Setenv("GITHUB_EVENT_NAME", "issues")
	t.Setenv("GITHUB_REPOSITORY", "")
	t.Setenv("GITHUB_RUN_ID", "99")
	t.Setenv("GITHUB_RUN_NUMBER", "")

	out, err := execute(t, "", "context")
	if err != nil {
		t.Fatal(err)
	}
	var view struct {
		EventName string `json:"event_name"`
		RunID     int64  `json:"run_id"`
		Repo      struct {
			Owner string `json:"owner"`
			Repo  string `json:"repo"`
		} `json:"repo"`
		Issue struct {
			Number int `json:"number"`
		} `json:"issue"`
		EventType string `json:"event_type"`
	}
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if view.EventName != "issues" || view.RunID != 99 || view.Repo.Owner != "o" || view.Issue.Number != 7 {
		t.Errorf("view = %+v", view)
	}
	if view.EventType != "*github.IssuesEvent" {
		t.Errorf("event type = %q", view.EventType)
	}
}

func TestSecrets_EncryptAndMask(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "age.key")
	if _, err := execute(t, "", "secrets", "keygen", "-o", keyFile); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ACTIONKIT_AGE_KEY", "")
	t.Setenv("ACTIONKIT_AGE_KEY_FILE", keyFile)
	t.Setenv("PASSWORD", "")

	enc, err := execute(t, "", "secrets", "encrypt", "hunter2")
	if err != nil {
		t.Fatal(err)
	}
	enc = strings.TrimSpace(enc)
	if !strings.HasPrefix(enc, "ENC[") {
		t.Fatalf("encrypt output = %q", enc)
	}

	out, err := execute(t, "", "secrets", "mask", "--export", "PASSWORD", enc)
	if err != nil {
		t.Fatal(err)
	}
	want := "::add-mask::hunter2" + core.EOL + "::set-env name=PASSWORD::hunter2" + core.EOL
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestIssue_Comment(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	event := filepath.Join(t.TempDir(), "event.json")
	os.WriteFile(event, []byte(`{"pull_request":{"number":12}}`), 0644)
	t.Setenv("GITHUB_EVENT_PATH", event)
	t.Setenv("GITHUB_EVENT_NAME", "pull_request")
	t.Setenv("GITHUB_REPOSITORY", "o/r")
	t.Setenv("GITHUB_API_URL", srv.URL)
	t.Setenv("GITHUB_TOKEN", "tok")
	t.Setenv("GITHUB_RUN_ID", "")
	t.Setenv("GITHUB_RUN_NUMBER", "")

	if _, err := execute(t, "looks good\n", "issue", "comment", "-"); err != nil {
		t.Fatal(err)
	}
	if gotPath != "/repos/o/r/issues/12/comments" {
		t.Errorf("path = %s", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["body"] != "looks good" {
		t.Errorf("body = %v", gotBody)
	}
}
