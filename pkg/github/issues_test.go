package github

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

// mockIssues records all API calls for assertion.
type mockIssues struct {
	calls []mockCall
	err   error
}

type mockCall struct {
	Method string
	Owner  string
	Repo   string
	Number int
	Args   []string
}

func (m *mockIssues) AddLabels(_ context.Context, owner, repo string, number int, labels []string) error {
	m.calls = append(m.calls, mockCall{"AddLabels", owner, repo, number, labels})
	return m.err
}

func (m *mockIssues) RemoveLabel(_ context.Context, owner, repo string, number int, label string) error {
	m.calls = append(m.calls, mockCall{"RemoveLabel", owner, repo, number, []string{label}})
	return m.err
}

func (m *mockIssues) CreateComment(_ context.Context, owner, repo string, number int, body string) error {
	m.calls = append(m.calls, mockCall{"CreateComment", owner, repo, number, []string{body}})
	return m.err
}

func (m *mockIssues) EditIssueState(_ context.Context, owner, repo string, number int, state string) error {
	m.calls = append(m.calls, mockCall{"EditIssueState", owner, repo, number, []string{state}})
	return m.err
}

func TestApplyIssueCommand(t *testing.T) {
	issue := Issue{Owner: "myorg", Repo: "myrepo", Number: 42}
	tests := []struct {
		name string
		arg  string
		want mockCall
	}{
		{"add-label", "bug", mockCall{"AddLabels", "myorg", "myrepo", 42, []string{"bug"}}},
		{"remove-label", "triage", mockCall{"RemoveLabel", "myorg", "myrepo", 42, []string{"triage"}}},
		{"comment", "Thanks!", mockCall{"CreateComment", "myorg", "myrepo", 42, []string{"Thanks!"}}},
		{"close", "", mockCall{"EditIssueState", "myorg", "myrepo", 42, []string{"closed"}}},
		{"reopen", "", mockCall{"EditIssueState", "myorg", "myrepo", 42, []string{"open"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockIssues{}
			if err := ApplyIssueCommand(context.Background(), mock, issue, tt.name, tt.arg); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(mock.calls) != 1 || !reflect.DeepEqual(mock.calls[0], tt.want) {
				t.Errorf("calls = %+v, want %+v", mock.calls, tt.want)
			}
		})
	}
}

func TestApplyIssueCommand_Errors(t *testing.T) {
	issue := Issue{Owner: "o", Repo: "r", Number: 1}
	mock := &mockIssues{}

	if err := ApplyIssueCommand(context.Background(), mock, issue, "lock", ""); err == nil {
		t.Error("expected error for unknown command")
	}
	if err := ApplyIssueCommand(context.Background(), mock, issue, "add-label", ""); err == nil {
		t.Error("expected error for missing label")
	}
	if err := ApplyIssueCommand(context.Background(), mock, Issue{Owner: "o", Repo: "r"}, "close", ""); err == nil {
		t.Error("expected error without issue number")
	}
	if len(mock.calls) != 0 {
		t.Errorf("no API calls expected, got %+v", mock.calls)
	}

	apiErr := errors.New("forbidden")
	failing := &mockIssues{err: apiErr}
	err := ApplyIssueCommand(context.Background(), failing, issue, "comment", "hi")
	if !errors.Is(err, apiErr) {
		t.Errorf("err = %v, want wrapped %v", err, apiErr)
	}
}

func TestIssueCommands(t *testing.T) {
	want := []string{"add-label", "close", "comment", "remove-label", "reopen"}
	if got := IssueCommands(); !reflect.DeepEqual(got, want) {
		t.Errorf("IssueCommands = %v, want %v", got, want)
	}
}

func TestRestIssues(t *testing.T) {
	type request struct {
		Method string
		Path   string
		Body   map[string]any
	}
	var got []request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := request{Method: r.Method, Path: r.URL.Path}
		json.NewDecoder(r.Body).Decode(&req.Body)
		got = append(got, req)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/repos/o/r/issues/3/labels" {
			w.Write([]byte(`[]`))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client, err := NewClient(context.Background(), &Context{APIURL: srv.URL}, "tok")
	if err != nil {
		t.Fatal(err)
	}
	issue := Issue{Owner: "o", Repo: "r", Number: 3}
	ctx := context.Background()

	for _, c := range []struct{ name, arg string }{
		{"add-label", "bug"},
		{"comment", "hello"},
		{"close", ""},
		{"remove-label", "bug"},
	} {
		if err := ApplyIssueCommand(ctx, client.Issues(), issue, c.name, c.arg); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
	}

	want := []struct{ method, path string }{
		{"POST", "/repos/o/r/issues/3/labels"},
		{"POST", "/repos/o/r/issues/3/comments"},
		{"PATCH", "/repos/o/r/issues/3"},
		{"DELETE", "/repos/o/r/issues/3/labels/bug"},
	}
	if len(got) != len(want) {
		t.Fatalf("requests = %+v", got)
	}
	for i, w := range want {
		if got[i].Method != w.method || got[i].Path != w.path {
			t.Errorf("request %d = %s %s, want %s %s", i, got[i].Method, got[i].Path, w.method, w.path)
		}
	}
	if got[1].Body["body"] != "hello" {
		t.Errorf("comment body = %v", got[1].Body)
	}
	if got[2].Body["state"] != "closed" {
		t.Errorf("edit body = %v", got[2].Body)
	}
}
