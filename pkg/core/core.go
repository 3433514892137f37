package core

import (
	"io"
	"os"
)

// ExportVariable sets name in the environment of this step and of every
// later step in the job. Non-string values are stored as JSON.
func (a *Action) ExportVariable(name string, value any) error {
	converted, err := Normalize(value)
	if err != nil {
		return err
	}
	if err := a.env.Setenv(name, converted); err != nil {
		return err
	}

	if a.channelConfigured(ChannelEnv) {
		return a.issueKeyValue(ChannelEnv, name, value)
	}
	return a.IssueCommand("set-env", Properties{{Key: "name", Value: name}}, converted)
}

// SetSecret registers secret so the runner masks it in later log output.
func (a *Action) SetSecret(secret string) error {
	return a.IssueCommand("add-mask", nil, secret)
}

// AddPath prepends path to PATH for this step and every later step.
func (a *Action) AddPath(path string) error {
	current := getenv(a.env, "PATH")
	if err := a.env.Setenv("PATH", path+string(os.PathListSeparator)+current); err != nil {
		return err
	}

	if a.channelConfigured(ChannelPath) {
		return a.IssueFileCommand(ChannelPath, path)
	}
	return a.IssueCommand("add-path", nil, path)
}

// SetOutput records a step output.
func (a *Action) SetOutput(name string, value any) error {
	if a.channelConfigured(ChannelOutput) {
		return a.issueKeyValue(ChannelOutput, name, value)
	}

	// The legacy command has always been preceded by a blank line.
	if _, err := io.WriteString(a.out, EOL); err != nil {
		return err
	}
	return a.IssueCommand("set-output", Properties{{Key: "name", Value: name}}, value)
}

// SaveState stores a value that only this action's post step can read back
// with GetState.
func (a *Action) SaveState(name string, value any) error {
	if a.channelConfigured(ChannelState) {
		return a.issueKeyValue(ChannelState, name, value)
	}
	return a.IssueCommand("save-state", Properties{{Key: "name", Value: name}}, value)
}

// GetState returns a value saved by the main step, or "" when unset.
func (a *Action) GetState(name string) string {
	return getenv(a.env, "STATE_"+name)
}

// SetCommandEcho turns echoing of workflow commands on or off for the rest
// of the step.
func (a *Action) SetCommandEcho(enabled bool) error {
	if enabled {
		return a.Issue("echo", "on")
	}
	return a.Issue("echo", "off")
}

// SetFailed marks the action as failed and emits message as an error
// annotation. The caller is expected to exit with ExitCode().
func (a *Action) SetFailed(message any) error {
	a.exitCode = ExitFailure
	return a.Error(message)
}

// IsDebug reports whether step debug logging is enabled.
func (a *Action) IsDebug() bool {
	return getenv(a.env, "RUNNER_DEBUG") == "1"
}

// Debug writes a debug message to the user log.
func (a *Action) Debug(message string) error {
	return a.IssueCommand("debug", nil, message)
}

// Info writes message to the log as plain text.
func (a *Action) Info(message string) error {
	_, err := io.WriteString(a.out, message+EOL)
	return err
}

// StartGroup begins a foldable output group.
func (a *Action) StartGroup(name string) error {
	return a.Issue("group", name)
}

// EndGroup ends the current output group.
func (a *Action) EndGroup() error {
	return a.Issue("endgroup")
}

// Group runs fn inside an output group. The group is closed even if fn
// fails; fn's error takes precedence.
func (a *Action) Group(name string, fn func() error) (err error) {
	if err := a.StartGroup(name); err != nil {
		return err
	}
	defer func() {
		if endErr := a.EndGroup(); err == nil {
			err = endErr
		}
	}()
	return fn()
}
