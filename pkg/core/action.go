// Package core lets a step talk to the runner that executes it.
//
// Two encodings are supported. Workflow commands are single lines written
// to stdout:
//
//	::name key=value,key=value::message
//
// File commands are appended to files the runner names in GITHUB_ENV,
// GITHUB_PATH, GITHUB_OUTPUT and GITHUB_STATE, using heredoc framing so that
// values may span several lines.
//
// The package level functions act on a default Action bound to os.Stdout
// and the process environment. Tests and embedders construct their own
// Action with New.
package core

import (
	"io"
	"os"
)

// ExitCode is the code an action exits with.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFailure ExitCode = 1
)

// Action writes commands for one step. It is not safe for concurrent use.
type Action struct {
	out       io.Writer
	env       Environment
	delimiter func() string
	exitCode  ExitCode
}

// Option configures an Action.
type Option func(*Action)

// WithWriter sets where workflow commands are written. Defaults to os.Stdout.
func WithWriter(w io.Writer) Option {
	return func(a *Action) { a.out = w }
}

// WithEnvironment sets the environment used for inputs, channels and the
// export/add-path side effects. Defaults to the process environment.
func WithEnvironment(env Environment) Option {
	return func(a *Action) { a.env = env }
}

// WithDelimiter overrides heredoc delimiter generation.
func WithDelimiter(fn func() string) Option {
	return func(a *Action) { a.delimiter = fn }
}

// New creates an Action.
func New(opts ...Option) *Action {
	a := &Action{
		out:       os.Stdout,
		env:       OSEnvironment{},
		delimiter: NewDelimiter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Writer returns the writer commands are written to.
func (a *Action) Writer() io.Writer {
	return a.out
}

// Env returns the action's environment.
func (a *Action) Env() Environment {
	return a.env
}

// ExitCode returns ExitFailure once SetFailed has been called.
func (a *Action) ExitCode() ExitCode {
	return a.exitCode
}

var defaultAction = New()

// Default returns the Action used by the package level functions.
func Default() *Action {
	return defaultAction
}

func IssueCommand(name string, props Properties, message any) error {
	return defaultAction.IssueCommand(name, props, message)
}

func Issue(name string, message ...any) error { return defaultAction.Issue(name, message...) }

func IssueFileCommand(channel Channel, message any) error {
	return defaultAction.IssueFileCommand(channel, message)
}

func PrepareKeyValueMessage(key string, value any) (string, error) {
	return defaultAction.PrepareKeyValueMessage(key, value)
}

func ExportVariable(name string, value any) error { return defaultAction.ExportVariable(name, value) }
func SetSecret(secret string) error               { return defaultAction.SetSecret(secret) }
func AddPath(path string) error                   { return defaultAction.AddPath(path) }
func SetOutput(name string, value any) error      { return defaultAction.SetOutput(name, value) }
func SaveState(name string, value any) error      { return defaultAction.SaveState(name, value) }
func GetState(name string) string                 { return defaultAction.GetState(name) }
func SetCommandEcho(enabled bool) error           { return defaultAction.SetCommandEcho(enabled) }
func SetFailed(message any) error                 { return defaultAction.SetFailed(message) }
func IsDebug() bool                               { return defaultAction.IsDebug() }
func Debug(message string) error                  { return defaultAction.Debug(message) }
func Info(message string) error                   { return defaultAction.Info(message) }
func StartGroup(name string) error                { return defaultAction.StartGroup(name) }
func EndGroup() error                             { return defaultAction.EndGroup() }
func Group(name string, fn func() error) error    { return defaultAction.Group(name, fn) }

func GetInput(name string, opts InputOptions) (string, error) {
	return defaultAction.GetInput(name, opts)
}

func GetMultilineInput(name string, opts InputOptions) ([]string, error) {
	return defaultAction.GetMultilineInput(name, opts)
}

func GetBooleanInput(name string, opts InputOptions) (bool, error) {
	return defaultAction.GetBooleanInput(name, opts)
}

func Notice(message any, props ...AnnotationProperties) error {
	return defaultAction.Notice(message, props...)
}

func Warning(message any, props ...AnnotationProperties) error {
	return defaultAction.Warning(message, props...)
}

func Error(message any, props ...AnnotationProperties) error {
	return defaultAction.Error(message, props...)
}
