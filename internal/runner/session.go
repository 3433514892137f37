package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/sekia-ai/actionkit/pkg/core"
)

var channels = []core.Channel{core.ChannelEnv, core.ChannelPath, core.ChannelOutput, core.ChannelState}

// Options configures a Session.
type Options struct {
	// Env seeds the step environment, e.g. from os.Environ().
	Env []string

	// Inputs are exposed as INPUT_<NAME> variables.
	Inputs map[string]string

	EventName  string
	EventPath  string
	Repository string

	// Legacy omits the GITHUB_<CHANNEL> files so steps fall back to
	// workflow commands on stdout.
	Legacy bool

	// Debug sets RUNNER_DEBUG=1.
	Debug bool

	// Output receives the step's stdout and stderr with secrets masked and
	// workflow commands removed. Defaults to io.Discard.
	Output io.Writer
}

// Annotation is a notice, warning or error emitted by a step.
type Annotation struct {
	Level      string            `json:"level"`
	Message    string            `json:"message"`
	Properties map[string]string `json:"properties,omitempty"`
}

// Result is what one step reported back.
type Result struct {
	ExitCode    int               `json:"exit_code"`
	Outputs     map[string]string `json:"outputs"`
	State       map[string]string `json:"state"`
	Env         map[string]string `json:"env"`
	Paths       []string          `json:"paths"`
	Masks       []string          `json:"masks"`
	Annotations []Annotation      `json:"annotations"`
	Commands    []core.Command    `json:"-"`
}

func newResult() *Result {
	return &Result{
		Outputs: map[string]string{},
		State:   map[string]string{},
		Env:     map[string]string{},
	}
}

// Session runs steps of one job. Environment exports, path additions and
// saved state carry over from one step to the next.
type Session struct {
	dir    string
	files  map[core.Channel]string
	env    *core.MapEnvironment
	opts   Options
	mask   *masker
	logger zerolog.Logger
}

// NewSession creates the channel files in a temporary directory and builds
// the step environment.
func NewSession(opts Options, logger zerolog.Logger) (*Session, error) {
	if opts.Output == nil {
		opts.Output = io.Discard
	}

	dir, err := os.MkdirTemp("", "actionkit-run-")
	if err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	vars := make(map[string]string, len(opts.Env))
	for _, kv := range opts.Env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	s := &Session{
		dir:    dir,
		files:  make(map[core.Channel]string),
		env:    core.NewMapEnvironment(vars),
		opts:   opts,
		mask:   &masker{},
		logger: logger.With().Str("component", "runner").Logger(),
	}

	for _, ch := range channels {
		s.env.Setenv(ch.EnvVar(), "")
	}
	if !opts.Legacy {
		for _, ch := range channels {
			path := filepath.Join(dir, strings.ToLower(string(ch)))
			if err := os.WriteFile(path, nil, 0644); err != nil {
				os.RemoveAll(dir)
				return nil, fmt.Errorf("create %s file: %w", ch, err)
			}
			s.files[ch] = path
			s.env.Setenv(ch.EnvVar(), path)
		}
	}

	s.env.Setenv("GITHUB_ACTIONS", "true")
	s.env.Setenv("CI", "true")
	if opts.EventName != "" {
		s.env.Setenv("GITHUB_EVENT_NAME", opts.EventName)
	}
	if opts.EventPath != "" {
		s.env.Setenv("GITHUB_EVENT_PATH", opts.EventPath)
	}
	if opts.Repository != "" {
		s.env.Setenv("GITHUB_REPOSITORY", opts.Repository)
	}
	if opts.Debug {
		s.env.Setenv("RUNNER_DEBUG", "1")
	}
	for name, value := range opts.Inputs {
		s.env.Setenv(core.InputEnvVar(name), value)
	}

	return s, nil
}

// Env returns the environment the next step will see.
func (s *Session) Env() *core.MapEnvironment {
	return s.env
}

// Close removes the session directory.
func (s *Session) Close() error {
	return os.RemoveAll(s.dir)
}

// Run executes one step and collects what it reported. A non-zero exit is
// reported in Result.ExitCode, not as an error.
func (s *Session) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	res := newResult()
	var mu sync.Mutex

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = s.env.Environ()
	if dir, ok := s.env.LookupEnv("GITHUB_WORKSPACE"); ok && dir != "" {
		cmd.Dir = dir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	stopWatch, err := s.watchChannels()
	if err != nil {
		s.logger.Warn().Err(err).Msg("channel files will not be tailed")
		stopWatch = func() {}
	}
	defer stopWatch()

	s.logger.Info().Str("step", name).Strs("args", args).Msg("running step")
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.scanOutput(stdout, true, res, &mu)
	}()
	go func() {
		defer wg.Done()
		s.scanOutput(stderr, false, res, &mu)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("wait %s: %w", name, err)
		}
		res.ExitCode = exitErr.ExitCode()
	}

	// The tail reads at its own offsets; stop it before the files are reset.
	stopWatch()
	if err := s.collectFiles(res); err != nil {
		return res, err
	}
	res.Masks = s.mask.list()

	s.logger.Info().
		Str("step", name).
		Int("exit_code", res.ExitCode).
		Int("outputs", len(res.Outputs)).
		Int("annotations", len(res.Annotations)).
		Msg("step finished")
	return res, nil
}

// scanOutput echoes step output and, for stdout, handles workflow commands.
func (s *Session) scanOutput(r io.Reader, commands bool, res *Result, mu *sync.Mutex) {
	sc := newLineScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if commands {
			if cmd, ok := ParseCommand(line); ok {
				mu.Lock()
				s.handleCommand(cmd, res)
				mu.Unlock()
				continue
			}
		}
		mu.Lock()
		fmt.Fprintln(s.opts.Output, s.mask.redact(line))
		mu.Unlock()
	}
	if err := sc.Err(); err != nil {
		s.logger.Error().Err(err).Msg("read step output")
	}
}

func (s *Session) handleCommand(cmd core.Command, res *Result) {
	res.Commands = append(res.Commands, cmd)
	msg := message(cmd)

	switch cmd.Name {
	case "add-mask":
		s.mask.add(msg)
	case "set-output":
		res.Outputs[property(cmd, "name")] = msg
	case "save-state":
		res.State[property(cmd, "name")] = msg
		s.env.Setenv("STATE_"+property(cmd, "name"), msg)
	case "set-env":
		res.Env[property(cmd, "name")] = msg
		s.env.Setenv(property(cmd, "name"), msg)
	case "add-path":
		s.prependPath(msg, res)
	case "notice", "warning", "error":
		a := Annotation{Level: cmd.Name, Message: msg}
		if len(cmd.Properties) > 0 {
			a.Properties = make(map[string]string, len(cmd.Properties))
			for _, p := range cmd.Properties {
				v, _ := p.Value.(string)
				a.Properties[p.Key] = v
			}
		}
		res.Annotations = append(res.Annotations, a)
		fmt.Fprintf(s.opts.Output, "%s: %s\n", strings.ToUpper(cmd.Name), s.mask.redact(msg))
	case "group":
		fmt.Fprintf(s.opts.Output, "▼ %s\n", s.mask.redact(msg))
	case "debug":
		s.logger.Debug().Str("message", s.mask.redact(msg)).Msg("step debug")
	default:
		s.logger.Debug().Str("command", cmd.Name).Msg("ignoring workflow command")
	}
}

func (s *Session) prependPath(dir string, res *Result) {
	res.Paths = append(res.Paths, dir)
	current, _ := s.env.LookupEnv("PATH")
	s.env.Setenv("PATH", dir+string(os.PathListSeparator)+current)
}

// collectFiles decodes the channel files, applies them to the session
// environment and truncates them for the next step.
func (s *Session) collectFiles(res *Result) error {
	for _, ch := range channels {
		path, ok := s.files[ch]
		if !ok {
			continue
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s file: %w", ch, err)
		}

		if ch == core.ChannelPath {
			paths, err := ParsePathFile(f)
			f.Close()
			if err != nil {
				return err
			}
			for _, p := range paths {
				s.prependPath(p, res)
			}
		} else {
			entries, err := ParseFileCommands(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("%s file: %w", ch, err)
			}
			for _, kv := range entries {
				switch ch {
				case core.ChannelEnv:
					res.Env[kv.Key] = kv.Value
					s.env.Setenv(kv.Key, kv.Value)
				case core.ChannelOutput:
					res.Outputs[kv.Key] = kv.Value
				case core.ChannelState:
					res.State[kv.Key] = kv.Value
					s.env.Setenv("STATE_"+kv.Key, kv.Value)
				}
			}
		}

		if err := os.Truncate(path, 0); err != nil {
			return fmt.Errorf("reset %s file: %w", ch, err)
		}
	}
	return nil
}

// Scan feeds previously captured step output through the command handler,
// e.g. a log saved from a real run.
func (s *Session) Scan(r io.Reader) *Result {
	res := newResult()
	var mu sync.Mutex
	s.scanOutput(r, true, res, &mu)
	res.Masks = s.mask.list()
	return res
}
