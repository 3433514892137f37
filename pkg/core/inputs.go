package core

import (
	"fmt"
	"strings"
)

// InputOptions controls how an input is read. The zero value reads an
// optional input and trims surrounding whitespace.
type InputOptions struct {
	// Required makes an empty input an error.
	Required bool

	// PreserveWhitespace disables trimming of leading and trailing whitespace.
	PreserveWhitespace bool
}

// InputEnvVar returns the environment variable holding input name.
func InputEnvVar(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

// GetInput returns the value of an input, or "" if it is not defined.
func (a *Action) GetInput(name string, opts InputOptions) (string, error) {
	value := getenv(a.env, InputEnvVar(name))
	if opts.Required && value == "" {
		return "", fmt.Errorf("%w: %s", ErrInputRequired, name)
	}
	if opts.PreserveWhitespace {
		return value, nil
	}
	return strings.TrimSpace(value), nil
}

// GetMultilineInput returns the non-empty lines of an input.
func (a *Action) GetMultilineInput(name string, opts InputOptions) ([]string, error) {
	value, err := a.GetInput(name, opts)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, line := range splitLines(value) {
		if line == "" {
			continue
		}
		if !opts.PreserveWhitespace {
			line = strings.TrimSpace(line)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// GetBooleanInput parses an input following the YAML 1.2 core schema:
// true, True, TRUE, false, False or FALSE.
func (a *Action) GetBooleanInput(name string, opts InputOptions) (bool, error) {
	value, err := a.GetInput(name, opts)
	if err != nil {
		return false, err
	}
	switch value {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("%w: %s\nSupport boolean input list: `true | True | TRUE | false | False | FALSE`", ErrInvalidBoolean, name)
}

// splitLines splits on \n, \r\n and \r.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
