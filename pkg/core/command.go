package core

import (
	"io"
	"strings"
)

const (
	cmdString = "::"

	// MissingCommand replaces an empty command name.
	MissingCommand = "missing.command"
)

// Property is a single key=value pair on a workflow command.
type Property struct {
	Key   string
	Value any
}

// Properties keeps command properties in insertion order. Entries whose
// value is nil or Null are left out of the rendered command.
type Properties []Property

// Get returns the value stored under key.
func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// Command is one workflow command:
//
//	::name key=value,key=value::message
type Command struct {
	Name       string
	Properties Properties
	Message    any
}

// Render formats the command as a single protocol line without the line
// terminator.
func (c Command) Render() (string, error) {
	name := c.Name
	if name == "" {
		name = MissingCommand
	}

	var b strings.Builder
	b.WriteString(cmdString)
	b.WriteString(name)

	first := true
	for _, prop := range c.Properties {
		if isAbsent(prop.Value) {
			continue
		}
		v, err := Normalize(prop.Value)
		if err != nil {
			return "", err
		}
		if first {
			b.WriteByte(' ')
			first = false
		} else {
			b.WriteByte(',')
		}
		b.WriteString(prop.Key)
		b.WriteByte('=')
		b.WriteString(EscapeProperty(v))
	}

	msg, err := Normalize(c.Message)
	if err != nil {
		return "", err
	}
	b.WriteString(cmdString)
	b.WriteString(EscapeData(msg))
	return b.String(), nil
}

// WriteCommand renders c and writes it to w followed by EOL.
func WriteCommand(w io.Writer, c Command) error {
	line, err := c.Render()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, line+EOL)
	return err
}

// IssueCommand writes a workflow command to the action's output.
func (a *Action) IssueCommand(name string, props Properties, message any) error {
	return WriteCommand(a.out, Command{Name: name, Properties: props, Message: message})
}

// Issue writes a workflow command with no properties. The message is
// optional and defaults to empty.
func (a *Action) Issue(name string, message ...any) error {
	var msg any = ""
	if len(message) > 0 {
		msg = message[0]
	}
	return a.IssueCommand(name, nil, msg)
}
