// Package runner emulates the runner side of the step protocol: it decodes
// workflow commands from a step's stdout and file commands from the
// channel files, and threads the results into later steps.
package runner

import (
	"strings"

	"github.com/sekia-ai/actionkit/pkg/core"
)

// ParseCommand decodes one stdout line. It reports false for lines that are
// not workflow commands. Property values and the message are unescaped and
// returned as strings.
func ParseCommand(line string) (core.Command, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "::") {
		return core.Command{}, false
	}
	rest := line[2:]
	end := strings.Index(rest, "::")
	if end < 0 {
		return core.Command{}, false
	}
	info, message := rest[:end], rest[end+2:]

	name, rawProps, hasProps := strings.Cut(info, " ")
	if name == "" {
		return core.Command{}, false
	}

	cmd := core.Command{Name: name, Message: core.UnescapeData(message)}
	if hasProps {
		for _, pair := range strings.Split(rawProps, ",") {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				continue
			}
			cmd.Properties = append(cmd.Properties, core.Property{Key: key, Value: core.UnescapeProperty(value)})
		}
	}
	return cmd, true
}

// property returns the string value of a parsed command property.
func property(cmd core.Command, key string) string {
	v, _ := cmd.Properties.Get(key)
	s, _ := v.(string)
	return s
}

// message returns the parsed command message.
func message(cmd core.Command) string {
	s, _ := cmd.Message.(string)
	return s
}
