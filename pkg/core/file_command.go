package core

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Channel names a file command channel. The runner exposes each channel as
// a file whose path is stored in GITHUB_<CHANNEL>.
type Channel string

const (
	ChannelEnv    Channel = "ENV"
	ChannelPath   Channel = "PATH"
	ChannelOutput Channel = "OUTPUT"
	ChannelState  Channel = "STATE"
)

// DelimiterPrefix starts every generated heredoc delimiter.
const DelimiterPrefix = "ghadelimiter_"

// EnvVar returns the environment variable holding the channel's file path.
func (c Channel) EnvVar() string {
	return "GITHUB_" + string(c)
}

// NewDelimiter returns a fresh heredoc delimiter.
func NewDelimiter() string {
	return DelimiterPrefix + uuid.NewString()
}

// IssueFileCommand appends the normalized message and EOL to the file bound
// to channel. The file is opened and closed on every call.
func (a *Action) IssueFileCommand(channel Channel, message any) error {
	path := getenv(a.env, channel.EnvVar())
	if path == "" {
		return fmt.Errorf("%w: unable to find environment variable for file command %s", ErrConfiguration, channel)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: missing file at path: %s", ErrConfiguration, path)
	}

	msg, err := Normalize(message)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open file command %s: %w", channel, err)
	}
	if _, err := io.WriteString(f, msg+EOL); err != nil {
		f.Close()
		return fmt.Errorf("write file command %s: %w", channel, err)
	}
	return f.Close()
}

// PrepareKeyValueMessage frames key and value as a heredoc block:
//
//	key<<ghadelimiter_<uuid>
//	value
//	ghadelimiter_<uuid>
//
// The block has no trailing EOL; IssueFileCommand adds it.
func (a *Action) PrepareKeyValueMessage(key string, value any) (string, error) {
	delimiter := a.delimiter()
	converted, err := Normalize(value)
	if err != nil {
		return "", err
	}

	if strings.Contains(key, delimiter) {
		return "", fmt.Errorf("%w: name should not contain the delimiter %q", ErrDelimiterCollision, delimiter)
	}
	if strings.Contains(converted, delimiter) {
		return "", fmt.Errorf("%w: value should not contain the delimiter %q", ErrDelimiterCollision, delimiter)
	}

	return key + "<<" + delimiter + EOL + converted + EOL + delimiter, nil
}

// issueKeyValue frames name/value and appends it to channel.
func (a *Action) issueKeyValue(channel Channel, name string, value any) error {
	msg, err := a.PrepareKeyValueMessage(name, value)
	if err != nil {
		return err
	}
	return a.IssueFileCommand(channel, msg)
}

// channelConfigured reports whether the runner provided a file for channel.
func (a *Action) channelConfigured(channel Channel) bool {
	return getenv(a.env, channel.EnvVar()) != ""
}
