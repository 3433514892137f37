//go:build windows

package core

// EOL is the line terminator written after every command.
const EOL = "\r\n"
