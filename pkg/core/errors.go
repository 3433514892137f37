package core

import "errors"

var (
	// ErrConfiguration is returned when a channel environment variable is
	// unset or points at a file that does not exist.
	ErrConfiguration = errors.New("configuration error")

	// ErrDelimiterCollision is returned when the generated heredoc delimiter
	// appears inside the key or value being framed.
	ErrDelimiterCollision = errors.New("delimiter collision")

	// ErrSerialization is returned when a value cannot be rendered as JSON.
	ErrSerialization = errors.New("serialization error")

	// ErrInputRequired is returned by GetInput when a required input is empty.
	ErrInputRequired = errors.New("input required and not supplied")

	// ErrInvalidBoolean is returned by GetBooleanInput for values outside the
	// YAML 1.2 core schema.
	ErrInvalidBoolean = errors.New(`input does not meet YAML 1.2 "Core Schema" specification`)
)
