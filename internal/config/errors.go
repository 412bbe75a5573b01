package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is matched by every configuration error.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotFound indicates no configuration file was found while searching upwards.
	ErrNotFound = errors.New("configuration file not found")
)

// Error describes a single problem found while parsing or validating a
// configuration. Field is a dotted location such as "human.parallel_groups[1]".
type Error struct {
	Field string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Field == "" {
		return "config: " + msg
	}
	return fmt.Sprintf("config: %s: %s", e.Field, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrInvalidConfig.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidConfig
}

func errorf(field, format string, args ...any) *Error {
	return &Error{Field: field, Msg: fmt.Sprintf(format, args...)}
}
