package config

import (
	"errors"
	"fmt"
)

// UnrecognizedOptionError is returned for option names outside the known set
type UnrecognizedOptionError struct {
	Name string
}

func (e *UnrecognizedOptionError) Error() string {
	return fmt.Sprintf("unrecognized option %q", e.Name)
}

// NewUnrecognizedOptionError creates a new error for an unknown option name
func NewUnrecognizedOptionError(name string) error {
	return &UnrecognizedOptionError{Name: name}
}

// InvalidOptionError is returned when a known option gets an unusable value
type InvalidOptionError struct {
	Name   string
	Reason string
}

func (e *InvalidOptionError) Error() string {
	return fmt.Sprintf("invalid value for option %q: %s", e.Name, e.Reason)
}

// NewInvalidOptionError creates a new error for a rejected option value
func NewInvalidOptionError(name, reason string) error {
	return &InvalidOptionError{Name: name, Reason: reason}
}

// IsUnrecognizedOption reports whether err is or wraps an UnrecognizedOptionError
func IsUnrecognizedOption(err error) bool {
	var target *UnrecognizedOptionError
	return errors.As(err, &target)
}
