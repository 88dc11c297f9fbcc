package validator

import (
	"errors"
	"fmt"
)

// Configuration errors returned from Build. They are wrapped in *ConfigError.
var (
	// ErrUnknownRule is returned when a rule name has no registered definition.
	ErrUnknownRule = errors.New("validator: unknown rule")

	// ErrMissingAttribute is returned when a rule lacks a required attribute.
	ErrMissingAttribute = errors.New("validator: missing rule attribute")

	// ErrInvalidAttribute is returned when an attribute can't be used, such as
	// a regex that doesn't compile or a non-numeric size.
	ErrInvalidAttribute = errors.New("validator: invalid rule attribute")

	// ErrInvalidEndpoint is returned when a network rule has no usable endpoint.
	ErrInvalidEndpoint = errors.New("validator: invalid endpoint configuration")

	// ErrInvalidRule is returned for rule list items of an unsupported shape.
	ErrInvalidRule = errors.New("validator: invalid rule definition")
)

// ConfigError describes a rule that could not be built for a field.
type ConfigError struct {
	Path string
	Rule string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Rule == "" {
		return fmt.Sprintf("field %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("field %q, rule %q: %v", e.Path, e.Rule, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func configError(path, rule string, err error) error {
	return &ConfigError{Path: path, Rule: rule, Err: err}
}
