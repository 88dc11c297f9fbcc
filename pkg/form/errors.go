package form

import "errors"

var (
	ErrClosed      = errors.New("form: closed")
	ErrUnknownList = errors.New("form: list is not registered")
	ErrEmptyPath   = errors.New("form: empty field path")
)
