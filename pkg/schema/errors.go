package schema

import "errors"

var (
	ErrUnsupportedFormat = errors.New("schema: unsupported format")
	ErrFailedToParse     = errors.New("schema: failed to parse definition")
	ErrFailedToReadFile  = errors.New("schema: failed to read definition file")
	ErrInvalidDebounce   = errors.New("schema: debounce must be a non-negative number of milliseconds")
)
