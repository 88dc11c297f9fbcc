package async

import "errors"

var (
	ErrCanceled = errors.New("async: stopped waiting for future")
	ErrPanic    = errors.New("async: function panicked")
)
