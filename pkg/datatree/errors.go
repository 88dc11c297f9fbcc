package datatree

import "errors"

var (
	ErrEmptyPath       = errors.New("datatree: empty path")
	ErrInvalidPath     = errors.New("datatree: path cannot be written")
	ErrNotAList        = errors.New("datatree: value is not a list")
	ErrNotAnObject     = errors.New("datatree: value is not an object")
	ErrIndexOutOfRange = errors.New("datatree: list index out of range")
	ErrSnapshotFailed  = errors.New("datatree: failed to copy data")
)
