package file

import "errors"

var (
	ErrNilFile                = errors.New("file: nil file")
	ErrNoContent              = errors.New("file: content not available")
	ErrFailedToOpenFile       = errors.New("file: failed to open file")
	ErrFailedToReadFile       = errors.New("file: failed to read file")
	ErrFailedToDetectMIMEType = errors.New("file: failed to detect MIME type")
	ErrNotAnImage             = errors.New("file: not a decodable image")
)
