package i18n

import "errors"

var (
	ErrNilAdapter          = errors.New("i18n: adapter is nil")
	ErrEmptyLanguage       = errors.New("i18n: empty language code")
	ErrInvalidStructure    = errors.New("i18n: invalid catalog structure")
	ErrFailedToParseJSON   = errors.New("i18n: failed to parse JSON content")
	ErrFailedToParseYAML   = errors.New("i18n: failed to parse YAML content")
	ErrFailedToReadFile    = errors.New("i18n: failed to read catalog file")
	ErrFailedToReadDir     = errors.New("i18n: failed to read catalog directory")
	ErrNoCatalogFiles      = errors.New("i18n: no catalog files found")
	ErrUnsupportedFileType = errors.New("i18n: unsupported catalog file type")
	ErrLoadingCancelled    = errors.New("i18n: loading cancelled")
)
