package file

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder for dimensions
	_ "image/jpeg" // register decoder for dimensions
	_ "image/png"  // register decoder for dimensions
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is an uploaded file as it appears in form data. Content or the
// originating multipart header are optional; without them detection falls
// back to the declared MIME type and the file name.
type File struct {
	Name     string
	Size     int64
	MIMEType string
	Content  []byte

	header *multipart.FileHeader
}

// FromHeader wraps a multipart upload.
func FromHeader(fh *multipart.FileHeader) *File {
	if fh == nil {
		return nil
	}
	return &File{
		Name:     fh.Filename,
		Size:     fh.Size,
		MIMEType: fh.Header.Get("Content-Type"),
		header:   fh,
	}
}

// FromPath reads a file from disk.
func FromPath(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToReadFile, err)
	}
	return &File{
		Name:    filepath.Base(path),
		Size:    int64(len(data)),
		Content: data,
	}, nil
}

// As extracts a *File from a form value. It accepts *File, File and
// *multipart.FileHeader.
func As(v any) (*File, bool) {
	switch f := v.(type) {
	case *File:
		return f, true
	case File:
		return &f, true
	case *multipart.FileHeader:
		return FromHeader(f), true
	}
	return nil, false
}

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	switch {
	case f == nil:
		return nil, ErrNilFile
	case f.Content != nil:
		return io.NopCloser(bytes.NewReader(f.Content)), nil
	case f.header != nil:
		r, err := f.header.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToOpenFile, err)
		}
		return r, nil
	}
	return nil, ErrNoContent
}

// KB returns the size in kilobytes.
func (f *File) KB() float64 {
	if f == nil {
		return 0
	}
	return float64(f.Size) / 1024
}

// Extension returns the lower-cased name extension without the dot.
func (f *File) Extension() string {
	if f == nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// Detect sniffs the content. It returns ErrNoContent when there is nothing
// to read.
func (f *File) Detect() (*mimetype.MIME, error) {
	r, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	m, err := mimetype.DetectReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFailedToDetectMIMEType, err)
	}
	return m, nil
}

// MIME returns the content type, preferring content sniffing over the
// declared type and the declared type over the extension.
func (f *File) MIME() string {
	if f == nil {
		return ""
	}
	if m, err := f.Detect(); err == nil {
		return m.String()
	}
	if f.MIMEType != "" {
		return f.MIMEType
	}
	if ext := f.Extension(); ext != "" {
		return mime.TypeByExtension("." + ext)
	}
	return ""
}

// GuessExtension returns the extension implied by the content, or the name
// extension when the content is unavailable.
func (f *File) GuessExtension() string {
	if m, err := f.Detect(); err == nil && m.Extension() != "" {
		return strings.TrimPrefix(m.Extension(), ".")
	}
	return f.Extension()
}

// MatchMIME reports whether the file's type matches one of patterns.
// A pattern may end in "/*" to match a whole family.
func (f *File) MatchMIME(patterns ...string) bool {
	actual := baseType(f.MIME())
	if actual == "" {
		return false
	}
	for _, p := range patterns {
		p = strings.ToLower(strings.TrimSpace(p))
		if family, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(actual, family+"/") {
				return true
			}
			continue
		}
		if actual == p {
			return true
		}
	}
	return false
}

// MatchExtension reports whether the guessed extension is one of exts.
// jpg and jpeg are treated as the same extension.
func (f *File) MatchExtension(exts ...string) bool {
	actual := canonicalExt(f.GuessExtension())
	if actual == "" {
		return false
	}
	for _, e := range exts {
		if canonicalExt(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(e)), ".")) == actual {
			return true
		}
	}
	return false
}

// IsImage reports whether the file is an image.
func (f *File) IsImage() bool {
	return f.MatchMIME("image/*")
}

// Dimensions decodes the image header and returns its width and height.
// GIF, JPEG and PNG are supported.
func (f *File) Dimensions() (width, height int, err error) {
	r, err := f.Open()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = r.Close() }()

	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
	return cfg.Width, cfg.Height, nil
}

func baseType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func canonicalExt(ext string) string {
	if ext == "jpeg" {
		return "jpg"
	}
	return ext
}
