// Package file inspects uploaded files for the file and image validation
// rules.
//
// File is the value form data carries for an upload. It can be built from a
// *multipart.FileHeader (FromHeader), from disk (FromPath) or directly. The
// helpers detect the real content type with github.com/gabriel-vasile/mimetype
// rather than trusting the extension, and decode image headers to read
// dimensions:
//
//	f := file.FromHeader(fh)
//	f.MatchMIME("image/*")        // sniffed type
//	f.MatchExtension("jpg", "png") // extension implied by content
//	w, h, err := f.Dimensions()
//
// Transport and storage of uploads are out of scope.
package file
