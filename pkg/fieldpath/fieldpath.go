package fieldpath

import (
	"strconv"
	"strings"
)

// Separator joins path segments.
const Separator = "."

// Wildcard stands for "the same repeating index as the declaring field".
const Wildcard = "*"

// Resolve turns a field reference template into a concrete path relative to
// the field that declares it.
//
// Every "*" segment in template is replaced with the segment found at the same
// depth in current, provided that segment is a list index. References that
// start with ".." are relative: two dots address a sibling of current, every
// additional dot climbs one more level.
//
// Templates that don't match are returned unchanged, which lets absolute paths
// skip resolution entirely.
//
//	Resolve("rows.*.total", "rows.2.qty")  // "rows.2.total"
//	Resolve("..total", "rows.2.qty")       // "rows.2.total"
//	Resolve("...note", "rows.2.qty")       // "rows.note"
//	Resolve("country", "rows.2.qty")       // "country"
func Resolve(template, current string) string {
	if template == "" {
		return template
	}

	if strings.HasPrefix(template, "..") {
		return resolveRelative(template, current)
	}

	if !HasWildcard(template) {
		return template
	}

	segs := Split(template)
	owner := Split(current)
	for i, seg := range segs {
		if seg != Wildcard || i >= len(owner) {
			continue
		}
		if IsIndex(owner[i]) {
			segs[i] = owner[i]
		}
	}
	return Join(segs...)
}

// resolveRelative handles "..name" style references.
func resolveRelative(template, current string) string {
	dots := 0
	for dots < len(template) && template[dots] == '.' {
		dots++
	}
	rest := template[dots:]

	base := Split(current)
	up := dots - 1
	if up > len(base) {
		up = len(base)
	}
	base = base[:len(base)-up]

	if rest == "" {
		return Join(base...)
	}
	resolved := Join(append(base, Split(rest)...)...)

	// Wildcards inside a relative reference still follow the owner's indexes.
	if HasWildcard(resolved) {
		return Resolve(resolved, current)
	}
	return resolved
}

// Split breaks a path into its segments. An empty path has no segments.
func Split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, Separator)
}

// Join builds a path from segments, skipping empty ones.
func Join(segments ...string) string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		if s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, Separator)
}

// Parent returns the path without its last segment.
func Parent(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// Base returns the last segment of path.
func Base(path string) string {
	i := strings.LastIndex(path, Separator)
	if i < 0 {
		return path
	}
	return path[i+1:]
}

// IsIndex reports whether a segment addresses a list element.
func IsIndex(segment string) bool {
	if segment == "" {
		return false
	}
	for _, r := range segment {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// HasWildcard reports whether path contains a "*" segment.
func HasWildcard(path string) bool {
	for _, seg := range Split(path) {
		if seg == Wildcard {
			return true
		}
	}
	return false
}

// IsWithin reports whether path equals prefix or lives below it.
func IsWithin(path, prefix string) bool {
	if prefix == "" {
		return true
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+Separator)
}

// Related reports whether a change to one path can affect the value at the
// other: they are equal or one contains the other.
func Related(a, b string) bool {
	return IsWithin(a, b) || IsWithin(b, a)
}

// Reindex rewrites the list index that directly follows list in path.
// It returns the rewritten path and true when path lives under list.from.
//
//	Reindex("rows.3.qty", "rows", 3, 2) // "rows.2.qty", true
func Reindex(path, list string, from, to int) (string, bool) {
	prefix := Join(list, strconv.Itoa(from))
	if !IsWithin(path, prefix) {
		return path, false
	}
	return Join(list, strconv.Itoa(to)) + path[len(prefix):], true
}

// Index extracts the list index that directly follows list in path.
func Index(path, list string) (int, bool) {
	if !IsWithin(path, list) || path == list {
		return 0, false
	}
	rest := Split(path)
	if list != "" {
		rest = Split(path[len(list)+len(Separator):])
	}
	if len(rest) == 0 || !IsIndex(rest[0]) {
		return 0, false
	}
	n, err := strconv.Atoi(rest[0])
	if err != nil {
		return 0, false
	}
	return n, true
}
