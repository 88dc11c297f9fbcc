package validator

import (
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/file"
)

// Filled reports whether v holds something: not nil, not a blank string,
// not NaN, not an empty list or object and not a file without a name.
func Filled(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case float64:
		return !math.IsNaN(x)
	case float32:
		return !math.IsNaN(float64(x))
	case bool:
		return true
	}
	if f, ok := file.As(v); ok {
		return f != nil && f.Name != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	}
	return true
}

// Size kinds, also used as message key suffixes.
const (
	kindNumeric = "numeric"
	kindString  = "string"
	kindArray   = "array"
	kindFile    = "file"
)

// measure returns the size of v the way size rules see it: the value of a
// number, the character count of a string, the length of a list and the
// kilobytes of a file. Numeric strings count as numbers when numeric is set.
func measure(v any, numeric bool) (float64, string, bool) {
	if f, ok := file.As(v); ok {
		if f == nil {
			return 0, kindFile, false
		}
		return f.KB(), kindFile, true
	}
	switch x := v.(type) {
	case nil:
		return 0, "", false
	case string:
		if numeric {
			if n, ok := compare.Number(x); ok {
				return n, kindNumeric, true
			}
		}
		return float64(utf8.RuneCountInString(x)), kindString, true
	case bool:
		return 0, "", false
	}
	if n, ok := compare.Number(v); ok {
		return n, kindNumeric, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return float64(rv.Len()), kindArray, true
	}
	return 0, "", false
}

// kindOf is the message suffix for v, defaulting to string.
func kindOf(v any, numeric bool) string {
	if _, kind, ok := measure(v, numeric); ok {
		return kind
	}
	if numeric {
		return kindNumeric
	}
	return kindString
}

// asText renders scalars for pattern and format rules.
func asText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case []byte:
		return string(x), true
	}
	if n, ok := compare.Number(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	return "", false
}

// asList returns the elements of a slice or array value.
func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// sameText compares two scalars by value: numerically when both are numbers,
// otherwise by their trimmed text, case-sensitively.
func sameText(a, b any) bool {
	if an, ok := compare.Number(a); ok {
		if bn, ok := compare.Number(b); ok {
			return an == bn
		}
	}
	at, aok := asText(a)
	bt, bok := asText(b)
	return aok && bok && strings.TrimSpace(at) == strings.TrimSpace(bt)
}

// humanize turns a field path into a readable attribute name:
// "rows.2.unit_price" becomes "unit price".
func humanize(path string) string {
	segs := fieldpath.Split(path)
	for i := len(segs) - 1; i >= 0; i-- {
		if !fieldpath.IsIndex(segs[i]) {
			return strings.NewReplacer("_", " ", "-", " ").Replace(segs[i])
		}
	}
	return path
}
