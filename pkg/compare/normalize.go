package compare

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/formrules/pkg/file"
)

// Normalize prepares a value for comparison: strings are trimmed and
// case-folded, numbers widen to float64, lists are normalized element-wise.
// Everything else is returned unchanged.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		// A Caser keeps state, so each call gets its own.
		return cases.Fold().String(strings.TrimSpace(x))
	case bool, time.Time:
		return x
	case []byte:
		return cases.Fold().String(strings.TrimSpace(string(x)))
	}

	if f, ok := number(v); ok {
		return f
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	}
	return v
}

// Empty reports whether v counts as "not filled": nil, a blank string, a
// file without a name, or a list/object that is empty or holds only empty
// scalars and empty containers (one level deep).
func Empty(v any) bool {
	return empty(v, true)
}

func empty(v any, descend bool) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case bool:
		return false
	}
	if f, ok := file.As(v); ok {
		return f == nil || f.Name == ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		return rv.IsNil()
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return true
		}
		if rv.Len() == 0 {
			return true
		}
		if !descend {
			return false
		}
		for i := range rv.Len() {
			if !empty(rv.Index(i).Interface(), false) {
				return false
			}
		}
		return true
	case reflect.Map:
		if rv.Len() == 0 {
			return true
		}
		if !descend {
			return false
		}
		iter := rv.MapRange()
		for iter.Next() {
			if !empty(iter.Value().Interface(), false) {
				return false
			}
		}
		return true
	}
	return false
}

// Equal reports whether two values are equal after normalization. Numbers
// and numeric strings compare by value; other scalars by their text form.
func Equal(a, b any) bool {
	return equalScalar(Normalize(a), Normalize(b))
}

func equalScalar(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf) == 0
		}
	}
	if isList(a) || isList(b) || a == nil || b == nil {
		return false
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Equal(bt)
		}
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// matches implements == / in: array-vs-scalar membership in either
// direction and overlap for array-vs-array.
func matches(a, e any) bool {
	al, aList := a.([]any)
	el, eList := e.([]any)
	switch {
	case aList && eList:
		if len(al) == 0 && len(el) == 0 {
			return true
		}
		for _, x := range al {
			if contains(el, x) {
				return true
			}
		}
		return false
	case eList:
		return contains(el, a)
	case aList:
		return contains(al, e)
	default:
		return equalScalar(a, e)
	}
}

func contains(list []any, v any) bool {
	for _, item := range list {
		if equalScalar(item, v) {
			return true
		}
	}
	return false
}

func ordered(a any, op string, e any) bool {
	if equalScalar(a, e) {
		return op == OpGreaterEqual || op == OpLessEqual
	}
	n, ok := order(a, e)
	if !ok {
		return false
	}
	switch op {
	case OpGreater:
		return n > 0
	case OpGreaterEqual:
		return n >= 0
	case OpLess:
		return n < 0
	case OpLessEqual:
		return n <= 0
	}
	return false
}

func order(a, b any) (int, bool) {
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf), true
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs), true
		}
	}
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt), true
		}
	}
	return 0, false
}

func bounds(e any) (lo, hi any, ok bool) {
	switch x := e.(type) {
	case []any:
		if len(x) != 2 {
			return nil, nil, false
		}
		return x[0], x[1], true
	case string:
		parts := strings.Split(x, ",")
		if len(parts) != 2 {
			return nil, nil, false
		}
		return Normalize(parts[0]), Normalize(parts[1]), true
	}
	return nil, nil, false
}

func anyString(a, e any, fn func(s, sub string) bool) bool {
	needle, ok := text(e)
	if !ok {
		return false
	}
	if list, ok := a.([]any); ok {
		for _, item := range list {
			if s, ok := text(item); ok && fn(s, needle) {
				return true
			}
		}
		return false
	}
	s, ok := text(a)
	return ok && fn(s, needle)
}

func text(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	}
	if isList(v) {
		return "", false
	}
	return fmt.Sprint(v), true
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}

func isList(v any) bool {
	_, ok := v.([]any)
	return ok
}

// toFloat accepts float64 and numeric strings. NaN and Inf spelled as text
// are rejected.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// number widens any Go numeric kind to float64.
func number(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

// Number converts numbers and numeric strings to float64.
func Number(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		return toFloat(strings.TrimSpace(s))
	}
	return number(v)
}
