package condition

import (
	"fmt"
	"reflect"

	"github.com/dmitrymomot/formrules/pkg/compare"
)

// Compile turns a declarative condition into a Condition and returns the
// concrete paths it depends on, resolved against owner.
//
// Accepted shapes:
//
//	[]any{"country"}                        // not_empty
//	[]any{"country", "US"}                  // implicit ==
//	[]any{"country", "empty"}               // unary operator
//	[]any{"age", ">=", 18}                  // comparison
//	[]any{[]any{...}, []any{...}}           // All
//	[]any{[]any{[]any{...}}, []any{...}}    // AnyOfAll
//
// A Go func(Form, Element) bool, a Predicate or an already built Condition
// are passed through.
func Compile(spec any, owner string) (Condition, []string, error) {
	cond, err := compile(spec)
	if err != nil {
		return nil, nil, err
	}
	return cond, Paths(cond, owner), nil
}

// MustCompile is like Compile but panics on malformed input.
func MustCompile(spec any) Condition {
	cond, _, err := Compile(spec, "")
	if err != nil {
		panic(err)
	}
	return cond
}

func compile(spec any) (Condition, error) {
	switch s := spec.(type) {
	case nil:
		return nil, nil
	case Condition:
		return s, nil
	case func(Form, Element) bool:
		return Predicate(s), nil
	}

	list, ok := asList(spec)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported type %T", ErrInvalidCondition, spec)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty condition", ErrInvalidCondition)
	}

	if isTuple(list) {
		return tuple(list)
	}

	grouped := false
	for _, item := range list {
		if inner, ok := asList(item); ok && len(inner) > 0 && !isTuple(inner) {
			grouped = true
			break
		}
	}

	if !grouped {
		all := make(All, 0, len(list))
		for _, item := range list {
			c, err := compile(item)
			if err != nil {
				return nil, err
			}
			all = append(all, c)
		}
		return all, nil
	}

	groups := make(AnyOfAll, 0, len(list))
	for _, item := range list {
		inner, ok := asList(item)
		if ok && len(inner) > 0 && isTuple(inner) {
			c, err := tuple(inner)
			if err != nil {
				return nil, err
			}
			groups = append(groups, []Condition{c})
			continue
		}
		c, err := compile(item)
		if err != nil {
			return nil, err
		}
		if all, ok := c.(All); ok {
			groups = append(groups, []Condition(all))
		} else {
			groups = append(groups, []Condition{c})
		}
	}
	return groups, nil
}

func tuple(t []any) (Condition, error) {
	path, _ := t[0].(string)
	if path == "" {
		return nil, fmt.Errorf("%w: empty field path", ErrInvalidCondition)
	}

	switch len(t) {
	case 1:
		return Comparison{Path: path, Operator: compare.OpNotEmpty}, nil
	case 2:
		if op, ok := t[1].(string); ok && compare.IsUnary(op) {
			return Comparison{Path: path, Operator: op}, nil
		}
		return Comparison{Path: path, Operator: compare.OpEqual, Expected: t[1]}, nil
	case 3:
		op, ok := t[1].(string)
		if !ok || op == "" {
			return nil, fmt.Errorf("%w: operator of %q must be a string", ErrInvalidCondition, path)
		}
		return Comparison{Path: path, Operator: op, Expected: t[2]}, nil
	}
	return nil, fmt.Errorf("%w: tuple for %q has %d elements", ErrInvalidCondition, path, len(t))
}

// isTuple reports whether list is a single comparison: its first element is
// the field path.
func isTuple(list []any) bool {
	_, ok := list[0].(string)
	return ok
}

func asList(v any) ([]any, bool) {
	if l, ok := v.([]any); ok {
		return l, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
