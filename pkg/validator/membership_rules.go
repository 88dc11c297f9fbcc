package validator

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/dmitrymomot/formrules/pkg/datatree"
	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

func membershipRules() map[string]Definition {
	return map[string]Definition{
		"in":       {New: membership(false), Nullable: true, Args: 1},
		"not_in":   {New: membership(true), Nullable: true, Args: 1},
		"distinct": {New: distinct, Nullable: true},
	}
}

// membership checks the value against the listed attributes. A list value
// passes in only when every element is listed, and not_in only when none is.
func membership(negate bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		allowed := spec.Args()
		listed := func(v any) bool {
			for _, a := range allowed {
				if sameText(v, a) {
					return true
				}
			}
			return false
		}
		return &check{
			fn: func(in Input) bool {
				items, isList := asList(in.Value)
				if !isList {
					items = []any{in.Value}
				}
				for _, item := range items {
					if listed(item) == negate {
						return false
					}
				}
				return true
			},
			params: func(Input) map[string]any { return map[string]any{"values": spec.Strings()} },
		}, nil
	}
}

// distinct fails on duplicates. A list value is checked on its own; a field
// inside a repeating list (rows.2.sku) is checked against the same field of
// every other row. "strict" compares without type coercion, "ignore_case"
// folds case.
func distinct(spec rule.Spec, env Env) (Rule, error) {
	strict, ignoreCase := false, false
	for _, a := range spec.Strings() {
		switch a {
		case "strict":
			strict = true
		case "ignore_case":
			ignoreCase = true
		}
	}
	key := func(v any) string {
		s, ok := asText(v)
		if strict || !ok {
			s = fmtTyped(v)
		}
		if ignoreCase {
			s = cases.Fold().String(s)
		}
		return s
	}

	list, rest, inList := splitRow(env.Path)
	c := &check{
		fn: func(in Input) bool {
			if items, ok := asList(in.Value); ok {
				seen := make(map[string]struct{}, len(items))
				for _, item := range items {
					k := key(item)
					if _, dup := seen[k]; dup {
						return false
					}
					seen[k] = struct{}{}
				}
				return true
			}
			if !inList {
				return true
			}
			rows, ok := in.Form.Get(list)
			if !ok {
				return true
			}
			items, _ := asList(rows)
			self := key(in.Value)
			own, _ := fieldpath.Index(in.Path, list)
			for i := range items {
				if i == own {
					continue
				}
				other, ok := in.Form.Get(fieldpath.Join(list, strconv.Itoa(i), rest))
				if ok && Filled(other) && key(other) == self {
					return false
				}
			}
			return true
		},
	}
	if inList && env.Form != nil {
		c.deps = func(owner string) []string { return siblings(env.Form, owner) }
	}
	return c, nil
}

// siblings returns the same field in every other row of the list owner
// belongs to, e.g. rows.0.sku and rows.2.sku for rows.1.sku. Rows added
// later are picked up when the list's fields are rebuilt.
func siblings(form datatree.Reader, owner string) []string {
	list, rest, ok := splitRow(owner)
	if !ok {
		return nil
	}
	rows, ok := form.Get(list)
	if !ok {
		return nil
	}
	items, _ := asList(rows)
	own, _ := fieldpath.Index(owner, list)
	out := make([]string, 0, len(items))
	for i := range items {
		if i != own {
			out = append(out, fieldpath.Join(list, strconv.Itoa(i), rest))
		}
	}
	return out
}

// splitRow splits "rows.2.sku" into the list path "rows" and the remainder
// "sku", using the last numeric segment.
func splitRow(path string) (list, rest string, ok bool) {
	segs := fieldpath.Split(path)
	for i := len(segs) - 1; i > 0; i-- {
		if fieldpath.IsIndex(segs[i]) {
			return fieldpath.Join(segs[:i]...), fieldpath.Join(segs[i+1:]...), true
		}
	}
	return "", "", false
}

func fmtTyped(v any) string {
	var b strings.Builder
	switch x := v.(type) {
	case string:
		b.WriteString("s:")
		b.WriteString(x)
	case float64:
		b.WriteString("n:")
		b.WriteString(strconv.FormatFloat(x, 'g', -1, 64))
	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(x))
	default:
		s, _ := asText(v)
		b.WriteString("?:")
		b.WriteString(s)
	}
	return b.String()
}
