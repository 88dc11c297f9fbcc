package rule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrymomot/formrules/pkg/condition"
)

var (
	numericAttr = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	attrKey     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Attr is one rule attribute. Positional attributes carry their position in
// Index; named ones (key=value) have Named set and Index -1.
type Attr struct {
	Key   string
	Index int
	Named bool
	Value any
}

// Attributes keeps attributes in declaration order.
type Attributes []Attr

// Spec is a parsed rule, not yet bound to a field.
type Spec struct {
	Name       string
	Attributes Attributes
	// Condition gates the rule; nil means always active.
	Condition condition.Condition
	// DependentPaths are the concrete paths Condition reads.
	DependentPaths []string
}

// Parse parses "name[:attr,attr,key=value]". Numeric-looking attributes
// become float64, true/false become bool, everything else a trimmed string.
// The argument of regex and not_regex is kept whole.
func Parse(s string) (Spec, error) {
	name, rest, _ := strings.Cut(s, ":")
	name = strings.TrimSpace(name)
	if name == "" {
		return Spec{}, fmt.Errorf("%w: %q", ErrEmptyRule, s)
	}

	spec := Spec{Name: name}
	if strings.TrimSpace(rest) == "" {
		return spec, nil
	}

	if keepsWhole(name) {
		spec.Attributes = Attributes{{Index: 0, Value: rest}}
		return spec, nil
	}

	pos := 0
	for _, seg := range strings.Split(rest, ",") {
		if k, v, ok := strings.Cut(seg, "="); ok && attrKey.MatchString(strings.TrimSpace(k)) {
			spec.Attributes = append(spec.Attributes, Attr{
				Key:   strings.TrimSpace(k),
				Index: -1,
				Named: true,
				Value: coerce(v),
			})
			continue
		}
		spec.Attributes = append(spec.Attributes, Attr{Index: pos, Value: coerce(seg)})
		pos++
	}
	return spec, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// ParseConditional parses {"rule[:attrs]": conditionSpec}. The condition is
// compiled with the condition grammar and its paths are resolved against
// owner.
func ParseConditional(obj map[string]any, owner string) (Spec, error) {
	if len(obj) != 1 {
		return Spec{}, fmt.Errorf("%w: expected exactly one rule, got %d", ErrInvalidConditional, len(obj))
	}
	for key, raw := range obj {
		spec, err := Parse(key)
		if err != nil {
			return Spec{}, err
		}
		cond, paths, err := condition.Compile(raw, owner)
		if err != nil {
			return Spec{}, fmt.Errorf("%w: rule %q: %w", ErrInvalidConditional, spec.Name, err)
		}
		spec.Condition = cond
		spec.DependentPaths = paths
		return spec, nil
	}
	return Spec{}, ErrInvalidConditional
}

// Bind returns a copy of s with DependentPaths resolved for owner.
func (s Spec) Bind(owner string) Spec {
	out := s
	out.Attributes = append(Attributes(nil), s.Attributes...)
	out.DependentPaths = condition.Paths(s.Condition, owner)
	return out
}

// String serializes the rule back to its string form, without condition.
func (s Spec) String() string {
	if len(s.Attributes) == 0 {
		return s.Name
	}
	parts := make([]string, 0, len(s.Attributes))
	for _, a := range s.Attributes {
		v := format(a.Value)
		if a.Named {
			v = a.Key + "=" + v
		}
		parts = append(parts, v)
	}
	return s.Name + ":" + strings.Join(parts, ",")
}

// Attr returns the named attribute key.
func (s Spec) Attr(key string) (any, bool) {
	for _, a := range s.Attributes {
		if a.Named && a.Key == key {
			return a.Value, true
		}
	}
	return nil, false
}

// Has reports whether the named attribute key is present.
func (s Spec) Has(key string) bool {
	_, ok := s.Attr(key)
	return ok
}

// Arg returns the i-th positional attribute.
func (s Spec) Arg(i int) (any, bool) {
	for _, a := range s.Attributes {
		if !a.Named && a.Index == i {
			return a.Value, true
		}
	}
	return nil, false
}

// Args returns the positional attribute values in order.
func (s Spec) Args() []any {
	var out []any
	for _, a := range s.Attributes {
		if !a.Named {
			out = append(out, a.Value)
		}
	}
	return out
}

// Strings returns the positional attributes formatted as strings.
func (s Spec) Strings() []string {
	args := s.Args()
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = format(a)
	}
	return out
}

// Float returns the i-th positional attribute as a number.
func (s Spec) Float(i int) (float64, bool) {
	v, ok := s.Arg(i)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// Text returns the i-th positional attribute formatted as a string.
func (s Spec) Text(i int) (string, bool) {
	v, ok := s.Arg(i)
	if !ok {
		return "", false
	}
	return format(v), true
}

func keepsWhole(name string) bool {
	return name == "regex" || name == "not_regex"
}

func coerce(raw string) any {
	v := strings.TrimSpace(raw)
	switch {
	case v == "true":
		return true
	case v == "false":
		return false
	case numericAttr.MatchString(v):
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return v
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
