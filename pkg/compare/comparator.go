package compare

import (
	"maps"
	"strings"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmitrymomot/formrules/pkg/datatree"
)

// Built-in operator names.
const (
	OpGreater      = ">"
	OpGreaterEqual = ">="
	OpLess         = "<"
	OpLessEqual    = "<="
	OpBetween      = "between"
	OpEmpty        = "empty"
	OpNotEmpty     = "not_empty"
	OpEqual        = "=="
	OpIn           = "in"
	OpNotEqual     = "!="
	OpNotIn        = "not_in"
	OpToday        = "today"
	OpBefore       = "before"
	OpAfter        = "after"
	OpPrefix       = "^"
	OpSuffix       = "$"
	OpContains     = "*"
)

// DefaultDateFormat is the layout used by date operators unless overridden.
const DefaultDateFormat = "2006-01-02"

// Scope carries the field and form context a comparison runs in.
// Built-in operators ignore it; custom operators may read other values.
type Scope struct {
	Path string
	Form datatree.Reader
}

// OperatorFunc is a caller-supplied operator.
type OperatorFunc func(actual, expected any, scope Scope) bool

// Comparator evaluates one operator against an actual/expected pair.
// It is immutable after New and safe for concurrent use.
type Comparator struct {
	operators  map[string]OperatorFunc
	dateFormat string
	strict     bool
	clock      clock.PassiveClock
}

// Option configures a Comparator.
type Option func(*Comparator)

// WithOperator registers a custom operator. Built-in names can't be replaced.
func WithOperator(name string, fn OperatorFunc) Option {
	return func(c *Comparator) {
		if name != "" && fn != nil {
			c.operators[name] = fn
		}
	}
}

// WithOperators registers several custom operators at once.
func WithOperators(ops map[string]OperatorFunc) Option {
	return func(c *Comparator) {
		for name, fn := range ops {
			WithOperator(name, fn)(c)
		}
	}
}

// WithDateFormat sets the Go time layout used by date operators.
func WithDateFormat(layout string) Option {
	return func(c *Comparator) {
		if layout != "" {
			c.dateFormat = layout
		}
	}
}

// WithStrict makes nil and blank strings fail every ordering operator.
func WithStrict(strict bool) Option {
	return func(c *Comparator) { c.strict = strict }
}

// WithClock sets the time source for today/tomorrow/yesterday.
func WithClock(clk clock.PassiveClock) Option {
	return func(c *Comparator) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// New creates a Comparator.
func New(opts ...Option) *Comparator {
	c := &Comparator{
		operators:  make(map[string]OperatorFunc),
		dateFormat: DefaultDateFormat,
		clock:      clock.RealClock{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DateFormat returns the configured date layout.
func (c *Comparator) DateFormat() string { return c.dateFormat }

// Clock returns the configured time source.
func (c *Comparator) Clock() clock.PassiveClock { return c.clock }

// Operators returns the names of the registered custom operators.
func (c *Comparator) Operators() []string {
	names := make([]string, 0, len(c.operators))
	for name := range maps.Keys(c.operators) {
		names = append(names, name)
	}
	return names
}

// Has reports whether op is a built-in or registered operator.
func (c *Comparator) Has(op string) bool {
	if isBuiltin(op) {
		return true
	}
	_, ok := c.operators[op]
	return ok
}

// Compare evaluates actual <op> expected. It never panics: type mismatches,
// unknown operators and panicking custom operators all yield false.
func (c *Comparator) Compare(actual any, op string, expected any, scope Scope) (result bool) {
	defer func() {
		if r := recover(); r != nil {
			result = false
		}
	}()

	switch op {
	case OpToday, OpBefore, OpAfter:
		return c.compareDates(actual, op, expected)
	case OpEmpty:
		return Empty(actual)
	case OpNotEmpty:
		return !Empty(actual)
	}

	if !isBuiltin(op) {
		fn, ok := c.operators[op]
		if !ok {
			return false
		}
		return fn(actual, expected, scope)
	}

	a, e := Normalize(actual), Normalize(expected)

	switch op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual:
		if c.strict && (blank(a) || blank(e)) {
			return false
		}
		return ordered(a, op, e)
	case OpBetween:
		lo, hi, ok := bounds(e)
		if !ok || (c.strict && (blank(a) || blank(lo) || blank(hi))) {
			return false
		}
		return ordered(a, OpGreaterEqual, lo) && ordered(a, OpLessEqual, hi)
	case OpEqual, OpIn:
		return matches(a, e)
	case OpNotEqual, OpNotIn:
		return !matches(a, e)
	case OpPrefix:
		return anyString(a, e, strings.HasPrefix)
	case OpSuffix:
		return anyString(a, e, strings.HasSuffix)
	case OpContains:
		return anyString(a, e, strings.Contains)
	}
	return false
}

func (c *Comparator) compareDates(actual any, op string, expected any) bool {
	now := c.clock.Now()
	a, ok := ParseDate(actual, c.dateFormat, now)
	if !ok {
		return false
	}
	if op == OpToday {
		return sameDay(a, now)
	}
	e, ok := ParseDate(expected, c.dateFormat, now)
	if !ok {
		return false
	}
	if op == OpBefore {
		return a.Before(e)
	}
	return a.After(e)
}

func isBuiltin(op string) bool {
	switch op {
	case OpGreater, OpGreaterEqual, OpLess, OpLessEqual, OpBetween,
		OpEmpty, OpNotEmpty, OpEqual, OpIn, OpNotEqual, OpNotIn,
		OpToday, OpBefore, OpAfter, OpPrefix, OpSuffix, OpContains:
		return true
	}
	return false
}

// IsUnary reports whether op takes no expected value.
func IsUnary(op string) bool {
	return op == OpEmpty || op == OpNotEmpty || op == OpToday
}

// ParseDate interprets v as a date. Accepted inputs are time.Time, the
// keywords today/tomorrow/yesterday (midnight, relative to now) and strings
// in layout, falling back to RFC 3339 and the ISO date layout.
func ParseDate(v any, layout string, now time.Time) (time.Time, bool) {
	switch d := v.(type) {
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, !d.IsZero()
	case string:
		s := strings.TrimSpace(d)
		midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		switch strings.ToLower(s) {
		case "":
			return time.Time{}, false
		case "now":
			return now, true
		case "today":
			return midnight, true
		case "tomorrow":
			return midnight.AddDate(0, 0, 1), true
		case "yesterday":
			return midnight.AddDate(0, 0, -1), true
		}
		for _, l := range []string{layout, time.RFC3339, DefaultDateFormat} {
			if l == "" {
				continue
			}
			if t, err := time.ParseInLocation(l, s, now.Location()); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func sameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
