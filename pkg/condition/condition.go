package condition

import "github.com/dmitrymomot/formrules/pkg/fieldpath"

// Condition is a boolean expression over form values. The concrete types are
// Predicate, Comparison, All and AnyOfAll; a nil Condition is always true.
type Condition interface {
	condition()
}

// Form is what conditions are evaluated against.
type Form interface {
	// Value returns the current value at path.
	Value(path string) (any, bool)
	// Conditions returns the availability conditions declared on the field
	// at path, or nil when it has none or is unknown.
	Conditions(path string) Condition
}

// Element describes the field a predicate is evaluated for.
type Element struct {
	Path  string
	Value any
}

// Predicate is a condition implemented in Go.
type Predicate func(form Form, el Element) bool

// Comparison compares the value at Path with Expected. Path may contain
// wildcards or be relative; it is resolved against the owning field.
type Comparison struct {
	Path     string
	Operator string
	Expected any
}

// All is true when every member is true.
type All []Condition

// AnyOfAll is true when every member of at least one group is true.
type AnyOfAll [][]Condition

func (Predicate) condition()  {}
func (Comparison) condition() {}
func (All) condition()        {}
func (AnyOfAll) condition()   {}

// Paths returns the concrete paths referenced by the Comparison leaves of
// cond, resolved against owner, deduplicated in declaration order.
func Paths(cond Condition, owner string) []string {
	var out []string
	seen := make(map[string]struct{})
	walk(cond, func(c Comparison) {
		p := fieldpath.Resolve(c.Path, owner)
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	})
	return out
}

// References reports whether cond, declared on owner, points at path.
func References(cond Condition, owner, path string) bool {
	found := false
	walk(cond, func(c Comparison) {
		if !found && fieldpath.Resolve(c.Path, owner) == path {
			found = true
		}
	})
	return found
}

func walk(cond Condition, fn func(Comparison)) {
	switch c := cond.(type) {
	case Comparison:
		fn(c)
	case *Comparison:
		if c != nil {
			fn(*c)
		}
	case All:
		for _, sub := range c {
			walk(sub, fn)
		}
	case AnyOfAll:
		for _, group := range c {
			for _, sub := range group {
				walk(sub, fn)
			}
		}
	}
}
