package validator

import (
	"context"
	"time"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/datatree"
	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

// Input is what a rule checks: the field, its current value and read access
// to the rest of the form.
type Input struct {
	Path    string
	Value   any
	Spec    rule.Spec
	Form    datatree.Reader
	Compare *compare.Comparator
	Now     time.Time
}

// Other returns the value of another field. ref may use wildcards or
// relative dots; it is resolved against the validated field.
func (in Input) Other(ref string) (any, bool) {
	if in.Form == nil {
		return nil, false
	}
	return in.Form.Get(fieldpath.Resolve(ref, in.Path))
}

// Rule is a synchronous check.
type Rule interface {
	Check(in Input) bool
}

// AsyncRule is a rule that needs I/O. Check runs first, synchronously: a
// false result fails the value without calling CheckContext. A non-nil error
// from CheckContext is a transport failure.
type AsyncRule interface {
	Rule
	CheckContext(ctx context.Context, in Input) (bool, error)
}

// Parameterized rules contribute message parameters.
type Parameterized interface {
	Params(in Input) map[string]any
}

// Keyed rules pick their own message key, e.g. "validation.min.string".
type Keyed interface {
	MessageKey(in Input) string
}

// Dependent rules read other fields and report which ones.
type Dependent interface {
	Dependencies(owner string) []string
}

// RuleFunc adapts a function to Rule.
type RuleFunc func(in Input) bool

func (f RuleFunc) Check(in Input) bool { return f(in) }

// AsyncFunc adapts a function to AsyncRule. Its synchronous precheck always
// passes.
type AsyncFunc func(ctx context.Context, in Input) (bool, error)

func (f AsyncFunc) Check(Input) bool { return true }

func (f AsyncFunc) CheckContext(ctx context.Context, in Input) (bool, error) { return f(ctx, in) }

// Definition describes how to build a rule from its parsed form.
type Definition struct {
	// New builds the rule. Returned errors are wrapped in *ConfigError.
	New func(spec rule.Spec, env Env) (Rule, error)
	// Nullable rules pass without running when the value is not filled.
	Nullable bool
	// Args is the number of positional attributes the rule requires.
	Args int
}

// Env is the build-time context handed to Definition.New.
type Env struct {
	// Path is the concrete path of the field being built.
	Path string
	// Numeric is set when the field also carries a numeric or integer rule;
	// size rules then measure numeric strings by value.
	Numeric bool
	// DateFormat is the layout for date rules.
	DateFormat string
	// Endpoint is the endpoint configured for the rule, nil if none.
	Endpoint remote.Endpoint
	// Form reads other values of the tree the field belongs to.
	Form datatree.Reader
}

// check is the shape most built-in rules take.
type check struct {
	fn     func(in Input) bool
	params func(in Input) map[string]any
	key    func(in Input) string
	refs   []string
	// deps lists concrete paths computed for the owner, next to refs.
	deps func(owner string) []string
}

func (c *check) Check(in Input) bool {
	return c.fn(in)
}

func (c *check) Params(in Input) map[string]any {
	if c.params == nil {
		return nil
	}
	return c.params(in)
}

func (c *check) MessageKey(in Input) string {
	if c.key == nil {
		return ""
	}
	return c.key(in)
}

func (c *check) Dependencies(owner string) []string {
	var out []string
	for _, ref := range c.refs {
		out = append(out, fieldpath.Resolve(ref, owner))
	}
	if c.deps != nil {
		out = append(out, c.deps(owner)...)
	}
	return out
}

func simple(fn func(in Input) bool) *check {
	return &check{fn: fn}
}
