package condition

import (
	"log/slog"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/logger"
)

// Evaluator evaluates conditions against a Form. It never writes to the form
// and holds no per-evaluation state, so one Evaluator may serve concurrent
// callers.
type Evaluator struct {
	form Form
	cmp  *compare.Comparator
	log  *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used for circular-reference notices.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		if l != nil {
			e.log = l
		}
	}
}

// NewEvaluator creates an Evaluator. A nil comparator gets the defaults.
func NewEvaluator(form Form, cmp *compare.Comparator, opts ...Option) *Evaluator {
	if cmp == nil {
		cmp = compare.New()
	}
	e := &Evaluator{form: form, cmp: cmp, log: logger.Discard()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate reports whether cond holds for the field at owner.
func (e *Evaluator) Evaluate(cond Condition, owner string) bool {
	return e.eval(cond, owner, visiting{owner: {}})
}

// Available reports whether the field at path passes its own conditions.
func (e *Evaluator) Available(path string) bool {
	return e.eval(e.form.Conditions(path), path, visiting{path: {}})
}

type visiting map[string]struct{}

func (e *Evaluator) eval(cond Condition, owner string, seen visiting) bool {
	switch c := cond.(type) {
	case nil:
		return true
	case Predicate:
		if c == nil {
			return true
		}
		v, _ := e.form.Value(owner)
		return c(e.form, Element{Path: owner, Value: v})
	case Comparison:
		return e.compare(c, owner, seen)
	case *Comparison:
		if c == nil {
			return true
		}
		return e.compare(*c, owner, seen)
	case All:
		for _, sub := range c {
			if !e.eval(sub, owner, seen) {
				return false
			}
		}
		return true
	case AnyOfAll:
		for _, group := range c {
			if e.eval(All(group), owner, seen) {
				return true
			}
		}
		return false
	}
	return false
}

func (e *Evaluator) compare(c Comparison, owner string, seen visiting) bool {
	target := fieldpath.Resolve(c.Path, owner)
	if !e.referenceAvailable(target, owner, seen) {
		return false
	}
	actual, _ := e.form.Value(target)
	return e.cmp.Compare(actual, c.Operator, c.Expected, compare.Scope{
		Path: owner,
		Form: reader{e.form},
	})
}

// referenceAvailable decides whether the referenced field may take part in
// a comparison. A field that is hidden by its own conditions compares false,
// except when those conditions lead back to a field already being evaluated:
// the cycle is broken by treating the reference as available.
func (e *Evaluator) referenceAvailable(target, owner string, seen visiting) bool {
	if target == owner {
		return true
	}
	conds := e.form.Conditions(target)
	if conds == nil {
		return true
	}

	if _, busy := seen[target]; busy || References(conds, target, owner) {
		e.log.Debug("circular condition reference, treating field as available",
			logger.Component("condition"),
			logger.Field(owner),
			logger.Source(target),
		)
		return true
	}

	seen[target] = struct{}{}
	defer delete(seen, target)
	return e.eval(conds, target, seen)
}

// reader adapts a Form to the datatree.Reader custom operators receive.
type reader struct{ form Form }

func (r reader) Get(path string) (any, bool) { return r.form.Value(path) }
