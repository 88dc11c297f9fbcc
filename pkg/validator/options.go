package validator

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/condition"
)

// ErrorHandler receives transport failures of network rules. It runs on the
// goroutine that completed the check, outside validator locks.
type ErrorHandler func(path, rule string, err error)

// Option configures a Factory.
type Option func(*Factory)

// WithRegistry replaces the rule registry. The factory works on a copy.
func WithRegistry(r *Registry) Option {
	return func(f *Factory) {
		if r != nil {
			f.registry = r
		}
	}
}

// WithRule registers a rule for this factory only, overriding a built-in of
// the same name.
func WithRule(name string, def Definition) Option {
	return func(f *Factory) {
		f.extra[name] = def
	}
}

// WithComparator sets the comparator used by conditions and rules.
func WithComparator(c *compare.Comparator) Option {
	return func(f *Factory) {
		if c != nil {
			f.cmp = c
		}
	}
}

// WithEvaluator sets the evaluator for rule conditions.
func WithEvaluator(e *condition.Evaluator) Option {
	return func(f *Factory) {
		if e != nil {
			f.eval = e
		}
	}
}

// WithEndpoint configures the endpoint of a network rule (exists, unique,
// active_url). cfg is anything remote.FromConfig accepts; it is resolved on
// first use and a bad configuration fails Build.
func WithEndpoint(rule string, cfg any) Option {
	return func(f *Factory) {
		f.endpointConfigs[rule] = cfg
	}
}

// WithDebounce sets the default debounce for fields that don't set their own.
func WithDebounce(d time.Duration) Option {
	return func(f *Factory) {
		if d >= 0 {
			f.debounce = d
		}
	}
}

// WithClock sets the time source for debounce timers and date keywords.
func WithClock(c clock.WithDelayedExecution) Option {
	return func(f *Factory) {
		if c != nil {
			f.clock = c
		}
	}
}

// WithLogger sets the logger. A discard logger is used by default.
func WithLogger(l *slog.Logger) Option {
	return func(f *Factory) {
		if l != nil {
			f.log = l
		}
	}
}

// WithMessages sets the message catalog.
func WithMessages(m Messages) Option {
	return func(f *Factory) {
		if m != nil {
			f.messages = m
		}
	}
}

// WithLocale sets the default locale for messages.
func WithLocale(locale string) Option {
	return func(f *Factory) {
		if locale != "" {
			f.locale = locale
		}
	}
}

// WithErrorHandler sets the handler for transport failures.
func WithErrorHandler(h ErrorHandler) Option {
	return func(f *Factory) {
		f.onError = h
	}
}

// WithDateFormat sets the Go time layout used by date rules.
func WithDateFormat(layout string) Option {
	return func(f *Factory) {
		if layout != "" {
			f.dateFormat = layout
		}
	}
}

// BuildOption configures the validators of one field.
type BuildOption func(*fieldOptions)

type fieldOptions struct {
	debounce    time.Duration
	hasDebounce bool
	label       string
	messages    map[string]string
}

// Debounce overrides the factory debounce for the field.
func Debounce(d time.Duration) BuildOption {
	return func(o *fieldOptions) {
		o.debounce = d
		o.hasDebounce = true
	}
}

// Label sets the :attribute parameter of the field's messages.
func Label(label string) BuildOption {
	return func(o *fieldOptions) {
		o.label = label
	}
}

// CustomMessages overrides messages for the field. Keys are rule names
// ("required") or message keys without the validation prefix ("min.string").
func CustomMessages(m map[string]string) BuildOption {
	return func(o *fieldOptions) {
		if o.messages == nil {
			o.messages = make(map[string]string, len(m))
		}
		for k, v := range m {
			o.messages[k] = v
		}
	}
}
