package form

import (
	"log/slog"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

// Option configures a Form.
type Option func(*Form)

// WithLogger sets the logger shared by the form, its validators and its
// dependency table.
func WithLogger(l *slog.Logger) Option {
	return func(f *Form) {
		if l != nil {
			f.log = l
		}
	}
}

// WithLocale sets the locale used for the errors returned by ValidateAll.
func WithLocale(locale string) Option {
	return func(f *Form) {
		if locale != "" {
			f.locale = locale
		}
	}
}

// WithComparator shares one comparator between conditions and rules.
func WithComparator(c *compare.Comparator) Option {
	return func(f *Form) {
		if c != nil {
			f.cmp = c
		}
	}
}

// WithValidatorOptions passes options to the validator factory, e.g.
// endpoints, a clock or a debounce window.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(f *Form) {
		f.vopts = append(f.vopts, opts...)
	}
}
