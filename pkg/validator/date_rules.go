package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

func dateRules() map[string]Definition {
	return map[string]Definition{
		"before":          {New: dateRelative(func(a, b time.Time) bool { return a.Before(b) }), Nullable: true, Args: 1},
		"after":           {New: dateRelative(func(a, b time.Time) bool { return a.After(b) }), Nullable: true, Args: 1},
		"before_or_equal": {New: dateRelative(func(a, b time.Time) bool { return !a.After(b) }), Nullable: true, Args: 1},
		"after_or_equal":  {New: dateRelative(func(a, b time.Time) bool { return !a.Before(b) }), Nullable: true, Args: 1},
		"date_equals":     {New: dateRelative(func(a, b time.Time) bool { return a.Equal(b) }), Nullable: true, Args: 1},
		"date_format":     {New: dateFormat, Nullable: true, Args: 1},
	}
}

// dateRelative compares the value with a reference date. The reference is a
// literal (an absolute date, today, tomorrow or yesterday) when it parses as
// one; otherwise it names another field.
func dateRelative(ok func(value, ref time.Time) bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, env Env) (Rule, error) {
		raw, _ := spec.Text(0)
		raw = strings.TrimSpace(raw)
		_, literal := compare.ParseDate(raw, env.DateFormat, time.Now())

		reference := func(in Input) (time.Time, bool) {
			if literal {
				return compare.ParseDate(raw, env.DateFormat, in.Now)
			}
			other, _ := in.Other(raw)
			return compare.ParseDate(other, env.DateFormat, in.Now)
		}

		c := &check{
			fn: func(in Input) bool {
				value, parsed := compare.ParseDate(in.Value, env.DateFormat, in.Now)
				if !parsed {
					return false
				}
				ref, found := reference(in)
				return found && ok(value, ref)
			},
			params: func(in Input) map[string]any {
				if literal {
					return map[string]any{"date": raw}
				}
				return map[string]any{"date": humanize(raw)}
			},
		}
		if !literal {
			c.refs = []string{raw}
		}
		return c, nil
	}
}

func dateFormat(spec rule.Spec, _ Env) (Rule, error) {
	layout, _ := spec.Text(0)
	if strings.TrimSpace(layout) == "" {
		return nil, fmt.Errorf("%w: empty date layout", ErrInvalidAttribute)
	}
	return &check{
		fn: func(in Input) bool {
			s, ok := in.Value.(string)
			if !ok {
				return false
			}
			_, err := time.Parse(layout, strings.TrimSpace(s))
			return err == nil
		},
		params: func(Input) map[string]any { return map[string]any{"format": layout} },
	}, nil
}
