package validator

import (
	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

func fieldRules() map[string]Definition {
	return map[string]Definition{
		"same":      {New: sameAs(false), Nullable: true, Args: 1},
		"different": {New: sameAs(true), Nullable: true, Args: 1},
		"confirmed": {New: confirmed, Nullable: true},
		"gt":        {New: relative("gt", func(a, b float64) bool { return a > b }), Nullable: true, Args: 1},
		"gte":       {New: relative("gte", func(a, b float64) bool { return a >= b }), Nullable: true, Args: 1},
		"lt":        {New: relative("lt", func(a, b float64) bool { return a < b }), Nullable: true, Args: 1},
		"lte":       {New: relative("lte", func(a, b float64) bool { return a <= b }), Nullable: true, Args: 1},
	}
}

func sameAs(different bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		other, _ := spec.Text(0)
		return &check{
			fn: func(in Input) bool {
				v, _ := in.Other(other)
				return compare.Equal(in.Value, v) != different
			},
			params: func(Input) map[string]any { return map[string]any{"other": humanize(other)} },
			refs:   []string{other},
		}, nil
	}
}

// confirmed compares the field with "<field>_confirmation", or with the
// field named by its first attribute.
func confirmed(spec rule.Spec, env Env) (Rule, error) {
	other, ok := spec.Text(0)
	if !ok || other == "" {
		other = env.Path + "_confirmation"
	}
	return &check{
		fn: func(in Input) bool {
			v, _ := in.Other(other)
			return compare.Equal(in.Value, v)
		},
		refs: []string{other},
	}, nil
}

// relative builds gt, gte, lt and lte. The attribute is a numeric literal or
// a field reference; both sides are measured like size rules.
func relative(name string, ok func(a, b float64) bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, env Env) (Rule, error) {
		if limit, literal := spec.Float(0); literal {
			return &check{
				fn: func(in Input) bool {
					n, _, measured := measure(in.Value, env.Numeric)
					return measured && ok(n, limit)
				},
				params: func(Input) map[string]any { return map[string]any{"value": limit} },
				key:    func(in Input) string { return "validation." + name + "." + kindOf(in.Value, env.Numeric) },
			}, nil
		}

		other, _ := spec.Text(0)
		return &check{
			fn: func(in Input) bool {
				v, _ := in.Other(other)
				n, kind, measured := measure(in.Value, env.Numeric)
				m, otherKind, otherMeasured := measure(v, env.Numeric)
				if !measured || !otherMeasured || kind != otherKind {
					return false
				}
				return ok(n, m)
			},
			params: func(in Input) map[string]any {
				v, _ := in.Other(other)
				m, _, measured := measure(v, env.Numeric)
				if !measured {
					return map[string]any{"value": humanize(other), "other": humanize(other)}
				}
				return map[string]any{"value": m, "other": humanize(other)}
			},
			key:  func(in Input) string { return "validation." + name + "." + kindOf(in.Value, env.Numeric) },
			refs: []string{other},
		}, nil
	}
}
