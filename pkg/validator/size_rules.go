package validator

import (
	"fmt"
	"strings"

	"github.com/dmitrymomot/formrules/pkg/rule"
)

func sizeRules() map[string]Definition {
	return map[string]Definition{
		"min":            {New: bounded("min", atLeast), Nullable: true, Args: 1},
		"max":            {New: bounded("max", atMost), Nullable: true, Args: 1},
		"size":           {New: bounded("size", exactly), Nullable: true, Args: 1},
		"between":        {New: bounded("between", within), Nullable: true, Args: 2},
		"digits":         {New: digits(false), Nullable: true, Args: 1},
		"digits_between": {New: digits(true), Nullable: true, Args: 2},
	}
}

func atLeast(n, lo, _ float64) bool { return n >= lo }
func atMost(n, _, hi float64) bool { return n <= hi }
func exactly(n, want, _ float64) bool { return n == want }
func within(n, lo, hi float64) bool { return n >= lo && n <= hi }

// numbers reads the first count positional attributes as numbers.
func numbers(spec rule.Spec, count int) ([]float64, error) {
	out := make([]float64, count)
	for i := range out {
		n, ok := spec.Float(i)
		if !ok {
			v, _ := spec.Arg(i)
			return nil, fmt.Errorf("%w: %v is not a number", ErrInvalidAttribute, v)
		}
		out[i] = n
	}
	return out, nil
}

// bounded builds min, max, size and between. For single-bound rules the
// bound is passed as both lo and hi.
func bounded(name string, ok func(n, lo, hi float64) bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, env Env) (Rule, error) {
		count := 1
		if name == "between" {
			count = 2
		}
		bounds, err := numbers(spec, count)
		if err != nil {
			return nil, err
		}
		lo, hi := bounds[0], bounds[len(bounds)-1]
		if lo > hi {
			return nil, fmt.Errorf("%w: lower bound %v exceeds upper bound %v", ErrInvalidAttribute, lo, hi)
		}

		params := map[string]any{name: lo}
		if name == "between" {
			params = map[string]any{"min": lo, "max": hi}
		}
		return &check{
			fn: func(in Input) bool {
				n, _, measured := measure(in.Value, env.Numeric)
				return measured && ok(n, lo, hi)
			},
			params: func(Input) map[string]any { return params },
			key: func(in Input) string {
				return "validation." + name + "." + kindOf(in.Value, env.Numeric)
			},
		}, nil
	}
}

// digits checks the number of digits of an integer value.
func digits(between bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		count := 1
		if between {
			count = 2
		}
		bounds, err := numbers(spec, count)
		if err != nil {
			return nil, err
		}
		lo, hi := int(bounds[0]), int(bounds[len(bounds)-1])

		params := map[string]any{"digits": lo}
		if between {
			params = map[string]any{"min": lo, "max": hi}
		}
		return &check{
			fn: func(in Input) bool {
				s, ok := asText(in.Value)
				if !ok {
					return false
				}
				s = strings.TrimSpace(s)
				if s == "" || strings.Trim(s, "0123456789") != "" {
					return false
				}
				return len(s) >= lo && len(s) <= hi
			},
			params: func(Input) map[string]any { return params },
		}, nil
	}
}
