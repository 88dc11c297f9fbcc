package validator

import (
	"strings"

	"github.com/dmitrymomot/formrules/pkg/rule"
)

func presenceRules() map[string]Definition {
	return map[string]Definition{
		"required": {New: fixed(func(in Input) bool { return Filled(in.Value) })},
		"filled": {New: fixed(func(in Input) bool {
			_, present := in.Form.Get(in.Path)
			return !present || Filled(in.Value)
		})},
		"present": {New: fixed(func(in Input) bool {
			_, present := in.Form.Get(in.Path)
			return present
		})},
		"nullable":         {New: fixed(func(Input) bool { return true }), Nullable: true},
		"required_if":      {New: requiredIf(false), Args: 2},
		"required_unless":  {New: requiredIf(true), Args: 2},
		"required_with":    {New: requiredWith(false), Args: 1},
		"required_without": {New: requiredWith(true), Args: 1},
		"accepted":         {New: fixed(func(in Input) bool { return oneOf(in.Value, "yes", "on", "1", "true") })},
		"declined":         {New: fixed(func(in Input) bool { return oneOf(in.Value, "no", "off", "0", "false") }), Nullable: true},
	}
}

// fixed builds a rule that ignores its attributes.
func fixed(fn func(in Input) bool) func(rule.Spec, Env) (Rule, error) {
	return func(rule.Spec, Env) (Rule, error) {
		return simple(fn), nil
	}
}

func oneOf(v any, accepted ...string) bool {
	s, ok := asText(v)
	if !ok {
		return false
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range accepted {
		if s == a {
			return true
		}
	}
	return false
}

// requiredIf: the field is required when another field equals one of the
// listed values; with unless set, when it equals none of them.
func requiredIf(unless bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		args := spec.Strings()
		other, values := args[0], spec.Args()[1:]
		return &check{
			fn: func(in Input) bool {
				actual, _ := in.Other(other)
				matched := false
				for _, v := range values {
					if sameText(actual, v) {
						matched = true
						break
					}
				}
				if matched == unless {
					return true
				}
				return Filled(in.Value)
			},
			params: func(Input) map[string]any {
				return map[string]any{
					"other":  humanize(other),
					"value":  strings.Join(args[1:], ", "),
					"values": args[1:],
				}
			},
			refs: []string{other},
		}, nil
	}
}

// requiredWith: the field is required when any listed field is filled; with
// without set, when any listed field is not filled.
func requiredWith(without bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		others := spec.Strings()
		names := make([]string, len(others))
		for i, o := range others {
			names[i] = humanize(o)
		}
		return &check{
			fn: func(in Input) bool {
				for _, o := range others {
					v, _ := in.Other(o)
					if Filled(v) != without {
						return Filled(in.Value)
					}
				}
				return true
			},
			params: func(Input) map[string]any {
				return map[string]any{"values": strings.Join(names, " / ")}
			},
			refs: others,
		}, nil
	}
}
