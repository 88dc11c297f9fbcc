package validator

import (
	"math"
	"reflect"
	"strings"

	"github.com/goccy/go-json"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/rule"
)

func typeRules() map[string]Definition {
	return map[string]Definition{
		"string": {New: fixed(func(in Input) bool {
			_, ok := in.Value.(string)
			return ok
		}), Nullable: true},
		"numeric": {New: fixed(func(in Input) bool {
			_, ok := compare.Number(in.Value)
			return ok
		}), Nullable: true},
		"integer": {New: fixed(func(in Input) bool {
			n, ok := compare.Number(in.Value)
			return ok && n == math.Trunc(n)
		}), Nullable: true},
		"boolean": {New: fixed(func(in Input) bool {
			if _, ok := in.Value.(bool); ok {
				return true
			}
			return oneOf(in.Value, "true", "false", "1", "0")
		}), Nullable: true},
		"array": {New: fixed(func(in Input) bool {
			switch reflect.ValueOf(in.Value).Kind() {
			case reflect.Slice, reflect.Array, reflect.Map:
				return true
			}
			return false
		}), Nullable: true},
		"json": {New: fixed(func(in Input) bool {
			s, ok := in.Value.(string)
			return ok && json.Valid([]byte(strings.TrimSpace(s)))
		}), Nullable: true},
		"date": {New: func(_ rule.Spec, env Env) (Rule, error) {
			return simple(func(in Input) bool {
				_, ok := compare.ParseDate(in.Value, env.DateFormat, in.Now)
				return ok
			}), nil
		}, Nullable: true},
	}
}
