package validator

import (
	"regexp"
	"strings"
	"sync"

	playground "github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/formrules/pkg/rule"
)

// formatTags maps rule names to go-playground/validator tags.
var formatTags = map[string]string{
	"alpha":      "alphaunicode",
	"alpha_num":  "alphanumunicode",
	"alpha_dash": "alpha_dash",
	"email":      "email",
	"url":        "url",
	"ip":         "ip",
	"ipv4":       "ipv4",
	"ipv6":       "ipv6",
	"uuid":       "uuid",
}

var alphaDash = regexp.MustCompile(`^[\pL\pM\pN_-]+$`)

var formats = sync.OnceValue(func() *playground.Validate {
	v := playground.New()
	_ = v.RegisterValidation("alpha_dash", func(fl playground.FieldLevel) bool {
		return alphaDash.MatchString(fl.Field().String())
	})
	return v
})

func formatRules() map[string]Definition {
	defs := make(map[string]Definition, len(formatTags))
	for name, tag := range formatTags {
		defs[name] = Definition{New: format(tag), Nullable: true}
	}
	return defs
}

func format(tag string) func(rule.Spec, Env) (Rule, error) {
	return func(rule.Spec, Env) (Rule, error) {
		return simple(func(in Input) bool {
			return validFormat(in.Value, tag)
		}), nil
	}
}

// validFormat runs a single go-playground tag against the value's text.
// Non-scalar values never match.
func validFormat(v any, tag string) (valid bool) {
	s, ok := asText(v)
	if !ok {
		return false
	}
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	return formats().Var(strings.TrimSpace(s), tag) == nil
}
