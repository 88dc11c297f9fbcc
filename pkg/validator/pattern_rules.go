package validator

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrymomot/formrules/pkg/rule"
)

func patternRules() map[string]Definition {
	return map[string]Definition{
		"regex":     {New: pattern(false), Nullable: true, Args: 1},
		"not_regex": {New: pattern(true), Nullable: true, Args: 1},
	}
}

func pattern(negate bool) func(rule.Spec, Env) (Rule, error) {
	return func(spec rule.Spec, _ Env) (Rule, error) {
		raw, _ := spec.Text(0)
		re, err := compilePattern(raw)
		if err != nil {
			return nil, err
		}
		return simple(func(in Input) bool {
			s, ok := asText(in.Value)
			if !ok {
				return false
			}
			return re.MatchString(s) != negate
		}), nil
	}
}

// compilePattern accepts a bare Go regexp or a delimited one with flags,
// such as /^[a-z]+$/i. Supported flags are i, m, s and U; u and x are
// accepted and ignored.
func compilePattern(raw string) (*regexp.Regexp, error) {
	raw = strings.TrimSpace(raw)
	expr := raw
	if len(raw) >= 2 && raw[0] == '/' {
		if end := strings.LastIndexByte(raw, '/'); end > 0 {
			expr = raw[1:end]
			var flags strings.Builder
			for _, f := range raw[end+1:] {
				switch f {
				case 'i', 'm', 's', 'U':
					flags.WriteRune(f)
				case 'u', 'x':
				default:
					return nil, fmt.Errorf("%w: unsupported regex flag %q", ErrInvalidAttribute, f)
				}
			}
			if flags.Len() > 0 {
				expr = "(?" + flags.String() + ")" + expr
			}
		}
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAttribute, err)
	}
	return re, nil
}
