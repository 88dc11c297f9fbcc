// Package validator turns declarative rule lists into per-field validators
// and runs them against a changing form.
//
// A Factory is bound to one form (any datatree.Reader) and builds validators
// from rule lists:
//
//	f := validator.NewFactory(store,
//	    validator.WithEndpoint("unique", map[string]any{"url": "https://api.example.com/users/{value}"}),
//	    validator.WithDebounce(300*time.Millisecond),
//	)
//	vs, err := f.Build("email", []any{
//	    "required",
//	    "email",
//	    "unique:users,email",
//	    map[string]any{"min:8": []any{"plan", "pro"}},
//	})
//
// Build reports unknown rules, missing attributes and unusable endpoints as
// *ConfigError values; nothing is deferred to validation time.
//
// # Runtime
//
// Each Validator handles one rule. Validate skips nullable rules on unfilled
// values and rules whose condition is false, debounces filled values when a
// window is set, and runs synchronous rules in place. Network rules (exists,
// unique, active_url and any AsyncRule) run on their own goroutine; their
// result is applied only if no newer dispatch happened and the field still
// holds the checked value. Transport failures mark the field invalid, are
// logged and go to the ErrorHandler; they are never returned.
//
// # Messages
//
// Messages are looked up as validation.<rule>, or validation.<rule>.<type>
// for size rules, where type is numeric, string, array or file. Parameters
// always include attribute. The bundled catalog covers English and German;
// pass an i18n.Translator through WithMessages to replace or extend it.
//
// # Rules
//
// Presence: required, filled, present, nullable, required_if,
// required_unless, required_with, required_without, accepted, declined.
// Types: string, numeric, integer, boolean, array, json, date.
// Size: min, max, size, between, digits, digits_between.
// Other fields: same, different, confirmed, gt, gte, lt, lte.
// Membership: in (in_array), not_in (not_in_array), distinct.
// Dates: before, after, before_or_equal, after_or_equal, date_equals,
// date_format.
// Patterns and formats: regex, not_regex, alpha, alpha_num, alpha_dash,
// email, url, ip, ipv4, ipv6, uuid.
// Files: file, image, mimes, mimetypes, dimensions.
// Network: exists, unique, active_url.
//
// Register or WithRule add rules or replace built-ins.
package validator
