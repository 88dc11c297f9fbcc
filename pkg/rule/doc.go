// Package rule parses validation rule declarations into Spec values.
//
// The string grammar is name[:attr1,attr2,key=value]. Attributes are split
// on commas, except for regex and not_regex whose pattern is kept whole.
// Numeric-looking attributes become float64 and true/false become bool:
//
//	spec, _ := rule.Parse("between:5,10")
//	lo, _ := spec.Float(0) // 5
//	spec.String()          // "between:5,10"
//
// A conditional rule is an object with a single key, the rule string, whose
// value is a condition in the grammar of package condition:
//
//	spec, _ := rule.ParseConditional(map[string]any{
//	    "required": []any{[]any{"country", "==", "US"}},
//	}, "state")
//	spec.DependentPaths // ["country"]
//
// Specs are values and are never mutated; Bind returns a copy whose
// dependent paths are resolved for another owning field.
package rule
