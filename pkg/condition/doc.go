// Package condition evaluates visibility and availability conditions over
// form values.
//
// A Condition is one of Predicate (Go code), Comparison (field, operator,
// expected value), All (logical AND) or AnyOfAll (OR of AND groups). Compile
// builds one from the declarative array grammar used in form definitions and
// reports the concrete paths it reads, which callers turn into watch
// subscriptions:
//
//	cond, deps, err := condition.Compile([]any{"rows.*.qty", ">", 0}, "rows.2.total")
//	// deps == []string{"rows.2.qty"}
//
// Evaluator checks a condition against a Form. A Comparison that references
// a field hidden by its own conditions is false, unless that field's
// conditions point back at the field being evaluated. Such cycles are broken
// by treating the reference as available and are reported at debug level.
package condition
