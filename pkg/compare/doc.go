// Package compare evaluates a single operator against an actual and an
// expected value.
//
// Values are normalized before comparison: strings are trimmed and
// case-folded, numbers of any Go kind widen to float64 and lists are
// normalized element by element. Date operators (today, before, after)
// parse both sides with the configured layout instead and understand the
// today/tomorrow/yesterday keywords.
//
//	c := compare.New(compare.WithDateFormat("02.01.2006"))
//	c.Compare("US", "==", "us", compare.Scope{})           // true
//	c.Compare([]any{"a", "b"}, "in", "b", compare.Scope{})  // true
//	c.Compare(7, "between", []any{5, 10}, compare.Scope{})  // true
//
// Operators that are not built in are looked up among those registered with
// WithOperator. An operator that is neither yields false, and Compare
// recovers from panics in custom operators, so a comparison never fails
// loudly at runtime.
package compare
