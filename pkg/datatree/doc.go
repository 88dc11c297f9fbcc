// Package datatree provides the path-addressed value storage the rule engine
// reads from.
//
// The engine itself only depends on the Reader interface. Store is the
// in-memory implementation used by package form and by tests: objects are
// map[string]any, lists are []any and paths are dotted ("rows.1.qty").
// Writes notify subscribed listeners with the changed path so that the
// dependency watcher can re-run the validators that reference it.
package datatree
