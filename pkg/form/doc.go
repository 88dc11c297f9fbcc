// Package form wires the engine together for one form instance.
//
// A Form owns the value tree, a validator factory, the dependency table and
// a condition evaluator. Fields are registered with their rules and an
// optional visibility condition; repeating groups are registered as list
// templates and expanded for every item:
//
//	f := form.New(map[string]any{"country": "US"})
//	_ = f.AddField("state", form.Field{
//	    Rules: []any{"required", "alpha"},
//	    When:  []any{"country", "US"},
//	})
//	_ = f.AddList("rows", map[string]form.Field{
//	    "sku": {Rules: []any{"required", "distinct"}},
//	    "qty": {Rules: []any{"integer", "lte:..stock"}},
//	})
//
//	_ = f.SetValue(ctx, "country", "CA") // revalidates dependants of country
//	err := f.ValidateAll(ctx)             // validator.ValidationErrors or nil
//
// SetValue validates the changed field (debounced) and every validator whose
// dependencies include the changed path. Fields hidden by their condition
// are never reported and are reset when they become hidden.
//
// List operations (InsertItem, RemoveItem, MoveItem) rebuild the item fields
// at their new paths. Fields that were invalid before the change are
// revalidated at their new position.
package form
