// Package watcher keeps the dependency subscription table of a form.
//
// An owner (usually a field path) subscribes to the source paths its rules
// and conditions read. When a value changes, Notify calls every handler
// whose source is the changed path, an ancestor of it, or a descendant of
// it, so replacing a whole list notifies watchers of its items and the
// other way round:
//
//	t := watcher.New()
//	t.Watch("state", []string{"country"}, func(ctx context.Context, changed string) {
//	    // revalidate "state"
//	})
//	t.Notify(ctx, "country")
//
// Rebuild swaps an owner's subscriptions in one step, which is what a field
// does after its rules are reconfigured. Release drops them all when the
// field is removed.
package watcher
