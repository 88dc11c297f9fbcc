package form

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/logger"
)

// AddList registers a repeating group at path. Template keys are paths
// relative to one item ("sku", "price.net"); rule and condition references
// may use "*" or ".." to address the same item. Fields are created for every
// item already in the tree.
func (f *Form) AddList(path string, template map[string]Field) error {
	if path == "" {
		return ErrEmptyPath
	}
	f.structure.Lock()
	defer f.structure.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.lists[path] = maps.Clone(template)
	f.mu.Unlock()

	f.removeFields(f.itemFields(path))
	return f.buildItems(path)
}

// Lists returns the registered list paths, sorted.
func (f *Form) Lists() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Sorted(maps.Keys(f.lists))
}

// InsertItem inserts value before index in the list at path. An index equal
// to the list length appends.
func (f *Form) InsertItem(ctx context.Context, path string, index int, value any) error {
	return f.mutate(ctx, path, func() error {
		return f.store.Insert(path, index, value)
	}, func(i int) (int, bool) {
		if i >= index {
			return i + 1, true
		}
		return i, true
	})
}

// RemoveItem deletes the item at index from the list at path.
func (f *Form) RemoveItem(ctx context.Context, path string, index int) error {
	return f.mutate(ctx, path, func() error {
		return f.store.RemoveAt(path, index)
	}, func(i int) (int, bool) {
		switch {
		case i == index:
			return 0, false
		case i > index:
			return i - 1, true
		}
		return i, true
	})
}

// MoveItem moves the item at from so that it ends up at to.
func (f *Form) MoveItem(ctx context.Context, path string, from, to int) error {
	return f.mutate(ctx, path, func() error {
		return f.store.Move(path, from, to)
	}, func(i int) (int, bool) {
		switch {
		case i == from:
			return to, true
		case from < to && i > from && i <= to:
			return i - 1, true
		case from > to && i >= to && i < from:
			return i + 1, true
		}
		return i, true
	})
}

// mutate applies a structural change to a list and re-keys its item fields.
// remap tells where the item at an old index ended up.
func (f *Form) mutate(ctx context.Context, list string, change func() error, remap func(int) (int, bool)) error {
	f.structure.Lock()

	f.mu.RLock()
	_, known := f.lists[list]
	closed := f.closed
	f.mu.RUnlock()
	switch {
	case closed:
		f.structure.Unlock()
		return ErrClosed
	case !known:
		f.structure.Unlock()
		return ErrUnknownList
	}

	if err := change(); err != nil {
		f.structure.Unlock()
		return err
	}

	old := f.itemFields(list)
	var carry []string
	for _, p := range old {
		fd, ok := f.field(p)
		if !ok || !fd.invalid() {
			continue
		}
		i, _ := fieldpath.Index(p, list)
		if j, kept := remap(i); kept {
			moved, _ := fieldpath.Reindex(p, list, i, j)
			carry = append(carry, moved)
		}
	}

	f.removeFields(old)
	err := f.buildItems(list)
	f.structure.Unlock()

	f.log.Debug("list re-keyed",
		logger.Component("form"),
		logger.Field(list),
		slog.Int("items", f.store.Len(list)),
	)

	for _, p := range carry {
		if fd, ok := f.field(p); ok {
			f.validateField(ctx, fd, true)
		}
	}
	f.watch.Notify(ctx, list)
	return err
}

// itemFields returns the registered fields that belong to an item of list.
func (f *Form) itemFields(list string) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	var out []string
	for p := range f.fields {
		if _, ok := fieldpath.Index(p, list); ok {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out
}

// buildItems creates the template fields for every item of list.
func (f *Form) buildItems(list string) error {
	f.mu.RLock()
	template := f.lists[list]
	f.mu.RUnlock()

	keys := slices.Sorted(maps.Keys(template))
	var errs []error
	for i := range f.store.Len(list) {
		item := fieldpath.Join(list, strconv.Itoa(i))
		for _, key := range keys {
			if err := f.addField(fieldpath.Join(item, key), template[key]); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
