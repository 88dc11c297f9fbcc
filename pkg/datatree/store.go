package datatree

import (
	"errors"
	"maps"
	"reflect"
	"strconv"
	"sync"

	"github.com/tiendc/go-deepcopy"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
)

// Reader is the read side of a data tree: a value lookup keyed by path.
type Reader interface {
	// Get returns the value stored at path and whether it exists.
	Get(path string) (any, bool)
}

// Listener is notified with the path that changed.
type Listener func(path string)

// Store is an in-memory, path-addressed data tree made of map[string]any
// objects and []any lists. All methods are safe for concurrent use.
// Listeners run after the write, outside the store lock.
//
// Writes never modify a container in place: the objects and lists along the
// written path are copied and swapped in. Containers returned by Get stay
// unchanged and may be read without holding any lock; they must be treated
// as read-only.
type Store struct {
	mu        sync.RWMutex
	root      map[string]any
	listeners []listenerEntry
	nextID    int
}

type listenerEntry struct {
	id int
	fn Listener
}

// New creates a store seeded with data. The map is not copied; the store
// never writes to it.
func New(data map[string]any) *Store {
	if data == nil {
		data = make(map[string]any)
	}
	return &Store{root: data}
}

// Get implements Reader.
func (s *Store) Get(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if path == "" {
		return s.root, true
	}
	return lookup(s.root, fieldpath.Split(path))
}

// Set writes value at path, creating intermediate objects and lists.
func (s *Store) Set(path string, value any) error {
	if path == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	err := s.write(path, value)
	s.mu.Unlock()

	if err != nil {
		return errors.Join(ErrInvalidPath, err)
	}
	s.notify(path)
	return nil
}

// Delete removes the value at path. Deleting a missing path is a no-op.
func (s *Store) Delete(path string) {
	parent, key := fieldpath.Parent(path), fieldpath.Base(path)

	s.mu.Lock()
	container, ok := s.container(parent)
	var next any
	if ok {
		switch c := container.(type) {
		case map[string]any:
			if _, exists := c[key]; exists {
				obj := maps.Clone(c)
				delete(obj, key)
				next = obj
			}
		case []any:
			if i, err := strconv.Atoi(key); err == nil && i >= 0 && i < len(c) {
				list := append([]any(nil), c...)
				list[i] = nil
				next = list
			}
		}
	}
	deleted := next != nil
	if deleted {
		if parent == "" {
			s.root = next.(map[string]any)
		} else if err := s.write(parent, next); err != nil {
			deleted = false
		}
	}
	s.mu.Unlock()

	if deleted {
		s.notify(path)
	}
}

// Len returns the number of elements of the list at path.
func (s *Store) Len(path string) int {
	v, ok := s.Get(path)
	if !ok {
		return 0
	}
	if list, ok := asList(v); ok {
		return len(list)
	}
	return 0
}

// Insert adds value to the list at path before index. An index equal to the
// list length appends. A missing list is created.
func (s *Store) Insert(path string, index int, value any) error {
	return s.mutateList(path, func(list []any) ([]any, error) {
		if index < 0 || index > len(list) {
			return nil, ErrIndexOutOfRange
		}
		list = append(list, nil)
		copy(list[index+1:], list[index:])
		list[index] = value
		return list, nil
	})
}

// RemoveAt deletes the element at index from the list at path.
func (s *Store) RemoveAt(path string, index int) error {
	return s.mutateList(path, func(list []any) ([]any, error) {
		if index < 0 || index >= len(list) {
			return nil, ErrIndexOutOfRange
		}
		return append(list[:index], list[index+1:]...), nil
	})
}

// Move relocates the element at from so that it ends up at index to.
func (s *Store) Move(path string, from, to int) error {
	return s.mutateList(path, func(list []any) ([]any, error) {
		if from < 0 || from >= len(list) || to < 0 || to >= len(list) {
			return nil, ErrIndexOutOfRange
		}
		item := list[from]
		list = append(list[:from], list[from+1:]...)
		list = append(list, nil)
		copy(list[to+1:], list[to:])
		list[to] = item
		return list, nil
	})
}

func (s *Store) mutateList(path string, fn func([]any) ([]any, error)) error {
	if path == "" {
		return ErrEmptyPath
	}

	s.mu.Lock()
	current, ok := lookup(s.root, fieldpath.Split(path))
	var list []any
	if ok && current != nil {
		l, isList := asList(current)
		if !isList {
			s.mu.Unlock()
			return ErrNotAList
		}
		list = append([]any(nil), l...)
	}

	list, err := fn(list)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	err = s.write(path, list)
	s.mu.Unlock()

	if err != nil {
		return errors.Join(ErrInvalidPath, err)
	}
	s.notify(path)
	return nil
}

// Snapshot returns a deep copy of the whole tree.
func (s *Store) Snapshot() (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out map[string]any
	if err := deepcopy.Copy(&out, s.root); err != nil {
		return nil, errors.Join(ErrSnapshotFailed, err)
	}
	return out, nil
}

// Subscribe registers fn for change notifications. The returned function
// removes the listener and may be called more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, l := range s.listeners {
				if l.id == id {
					s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(path string) {
	s.mu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l.fn)
	}
	s.mu.RUnlock()

	for _, fn := range listeners {
		fn(path)
	}
}

// write stores value at path. Caller holds the lock.
func (s *Store) write(path string, value any) error {
	segs := fieldpath.Split(path)
	if fieldpath.IsIndex(segs[0]) {
		return ErrNotAList
	}
	next, err := assign(s.root, segs, value)
	if err != nil {
		return err
	}
	s.root = next.(map[string]any)
	return nil
}

// container returns the object or list at path. Caller holds the lock.
func (s *Store) container(path string) (any, bool) {
	if path == "" {
		return s.root, true
	}
	return lookup(s.root, fieldpath.Split(path))
}

// lookup walks nested objects and lists following segs.
func lookup(current any, segs []string) (any, bool) {
	for _, seg := range segs {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			current = next
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil, false
			}
			current = v[i]
		case nil:
			return nil, false
		default:
			next, ok := lookupReflect(v, seg)
			if !ok {
				return nil, false
			}
			current = next
		}
	}
	return current, true
}

// lookupReflect handles typed maps and slices supplied by callers,
// e.g. map[string]string or []map[string]any.
func lookupReflect(v any, seg string) (any, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		item := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !item.IsValid() {
			return nil, false
		}
		return item.Interface(), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	default:
		return nil, false
	}
}

// assign returns a copy of current with value written at segs, allocating
// containers on the way. current itself is never modified. Typed containers
// are converted to map[string]any / []any. A list index may be at most the
// list length, which appends.
func assign(current any, segs []string, value any) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	seg, rest := segs[0], segs[1:]

	if fieldpath.IsIndex(seg) {
		i, err := strconv.Atoi(seg)
		if err != nil {
			return nil, ErrIndexOutOfRange
		}
		list, ok := asList(current)
		if !ok && current != nil {
			return nil, ErrNotAList
		}
		if i > len(list) {
			return nil, ErrIndexOutOfRange
		}
		next := make([]any, len(list), len(list)+1)
		copy(next, list)
		if i == len(list) {
			next = append(next, nil)
		}
		child, err := assign(next[i], rest, value)
		if err != nil {
			return nil, err
		}
		next[i] = child
		return next, nil
	}

	obj, ok := asObject(current)
	if !ok && current != nil {
		return nil, ErrNotAnObject
	}
	next := make(map[string]any, len(obj)+1)
	maps.Copy(next, obj)
	child, err := assign(next[seg], rest, value)
	if err != nil {
		return nil, err
	}
	next[seg] = child
	return next, nil
}

func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// []byte is a scalar, not a list.
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func asObject(v any) (map[string]any, bool) {
	if obj, ok := v.(map[string]any); ok {
		return obj, true
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
