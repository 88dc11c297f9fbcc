package watcher

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
	"github.com/dmitrymomot/formrules/pkg/logger"
)

// Handler is invoked with the path that changed. It must not write the value
// its owner watches, or notifications will loop.
type Handler func(ctx context.Context, changed string)

// Subscription links one watched source path to an owner.
type Subscription struct {
	ID     uuid.UUID
	Source string
	Owner  string

	group   uuid.UUID
	handler Handler
	table   *Table
	once    sync.Once
}

// Close removes the subscription from its table. Calling it again is a no-op.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.table.remove(s)
	})
}

// Table is the subscription table: source path to subscriber handles.
// All methods are safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	subs    map[uuid.UUID]*Subscription
	byOwner map[string][]uuid.UUID
	log     *slog.Logger
}

// Option configures a Table.
type Option func(*Table)

// WithLogger sets the logger for notification tracing.
func WithLogger(l *slog.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.log = l
		}
	}
}

// New creates an empty Table.
func New(opts ...Option) *Table {
	t := &Table{
		subs:    make(map[uuid.UUID]*Subscription),
		byOwner: make(map[string][]uuid.UUID),
		log:     logger.Discard(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Watch subscribes owner to every path in sources. Duplicate and empty
// sources are skipped. One notification calls fn at most once even when
// several of these sources match.
func (t *Table) Watch(owner string, sources []string, fn Handler) []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.watch(owner, sources, fn)
}

// Rebuild atomically replaces every subscription of owner.
func (t *Table) Rebuild(owner string, sources []string, fn Handler) []*Subscription {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release(owner)
	return t.watch(owner, sources, fn)
}

// Release drops every subscription of owner and returns how many there were.
func (t *Table) Release(owner string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.release(owner)
}

// Notify calls the handlers of every subscription whose source equals,
// contains or lives under changed. Handlers run on the calling goroutine,
// outside the table lock. It returns the number of handler calls.
func (t *Table) Notify(ctx context.Context, changed string) int {
	t.mu.RLock()
	matched := make([]*Subscription, 0)
	groups := make(map[uuid.UUID]struct{})
	for _, s := range t.subs {
		if !fieldpath.Related(s.Source, changed) {
			continue
		}
		if _, dup := groups[s.group]; dup {
			continue
		}
		groups[s.group] = struct{}{}
		matched = append(matched, s)
	}
	t.mu.RUnlock()

	slices.SortFunc(matched, func(a, b *Subscription) int {
		return cmp.Or(cmp.Compare(a.Owner, b.Owner), cmp.Compare(a.Source, b.Source))
	})

	for _, s := range matched {
		t.log.DebugContext(ctx, "dependency changed",
			logger.Component("watcher"),
			logger.Field(s.Owner),
			logger.Source(changed),
		)
		s.handler(ctx, changed)
	}
	return len(matched)
}

// Sources returns the watched paths of owner, sorted.
func (t *Table) Sources(owner string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.byOwner[owner]))
	for _, id := range t.byOwner[owner] {
		out = append(out, t.subs[id].Source)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Owners returns the owners with at least one subscription, sorted.
func (t *Table) Owners() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.byOwner))
	for owner := range t.byOwner {
		out = append(out, owner)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of live subscriptions.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// watch and release expect the write lock to be held.
func (t *Table) watch(owner string, sources []string, fn Handler) []*Subscription {
	if fn == nil {
		return nil
	}
	group := uuid.New()
	seen := make(map[string]struct{}, len(sources))
	out := make([]*Subscription, 0, len(sources))
	for _, src := range sources {
		if src == "" {
			continue
		}
		if _, dup := seen[src]; dup {
			continue
		}
		seen[src] = struct{}{}

		s := &Subscription{
			ID:      uuid.New(),
			Source:  src,
			Owner:   owner,
			group:   group,
			handler: fn,
			table:   t,
		}
		t.subs[s.ID] = s
		t.byOwner[owner] = append(t.byOwner[owner], s.ID)
		out = append(out, s)
	}
	return out
}

func (t *Table) release(owner string) int {
	ids := t.byOwner[owner]
	for _, id := range ids {
		if s, ok := t.subs[id]; ok {
			// Mark closed so a later Close on the handle does nothing.
			s.once.Do(func() {})
			delete(t.subs, id)
		}
	}
	delete(t.byOwner, owner)
	return len(ids)
}

func (t *Table) remove(s *Subscription) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.subs[s.ID]; !ok {
		return
	}
	delete(t.subs, s.ID)
	ids := slices.DeleteFunc(t.byOwner[s.Owner], func(id uuid.UUID) bool { return id == s.ID })
	if len(ids) == 0 {
		delete(t.byOwner, s.Owner)
		return
	}
	t.byOwner[s.Owner] = ids
}
