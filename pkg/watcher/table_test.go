package watcher_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/watcher"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) handler(owner string) watcher.Handler {
	return func(_ context.Context, changed string) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls = append(r.calls, owner+"<-"+changed)
	}
}

func (r *recorder) take() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.calls
	r.calls = nil
	return out
}

func TestTable_Notify(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &recorder{}
	tbl := watcher.New()

	tbl.Watch("state", []string{"country"}, rec.handler("state"))
	tbl.Watch("total", []string{"rows.0.qty", "rows.1.qty"}, rec.handler("total"))
	tbl.Watch("summary", []string{"rows"}, rec.handler("summary"))

	t.Run("exact path", func(t *testing.T) {
		assert.Equal(t, 1, tbl.Notify(ctx, "country"))
		assert.Equal(t, []string{"state<-country"}, rec.take())
	})

	t.Run("descendant change reaches list watcher", func(t *testing.T) {
		assert.Equal(t, 2, tbl.Notify(ctx, "rows.1.qty"))
		assert.Equal(t, []string{"summary<-rows.1.qty", "total<-rows.1.qty"}, rec.take())
	})

	t.Run("ancestor change reaches item watchers once per group", func(t *testing.T) {
		assert.Equal(t, 2, tbl.Notify(ctx, "rows"))
		assert.Equal(t, []string{"summary<-rows", "total<-rows"}, rec.take())
	})

	t.Run("unrelated path", func(t *testing.T) {
		assert.Equal(t, 0, tbl.Notify(ctx, "rowsX"))
		assert.Empty(t, rec.take())
	})
}

func TestTable_Watch(t *testing.T) {
	t.Parallel()

	tbl := watcher.New()
	subs := tbl.Watch("a", []string{"b", "", "b", "c"}, func(context.Context, string) {})
	require.Len(t, subs, 2)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, []string{"b", "c"}, tbl.Sources("a"))
	assert.NotEqual(t, subs[0].ID, subs[1].ID)
	assert.Equal(t, "a", subs[0].Owner)

	assert.Nil(t, tbl.Watch("x", []string{"y"}, nil))
	assert.Equal(t, []string{"a"}, tbl.Owners())
}

func TestTable_Rebuild(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := &recorder{}
	tbl := watcher.New()

	old := tbl.Watch("state", []string{"country", "region"}, rec.handler("old"))
	tbl.Rebuild("state", []string{"zip"}, rec.handler("new"))

	assert.Equal(t, []string{"zip"}, tbl.Sources("state"))
	assert.Equal(t, 0, tbl.Notify(ctx, "country"))
	assert.Equal(t, 1, tbl.Notify(ctx, "zip"))
	assert.Equal(t, []string{"new<-zip"}, rec.take())

	// Closing a handle that Rebuild already dropped leaves the new ones alone.
	old[0].Close()
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_ReleaseAndClose(t *testing.T) {
	t.Parallel()

	tbl := watcher.New()
	subs := tbl.Watch("a", []string{"x", "y"}, func(context.Context, string) {})
	tbl.Watch("b", []string{"x"}, func(context.Context, string) {})

	subs[0].Close()
	subs[0].Close()
	assert.Equal(t, []string{"y"}, tbl.Sources("a"))
	assert.Equal(t, 2, tbl.Len())

	assert.Equal(t, 1, tbl.Release("a"))
	assert.Equal(t, 0, tbl.Release("a"))
	assert.Empty(t, tbl.Sources("a"))
	assert.Equal(t, []string{"b"}, tbl.Owners())

	subs[1].Close()
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_HandlerMayResubscribe(t *testing.T) {
	t.Parallel()

	tbl := watcher.New()
	var calls atomic.Int32
	var fn watcher.Handler
	fn = func(context.Context, string) {
		calls.Add(1)
		tbl.Rebuild("a", []string{"x"}, fn)
	}
	tbl.Watch("a", []string{"x"}, fn)

	assert.Equal(t, 1, tbl.Notify(context.Background(), "x"))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, tbl.Len())
}

func TestTable_Concurrent(t *testing.T) {
	t.Parallel()

	tbl := watcher.New()
	var hits atomic.Int64
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			owner := string(rune('a' + i))
			subs := tbl.Watch(owner, []string{"src"}, func(context.Context, string) { hits.Add(1) })
			tbl.Notify(context.Background(), "src")
			subs[0].Close()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, tbl.Len())
	assert.GreaterOrEqual(t, hits.Load(), int64(20))
}
