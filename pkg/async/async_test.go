package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), "abc", func(_ context.Context, s string) (int, error) {
			return len(s), nil
		})
		n, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.True(t, f.IsComplete())
	})

	t.Run("canceled context short-circuits", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		called := false
		f := async.Async(ctx, 1, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("recovers panics", func(t *testing.T) {
		t.Parallel()
		f := async.Async(context.Background(), 0, func(context.Context, int) (bool, error) {
			panic("boom")
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, async.ErrPanic)
	})

	t.Run("await context stops waiting", func(t *testing.T) {
		t.Parallel()
		release := make(chan struct{})
		defer close(release)
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			<-release
			return 1, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := f.AwaitContext(ctx)
		assert.ErrorIs(t, err, async.ErrCanceled)
		assert.False(t, f.IsComplete())
	})
}

func TestWaitAll(t *testing.T) {
	t.Parallel()

	errA := errors.New("a failed")
	ctx := context.Background()
	futures := []*async.Future[string]{
		async.Async(ctx, "a", func(context.Context, string) (string, error) { return "", errA }),
		async.Async(ctx, "b", func(_ context.Context, s string) (string, error) { return s, nil }),
	}

	results, err := async.WaitAll(futures...)
	assert.ErrorIs(t, err, errA)
	assert.Equal(t, []string{"", "b"}, results)

	_, err = async.WaitAll[string]()
	assert.NoError(t, err)
}
