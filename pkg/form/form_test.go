package form_test

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/dmitrymomot/formrules/pkg/form"
	"github.com/dmitrymomot/formrules/pkg/logger"
	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

func newForm(t *testing.T, data map[string]any, opts ...form.Option) *form.Form {
	t.Helper()
	f := form.New(data, opts...)
	t.Cleanup(f.Close)
	return f
}

func settle(t *testing.T, f *form.Form) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.Wait(ctx))
}

func TestForm_ConditionalRequired(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newForm(t, map[string]any{"country": "CA", "state": ""})
	require.NoError(t, f.AddField("country", form.Field{Rules: []any{"required"}}))
	require.NoError(t, f.AddField("state", form.Field{
		Rules: []any{map[string]any{"required": []any{"country", "US"}}},
	}))
	assert.Equal(t, []string{"country"}, f.Dependencies("state"))

	require.NoError(t, f.ValidateAll(ctx))

	require.NoError(t, f.SetValue(ctx, "country", "US"))
	settle(t, f)
	assert.True(t, f.Invalid("state"), "dependants revalidate on change")
	assert.Equal(t, []string{"The state field is required."}, f.Errors("state", "en"))

	err := f.ValidateAll(ctx)
	require.Error(t, err)
	errs := validator.ExtractValidationErrors(err)
	assert.Equal(t, []string{"state"}, errs.Fields())
	require.Len(t, errs, 1)
	assert.Equal(t, "required", errs[0].Rule)

	require.NoError(t, f.SetValue(ctx, "state", "NY"))
	assert.False(t, f.Invalid("state"))
	assert.NoError(t, f.ValidateAll(ctx))
}

func TestForm_Visibility(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newForm(t, map[string]any{"type": "person", "company": "", "vat_id": ""})
	require.NoError(t, f.AddField("type", form.Field{Rules: []any{"required", "in:person,business"}}))
	require.NoError(t, f.AddField("company", form.Field{
		Rules: []any{"required"},
		When:  []any{"type", "business"},
	}))
	require.NoError(t, f.AddField("vat_id", form.Field{
		Rules: []any{"required"},
		When:  []any{"company", "not_empty"},
	}))

	assert.False(t, f.Available("company"))
	assert.False(t, f.Available("vat_id"))
	assert.NoError(t, f.ValidateAll(ctx), "hidden fields are not validated")

	require.NoError(t, f.SetValue(ctx, "type", "business"))
	assert.True(t, f.Available("company"))
	err := f.ValidateAll(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"company"}, validator.ExtractValidationErrors(err).Fields())

	require.NoError(t, f.SetValue(ctx, "company", "Acme"))
	err = f.ValidateAll(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"vat_id"}, validator.ExtractValidationErrors(err).Fields())

	t.Run("hiding a field clears its errors", func(t *testing.T) {
		require.True(t, f.Invalid("vat_id"))
		require.NoError(t, f.SetValue(ctx, "type", "person"))
		assert.False(t, f.Available("vat_id"), "company is hidden, so its value does not count")
		assert.False(t, f.Invalid("vat_id"))
		assert.Nil(t, f.Errors("vat_id", "en"))
	})
}

func TestForm_MutuallyHidingFields(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	f := newForm(t, map[string]any{"a": "", "b": ""},
		form.WithLogger(logger.New(logger.WithOutput(&logs), logger.WithLevelName("debug"))))
	require.NoError(t, f.AddField("a", form.Field{When: []any{"b", "empty"}}))
	require.NoError(t, f.AddField("b", form.Field{When: []any{"a", "empty"}}))

	assert.True(t, f.Available("a"))
	assert.True(t, f.Available("b"))
	assert.Contains(t, logs.String(), "circular condition")
}

func TestForm_ConfirmedRevalidatesOnPartnerChange(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newForm(t, map[string]any{})
	require.NoError(t, f.AddField("password", form.Field{Rules: []any{"required", "min:6", "confirmed"}}))
	require.NoError(t, f.AddField("password_confirmation", form.Field{}))

	require.NoError(t, f.SetValue(ctx, "password", "secret"))
	assert.True(t, f.Invalid("password"))
	assert.Equal(t, []string{"The password field confirmation does not match."}, f.Errors("password", "en"))

	require.NoError(t, f.SetValue(ctx, "password_confirmation", "secret"))
	assert.False(t, f.Invalid("password"))
}

func TestForm_AddFieldErrors(t *testing.T) {
	t.Parallel()

	f := newForm(t, nil)
	err := f.AddField("age", form.Field{Rules: []any{"between:5"}})
	assert.ErrorIs(t, err, validator.ErrMissingAttribute)

	err = f.AddField("age", form.Field{When: 42})
	var cfgErr *validator.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "age", cfgErr.Path)

	assert.ErrorIs(t, f.AddField("", form.Field{}), form.ErrEmptyPath)
	assert.Empty(t, f.Fields())

	f.Close()
	assert.ErrorIs(t, f.AddField("age", form.Field{}), form.ErrClosed)
}

func TestForm_ReplaceAndRemoveField(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newForm(t, map[string]any{"nick": "ab", "other": ""})
	require.NoError(t, f.AddField("nick", form.Field{Rules: []any{"min:3", "different:other"}}))
	assert.Equal(t, []string{"other"}, f.Dependencies("nick"))

	require.NoError(t, f.AddField("nick", form.Field{Rules: []any{"min:2"}, Label: "Nickname"}))
	assert.Empty(t, f.Dependencies("nick"))
	require.NoError(t, f.ValidateAll(ctx))

	require.NoError(t, f.SetValue(ctx, "nick", "a"))
	assert.Equal(t, []string{"The Nickname field must be at least 2 characters."}, f.Errors("nick", ""))

	f.RemoveField("nick")
	assert.Empty(t, f.Fields())
	assert.False(t, f.Invalid("nick"))
	assert.NoError(t, f.ValidateAll(ctx))
}

func TestForm_Lists(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	f := newForm(t, map[string]any{
		"rows": []any{
			map[string]any{"sku": "A", "qty": 2.0, "stock": 5.0},
			map[string]any{"sku": "A", "qty": 9.0, "stock": 5.0},
		},
	})
	require.NoError(t, f.AddList("rows", map[string]form.Field{
		"sku":   {Rules: []any{"required", "distinct"}},
		"qty":   {Rules: []any{"integer", "lte:..stock"}},
		"stock": {Rules: []any{"numeric"}},
	}))
	assert.Equal(t, []string{"rows"}, f.Lists())
	assert.Equal(t, []string{
		"rows.0.qty", "rows.0.sku", "rows.0.stock",
		"rows.1.qty", "rows.1.sku", "rows.1.stock",
	}, f.Fields())
	assert.Equal(t, []string{"rows.1.stock"}, f.Dependencies("rows.1.qty"))
	assert.Equal(t, []string{"rows.1.sku"}, f.Dependencies("rows.0.sku"))

	err := f.ValidateAll(ctx)
	require.Error(t, err)
	assert.Equal(t, []string{"rows.0.sku", "rows.1.qty", "rows.1.sku"}, validator.ExtractValidationErrors(err).Fields())

	t.Run("changing a sibling revalidates", func(t *testing.T) {
		require.NoError(t, f.SetValue(ctx, "rows.1.stock", 10.0))
		assert.False(t, f.Invalid("rows.1.qty"))
	})

	t.Run("remove re-keys and revalidates carried fields", func(t *testing.T) {
		require.NoError(t, f.RemoveItem(ctx, "rows", 1))
		assert.Equal(t, []string{"rows.0.qty", "rows.0.sku", "rows.0.stock"}, f.Fields())
		assert.False(t, f.Invalid("rows.0.sku"), "duplicate is gone")
	})

	t.Run("insert shifts items", func(t *testing.T) {
		require.NoError(t, f.InsertItem(ctx, "rows", 0, map[string]any{"sku": "A"}))
		assert.Len(t, f.Fields(), 6)
		v, _ := f.Get("rows.1.qty")
		assert.Equal(t, 2.0, v)

		err := f.ValidateAll(ctx)
		require.Error(t, err)
		assert.Equal(t, []string{"rows.0.sku", "rows.1.sku"}, validator.ExtractValidationErrors(err).Fields())
	})

	t.Run("move keeps errors with their item", func(t *testing.T) {
		require.NoError(t, f.SetValue(ctx, "rows.0.sku", "B"))
		require.NoError(t, f.SetValue(ctx, "rows.0.qty", 1.5))
		require.Error(t, f.ValidateAll(ctx), "qty 1.5 is not an integer")

		require.NoError(t, f.MoveItem(ctx, "rows", 0, 1))
		v, _ := f.Get("rows.1.qty")
		assert.Equal(t, 1.5, v)
		assert.True(t, f.Invalid("rows.1.qty"))
		assert.False(t, f.Invalid("rows.0.qty"))
	})

	t.Run("unknown list", func(t *testing.T) {
		assert.ErrorIs(t, f.InsertItem(ctx, "lines", 0, nil), form.ErrUnknownList)
		assert.Error(t, f.RemoveItem(ctx, "rows", 7))
	})
}

func TestForm_AsyncRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int32
	endpoint := remote.Func(func(_ context.Context, req remote.Request) (bool, error) {
		calls.Add(1)
		return req.Value != "taken@example.com", nil
	})
	f := newForm(t, map[string]any{"email": ""},
		form.WithValidatorOptions(validator.WithEndpoint("unique", endpoint)))
	require.NoError(t, f.AddField("email", form.Field{Rules: []any{"required", "email", "unique:users,email"}}))

	require.NoError(t, f.SetValue(ctx, "email", "taken@example.com"))
	settle(t, f)
	assert.False(t, f.Pending("email"))
	assert.True(t, f.Invalid("email"))
	assert.Equal(t, []string{"The email has already been taken."}, f.Errors("email", "en"))

	require.NoError(t, f.SetValue(ctx, "email", "free@example.com"))
	assert.NoError(t, f.ValidateAll(ctx))
	assert.Equal(t, int32(3), calls.Load())
}

func TestForm_Debounce(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	window := 20 * time.Millisecond
	f := newForm(t, map[string]any{"q": ""})
	require.NoError(t, f.AddField("q", form.Field{Rules: []any{"min:3"}, Debounce: &window}))

	require.NoError(t, f.SetValue(ctx, "q", "a"))
	assert.False(t, f.Invalid("q"), "check waits for the window")
	settle(t, f)
	assert.True(t, f.Invalid("q"))
}

func TestForm_DateLayoutSharedByVisibilityAndRules(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	now := time.Date(2020, time.February, 1, 10, 0, 0, 0, time.UTC)
	f := newForm(t, map[string]any{"start": "01/02/2020", "note": ""},
		form.WithValidatorOptions(
			validator.WithDateFormat("02/01/2006"),
			validator.WithClock(testingclock.NewFakeClock(now)),
		))

	require.NoError(t, f.AddField("note", form.Field{
		When:  []any{"start", "before", "01/01/2021"},
		Rules: []any{map[string]any{"required": []any{"start", "before", "01/01/2021"}}},
	}))
	require.NoError(t, f.AddField("today_note", form.Field{When: []any{"start", "today"}}))

	assert.True(t, f.Available("note"))
	assert.True(t, f.Available("today_note"), "visibility follows the validator clock")

	f.Validate(ctx, "note")
	settle(t, f)
	assert.True(t, f.Invalid("note"), "rule condition agrees with visibility")

	require.NoError(t, f.SetValue(ctx, "start", "01/02/2022"))
	assert.False(t, f.Available("note"))
	assert.False(t, f.Available("today_note"))
}

func TestForm_ConcurrentWritesDuringAsyncValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tags := make(map[string]any, 2000)
	for i := range 2000 {
		tags["t"+strconv.Itoa(i)] = i
	}
	f := newForm(t, map[string]any{"tags": tags})
	require.NoError(t, f.AddField("tags", form.Field{Rules: []any{validator.Inline{
		Name: "tags_known",
		Async: func(_ context.Context, in validator.Input) (bool, error) {
			m, ok := in.Value.(map[string]any)
			if !ok {
				return false, nil
			}
			total := 0
			for range m {
				total++
			}
			return total > 0, nil
		},
	}}}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			f.Validate(ctx, "tags")
		}
	}()
	go func() {
		defer wg.Done()
		for i := range 100 {
			assert.NoError(t, f.Store().Set("tags.c", i))
		}
	}()
	wg.Wait()

	f.Validate(ctx, "tags")
	settle(t, f)
	assert.False(t, f.Invalid("tags"))
	assert.False(t, f.Pending("tags"))

	v, ok := f.Get("tags.c")
	require.True(t, ok)
	assert.Equal(t, 99, v)
}

func TestForm_DistinctWatchesSameColumn(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var calls atomic.Int32
	f := newForm(t, map[string]any{
		"rows": []any{
			map[string]any{"sku": "A", "price": 1.0},
			map[string]any{"sku": "A", "price": 2.0},
		},
	})
	require.NoError(t, f.AddList("rows", map[string]form.Field{
		"sku": {Rules: []any{"distinct", validator.Inline{Name: "counted", Check: func(validator.Input) bool {
			calls.Add(1)
			return true
		}}}},
		"price": {Rules: []any{"numeric"}},
	}))
	require.Error(t, f.ValidateAll(ctx))
	assert.True(t, f.Invalid("rows.0.sku"))

	calls.Store(0)
	require.NoError(t, f.SetValue(ctx, "rows.1.price", 3.0))
	assert.Zero(t, calls.Load(), "another column does not revalidate sku")

	require.NoError(t, f.SetValue(ctx, "rows.1.sku", "B"))
	settle(t, f)
	assert.False(t, f.Invalid("rows.0.sku"), "sibling sku change revalidates")

	require.NoError(t, f.InsertItem(ctx, "rows", 2, map[string]any{"sku": "A"}))
	assert.Equal(t, []string{"rows.1.sku", "rows.2.sku"}, f.Dependencies("rows.0.sku"))
}
