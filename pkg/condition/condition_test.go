package condition_test

import (
	"bytes"
	"log/slog"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/condition"
	"github.com/dmitrymomot/formrules/pkg/datatree"
)

// testForm backs condition.Form with a data tree and a static condition map.
type testForm struct {
	store *datatree.Store
	conds map[string]condition.Condition
}

func newForm(data map[string]any, conds map[string]condition.Condition) *testForm {
	return &testForm{store: datatree.New(data), conds: conds}
}

func (f *testForm) Value(path string) (any, bool) { return f.store.Get(path) }

func (f *testForm) Conditions(path string) condition.Condition { return f.conds[path] }

func TestCompile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		spec  any
		owner string
		want  condition.Condition
		paths []string
	}{
		{
			name: "single path means not empty",
			spec: []any{"email"},
			want: condition.Comparison{Path: "email", Operator: "not_empty"},
		},
		{
			name: "two elements with value",
			spec: []any{"country", "US"},
			want: condition.Comparison{Path: "country", Operator: "==", Expected: "US"},
		},
		{
			name: "two elements with unary operator",
			spec: []string{"state", "empty"},
			want: condition.Comparison{Path: "state", Operator: "empty"},
		},
		{
			name: "full tuple",
			spec: []any{"age", ">=", 18},
			want: condition.Comparison{Path: "age", Operator: ">=", Expected: 18},
		},
		{
			name: "list of tuples is All",
			spec: []any{[]any{"country", "==", "US"}, []any{"age", ">", 17}},
			want: condition.All{
				condition.Comparison{Path: "country", Operator: "==", Expected: "US"},
				condition.Comparison{Path: "age", Operator: ">", Expected: 17},
			},
		},
		{
			name: "nested lists are AnyOfAll",
			spec: []any{
				[]any{[]any{"a", "==", 1}, []any{"b", "==", 2}},
				[]any{"c", "==", 3},
			},
			want: condition.AnyOfAll{
				{
					condition.Comparison{Path: "a", Operator: "==", Expected: 1},
					condition.Comparison{Path: "b", Operator: "==", Expected: 2},
				},
				{condition.Comparison{Path: "c", Operator: "==", Expected: 3}},
			},
		},
		{
			name:  "wildcards resolve against owner",
			spec:  []any{[]any{"rows.*.total", ">", 0}, []any{"..qty", ">", 0}, []any{"rows.*.total", "<", 9}},
			owner: "rows.2.price",
			paths: []string{"rows.2.total", "rows.2.qty"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cond, paths, err := condition.Compile(tt.spec, tt.owner)
			require.NoError(t, err)
			if tt.want != nil {
				assert.Equal(t, tt.want, cond)
			}
			if tt.paths != nil {
				assert.Equal(t, tt.paths, paths)
			}
		})
	}

	t.Run("passes through predicates and conditions", func(t *testing.T) {
		t.Parallel()
		cond, paths, err := condition.Compile(func(condition.Form, condition.Element) bool { return true }, "x")
		require.NoError(t, err)
		assert.IsType(t, condition.Predicate(nil), cond)
		assert.Empty(t, paths)

		cmp := condition.Comparison{Path: "a", Operator: "empty"}
		cond, paths, err = condition.Compile(cmp, "x")
		require.NoError(t, err)
		assert.Equal(t, cmp, cond)
		assert.Equal(t, []string{"a"}, paths)

		cond, paths, err = condition.Compile(nil, "x")
		require.NoError(t, err)
		assert.Nil(t, cond)
		assert.Empty(t, paths)
	})

	t.Run("rejects malformed specs", func(t *testing.T) {
		t.Parallel()
		for _, spec := range []any{
			[]any{},
			[]any{"a", "==", 1, 2},
			[]any{"", "==", 1},
			[]any{"a", 5, 1},
			[]any{[]any{"a", "==", 1}, 42},
			[]any{[]any{[]any{"a"}}, []any{}},
			"country",
			42,
		} {
			_, _, err := condition.Compile(spec, "")
			assert.ErrorIs(t, err, condition.ErrInvalidCondition, "spec %#v", spec)
		}
		assert.Panics(t, func() { condition.MustCompile(42) })
	})
}

func TestEvaluator_Evaluate(t *testing.T) {
	t.Parallel()

	form := newForm(map[string]any{
		"country": "US",
		"age":     21,
		"rows":    []any{map[string]any{"qty": 0}, map[string]any{"qty": 3}},
	}, nil)
	ev := condition.NewEvaluator(form, compare.New())

	assert.True(t, ev.Evaluate(nil, "state"))
	assert.True(t, ev.Evaluate(condition.MustCompile([]any{"country", "US"}), "state"))
	assert.False(t, ev.Evaluate(condition.MustCompile([]any{"country", "CA"}), "state"))
	assert.True(t, ev.Evaluate(condition.MustCompile([]any{"rows.*.qty", ">", 0}), "rows.1.price"))
	assert.False(t, ev.Evaluate(condition.MustCompile([]any{"rows.*.qty", ">", 0}), "rows.0.price"))
	assert.True(t, ev.Evaluate(condition.MustCompile([]any{"..qty", "==", 3}), "rows.1.price"))

	pred := condition.Predicate(func(f condition.Form, el condition.Element) bool {
		v, _ := f.Value("age")
		return el.Path == "state" && v == 21
	})
	assert.True(t, ev.Evaluate(pred, "state"))
}

func TestEvaluator_UnavailableReference(t *testing.T) {
	t.Parallel()

	form := newForm(map[string]any{
		"has_company": false,
		"company":     "ACME",
	}, map[string]condition.Condition{
		"company": condition.MustCompile([]any{"has_company", "==", true}),
	})
	ev := condition.NewEvaluator(form, nil)

	assert.False(t, ev.Available("company"))
	// company holds a value but is hidden, so it compares false.
	assert.False(t, ev.Evaluate(condition.MustCompile([]any{"company", "not_empty"}), "vat_id"))
	assert.True(t, ev.Available("vat_id"))
}

func TestEvaluator_CircularReferences(t *testing.T) {
	t.Parallel()

	t.Run("mutually hiding fields do not deadlock", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		log := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

		form := newForm(map[string]any{"a": "", "b": ""}, map[string]condition.Condition{
			"a": condition.MustCompile([]any{"b", "empty"}),
			"b": condition.MustCompile([]any{"a", "empty"}),
		})
		ev := condition.NewEvaluator(form, nil, condition.WithLogger(log))

		a, b := ev.Available("a"), ev.Available("b")
		assert.True(t, a || b)
		assert.True(t, a)
		assert.True(t, b)
		assert.Contains(t, logs.String(), "circular condition")
	})

	t.Run("longer cycles are broken", func(t *testing.T) {
		t.Parallel()
		form := newForm(map[string]any{"a": "x", "b": "y", "c": "z"}, map[string]condition.Condition{
			"a": condition.MustCompile([]any{"b"}),
			"b": condition.MustCompile([]any{"c"}),
			"c": condition.MustCompile([]any{"a"}),
		})
		ev := condition.NewEvaluator(form, nil)

		assert.True(t, ev.Available("a"))
		assert.True(t, ev.Available("b"))
		assert.True(t, ev.Available("c"))
	})
}

func TestPathsAndReferences(t *testing.T) {
	t.Parallel()

	cond := condition.MustCompile([]any{
		[]any{[]any{"rows.*.a", "==", 1}},
		[]any{[]any{"b", "==", 2}, []any{"rows.*.a", "==", 3}},
	})
	assert.Equal(t, []string{"rows.4.a", "b"}, condition.Paths(cond, "rows.4.c"))
	assert.True(t, condition.References(cond, "rows.4.c", "b"))
	assert.False(t, condition.References(cond, "rows.4.c", "rows.3.a"))
}

func TestEvaluator_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	form := newForm(map[string]any{"yes": true}, nil)
	ev := condition.NewEvaluator(form, nil)

	leaf := func(v bool) condition.Condition {
		return condition.Comparison{Path: "yes", Operator: "==", Expected: v}
	}

	properties.Property("All is true iff every leaf is true", prop.ForAll(
		func(leaves []bool) bool {
			all := make(condition.All, 0, len(leaves))
			want := true
			for _, v := range leaves {
				all = append(all, leaf(v))
				want = want && v
			}
			return ev.Evaluate(all, "owner") == want
		},
		gen.SliceOf(gen.Bool()),
	))

	properties.Property("AnyOfAll is true iff some group is fully true", prop.ForAll(
		func(groups [][]bool) bool {
			cond := make(condition.AnyOfAll, 0, len(groups))
			want := false
			for _, g := range groups {
				members := make([]condition.Condition, 0, len(g))
				groupTrue := true
				for _, v := range g {
					members = append(members, leaf(v))
					groupTrue = groupTrue && v
				}
				cond = append(cond, members)
				want = want || groupTrue
			}
			return ev.Evaluate(cond, "owner") == want
		},
		gen.SliceOf(gen.SliceOf(gen.Bool())),
	))

	properties.Property("wildcards follow the owner's row", prop.ForAll(
		func(row uint8) bool {
			owner := "rows." + strconv.Itoa(int(row)) + ".qty"
			paths := condition.Paths(condition.Comparison{Path: "rows.*.total", Operator: "empty"}, owner)
			return len(paths) == 1 && paths[0] == "rows."+strconv.Itoa(int(row))+".total"
		},
		gen.UInt8(),
	))

	properties.TestingRun(t)
}
