package fieldpath_test

import (
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		template string
		current  string
		want     string
	}{
		{name: "wildcard in list item", template: "rows.*.total", current: "rows.2.qty", want: "rows.2.total"},
		{name: "trailing wildcard", template: "rows.*", current: "rows.4.qty", want: "rows.4"},
		{name: "matrix wildcards", template: "grid.*.*.cell", current: "grid.1.3.value", want: "grid.1.3.cell"},
		{name: "absolute path passes through", template: "country", current: "rows.2.qty", want: "country"},
		{name: "wildcard without numeric counterpart", template: "rows.*.total", current: "address.city", want: "rows.*.total"},
		{name: "template deeper than owner", template: "a.b.*", current: "a", want: "a.b.*"},
		{name: "sibling reference", template: "..total", current: "rows.2.qty", want: "rows.2.total"},
		{name: "climb two levels", template: "...note", current: "rows.2.qty", want: "rows.note"},
		{name: "relative from top level field", template: "..other", current: "email", want: "other"},
		{name: "relative with nested segments", template: "..meta.flag", current: "rows.0.qty", want: "rows.0.meta.flag"},
		{name: "empty template", template: "", current: "rows.1", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, fieldpath.Resolve(tt.template, tt.current))
		})
	}
}

func TestHelpers(t *testing.T) {
	t.Parallel()

	t.Run("split and join", func(t *testing.T) {
		assert.Equal(t, []string{"a", "0", "b"}, fieldpath.Split("a.0.b"))
		assert.Nil(t, fieldpath.Split(""))
		assert.Equal(t, "a.0.b", fieldpath.Join("a", "", "0", "b"))
	})

	t.Run("parent and base", func(t *testing.T) {
		assert.Equal(t, "rows.2", fieldpath.Parent("rows.2.qty"))
		assert.Equal(t, "", fieldpath.Parent("qty"))
		assert.Equal(t, "qty", fieldpath.Base("rows.2.qty"))
		assert.Equal(t, "qty", fieldpath.Base("qty"))
	})

	t.Run("is index", func(t *testing.T) {
		assert.True(t, fieldpath.IsIndex("12"))
		assert.False(t, fieldpath.IsIndex("1a"))
		assert.False(t, fieldpath.IsIndex(""))
		assert.False(t, fieldpath.IsIndex("*"))
	})

	t.Run("within and related", func(t *testing.T) {
		assert.True(t, fieldpath.IsWithin("rows.1.qty", "rows"))
		assert.True(t, fieldpath.IsWithin("rows", "rows"))
		assert.False(t, fieldpath.IsWithin("rowsx.1", "rows"))
		assert.True(t, fieldpath.Related("rows", "rows.1.qty"))
		assert.True(t, fieldpath.Related("rows.1.qty", "rows"))
		assert.False(t, fieldpath.Related("rows.1.qty", "rows.2.qty"))
	})

	t.Run("reindex", func(t *testing.T) {
		got, ok := fieldpath.Reindex("rows.3.qty", "rows", 3, 2)
		assert.True(t, ok)
		assert.Equal(t, "rows.2.qty", got)

		got, ok = fieldpath.Reindex("rows.31.qty", "rows", 3, 2)
		assert.False(t, ok)
		assert.Equal(t, "rows.31.qty", got)
	})

	t.Run("index", func(t *testing.T) {
		i, ok := fieldpath.Index("rows.7.qty", "rows")
		assert.True(t, ok)
		assert.Equal(t, 7, i)

		_, ok = fieldpath.Index("rows", "rows")
		assert.False(t, ok)
		_, ok = fieldpath.Index("rows.x", "rows")
		assert.False(t, ok)
	})
}

func TestResolve_PropertyWildcardTakesOwnerIndex(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("rows.*.total resolves to the owner's row", prop.ForAll(
		func(idx uint16) bool {
			owner := fieldpath.Join("rows", strconv.Itoa(int(idx)), "qty")
			return fieldpath.Resolve("rows.*.total", owner) == fieldpath.Join("rows", strconv.Itoa(int(idx)), "total")
		},
		gen.UInt16(),
	))

	properties.Property("paths without wildcards or dots are untouched", prop.ForAll(
		func(name string, owner string) bool {
			if name == "" || name[0] == '.' || fieldpath.HasWildcard(name) {
				return true
			}
			return fieldpath.Resolve(name, owner) == name
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
