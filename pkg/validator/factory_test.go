package validator_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/datatree"
	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/rule"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

func TestFactory_BuildErrors(t *testing.T) {
	t.Parallel()

	f := validator.NewFactory(nil)

	tests := []struct {
		name string
		rule any
		want error
	}{
		{"unknown rule", "shout", validator.ErrUnknownRule},
		{"missing attribute", "between:5", validator.ErrMissingAttribute},
		{"non-numeric size", "min:abc", validator.ErrInvalidAttribute},
		{"reversed bounds", "between:10,5", validator.ErrInvalidAttribute},
		{"bad pattern", "regex:/[/", validator.ErrInvalidAttribute},
		{"bad debounce", "required:debounce=soon", validator.ErrInvalidAttribute},
		{"unique without endpoint", "unique:users", validator.ErrInvalidEndpoint},
		{"unsupported item", 42, validator.ErrInvalidRule},
		{"two rules in one object", map[string]any{"required": []any{"a"}, "email": []any{"b"}}, rule.ErrInvalidConditional},
		{"empty rule", "", rule.ErrEmptyRule},
		{"bad pair", []any{"required", map[string]any{}}, validator.ErrInvalidRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vs, err := f.Build("field", []any{tt.rule})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, vs)

			var cfgErr *validator.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, "field", cfgErr.Path)
		})
	}
}

func TestFactory_BuildReportsEveryProblem(t *testing.T) {
	t.Parallel()

	f := validator.NewFactory(nil)
	vs, err := f.Build("age", []any{"required", "between:5", "shout", "numeric"})
	require.Error(t, err)
	assert.Nil(t, vs)
	assert.ErrorIs(t, err, validator.ErrMissingAttribute)
	assert.ErrorIs(t, err, validator.ErrUnknownRule)
	assert.Contains(t, err.Error(), `field "age", rule "between"`)
	assert.Contains(t, err.Error(), `field "age", rule "shout"`)
}

func TestFactory_EndpointConfig(t *testing.T) {
	t.Parallel()

	f := validator.NewFactory(nil, validator.WithEndpoint("exists", true))
	_, err := f.Build("email", []any{"exists:users"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validator.ErrInvalidEndpoint)
	assert.ErrorIs(t, err, remote.ErrInvalidEndpointConfig)

	f = validator.NewFactory(nil, validator.WithEndpoint("exists", map[string]any{"url": "https://api.example.com/users/{value}"}))
	vs, err := f.Build("email", []any{"exists:users"})
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "exists", vs[0].Name())
}

func TestFactory_Items(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := datatree.New(map[string]any{"code": "ABC", "country": "US"})
	f := validator.NewFactory(store)

	isUpper := func(in validator.Input) bool {
		s, _ := in.Value.(string)
		return s != "" && s == strings.ToUpper(s)
	}

	vs, err := f.Build("code", []any{
		"required",
		rule.MustParse("size:3"),
		map[string]any{"min:2": []any{"country", "US"}},
		validator.Inline{Name: "upper", Check: isUpper},
		&validator.Inline{Async: func(context.Context, validator.Input) (bool, error) { return true, nil }},
		[]any{isUpper, map[string]any{"case": "upper"}},
		validator.RuleFunc(isUpper),
	})
	require.NoError(t, err)
	require.Len(t, vs, 7)

	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name()
		v.ValidateNow(ctx)
		require.NoError(t, v.Wait(ctx))
		assert.False(t, v.Invalid(), v.Name())
	}
	assert.Equal(t, []string{"required", "size", "min", "upper", "custom", "custom", "custom"}, names)
	assert.Equal(t, "upper", vs[5].Params()["case"])
	assert.Equal(t, []string{"country"}, vs[2].Dependencies())

	require.NoError(t, store.Set("code", "abc"))
	vs[3].ValidateNow(ctx)
	assert.True(t, vs[3].Invalid())
}

func TestFactory_Debounce(t *testing.T) {
	t.Parallel()

	f := validator.NewFactory(nil, validator.WithDebounce(200*time.Millisecond))

	vs, err := f.Build("q", []any{"required", "min:2:debounce=50"})
	require.Error(t, err, "attributes after a second colon are not valid syntax")
	assert.Nil(t, vs)

	vs, err = f.Build("q", []any{"required", "min:2,debounce=50"})
	require.NoError(t, err)
	assert.Equal(t, 200*time.Millisecond, vs[0].Debounce())
	assert.Equal(t, 50*time.Millisecond, vs[1].Debounce())

	vs, err = f.Build("q", []any{"required"}, validator.Debounce(0))
	require.NoError(t, err)
	assert.Zero(t, vs[0].Debounce())
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := validator.NewRegistry()
	names := r.Names()
	for _, n := range []string{"required", "in_array", "not_in_array", "exists", "unique", "active_url", "dimensions"} {
		assert.Contains(t, names, n)
	}

	_, ok := r.Lookup("shout")
	assert.False(t, ok)

	clone := r.Clone()
	clone.Register("shout", validator.Definition{New: func(rule.Spec, validator.Env) (validator.Rule, error) {
		return validator.RuleFunc(func(validator.Input) bool { return true }), nil
	}})
	_, ok = clone.Lookup("shout")
	assert.True(t, ok)
	_, ok = r.Lookup("shout")
	assert.False(t, ok, "clones are independent")

	clone.Register("", validator.Definition{})
	clone.Register("noop", validator.Definition{})
	_, ok = clone.Lookup("noop")
	assert.False(t, ok)
}

func TestFactory_OverrideBuiltin(t *testing.T) {
	t.Parallel()

	strict := validator.Definition{New: func(rule.Spec, validator.Env) (validator.Rule, error) {
		return validator.RuleFunc(func(in validator.Input) bool {
			s, _ := in.Value.(string)
			return len(s) > 3 && s[0] != '@'
		}), nil
	}}
	store := datatree.New(map[string]any{"email": "@bad"})
	f := validator.NewFactory(store, validator.WithRule("email", strict))

	vs, err := f.Build("email", []any{"email"})
	require.NoError(t, err)
	vs[0].ValidateNow(context.Background())
	assert.True(t, vs[0].Invalid())

	registry := validator.NewRegistry()
	g := validator.NewFactory(store, validator.WithRegistry(registry), validator.WithRule("email", strict))
	_, ok := g.Registry().Lookup("email")
	assert.True(t, ok)
	def, _ := registry.Lookup("email")
	assert.True(t, def.Nullable, "the passed registry is not modified")
}

func TestFactory_ErrorIsConfigError(t *testing.T) {
	t.Parallel()

	_, err := validator.NewFactory(nil).Build("x", []any{"nope"})
	var cfgErr *validator.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "nope", cfgErr.Rule)
}
