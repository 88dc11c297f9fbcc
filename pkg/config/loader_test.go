package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formrules/pkg/config"
)

var envKeys = []string{
	"FORMRULES_LOCALE",
	"FORMRULES_DEBOUNCE",
	"FORMRULES_STRICT_COMPARE",
	"FORMRULES_REMOTE_URL",
	"FORMRULES_REMOTE_METHOD",
}

func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		require.NoError(t, os.Unsetenv(k))
	}
	t.Cleanup(func() {
		for _, k := range envKeys {
			_ = os.Unsetenv(k)
		}
		config.ResetCache()
	})
	config.ResetCache()
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t)

	var cfg config.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, "2006-01-02", cfg.DateFormat)
	assert.Zero(t, cfg.Debounce)
	assert.False(t, cfg.StrictCompare)
	assert.Equal(t, "GET", cfg.Remote.Method)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 3, cfg.Redis.RetryAttempts)
}

func TestLoadEnv_File(t *testing.T) {
	unsetEnv(t)

	require.NoError(t, config.LoadEnv("testdata/.env.test"))

	var cfg config.Config
	require.NoError(t, config.Load(&cfg))

	assert.Equal(t, "de", cfg.Locale)
	assert.Equal(t, 250*time.Millisecond, cfg.Debounce)
	assert.True(t, cfg.StrictCompare)
	assert.Equal(t, "https://api.example.com/check/{email}", cfg.Remote.URL)
	assert.Equal(t, "POST", cfg.Remote.Method)
}

func TestLoad_Cached(t *testing.T) {
	unsetEnv(t)

	var first config.Config
	require.NoError(t, config.Load(&first))

	t.Setenv("FORMRULES_LOCALE", "fr")

	var second config.Config
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "en", second.Locale)

	var reloaded config.Config
	require.NoError(t, config.Reload(&reloaded))
	assert.Equal(t, "fr", reloaded.Locale)
}

func TestLoad_Errors(t *testing.T) {
	unsetEnv(t)

	assert.ErrorIs(t, config.Load[config.Config](nil), config.ErrNilPointer)
	assert.ErrorIs(t, config.LoadEnv("testdata/missing.env"), config.ErrLoadingEnvFile)

	t.Setenv("FORMRULES_DEBOUNCE", "soon")
	var cfg config.Config
	assert.ErrorIs(t, config.Reload(&cfg), config.ErrParsingConfig)
	assert.Panics(t, func() {
		config.ResetCache()
		config.MustLoad(&cfg)
	})
}
