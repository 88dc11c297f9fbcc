// Package config loads formrules settings from the environment.
//
// It wraps github.com/joho/godotenv (optional .env files) and
// github.com/caarlos0/env/v11 (struct tags). Load is generic and caches one
// parsed copy per type, so the CLI and the tests share the same loader:
//
//	var cfg config.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
// Config groups the engine defaults (locale, date layout, debounce, strict
// comparisons, logging) with the connection settings of the remote
// endpoints used by the exists/unique rules. Every variable is prefixed with
// FORMRULES_, e.g. FORMRULES_REMOTE_URL or FORMRULES_REDIS_URL.
package config
