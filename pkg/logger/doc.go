// Package logger builds the *slog.Logger instances used across formrules and
// keeps attribute naming consistent.
//
// New applies functional options on top of production defaults (JSON, INFO,
// stderr). The attribute helpers in attr.go (Field, Rule, Operator,
// Component, Error...) are what the engine packages use when reporting
// transport failures, circular conditions or skipped validations:
//
//	log := logger.New(logger.WithDevelopment("formrules"))
//	log.Debug("circular condition", logger.Field("a"), logger.Source("b"))
//
// Library packages never log by default; they receive a logger through an
// option and fall back to Discard.
package logger
