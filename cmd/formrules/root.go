package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/formrules/pkg/compare"
	"github.com/dmitrymomot/formrules/pkg/config"
	"github.com/dmitrymomot/formrules/pkg/form"
	"github.com/dmitrymomot/formrules/pkg/i18n"
	"github.com/dmitrymomot/formrules/pkg/logger"
	"github.com/dmitrymomot/formrules/pkg/remote"
	"github.com/dmitrymomot/formrules/pkg/schema"
	"github.com/dmitrymomot/formrules/pkg/validator"
)

var (
	errInvalidData   = errors.New("data is invalid")
	errLintFailed    = errors.New("definition has errors")
	errUnknownStore  = errors.New("unknown store, use http, redis, postgres or mongo")
	errUnknownFormat = errors.New("unknown log format, use text or json")
)

type app struct {
	cfg      config.Config
	locale   string
	store    string
	messages string
	timeout  time.Duration
	log      *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "formrules",
		Short:        "Parse validation rules and validate data against form definitions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.locale, "locale", "", "message locale (default: definition locale, then FORMRULES_LOCALE)")
	flags.StringVar(&a.store, "store", "", "backend for exists and unique: http, redis, postgres or mongo")
	flags.StringVar(&a.messages, "messages", "", "directory with extra message catalogs (default FORMRULES_MESSAGES_DIR)")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "time limit for validation, remote checks included")

	root.AddCommand(newParseCmd(), newLintCmd(a), newValidateCmd(a))
	return root
}

func (a *app) init(stderr io.Writer) error {
	if err := config.Load(&a.cfg); err != nil {
		return err
	}
	if a.messages == "" {
		a.messages = a.cfg.MessagesDir
	}

	format := logger.Format(a.cfg.LogFormat)
	if format != logger.FormatText && format != logger.FormatJSON {
		return fmt.Errorf("%w: %q", errUnknownFormat, a.cfg.LogFormat)
	}
	a.log = logger.New(
		logger.WithLevelName(a.cfg.LogLevel),
		logger.WithFormat(format),
		logger.WithOutput(stderr),
		logger.WithAttr(logger.Component("cli")),
	)
	return nil
}

// formOptions returns the options layered over a definition's own. The
// returned cleanup closes store connections.
func (a *app) formOptions(ctx context.Context, s *schema.Schema) ([]form.Option, func(), error) {
	cleanup := func() {}

	locale := a.locale
	if locale == "" && s.Locale == "" {
		locale = a.cfg.Locale
	}

	cmp := compare.New(
		compare.WithDateFormat(a.cfg.DateFormat),
		compare.WithStrict(a.cfg.StrictCompare),
	)
	opts := []form.Option{form.WithLogger(a.log), form.WithComparator(cmp)}
	if locale != "" {
		opts = append(opts, form.WithLocale(locale))
	}

	vopts := []validator.Option{
		validator.WithDateFormat(a.cfg.DateFormat),
		validator.WithErrorHandler(func(path, rule string, err error) {
			a.log.Error("remote check failed", logger.Field(path), logger.Rule(rule), logger.Error(err))
		}),
	}
	if a.cfg.Debounce > 0 {
		vopts = append(vopts, validator.WithDebounce(a.cfg.Debounce))
	}

	if a.messages != "" {
		tr, err := i18n.NewTranslator(ctx,
			i18n.ChainAdapter{validator.BuiltinCatalog(), i18n.NewDirectoryAdapter(a.messages)},
			i18n.WithDefaultLanguage(i18n.DefaultLanguage),
			i18n.WithLogger(a.log),
		)
		if err != nil {
			return nil, cleanup, err
		}
		vopts = append(vopts, validator.WithMessages(tr))
	}

	if a.store != "" {
		ep, closeStore, err := a.endpoint(ctx)
		if err != nil {
			return nil, cleanup, err
		}
		cleanup = closeStore
		vopts = append(vopts, validator.WithEndpoint("exists", ep), validator.WithEndpoint("unique", ep))
	}

	return append(opts, form.WithValidatorOptions(vopts...)), cleanup, nil
}

// endpoint connects the store that answers exists and unique.
func (a *app) endpoint(ctx context.Context) (remote.Endpoint, func(), error) {
	noop := func() {}
	switch a.store {
	case "http":
		ep, err := remote.NewHTTP(a.cfg.Remote)
		if err != nil {
			return nil, noop, err
		}
		return ep, noop, nil
	case "redis":
		client, err := remote.ConnectRedis(ctx, a.cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		return remote.NewRedis(client, a.cfg.Redis.KeyPrefix), func() { _ = client.Close() }, nil
	case "postgres":
		pool, err := remote.ConnectPostgres(ctx, a.cfg.Postgres)
		if err != nil {
			return nil, noop, err
		}
		return remote.NewPostgres(pool), pool.Close, nil
	case "mongo":
		db, err := remote.ConnectMongo(ctx, a.cfg.Mongo)
		if err != nil {
			return nil, noop, err
		}
		return remote.NewMongo(remote.MongoDatabase(db)), func() {
			_ = db.Client().Disconnect(context.WithoutCancel(ctx))
		}, nil
	}
	return nil, noop, fmt.Errorf("%w: %q", errUnknownStore, a.store)
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
