package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
)

// PostgresConfig is read from FORMRULES_PG_*.
type PostgresConfig struct {
	ConnectionString  string        `env:"PG_CONN_URL"`                            // ConnectionString is the database URL.
	MaxOpenConns      int32         `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the pool size.
	MaxIdleConns      int32         `env:"PG_MAX_IDLE_CONNS" envDefault:"2"`       // MaxIdleConns is the minimum number of kept connections.
	HealthCheckPeriod time.Duration `env:"PG_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between pool health checks.
	MaxConnIdleTime   time.Duration `env:"PG_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime before an idle connection is closed.
	RetryAttempts     int           `env:"PG_RETRY_ATTEMPTS" envDefault:"3"`       // RetryAttempts is the number of connection attempts.
	RetryInterval     time.Duration `env:"PG_RETRY_INTERVAL" envDefault:"5s"`      // RetryInterval is the base pause, multiplied by the attempt number.
}

// ConnectPostgres opens a pool and pings it. Attempt n waits n*RetryInterval
// before the next one.
func ConnectPostgres(ctx context.Context, cfg PostgresConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	poolCfg.MaxConns = cfg.MaxOpenConns
	poolCfg.MinConns = cfg.MaxIdleConns
	poolCfg.HealthCheckPeriod = cfg.HealthCheckPeriod
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	var lastErr error
	for i := range max(cfg.RetryAttempts, 1) {
		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// RowQuerier is the part of pgx (pool, conn or tx) the Postgres endpoint uses.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres answers exists/unique rules with
// SELECT EXISTS(SELECT 1 FROM table WHERE column = $1).
// "exists:users,email" names table and column; the column defaults to the
// last segment of the field path.
type Postgres struct {
	db RowQuerier
}

// NewPostgres wraps a pool, connection or transaction.
func NewPostgres(db RowQuerier) *Postgres {
	return &Postgres{db: db}
}

// Check runs the existence query.
func (p *Postgres) Check(ctx context.Context, req Request) (bool, error) {
	table := req.Param("table")
	if table == "" {
		return false, ErrMissingTable
	}
	column := req.Param("column")
	if column == "" {
		column = fieldpath.Base(req.Path)
	}

	query := fmt.Sprintf(
		"SELECT EXISTS(SELECT 1 FROM %s WHERE %s = $1)",
		pgx.Identifier{table}.Sanitize(),
		pgx.Identifier{column}.Sanitize(),
	)

	var found bool
	if err := p.db.QueryRow(ctx, query, text(req.Value)).Scan(&found); err != nil {
		return false, transportError("postgres "+table, err)
	}
	return verdict(req.Rule, found), nil
}
