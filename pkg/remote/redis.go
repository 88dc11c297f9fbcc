package remote

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig is read from FORMRULES_REDIS_*.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // ConnectionURL in the form "redis://:password@localhost:6379/0".
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"formrules:"`        // KeyPrefix is prepended to the set name taken from the rule.
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`             // RetryAttempts is the number of connection attempts.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`            // RetryInterval is the pause between attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`          // ConnectTimeout bounds the whole connection phase.
}

// ConnectRedis connects and pings, retrying up to cfg.RetryAttempts times with
// cfg.RetryInterval between attempts.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	opt, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	for range max(cfg.RetryAttempts, 1) {
		client := redis.NewClient(opt)
		if err := client.Ping(ctx).Err(); err == nil {
			return client, nil
		}
		_ = client.Close()

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisNotReady, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, ErrRedisNotReady
}

// SetMembership is the part of a go-redis client the Redis endpoint uses.
type SetMembership interface {
	SIsMember(ctx context.Context, key string, member any) *redis.BoolCmd
}

// Redis answers exists/unique rules from Redis sets: "exists:emails" checks
// SISMEMBER <prefix>emails <value>.
type Redis struct {
	client SetMembership
	prefix string
}

// NewRedis wraps a client. prefix is prepended to every set name.
func NewRedis(client SetMembership, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Check looks the value up in the set named by the "table" parameter.
func (r *Redis) Check(ctx context.Context, req Request) (bool, error) {
	set := req.Param("table")
	if set == "" {
		return false, ErrMissingTable
	}
	found, err := r.client.SIsMember(ctx, r.prefix+set, text(req.Value)).Result()
	if err != nil {
		return false, transportError("redis "+r.prefix+set, err)
	}
	return verdict(req.Rule, found), nil
}
