// Package remote provides the endpoints behind network-backed validation
// rules: exists, unique and active_url.
//
// An Endpoint answers one Request with a verdict. A returned error is a
// TransportError, never a validation failure; the validator runtime turns it
// into an invalid result and logs it.
//
// Endpoints are built from declarative configuration with FromConfig:
//
//	ep, err := remote.FromConfig(map[string]any{
//	    "url":    "https://api.example.com/users/{value}",
//	    "method": "GET",
//	})
//
// Placeholders other than {value} are field paths (relative and wildcard
// references allowed) whose current values are substituted into the URL;
// HTTP.Dependencies exposes them so the validator can watch those fields.
// Passing false yields Disabled, which accepts every value without calling
// out.
//
// Store-backed endpoints answer the same rules from Redis sets (Redis),
// PostgreSQL tables (Postgres) or MongoDB collections (Mongo). ConnectRedis,
// ConnectPostgres and ConnectMongo open the underlying clients with retries,
// configured through RedisConfig, PostgresConfig and MongoConfig, which are
// populated from environment variables via github.com/caarlos0/env.
package remote
