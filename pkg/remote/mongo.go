package remote

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/formrules/pkg/fieldpath"
)

// MongoConfig is read from FORMRULES_MONGODB_*.
type MongoConfig struct {
	ConnectionURL   string        `env:"MONGODB_URL"`                                  // ConnectionURL is the server URI.
	Database        string        `env:"MONGODB_DATABASE" envDefault:"formrules"`      // Database holds the collections rules refer to.
	ConnectTimeout  time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`     // ConnectTimeout bounds one connection attempt.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"20"`        // MaxPoolSize is the connection pool limit.
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"` // MaxConnIdleTime before an idle connection is closed.
	RetryAttempts   int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval   time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`       // RetryInterval is the pause between attempts.
}

// ConnectMongo connects, pings and returns the configured database.
func ConnectMongo(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	var lastErr error
	for range max(cfg.RetryAttempts, 1) {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.ConnectionURL).
				SetConnectTimeout(cfg.ConnectTimeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetMaxConnIdleTime(cfg.MaxConnIdleTime),
		)
		if err == nil {
			if err = client.Ping(ctx, nil); err == nil {
				return client.Database(cfg.Database), nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnectToMongo, ctx.Err())
		case <-time.After(cfg.RetryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToConnectToMongo, lastErr)
}

// DocumentCounter counts documents matching filter in a collection.
type DocumentCounter interface {
	CountDocuments(ctx context.Context, collection string, filter any) (int64, error)
}

type mongoDatabase struct {
	db *mongo.Database
}

// MongoDatabase adapts a driver database to DocumentCounter.
func MongoDatabase(db *mongo.Database) DocumentCounter {
	return mongoDatabase{db: db}
}

func (m mongoDatabase) CountDocuments(ctx context.Context, collection string, filter any) (int64, error) {
	return m.db.Collection(collection).CountDocuments(ctx, filter, options.Count().SetLimit(1))
}

// Mongo answers exists/unique rules by counting documents:
// "exists:users,email" matches {email: value} in the users collection.
// The field defaults to the last segment of the field path.
type Mongo struct {
	db DocumentCounter
}

// NewMongo wraps a DocumentCounter, usually MongoDatabase(db).
func NewMongo(db DocumentCounter) *Mongo {
	return &Mongo{db: db}
}

// Check counts at most one matching document.
func (m *Mongo) Check(ctx context.Context, req Request) (bool, error) {
	collection := req.Param("table")
	if collection == "" {
		return false, ErrMissingTable
	}
	field := req.Param("column")
	if field == "" {
		field = fieldpath.Base(req.Path)
	}

	n, err := m.db.CountDocuments(ctx, collection, bson.D{{Key: field, Value: req.Value}})
	if err != nil {
		return false, transportError("mongo "+collection, err)
	}
	return verdict(req.Rule, n > 0), nil
}
