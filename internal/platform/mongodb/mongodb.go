// Package mongodb opens the document store shared by the task, journal and
// identity repositories.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/daybook/server/internal/platform/env"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultMaxPoolSize    = 20
	defaultConnectTimeout = 10 * time.Second
)

type Config struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

func ConfigFromEnv() Config {
	pool := env.Int("MONGO_MAX_POOL_SIZE", defaultMaxPoolSize)
	if pool <= 0 {
		pool = defaultMaxPoolSize
	}
	return Config{
		URI:            env.String("MONGODB_URI", env.DefaultMongoURI),
		Database:       env.String("MONGODB_DATABASE", env.DefaultMongoDB),
		MaxPoolSize:    uint64(pool),
		ConnectTimeout: env.Duration("MONGO_CONNECT_TIMEOUT", defaultConnectTimeout),
	}
}

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// Connect dials and pings the server before returning.
func Connect(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Database == "" {
		return nil, errors.New("mongodb database name is required")
	}
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Store{Client: client, DB: client.Database(cfg.Database)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.Client.Disconnect(ctx)
}

// NewID returns a fresh ObjectID in hex form. Memory repositories use it too
// so identifiers look the same regardless of the store driver.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ObjectID parses a hex id. ok is false for anything that is not a valid
// ObjectID, which callers treat as "no such document".
func ObjectID(hex string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func IsDuplicateKey(err error) bool {
	return mongo.IsDuplicateKeyError(err)
}

func IsNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}
