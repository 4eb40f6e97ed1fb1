package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI      string
	Database string

	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
	MaxPoolSize            uint64
	MinPoolSize            uint64
}

// DefaultMongoConfig returns defaults for local development.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:                    "mongodb://localhost:27017",
		Database:               "storefront",
		ConnectTimeout:         10 * time.Second,
		ServerSelectionTimeout: 5 * time.Second,
		MaxPoolSize:            100,
		MinPoolSize:            10,
	}
}

// NewMongoDatabase connects to MongoDB and verifies the connection with a
// primary-targeted ping. Call Client().Disconnect on shutdown.
func NewMongoDatabase(ctx context.Context, cfg MongoConfig) (*mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ServerSelectionTimeout).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return client.Database(cfg.Database), nil
}
