package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/sinan-prvt/Hopyfy-Cart/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions tunes the client pool. Zero fields take the defaults below.
type MongoOptions struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	MinPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

func (o *MongoOptions) withDefaults() {
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = 100
	}
	if o.MinPoolSize > o.MaxPoolSize {
		o.MinPoolSize = o.MaxPoolSize
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = 5 * time.Second
	}
}

// ConnectMongoDB opens a client and pings the deployment. An unreachable
// deployment is reported as domain.ErrUnavailable.
func ConnectMongoDB(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	opts.withDefaults()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(opts.URI).
		SetConnectTimeout(opts.ConnectTimeout).
		SetServerSelectionTimeout(opts.ServerSelectionTimeout).
		SetMaxPoolSize(opts.MaxPoolSize).
		SetMinPoolSize(opts.MinPoolSize))
	if err != nil {
		return nil, wrapMongoError("failed to connect to MongoDB", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		// ping only fails when no server could be selected or reached
		return nil, fmt.Errorf("failed to ping MongoDB: %w: %v", domain.ErrUnavailable, err)
	}

	return client.Database(opts.Database), nil
}
