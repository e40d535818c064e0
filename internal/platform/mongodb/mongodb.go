// Package mongodb opens the shared MongoDB client used by the document-backed stores.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// DefaultDatabase is the database of the public mflix sample dataset.
const DefaultDatabase = "sample_mflix"

// Options configures Open. Zero values fall back to env vars or defaults.
type Options struct {
	URI            string        // default from MONGODB_URI
	Database       string        // default from MONGODB_DATABASE or DefaultDatabase
	AppName        string
	MaxPoolSize    uint64        // default 50
	ConnectTimeout time.Duration // default 2s
}

func (o *Options) applyDefaults() {
	if o.URI == "" {
		o.URI = strings.TrimSpace(os.Getenv("MONGODB_URI"))
	}
	if o.Database == "" {
		o.Database = strings.TrimSpace(os.Getenv("MONGODB_DATABASE"))
		if o.Database == "" {
			o.Database = DefaultDatabase
		}
	}
	if o.MaxPoolSize == 0 {
		o.MaxPoolSize = 50
	}
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = 2 * time.Second
	}
}

// clientOptions builds driver options. Split out so tests can inspect them
// without a server.
func clientOptions(o Options) *options.ClientOptions {
	co := options.Client().
		ApplyURI(o.URI).
		SetMaxPoolSize(o.MaxPoolSize).
		SetConnectTimeout(o.ConnectTimeout)
	if o.AppName != "" {
		co.SetAppName(o.AppName)
	}
	return co
}

// Open connects, pings the primary and returns the client together with the
// configured database handle. The caller owns client.Disconnect.
func Open(ctx context.Context, o Options) (*mongo.Client, *mongo.Database, error) {
	o.applyDefaults()
	if o.URI == "" {
		return nil, nil, errors.New("MONGODB_URI is required")
	}

	client, err := mongo.Connect(clientOptions(o))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, o.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(o.Database), nil
}
