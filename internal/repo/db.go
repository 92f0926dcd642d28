// Package repo implements the data persistence layer for domain entities,
// backed by MongoDB. This file contains client bootstrapping for the
// official Go driver.
package repo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/tbourn/go-todo-backend/internal/config"
)

// ErrNotFound is returned when a single-document lookup matches nothing.
// It replaces mongo.ErrNoDocuments so that the service layer does not
// depend on driver sentinels.
var ErrNotFound = errors.New("document not found")

// mongoConnect is a test seam for the driver's Connect.
var mongoConnect = mongo.Connect

// OpenMongo connects to MongoDB and verifies the connection with a ping.
//
// The returned client is long-lived and safe for concurrent use; open it once
// at process start and share it. When traced is true the otelmongo command
// monitor is attached so every store round trip produces a span.
func OpenMongo(ctx context.Context, cfg config.MongoConfig, traced bool) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout)
	if traced {
		opts.SetMonitor(otelmongo.NewMonitor())
	}

	client, err := mongoConnect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
