// Package mongodb implements persistence on MongoDB. Collection and field
// names follow the existing Mongoose-managed database, so the service can
// run against it directly.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	BonusesCollection      = "bonuses"
	LeaderboardsCollection = "leaderboards"
	StatsCollection        = "eldoahstats"
	UsersCollection        = "users"
)

// Connection wraps a connected client and the selected database.
type Connection struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials uri, pings the primary and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Connection, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: failed to ping: %w", err)
	}

	conn := &Connection{client: client, db: client.Database(database)}
	if err := conn.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return conn, nil
}

// EnsureIndexes creates the indexes the repositories rely on. It is idempotent.
func (c *Connection) EnsureIndexes(ctx context.Context) error {
	display := bson.D{{Key: "order", Value: 1}, {Key: "createdAt", Value: -1}}

	indexes := map[string][]mongo.IndexModel{
		BonusesCollection: {
			{Keys: display},
		},
		LeaderboardsCollection: {
			{Keys: display},
			{Keys: bson.D{{Key: "active", Value: 1}, {Key: "endDate", Value: 1}}},
		},
		UsersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for coll, models := range indexes {
		if _, err := c.db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("mongo: failed to create indexes on %s: %w", coll, err)
		}
	}
	return nil
}

// Database returns the selected database.
func (c *Connection) Database() *mongo.Database {
	return c.db
}

// Name identifies the dependency in readiness reports.
func (c *Connection) Name() string { return "mongo" }

// Ping checks that the primary is reachable.
func (c *Connection) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (c *Connection) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
