package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/counter"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CounterStore implements counter.Store on the single eldoahstats document.
// The first document by _id is the counter, the way findOne() picked it.
type CounterStore struct {
	coll *mongo.Collection
}

// NewCounterStore creates a new CounterStore.
func NewCounterStore(conn *Connection) *CounterStore {
	return &CounterStore{coll: conn.Database().Collection(StatsCollection)}
}

var firstByID = bson.D{{Key: "_id", Value: 1}}

// Find returns the counter document.
func (s *CounterStore) Find(ctx context.Context) (*counter.Counter, error) {
	var doc statsDoc
	err := s.coll.FindOne(ctx, bson.M{}, options.FindOne().SetSort(firstByID)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrCounterNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to get counter: %w", err)
	}
	return &counter.Counter{TotalJoined: doc.TotalJoined, LastUpdated: doc.LastUpdated}, nil
}

// FindOrCreate returns the counter, inserting it with seed when missing.
func (s *CounterStore) FindOrCreate(ctx context.Context, seed int64, now time.Time) (*counter.Counter, error) {
	update := bson.M{"$setOnInsert": bson.M{"totalJoined": seed, "lastUpdated": now}}
	return s.upsert(ctx, update)
}

// Add atomically increments by delta, or creates the document at initial.
// A pipeline update is used because $inc and $setOnInsert cannot share a field.
func (s *CounterStore) Add(ctx context.Context, delta, initial int64, now time.Time) (*counter.Counter, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "totalJoined", Value: bson.D{{Key: "$add", Value: bson.A{
				bson.D{{Key: "$ifNull", Value: bson.A{"$totalJoined", initial - delta}}},
				delta,
			}}}},
			{Key: "lastUpdated", Value: now},
		}}},
	}
	return s.upsert(ctx, update)
}

func (s *CounterStore) upsert(ctx context.Context, update any) (*counter.Counter, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetSort(firstByID).
		SetReturnDocument(options.After)

	var doc statsDoc
	if err := s.coll.FindOneAndUpdate(ctx, bson.M{}, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("mongo: failed to update counter: %w", err)
	}
	return &counter.Counter{TotalJoined: doc.TotalJoined, LastUpdated: doc.LastUpdated}, nil
}
