package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/eldoah/promo-hub/internal/domain/leaderboard"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LeaderboardRepository implements leaderboard.Repository on the leaderboards collection.
type LeaderboardRepository struct {
	coll *mongo.Collection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{coll: conn.Database().Collection(LeaderboardsCollection)}
}

// Create inserts a leaderboard and assigns its ID.
func (r *LeaderboardRepository) Create(ctx context.Context, lb *leaderboard.Leaderboard) error {
	id := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, newLeaderboardDoc(lb, id)); err != nil {
		return fmt.Errorf("mongo: failed to insert leaderboard: %w", err)
	}
	lb.ID = id.Hex()
	return nil
}

// Update replaces the stored document.
func (r *LeaderboardRepository) Update(ctx context.Context, lb *leaderboard.Leaderboard) error {
	id, ok := objectID(lb.ID)
	if !ok {
		return shared.ErrLeaderboardNotFound
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, newLeaderboardDoc(lb, id))
	if err != nil {
		return fmt.Errorf("mongo: failed to update leaderboard: %w", err)
	}
	if res.MatchedCount == 0 {
		return shared.ErrLeaderboardNotFound
	}
	return nil
}

// Delete removes a leaderboard by ID.
func (r *LeaderboardRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return shared.ErrLeaderboardNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: failed to delete leaderboard: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrLeaderboardNotFound
	}
	return nil
}

// FindByID returns a leaderboard by ID.
func (r *LeaderboardRepository) FindByID(ctx context.Context, id string) (*leaderboard.Leaderboard, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, shared.ErrLeaderboardNotFound
	}
	var doc leaderboardDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrLeaderboardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to get leaderboard: %w", err)
	}
	return doc.toDomain()
}

// List returns leaderboards matching filter in display order.
func (r *LeaderboardRepository) List(ctx context.Context, filter leaderboard.Filter) ([]*leaderboard.Leaderboard, error) {
	q := bson.M{}
	if filter.ActiveOnly {
		q["active"] = true
	}
	if !filter.EndingNotBefore.IsZero() {
		q["endDate"] = bson.M{"$gte": filter.EndingNotBefore}
	}

	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(displaySort))
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to list leaderboards: %w", err)
	}
	var docs []leaderboardDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: failed to decode leaderboards: %w", err)
	}

	out := make([]*leaderboard.Leaderboard, 0, len(docs))
	for _, d := range docs {
		lb, err := d.toDomain()
		if err != nil {
			return nil, fmt.Errorf("mongo: leaderboard %s: %w", d.ID.Hex(), err)
		}
		out = append(out, lb)
	}
	return out, nil
}

// NextOrder returns max(order)+1 or 0 for an empty collection.
func (r *LeaderboardRepository) NextOrder(ctx context.Context) (int, error) {
	return nextOrder(ctx, r.coll)
}
