package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/eldoah/promo-hub/internal/domain/bonus"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BonusRepository implements bonus.Repository on the bonuses collection.
type BonusRepository struct {
	coll *mongo.Collection
}

// NewBonusRepository creates a new BonusRepository.
func NewBonusRepository(conn *Connection) *BonusRepository {
	return &BonusRepository{coll: conn.Database().Collection(BonusesCollection)}
}

// Create inserts a bonus and assigns its ID.
func (r *BonusRepository) Create(ctx context.Context, b *bonus.Bonus) error {
	id := primitive.NewObjectID()
	if _, err := r.coll.InsertOne(ctx, newBonusDoc(b, id)); err != nil {
		return fmt.Errorf("mongo: failed to insert bonus: %w", err)
	}
	b.ID = id.Hex()
	return nil
}

// Update replaces the stored document.
func (r *BonusRepository) Update(ctx context.Context, b *bonus.Bonus) error {
	id, ok := objectID(b.ID)
	if !ok {
		return shared.ErrBonusNotFound
	}
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, newBonusDoc(b, id))
	if err != nil {
		return fmt.Errorf("mongo: failed to update bonus: %w", err)
	}
	if res.MatchedCount == 0 {
		return shared.ErrBonusNotFound
	}
	return nil
}

// Delete removes a bonus by ID.
func (r *BonusRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return shared.ErrBonusNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("mongo: failed to delete bonus: %w", err)
	}
	if res.DeletedCount == 0 {
		return shared.ErrBonusNotFound
	}
	return nil
}

// FindByID returns a bonus by ID.
func (r *BonusRepository) FindByID(ctx context.Context, id string) (*bonus.Bonus, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, shared.ErrBonusNotFound
	}
	var doc bonusDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrBonusNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to get bonus: %w", err)
	}
	return doc.toDomain(), nil
}

// List returns bonuses in display order. A nil active means all of them.
func (r *BonusRepository) List(ctx context.Context, active *bool) ([]*bonus.Bonus, error) {
	filter := bson.M{}
	if active != nil {
		filter["active"] = *active
	}

	cur, err := r.coll.Find(ctx, filter, options.Find().SetSort(displaySort))
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to list bonuses: %w", err)
	}
	var docs []bonusDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: failed to decode bonuses: %w", err)
	}

	out := make([]*bonus.Bonus, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// NextOrder returns max(order)+1 or 0 for an empty collection.
func (r *BonusRepository) NextOrder(ctx context.Context) (int, error) {
	return nextOrder(ctx, r.coll)
}

func nextOrder(ctx context.Context, coll *mongo.Collection) (int, error) {
	var doc struct {
		Order int `bson:"order"`
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "order", Value: -1}}).SetProjection(bson.M{"order": 1})
	err := coll.FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("mongo: failed to compute order: %w", err)
	}
	return doc.Order + 1, nil
}
