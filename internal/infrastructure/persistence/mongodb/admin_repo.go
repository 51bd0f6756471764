package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/eldoah/promo-hub/internal/domain/admin"
	"github.com/eldoah/promo-hub/internal/domain/shared"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserRepository implements admin.UserRepository on the users collection.
// E-mail uniqueness is enforced by the index created in EnsureIndexes.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(conn *Connection) *UserRepository {
	return &UserRepository{coll: conn.Database().Collection(UsersCollection)}
}

// Create inserts a user and assigns its ID.
func (r *UserRepository) Create(ctx context.Context, u *admin.User) error {
	id := primitive.NewObjectID()
	_, err := r.coll.InsertOne(ctx, newUserDoc(u, id))
	if mongo.IsDuplicateKeyError(err) {
		return shared.ErrUserAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("mongo: failed to insert user: %w", err)
	}
	u.ID = id.Hex()
	return nil
}

// FindByEmail returns a user by normalized e-mail.
func (r *UserRepository) FindByEmail(ctx context.Context, email shared.Email) (*admin.User, error) {
	return r.findOne(ctx, bson.M{"email": email.String()})
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*admin.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, shared.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// TouchLastLogin stamps the last successful login.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, ok := objectID(id)
	if !ok {
		return shared.ErrUserNotFound
	}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"lastLogin": at}})
	if err != nil {
		return fmt.Errorf("mongo: failed to update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return shared.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*admin.User, error) {
	var doc userDoc
	err := r.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, shared.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo: failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}
