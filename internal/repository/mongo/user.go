package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

const usersCollection = "users"

// UserRepository implements repository.UserRepository on a MongoDB
// collection. The whole aggregate is read and replaced as one document;
// SaveIfVersion puts the version stamp in the replace filter so a stale
// writer matches nothing instead of clobbering a newer document.
type UserRepository struct {
	collection *mongo.Collection
}

// NewUserRepository creates a MongoDB-backed user repository.
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{collection: db.Collection(usersCollection)}
}

// EnsureIndexes creates the unique email index. Safe to call on every start.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

// Create inserts a new user document.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Version = 1
	if u.Cart == nil {
		u.Cart = []domain.CartLine{}
	}
	if u.Wishlist == nil {
		u.Wishlist = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return apperrors.Storage("insert user", err)
	}
	return nil
}

// GetByID retrieves a user aggregate by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id}, id)
}

// GetByEmail retrieves a user aggregate by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email}, email)
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M, ref string) (*domain.User, error) {
	var u domain.User
	if err := r.collection.FindOne(ctx, filter).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.NotFound("user", ref)
		}
		return nil, apperrors.Storage("find user", err)
	}
	return &u, nil
}

// Update replaces the aggregate without a version check and bumps the
// version so concurrent SaveIfVersion writers still observe the change.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()
	u.Version++

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return apperrors.Storage("replace user", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// SaveIfVersion replaces the aggregate only if the stored document still
// carries expectedVersion. A zero match count means a concurrent writer
// advanced the version (or the user vanished); the caller distinguishes the
// two by re-reading.
func (r *UserRepository) SaveIfVersion(ctx context.Context, u *domain.User, expectedVersion int64) (bool, error) {
	u.UpdatedAt = time.Now().UTC()
	u.Version = expectedVersion + 1

	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": u.ID, "version": expectedVersion}, u)
	if err != nil {
		u.Version = expectedVersion
		return false, apperrors.Storage("replace user", err)
	}
	if res.MatchedCount == 0 {
		u.Version = expectedVersion
		return false, nil
	}
	return true, nil
}
