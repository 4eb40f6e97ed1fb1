package repository

import (
	"context"
	"time"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

// UserRepository persists the user aggregate, including the embedded cart
// and wishlist.
type UserRepository interface {
	// Create inserts a new user. Fails with AlreadyExists on duplicate email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update replaces the whole aggregate unconditionally. Intended for
	// profile fields; cart and wishlist writes go through SaveIfVersion.
	Update(ctx context.Context, user *domain.User) error

	// SaveIfVersion replaces the aggregate only when the stored version
	// still equals expectedVersion. Returns false (and no error) when
	// another writer got there first; the caller re-reads and retries.
	// On success the aggregate's version has been advanced.
	SaveIfVersion(ctx context.Context, user *domain.User, expectedVersion int64) (bool, error)
}

// ProductRepository is the catalog read/write store.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)

	// GetByIDs returns the products that exist among ids; missing ids are
	// simply absent from the result, never an error.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)

	List(ctx context.Context, filter ProductFilter, page pagination.Params) ([]*domain.Product, int64, error)
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id string) error
}

// ProductFilter narrows catalog listings.
type ProductFilter struct {
	CategoryID string
	Search     string
	SortBy     string // "price_asc", "price_desc", "name", "newest"
}

// CategoryRepository manages catalog categories.
type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	GetByID(ctx context.Context, id string) (*domain.Category, error)
	List(ctx context.Context) ([]*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	Delete(ctx context.Context, id string) error
}

// OrderRepository persists orders. Create also decrements product stock in
// the same transaction.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUserID(ctx context.Context, userID string, page pagination.Params) ([]*domain.Order, int64, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// SessionRepository stores refresh-token sessions keyed by token hash.
type SessionRepository interface {
	// Save stores a session for the hashed refresh token with a TTL.
	Save(ctx context.Context, tokenHash, userID string, ttl time.Duration) error

	// UserID resolves a token hash to the owning user. Fails with
	// Unauthorized when the session is missing or expired.
	UserID(ctx context.Context, tokenHash string) (string, error)

	// Delete removes one session (logout).
	Delete(ctx context.Context, tokenHash string) error
}
