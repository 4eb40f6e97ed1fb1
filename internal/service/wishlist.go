package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

// WishlistEntry is one denormalized wishlist product for display.
type WishlistEntry struct {
	ProductID       string   `json:"productId"`
	Name            string   `json:"name"`
	Slug            string   `json:"slug"`
	Price           int64    `json:"price"`
	DiscountPercent int      `json:"discountPercent"`
	Stock           int      `json:"stock"`
	Images          []string `json:"images"`
}

// WishlistService owns the wishlist invariant: a duplicate-free set of
// product references per user, independent of stock or price. Writes share
// the cart service's version-checked save discipline since both mutate the
// same aggregate.
type WishlistService struct {
	users    UserStore
	products ProductLookup
	producer *event.Producer
	logger   *slog.Logger
}

// NewWishlistService creates a wishlist service.
func NewWishlistService(users UserStore, products ProductLookup, producer *event.Producer, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		users:    users,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

func (s *WishlistService) mutateAggregate(ctx context.Context, userID string, fn func(*domain.User) error) (*domain.User, error) {
	for attempt := 0; attempt < saveAttempts; attempt++ {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if err := fn(user); err != nil {
			return nil, err
		}

		ok, err := s.users.SaveIfVersion(ctx, user, user.Version)
		if err != nil {
			return nil, err
		}
		if ok {
			return user, nil
		}

		s.logger.DebugContext(ctx, "aggregate version conflict, retrying",
			slog.String("user_id", userID),
			slog.Int("attempt", attempt+1),
		)
	}

	return nil, apperrors.Storage("save user aggregate",
		errors.New("version conflict persisted"))
}

// AddItem saves a product to the wishlist. A duplicate add is rejected
// with AlreadyExists rather than silently merged.
func (s *WishlistService) AddItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.NotFound("product", productID)
		}
		return err
	}
	// Delisted products are unresolvable for shoppers, same as deleted ones.
	if !product.IsActive {
		return apperrors.NotFound("product", productID)
	}

	_, err = s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		if u.InWishlist(productID) {
			return apperrors.AlreadyExists("wishlist item", "product", productID)
		}
		u.Wishlist = append(u.Wishlist, productID)
		return nil
	})
	if err != nil {
		return err
	}

	s.producer.PublishWishlistUpdated(ctx, event.WishlistUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Action:    "added",
	})

	s.logger.InfoContext(ctx, "item added to wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return nil
}

// RemoveItem deletes a product from the wishlist; absent products fail
// with NotFound.
func (s *WishlistService) RemoveItem(ctx context.Context, userID, productID string) error {
	if productID == "" {
		return apperrors.InvalidInput("product id is required")
	}

	_, err := s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		if !u.RemoveFromWishlist(productID) {
			return apperrors.NotFoundMsg("product not in wishlist")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.producer.PublishWishlistUpdated(ctx, event.WishlistUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Action:    "removed",
	})

	s.logger.InfoContext(ctx, "item removed from wishlist",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return nil
}

// Contains reports whether the product is in the user's wishlist.
func (s *WishlistService) Contains(ctx context.Context, userID, productID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.InWishlist(productID), nil
}

// List returns denormalized product entries in insertion order, dropping
// references that no longer resolve, matching the cart summary policy.
func (s *WishlistService) List(ctx context.Context, userID string) ([]WishlistEntry, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := []WishlistEntry{}
	if len(user.Wishlist) == 0 {
		return entries, nil
	}

	products, err := s.products.GetByIDs(ctx, user.Wishlist)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, id := range user.Wishlist {
		product, ok := byID[id]
		if !ok {
			continue
		}
		entries = append(entries, WishlistEntry{
			ProductID:       product.ID,
			Name:            product.Name,
			Slug:            product.Slug,
			Price:           product.EffectivePrice(),
			DiscountPercent: product.DiscountPercent,
			Stock:           product.Stock,
			Images:          product.Images,
		})
	}

	return entries, nil
}
