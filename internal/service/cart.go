package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
)

// Cart operation upper-bound limits to prevent abuse.
const (
	// MaxQuantityPerLine is the maximum quantity allowed on a single cart line.
	MaxQuantityPerLine = 100
	// MaxLinesPerCart is the maximum number of distinct products in a cart.
	MaxLinesPerCart = 50
)

// saveAttempts bounds the read-modify-write retry loop on version conflict.
const saveAttempts = 3

// UserStore is the slice of the user repository the cart and wishlist
// services need: load the aggregate, save it under a version check.
type UserStore interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	SaveIfVersion(ctx context.Context, user *domain.User, expectedVersion int64) (bool, error)
}

// ProductLookup resolves product references against the catalog.
type ProductLookup interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Product, error)
}

// CartSummaryLine is one denormalized cart line for display.
type CartSummaryLine struct {
	ProductID string   `json:"productId"`
	Name      string   `json:"name"`
	Price     int64    `json:"price"`
	Quantity  int      `json:"quantity"`
	Stock     int      `json:"stock"`
	Images    []string `json:"images"`
	LineTotal int64    `json:"lineTotal"`
}

// CartSummary is the read-path view of a cart: stored lines joined with
// live catalog data. Lines whose product no longer resolves are omitted
// from the view but left in storage.
type CartSummary struct {
	Items     []CartSummaryLine `json:"items"`
	Total     int64             `json:"total"`
	ItemCount int               `json:"itemCount"`
}

// CartService owns the cart invariants: at most one line per product,
// quantity always >= 1, and no successful operation admits a quantity above
// the product's stock as observed at operation time. All writes go through
// a version-checked save with a bounded retry loop, so two interleaved
// read-modify-write cycles can never lose an update.
type CartService struct {
	users    UserStore
	products ProductLookup
	producer *event.Producer
	logger   *slog.Logger
}

// NewCartService creates a cart service.
func NewCartService(users UserStore, products ProductLookup, producer *event.Producer, logger *slog.Logger) *CartService {
	return &CartService{
		users:    users,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// mutateAggregate runs the read-modify-write cycle under optimistic
// concurrency: load the aggregate, apply fn, save if the version is
// unchanged. A conflicting writer causes a fresh read and another attempt;
// after saveAttempts conflicts the operation surfaces a storage error.
// fn must be pure with respect to everything except the passed aggregate,
// since it may run several times.
func (s *CartService) mutateAggregate(ctx context.Context, userID string, fn func(*domain.User) error) (*domain.User, error) {
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
		fmt.Errorf("version conflict persisted after %d attempts", saveAttempts))
}

// AddItem adds quantity units of a product to the cart. Adding a product
// already in the cart accumulates; the accumulated quantity is checked
// against stock as a whole, so the increment is all-or-nothing.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.User, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity < 1 {
		return nil, apperrors.InvalidInput("quantity must be at least 1")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", productID)
	}
	if product.Stock < quantity {
		return nil, apperrors.InsufficientStock(productID, product.Stock)
	}

	user, err := s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		if line := u.FindCartLine(productID); line != nil {
			newQty := line.Quantity + quantity
			if newQty > product.Stock {
				return apperrors.InsufficientStock(productID, product.Stock)
			}
			if newQty > MaxQuantityPerLine {
				return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", MaxQuantityPerLine))
			}
			line.Quantity = newQty
			return nil
		}

		if len(u.Cart) >= MaxLinesPerCart {
			return apperrors.InvalidInput(fmt.Sprintf("cart must not contain more than %d products", MaxLinesPerCart))
		}
		u.Cart = append(u.Cart, domain.CartLine{ProductID: productID, Quantity: quantity})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.producer.PublishCartUpdated(ctx, event.CartUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Action:    "added",
	})

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return user, nil
}

// UpdateItem sets a cart line's quantity to exactly the given value.
// Quantities below 1 remove the line.
func (s *CartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.User, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}
	if quantity > MaxQuantityPerLine {
		return nil, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerLine))
	}

	if quantity < 1 {
		return s.RemoveItem(ctx, userID, productID)
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", productID)
		}
		return nil, err
	}
	if !product.IsActive {
		return nil, apperrors.NotFound("product", productID)
	}
	if quantity > product.Stock {
		return nil, apperrors.InsufficientStock(productID, product.Stock)
	}

	user, err := s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		line := u.FindCartLine(productID)
		if line == nil {
			return apperrors.NotFoundMsg("product not in cart")
		}
		line.Quantity = quantity
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.producer.PublishCartUpdated(ctx, event.CartUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Quantity:  quantity,
		Action:    "updated",
	})

	s.logger.InfoContext(ctx, "cart item quantity updated",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	return user, nil
}

// RemoveItem deletes a cart line. Removing an absent product fails with
// NotFound and mutates nothing.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*domain.User, error) {
	if productID == "" {
		return nil, apperrors.InvalidInput("product id is required")
	}

	user, err := s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		if !u.RemoveCartLine(productID) {
			return apperrors.NotFoundMsg("product not in cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.producer.PublishCartUpdated(ctx, event.CartUpdatedData{
		UserID:    userID,
		ProductID: productID,
		Action:    "removed",
	})

	s.logger.InfoContext(ctx, "item removed from cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
	)

	return user, nil
}

// Clear empties the cart. Clearing an already-empty cart succeeds.
func (s *CartService) Clear(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.mutateAggregate(ctx, userID, func(u *domain.User) error {
		u.Cart = []domain.CartLine{}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.producer.PublishCartCleared(ctx, event.CartClearedData{UserID: userID})

	s.logger.InfoContext(ctx, "cart cleared", slog.String("user_id", userID))

	return user, nil
}

// Summary joins the stored cart with live catalog data. Lines whose
// product no longer resolves are dropped from the view; total and
// itemCount cover only the resolvable lines.
func (s *CartService) Summary(ctx context.Context, userID string) (*CartSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{Items: []CartSummaryLine{}}
	if len(user.Cart) == 0 {
		return summary, nil
	}

	ids := make([]string, 0, len(user.Cart))
	for _, line := range user.Cart {
		ids = append(ids, line.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, line := range user.Cart {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		lineTotal := product.EffectivePrice() * int64(line.Quantity)
		summary.Items = append(summary.Items, CartSummaryLine{
			ProductID: product.ID,
			Name:      product.Name,
			Price:     product.EffectivePrice(),
			Quantity:  line.Quantity,
			Stock:     product.Stock,
			Images:    product.Images,
			LineTotal: lineTotal,
		})
		summary.Total += lineTotal
		summary.ItemCount += line.Quantity
	}

	return summary, nil
}
