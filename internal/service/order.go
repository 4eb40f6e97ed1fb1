package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/event"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

// CheckoutInput holds the parameters for placing an order from the cart.
type CheckoutInput struct {
	FullName    string `json:"fullName" validate:"required,min=2,max=100"`
	AddressLine string `json:"addressLine" validate:"required,max=300"`
	City        string `json:"city" validate:"required,max=100"`
	PostalCode  string `json:"postalCode" validate:"required,max=20"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
}

// OrderService turns a cart into an order: prices are frozen at checkout,
// stock is decremented transactionally in the catalog store, and the cart
// is cleared afterwards. Payment is simulated; orders go straight to paid.
type OrderService struct {
	orders   repository.OrderRepository
	cart     *CartService
	products ProductLookup
	producer *event.Producer
	logger   *slog.Logger
}

// NewOrderService creates an order service.
func NewOrderService(orders repository.OrderRepository, cart *CartService, products ProductLookup, producer *event.Producer, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders:   orders,
		cart:     cart,
		products: products,
		producer: producer,
		logger:   logger,
	}
}

// Checkout places an order for the user's entire cart. An empty cart (or
// one whose products have all vanished from the catalog) cannot be
// checked out.
func (s *OrderService) Checkout(ctx context.Context, userID string, input CheckoutInput) (*domain.Order, error) {
	summary, err := s.cart.Summary(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(summary.Items) == 0 {
		return nil, apperrors.InvalidInput("cart is empty")
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:     uuid.New().String(),
		UserID: userID,
		Status: domain.OrderStatusPending,
		ShippingAddress: domain.Address{
			FullName:    input.FullName,
			AddressLine: input.AddressLine,
			City:        input.City,
			PostalCode:  input.PostalCode,
			Phone:       input.Phone,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, line := range summary.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			UnitPrice:   line.Price,
			Quantity:    line.Quantity,
		})
		order.TotalAmount += line.LineTotal
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	// Simulated payment: the order is paid the moment it is placed.
	if err := s.orders.UpdateStatus(ctx, order.ID, domain.OrderStatusPaid); err != nil {
		s.logger.ErrorContext(ctx, "failed to mark order paid",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	} else {
		order.Status = domain.OrderStatusPaid
	}

	if _, err := s.cart.Clear(ctx, userID); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart after checkout",
			slog.String("user_id", userID),
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.producer.PublishOrderCreated(ctx, event.OrderCreatedData{
		OrderID:     order.ID,
		UserID:      userID,
		TotalAmount: order.TotalAmount,
		ItemCount:   len(order.Items),
	})

	s.logger.InfoContext(ctx, "order placed",
		slog.String("order_id", order.ID),
		slog.String("user_id", userID),
		slog.Int64("total_amount", order.TotalAmount),
	)

	return order, nil
}

// GetOrder retrieves one order, restricted to its owner.
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, apperrors.NotFound("order", orderID)
	}
	return order, nil
}

// ListOrders returns a page of the user's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, userID string, page pagination.Params) ([]*domain.Order, pagination.Meta, error) {
	orders, total, err := s.orders.ListByUserID(ctx, userID, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return orders, pagination.NewMeta(page, total), nil
}

// UpdateStatus moves an order along its lifecycle, enforcing the allowed
// transitions. Admin-only at the API layer.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID, status string) (*domain.Order, error) {
	if !domain.IsValidOrderStatus(status) {
		return nil, apperrors.InvalidInput("invalid order status: " + status)
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.CanTransitionTo(status) {
		return nil, apperrors.Conflict("cannot transition order from " + order.Status + " to " + status)
	}

	from := order.Status
	if err := s.orders.UpdateStatus(ctx, orderID, status); err != nil {
		return nil, err
	}
	order.Status = status

	s.producer.PublishOrderStatusChanged(ctx, event.OrderStatusChangedData{
		OrderID: orderID,
		UserID:  order.UserID,
		From:    from,
		To:      status,
	})

	s.logger.InfoContext(ctx, "order status changed",
		slog.String("order_id", orderID),
		slog.String("from", from),
		slog.String("to", status),
	)

	return order, nil
}
