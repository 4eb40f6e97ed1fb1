package event

import (
	"context"
	"log/slog"

	pkgkafka "github.com/Shazneenislam/dhakaagro-sub000/pkg/kafka"
)

// Kafka topics for storefront domain events.
const (
	TopicUserRegistered     = "storefront.user.registered"
	TopicCartUpdated        = "storefront.cart.updated"
	TopicCartCleared        = "storefront.cart.cleared"
	TopicWishlistUpdated    = "storefront.wishlist.updated"
	TopicOrderCreated       = "storefront.order.created"
	TopicOrderStatusChanged = "storefront.order.status_changed"
)

// Aggregate type constants.
const (
	AggregateTypeUser  = "user"
	AggregateTypeOrder = "order"
)

// Source identifier for events originating from this service.
const Source = "storefront"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// CartUpdatedData is the payload for cart.updated; Action distinguishes
// add, update, and remove.
type CartUpdatedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Action    string `json:"action"`
}

// CartClearedData is the payload for cart.cleared.
type CartClearedData struct {
	UserID string `json:"user_id"`
}

// WishlistUpdatedData is the payload for wishlist.updated.
type WishlistUpdatedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"` // "added" or "removed"
}

// OrderCreatedData is the payload for order.created.
type OrderCreatedData struct {
	OrderID     string `json:"order_id"`
	UserID      string `json:"user_id"`
	TotalAmount int64  `json:"total_amount"`
	ItemCount   int    `json:"item_count"`
}

// OrderStatusChangedData is the payload for order.status_changed.
type OrderStatusChangedData struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	From    string `json:"from"`
	To      string `json:"to"`
}

// publisher abstracts the Kafka producer so services can run without a
// broker in tests.
type publisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events. Publishing is best effort
// from the request path's perspective: callers log failures but never fail
// the request over them.
type Producer struct {
	kafka  publisher
	logger *slog.Logger
}

// NewProducer creates an event producer.
func NewProducer(kafka publisher, logger *slog.Logger) *Producer {
	return &Producer{kafka: kafka, logger: logger}
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(topic, aggregateID, aggregateType, Source, data)
	if err != nil {
		return err
	}
	return p.kafka.Publish(ctx, topic, event)
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, data UserRegisteredData) {
	if err := p.publish(ctx, TopicUserRegistered, data.ID, AggregateTypeUser, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", data.ID),
			slog.String("error", err.Error()),
		)
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) {
	if err := p.publish(ctx, TopicCartUpdated, data.UserID, AggregateTypeUser, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish cart.updated event",
			slog.String("user_id", data.UserID),
			slog.String("product_id", data.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, data CartClearedData) {
	if err := p.publish(ctx, TopicCartCleared, data.UserID, AggregateTypeUser, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish cart.cleared event",
			slog.String("user_id", data.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) {
	if err := p.publish(ctx, TopicWishlistUpdated, data.UserID, AggregateTypeUser, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish wishlist.updated event",
			slog.String("user_id", data.UserID),
			slog.String("product_id", data.ProductID),
			slog.String("error", err.Error()),
		)
	}
}

// PublishOrderCreated publishes an order.created event.
func (p *Producer) PublishOrderCreated(ctx context.Context, data OrderCreatedData) {
	if err := p.publish(ctx, TopicOrderCreated, data.OrderID, AggregateTypeOrder, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish order.created event",
			slog.String("order_id", data.OrderID),
			slog.String("error", err.Error()),
		)
	}
}

// PublishOrderStatusChanged publishes an order.status_changed event.
func (p *Producer) PublishOrderStatusChanged(ctx context.Context, data OrderStatusChangedData) {
	if err := p.publish(ctx, TopicOrderStatusChanged, data.OrderID, AggregateTypeOrder, data); err != nil {
		p.logger.WarnContext(ctx, "failed to publish order.status_changed event",
			slog.String("order_id", data.OrderID),
			slog.String("error", err.Error()),
		)
	}
}
