package domain

import "time"

// Order status constants.
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCanceled  = "canceled"
)

// Order is a placed customer order. Item prices are captured at checkout
// time so later catalog changes do not affect past orders.
type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"user_id"`
	Status          string      `json:"status"`
	Items           []OrderItem `json:"items"`
	TotalAmount     int64       `json:"total_amount"`
	ShippingAddress Address     `json:"shipping_address"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// OrderItem is one purchased line with the unit price frozen at checkout.
type OrderItem struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	UnitPrice   int64  `json:"unit_price"`
	Quantity    int    `json:"quantity"`
}

// Address is a delivery address.
type Address struct {
	FullName    string `json:"full_name"`
	AddressLine string `json:"address_line"`
	City        string `json:"city"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone,omitempty"`
}

// ValidOrderStatuses returns all valid order statuses.
func ValidOrderStatuses() []string {
	return []string{
		OrderStatusPending,
		OrderStatusPaid,
		OrderStatusShipped,
		OrderStatusDelivered,
		OrderStatusCanceled,
	}
}

// IsValidOrderStatus checks if a status string is valid.
func IsValidOrderStatus(status string) bool {
	for _, s := range ValidOrderStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

// AllowedOrderTransitions defines which status transitions are valid.
func AllowedOrderTransitions() map[string][]string {
	return map[string][]string{
		OrderStatusPending:   {OrderStatusPaid, OrderStatusCanceled},
		OrderStatusPaid:      {OrderStatusShipped, OrderStatusCanceled},
		OrderStatusShipped:   {OrderStatusDelivered},
		OrderStatusDelivered: {},
		OrderStatusCanceled:  {},
	}
}

// CanTransitionTo checks if the order can move to the target status.
func (o *Order) CanTransitionTo(target string) bool {
	allowed, ok := AllowedOrderTransitions()[o.Status]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}
