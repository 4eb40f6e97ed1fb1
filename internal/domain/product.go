package domain

import (
	"math"
	"time"
)

// Product is a catalog item. Price is stored in cents to keep arithmetic
// exact; DiscountPercent applies at read time via EffectivePrice.
type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	Description     string    `json:"description"`
	CategoryID      *string   `json:"category_id,omitempty"`
	Price           int64     `json:"price"`
	DiscountPercent int       `json:"discount_percent"`
	Stock           int       `json:"stock"`
	Unit            string    `json:"unit"`
	Images          []string  `json:"images"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// EffectivePrice is the price in cents after discount, rounded half away
// from zero to the nearest cent.
func (p *Product) EffectivePrice() int64 {
	if p.DiscountPercent <= 0 {
		return p.Price
	}
	discounted := float64(p.Price) * float64(100-p.DiscountPercent) / 100
	return int64(math.Round(discounted))
}

// InStock reports whether at least qty units are available.
func (p *Product) InStock(qty int) bool {
	return p.Stock >= qty
}
