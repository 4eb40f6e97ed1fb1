package domain

import (
	"time"
)

// CartLine is one product entry in a user's cart. Quantity is always >= 1;
// a line whose quantity would drop below 1 is removed instead.
type CartLine struct {
	ProductID string `bson:"product_id" json:"productId"`
	Quantity  int    `bson:"quantity" json:"quantity"`
}

// User is the account aggregate. The cart and wishlist live embedded in the
// user document and are only ever written as part of the whole aggregate;
// Version is the optimistic-concurrency stamp checked on every save.
type User struct {
	ID           string     `bson:"_id" json:"id"`
	Email        string     `bson:"email" json:"email"`
	PasswordHash string     `bson:"password_hash" json:"-"`
	Name         string     `bson:"name" json:"name"`
	Role         string     `bson:"role" json:"role"`
	IsActive     bool       `bson:"is_active" json:"is_active"`
	Cart         []CartLine `bson:"cart" json:"cart"`
	Wishlist     []string   `bson:"wishlist" json:"wishlist"`
	Version      int64      `bson:"version" json:"-"`
	CreatedAt    time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at" json:"updated_at"`
}

// FindCartLine returns a pointer to the cart line for productID, or nil when
// the product is not in the cart. The pointer aliases the slice element so
// callers can mutate the line in place.
func (u *User) FindCartLine(productID string) *CartLine {
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			return &u.Cart[i]
		}
	}
	return nil
}

// RemoveCartLine deletes the line for productID, preserving the order of the
// remaining lines. Returns false when no such line exists.
func (u *User) RemoveCartLine(productID string) bool {
	for i := range u.Cart {
		if u.Cart[i].ProductID == productID {
			u.Cart = append(u.Cart[:i], u.Cart[i+1:]...)
			return true
		}
	}
	return false
}

// CartItemCount is the sum of quantities across all cart lines.
func (u *User) CartItemCount() int {
	n := 0
	for _, line := range u.Cart {
		n += line.Quantity
	}
	return n
}

// InWishlist reports whether productID is saved in the wishlist.
func (u *User) InWishlist(productID string) bool {
	for _, id := range u.Wishlist {
		if id == productID {
			return true
		}
	}
	return false
}

// RemoveFromWishlist deletes productID from the wishlist, preserving
// insertion order of the rest. Returns false when absent.
func (u *User) RemoveFromWishlist(productID string) bool {
	for i, id := range u.Wishlist {
		if id == productID {
			u.Wishlist = append(u.Wishlist[:i], u.Wishlist[i+1:]...)
			return true
		}
	}
	return false
}

// TokenPair holds an access and refresh token pair issued at login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
