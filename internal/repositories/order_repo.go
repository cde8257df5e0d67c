package repositories

import (
	"errors"

	"keranjang/internal/models"
)

// ErrCartNotOpen is returned by Checkout when the cart is missing or already
// ORDERED, so a cart can never produce more than one order.
var ErrCartNotOpen = errors.New("cart is not open")

// OrderRepository defines the interface for order data access. Lookups are
// scoped to the owning user at the query predicate: an order belonging to a
// different user is simply not found.
type OrderRepository interface {
	// Checkout atomically inserts the order and transitions its cart from
	// OPEN to ORDERED. Returns ErrCartNotOpen and writes nothing when the
	// cart is not currently OPEN.
	Checkout(order *models.Order) error
	// GetByID returns the order, or nil if it does not exist or belongs to
	// another user.
	GetByID(id, userID string) (*models.Order, error)
	// GetByUser returns all orders owned by the user.
	GetByUser(userID string) ([]models.Order, error)
	// DeleteByID deletes only when both id and owner match; otherwise it
	// is a no-op with no signal either way.
	DeleteByID(id, userID string) error
}
