package repositories

import (
	"keranjang/internal/models"
)

// CartRepository defines the interface for cart data access. Absence is
// reported as a nil result, not an error.
type CartRepository interface {
	// FindOpenByUser returns the user's single OPEN cart with its items
	// eagerly loaded, or nil if the user has none.
	FindOpenByUser(userID string) (*models.Cart, error)
	// Create inserts a new cart. It does not check for an existing open
	// cart; callers go through the service's find-or-create path.
	Create(cart *models.Cart) error
	// UpsertItem inserts or updates the (cart, product) row in a single
	// statement. A count of zero deletes the row instead.
	UpsertItem(cartID, productID string, count int) error
	// Clear deletes the user's cart row, whatever its status. The cart's
	// item rows are left in place so existing orders can still resolve
	// them. No-op if the user has no cart.
	Clear(userID string) error
	// MarkOrdered flips the cart to ORDERED. No-op if the id is unknown.
	MarkOrdered(cartID string) error
	// ItemsByCartIDs bulk-loads item rows across many carts, used to
	// hydrate order listings.
	ItemsByCartIDs(cartIDs []string) ([]models.CartItem, error)
}
