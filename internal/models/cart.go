package models

import "time"

// CartStatus is the lifecycle state of a cart. A cart starts OPEN and is
// flipped to ORDERED exactly once at checkout; ORDERED is terminal.
type CartStatus string

const (
	CartStatusOpen    CartStatus = "OPEN"
	CartStatusOrdered CartStatus = "ORDERED"
)

// Cart represents a user's shopping cart. At most one OPEN cart exists per
// user at any time; callers go through the find-or-create path to keep it
// that way.
type Cart struct {
	ID        string     `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID    string     `json:"user_id" gorm:"index;type:varchar(36)" validate:"required"`
	Status    CartStatus `json:"status" gorm:"type:varchar(16)"`
	CreatedAt time.Time  `json:"created_at"`
	// UpdatedAt is set on creation and never refreshed by item mutations;
	// item writes only touch cart_items rows.
	UpdatedAt time.Time  `json:"updated_at" gorm:"autoUpdateTime:false"`
	Items     []CartItem `json:"items" gorm:"foreignKey:CartID"`
}

// CartItem is a line item inside a cart, unique per (cart, product) pair.
// Quantity and existence are collapsed into one field: a count of zero is
// never stored, setting an item to zero deletes its row.
type CartItem struct {
	CartID    string `json:"cart_id" gorm:"primaryKey;type:varchar(36)"`
	ProductID string `json:"product_id" gorm:"primaryKey;type:varchar(36)"`
	Count     int    `json:"count"`
}

// CartItemView is the item shape exposed to clients.
type CartItemView struct {
	ProductID string `json:"productId"`
	Count     int    `json:"count"`
}

// CartItemRequest is the body of a cart update. A count of zero removes the
// item from the cart.
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Count     int    `json:"count" validate:"gte=0"`
}

// VisibleItems projects item rows into the client-facing shape, dropping any
// zero-count rows at the read boundary.
func VisibleItems(items []CartItem) []CartItemView {
	views := make([]CartItemView, 0, len(items))
	for _, item := range items {
		if item.Count > 0 {
			views = append(views, CartItemView{ProductID: item.ProductID, Count: item.Count})
		}
	}
	return views
}
