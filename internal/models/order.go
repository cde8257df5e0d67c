package models

// OrderStatus is the state of a persisted order. Only the initial state is
// modeled here; the read path synthesizes a one-element status history.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "inProgress"
)

// OrderPaymentCard is the fixed payment placeholder recorded on every order.
// Real payment capture is handled outside this system.
const OrderPaymentCard = "Card"

// DeliveryAddress is the address snapshot captured at checkout, copied by
// value into the order row. The free-text comment is split out and stored in
// Order.Comments.
type DeliveryAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
}

// Order is an immutable record produced by checking out a cart. Items are not
// copied: they are re-derived from the ordered cart's item rows by CartID.
type Order struct {
	ID       string          `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	UserID   string          `json:"user_id" gorm:"index;type:varchar(36)"`
	CartID   string          `json:"cart_id" gorm:"index;type:varchar(36)"`
	Delivery DeliveryAddress `json:"delivery" gorm:"serializer:json"`
	Comments string          `json:"comments"`
	Status   OrderStatus     `json:"status" gorm:"type:varchar(32)"`
	Total    float64         `json:"total"`
	Payment  string          `json:"payment"`
}

// CheckoutAddress is the address payload of a checkout request, including the
// free-text comment that the order splits out.
type CheckoutAddress struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Comment   string `json:"comment"`
}

// CheckoutRequest is the body of a checkout call. Total is supplied by the
// caller and recorded as-is; prices are not modeled here.
type CheckoutRequest struct {
	Address CheckoutAddress `json:"address" validate:"required"`
	Total   float64         `json:"total" validate:"gte=0"`
}

// OrderStatusEntry is one entry of an order's status history.
type OrderStatusEntry struct {
	Status OrderStatus `json:"status"`
}

// OrderAddressView is the address shape of an order response, recombining the
// delivery fields with the stored comment.
type OrderAddressView struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address   string `json:"address"`
	Comment   string `json:"comment"`
}

// OrderView is the full client-facing order: the persisted row composed with
// the item rows of its source cart.
type OrderView struct {
	ID            string             `json:"id"`
	Items         []CartItemView     `json:"items"`
	Address       OrderAddressView   `json:"address"`
	StatusHistory []OrderStatusEntry `json:"statusHistory"`
}
