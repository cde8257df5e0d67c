package repositories

import (
	"fmt"
	"time"

	"keranjang/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMCartRepository is a GORM implementation of CartRepository.
type GORMCartRepository struct {
	db *gorm.DB
}

// NewGORMCartRepository creates a new instance of GORMCartRepository.
func NewGORMCartRepository(db *gorm.DB) *GORMCartRepository {
	return &GORMCartRepository{
		db: db,
	}
}

// FindOpenByUser retrieves the user's OPEN cart with its items, or nil if the
// user has no open cart.
func (r *GORMCartRepository) FindOpenByUser(userID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.Preload("Items").
		Where("user_id = ? AND status = ?", userID, models.CartStatusOpen).
		First(&cart).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find open cart for user %s: %w", userID, err)
	}
	return &cart, nil
}

// Create inserts a new cart row. ID and timestamps are filled in here when
// the caller leaves them empty; status defaults to OPEN.
func (r *GORMCartRepository) Create(cart *models.Cart) error {
	if cart.ID == "" {
		cart.ID = uuid.New().String()
	}
	if cart.Status == "" {
		cart.Status = models.CartStatusOpen
	}
	now := time.Now()
	if cart.CreatedAt.IsZero() {
		cart.CreatedAt = now
	}
	if cart.UpdatedAt.IsZero() {
		cart.UpdatedAt = now
	}
	if err := r.db.Create(cart).Error; err != nil {
		return fmt.Errorf("failed to create cart: %w", err)
	}
	return nil
}

// UpsertItem writes the (cart, product) quantity as one conditional statement
// keyed on the composite primary key, so concurrent updates for the same pair
// cannot interleave into a lost update or a duplicate row. Count zero deletes
// the row outright.
func (r *GORMCartRepository) UpsertItem(cartID, productID string, count int) error {
	if count == 0 {
		err := r.db.Delete(&models.CartItem{}, "cart_id = ? AND product_id = ?", cartID, productID).Error
		if err != nil {
			return fmt.Errorf("failed to delete item %s from cart %s: %w", productID, cartID, err)
		}
		return nil
	}

	item := models.CartItem{CartID: cartID, ProductID: productID, Count: count}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": count}),
	}).Create(&item).Error
	if err != nil {
		return fmt.Errorf("failed to upsert item %s in cart %s: %w", productID, cartID, err)
	}
	return nil
}

// Clear deletes the user's cart row regardless of status. Item rows are kept:
// orders reference them by cart id after checkout.
func (r *GORMCartRepository) Clear(userID string) error {
	var cart models.Cart
	err := r.db.Select("id").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return fmt.Errorf("failed to find cart for user %s: %w", userID, err)
	}
	if err := r.db.Delete(&models.Cart{}, "id = ?", cart.ID).Error; err != nil {
		return fmt.Errorf("failed to delete cart %s: %w", cart.ID, err)
	}
	return nil
}

// MarkOrdered flips the cart's status to ORDERED. An unknown id affects zero
// rows and is not an error.
func (r *GORMCartRepository) MarkOrdered(cartID string) error {
	err := r.db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("status", models.CartStatusOrdered).Error
	if err != nil {
		return fmt.Errorf("failed to mark cart %s ordered: %w", cartID, err)
	}
	return nil
}

// ItemsByCartIDs retrieves item rows for any of the given carts. Returns an
// empty slice when nothing matches.
func (r *GORMCartRepository) ItemsByCartIDs(cartIDs []string) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0)
	if len(cartIDs) == 0 {
		return items, nil
	}
	if err := r.db.Where("cart_id IN ?", cartIDs).Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to get items for carts: %w", err)
	}
	return items, nil
}
