package repositories

import (
	"fmt"

	"keranjang/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// Checkout inserts the order and flips its cart to ORDERED in one
// transaction. The flip is a conditional update guarded on the OPEN status;
// zero affected rows means another checkout won the race (or the cart never
// existed) and the whole transaction is rolled back with ErrCartNotOpen.
func (r *GORMOrderRepository) Checkout(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Cart{}).
			Where("id = ? AND status = ?", order.CartID, models.CartStatusOpen).
			Update("status", models.CartStatusOrdered)
		if res.Error != nil {
			return fmt.Errorf("failed to mark cart %s ordered: %w", order.CartID, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCartNotOpen
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order for cart %s: %w", order.CartID, err)
		}
		return nil
	})
}

// GetByID retrieves a single order scoped to its owning user. Returns nil
// when the id is unknown or owned by someone else.
func (r *GORMOrderRepository) GetByID(id, userID string) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("id = ? AND user_id = ?", id, userID).First(&order).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return &order, nil
}

// GetByUser retrieves all orders owned by the user.
func (r *GORMOrderRepository) GetByUser(userID string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.db.Where("user_id = ?", userID).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to get orders for user %s: %w", userID, err)
	}
	return orders, nil
}

// DeleteByID deletes the order when id and owner both match. A mismatch
// affects zero rows and is indistinguishable from a successful delete.
func (r *GORMOrderRepository) DeleteByID(id, userID string) error {
	err := r.db.Delete(&models.Order{}, "id = ? AND user_id = ?", id, userID).Error
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}
	return nil
}
