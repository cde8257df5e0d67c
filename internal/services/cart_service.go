package services

import (
	"fmt"

	"keranjang/internal/models"
	"keranjang/internal/repositories"
)

// CartService handles business logic for the cart lifecycle and its items.
type CartService struct {
	cartRepo repositories.CartRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository) *CartService {
	return &CartService{
		cartRepo: cartRepo,
	}
}

// GetOrCreateCart returns the user's open cart, creating a fresh empty one if
// none exists. This is the entry point every cart-mutating path goes through,
// which is what keeps the one-open-cart-per-user invariant.
func (s *CartService) GetOrCreateCart(userID string) (*models.Cart, error) {
	cart, err := s.cartRepo.FindOpenByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	cart = &models.Cart{
		UserID: userID,
		Status: models.CartStatusOpen,
		Items:  []models.CartItem{},
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, fmt.Errorf("failed to create cart for user %s: %w", userID, err)
	}
	return cart, nil
}

// UpdateItem sets the quantity of a product in the user's open cart, creating
// the cart first if needed. A count of zero removes the item. Returns the
// refreshed cart snapshot re-read after the mutation.
func (s *CartService) UpdateItem(userID, productID string, count int) (*models.Cart, error) {
	cart, err := s.GetOrCreateCart(userID)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpsertItem(cart.ID, productID, count); err != nil {
		return nil, err
	}

	refreshed, err := s.cartRepo.FindOpenByUser(userID)
	if err != nil {
		return nil, err
	}
	if refreshed == nil {
		// The cart vanished between the write and the re-read (e.g. a
		// concurrent clear); surface the pre-mutation snapshot.
		return cart, nil
	}
	return refreshed, nil
}

// ClearCart removes the user's cart row entirely. No-op if the user has no
// cart.
func (s *CartService) ClearCart(userID string) error {
	return s.cartRepo.Clear(userID)
}
