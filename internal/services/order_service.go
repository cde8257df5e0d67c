package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"keranjang/internal/models"
	"keranjang/internal/repositories"
	"keranjang/pkg/rabbitmq"
)

// ErrEmptyCart is returned by Checkout when the user has no open cart or the
// cart holds no items. It is a recoverable validation failure, not a storage
// error, and handlers translate it into a structured rejection.
var ErrEmptyCart = errors.New("cart is empty")

// OrderService handles checkout orchestration and order reads. Order views
// are composed from the order rows plus the item rows of their source carts.
type OrderService struct {
	orderRepo repositories.OrderRepository
	cartRepo  repositories.CartRepository
	mqClient  *rabbitmq.Client
}

// NewOrderService creates a new OrderService.
func NewOrderService(orderRepo repositories.OrderRepository, cartRepo repositories.CartRepository, mqClient *rabbitmq.Client) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		cartRepo:  cartRepo,
		mqClient:  mqClient,
	}
}

// Checkout converts the user's open cart into a persisted order. The order
// insert and the cart's OPEN to ORDERED transition happen in one transaction
// at the repository, so a crash or a concurrent checkout can never leave an
// order without the matching status flip, or two orders for one cart.
func (s *OrderService) Checkout(userID string, req models.CheckoutRequest) (*models.Order, error) {
	cart, err := s.cartRepo.FindOpenByUser(userID)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	order := &models.Order{
		UserID: userID,
		CartID: cart.ID,
		Delivery: models.DeliveryAddress{
			FirstName: req.Address.FirstName,
			LastName:  req.Address.LastName,
			Address:   req.Address.Address,
		},
		Comments: req.Address.Comment,
		Status:   models.OrderStatusInProgress,
		Total:    req.Total,
		Payment:  models.OrderPaymentCard,
	}

	if err := s.orderRepo.Checkout(order); err != nil {
		return nil, fmt.Errorf("checkout failed for cart %s: %w", cart.ID, err)
	}

	// Publish an order.created event. Publishing is best-effort: the order
	// is already committed, so a broker failure is logged, not returned.
	if s.mqClient != nil {
		event := map[string]interface{}{
			"orderID": order.ID,
			"userID":  order.UserID,
			"cartID":  order.CartID,
			"status":  order.Status,
			"total":   order.Total,
		}
		body, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal order event to JSON: %v", err)
		} else if err := s.mqClient.Publish("orders", "order.created", body); err != nil {
			log.Printf("Warning: Failed to publish order created event for order %s: %v", order.ID, err)
		}
	}

	return order, nil
}

// GetOrders retrieves all of the user's orders as full views, bulk-fetching
// the item rows of every referenced cart in a single query.
func (s *OrderService) GetOrders(userID string) ([]models.OrderView, error) {
	orders, err := s.orderRepo.GetByUser(userID)
	if err != nil {
		return nil, err
	}

	cartIDs := make([]string, 0, len(orders))
	for _, order := range orders {
		cartIDs = append(cartIDs, order.CartID)
	}
	items, err := s.cartRepo.ItemsByCartIDs(cartIDs)
	if err != nil {
		return nil, err
	}

	itemsByCart := make(map[string][]models.CartItemView)
	for _, item := range items {
		itemsByCart[item.CartID] = append(itemsByCart[item.CartID], models.CartItemView{
			ProductID: item.ProductID,
			Count:     item.Count,
		})
	}

	views := make([]models.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, composeOrderView(order, itemsByCart[order.CartID]))
	}
	return views, nil
}

// GetOrderByID retrieves a single order view scoped to the user, or nil when
// the order is absent or owned by someone else.
func (s *OrderService) GetOrderByID(id, userID string) (*models.OrderView, error) {
	order, err := s.orderRepo.GetByID(id, userID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, nil
	}

	items, err := s.cartRepo.ItemsByCartIDs([]string{order.CartID})
	if err != nil {
		return nil, err
	}
	itemViews := make([]models.CartItemView, 0, len(items))
	for _, item := range items {
		itemViews = append(itemViews, models.CartItemView{ProductID: item.ProductID, Count: item.Count})
	}

	view := composeOrderView(*order, itemViews)
	return &view, nil
}

// DeleteOrder deletes the order if it belongs to the user; otherwise nothing
// happens.
func (s *OrderService) DeleteOrder(id, userID string) error {
	return s.orderRepo.DeleteByID(id, userID)
}

// composeOrderView rebuilds the client-facing order: delivery fields and the
// stored comment are recombined into one address, and the current status is
// wrapped into a synthetic single-entry history since no transition sequence
// is persisted.
func composeOrderView(order models.Order, items []models.CartItemView) models.OrderView {
	if items == nil {
		items = []models.CartItemView{}
	}
	return models.OrderView{
		ID:    order.ID,
		Items: items,
		Address: models.OrderAddressView{
			FirstName: order.Delivery.FirstName,
			LastName:  order.Delivery.LastName,
			Address:   order.Delivery.Address,
			Comment:   order.Comments,
		},
		StatusHistory: []models.OrderStatusEntry{{Status: order.Status}},
	}
}
