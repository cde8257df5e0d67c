package handlers

import (
	"errors"
	"fmt"
	"log"

	"keranjang/internal/middleware"
	"keranjang/internal/models"
	"keranjang/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// CartHandler handles HTTP requests for the cart and the orders it produces.
// All routes operate on the authenticated caller's own cart and orders; the
// identity comes from the JWT middleware and is trusted as-is.
type CartHandler struct {
	cartService  *services.CartService
	orderService *services.OrderService
	validate     *validator.Validate
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cartService *services.CartService, orderService *services.OrderService) *CartHandler {
	return &CartHandler{
		cartService:  cartService,
		orderService: orderService,
		validate:     validator.New(),
	}
}

// RegisterRoutes registers the cart routes with the Fiber app.
func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	cartRoutes := router.Group("/profile/cart")
	cartRoutes.Get("/", h.HandleGetCart)
	cartRoutes.Put("/", h.HandleUpdateCart)
	cartRoutes.Delete("/", h.HandleClearCart)
	cartRoutes.Put("/order", h.HandleCheckout)
	cartRoutes.Get("/order", h.HandleGetOrders)
	cartRoutes.Get("/order/:id", h.HandleGetOrderByID)
	cartRoutes.Delete("/order/:id", h.HandleDeleteOrder)
}

// HandleGetCart returns the items of the caller's open cart, creating the
// cart on first access. Zero-count rows never reach the client.
func (h *CartHandler) HandleGetCart(c *fiber.Ctx) error {
	cart, err := h.cartService.GetOrCreateCart(middleware.UserID(c))
	if err != nil {
		log.Printf("Error resolving cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(models.VisibleItems(cart.Items))
}

// HandleUpdateCart sets one item's quantity in the caller's cart and responds
// with the refreshed item list, mirroring the read shape.
func (h *CartHandler) HandleUpdateCart(c *fiber.Ctx) error {
	var req models.CartItemRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing cart update body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	cart, err := h.cartService.UpdateItem(middleware.UserID(c), req.ProductID, req.Count)
	if err != nil {
		log.Printf("Error updating cart item %s: %v", req.ProductID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not update cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(models.VisibleItems(cart.Items))
}

// HandleClearCart deletes the caller's cart outright.
func (h *CartHandler) HandleClearCart(c *fiber.Ctx) error {
	if err := h.cartService.ClearCart(middleware.UserID(c)); err != nil {
		log.Printf("Error clearing cart: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not clear cart",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"message":    "OK",
	})
}

// HandleCheckout converts the caller's cart into an order. An empty (or
// missing) cart is a caller-visible rejection, not an internal error.
func (h *CartHandler) HandleCheckout(c *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing checkout body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if err := h.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}

	order, err := h.orderService.Checkout(middleware.UserID(c), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"statusCode": fiber.StatusBadRequest,
				"message":    "Cart is empty",
			})
		}
		log.Printf("Error during checkout: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not place order",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"message":    "OK",
		"data":       fiber.Map{"order": order},
	})
}

// HandleGetOrders lists orders. Requires the admin claim, but the listing is
// scoped to the caller's own user id.
func (h *CartHandler) HandleGetOrders(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	views, err := h.orderService.GetOrders(middleware.UserID(c))
	if err != nil {
		log.Printf("Error listing orders: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve orders",
			"error":   err.Error(),
		})
	}
	return c.JSON(views)
}

// HandleGetOrderByID returns a single order view, scoped like the listing.
func (h *CartHandler) HandleGetOrderByID(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	orderID := c.Params("id")
	view, err := h.orderService.GetOrderByID(orderID, middleware.UserID(c))
	if err != nil {
		log.Printf("Error getting order %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve order",
			"error":   err.Error(),
		})
	}
	if view == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Order with ID %s not found", orderID),
		})
	}
	return c.JSON(view)
}

// HandleDeleteOrder deletes one of the caller's orders. A wrong id or an
// order owned by someone else is a silent no-op.
func (h *CartHandler) HandleDeleteOrder(c *fiber.Ctx) error {
	if !middleware.IsAdmin(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	orderID := c.Params("id")
	if err := h.orderService.DeleteOrder(orderID, middleware.UserID(c)); err != nil {
		log.Printf("Error deleting order %s: %v", orderID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not delete order",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"statusCode": fiber.StatusOK,
		"message":    "OK",
	})
}
