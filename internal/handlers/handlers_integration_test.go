package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"keranjang/internal/handlers"
	"keranjang/internal/middleware"
	"keranjang/internal/models"
	"keranjang/internal/repositories"
	"keranjang/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupApp builds a Fiber app against an in-memory SQLite database, wired the
// same way as main: GORM repositories, services (no RabbitMQ client) and the
// JWT middleware in front of the cart routes.
func setupApp(t *testing.T) (*fiber.App, *services.AuthService, error) {
	t.Helper()

	// Configure Viper for testing
	viper.SetDefault("JWT_SECRET", "test_jwt_secret")
	viper.AutomaticEnv()
	jwtSecret := viper.GetString("JWT_SECRET")

	// Named in-memory database so every pooled connection sees the same
	// tables, isolated per test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(&models.User{}, &models.Cart{}, &models.CartItem{}, &models.Order{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	// Initialize Repositories
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	userRepo := repositories.NewGORMUserRepository(db)

	// Initialize Services
	cartService := services.NewCartService(cartRepo)
	orderService := services.NewOrderService(orderRepo, cartRepo, nil) // nil for RabbitMQ client
	authService := services.NewAuthService(userRepo, jwtSecret)

	// Initialize Handlers
	cartHandler := handlers.NewCartHandler(cartService, orderService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)

	protected := api.Group("", middleware.AuthRequired(authService))
	cartHandler.RegisterRoutes(protected)

	return app, authService, nil
}

// registerAndLogin creates a user directly through the auth service (the only
// way to mint an admin in tests) and logs in over HTTP, returning the token.
func registerAndLogin(t *testing.T, app *fiber.App, authService *services.AuthService, username string, admin bool) string {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		IsAdmin:  admin,
	}
	if err := authService.RegisterUser(user); err != nil {
		t.Fatalf("failed to register user %s: %v", username, err)
	}

	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": "password123",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	defer resp.Body.Close()

	var loginResp map[string]string
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&loginResp))
	assert.NotEmpty(t, loginResp["token"])
	return loginResp["token"]
}

// doJSON performs an authenticated request with an optional JSON body and
// decodes the response into out (when out is non-nil).
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, out interface{}) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	if out != nil {
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
		resp.Body.Close()
	}
	return resp
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	app, _, err := setupApp(t)
	assert.NoError(t, err)

	userToRegister := map[string]string{
		"username": "testuser",
		"email":    "test@example.com",
		"password": "password123",
	}
	jsonBody, _ := json.Marshal(userToRegister)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	// Duplicate registration conflicts.
	req = httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	var loginResp map[string]string
	resp = doJSON(t, app, http.MethodPost, "/api/auth/login", "",
		map[string]string{"username": "testuser", "password": "password123"}, &loginResp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, loginResp["token"])

	// A self-registered user never carries the admin claim, so the order
	// endpoints stay closed.
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order", loginResp["token"], nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCartItemFlow(t *testing.T) {
	app, authService, err := setupApp(t)
	assert.NoError(t, err)
	token := registerAndLogin(t, app, authService, "cartuser", false)

	// First access lazily creates an empty cart.
	var items []models.CartItemView
	resp := doJSON(t, app, http.MethodGet, "/api/profile/cart", token, nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, items)

	// Add an item.
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		models.CartItemRequest{ProductID: "prod-1", Count: 2}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []models.CartItemView{{ProductID: "prod-1", Count: 2}}, items)

	// Last write wins for the same product.
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		models.CartItemRequest{ProductID: "prod-1", Count: 5}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []models.CartItemView{{ProductID: "prod-1", Count: 5}}, items)

	// A second product joins the first.
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		models.CartItemRequest{ProductID: "prod-2", Count: 1}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, items, 2)

	// Count zero removes the row; the response omits it.
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		models.CartItemRequest{ProductID: "prod-1", Count: 0}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []models.CartItemView{{ProductID: "prod-2", Count: 1}}, items)

	// Clearing drops the cart; the next read starts fresh.
	resp = doJSON(t, app, http.MethodDelete, "/api/profile/cart", token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart", token, nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, items)
}

func TestCartUpdateValidation(t *testing.T) {
	app, authService, err := setupApp(t)
	assert.NoError(t, err)
	token := registerAndLogin(t, app, authService, "validuser", false)

	// Missing productId fails validation.
	resp := doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		map[string]interface{}{"count": 2}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestCheckoutFlow(t *testing.T) {
	app, authService, err := setupApp(t)
	assert.NoError(t, err)
	token := registerAndLogin(t, app, authService, "adminuser", true)

	checkoutBody := models.CheckoutRequest{
		Address: models.CheckoutAddress{
			FirstName: "Budi",
			LastName:  "Santoso",
			Address:   "Jl. Sudirman 10",
			Comment:   "ring the bell twice",
		},
		Total: 99.99,
	}

	// Checkout with an empty cart is rejected, not an internal error.
	var envelope map[string]interface{}
	resp := doJSON(t, app, http.MethodPut, "/api/profile/cart/order", token, checkoutBody, &envelope)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Cart is empty", envelope["message"])

	// Fill the cart and check out.
	var items []models.CartItemView
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart", token,
		models.CartItemRequest{ProductID: "prod-1", Count: 2}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart/order", token, checkoutBody, &envelope)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", envelope["message"])
	data := envelope["data"].(map[string]interface{})
	order := data["order"].(map[string]interface{})
	orderID := order["id"].(string)
	assert.NotEmpty(t, orderID)
	assert.Equal(t, "inProgress", order["status"])
	assert.Equal(t, "Card", order["payment"])

	// The ordered cart is terminal; the next read yields a fresh empty one.
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart", token, nil, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, items)

	// The order listing reconstructs items from the ordered cart's rows.
	var views []models.OrderView
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order", token, nil, &views)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, views, 1)
	assert.Equal(t, orderID, views[0].ID)
	assert.Equal(t, []models.CartItemView{{ProductID: "prod-1", Count: 2}}, views[0].Items)
	assert.Equal(t, "ring the bell twice", views[0].Address.Comment)
	assert.Equal(t, []models.OrderStatusEntry{{Status: models.OrderStatusInProgress}}, views[0].StatusHistory)

	// Single-order retrieval matches the listing.
	var view models.OrderView
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order/"+orderID, token, nil, &view)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, view.ID)

	// Unknown order id is a 404.
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order/no-such-order", token, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Delete the order and confirm the listing is empty again.
	resp = doJSON(t, app, http.MethodDelete, "/api/profile/cart/order/"+orderID, token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order", token, nil, &views)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, views)
}

func TestOrderEndpointsRequireAdmin(t *testing.T) {
	app, authService, err := setupApp(t)
	assert.NoError(t, err)
	token := registerAndLogin(t, app, authService, "plainuser", false)

	resp := doJSON(t, app, http.MethodGet, "/api/profile/cart/order", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order/some-id", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/profile/cart/order/some-id", token, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestCartEndpointsRequireAuth(t *testing.T) {
	app, _, err := setupApp(t)
	assert.NoError(t, err)

	resp := doJSON(t, app, http.MethodGet, "/api/profile/cart", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

func TestOrdersAreScopedToCaller(t *testing.T) {
	app, authService, err := setupApp(t)
	assert.NoError(t, err)
	ownerToken := registerAndLogin(t, app, authService, "owneradmin", true)
	otherToken := registerAndLogin(t, app, authService, "otheradmin", true)

	// Owner builds a cart and checks out.
	var items []models.CartItemView
	resp := doJSON(t, app, http.MethodPut, "/api/profile/cart", ownerToken,
		models.CartItemRequest{ProductID: "prod-9", Count: 1}, &items)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope map[string]interface{}
	resp = doJSON(t, app, http.MethodPut, "/api/profile/cart/order", ownerToken, models.CheckoutRequest{
		Address: models.CheckoutAddress{FirstName: "Budi", LastName: "Santoso", Address: "Jl. Sudirman 10"},
		Total:   10,
	}, &envelope)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	orderID := envelope["data"].(map[string]interface{})["order"].(map[string]interface{})["id"].(string)

	// Another admin sees only their own (empty) order list and cannot
	// retrieve or delete the owner's order.
	var views []models.OrderView
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order", otherToken, nil, &views)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, views)

	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order/"+orderID, otherToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodDelete, "/api/profile/cart/order/"+orderID, otherToken, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// The owner's order survived the foreign delete.
	var view models.OrderView
	resp = doJSON(t, app, http.MethodGet, "/api/profile/cart/order/"+orderID, ownerToken, nil, &view)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, orderID, view.ID)
}
