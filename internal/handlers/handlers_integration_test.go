package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"cafe/internal/database"
	"cafe/internal/events"
	"cafe/internal/handlers"
	"cafe/internal/models"
	"cafe/internal/repositories"
	"cafe/internal/services"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app   *fiber.App
	store repositories.Store
	auth  *services.AuthService
	rec   *events.Recorder
}

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	store := repositories.NewGORMStore(db)
	rec := &events.Recorder{}
	ledger := services.NewInventoryLedger(store)
	authService := services.NewAuthService(store.Users(), "test_jwt_secret")
	orderService := services.NewOrderService(store, ledger, services.NewCartSnapshotBuilder([]string{"GCash"}), rec)
	tracker := services.NewLocationTracker(store, rec)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewOrderHandler(orderService, tracker).RegisterRoutes(api)
	handlers.NewProductHandler(services.NewProductService(store.Products(), ledger, 5), authService).RegisterRoutes(api)
	handlers.NewCartHandler(services.NewCartService(store)).RegisterRoutes(api)

	return &testEnv{app: app, store: store, auth: authService, rec: rec}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) product(t *testing.T, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: stock}
	require.NoError(t, e.store.Products().Create(context.Background(), p))
	return p
}

func (e *testEnv) token(t *testing.T, role string) string {
	t.Helper()
	u := &models.User{Name: "Someone", Email: role + "@example.com", Role: role}
	require.NoError(t, e.store.Users().Create(context.Background(), u))
	token, err := e.auth.IssueToken(context.Background(), u.ID)
	require.NoError(t, err)
	return token
}

func (e *testEnv) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := e.store.Products().GetByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func field(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = obj[k]
	}
	return cur
}

func TestOrderLifecycleOverHTTP(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 5)

	status, body := env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 2}, "")
	require.Equal(t, http.StatusOK, status)

	status, body = env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{
		"paymentMethod": "GCash",
		"purchaseType":  "Delivery",
		"gpsLocation":   fiber.Map{"type": "Point", "coordinates": []float64{120.9842, 14.5995}},
		"manualAddress": "Ermita, Manila",
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Order placed successfully", body["message"])
	assert.Equal(t, "Pending", field(body, "order", "status"))
	assert.Equal(t, "Paid", field(body, "order", "paymentStatus"))
	assert.Equal(t, 100.0, field(body, "order", "totalAmount"))
	assert.Equal(t, []any{120.9842, 14.5995}, field(body, "order", "deliveryLocation", "coordinates"))
	orderID := field(body, "order", "id").(string)

	status, body = env.do(t, http.MethodGet, "/api/orders/ongoing/user-1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["orders"], 1)

	status, body = env.do(t, http.MethodPut, "/api/orders/update-status/"+orderID, fiber.Map{"status": "Out for Delivery"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Order status updated successfully", body["message"])
	assert.Equal(t, "Out for Delivery", field(body, "order", "status"))
	assert.Equal(t, 3, env.stock(t, latte.ID))

	status, body = env.do(t, http.MethodPut, "/api/orders/cancel/"+orderID, nil, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Only orders in 'Preparing' or 'Pending' stage can be canceled.", body["message"])

	status, body = env.do(t, http.MethodPut, "/api/orders/update-location/"+orderID, fiber.Map{
		"adminLocation": fiber.Map{"coordinates": []float64{121.0437, 14.6760}},
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []any{121.0437, 14.676}, field(body, "order", "adminLocation", "coordinates"))

	status, body = env.do(t, http.MethodPut, "/api/orders/update-status/"+orderID, fiber.Map{"status": "Delivered"}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, env.stock(t, latte.ID), "stock is taken once")

	status, body = env.do(t, http.MethodGet, "/api/orders/history/user-1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["orders"], 1)

	status, body = env.do(t, http.MethodGet, "/api/orders/", nil, "")
	require.Equal(t, http.StatusOK, status)
	orders := body["orders"].([]any)
	require.Len(t, orders, 1)
	items := orders[0].(map[string]any)["items"].([]any)
	assert.Equal(t, "Latte", field(items[0].(map[string]any), "product", "name"), "staff view resolves products")

	status, body = env.do(t, http.MethodGet, "/api/orders/"+orderID, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, orderID, field(body, "order", "id"))

	assert.Equal(t, []string{
		events.NewOrder,
		events.OrderStatusChanged,
		events.OrderLocationUpdated,
		events.OrderStatusChanged,
	}, env.rec.Names())
}

func TestCheckoutErrors(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 5)

	status, body := env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{"paymentMethod": "Cash"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cart is empty", body["message"])

	env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 1}, "")

	status, body = env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{
		"paymentMethod": "Cash",
		"purchaseType":  "Delivery",
		"gpsLocation":   fiber.Map{"type": "Point", "coordinates": []float64{120.98}},
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid GPS location format. Must be [longitude, latitude].", body["message"])

	status, _ = env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{"purchaseType": "Dine In"}, "")
	assert.Equal(t, http.StatusBadRequest, status, "payment method is required")

	status, body = env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{
		"paymentMethod": "Cash",
		"purchaseType":  "Dine In",
		"gpsLocation":   fiber.Map{"type": "Point", "coordinates": []float64{120.98, 14.59}},
		"manualAddress": "should be dropped",
	}, "")
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, field(body, "order", "deliveryLocation"))
	_, hasAddress := body["order"].(map[string]any)["manualAddress"]
	assert.False(t, hasAddress)
}

func TestUpdateStatusErrors(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 1)
	env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 3}, "")
	_, body := env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{"paymentMethod": "Cash", "purchaseType": "Dine In"}, "")
	orderID := field(body, "order", "id").(string)

	status, body := env.do(t, http.MethodPut, "/api/orders/update-status/"+orderID, fiber.Map{"status": "Delivered"}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient stock for product: Latte", body["message"])
	assert.Equal(t, 1, env.stock(t, latte.ID))

	status, _ = env.do(t, http.MethodPut, "/api/orders/update-status/"+orderID, fiber.Map{"status": "Shipped"}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPut, "/api/orders/update-status/"+orderID, fiber.Map{}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPut, "/api/orders/update-status/missing", fiber.Map{"status": "Preparing"}, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Order not found.", body["message"])

	status, body = env.do(t, http.MethodPut, "/api/orders/cancel/"+orderID, nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Canceled", field(body, "order", "status"))

	status, body = env.do(t, http.MethodPut, "/api/orders/cancel/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
}

func TestUpdateLocationErrors(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 1)
	env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 1}, "")
	_, body := env.do(t, http.MethodPost, "/api/orders/checkout/user-1", fiber.Map{"paymentMethod": "Cash", "purchaseType": "Dine In"}, "")
	orderID := field(body, "order", "id").(string)

	status, _ := env.do(t, http.MethodPut, "/api/orders/update-location/missing", fiber.Map{"adminLocation": fiber.Map{"coordinates": []float64{1}}}, "")
	assert.Equal(t, http.StatusNotFound, status)

	for _, payload := range []fiber.Map{
		{},
		{"adminLocation": fiber.Map{}},
		{"adminLocation": fiber.Map{"coordinates": []float64{121}}},
		{"adminLocation": fiber.Map{"coordinates": []any{"121", 14.5}}},
	} {
		status, body := env.do(t, http.MethodPut, "/api/orders/update-location/"+orderID, payload, "")
		assert.Equal(t, http.StatusBadRequest, status, "payload %v", payload)
		assert.Equal(t, "Invalid GPS location format. Must be [longitude, latitude].", body["message"])
	}

	status, _ = env.do(t, http.MethodGet, "/api/orders/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestProductEndpoints(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 2)
	env.product(t, "Mocha", 60, 40)
	admin := env.token(t, models.RoleAdmin)
	customer := env.token(t, models.RoleCustomer)

	status, body := env.do(t, http.MethodGet, "/api/products/", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["products"], 2)

	status, body = env.do(t, http.MethodGet, "/api/products/low-stock", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 5.0, body["threshold"])
	require.Len(t, body["products"], 1)

	status, _ = env.do(t, http.MethodGet, "/api/products/"+latte.ID, nil, "")
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodGet, "/api/products/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, status)

	restock := fiber.Map{"quantity": 10}
	status, _ = env.do(t, http.MethodPut, "/api/products/restock/"+latte.ID, restock, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.do(t, http.MethodPut, "/api/products/restock/"+latte.ID, restock, customer)
	assert.Equal(t, http.StatusForbidden, status)
	status, body = env.do(t, http.MethodPut, "/api/products/restock/"+latte.ID, restock, admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 12.0, field(body, "product", "stock"))

	status, _ = env.do(t, http.MethodPut, "/api/products/restock/"+latte.ID, fiber.Map{"quantity": -1}, admin)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPost, "/api/products/", fiber.Map{"name": "Matcha Latte", "price": 150, "stock": 8}, admin)
	require.Equal(t, http.StatusCreated, status)
	assert.NotEmpty(t, field(body, "product", "id"))

	status, body = env.do(t, http.MethodPost, "/api/products/", fiber.Map{"name": "X", "price": 0}, admin)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["errors"])
}

func TestCartEndpoints(t *testing.T) {
	env := setupApp(t)
	latte := env.product(t, "Latte", 50, 2)

	status, body := env.do(t, http.MethodGet, "/api/cart/user-1", nil, "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, field(body, "cart", "items"))

	status, _ = env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": "missing", "quantity": 1}, "")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 0}, "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPost, "/api/cart/user-1/items", fiber.Map{"productId": latte.ID, "quantity": 2}, "")
	require.Equal(t, http.StatusOK, status)
	items := field(body, "cart", "items").([]any)
	require.Len(t, items, 1)
	assert.Equal(t, 50.0, items[0].(map[string]any)["price"])
}
