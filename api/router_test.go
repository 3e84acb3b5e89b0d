package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"savoria/api/delivery"
	"savoria/api/health"
	"savoria/api/middleware"
	"savoria/api/order"
	"savoria/api/payment"
	apiuser "savoria/api/user"
	"savoria/application/fulfillment"
	"savoria/config"
	"savoria/domain/directory"
	domainorder "savoria/domain/order"
	"savoria/domain/shared"
	"savoria/domain/user"
	"savoria/infrastructure/gateway"
	"savoria/infrastructure/persistence/memory"
	"savoria/infrastructure/persistence/retry"
	"savoria/infrastructure/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Count     int             `json:"count"`
	Error     string          `json:"error"`
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
}

type failingPinger struct{}

func (failingPinger) PingContext(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Name: "savoria", Version: "test", Env: "test"},
		Database: config.DatabaseConfig{
			Type: "memory",
		},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Content-Type", middleware.ActorIDHeader},
			MaxAge:       600,
		},
	}
}

func mustEmail(t *testing.T, s string) user.Email {
	t.Helper()
	e, err := user.ParseEmail(s)
	require.NoError(t, err)
	return e
}

func newTestServer(t *testing.T, db health.Pinger) http.Handler {
	t.Helper()

	store := memory.NewStore()
	store.PutMenuItem(directory.MenuItem{ID: "m1", Name: "Pad Thai", Price: shared.MustMoney("250.00"), Available: true})
	store.PutDriver(directory.Driver{ID: "drv-1", Name: "Somchai", Phone: "0800000001", Vehicle: "scooter", Available: true})
	store.PutUser(user.User{ID: "cust-1", Username: "cust", FullName: "Customer One", Email: mustEmail(t, "cust@example.com"), Role: user.RoleCustomer, Active: true})
	store.PutUser(user.User{ID: "admin-1", Username: "admin", Email: mustEmail(t, "admin@example.com"), Role: user.RoleAdmin, Active: true})
	store.PutUser(user.User{ID: "drv-1", Username: "somchai", FullName: "Somchai", Email: mustEmail(t, "drv@example.com"), Role: user.RoleDriver, Active: true})
	store.PutUser(user.User{ID: "gone-1", Username: "gone", Email: mustEmail(t, "gone@example.com"), Role: user.RoleCustomer, Active: false})

	svc, err := fulfillment.NewService(fulfillment.Dependencies{
		Orders:     memory.NewOrderRepository(store),
		Deliveries: memory.NewDeliveryRepository(store),
		Payments:   memory.NewPaymentRepository(store),
		Menu:       memory.NewMenuCatalog(store),
		Drivers:    memory.NewDriverDirectory(store),
		Gateway:    gateway.NewSimulatedGateway(false),
		Files:      storage.NewLocalStoreOnFs(afero.NewMemMapFs(), "/uploads", storage.Limits{MaxBytes: 1 << 20}),
		UoW:        memory.NewUnitOfWorkFactory(store, retry.DefaultConfig),
		Pricing: domainorder.PricingPolicy{
			TaxRate:     decimal.RequireFromString("0.10"),
			DeliveryFee: shared.MustMoney("400.00"),
		},
	})
	require.NoError(t, err)

	cfg := testConfig()
	var probes []health.Probe
	if db != nil {
		probes = append(probes, health.PingProbe("database", db))
	}
	users := memory.NewUserDirectory(store)
	router := NewRouter(cfg, users, Controllers{
		Health:   health.NewController(cfg, probes...),
		User:     apiuser.NewController(users),
		Order:    order.NewController(svc),
		Delivery: delivery.NewController(svc),
		Payment:  payment.NewController(svc, 1<<20),
	})
	router.SetupRoutes()
	return router.GetEngine()
}

func call(t *testing.T, h http.Handler, method, path, actorID string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return send(t, h, req, actorID)
}

func send(t *testing.T, h http.Handler, req *http.Request, actorID string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	if actorID != "" {
		req.Header.Set(middleware.ActorIDHeader, actorID)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func createOrder(t *testing.T, h http.Handler, orderType, method string) fulfillment.OrderView {
	t.Helper()
	rr, env := call(t, h, http.MethodPost, "/api/v1/orders", "cust-1", map[string]interface{}{
		"order_type":       orderType,
		"payment_method":   method,
		"delivery_address": "99 Sukhumvit Rd",
		"items":            []map[string]interface{}{{"menu_item_id": "m1", "quantity": 4}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[fulfillment.OrderView](t, env)
}

func TestOrderEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	created := createOrder(t, h, "DELIVERY", "CASH_ON_DELIVERY")
	assert.Equal(t, "cust-1", created.CustomerID)
	assert.Equal(t, "1540.00", created.Total)
	require.NotNil(t, created.Delivery)

	rr, env := call(t, h, http.MethodGet, "/api/v1/orders/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotEmpty(t, env.RequestID)
	assert.Equal(t, rr.Header().Get(middleware.RequestIDHeader), env.RequestID)
	assert.Equal(t, created.ID, decode[fulfillment.OrderView](t, env).ID)

	rr, env = call(t, h, http.MethodPut, "/api/v1/orders/"+created.ID+"/status", "admin-1", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "CONFIRMED", decode[fulfillment.OrderView](t, env).Status)

	rr, env = call(t, h, http.MethodGet, "/api/v1/orders/"+created.ID+"/tracking", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, env.Count)

	rr, env = call(t, h, http.MethodGet, "/api/v1/customers/cust-1/orders", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, env.Count)

	rr, env = call(t, h, http.MethodGet, "/api/v1/orders?status=CONFIRMED&order_type=DELIVERY", "admin-1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, 1, env.Count)

	rr, env = call(t, h, http.MethodGet, "/api/v1/orders?status=PENDING", "admin-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, env.Count)

	rr, _ = call(t, h, http.MethodGet, "/api/v1/orders?limit=0", "admin-1", nil)
	assert.Equal(t, http.StatusOK, rr.Code, "limit=0 means no explicit limit")

	rr, env = call(t, h, http.MethodGet, "/api/v1/orders/"+created.ID+"/refund-quote?type=PROPORTIONAL", "", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "cash is not collected yet so nothing is refundable")
	assert.False(t, env.Success)
}

func TestOrderEndpoints_Errors(t *testing.T) {
	h := newTestServer(t, nil)
	created := createOrder(t, h, "PICKUP", "GATEWAY")

	tests := []struct {
		name   string
		method string
		path   string
		actor  string
		body   interface{}
		status int
		code   string
	}{
		{"malformed body", http.MethodPost, "/api/v1/orders", "cust-1", map[string]string{"order_type": "BOAT"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown order", http.MethodGet, "/api/v1/orders/nope", "", nil, http.StatusNotFound, "NOT_FOUND"},
		{"illegal transition", http.MethodPut, "/api/v1/orders/" + created.ID + "/status", "admin-1", map[string]string{"status": "DELIVERED"}, http.StatusBadRequest, "INVALID_TRANSITION"},
		{"unknown actor", http.MethodGet, "/api/v1/orders/" + created.ID, "ghost", nil, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"inactive actor", http.MethodGet, "/api/v1/orders/" + created.ID, "gone-1", nil, http.StatusForbidden, "USER_NOT_ACTIVE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr, env := call(t, h, tt.method, tt.path, tt.actor, tt.body)

			assert.Equal(t, tt.status, rr.Code, rr.Body.String())
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Error)
			assert.Equal(t, tt.status, env.Code)
		})
	}
}

func TestCancelOrder_OptionalBody(t *testing.T) {
	h := newTestServer(t, nil)
	created := createOrder(t, h, "PICKUP", "GATEWAY")

	rr, env := call(t, h, http.MethodPost, "/api/v1/orders/"+created.ID+"/cancel", "cust-1", nil)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "CANCELLED", decode[fulfillment.OrderView](t, env).Status)
}

func slipRequest(t *testing.T, orderID, contentType string) *http.Request {
	return slipRequestWith(t, orderID, contentType, []byte("fake-png-bytes"))
}

func slipRequestWith(t *testing.T, orderID, contentType string, payload []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("bank_name", "KBank"))
	require.NoError(t, w.WriteField("transaction_ref", "TX-42"))

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="slip.png"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID+"/payment-slips", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestPaymentSlipEndpoints(t *testing.T) {
	h := newTestServer(t, nil)
	created := createOrder(t, h, "PICKUP", "CARD_SLIP")

	rr, _ := send(t, h, slipRequest(t, created.ID, "text/plain"), "cust-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code, "file type is checked before anything is stored")

	rr, env := send(t, h, slipRequestWith(t, created.ID, "image/png", bytes.Repeat([]byte{0xff}, 2<<20)), "cust-1")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", env.Error)

	rr, env = send(t, h, slipRequest(t, created.ID, "image/png"), "cust-1")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	submitted := decode[fulfillment.PaymentView](t, env)
	require.NotNil(t, submitted.Slip)
	assert.Equal(t, "KBank", submitted.Slip.BankName)
	assert.Equal(t, "TX-42", submitted.Slip.TransactionRef)

	rr, env = send(t, h, slipRequest(t, created.ID, "image/png"), "cust-1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "SLIP_OUTSTANDING", env.Error)

	rr, env = call(t, h, http.MethodPost, "/api/v1/payment-slips/"+submitted.ID+"/review", "cust-1", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "customers cannot review slips")
	assert.Equal(t, "VALIDATION_ERROR", env.Error)

	rr, _ = call(t, h, http.MethodPost, "/api/v1/payment-slips/"+submitted.ID+"/review", "admin-1", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, env = call(t, h, http.MethodPost, "/api/v1/payment-slips/"+submitted.ID+"/confirm", "admin-1", map[string]string{"notes": "matched statement"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	confirmed := decode[fulfillment.PaymentView](t, env)
	assert.Equal(t, "COMPLETED", confirmed.Status)

	_, env = call(t, h, http.MethodGet, "/api/v1/orders/"+created.ID, "", nil)
	assert.Equal(t, "PAID", decode[fulfillment.OrderView](t, env).PaymentStatus)
}

func TestGatewayPaymentAndRefund(t *testing.T) {
	h := newTestServer(t, nil)
	created := createOrder(t, h, "PICKUP", "GATEWAY")

	rr, env := call(t, h, http.MethodPost, "/api/v1/orders/"+created.ID+"/gateway-payments", "admin-1", map[string]string{"reference": "pi_123"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	captured := decode[fulfillment.PaymentView](t, env)

	rr, env = call(t, h, http.MethodPost, "/api/v1/payments/"+captured.ID+"/refunds", "admin-1", map[string]string{"amount": "200.00", "reason": "cold food"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	refunded := decode[fulfillment.PaymentView](t, env)
	assert.Equal(t, "PARTIALLY_REFUNDED", refunded.Status)
	assert.Equal(t, "200.00", refunded.RefundAmount)

	rr, env = call(t, h, http.MethodPost, "/api/v1/payments/"+captured.ID+"/refunds", "admin-1", map[string]string{"refund_type": "FULL"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "NOT_REFUNDABLE", env.Error)
}

func TestDeliveryEndpoints(t *testing.T) {
	h := newTestServer(t, nil)
	created := createOrder(t, h, "DELIVERY", "CASH_ON_DELIVERY")
	deliveryPath := "/api/v1/deliveries/" + created.Delivery.ID

	rr, env := call(t, h, http.MethodPost, deliveryPath+"/driver", "admin-1", map[string]string{"driver_id": "drv-1"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "a pending order cannot be dispatched")
	assert.Equal(t, "INVALID_STATE", env.Error)

	rr, _ = call(t, h, http.MethodPut, "/api/v1/orders/"+created.ID+"/status", "admin-1", map[string]string{"status": "CONFIRMED"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, env = call(t, h, http.MethodPost, deliveryPath+"/driver", "admin-1", map[string]string{"driver_id": "drv-1"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assigned := decode[fulfillment.DeliveryView](t, env)
	require.NotNil(t, assigned.Driver)
	assert.Equal(t, "Somchai", assigned.Driver.Name)

	for _, status := range []string{"PREPARING", "READY_FOR_PICKUP", "OUT_FOR_DELIVERY"} {
		rr, _ = call(t, h, http.MethodPut, "/api/v1/orders/"+created.ID+"/status", "admin-1", map[string]string{"status": status})
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	}

	rr, _ = call(t, h, http.MethodPut, deliveryPath+"/status", "drv-1", map[string]string{"status": "ARRIVED"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr, _ = call(t, h, http.MethodPost, deliveryPath+"/cash-collection", "drv-1", map[string]string{"amount": "abc"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, env = call(t, h, http.MethodPost, deliveryPath+"/cash-collection", "drv-1", map[string]string{"amount": "1540.00"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.True(t, decode[fulfillment.DeliveryView](t, env).CashConfirmed)

	rr, _ = call(t, h, http.MethodPost, deliveryPath+"/cash-collection", "drv-1", map[string]string{"amount": "1540.00"})
	assert.Equal(t, http.StatusBadRequest, rr.Code, "cash is confirmed once")

	_, env = call(t, h, http.MethodGet, "/api/v1/orders/"+created.ID, "", nil)
	assert.Equal(t, "PAID", decode[fulfillment.OrderView](t, env).PaymentStatus)
}

func TestUserEndpoints(t *testing.T) {
	h := newTestServer(t, nil)

	rr, env := call(t, h, http.MethodGet, "/api/v1/me", "drv-1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[apiuser.ActorResponse](t, env)
	assert.Equal(t, "DRIVER", me.Kind)
	assert.Equal(t, "Somchai", me.Name)

	rr, env = call(t, h, http.MethodGet, "/api/v1/me", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "CUSTOMER", decode[apiuser.ActorResponse](t, env).Kind)

	rr, env = call(t, h, http.MethodGet, "/api/v1/users/cust-1", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "cust@example.com", decode[apiuser.UserResponse](t, env).Email)

	rr, _ = call(t, h, http.MethodGet, "/api/v1/users/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHealthEndpoints(t *testing.T) {
	t.Run("memory store is always ready", func(t *testing.T) {
		h := newTestServer(t, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("unreachable database", func(t *testing.T) {
		h := newTestServer(t, failingPinger{})

		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		var body health.HealthResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, "unhealthy", body.Status)
		assert.Equal(t, "down", body.Checks["database"].Status)
		assert.Equal(t, "connection refused", body.Checks["database"].Error)

		rr = httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/orders", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://shop.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
}
