package backend

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/pkg/circuitbreaker"
	"github.com/readify/storefront/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL: srv.URL + "/api/",
		Token:   "demo-admin-token",
		Timeout: time.Second,
		Breaker: circuitbreaker.Settings{ConsecutiveFailures: 2, OpenTimeout: time.Minute, HalfOpenRequests: 1},
	}, logger.Discard())
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "admin@readify.in", req.Email)

		w.Write([]byte(`{"token":"jwt-token","user":{"role":"admin"}}`))
	})

	resp, err := c.Login(context.Background(), "admin@readify.in", "secret")
	require.NoError(t, err)
	assert.Equal(t, "jwt-token", resp.Token)
	assert.JSONEq(t, `{"role":"admin"}`, string(resp.User))
}

func TestLogin_ErrorMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid credentials"}`))
	})

	_, err := c.Login(context.Background(), "a@b.c", "wrong")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestErrorMessage_Default(t *testing.T) {
	assert.Equal(t, "Something went wrong", errorMessage([]byte("<html>")))
	assert.Equal(t, "Something went wrong", errorMessage([]byte(`{}`)))
}

func TestSubmitOrder(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/orders", r.URL.Path)
		assert.Equal(t, "Bearer demo-admin-token", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusCreated)
	})

	order := domain.SettledOrder{
		OrderID:       "RDF-1",
		Items:         []domain.CartLine{{Book: domain.Book{ID: 1, Title: "Atomic Habits", Price: 200}, Quantity: 2}},
		TotalAmount:   decimal.NewFromInt(400),
		Customer:      domain.CustomerDetails{FullName: "Asha", Pincode: "411001"},
		TransactionID: "UTR1",
		Origin:        domain.OriginCart,
		SettledAt:     time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, c.SubmitOrder(context.Background(), order))

	assert.Equal(t, "RDF-1", got["orderId"])
	assert.Equal(t, "400.00", got["totalAmount"])
	assert.Equal(t, "UPI", got["paymentMethod"])
	assert.Equal(t, "UTR1", got["transactionId"])
	assert.Equal(t, "CART", got["origin"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, float64(1), items[0].(map[string]any)["bookId"])
	assert.Equal(t, "Asha", got["shippingAddress"].(map[string]any)["fullName"])
}

func TestAdminCalls_UseGivenTokenOrDefault(t *testing.T) {
	var auth []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = append(auth, r.Method+" "+r.URL.Path+" "+r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	})
	ctx := context.Background()

	stats, err := c.DashboardStats(ctx, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(stats))

	_, err = c.Orders(ctx, "admin-jwt")
	require.NoError(t, err)
	_, err = c.Users(ctx, "admin-jwt")
	require.NoError(t, err)
	_, err = c.UpdateOrderStatus(ctx, "admin-jwt", "ord 1", "shipped")
	require.NoError(t, err)

	assert.Equal(t, []string{
		"GET /api/admin/dashboard Bearer demo-admin-token",
		"GET /api/admin/orders Bearer admin-jwt",
		"GET /api/admin/users Bearer admin-jwt",
		"PUT /api/admin/orders/ord 1 Bearer admin-jwt",
	}, auth)
}

func TestBreaker_OpensOnServerErrorsOnly(t *testing.T) {
	var calls atomic.Int32
	status := atomic.Int32{}
	status.Store(http.StatusBadRequest)

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(int(status.Load()))
		w.Write([]byte(`{"message":"nope"}`))
	})
	ctx := context.Background()

	// Client errors never trip the breaker
	for i := 0; i < 3; i++ {
		_, err := c.Users(ctx, "")
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())

	status.Store(http.StatusBadGateway)
	for i := 0; i < 2; i++ {
		_, err := c.Users(ctx, "")
		require.Error(t, err)
	}

	_, err := c.Users(ctx, "")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), calls.Load())
}
