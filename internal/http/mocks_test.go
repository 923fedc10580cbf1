package http

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/readify/storefront/internal/admin"
	"github.com/readify/storefront/internal/payment"
)

// MockAuthenticator accepts a single password.
type MockAuthenticator struct {
	Password string
	Token    string
}

func (m *MockAuthenticator) Authenticate(_ context.Context, creds admin.Credentials) (admin.Identity, error) {
	if creds.Password != m.Password {
		return admin.Identity{}, admin.ErrInvalidCredentials
	}
	return admin.Identity{Token: m.Token}, nil
}

// MockAdminBackend records the tokens and status updates it receives.
type MockAdminBackend struct {
	mu       sync.Mutex
	tokens   []string
	statuses map[string]string
	err      error
}

func (m *MockAdminBackend) record(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens = append(m.tokens, token)
	return m.err
}

func (m *MockAdminBackend) DashboardStats(_ context.Context, token string) (json.RawMessage, error) {
	if err := m.record(token); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"totalOrders":3,"totalRevenue":1247}`), nil
}

func (m *MockAdminBackend) Orders(_ context.Context, token string) (json.RawMessage, error) {
	if err := m.record(token); err != nil {
		return nil, err
	}
	return json.RawMessage(`[{"orderId":"RDF-1","status":"PENDING_REVIEW"}]`), nil
}

func (m *MockAdminBackend) Users(_ context.Context, token string) (json.RawMessage, error) {
	if err := m.record(token); err != nil {
		return nil, err
	}
	return json.RawMessage(`[]`), nil
}

func (m *MockAdminBackend) UpdateOrderStatus(_ context.Context, token, orderID, status string) (json.RawMessage, error) {
	if err := m.record(token); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.statuses == nil {
		m.statuses = make(map[string]string)
	}
	m.statuses[orderID] = status
	return json.RawMessage(`{"message":"Order updated"}`), nil
}

func (m *MockAdminBackend) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.tokens) == 0 {
		return ""
	}
	return m.tokens[len(m.tokens)-1]
}

func (m *MockAdminBackend) status(orderID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[orderID]
}

type stubQR struct{}

func (stubQR) Render(_ context.Context, descriptor string) payment.QRImage {
	return payment.QRImage{PNG: []byte("\x89PNG\r\n\x1a\n" + descriptor), Source: payment.SourceLocal}
}

var errStoreDown = errors.New("store down")

// downStore is a KV whose reads always fail.
type downStore struct{}

func (downStore) Get(context.Context, string) (string, error) { return "", errStoreDown }
func (downStore) Set(context.Context, string, string) error    { return errStoreDown }
func (downStore) Delete(context.Context, string) error         { return errStoreDown }
