package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/readify/storefront/internal/domain"
)

var errClearFailed = errors.New("clear failed")

// MockCart implements Cart for testing
type MockCart struct {
	mu       sync.RWMutex
	lines    []domain.CartLine
	ClearErr error
	cleared  int
}

func (m *MockCart) Lines() []domain.CartLine {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CartLine, len(m.lines))
	copy(out, m.lines)
	return out
}

func (m *MockCart) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearErr != nil {
		return m.ClearErr
	}
	m.cleared++
	m.lines = nil
	return nil
}

func (m *MockCart) setLines(lines []domain.CartLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = lines
}

func (m *MockCart) clearCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cleared
}

// MockBackend implements OrderBackend for testing
type MockBackend struct {
	mu     sync.RWMutex
	orders []domain.SettledOrder
	Err    error
}

func (m *MockBackend) SubmitOrder(_ context.Context, order domain.SettledOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = append(m.orders, order)
	return m.Err
}

func (m *MockBackend) received() []domain.SettledOrder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.SettledOrder(nil), m.orders...)
}
