package sweeper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/readify/storefront/pkg/logger"
)

// MockTarget records the idle durations it was swept with.
type MockTarget struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (m *MockTarget) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, idle)
	return 1
}

func (m *MockTarget) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func TestSweepOnce_VisitsEveryTarget(t *testing.T) {
	carts, gates := &MockTarget{}, &MockTarget{}
	s := New(time.Minute, 30*time.Minute, logger.Discard())
	s.Add("carts", carts)
	s.Add("gates", gates)

	s.SweepOnce(context.Background())

	assert.Equal(t, []time.Duration{30 * time.Minute}, carts.calls)
	assert.Equal(t, []time.Duration{30 * time.Minute}, gates.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	target := &MockTarget{}
	s := New(5*time.Millisecond, time.Minute, logger.Discard())
	s.Add("carts", target)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return target.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
