package checkout

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/payment"
)

// Cart is the part of the cart ledger a checkout needs.
type Cart interface {
	Lines() []domain.CartLine
	Clear(ctx context.Context) error
}

// Session is one checkout attempt and its payment handshake.
type Session struct {
	id    string
	owner string
	cart  Cart
	cfg   Config
	log   *slog.Logger

	newOrderID func() string
	now        func() time.Time

	mu      sync.Mutex
	state   domain.HandshakeState
	order   domain.CheckoutOrder
	request *domain.PaymentRequest
	touched time.Time
}

// View is a read-only copy of a session.
type View struct {
	ID         string                 `json:"id"`
	State      domain.HandshakeState  `json:"state"`
	Order      domain.CheckoutOrder   `json:"order"`
	Request    *domain.PaymentRequest `json:"payment_request,omitempty"`
	Descriptor string                 `json:"descriptor,omitempty"`
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() domain.HandshakeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:    s.id,
		State: s.state,
		Order: s.order,
	}
	v.Order.Items = slices.Clone(s.order.Items)
	if s.request != nil {
		req := *s.request
		v.Request = &req
		v.Descriptor = payment.Descriptor(req)
	}
	return v
}

// transition moves to next if allowed. Callers hold s.mu.
func (s *Session) transition(next domain.HandshakeState) error {
	if !domain.CanTransitionTo(s.state, next) {
		return ErrIllegalTransition
	}
	s.log.Debug("handshake transition", "from", s.state, "to", next)
	s.state = next
	s.touched = s.now()
	return nil
}

// idleBefore reports whether the session sits in IDLE untouched since cutoff.
func (s *Session) idleBefore(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.HandshakeIdle && s.touched.Before(cutoff)
}
