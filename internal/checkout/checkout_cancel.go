package checkout

import (
	"context"

	"github.com/readify/storefront/internal/domain"
)

// Cancel drops the shown payment request and returns to the customer form.
// The cart is not touched.
func (s *Session) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.transition(domain.HandshakeIdle); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "payment request cancelled", "order_id", s.request.OrderID)
	s.request = nil
	return nil
}
