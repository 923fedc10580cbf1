package checkout

import (
	"context"
	"fmt"

	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/payment"
)

// Submit validates the customer and shows a fresh payment request.
// Validation failures leave the session in IDLE.
func (s *Session) Submit(ctx context.Context, customer domain.CustomerDetails) (domain.PaymentRequest, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = s.now()

	if !domain.CanTransitionTo(s.state, domain.HandshakeRequestShown) {
		return domain.PaymentRequest{}, "", ErrIllegalTransition
	}
	if err := Validate(customer); err != nil {
		return domain.PaymentRequest{}, "", err
	}

	orderID := s.newOrderID()
	req := domain.PaymentRequest{
		OrderID:       orderID,
		Amount:        s.order.TotalAmount,
		PayeeHandle:   s.cfg.Payee.Handle,
		PayeeName:     s.cfg.Payee.Name,
		ReferenceNote: fmt.Sprintf("Readify order %s", orderID),
	}

	if err := s.transition(domain.HandshakeRequestShown); err != nil {
		return domain.PaymentRequest{}, "", err
	}
	s.order.Customer = customer
	s.request = &req

	s.log.InfoContext(ctx, "payment request shown", "order_id", orderID, "amount", req.Amount.StringFixed(2))
	return req, payment.Descriptor(req), nil
}
