package checkout

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/readify/storefront/internal/domain"
)

// Confirm accepts the customer's transaction id and settles the order.
// The id is taken on trust; verifying it is up to the order backend.
// A cart checkout clears the cart; if that fails the session goes back to
// REQUEST_SHOWN and the error is returned.
func (s *Session) Confirm(ctx context.Context, transactionID string) (domain.SettledOrder, error) {
	transactionID = strings.TrimSpace(transactionID)

	s.mu.Lock()
	if s.state != domain.HandshakeRequestShown {
		s.mu.Unlock()
		return domain.SettledOrder{}, ErrIllegalTransition
	}
	if transactionID == "" {
		s.mu.Unlock()
		return domain.SettledOrder{}, ErrMissingTransactionID
	}
	if err := s.transition(domain.HandshakeConfirming); err != nil {
		s.mu.Unlock()
		return domain.SettledOrder{}, err
	}
	order := s.order
	orderID := s.request.OrderID
	s.mu.Unlock()

	if err := s.settle(ctx, order.Origin); err != nil {
		s.mu.Lock()
		_ = s.transition(domain.HandshakeRequestShown)
		s.mu.Unlock()
		s.log.ErrorContext(ctx, "settlement failed", "order_id", orderID, "error", err)
		return domain.SettledOrder{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(domain.HandshakeSettled); err != nil {
		return domain.SettledOrder{}, err
	}

	settled := domain.SettledOrder{
		OrderID:       orderID,
		Items:         slices.Clone(order.Items),
		TotalAmount:   order.TotalAmount,
		Customer:      order.Customer,
		TransactionID: transactionID,
		Origin:        order.Origin,
		SettledAt:     s.now(),
	}
	s.log.InfoContext(ctx, "order settled",
		"order_id", orderID,
		"origin", order.Origin,
		"amount", order.TotalAmount.StringFixed(2),
		"transaction_id", transactionID)
	return settled, nil
}

func (s *Session) settle(ctx context.Context, origin domain.Origin) error {
	if s.cfg.SettleDelay > 0 {
		timer := time.NewTimer(s.cfg.SettleDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if origin == domain.OriginCart {
		if err := s.cart.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
	}
	return nil
}
