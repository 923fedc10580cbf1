package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrBookNotFound         = errors.New("book not found")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrMissingTransactionID = errors.New("transaction id is required")
	ErrIllegalTransition    = errors.New("illegal transition of payment handshake")
	ErrSessionNotFound      = errors.New("checkout session not found")
)

// ValidationError names the first customer field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}
