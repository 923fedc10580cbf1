package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type HandshakeState string

const (
	HandshakeIdle         HandshakeState = "IDLE"
	HandshakeRequestShown HandshakeState = "REQUEST_SHOWN"
	HandshakeConfirming   HandshakeState = "CONFIRMING"
	HandshakeSettled      HandshakeState = "SETTLED"
)

var handshakeTransitions = map[HandshakeState][]HandshakeState{
	HandshakeIdle:         {HandshakeRequestShown},
	HandshakeRequestShown: {HandshakeIdle, HandshakeConfirming},
	HandshakeConfirming:   {HandshakeSettled, HandshakeRequestShown},
}

// CanTransitionTo reports whether the handshake may move from one state to another.
// CONFIRMING may fall back to REQUEST_SHOWN when settlement side effects fail.
func CanTransitionTo(from, to HandshakeState) bool {
	for _, next := range handshakeTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s HandshakeState) IsTerminal() bool {
	return s == HandshakeSettled
}

// String representation (for logging)
func (s HandshakeState) String() string {
	return string(s)
}

// Payee identifies who receives a UPI payment.
type Payee struct {
	Handle string `json:"handle" yaml:"handle"`
	Name   string `json:"name" yaml:"name"`
}

type PaymentRequest struct {
	OrderID       string          `json:"order_id"`
	Amount        decimal.Decimal `json:"amount"`
	PayeeHandle   string          `json:"payee_handle"`
	PayeeName     string          `json:"payee_name"`
	ReferenceNote string          `json:"reference_note"`
}

// PaymentConfirmation is the transaction reference typed in by the customer.
// It is accepted as an assertion; nothing here verifies it.
type PaymentConfirmation struct {
	TransactionID string `json:"transaction_id"`
}

type SettledOrder struct {
	OrderID       string          `json:"order_id"`
	Items         []CartLine      `json:"items"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Customer      CustomerDetails `json:"customer"`
	TransactionID string          `json:"transaction_id"`
	Origin        Origin          `json:"origin"`
	SettledAt     time.Time       `json:"settled_at"`
}
