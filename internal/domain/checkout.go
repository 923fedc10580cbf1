package domain

import "github.com/shopspring/decimal"

type Origin string

const (
	OriginCart       Origin = "CART"
	OriginDirectBook Origin = "DIRECT_BOOK"
)

func (o Origin) String() string {
	return string(o)
}

type CustomerDetails struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

// CheckoutRequest selects the checkout origin. A nil BookID means the
// whole cart is checked out.
type CheckoutRequest struct {
	BookID *int64
	// Owner is the browser session starting the checkout. A session has at
	// most one open checkout; starting another replaces it.
	Owner string
}

// CheckoutOrder is the order being paid for. TotalAmount is captured when
// the checkout starts and is not recomputed afterwards.
type CheckoutOrder struct {
	Items       []CartLine      `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Customer    CustomerDetails `json:"customer"`
	Origin      Origin          `json:"origin"`
}
