package domain

import "github.com/shopspring/decimal"

// CartLine is a book plus the number of copies in the cart.
// The book fields are flattened when encoded, so a persisted line
// looks like a book record with an extra "quantity" field.
type CartLine struct {
	Book
	Quantity int `json:"quantity"`
}

// Subtotal returns price × quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLines returns Σ price×quantity over lines.
func SumLines(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
