package payment

import (
	"net/url"
	"strings"

	"github.com/readify/storefront/internal/domain"
)

// Currency is the only currency the storefront accepts.
const Currency = "INR"

// Descriptor builds the UPI deep link a customer scans to pay:
//
//	upi://pay?pa=<handle>&pn=<name>&am=<amount>&cu=INR&tn=<note>
//
// Parameters keep this order and the amount always has two decimals, so the
// same request yields the same string.
func Descriptor(req domain.PaymentRequest) string {
	var b strings.Builder
	b.WriteString("upi://pay?pa=")
	b.WriteString(escape(req.PayeeHandle))
	b.WriteString("&pn=")
	b.WriteString(escape(req.PayeeName))
	b.WriteString("&am=")
	b.WriteString(req.Amount.StringFixed(2))
	b.WriteString("&cu=")
	b.WriteString(Currency)
	b.WriteString("&tn=")
	b.WriteString(escape(req.ReferenceNote))
	return b.String()
}

// escape percent-encodes a query value with spaces as %20, which UPI apps
// handle more reliably than '+'.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
