package backend

import (
	"context"
	"net/http"
	"time"

	"github.com/readify/storefront/internal/domain"
)

type orderItem struct {
	BookID   int64   `json:"bookId"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type orderPayload struct {
	OrderID         string                 `json:"orderId"`
	Items           []orderItem            `json:"items"`
	TotalAmount     string                 `json:"totalAmount"`
	ShippingAddress domain.CustomerDetails `json:"shippingAddress"`
	PaymentMethod   string                 `json:"paymentMethod"`
	TransactionID   string                 `json:"transactionId"`
	Origin          domain.Origin          `json:"origin"`
	SettledAt       time.Time              `json:"settledAt"`
}

// SubmitOrder posts a settled order for review and fulfilment. The backend
// owns verification of the transaction id.
func (c *Client) SubmitOrder(ctx context.Context, order domain.SettledOrder) error {
	payload := orderPayload{
		OrderID:         order.OrderID,
		Items:           make([]orderItem, 0, len(order.Items)),
		TotalAmount:     order.TotalAmount.StringFixed(2),
		ShippingAddress: order.Customer,
		PaymentMethod:   "UPI",
		TransactionID:   order.TransactionID,
		Origin:          order.Origin,
		SettledAt:       order.SettledAt,
	}
	for _, line := range order.Items {
		payload.Items = append(payload.Items, orderItem{
			BookID:   line.ID,
			Title:    line.Title,
			Price:    line.Price,
			Quantity: line.Quantity,
		})
	}

	if err := c.do(ctx, http.MethodPost, "/orders", c.token, payload, nil); err != nil {
		return err
	}
	c.log.InfoContext(ctx, "order submitted to backend", "order_id", order.OrderID)
	return nil
}
