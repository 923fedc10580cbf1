package backend

import (
	"context"
	"encoding/json"
	"net/http"
)

// The admin views are passed through untouched, so their bodies stay raw.

func (c *Client) DashboardStats(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/admin/dashboard", c.tokenOr(token), nil, &out)
	return out, err
}

func (c *Client) Orders(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/admin/orders", c.tokenOr(token), nil, &out)
	return out, err
}

func (c *Client) Users(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	err := c.do(ctx, http.MethodGet, "/admin/users", c.tokenOr(token), nil, &out)
	return out, err
}

func (c *Client) UpdateOrderStatus(ctx context.Context, token, orderID, status string) (json.RawMessage, error) {
	var out json.RawMessage
	body := map[string]string{"status": status}
	err := c.do(ctx, http.MethodPut, "/admin/orders/"+escapePath(orderID), c.tokenOr(token), body, &out)
	return out, err
}
