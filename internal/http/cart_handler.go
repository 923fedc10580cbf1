package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/ledger"
	"github.com/readify/storefront/internal/notify"
)

type CartHandler struct {
	carts   *ledger.Registry
	catalog catalog.Catalog
	timeout time.Duration
}

func NewCartHandler(carts *ledger.Registry, c catalog.Catalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		catalog: c,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	BookID int64 `json:"book_id"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponse struct {
	Items []domain.CartLine `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

func newCartResponse(l *ledger.Ledger) CartResponse {
	items := l.Lines()
	if items == nil {
		items = []domain.CartLine{}
	}
	return CartResponse{
		Items: items,
		Count: l.Count(),
		Total: l.Total(),
	}
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.Get(r.Context(), getSessionID(r.Context()))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := decodeBody(r, addItemSchema, &req, false); err != nil {
		respondBadBody(w, err)
		return
	}

	book, err := h.catalog.FindBookByID(ctx, req.BookID)
	if err != nil {
		handleError(w, r, err)
		return
	}

	cart, err := h.carts.Get(ctx, getSessionID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := cart.Add(ctx, book); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// PUT /api/v1/cart/items/{book_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, ok := bookIDParam(w, r, "book_id")
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if err := decodeBody(r, setQuantitySchema, &req, false); err != nil {
		respondBadBody(w, err)
		return
	}

	cart, err := h.carts.Get(ctx, getSessionID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := cart.SetQuantity(ctx, bookID, req.Quantity); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/v1/cart/items/{book_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	bookID, ok := bookIDParam(w, r, "book_id")
	if !ok {
		return
	}

	cart, err := h.carts.Get(ctx, getSessionID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := cart.Remove(ctx, bookID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	cart, err := h.carts.Get(ctx, getSessionID(ctx))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := cart.Clear(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

type NotificationsResponse struct {
	Notifications []notify.Message `json:"notifications"`
}

// NotificationsHandler serves GET /api/v1/notifications, draining the
// session's inbox.
func NotificationsHandler(inbox *notify.Inbox) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		msgs := inbox.Drain(getSessionID(r.Context()))
		respondJSON(w, http.StatusOK, NotificationsResponse{Notifications: msgs})
	}
}
