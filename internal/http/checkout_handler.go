package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readify/storefront/internal/checkout"
	"github.com/readify/storefront/internal/domain"
	"github.com/readify/storefront/internal/ledger"
	"github.com/readify/storefront/internal/payment"
)

const confirmationMessage = "Order placed successfully! A confirmation email has been sent."

// QRRenderer draws the scannable image of a payment descriptor.
type QRRenderer interface {
	Render(ctx context.Context, descriptor string) payment.QRImage
}

type CheckoutHandler struct {
	checkouts *checkout.Manager
	carts     *ledger.Registry
	qr        QRRenderer
	timeout   time.Duration
}

func NewCheckoutHandler(checkouts *checkout.Manager, carts *ledger.Registry, qr QRRenderer, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkouts: checkouts,
		carts:     carts,
		qr:        qr,
		timeout:   timeout,
	}
}

type StartCheckoutRequestDTO struct {
	BookID *int64 `json:"book_id"`
}

type ConfirmPaymentRequestDTO struct {
	TransactionID string `json:"transaction_id"`
}

type PaymentResponse struct {
	CheckoutID string                `json:"checkout_id"`
	State      domain.HandshakeState `json:"state"`
	Request    domain.PaymentRequest `json:"payment_request"`
	Descriptor string                `json:"descriptor"`
	QRURL      string                `json:"qr_url"`
}

type ConfirmResponse struct {
	Order   domain.SettledOrder `json:"order"`
	Message string              `json:"message"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StartCheckoutRequestDTO
	if err := decodeBody(r, startCheckoutSchema, &req, true); err != nil {
		respondBadBody(w, err)
		return
	}

	sessionID := getSessionID(ctx)
	cart, err := h.carts.Cart(ctx, sessionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	s, err := h.checkouts.Start(ctx, cart, domain.CheckoutRequest{BookID: req.BookID, Owner: sessionID})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, s.View())
}

// GET /api/v1/checkout/{id}
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.checkouts.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.View())
}

// POST /api/v1/checkout/{id}/payment
func (h *CheckoutHandler) SubmitDetails(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var customer domain.CustomerDetails
	if err := decodeBody(r, customerSchema, &customer, false); err != nil {
		respondBadBody(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	req, descriptor, err := h.checkouts.Submit(ctx, id, customer)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, PaymentResponse{
		CheckoutID: id,
		State:      domain.HandshakeRequestShown,
		Request:    req,
		Descriptor: descriptor,
		QRURL:      "/api/v1/checkout/" + id + "/payment/qr",
	})
}

// GET /api/v1/checkout/{id}/payment/qr
func (h *CheckoutHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	s, err := h.checkouts.Get(chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}

	view := s.View()
	if view.Descriptor == "" {
		respondError(w, http.StatusConflict, "no_payment_request", "no payment request is shown")
		return
	}

	img := h.qr.Render(ctx, view.Descriptor)
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-QR-Source", string(img.Source))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img.PNG)
}

// POST /api/v1/checkout/{id}/payment/cancel
func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.checkouts.Cancel(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}

	s, err := h.checkouts.Get(id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.View())
}

// POST /api/v1/checkout/{id}/payment/confirm
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ConfirmPaymentRequestDTO
	if err := decodeBody(r, confirmSchema, &req, true); err != nil {
		respondBadBody(w, err)
		return
	}

	order, err := h.checkouts.Confirm(ctx, chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ConfirmResponse{
		Order:   order,
		Message: confirmationMessage,
	})
}

// DELETE /api/v1/checkout/{id}
func (h *CheckoutHandler) Discard(w http.ResponseWriter, r *http.Request) {
	h.checkouts.Discard(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}
