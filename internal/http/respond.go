package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sony/gobreaker/v2"

	"github.com/readify/storefront/internal/admin"
	"github.com/readify/storefront/internal/backend"
	"github.com/readify/storefront/internal/catalog"
	"github.com/readify/storefront/internal/checkout"
	"github.com/readify/storefront/internal/ledger"
)

type ErrorResponse struct {
	Error    string `json:"error"`
	Code     string `json:"code,omitempty"`
	Details  string `json:"details,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleError converts core errors to HTTP status codes.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *checkout.ValidationError
	var apiErr *backend.APIError

	switch {
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   validationErr.Message,
			Code:    "invalid_field",
			Details: validationErr.Field,
		})
	case errors.Is(err, checkout.ErrBookNotFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{
			Error:    "Book not found",
			Code:     "book_not_found",
			Redirect: "/shop",
		})
	case errors.Is(err, catalog.ErrBookNotFound):
		respondError(w, http.StatusNotFound, "book_not_found", "Book not found")
	case errors.Is(err, checkout.ErrEmptyCart):
		respondJSON(w, http.StatusConflict, ErrorResponse{
			Error:    "Your cart is empty",
			Code:     "empty_cart",
			Redirect: "/cart",
		})
	case errors.Is(err, ledger.ErrQuantityLimit):
		respondError(w, http.StatusConflict, "quantity_limit", err.Error())
	case errors.Is(err, checkout.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "checkout_not_found", "checkout session not found")
	case errors.Is(err, checkout.ErrMissingTransactionID):
		respondError(w, http.StatusBadRequest, "missing_transaction_id", "Please enter the transaction ID")
	case errors.Is(err, checkout.ErrIllegalTransition):
		respondError(w, http.StatusConflict, "illegal_transition", err.Error())
	case errors.Is(err, admin.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid admin credentials")
	case errors.Is(err, admin.ErrNotAuthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "admin login required")
	case errors.As(err, &apiErr):
		respondError(w, apiErr.Status, "backend_error", apiErr.Message)
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		respondError(w, http.StatusServiceUnavailable, "service_unavailable", "backend temporarily unavailable")
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
