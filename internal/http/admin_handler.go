package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/readify/storefront/internal/admin"
	"github.com/readify/storefront/internal/domain"
)

// AdminBackend serves the admin views. The token is the one handed out at
// admin login and may be empty.
type AdminBackend interface {
	DashboardStats(ctx context.Context, token string) (json.RawMessage, error)
	Orders(ctx context.Context, token string) (json.RawMessage, error)
	Users(ctx context.Context, token string) (json.RawMessage, error)
	UpdateOrderStatus(ctx context.Context, token, orderID, status string) (json.RawMessage, error)
}

type AdminHandler struct {
	gates   *admin.Registry
	backend AdminBackend
	timeout time.Duration
}

// NewAdminHandler builds the admin routes. With a nil backend the gate still
// works but the admin views answer 503.
func NewAdminHandler(gates *admin.Registry, backend AdminBackend, timeout time.Duration) *AdminHandler {
	return &AdminHandler{
		gates:   gates,
		backend: backend,
		timeout: timeout,
	}
}

type AdminSessionResponse struct {
	State domain.AdminState `json:"state"`
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
}

type adminTokenKey struct{}

// POST /api/v1/admin/login
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var creds admin.Credentials
	if err := decodeBody(r, loginSchema, &creds, false); err != nil {
		respondBadBody(w, err)
		return
	}

	gate := h.gates.Get(ctx, getSessionID(ctx))
	if err := gate.Login(ctx, creds); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AdminSessionResponse{State: gate.State()})
}

// POST /api/v1/admin/logout
func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	gate := h.gates.Get(r.Context(), getSessionID(r.Context()))
	if err := gate.Logout(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, AdminSessionResponse{State: gate.State()})
}

// GET /api/v1/admin/session
func (h *AdminHandler) Session(w http.ResponseWriter, r *http.Request) {
	gate := h.gates.Get(r.Context(), getSessionID(r.Context()))
	respondJSON(w, http.StatusOK, AdminSessionResponse{State: gate.State()})
}

// RequireAdmin rejects requests whose session gate is closed.
func (h *AdminHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gate := h.gates.Get(r.Context(), getSessionID(r.Context()))
		token, err := gate.Token()
		if err != nil {
			handleError(w, r, err)
			return
		}
		if h.backend == nil {
			respondError(w, http.StatusServiceUnavailable, "backend_unavailable", "admin backend is not configured")
			return
		}
		ctx := context.WithValue(r.Context(), adminTokenKey{}, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GET /api/v1/admin/dashboard
func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.backend.DashboardStats)
}

// GET /api/v1/admin/orders
func (h *AdminHandler) Orders(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.backend.Orders)
}

// GET /api/v1/admin/users
func (h *AdminHandler) Users(w http.ResponseWriter, r *http.Request) {
	h.proxy(w, r, h.backend.Users)
}

// PUT /api/v1/admin/orders/{id}
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderStatusRequestDTO
	if err := decodeBody(r, orderStatusSchema, &req, false); err != nil {
		respondBadBody(w, err)
		return
	}

	orderID := chi.URLParam(r, "id")
	h.proxy(w, r, func(ctx context.Context, token string) (json.RawMessage, error) {
		return h.backend.UpdateOrderStatus(ctx, token, orderID, req.Status)
	})
}

func (h *AdminHandler) proxy(w http.ResponseWriter, r *http.Request, call func(context.Context, string) (json.RawMessage, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	token, _ := ctx.Value(adminTokenKey{}).(string)
	body, err := call(ctx, token)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if len(body) == 0 {
		body = json.RawMessage("{}")
	}
	respondJSON(w, http.StatusOK, body)
}
