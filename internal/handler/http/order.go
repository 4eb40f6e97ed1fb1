package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/httputil"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/middleware"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/validator"
)

// OrderHandler handles HTTP requests for order endpoints.
type OrderHandler struct {
	service *service.OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(svc *service.OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{service: svc, logger: logger}
}

// UpdateOrderStatusRequest is the JSON request body for an admin status change.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderListResponse is a page of orders with paging metadata.
type OrderListResponse struct {
	Orders any             `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

// Checkout handles POST /api/v1/orders
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CheckoutInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.Checkout(r.Context(), userID, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// List handles GET /api/v1/orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	orders, meta, err := h.service.ListOrders(r.Context(), userID, pagination.FromRequest(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: OrderListResponse{Orders: orders, Meta: meta},
	})
}

// Get handles GET /api/v1/orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	order, err := h.service.GetOrder(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateStatus handles PUT /api/v1/orders/{id}/status (admin)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req UpdateOrderStatusRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
