package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/httputil"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/middleware"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/validator"
)

// CartHandler handles HTTP requests for cart endpoints. Response shapes are
// the literal ones the storefront SPA expects, not the shared envelope.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// AddCartItemRequest is the JSON request body for adding a cart item.
// Quantity defaults to 1 when omitted.
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateCartItemRequest is the JSON request body for setting a line quantity.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}

// statusResponse is the literal mutation acknowledgement shape.
type statusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Get handles GET /api/v1/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	summary, err := h.service.Summary(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, summary)
}

// Add handles POST /api/v1/cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req AddCartItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	if _, err := h.service.AddItem(r.Context(), userID, req.ProductID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Success: true, Message: "item added to cart"})
}

// Update handles PUT /api/v1/cart/{productId}
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	var req UpdateCartItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if _, err := h.service.UpdateItem(r.Context(), userID, productID, req.Quantity); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Message: "cart updated"})
}

// Remove handles DELETE /api/v1/cart/{productId}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	if _, err := h.service.RemoveItem(r.Context(), userID, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Message: "item removed from cart"})
}

// Clear handles DELETE /api/v1/cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	if _, err := h.service.Clear(r.Context(), userID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Message: "cart cleared"})
}
