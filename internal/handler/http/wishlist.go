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

// WishlistHandler handles HTTP requests for wishlist endpoints, in the
// literal shapes the storefront SPA expects.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// AddWishlistItemRequest is the JSON request body for saving a product.
type AddWishlistItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type wishlistResponse struct {
	Success  bool                    `json:"success"`
	Wishlist []service.WishlistEntry `json:"wishlist"`
}

type wishlistCheckResponse struct {
	Success      bool `json:"success"`
	IsInWishlist bool `json:"isInWishlist"`
}

// List handles GET /api/v1/wishlist
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	entries, err := h.service.List(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, wishlistResponse{Success: true, Wishlist: entries})
}

// Add handles POST /api/v1/wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())

	var req AddWishlistItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := h.service.AddItem(r.Context(), userID, req.ProductID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, statusResponse{Success: true, Message: "item added to wishlist"})
}

// Remove handles DELETE /api/v1/wishlist/{productId}
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productId")
	if productID == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("product id is required"), h.logger)
		return
	}

	if err := h.service.RemoveItem(r.Context(), userID, productID); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, statusResponse{Success: true, Message: "item removed from wishlist"})
}

// Check handles GET /api/v1/wishlist/check/{productId}
func (h *WishlistHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	in, err := h.service.Contains(r.Context(), userID, productID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, wishlistCheckResponse{Success: true, IsInWishlist: in})
}
