package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/httputil"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/validator"
)

// CategoryHandler handles HTTP requests for category endpoints.
type CategoryHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewCategoryHandler creates a new category HTTP handler.
func NewCategoryHandler(svc *service.CatalogService, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{service: svc, logger: logger}
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: categories})
}

// Create handles POST /api/v1/categories (admin)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CreateCategoryInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	category, err := h.service.CreateCategory(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: category})
}

// Update handles PUT /api/v1/categories/{id} (admin)
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.UpdateCategoryInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	category, err := h.service.UpdateCategory(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: category})
}

// Delete handles DELETE /api/v1/categories/{id} (admin)
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
