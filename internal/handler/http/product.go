package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/service"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/httputil"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/validator"
)

// ProductHandler handles HTTP requests for catalog product endpoints.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{service: svc, logger: logger}
}

// ProductListResponse is a page of products with paging metadata.
type ProductListResponse struct {
	Products any             `json:"products"`
	Meta     pagination.Meta `json:"meta"`
}

// List handles GET /api/v1/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.ProductFilter{
		CategoryID: q.Get("category"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sort"),
	}
	page := pagination.FromRequest(r)

	products, meta, err := h.service.ListProducts(r.Context(), filter, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: ProductListResponse{Products: products, Meta: meta},
	})
}

// Get handles GET /api/v1/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// GetBySlug handles GET /api/v1/products/slug/{slug}
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProductBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Create handles POST /api/v1/products (admin)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.CreateProductInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// Update handles PUT /api/v1/products/{id} (admin)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var input service.UpdateProductInput
	if err := validator.DecodeAndValidate(r, &input); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// Delete handles DELETE /api/v1/products/{id} (admin)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
