package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/slug"
)

// CreateProductInput holds the parameters for adding a catalog product.
type CreateProductInput struct {
	Name            string   `json:"name" validate:"required,min=2,max=200"`
	Description     string   `json:"description" validate:"max=5000"`
	CategoryID      *string  `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Price           int64    `json:"price" validate:"required,gt=0"`
	DiscountPercent int      `json:"discount_percent" validate:"gte=0,lte=100"`
	Stock           int      `json:"stock" validate:"gte=0"`
	Unit            string   `json:"unit" validate:"required"`
	Images          []string `json:"images" validate:"dive,url"`
}

// UpdateProductInput holds optional fields for a product update.
type UpdateProductInput struct {
	Name            *string  `json:"name,omitempty" validate:"omitempty,min=2,max=200"`
	Description     *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	CategoryID      *string  `json:"category_id,omitempty" validate:"omitempty,uuid4"`
	Price           *int64   `json:"price,omitempty" validate:"omitempty,gt=0"`
	DiscountPercent *int     `json:"discount_percent,omitempty" validate:"omitempty,gte=0,lte=100"`
	Stock           *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
	Unit            *string  `json:"unit,omitempty"`
	Images          []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	IsActive        *bool    `json:"is_active,omitempty"`
}

// CreateCategoryInput holds the parameters for adding a category.
type CreateCategoryInput struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Image string `json:"image" validate:"omitempty,url"`
}

// UpdateCategoryInput holds optional fields for a category update.
type UpdateCategoryInput struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Image *string `json:"image,omitempty" validate:"omitempty,url"`
}

// CatalogService implements product and category management.
type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	logger     *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		products:   products,
		categories: categories,
		logger:     logger,
	}
}

// CreateProduct adds a product to the catalog. The category, when given,
// must exist.
func (s *CatalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:              uuid.New().String(),
		Name:            input.Name,
		Slug:            slug.Make(input.Name),
		Description:     input.Description,
		CategoryID:      input.CategoryID,
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		Stock:           input.Stock,
		Unit:            input.Unit,
		Images:          input.Images,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product created",
		slog.String("product_id", product.ID),
		slog.String("slug", product.Slug),
	)

	return product, nil
}

// GetProduct retrieves one product.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("product", id)
	}
	return product, nil
}

// GetProductBySlug retrieves one product by its URL slug.
func (s *CatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*domain.Product, error) {
	product, err := s.products.GetBySlug(ctx, productSlug)
	if err != nil {
		return nil, apperrors.NotFound("product", productSlug)
	}
	return product, nil
}

// ListProducts returns a filtered catalog page.
func (s *CatalogService) ListProducts(ctx context.Context, filter repository.ProductFilter, page pagination.Params) ([]*domain.Product, pagination.Meta, error) {
	products, total, err := s.products.List(ctx, filter, page)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return products, pagination.NewMeta(page, total), nil
}

// UpdateProduct applies partial changes; a renamed product gets a new slug.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.NotFound("product", id)
	}

	if input.Name != nil {
		product.Name = *input.Name
		product.Slug = slug.Make(*input.Name)
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *input.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = input.CategoryID
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.DiscountPercent != nil {
		product.DiscountPercent = *input.DiscountPercent
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "product updated", slog.String("product_id", id))

	return product, nil
}

// DeleteProduct removes a product. Carts and wishlists referencing it keep
// their entries; those lines disappear from read summaries only.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "product deleted", slog.String("product_id", id))
	return nil
}

// CreateCategory adds a browsing category.
func (s *CatalogService) CreateCategory(ctx context.Context, input CreateCategoryInput) (*domain.Category, error) {
	now := time.Now().UTC()
	category := &domain.Category{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Slug:      slug.Make(input.Name),
		Image:     input.Image,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category created",
		slog.String("category_id", category.ID),
		slog.String("slug", category.Slug),
	)

	return category, nil
}

// UpdateCategory applies partial changes; a renamed category gets a new slug.
func (s *CatalogService) UpdateCategory(ctx context.Context, id string, input UpdateCategoryInput) (*domain.Category, error) {
	category, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		category.Name = *input.Name
		category.Slug = slug.Make(*input.Name)
	}
	if input.Image != nil {
		category.Image = *input.Image
	}
	category.UpdatedAt = time.Now().UTC()

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "category updated", slog.String("category_id", id))

	return category, nil
}

// ListCategories returns all categories.
func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.List(ctx)
}

// DeleteCategory removes a category.
func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "category deleted", slog.String("category_id", id))
	return nil
}
