package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/internal/repository"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/database"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

const productColumns = "id, name, slug, description, category_id, price, discount_percent, stock, unit, images, is_active, created_at, updated_at"

// ProductRepository implements repository.ProductRepository using PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a PostgreSQL-backed product repository.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// Create inserts a new product into the catalog.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, name, slug, description, category_id, price, discount_percent, stock, unit, images, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Slug,
		p.Description,
		p.CategoryID,
		p.Price,
		p.DiscountPercent,
		p.Stock,
		p.Unit,
		p.Images,
		p.IsActive,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanProduct(ctx, query, id)
}

// GetBySlug retrieves a product by its unique slug.
func (r *ProductRepository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanProduct(ctx, query, slug)
}

// GetByIDs returns the active products that exist among ids. Missing or
// delisted ids are absent from the result; callers treat absence as an
// unresolvable reference, not an error.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = ANY($1) AND is_active = TRUE`, productColumns)

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get products by ids: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		p, err := scanProductRow(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, nil
}

// List returns active products matching the filter with the total count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter, page pagination.Params) ([]*domain.Product, int64, error) {
	var (
		conditions = []string{"is_active = TRUE"}
		args       []any
		argIndex   = 1
	)

	if filter.CategoryID != "" {
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", argIndex))
		args = append(args, filter.CategoryID)
		argIndex++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+filter.Search+"%")
		argIndex++
	}

	orderBy := "created_at DESC"
	switch filter.SortBy {
	case "price_asc":
		orderBy = "price ASC"
	case "price_desc":
		orderBy = "price DESC"
	case "name":
		orderBy = "name ASC"
	}

	// count(*) OVER() yields the total in the same query.
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM products
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		productColumns, strings.Join(conditions, " AND "), orderBy, argIndex, argIndex+1,
	)
	args = append(args, page.Limit, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var (
		products = []*domain.Product{}
		total    int64
	)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID,
			&p.Name,
			&p.Slug,
			&p.Description,
			&p.CategoryID,
			&p.Price,
			&p.DiscountPercent,
			&p.Stock,
			&p.Unit,
			&p.Images,
			&p.IsActive,
			&p.CreatedAt,
			&p.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}

	return products, total, nil
}

// Update modifies an existing product.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET name = $1, slug = $2, description = $3, category_id = $4, price = $5,
		    discount_percent = $6, stock = $7, unit = $8, images = $9, is_active = $10, updated_at = $11
		WHERE id = $12`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Slug,
		p.Description,
		p.CategoryID,
		p.Price,
		p.DiscountPercent,
		p.Stock,
		p.Unit,
		p.Images,
		p.IsActive,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("product", "slug", p.Slug)
		}
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}

	return nil
}

// Delete removes a product from the catalog. Cart and wishlist references
// are left in place; read paths drop lines that no longer resolve.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

func (r *ProductRepository) scanProduct(ctx context.Context, query string, args ...any) (*domain.Product, error) {
	var p domain.Product
	err := r.db.QueryRow(ctx, query, args...).Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&p.Price,
		&p.DiscountPercent,
		&p.Stock,
		&p.Unit,
		&p.Images,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// scanProductRow scans one product from a multi-row result.
func scanProductRow(rows pgx.Rows) (*domain.Product, error) {
	var p domain.Product
	if err := rows.Scan(
		&p.ID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.CategoryID,
		&p.Price,
		&p.DiscountPercent,
		&p.Stock,
		&p.Unit,
		&p.Images,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan product row: %w", err)
	}
	return &p, nil
}

// isUniqueViolation checks for a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
