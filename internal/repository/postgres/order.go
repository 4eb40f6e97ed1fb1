package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/database"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	db database.DBTX
}

// NewOrderRepository creates a PostgreSQL-backed order repository.
func NewOrderRepository(db database.DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts the order, its items, and the matching stock decrements in
// one transaction. The stock update is guarded so it can never go negative;
// a guard miss aborts the whole transaction with InsufficientStock.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	addressJSON, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return fmt.Errorf("marshal shipping address: %w", err)
	}

	orderQuery := `
		INSERT INTO orders (id, user_id, status, total_amount, shipping_address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.Exec(ctx, orderQuery,
		o.ID,
		o.UserID,
		o.Status,
		o.TotalAmount,
		addressJSON,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5)`
	stockQuery := `
		UPDATE products SET stock = stock - $1, updated_at = $2
		WHERE id = $3 AND stock >= $1`

	now := time.Now().UTC()
	for _, item := range o.Items {
		if _, err := tx.Exec(ctx, itemQuery, o.ID, item.ProductID, item.ProductName, item.UnitPrice, item.Quantity); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}

		ct, err := tx.Exec(ctx, stockQuery, item.Quantity, now, item.ProductID)
		if err != nil {
			return fmt.Errorf("decrement stock for %s: %w", item.ProductID, err)
		}
		if ct.RowsAffected() == 0 {
			// Guard miss: report how much is actually left. A vanished
			// product counts as zero available.
			var available int
			err := tx.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, item.ProductID).Scan(&available)
			if err != nil && !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("read stock for %s: %w", item.ProductID, err)
			}
			return apperrors.InsufficientStock(item.ProductID, available)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const orderSelect = `
	SELECT o.id, o.user_id, o.status, o.total_amount, o.shipping_address, o.created_at, o.updated_at,
		   COALESCE(
			   JSONB_AGG(
				   JSONB_BUILD_OBJECT(
					   'product_id', i.product_id,
					   'product_name', i.product_name,
					   'unit_price', i.unit_price,
					   'quantity', i.quantity
				   )
			   ) FILTER (WHERE i.product_id IS NOT NULL),
			   '[]'
		   ) AS items
	FROM orders o
	LEFT JOIN order_items i ON i.order_id = o.id`

// GetByID retrieves an order with its items in a single query.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	query := orderSelect + `
	WHERE o.id = $1
	GROUP BY o.id`

	var (
		o           domain.Order
		addressJSON []byte
		itemsJSON   []byte
	)
	err := r.db.QueryRow(ctx, query, id).Scan(
		&o.ID,
		&o.UserID,
		&o.Status,
		&o.TotalAmount,
		&addressJSON,
		&o.CreatedAt,
		&o.UpdatedAt,
		&itemsJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}

	if err := decodeOrderJSON(&o, addressJSON, itemsJSON); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUserID returns a page of the user's orders, newest first.
func (r *OrderRepository) ListByUserID(ctx context.Context, userID string, page pagination.Params) ([]*domain.Order, int64, error) {
	query := orderSelect + `
	WHERE o.user_id = $1
	GROUP BY o.id
	ORDER BY o.created_at DESC
	LIMIT $2 OFFSET $3`

	rows, err := r.db.Query(ctx, query, userID, page.Limit, page.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		var (
			o           domain.Order
			addressJSON []byte
			itemsJSON   []byte
		)
		if err := rows.Scan(
			&o.ID,
			&o.UserID,
			&o.Status,
			&o.TotalAmount,
			&addressJSON,
			&o.CreatedAt,
			&o.UpdatedAt,
			&itemsJSON,
		); err != nil {
			return nil, 0, fmt.Errorf("scan order row: %w", err)
		}
		if err := decodeOrderJSON(&o, addressJSON, itemsJSON); err != nil {
			return nil, 0, err
		}
		orders = append(orders, &o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate order rows: %w", err)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	return orders, total, nil
}

// UpdateStatus sets an order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id, status string) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}
	return nil
}

func decodeOrderJSON(o *domain.Order, addressJSON, itemsJSON []byte) error {
	if addressJSON != nil {
		if err := json.Unmarshal(addressJSON, &o.ShippingAddress); err != nil {
			return fmt.Errorf("unmarshal shipping address: %w", err)
		}
	}
	if itemsJSON != nil {
		if err := json.Unmarshal(itemsJSON, &o.Items); err != nil {
			return fmt.Errorf("unmarshal order items: %w", err)
		}
	}
	return nil
}
