package postgres

import (
	"context"
	"encoding/json"
	"testing"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shazneenislam/dhakaagro-sub000/internal/domain"
	apperrors "github.com/Shazneenislam/dhakaagro-sub000/pkg/errors"
	"github.com/Shazneenislam/dhakaagro-sub000/pkg/pagination"
)

func sampleOrder() domain.Order {
	return domain.Order{
		ID:          "order-1",
		UserID:      "user-1",
		Status:      domain.OrderStatusPending,
		TotalAmount: 1350,
		Items: []domain.OrderItem{
			{ProductID: "prod-1", ProductName: "Fresh Tomatoes", UnitPrice: 450, Quantity: 3},
		},
		ShippingAddress: domain.Address{
			FullName:    "Alice Rahman",
			AddressLine: "12 Green Road",
			City:        "Dhaka",
			PostalCode:  "1205",
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_Create_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	addressJSON, _ := json.Marshal(o.ShippingAddress)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.UserID, o.Status, o.TotalAmount, addressJSON, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, "prod-1", "Fresh Tomatoes", int64(450), 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(3, pgxmock.AnyArg(), "prod-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &o)

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_Create_InsufficientStock(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	addressJSON, _ := json.Marshal(o.ShippingAddress)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO orders").
		WithArgs(o.ID, o.UserID, o.Status, o.TotalAmount, addressJSON, o.CreatedAt, o.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO order_items").
		WithArgs(o.ID, "prod-1", "Fresh Tomatoes", int64(450), 3).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	// Guarded decrement matches no row: stock fell below the order quantity.
	mock.ExpectExec("UPDATE products SET stock = stock -").
		WithArgs(3, pgxmock.AnyArg(), "prod-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectQuery("SELECT stock FROM products").
		WithArgs("prod-1").
		WillReturnRows(pgxmock.NewRows([]string{"stock"}).AddRow(2))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &o)

	assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "only 2 available")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "status", "total_amount", "shipping_address",
			"created_at", "updated_at", "items",
		}))

	_, err := repo.GetByID(context.Background(), "missing")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_GetByID_Success(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	addressJSON, _ := json.Marshal(o.ShippingAddress)
	itemsJSON, _ := json.Marshal(o.Items)

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(o.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "status", "total_amount", "shipping_address",
			"created_at", "updated_at", "items",
		}).AddRow(o.ID, o.UserID, o.Status, o.TotalAmount, addressJSON, o.CreatedAt, o.UpdatedAt, itemsJSON))

	got, err := repo.GetByID(context.Background(), o.ID)

	require.NoError(t, err)
	assert.Equal(t, o.TotalAmount, got.TotalAmount)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Fresh Tomatoes", got.Items[0].ProductName)
	assert.Equal(t, "Dhaka", got.ShippingAddress.City)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_ListByUserID(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	o := sampleOrder()
	addressJSON, _ := json.Marshal(o.ShippingAddress)
	itemsJSON, _ := json.Marshal(o.Items)

	mock.ExpectQuery("SELECT .+ FROM orders").
		WithArgs(o.UserID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "status", "total_amount", "shipping_address",
			"created_at", "updated_at", "items",
		}).AddRow(o.ID, o.UserID, o.Status, o.TotalAmount, addressJSON, o.CreatedAt, o.UpdatedAt, itemsJSON))
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(o.UserID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))

	got, total, err := repo.ListByUserID(context.Background(), o.UserID, pagination.Params{Page: 1, Limit: 20})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders SET status =").
		WithArgs(domain.OrderStatusPaid, pgxmock.AnyArg(), "order-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "order-1", domain.OrderStatusPaid))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_UpdateStatus_NotFound(t *testing.T) {
	mock := newMock(t)
	defer mock.Close()
	repo := NewOrderRepository(mock)

	mock.ExpectExec("UPDATE orders SET status =").
		WithArgs(domain.OrderStatusPaid, pgxmock.AnyArg(), "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), "missing", domain.OrderStatusPaid)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
