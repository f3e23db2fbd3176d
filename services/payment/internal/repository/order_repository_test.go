package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepository(t *testing.T) (OrderRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewOrderRepository(db), mock
}

func TestOrderRepository_FindOrder(t *testing.T) {
	repo, mock := newMockRepository(t)
	createdAt := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, member_id, created_at FROM orders WHERE id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "member_id", "created_at"}).
			AddRow(int64(1), int64(7), createdAt))

	order, err := repo.FindOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, int64(7), order.MemberID)
	assert.Equal(t, createdAt, order.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindOrder_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT id, member_id, created_at FROM orders`).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	order, err := repo.FindOrder(context.Background(), 99)
	assert.Nil(t, order)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_FindOrder_QueryCanceled(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT id, member_id, created_at FROM orders`).
		WithArgs(int64(1)).
		WillReturnError(&pq.Error{Code: "57014", Message: "canceling statement due to statement timeout"})

	_, err := repo.FindOrder(context.Background(), 1)
	assert.ErrorIs(t, err, ErrQueryCanceled)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
}

func TestOrderRepository_FindLineItems(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT id, order_id, product_id, count, total_price FROM order_items WHERE order_id = \$1 ORDER BY id ASC`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "count", "total_price"}).
			AddRow(int64(10), int64(1), int64(100), 1, int64(5000)).
			AddRow(int64(11), int64(1), int64(200), 2, int64(10000)))

	items, err := repo.FindLineItems(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(100), items[0].ProductID)
	assert.Equal(t, 2, items[1].Quantity)
	assert.Equal(t, int64(10000), items[1].LineTotal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOrderRepository_FindLineItems_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM order_items`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "count", "total_price"}))

	items, err := repo.FindLineItems(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOrderRepository_FindLineItems_QueryError(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`FROM order_items`).
		WithArgs(int64(1)).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindLineItems(context.Background(), 1)
	assert.ErrorContains(t, err, "failed to find line items")
}

func TestOrderRepository_FindProductName(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT name FROM products WHERE id = \$1`).
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("아메리카노"))
	mock.ExpectQuery(`SELECT name FROM products WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	name, err := repo.FindProductName(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, "아메리카노", name)

	_, err = repo.FindProductName(context.Background(), 404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
