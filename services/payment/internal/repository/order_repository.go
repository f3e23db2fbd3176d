package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
)

var (
	// ErrOrderNotFound 주문 없음
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound 상품 없음
	ErrProductNotFound = errors.New("product not found")
)

// OrderRepository 주문/주문상품 읽기 모델 인터페이스
type OrderRepository interface {
	FindOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	FindLineItems(ctx context.Context, orderID int64) ([]domain.LineItem, error)
	FindProductName(ctx context.Context, productID int64) (string, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository 주문 레포지토리 생성
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// FindOrder ID로 주문 조회
func (r *orderRepository) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	query := `
		SELECT id, member_id, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, orderID).Scan(
		&order.ID,
		&order.MemberID,
		&order.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", classify(err))
	}

	return order, nil
}

// FindLineItems 주문 상품 목록 조회 (등록 순)
func (r *orderRepository) FindLineItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	query := `
		SELECT id, order_id, product_id, count, total_price
		FROM order_items
		WHERE order_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to find line items: %w", classify(err))
	}
	defer rows.Close()

	var items []domain.LineItem
	for rows.Next() {
		var item domain.LineItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.LineTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan line item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate line items: %w", classify(err))
	}

	return items, nil
}

// FindProductName 상품명 조회
func (r *orderRepository) FindProductName(ctx context.Context, productID int64) (string, error) {
	query := `SELECT name FROM products WHERE id = $1`

	var name string
	err := r.db.QueryRowContext(ctx, query, productID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %d", ErrProductNotFound, productID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to find product name: %w", classify(err))
	}

	return name, nil
}

// ErrQueryCanceled statement_timeout 또는 취소로 중단된 쿼리
var ErrQueryCanceled = errors.New("query canceled")

// classify PostgreSQL 쿼리 취소(57014)를 ErrQueryCanceled로 변환
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "57014" {
		return fmt.Errorf("%w: %v", ErrQueryCanceled, err)
	}
	return err
}
