package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/repository"
)

// OrderAggregator 주문 상품 집계기 (금액은 항상 서버에서 다시 계산)
type OrderAggregator struct {
	orderRepo repository.OrderRepository
}

// NewOrderAggregator 주문 집계기 생성
func NewOrderAggregator(orderRepo repository.OrderRepository) *OrderAggregator {
	return &OrderAggregator{orderRepo: orderRepo}
}

// FindOrder 주문 조회
func (a *OrderAggregator) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	order, err := a.orderRepo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to find order")
	}
	return order, nil
}

// Aggregate 주문과 주문 상품을 동시에 조회하여 집계
func (a *OrderAggregator) Aggregate(ctx context.Context, orderID int64) (*domain.Order, *domain.OrderSummary, error) {
	var (
		order *domain.Order
		items []domain.LineItem
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		order, err = a.FindOrder(gctx, orderID)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = a.orderRepo.FindLineItems(gctx, orderID)
		if err != nil {
			return mapRepositoryError(err, "failed to find line items")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	summary, err := a.summarizeItems(ctx, orderID, items)
	if err != nil {
		return nil, nil, err
	}
	return order, summary, nil
}

// Summarize 이미 조회한 주문의 현재 상품 기준으로 재집계 (취소 금액 계산용)
func (a *OrderAggregator) Summarize(ctx context.Context, order *domain.Order) (*domain.OrderSummary, error) {
	items, err := a.orderRepo.FindLineItems(ctx, order.ID)
	if err != nil {
		return nil, mapRepositoryError(err, "failed to find line items")
	}
	return a.summarizeItems(ctx, order.ID, items)
}

func (a *OrderAggregator) summarizeItems(ctx context.Context, orderID int64, items []domain.LineItem) (*domain.OrderSummary, error) {
	if len(items) == 0 {
		return nil, domainerrors.New(domainerrors.ErrCodeInvalidOrder, "order has no line items")
	}

	firstName, err := a.orderRepo.FindProductName(ctx, items[0].ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, domainerrors.Wrap(domainerrors.ErrCodeInvalidOrder, "line item product not found", err)
		}
		return nil, mapRepositoryError(err, "failed to find product name")
	}

	summary := domain.Summarize(orderID, items, firstName)
	if summary.TotalAmount <= 0 || summary.TotalQuantity <= 0 {
		return nil, domainerrors.New(domainerrors.ErrCodeInvalidOrder,
			fmt.Sprintf("order total must be positive (amount=%d, quantity=%d)", summary.TotalAmount, summary.TotalQuantity))
	}
	return &summary, nil
}

func mapRepositoryError(err error, message string) error {
	switch {
	case errors.Is(err, repository.ErrOrderNotFound):
		return domainerrors.Wrap(domainerrors.ErrCodeOrderNotFound, "order not found", err)
	case errors.Is(err, repository.ErrQueryCanceled), errors.Is(err, context.DeadlineExceeded):
		return domainerrors.Wrap(domainerrors.ErrCodeTimeoutError, message, err)
	default:
		return domainerrors.Wrap(domainerrors.ErrCodeDatabaseError, message, err)
	}
}
