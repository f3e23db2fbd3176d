package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/gateway"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/session"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) FindOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	args := m.Called(ctx, orderID)
	if order, ok := args.Get(0).(*domain.Order); ok {
		return order, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepository) FindLineItems(ctx context.Context, orderID int64) ([]domain.LineItem, error) {
	args := m.Called(ctx, orderID)
	if items, ok := args.Get(0).([]domain.LineItem); ok {
		return items, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockOrderRepository) FindProductName(ctx context.Context, productID int64) (string, error) {
	args := m.Called(ctx, productID)
	return args.String(0), args.Error(1)
}

type mockGatewayClient struct {
	mock.Mock
}

func (m *mockGatewayClient) Ready(ctx context.Context, req gateway.ReadyRequest) (*gateway.ReadyResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*gateway.ReadyResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGatewayClient) Approve(ctx context.Context, req gateway.ApproveRequest) (*gateway.ApproveResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*gateway.ApproveResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockGatewayClient) Cancel(ctx context.Context, req gateway.CancelRequest) (*gateway.CancelResponse, error) {
	args := m.Called(ctx, req)
	if resp, ok := args.Get(0).(*gateway.CancelResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Get(ctx context.Context, key domain.SessionKey) (*domain.PaymentSession, error) {
	args := m.Called(ctx, key)
	if s, ok := args.Get(0).(*domain.PaymentSession); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) Save(ctx context.Context, s *domain.PaymentSession, ttl time.Duration) error {
	return m.Called(ctx, s, ttl).Error(0)
}

func (m *mockStore) Delete(ctx context.Context, key domain.SessionKey) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockStore) Lock(ctx context.Context, key domain.SessionKey, ttl time.Duration) (session.UnlockFunc, error) {
	args := m.Called(ctx, key, ttl)
	if unlock, ok := args.Get(0).(session.UnlockFunc); ok {
		return unlock, args.Error(1)
	}
	return nil, args.Error(1)
}

func noopUnlock(context.Context) error { return nil }

// recordingPublisher 발행된 토픽 기록
type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	keys   []string
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, key string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, key)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.topics...)
}
