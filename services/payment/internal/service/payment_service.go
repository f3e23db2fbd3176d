package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/common/events"
	"github.com/kyungseok/msa-payment-gateway-go/common/messaging"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/gateway"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/metrics"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/session"
)

const (
	opReady   = "ready"
	opApprove = "approve"
	opCancel  = "cancel"

	cleanupTimeout = 2 * time.Second
	publishTimeout = 3 * time.Second
)

// Config 결제 오케스트레이션 설정
type Config struct {
	// PublicBaseURL 게이트웨이가 사용자를 돌려보낼 외부 주소
	PublicBaseURL string
	// SessionTTL READY 세션 유지 시간 (결제창 유효 시간)
	SessionTTL time.Duration
	// ApprovedRetention 승인 후 취소를 위해 tid를 보관하는 기간
	ApprovedRetention time.Duration
	// LockTTL (회원, 주문) 잠금 유지 시간 (게이트웨이 타임아웃보다 길어야 함)
	LockTTL time.Duration
}

// PaymentService 결제 오케스트레이션 서비스 인터페이스
type PaymentService interface {
	Ready(ctx context.Context, member domain.Member, orderID int64) (*gateway.ReadyResponse, error)
	Approve(ctx context.Context, member domain.Member, orderID int64, pgToken string) (*gateway.ApproveResponse, error)
	Cancel(ctx context.Context, member domain.Member, orderID int64) (*gateway.CancelResponse, error)
	RedirectCanceled(ctx context.Context, member domain.Member, orderID int64) error
	RedirectFailed(ctx context.Context, member domain.Member, orderID int64) error
}

type paymentService struct {
	config     Config
	aggregator *OrderAggregator
	store      session.Store
	gateway    gateway.Client
	publisher  messaging.Publisher
	logger     *zap.Logger
	now        func() time.Time
}

// NewPaymentService 결제 서비스 생성
func NewPaymentService(
	config Config,
	aggregator *OrderAggregator,
	store session.Store,
	gatewayClient gateway.Client,
	publisher messaging.Publisher,
	logger *zap.Logger,
) PaymentService {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	return &paymentService{
		config:     config,
		aggregator: aggregator,
		store:      store,
		gateway:    gatewayClient,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Ready 결제 준비: NO_SESSION -> READY
func (s *paymentService) Ready(ctx context.Context, member domain.Member, orderID int64) (resp *gateway.ReadyResponse, err error) {
	defer s.observe(opReady, member, orderID, time.Now(), &err)

	order, summary, err := s.aggregator.Aggregate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.OwnedBy(member) {
		return nil, domainerrors.New(domainerrors.ErrCodeOrderOwnerMismatch, "order does not belong to member")
	}

	key := domain.SessionKey{MemberID: member.ID, OrderID: orderID}
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer s.unlock(ctx, key, unlock)

	existing, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeStoreError, "failed to read payment session", err)
	}
	if domain.StateOf(existing) == domain.SessionStateApproved {
		return nil, domainerrors.New(domainerrors.ErrCodeSessionConflict, "payment already approved for order")
	}

	resp, err = s.gateway.Ready(ctx, gateway.ReadyRequest{
		PartnerOrderID: domain.PartnerOrderID(orderID),
		PartnerUserID:  domain.PartnerUserID(member.ID),
		ItemName:       summary.ItemName,
		Quantity:       summary.TotalQuantity,
		TotalAmount:    summary.TotalAmount,
		TaxFreeAmount:  summary.TaxFreeAmount,
		ApprovalURL:    s.redirectURL(orderID, "success"),
		CancelURL:      s.redirectURL(orderID, "cancel"),
		FailURL:        s.redirectURL(orderID, "fail"),
	})
	if err != nil {
		return nil, err
	}

	if existing != nil {
		s.logger.Info("replacing previous ready session",
			zap.Int64("memberId", member.ID),
			zap.Int64("orderId", orderID),
			zap.String("previousTid", existing.TID),
			zap.String("tid", resp.TID))
	}

	if err := s.store.Save(ctx, domain.NewReadySession(key, resp.TID, s.now()), s.config.SessionTTL); err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeStoreError, "failed to save payment session", err)
	}

	s.publish(ctx, events.EventPaymentReady, orderID, events.PaymentReadyEvent{
		BaseEvent:   events.NewBaseEvent(events.EventPaymentReady, resp.TID, s.now()),
		OrderID:     orderID,
		MemberID:    member.ID,
		TID:         resp.TID,
		TotalAmount: summary.TotalAmount,
		Quantity:    summary.TotalQuantity,
	})

	return resp, nil
}

// Approve 결제 승인: READY -> APPROVED
func (s *paymentService) Approve(ctx context.Context, member domain.Member, orderID int64, pgToken string) (resp *gateway.ApproveResponse, err error) {
	defer s.observe(opApprove, member, orderID, time.Now(), &err)

	key := domain.SessionKey{MemberID: member.ID, OrderID: orderID}
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer s.unlock(ctx, key, unlock)

	current, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeStoreError, "failed to read payment session", err)
	}
	if !current.CanApprove() {
		return nil, domainerrors.New(domainerrors.ErrCodeSessionNotFound,
			fmt.Sprintf("no ready payment session (state=%s)", domain.StateOf(current)))
	}

	resp, err = s.gateway.Approve(ctx, gateway.ApproveRequest{
		TID:            current.TID,
		PartnerOrderID: current.PartnerOrderID,
		PartnerUserID:  current.PartnerUserID,
		PGToken:        pgToken,
	})
	if err != nil {
		return nil, err
	}

	// 가맹점 식별자는 제거하고 tid는 취소를 위해 보관 기간 동안 유지
	current.MarkApproved(s.now())
	if err := s.cleanup(ctx, opApprove, func(ctx context.Context) error {
		return s.store.Save(ctx, current, s.config.ApprovedRetention)
	}); err != nil {
		s.logger.Warn("failed to mark payment session approved",
			zap.Int64("memberId", member.ID),
			zap.Int64("orderId", orderID),
			zap.String("tid", current.TID),
			zap.Error(err))
	}

	s.publish(ctx, events.EventPaymentApproved, orderID, events.PaymentApprovedEvent{
		BaseEvent:         events.NewBaseEvent(events.EventPaymentApproved, resp.TID, s.now()),
		OrderID:           orderID,
		MemberID:          member.ID,
		TID:               resp.TID,
		AID:               resp.AID,
		PaymentMethodType: resp.PaymentMethodType,
		TotalAmount:       resp.Amount.Total,
	})

	return resp, nil
}

// Cancel 결제 취소: READY | APPROVED -> CANCELLED
func (s *paymentService) Cancel(ctx context.Context, member domain.Member, orderID int64) (resp *gateway.CancelResponse, err error) {
	defer s.observe(opCancel, member, orderID, time.Now(), &err)

	order, err := s.aggregator.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// 소유자 검증은 세션 저장소/게이트웨이 접근 전에 수행
	if !order.OwnedBy(member) {
		return nil, domainerrors.New(domainerrors.ErrCodeOrderOwnerMismatch, "order does not belong to member")
	}

	key := domain.SessionKey{MemberID: member.ID, OrderID: orderID}
	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer s.unlock(ctx, key, unlock)

	current, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeStoreError, "failed to read payment session", err)
	}
	if !current.CanCancel() {
		return nil, domainerrors.New(domainerrors.ErrCodeSessionNotFound, "no payment session to cancel")
	}

	// 취소 금액은 요청 값이 아니라 현재 주문 상품으로 재계산
	summary, err := s.aggregator.Summarize(ctx, order)
	if err != nil {
		// 세션(tid)은 남겨두어 운영자가 게이트웨이에서 직접 처리할 수 있게 함
		s.logger.Warn("cannot compute cancel amount for payment session",
			zap.Int64("memberId", member.ID),
			zap.Int64("orderId", orderID),
			zap.String("tid", current.TID),
			zap.String("state", string(current.State)),
			zap.Error(err))
		return nil, err
	}

	resp, err = s.gateway.Cancel(ctx, gateway.CancelRequest{
		TID:                 current.TID,
		CancelAmount:        summary.TotalAmount,
		CancelTaxFreeAmount: summary.TaxFreeAmount,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cleanup(ctx, opCancel, func(ctx context.Context) error {
		return s.store.Delete(ctx, key)
	}); err != nil {
		s.logger.Warn("failed to delete canceled payment session",
			zap.Int64("memberId", member.ID),
			zap.Int64("orderId", orderID),
			zap.String("tid", current.TID),
			zap.Error(err))
	}

	s.publish(ctx, events.EventPaymentCanceled, orderID, events.PaymentCanceledEvent{
		BaseEvent:      events.NewBaseEvent(events.EventPaymentCanceled, current.TID, s.now()),
		OrderID:        orderID,
		MemberID:       member.ID,
		TID:            current.TID,
		CanceledAmount: summary.TotalAmount,
		Status:         resp.Status,
	})

	return resp, nil
}

// RedirectCanceled 사용자가 결제창에서 취소
func (s *paymentService) RedirectCanceled(ctx context.Context, member domain.Member, orderID int64) error {
	s.logger.Info("payment canceled by user",
		zap.Int64("memberId", member.ID),
		zap.Int64("orderId", orderID))
	return domainerrors.New(domainerrors.ErrCodePaymentCanceled, "payment canceled by user")
}

// RedirectFailed 결제창에서 결제 실패
func (s *paymentService) RedirectFailed(ctx context.Context, member domain.Member, orderID int64) error {
	s.logger.Warn("payment failed at gateway checkout",
		zap.Int64("memberId", member.ID),
		zap.Int64("orderId", orderID))
	return domainerrors.New(domainerrors.ErrCodePaymentFailed, "payment failed")
}

func (s *paymentService) lock(ctx context.Context, key domain.SessionKey) (session.UnlockFunc, error) {
	unlock, err := s.store.Lock(ctx, key, s.config.LockTTL)
	if errors.Is(err, session.ErrLocked) {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeSessionConflict, "payment for order is already in progress", err)
	}
	if err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeStoreError, "failed to lock payment session", err)
	}
	return unlock, nil
}

func (s *paymentService) unlock(ctx context.Context, key domain.SessionKey, unlock session.UnlockFunc) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := unlock(ctx); err != nil {
		s.logger.Warn("failed to release payment session lock",
			zap.Int64("memberId", key.MemberID),
			zap.Int64("orderId", key.OrderID),
			zap.Error(err))
	}
}

// cleanup 게이트웨이 성공 이후의 정리 작업 (호출자 취소와 무관하게 수행, 실패는 로그만)
func (s *paymentService) cleanup(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		metrics.IncSessionCleanupFailure(operation)
		return err
	}
	return nil
}

func (s *paymentService) publish(ctx context.Context, eventType events.EventType, orderID int64, event interface{}) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := messaging.PublishWithOrderID(ctx, s.publisher, string(eventType), orderID, event); err != nil {
		s.logger.Warn("failed to publish payment event",
			zap.String("eventType", string(eventType)),
			zap.Int64("orderId", orderID),
			zap.Error(err))
	}
}

func (s *paymentService) observe(operation string, member domain.Member, orderID int64, start time.Time, errp *error) {
	result := "ok"
	if *errp != nil {
		result = string(domainerrors.CodeOf(*errp))
		// FAILED는 저장하지 않고 보고만 함
		s.logger.Warn("payment operation failed",
			zap.String("operation", operation),
			zap.String("state", "FAILED"),
			zap.Int64("memberId", member.ID),
			zap.Int64("orderId", orderID),
			zap.String("code", result),
			zap.Error(*errp))
	}
	metrics.ObserveOperation(operation, result, time.Since(start))
}

func (s *paymentService) redirectURL(orderID int64, outcome string) string {
	return fmt.Sprintf("%s/payments/%d/%s", strings.TrimRight(s.config.PublicBaseURL, "/"), orderID, outcome)
}
