package handler

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/common/events"
	"github.com/kyungseok/msa-payment-gateway-go/common/messaging"
	"github.com/kyungseok/msa-payment-gateway-go/common/retry"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/service"
)

// EventHandler 이벤트 핸들러
type EventHandler struct {
	paymentService     service.PaymentService
	orderCanceledTopic string
	retryConfig        retry.Config
	logger             *zap.Logger
}

// NewEventHandler 이벤트 핸들러 생성 (재시도는 재시도 가능한 에러에만 적용)
func NewEventHandler(
	paymentService service.PaymentService,
	orderCanceledTopic string,
	retryConfig retry.Config,
	logger *zap.Logger,
) *EventHandler {
	if orderCanceledTopic == "" {
		orderCanceledTopic = string(events.EventOrderCanceled)
	}
	retryConfig.Retryable = retryableCancelError
	return &EventHandler{
		paymentService:     paymentService,
		orderCanceledTopic: orderCanceledTopic,
		retryConfig:        retryConfig,
		logger:             logger,
	}
}

// retryableCancelError 진행 중인 요청의 잠금(SESSION_CONFLICT)은 해제될 때까지 재시도
func retryableCancelError(err error) bool {
	return domainerrors.IsRetryable(err) || domainerrors.Is(err, domainerrors.ErrCodeSessionConflict)
}

// HandleMessage 메시지 처리
func (h *EventHandler) HandleMessage(ctx context.Context, msg *messaging.Message) error {
	h.logger.Info("received message",
		zap.String("topic", msg.Topic),
		zap.Int64("offset", msg.Offset))

	switch msg.Topic {
	case h.orderCanceledTopic:
		return h.handleOrderCanceled(ctx, msg)
	default:
		h.logger.Warn("unknown event type", zap.String("topic", msg.Topic))
		return nil
	}
}

// handleOrderCanceled 주문 취소 시 결제 취소 (보상)
func (h *EventHandler) handleOrderCanceled(ctx context.Context, msg *messaging.Message) error {
	var evt events.OrderCanceledEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return domainerrors.Wrap(domainerrors.ErrCodeSerializationError, "failed to decode order canceled event", err)
	}

	member := domain.Member{ID: evt.UserID}
	err := retry.Do(ctx, h.retryConfig, h.logger, func(ctx context.Context) error {
		_, err := h.paymentService.Cancel(ctx, member, evt.OrderID)
		return err
	})

	switch {
	case err == nil:
		h.logger.Info("payment canceled for canceled order",
			zap.String("eventId", evt.EventID),
			zap.Int64("orderId", evt.OrderID),
			zap.Int64("memberId", evt.UserID))
		return nil
	case domainerrors.Is(err, domainerrors.ErrCodeSessionNotFound):
		// 진행 중이거나 승인된 결제가 없음
		h.logger.Info("no payment to cancel for canceled order",
			zap.String("eventId", evt.EventID),
			zap.Int64("orderId", evt.OrderID))
		return nil
	default:
		h.logger.Error("failed to cancel payment for canceled order",
			zap.String("eventId", evt.EventID),
			zap.Int64("orderId", evt.OrderID),
			zap.String("code", string(domainerrors.CodeOf(err))),
			zap.Error(err))
		return err
	}
}
