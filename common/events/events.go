package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	// Order Events (구독)
	EventOrderCanceled EventType = "order.canceled.v1"

	// Payment Events (발행)
	EventPaymentReady    EventType = "payment.ready.v1"
	EventPaymentApproved EventType = "payment.approved.v1"
	EventPaymentCanceled EventType = "payment.canceled.v1"
)

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	EventID       string    `json:"eventId"`
	EventType     EventType `json:"eventType"`
	SchemaVersion int       `json:"schemaVersion"`
	OccurredAt    time.Time `json:"occurredAt"`
	CorrelationID string    `json:"correlationId"` // 결제 tid 사용
}

// NewBaseEvent 새 이벤트 헤더 생성
func NewBaseEvent(eventType EventType, correlationID string, now time.Time) BaseEvent {
	return BaseEvent{
		EventID:       uuid.New().String(),
		EventType:     eventType,
		SchemaVersion: 1,
		OccurredAt:    now,
		CorrelationID: correlationID,
	}
}

// OrderCanceledEvent 주문 취소 이벤트
type OrderCanceledEvent struct {
	BaseEvent
	OrderID int64  `json:"orderId"`
	UserID  int64  `json:"userId"`
	Reason  string `json:"reason"`
}

// PaymentReadyEvent 결제 준비 이벤트
type PaymentReadyEvent struct {
	BaseEvent
	OrderID     int64  `json:"orderId"`
	MemberID    int64  `json:"memberId"`
	TID         string `json:"tid"`
	TotalAmount int64  `json:"totalAmount"`
	Quantity    int    `json:"quantity"`
}

// PaymentApprovedEvent 결제 승인 이벤트
type PaymentApprovedEvent struct {
	BaseEvent
	OrderID           int64  `json:"orderId"`
	MemberID          int64  `json:"memberId"`
	TID               string `json:"tid"`
	AID               string `json:"aid"`
	PaymentMethodType string `json:"paymentMethodType"`
	TotalAmount       int64  `json:"totalAmount"`
}

// PaymentCanceledEvent 결제 취소 이벤트
type PaymentCanceledEvent struct {
	BaseEvent
	OrderID        int64  `json:"orderId"`
	MemberID       int64  `json:"memberId"`
	TID            string `json:"tid"`
	CanceledAmount int64  `json:"canceledAmount"`
	Status         string `json:"status"`
}
