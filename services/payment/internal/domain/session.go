package domain

import (
	"strconv"
	"time"
)

// SessionState 결제 세션 상태
type SessionState string

const (
	SessionStateNone      SessionState = "NO_SESSION"
	SessionStateReady     SessionState = "READY"
	SessionStateApproved  SessionState = "APPROVED"
	SessionStateCancelled SessionState = "CANCELLED"
)

// SessionKey 결제 세션 식별자 (회원, 주문)
type SessionKey struct {
	MemberID int64
	OrderID  int64
}

// PaymentSession 결제 진행 상태 (Redis에만 저장, 영속화하지 않음)
type PaymentSession struct {
	MemberID       int64        `json:"memberId"`
	OrderID        int64        `json:"orderId"`
	State          SessionState `json:"state"`
	TID            string       `json:"tid"`
	PartnerOrderID string       `json:"partnerOrderId,omitempty"`
	PartnerUserID  string       `json:"partnerUserId,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// PartnerOrderID 가맹점 주문번호 (주문 ID에서 결정적으로 생성)
func PartnerOrderID(orderID int64) string {
	return strconv.FormatInt(orderID, 10)
}

// PartnerUserID 가맹점 회원번호 (회원 ID에서 결정적으로 생성)
func PartnerUserID(memberID int64) string {
	return strconv.FormatInt(memberID, 10)
}

// NewReadySession 결제 준비 완료 세션 생성
func NewReadySession(key SessionKey, tid string, now time.Time) *PaymentSession {
	return &PaymentSession{
		MemberID:       key.MemberID,
		OrderID:        key.OrderID,
		State:          SessionStateReady,
		TID:            tid,
		PartnerOrderID: PartnerOrderID(key.OrderID),
		PartnerUserID:  PartnerUserID(key.MemberID),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Key 세션 식별자
func (s *PaymentSession) Key() SessionKey {
	return SessionKey{MemberID: s.MemberID, OrderID: s.OrderID}
}

// StateOf nil 세션은 NO_SESSION
func StateOf(s *PaymentSession) SessionState {
	if s == nil || s.State == "" {
		return SessionStateNone
	}
	return s.State
}

// CanApprove 승인 가능 여부 (READY 상태이고 상관 식별자가 모두 존재)
func (s *PaymentSession) CanApprove() bool {
	return StateOf(s) == SessionStateReady &&
		s.TID != "" && s.PartnerOrderID != "" && s.PartnerUserID != ""
}

// CanCancel 취소 가능 여부 (tid가 남아있는 READY 또는 APPROVED)
func (s *PaymentSession) CanCancel() bool {
	state := StateOf(s)
	return (state == SessionStateReady || state == SessionStateApproved) && s.TID != ""
}

// MarkApproved READY -> APPROVED 전이 (가맹점 식별자는 제거하고 tid만 유지)
func (s *PaymentSession) MarkApproved(now time.Time) bool {
	if !s.CanApprove() {
		return false
	}
	s.State = SessionStateApproved
	s.PartnerOrderID = ""
	s.PartnerUserID = ""
	s.UpdatedAt = now
	return true
}
