package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 에러 코드 정의
type ErrorCode string

const (
	// Business Errors
	ErrCodeOrderNotFound      ErrorCode = "ORDER_NOT_FOUND"
	ErrCodeOrderOwnerMismatch ErrorCode = "ORDER_OWNER_MISMATCH"
	ErrCodeInvalidOrder       ErrorCode = "INVALID_ORDER"
	ErrCodeSessionNotFound    ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionConflict    ErrorCode = "SESSION_CONFLICT"
	ErrCodeUnauthenticated    ErrorCode = "UNAUTHENTICATED"
	ErrCodePaymentCanceled    ErrorCode = "PAYMENT_CANCELED"
	ErrCodePaymentFailed      ErrorCode = "PAYMENT_FAILED"

	// Gateway Errors
	ErrCodeGatewayInitiateFailed ErrorCode = "GATEWAY_INITIATE_FAILED"
	ErrCodeGatewayApproveFailed  ErrorCode = "GATEWAY_APPROVE_FAILED"
	ErrCodeGatewayCancelFailed   ErrorCode = "GATEWAY_CANCEL_FAILED"

	// Technical Errors
	ErrCodeStoreError         ErrorCode = "STORE_ERROR"
	ErrCodeDatabaseError      ErrorCode = "DATABASE_ERROR"
	ErrCodeTimeoutError       ErrorCode = "TIMEOUT_ERROR"
	ErrCodeSerializationError ErrorCode = "SERIALIZATION_ERROR"
	ErrCodeUnknownError       ErrorCode = "UNKNOWN_ERROR"
)

// DomainError 도메인 에러 구조체
type DomainError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// New 새로운 도메인 에러 생성
func New(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Wrap 기존 에러를 래핑한 도메인 에러 생성
func Wrap(code ErrorCode, message string, cause error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf 에러 체인에서 도메인 에러 코드 추출 (없으면 UNKNOWN_ERROR)
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ErrCodeUnknownError
}

// Is 에러 체인에 주어진 코드의 도메인 에러가 있는지 확인
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}

// IsRetryable 재시도 가능한 에러인지 판단
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeGatewayInitiateFailed, ErrCodeGatewayApproveFailed, ErrCodeGatewayCancelFailed,
		ErrCodeStoreError, ErrCodeDatabaseError, ErrCodeTimeoutError:
		return true
	}
	return false
}

// IsBusinessError 비즈니스 에러인지 판단 (재시도 불필요)
func IsBusinessError(err error) bool {
	switch CodeOf(err) {
	case ErrCodeOrderNotFound, ErrCodeOrderOwnerMismatch, ErrCodeInvalidOrder,
		ErrCodeSessionNotFound, ErrCodeSessionConflict, ErrCodeUnauthenticated,
		ErrCodePaymentCanceled, ErrCodePaymentFailed:
		return true
	}
	return false
}

// HTTPStatus 에러 코드를 HTTP 상태 코드로 매핑
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeOrderNotFound, ErrCodeSessionNotFound:
		return http.StatusNotFound
	case ErrCodeOrderOwnerMismatch:
		return http.StatusForbidden
	case ErrCodeInvalidOrder, ErrCodePaymentCanceled, ErrCodePaymentFailed:
		return http.StatusBadRequest
	case ErrCodeSessionConflict:
		return http.StatusConflict
	case ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrCodeGatewayInitiateFailed, ErrCodeGatewayApproveFailed, ErrCodeGatewayCancelFailed:
		return http.StatusBadGateway
	case ErrCodeStoreError:
		return http.StatusServiceUnavailable
	case ErrCodeTimeoutError:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
