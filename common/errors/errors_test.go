package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := New(ErrCodeSessionNotFound, "no ready session")
	assert.Equal(t, "[SESSION_NOT_FOUND] no ready session", err.Error())

	wrapped := Wrap(ErrCodeStoreError, "failed to read session", stderrors.New("connection refused"))
	assert.Equal(t, "[STORE_ERROR] failed to read session: connection refused", wrapped.Error())
}

func TestCodeOf_WalksErrorChain(t *testing.T) {
	inner := New(ErrCodeOrderNotFound, "order not found")
	outer := fmt.Errorf("ready: %w", inner)

	assert.Equal(t, ErrCodeOrderNotFound, CodeOf(outer))
	assert.True(t, Is(outer, ErrCodeOrderNotFound))
	assert.False(t, Is(nil, ErrCodeOrderNotFound))
	assert.Equal(t, ErrCodeUnknownError, CodeOf(stderrors.New("plain")))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := Wrap(ErrCodeGatewayCancelFailed, "cancel failed", cause)
	assert.True(t, stderrors.Is(err, cause))
}

func TestClassification(t *testing.T) {
	tests := []struct {
		code      ErrorCode
		retryable bool
		business  bool
		status    int
	}{
		{ErrCodeOrderNotFound, false, true, http.StatusNotFound},
		{ErrCodeOrderOwnerMismatch, false, true, http.StatusForbidden},
		{ErrCodeInvalidOrder, false, true, http.StatusBadRequest},
		{ErrCodeSessionNotFound, false, true, http.StatusNotFound},
		{ErrCodeSessionConflict, false, true, http.StatusConflict},
		{ErrCodeUnauthenticated, false, true, http.StatusUnauthorized},
		{ErrCodePaymentCanceled, false, true, http.StatusBadRequest},
		{ErrCodePaymentFailed, false, true, http.StatusBadRequest},
		{ErrCodeGatewayInitiateFailed, true, false, http.StatusBadGateway},
		{ErrCodeGatewayApproveFailed, true, false, http.StatusBadGateway},
		{ErrCodeGatewayCancelFailed, true, false, http.StatusBadGateway},
		{ErrCodeStoreError, true, false, http.StatusServiceUnavailable},
		{ErrCodeTimeoutError, true, false, http.StatusGatewayTimeout},
		{ErrCodeSerializationError, false, false, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			err := New(tt.code, "x")
			assert.Equal(t, tt.retryable, IsRetryable(err))
			assert.Equal(t, tt.business, IsBusinessError(err))
			assert.Equal(t, tt.status, HTTPStatus(err))
		})
	}
}
