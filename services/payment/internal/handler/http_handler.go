package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/auth"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/domain"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/service"
)

// HTTPHandler HTTP 핸들러
type HTTPHandler struct {
	paymentService service.PaymentService
	logger         *zap.Logger
}

// NewHTTPHandler HTTP 핸들러 생성
func NewHTTPHandler(paymentService service.PaymentService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// ErrorResponse 에러 응답
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Register 라우트 등록 (결제 API는 인증 미들웨어를 거침)
func (h *HTTPHandler) Register(mux *http.ServeMux, authenticate func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /health", h.HealthCheck)

	mux.Handle("POST /payments/{orderId}/ready", authenticate(http.HandlerFunc(h.Ready)))
	mux.Handle("GET /payments/{orderId}/success", authenticate(http.HandlerFunc(h.Approve)))
	mux.Handle("GET /payments/{orderId}/cancel", authenticate(http.HandlerFunc(h.CanceledRedirect)))
	mux.Handle("GET /payments/{orderId}/fail", authenticate(http.HandlerFunc(h.FailedRedirect)))
	mux.Handle("POST /payments/{orderId}/cancel", authenticate(http.HandlerFunc(h.Cancel)))
}

// Ready 결제 준비 API
func (h *HTTPHandler) Ready(w http.ResponseWriter, r *http.Request) {
	member, orderID, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.paymentService.Ready(r.Context(), member, orderID)
	if err != nil {
		h.respondDomainError(w, "failed to ready payment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Approve 결제 승인 API (게이트웨이 approval_url 리다이렉트)
func (h *HTTPHandler) Approve(w http.ResponseWriter, r *http.Request) {
	member, orderID, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	pgToken := r.URL.Query().Get("pg_token")
	if pgToken == "" {
		h.respondError(w, http.StatusBadRequest, "pg_token is required", "")
		return
	}

	resp, err := h.paymentService.Approve(r.Context(), member, orderID, pgToken)
	if err != nil {
		h.respondDomainError(w, "failed to approve payment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// Cancel 결제 취소 API
func (h *HTTPHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	member, orderID, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	resp, err := h.paymentService.Cancel(r.Context(), member, orderID)
	if err != nil {
		h.respondDomainError(w, "failed to cancel payment", err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// CanceledRedirect 사용자 취소 리다이렉트 (게이트웨이 cancel_url)
func (h *HTTPHandler) CanceledRedirect(w http.ResponseWriter, r *http.Request) {
	member, orderID, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	h.respondDomainError(w, "payment canceled", h.paymentService.RedirectCanceled(r.Context(), member, orderID))
}

// FailedRedirect 결제 실패 리다이렉트 (게이트웨이 fail_url)
func (h *HTTPHandler) FailedRedirect(w http.ResponseWriter, r *http.Request) {
	member, orderID, ok := h.parseRequest(w, r)
	if !ok {
		return
	}
	h.respondDomainError(w, "payment failed", h.paymentService.RedirectFailed(r.Context(), member, orderID))
}

// HealthCheck 헬스 체크 API
func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *HTTPHandler) parseRequest(w http.ResponseWriter, r *http.Request) (domain.Member, int64, bool) {
	member, ok := auth.MemberFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "authentication required", string(domainerrors.ErrCodeUnauthenticated))
		return domain.Member{}, 0, false
	}

	orderID, err := strconv.ParseInt(r.PathValue("orderId"), 10, 64)
	if err != nil || orderID <= 0 {
		h.respondError(w, http.StatusBadRequest, "invalid order ID", "")
		return domain.Member{}, 0, false
	}

	return member, orderID, true
}

func (h *HTTPHandler) respondDomainError(w http.ResponseWriter, logMessage string, err error) {
	status := domainerrors.HTTPStatus(err)
	code := domainerrors.CodeOf(err)

	message := http.StatusText(status)
	var domainErr *domainerrors.DomainError
	if errors.As(err, &domainErr) && (domainerrors.IsBusinessError(err) || status == http.StatusBadGateway) {
		message = domainErr.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(logMessage, zap.String("code", string(code)), zap.Error(err))
	} else {
		h.logger.Info(logMessage, zap.String("code", string(code)), zap.Error(err))
	}

	h.respondError(w, status, message, string(code))
}

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, status int, message string, code string) {
	h.respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
