package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	domainerrors "github.com/kyungseok/msa-payment-gateway-go/common/errors"
	"github.com/kyungseok/msa-payment-gateway-go/services/payment/internal/metrics"
)

const (
	readyPath   = "/v1/payment/ready"
	approvePath = "/v1/payment/approve"
	cancelPath  = "/v1/payment/cancel"

	maxResponseBytes = 1 << 20
)

// Config 결제 게이트웨이 설정
type Config struct {
	// BaseURL 게이트웨이 호스트 (예: https://kapi.kakao.com)
	BaseURL string
	// CID 가맹점 코드
	CID string
	// AdminKey Authorization 헤더 값
	AdminKey string
	// AuthScheme Authorization 스킴 (기본 KakaoAK)
	AuthScheme string
	// Timeout 호출당 최대 대기 시간
	Timeout time.Duration
}

// Client 결제 게이트웨이 클라이언트 인터페이스 (재시도 없음, 호출자가 결정)
type Client interface {
	Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error)
	Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error)
	Cancel(ctx context.Context, req CancelRequest) (*CancelResponse, error)
}

type httpClient struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient 결제 게이트웨이 클라이언트 생성
func NewClient(config Config, logger *zap.Logger) Client {
	if config.AuthScheme == "" {
		config.AuthScheme = "KakaoAK"
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}

	return &httpClient{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.Timeout,
			Transport: transport,
		},
		logger: logger,
	}
}

// Ready 결제 준비 (tid 발급)
func (c *httpClient) Ready(ctx context.Context, req ReadyRequest) (*ReadyResponse, error) {
	if err := validateReady(req); err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeGatewayInitiateFailed, "invalid ready request", err)
	}

	form := url.Values{}
	form.Set("cid", c.config.CID)
	form.Set("partner_order_id", req.PartnerOrderID)
	form.Set("partner_user_id", req.PartnerUserID)
	form.Set("item_name", req.ItemName)
	form.Set("quantity", strconv.Itoa(req.Quantity))
	form.Set("total_amount", strconv.FormatInt(req.TotalAmount, 10))
	form.Set("tax_free_amount", strconv.FormatInt(req.TaxFreeAmount, 10))
	form.Set("approval_url", req.ApprovalURL)
	form.Set("cancel_url", req.CancelURL)
	form.Set("fail_url", req.FailURL)

	var resp ReadyResponse
	if err := c.post(ctx, "ready", readyPath, form, &resp); err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeGatewayInitiateFailed, "payment ready failed", err)
	}
	if resp.TID == "" {
		return nil, domainerrors.New(domainerrors.ErrCodeGatewayInitiateFailed, "payment ready response has no tid")
	}

	c.logger.Info("payment ready issued",
		zap.String("tid", resp.TID),
		zap.String("partnerOrderId", req.PartnerOrderID),
		zap.Int64("totalAmount", req.TotalAmount))

	return &resp, nil
}

// Approve 결제 승인
func (c *httpClient) Approve(ctx context.Context, req ApproveRequest) (*ApproveResponse, error) {
	if req.TID == "" || req.PGToken == "" || req.PartnerOrderID == "" || req.PartnerUserID == "" {
		return nil, domainerrors.New(domainerrors.ErrCodeGatewayApproveFailed, "invalid approve request: missing identifiers")
	}

	form := url.Values{}
	form.Set("cid", c.config.CID)
	form.Set("tid", req.TID)
	form.Set("partner_order_id", req.PartnerOrderID)
	form.Set("partner_user_id", req.PartnerUserID)
	form.Set("pg_token", req.PGToken)

	var resp ApproveResponse
	if err := c.post(ctx, "approve", approvePath, form, &resp); err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeGatewayApproveFailed, "payment approve failed", err)
	}

	c.logger.Info("payment approved",
		zap.String("tid", resp.TID),
		zap.String("aid", resp.AID),
		zap.String("paymentMethodType", resp.PaymentMethodType),
		zap.Int64("totalAmount", resp.Amount.Total))

	return &resp, nil
}

// Cancel 결제 취소
func (c *httpClient) Cancel(ctx context.Context, req CancelRequest) (*CancelResponse, error) {
	if req.TID == "" || req.CancelAmount <= 0 || req.CancelTaxFreeAmount < 0 {
		return nil, domainerrors.New(domainerrors.ErrCodeGatewayCancelFailed, "invalid cancel request")
	}

	form := url.Values{}
	form.Set("cid", c.config.CID)
	form.Set("tid", req.TID)
	form.Set("cancel_amount", strconv.FormatInt(req.CancelAmount, 10))
	form.Set("cancel_tax_free_amount", strconv.FormatInt(req.CancelTaxFreeAmount, 10))

	var resp CancelResponse
	if err := c.post(ctx, "cancel", cancelPath, form, &resp); err != nil {
		return nil, domainerrors.Wrap(domainerrors.ErrCodeGatewayCancelFailed, "payment cancel failed", err)
	}

	c.logger.Info("payment canceled",
		zap.String("tid", resp.TID),
		zap.String("status", resp.Status),
		zap.Int64("canceledAmount", resp.CanceledAmount.Total))

	return &resp, nil
}

// post form-urlencoded 요청 후 JSON 응답 디코딩
func (c *httpClient) post(ctx context.Context, operation, path string, form url.Values, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(c.config.BaseURL, "/")+path, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", c.config.AuthScheme+" "+c.config.AdminKey)
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")

	startTime := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		metrics.ObserveGatewayRequest(operation, "error", time.Since(startTime))
		c.logger.Error("failed to send gateway request",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(startTime)),
			zap.Error(err))
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("gateway timeout after %s: %w", c.config.Timeout, err)
		}
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	elapsed := time.Since(startTime)
	metrics.ObserveGatewayRequest(operation, strconv.Itoa(httpResp.StatusCode), elapsed)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("received gateway response",
		zap.String("operation", operation),
		zap.Int("statusCode", httpResp.StatusCode),
		zap.Duration("elapsed", elapsed),
		zap.Int("bodyLength", len(body)))

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		gwErr := &Error{StatusCode: httpResp.StatusCode}
		if jsonErr := json.Unmarshal(body, gwErr); jsonErr != nil || gwErr.Message == "" {
			gwErr.Message = strings.TrimSpace(string(body))
		}
		c.logger.Warn("gateway rejected request",
			zap.String("operation", operation),
			zap.Int("statusCode", gwErr.StatusCode),
			zap.Int("errorCode", gwErr.Code),
			zap.String("errorMessage", gwErr.Message))
		return gwErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error("failed to parse gateway response",
			zap.String("operation", operation),
			zap.Error(err))
		return fmt.Errorf("malformed gateway response: %w", err)
	}

	return nil
}

func validateReady(req ReadyRequest) error {
	switch {
	case req.PartnerOrderID == "" || req.PartnerUserID == "":
		return errors.New("partner identifiers are required")
	case req.ItemName == "":
		return errors.New("item name is required")
	case req.Quantity <= 0:
		return errors.New("quantity must be positive")
	case req.TotalAmount <= 0:
		return errors.New("total amount must be positive")
	case req.TaxFreeAmount < 0 || req.TaxFreeAmount > req.TotalAmount:
		return errors.New("tax free amount out of range")
	case req.ApprovalURL == "" || req.CancelURL == "" || req.FailURL == "":
		return errors.New("redirect urls are required")
	}
	return nil
}
