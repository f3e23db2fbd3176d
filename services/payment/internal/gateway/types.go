package gateway

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05"

// kst 결제 게이트웨이 응답 시각은 KST 기준 (오프셋 없음)
var kst = time.FixedZone("KST", 9*60*60)

// Timestamp 게이트웨이 시각 ("2006-01-02T15:04:05")
type Timestamp struct {
	time.Time
}

// UnmarshalJSON 오프셋 없는 형식과 RFC3339 모두 허용
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		t.Time = time.Time{}
		return nil
	}

	if parsed, err := time.ParseInLocation(timestampLayout, raw, kst); err == nil {
		t.Time = parsed
		return nil
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return fmt.Errorf("invalid gateway timestamp %q: %w", raw, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON RFC3339 형식으로 출력
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(time.RFC3339) + `"`), nil
}

// ReadyRequest 결제 준비 요청
type ReadyRequest struct {
	PartnerOrderID string
	PartnerUserID  string
	ItemName       string
	Quantity       int
	TotalAmount    int64
	TaxFreeAmount  int64
	ApprovalURL    string
	CancelURL      string
	FailURL        string
}

// ReadyResponse 결제 준비 응답
type ReadyResponse struct {
	TID                   string    `json:"tid"`
	NextRedirectAppURL    string    `json:"next_redirect_app_url,omitempty"`
	NextRedirectMobileURL string    `json:"next_redirect_mobile_url,omitempty"`
	NextRedirectPCURL     string    `json:"next_redirect_pc_url"`
	AndroidAppScheme      string    `json:"android_app_scheme,omitempty"`
	IOSAppScheme          string    `json:"ios_app_scheme,omitempty"`
	CreatedAt             Timestamp `json:"created_at"`
}

// ApproveRequest 결제 승인 요청
type ApproveRequest struct {
	TID            string
	PartnerOrderID string
	PartnerUserID  string
	PGToken        string
}

// Amount 결제 금액 상세
type Amount struct {
	Total        int64 `json:"total"`
	TaxFree      int64 `json:"tax_free"`
	VAT          int64 `json:"vat"`
	Point        int64 `json:"point"`
	Discount     int64 `json:"discount"`
	GreenDeposit int64 `json:"green_deposit"`
}

// CardInfo 카드 결제 상세 (카드 결제일 때만 존재)
type CardInfo struct {
	PurchaseCorp        string `json:"purchase_corp"`
	PurchaseCorpCode    string `json:"purchase_corp_code"`
	IssuerCorp          string `json:"issuer_corp"`
	IssuerCorpCode      string `json:"issuer_corp_code"`
	Bin                 string `json:"bin"`
	CardType            string `json:"card_type"`
	InstallMonth        string `json:"install_month"`
	ApprovedID          string `json:"approved_id"`
	CardMid             string `json:"card_mid"`
	InterestFreeInstall string `json:"interest_free_install"`
	CardItemCode        string `json:"card_item_code"`
}

// ApproveResponse 결제 승인 응답
type ApproveResponse struct {
	AID               string    `json:"aid"`
	TID               string    `json:"tid"`
	CID               string    `json:"cid"`
	SID               string    `json:"sid,omitempty"`
	PartnerOrderID    string    `json:"partner_order_id"`
	PartnerUserID     string    `json:"partner_user_id"`
	PaymentMethodType string    `json:"payment_method_type"`
	Amount            Amount    `json:"amount"`
	CardInfo          *CardInfo `json:"card_info,omitempty"`
	ItemName          string    `json:"item_name"`
	ItemCode          string    `json:"item_code,omitempty"`
	Quantity          int       `json:"quantity"`
	CreatedAt         Timestamp `json:"created_at"`
	ApprovedAt        Timestamp `json:"approved_at"`
	Payload           string    `json:"payload,omitempty"`
}

// CancelRequest 결제 취소 요청
type CancelRequest struct {
	TID                 string
	CancelAmount        int64
	CancelTaxFreeAmount int64
}

// CancelResponse 결제 취소 응답
type CancelResponse struct {
	AID                   string    `json:"aid"`
	TID                   string    `json:"tid"`
	CID                   string    `json:"cid"`
	Status                string    `json:"status"`
	PartnerOrderID        string    `json:"partner_order_id"`
	PartnerUserID         string    `json:"partner_user_id"`
	PaymentMethodType     string    `json:"payment_method_type"`
	PaymentActionType     string    `json:"payment_action_type,omitempty"`
	Amount                Amount    `json:"amount"`
	ApprovedCancelAmount  Amount    `json:"approved_cancel_amount"`
	CanceledAmount        Amount    `json:"canceled_amount"`
	CancelAvailableAmount Amount    `json:"cancel_available_amount"`
	ItemName              string    `json:"item_name"`
	ItemCode              string    `json:"item_code,omitempty"`
	Quantity              int       `json:"quantity"`
	CreatedAt             Timestamp `json:"created_at"`
	ApprovedAt            Timestamp `json:"approved_at"`
	CanceledAt            Timestamp `json:"canceled_at"`
	Payload               string    `json:"payload,omitempty"`
}

// Error 게이트웨이 오류 응답
type Error struct {
	StatusCode int    `json:"-"`
	Code       int    `json:"error_code"`
	Message    string `json:"error_message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway responded %d (code=%d): %s", e.StatusCode, e.Code, e.Message)
}
