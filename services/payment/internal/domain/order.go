package domain

import (
	"fmt"
	"time"
)

// Member 요청 주체 (인증된 회원)
type Member struct {
	ID int64
}

// Order 주문 도메인 모델 (읽기 전용)
type Order struct {
	ID        int64
	MemberID  int64
	CreatedAt time.Time
}

// OwnedBy 주문 소유자 확인
func (o *Order) OwnedBy(member Member) bool {
	return o.MemberID == member.ID
}

// LineItem 주문 상품 (읽기 전용)
type LineItem struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Quantity  int
	LineTotal int64
}

// OrderSummary 주문 상품 집계 결과
type OrderSummary struct {
	OrderID       int64
	ItemName      string
	ItemCount     int
	TotalQuantity int
	TotalAmount   int64
	TaxFreeAmount int64
}

// DisplayItemName 결제창에 노출할 상품명 ("상품명 외 N개")
func DisplayItemName(firstName string, itemCount int) string {
	if itemCount <= 1 {
		return firstName
	}
	return fmt.Sprintf("%s 외 %d개", firstName, itemCount-1)
}

// Summarize 주문 상품 목록 합산 (상품명은 호출자가 첫 상품 기준으로 조회)
func Summarize(orderID int64, items []LineItem, firstItemName string) OrderSummary {
	summary := OrderSummary{
		OrderID:   orderID,
		ItemCount: len(items),
		ItemName:  DisplayItemName(firstItemName, len(items)),
	}
	for _, item := range items {
		summary.TotalQuantity += item.Quantity
		summary.TotalAmount += item.LineTotal
	}
	return summary
}
