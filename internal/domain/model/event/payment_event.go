package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CheckoutCompletedEvent 買家完成結帳頁，記下 session / intent 供後續比對
type CheckoutCompletedEvent struct {
	BaseEvent
	OrderID         string `json:"order_id"`
	SessionID       string `json:"session_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	PaymentStatus   string `json:"payment_status"`
}

func (e *CheckoutCompletedEvent) Type() EventType {
	return CheckoutCompletedEventName
}

// PaymentSucceededEvent 金流端實際入帳，驅動發票與出貨 saga
type PaymentSucceededEvent struct {
	BaseEvent
	OrderID         string          `json:"order_id"`
	PaymentIntentID string          `json:"payment_intent_id"`
	TaxID           string          `json:"tax_id"`
	AmountTotal     int64           `json:"amount_total"`
	Currency        string          `json:"currency"`
	Items           []EventItem     `json:"items"`
	Shipping        *ShippingIntent `json:"shipping"`
}

func (e *PaymentSucceededEvent) Type() EventType {
	return PaymentSucceededEventName
}

type PaymentFailedEvent struct {
	BaseEvent
	OrderID         string `json:"order_id"`
	PaymentIntentID string `json:"payment_intent_id"`
	Reason          string `json:"reason"`
}

func (e *PaymentFailedEvent) Type() EventType {
	return PaymentFailedEventName
}

// IgnoredEvent 不認識的事件種類，必須回 200 讓閘道停止重送
type IgnoredEvent struct {
	BaseEvent
	RawType string `json:"raw_type"`
}

func (e *IgnoredEvent) Type() EventType {
	return IgnoredEventName
}

// ShippingIntent 結帳時收集的出貨意向，跟著 metadata 走
type ShippingIntent struct {
	Destination string          `json:"destination"`
	Cost        decimal.Decimal `json:"cost"`
	EstimatedAt *time.Time      `json:"estimated_at,omitempty"`
}
