package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// envelope 閘道送來的外層格式，data.object 內容依事件種類而異
type envelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object eventObject `json:"object"`
	} `json:"data"`
}

type eventObject struct {
	ID               string            `json:"id"`
	PaymentIntent    string            `json:"payment_intent"`
	PaymentStatus    string            `json:"payment_status"`
	Amount           int64             `json:"amount"`
	AmountTotal      int64             `json:"amount_total"`
	Currency         string            `json:"currency"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

// Parse 在 dispatcher 邊界一次解出具型別的事件
// 不認識的 type 一律回 IgnoredEvent，不能讓未知事件變成錯誤
func Parse(body []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parse webhook envelope: %w", err)
	}

	base := BaseEvent{
		EventID:   env.ID,
		CreatedAt: time.Unix(env.Created, 0).UTC(),
		EventType: EventType(env.Type),
	}
	obj := env.Data.Object
	meta := obj.Metadata
	if meta == nil {
		meta = map[string]string{}
	}

	switch EventType(env.Type) {
	case CheckoutCompletedEventName:
		return &CheckoutCompletedEvent{
			BaseEvent:       base,
			OrderID:         meta[MetaOrderID],
			SessionID:       obj.ID,
			PaymentIntentID: obj.PaymentIntent,
			PaymentStatus:   obj.PaymentStatus,
		}, nil
	case PaymentSucceededEventName:
		items, err := DecodeItems(meta[MetaItems])
		if err != nil {
			// metadata 壞掉不擋整個事件，明細走 fallback 管道
			items = nil
		}
		amount := obj.AmountTotal
		if amount == 0 {
			amount = obj.Amount
		}
		return &PaymentSucceededEvent{
			BaseEvent:       base,
			OrderID:         meta[MetaOrderID],
			PaymentIntentID: obj.ID,
			TaxID:           meta[MetaTaxID],
			AmountTotal:     amount,
			Currency:        obj.Currency,
			Items:           items,
			Shipping:        shippingFromMeta(meta),
		}, nil
	case PaymentFailedEventName:
		reason := ""
		if obj.LastPaymentError != nil {
			reason = obj.LastPaymentError.Message
		}
		return &PaymentFailedEvent{
			BaseEvent:       base,
			OrderID:         meta[MetaOrderID],
			PaymentIntentID: obj.ID,
			Reason:          reason,
		}, nil
	default:
		ignored := base
		ignored.EventType = IgnoredEventName
		return &IgnoredEvent{BaseEvent: ignored, RawType: env.Type}, nil
	}
}
