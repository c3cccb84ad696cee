package model

import "time"

type EventType string

const (
	CheckoutCompletedEventName EventType = "checkout.session.completed"
	PaymentSucceededEventName  EventType = "payment_intent.succeeded"
	PaymentFailedEventName     EventType = "payment_intent.payment_failed"
	IgnoredEventName           EventType = "ignored"
)

type BaseEvent struct {
	EventID   string    `json:"eventId"`
	CreatedAt time.Time `json:"createdAt"`
	EventType EventType `json:"eventType"`
}

func (e *BaseEvent) GetID() string {
	return e.EventID
}

type Event interface {
	Type() EventType
	GetID() string
}
