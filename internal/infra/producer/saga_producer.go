package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

// SagaOutcome 一次 payment succeeded 處理後的結果摘要
// 下游 (對帳 job、分析) 訂這個 topic，不影響 webhook 回應
type SagaOutcome struct {
	EventID     string            `json:"event_id"`
	OrderID     string            `json:"order_id"`
	InvoiceID   string            `json:"invoice_id,omitempty"`
	ShipmentID  string            `json:"shipment_id,omitempty"`
	Decremented bool              `json:"decremented"`
	Branches    map[string]string `json:"branches,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

type ISagaProducer interface {
	Publish(ctx context.Context, outcome SagaOutcome) error
	Close() error
}

type SagaProducer struct {
	w *kafka.Writer
}

func NewSagaProducer(brokers []string, topic string) *SagaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: 5 * time.Second,
		MaxAttempts:  3,
	}
	return &SagaProducer{w: w}
}

// Publish fire-and-forget，失敗只記 log
func (p *SagaProducer) Publish(ctx context.Context, outcome SagaOutcome) error {
	b, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	err = p.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(outcome.OrderID),
		Value: b,
	})
	if err != nil {
		log.Error().Err(err).Str("order_id", outcome.OrderID).Msg("publish saga outcome failed")
	}
	return err
}

func (p *SagaProducer) Close() error {
	return p.w.Close()
}

var _ ISagaProducer = (*SagaProducer)(nil)
