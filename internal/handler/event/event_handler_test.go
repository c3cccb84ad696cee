package handler

import (
	"context"
	"errors"
	"testing"

	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// redis 沒接上時 EventCache 永遠回未處理，dispatcher 每次都進 handler
func noCache() *redis_repo.EventCache {
	return redis_repo.NewEventCache(nil)
}

type countingHandler struct {
	calls int
	err   error
}

func (h *countingHandler) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	h.calls++
	return h.err
}

func succeededEvent(id string) evt_model.Event {
	return &evt_model.PaymentSucceededEvent{
		BaseEvent: evt_model.BaseEvent{EventID: id, EventType: evt_model.PaymentSucceededEventName},
		OrderID:   "o-1",
	}
}

func TestDispatcherRoutesToRegisteredHandler(t *testing.T) {
	h := &countingHandler{}
	d := NewHandlerDispatcher(map[evt_model.EventType]Handler{
		evt_model.PaymentSucceededEventName: h,
	}, noCache(), zerolog.Nop())

	require.NoError(t, d.HandleEvent(context.Background(), succeededEvent("evt_1")))
	require.Equal(t, 1, h.calls)
}

func TestDispatcherAcknowledgesIgnoredEvent(t *testing.T) {
	h := &countingHandler{}
	d := NewHandlerDispatcher(map[evt_model.EventType]Handler{
		evt_model.PaymentSucceededEventName: h,
	}, noCache(), zerolog.Nop())

	evt := &evt_model.IgnoredEvent{
		BaseEvent: evt_model.BaseEvent{EventID: "evt_x", EventType: evt_model.IgnoredEventName},
		RawType:   "charge.refunded",
	}
	require.NoError(t, d.HandleEvent(context.Background(), evt))
	require.Zero(t, h.calls)
}

func TestDispatcherAcknowledgesUnregisteredType(t *testing.T) {
	d := NewHandlerDispatcher(map[evt_model.EventType]Handler{}, noCache(), zerolog.Nop())

	// 沒註冊 handler 不是錯誤，回 nil 讓上層回 200
	require.NoError(t, d.HandleEvent(context.Background(), succeededEvent("evt_1")))
}

func TestDispatcherPropagatesHandlerError(t *testing.T) {
	boom := errors.New("invoice write failed")
	h := &countingHandler{err: boom}
	d := NewHandlerDispatcher(map[evt_model.EventType]Handler{
		evt_model.PaymentSucceededEventName: h,
	}, noCache(), zerolog.Nop())

	require.ErrorIs(t, d.HandleEvent(context.Background(), succeededEvent("evt_1")), boom)
}
