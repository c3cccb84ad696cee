package handler

import (
	"context"
	"errors"

	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog"
)

type HandlerError error

var (
	errUnknownEventFormat HandlerError = errors.New("unknown event format")
)

type HandlerFunc func(ctx context.Context, evt evt_model.Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	return f(ctx, evt)
}

type Handler interface {
	HandleEvent(ctx context.Context, evt evt_model.Event) error
}

// HandlerDispatcher 依事件種類挑 handler
// 不認識的種類當 no-op 收下，閘道看到成功就不會再重送
// eventCache 只記「完整跑完」的事件，中途掛掉的重播會重新進 handler，
// 由各步驟自己的 guard 決定哪些工作還沒做完
type HandlerDispatcher struct {
	handlers   map[evt_model.EventType]Handler
	eventCache *redis_repo.EventCache
	logger     zerolog.Logger
}

func NewHandlerDispatcher(handlers map[evt_model.EventType]Handler, eventCache *redis_repo.EventCache, logger zerolog.Logger) *HandlerDispatcher {
	return &HandlerDispatcher{handlers: handlers, eventCache: eventCache, logger: logger}
}

func (d *HandlerDispatcher) HandleEvent(ctx context.Context, evt evt_model.Event) error {
	if evt.Type() == evt_model.IgnoredEventName {
		d.logger.Debug().Str("event_id", evt.GetID()).Msg("ignored event type, acknowledged as no-op")
		return nil
	}

	// cache 壞掉就照常往下走，冪等性靠 db guard 兜底
	processed, err := d.eventCache.IsProcessed(ctx, evt.GetID())
	if err != nil {
		d.logger.Warn().Err(err).Str("event_id", evt.GetID()).Msg("event cache check failed, fall through to handler")
	} else if processed {
		d.logger.Info().Str("event_id", evt.GetID()).Msg("event already fully processed, skip")
		return nil
	}

	handler, ok := d.handlers[evt.Type()]
	if !ok {
		d.logger.Warn().Str("event_type", string(evt.Type())).Msg("no handler registered, acknowledged as no-op")
		return nil
	}

	if err := handler.HandleEvent(ctx, evt); err != nil {
		return err
	}

	if err := d.eventCache.MarkProcessed(ctx, evt.GetID()); err != nil {
		d.logger.Warn().Err(err).Str("event_id", evt.GetID()).Msg("mark event processed failed")
	}
	return nil
}

func NewPaymentEventDispatcher(paymentEventHandler *PaymentEventHandler, eventCache *redis_repo.EventCache, logger zerolog.Logger) Handler {
	return NewHandlerDispatcher(
		map[evt_model.EventType]Handler{
			evt_model.CheckoutCompletedEventName: HandlerFunc(paymentEventHandler.HandleCheckoutCompleted),
			evt_model.PaymentSucceededEventName:  HandlerFunc(paymentEventHandler.HandlePaymentSucceeded),
			evt_model.PaymentFailedEventName:     HandlerFunc(paymentEventHandler.HandlePaymentFailed),
		},
		eventCache,
		logger,
	)
}
