package handler

import (
	"context"
	"errors"
	"time"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/domain/money"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/SHolweger/payment-service-main/internal/infra/producer"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/rs/zerolog"
)

// PaymentEventHandler 金流事件的 saga 入口
// 狀態機寫入與發票/出貨各有自己的 guard，重播事件只會補做沒完成的部分
type PaymentEventHandler struct {
	orderService       service.IOrderService
	invoiceService     service.IInvoiceService
	fulfillmentService service.IFulfillmentService
	payment            gateway.IPaymentClient
	sagaProducer       producer.ISagaProducer
	logger             zerolog.Logger
}

func NewPaymentEventHandler(
	orderService service.IOrderService,
	invoiceService service.IInvoiceService,
	fulfillmentService service.IFulfillmentService,
	payment gateway.IPaymentClient,
	sagaProducer producer.ISagaProducer,
	logger zerolog.Logger,
) *PaymentEventHandler {
	if orderService == nil || invoiceService == nil || fulfillmentService == nil {
		panic("payment event handler dependencies cannot be nil")
	}
	return &PaymentEventHandler{
		orderService:       orderService,
		invoiceService:     invoiceService,
		fulfillmentService: fulfillmentService,
		payment:            payment,
		sagaProducer:       sagaProducer,
		logger:             logger,
	}
}

func (h *PaymentEventHandler) HandleCheckoutCompleted(ctx context.Context, evt evt_model.Event) error {
	e, ok := evt.(*evt_model.CheckoutCompletedEvent)
	if !ok {
		return errUnknownEventFormat
	}
	if e.OrderID == "" {
		h.logger.Warn().Str("event_id", e.GetID()).Msg("checkout completed without order id, acknowledged as no-op")
		return nil
	}

	if _, err := h.orderService.GetOrder(ctx, e.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotExist) {
			h.logger.Info().Str("order_id", e.OrderID).Msg("order not found, acknowledged as no-op")
			return nil
		}
		return err
	}

	updated, err := h.orderService.MarkProcessing(ctx, e.OrderID, e.SessionID, e.PaymentIntentID)
	if err != nil {
		// 狀態寫入失敗也要讓閘道看到成功，重試只會撞到同一個故障
		h.logger.Error().Err(err).Str("order_id", e.OrderID).Msg("mark processing failed")
		return nil
	}
	if !updated {
		h.logger.Debug().Str("order_id", e.OrderID).Msg("order already terminal, checkout event ignored")
	}
	return nil
}

// HandlePaymentSucceeded 整條 saga:
// 狀態 -> 發票 -> 出貨 fan-out -> 結果上報
// 發票本體寫不進去才中斷 (金流紀錄都寫不了就沒道理去扣庫存)
func (h *PaymentEventHandler) HandlePaymentSucceeded(ctx context.Context, evt evt_model.Event) error {
	e, ok := evt.(*evt_model.PaymentSucceededEvent)
	if !ok {
		return errUnknownEventFormat
	}
	if e.OrderID == "" {
		h.logger.Warn().Str("event_id", e.GetID()).Msg("payment succeeded without order id, acknowledged as no-op")
		return nil
	}

	order, err := h.orderService.GetOrder(ctx, e.OrderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotExist) {
			h.logger.Info().Str("order_id", e.OrderID).Msg("order not found, acknowledged as no-op")
			return nil
		}
		return err
	}

	// 訂單 id 是唯一的冪等 key，intent 不一致只記下來 (重刷卡會換 intent)
	if order.PaymentIntentID != "" && e.PaymentIntentID != "" && order.PaymentIntentID != e.PaymentIntentID {
		h.logger.Debug().
			Str("order_id", order.OrderID).
			Str("stored_intent", order.PaymentIntentID).
			Str("event_intent", e.PaymentIntentID).
			Msg("payment intent mismatch, order id wins")
	}

	updated, err := h.orderService.MarkPaid(ctx, order.OrderID, e.PaymentIntentID)
	if err != nil {
		h.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("mark paid failed, continue with fulfillment guards")
	} else if updated {
		order.Status = model.OrderStatusPaid
	}

	items := h.resolveItems(ctx, order, e)

	invoice, err := h.invoiceService.EnsureInvoice(ctx, order, e.PaymentIntentID, items)
	if err != nil {
		// 發票寫入失敗: 中斷本次處理，等下一次投遞重跑，paid 狀態不受影響
		h.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("ensure invoice failed, abort fulfillment for this delivery")
		return err
	}

	result := h.fulfillmentService.Fulfill(ctx, order, items, e.Shipping)

	h.publishOutcome(ctx, e.GetID(), order, invoice, result)
	return nil
}

func (h *PaymentEventHandler) HandlePaymentFailed(ctx context.Context, evt evt_model.Event) error {
	e, ok := evt.(*evt_model.PaymentFailedEvent)
	if !ok {
		return errUnknownEventFormat
	}
	if e.OrderID == "" {
		return nil
	}

	if _, err := h.orderService.GetOrder(ctx, e.OrderID); err != nil {
		if errors.Is(err, service.ErrOrderNotExist) {
			h.logger.Info().Str("order_id", e.OrderID).Msg("order not found, acknowledged as no-op")
			return nil
		}
		return err
	}

	updated, err := h.orderService.MarkFailed(ctx, e.OrderID)
	if err != nil {
		h.logger.Error().Err(err).Str("order_id", e.OrderID).Msg("mark failed failed")
		return nil
	}
	if updated {
		h.logger.Info().Str("order_id", e.OrderID).Str("reason", e.Reason).Msg("order marked failed")
	}
	return nil
}

// resolveItems 明細優先吃事件 metadata，沒有就回金流端撈結帳明細，
// 再用訂單鎖定的匯率還原原幣價格
// 兩邊都拿不到回 nil: 發票會先開 (明細留給下一次投遞補)，庫存無從扣起
func (h *PaymentEventHandler) resolveItems(ctx context.Context, order *model.Order, e *evt_model.PaymentSucceededEvent) []model.OrderLineItem {
	if len(e.Items) > 0 {
		items := make([]model.OrderLineItem, 0, len(e.Items))
		for _, it := range e.Items {
			items = append(items, model.OrderLineItem{
				ProductID:           it.ProductID,
				VariantID:           it.VariantID,
				Name:                it.Name,
				Quantity:            it.Quantity,
				UnitPriceNative:     it.Price,
				UnitPriceSettlement: money.SettlementUnitFromNative(it.Price, order.ExchangeRate),
			})
		}
		return items
	}

	if h.payment == nil || order.SessionID == "" {
		return nil
	}
	lineItems, err := h.payment.ListCheckoutLineItems(ctx, order.SessionID)
	if err != nil {
		h.logger.Warn().Err(err).Str("order_id", order.OrderID).Msg("list checkout line items failed, no detail for this delivery")
		return nil
	}

	items := make([]model.OrderLineItem, 0, len(lineItems))
	for _, li := range lineItems {
		unitSettlement := money.CentsToUnit(li.UnitAmount)
		items = append(items, model.OrderLineItem{
			Name:                li.Name,
			Quantity:            li.Quantity,
			UnitPriceNative:     money.NativeUnitFromSettlement(unitSettlement, order.ExchangeRate),
			UnitPriceSettlement: unitSettlement,
		})
	}
	return items
}

func (h *PaymentEventHandler) publishOutcome(ctx context.Context, eventID string, order *model.Order, invoice *model.Invoice, result *service.FulfillmentResult) {
	if h.sagaProducer == nil {
		return
	}
	outcome := producer.SagaOutcome{
		EventID:     eventID,
		OrderID:     order.OrderID,
		ShipmentID:  result.ShipmentID,
		Decremented: order.Decremented,
		Branches:    result.BranchErrors(),
		OccurredAt:  time.Now().UTC(),
	}
	if invoice != nil {
		outcome.InvoiceID = invoice.InvoiceID
	}
	// 上報失敗不影響 webhook 回應，Publish 內部已記 log
	_ = h.sagaProducer.Publish(ctx, outcome)
}
