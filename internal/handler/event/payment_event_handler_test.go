package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/SHolweger/payment-service-main/internal/infra/producer"
	"github.com/SHolweger/payment-service-main/internal/service"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type stubOrderService struct {
	order           *model.Order
	getErr          error
	markProcessing  int
	markPaid        int
	markFailed      int
	markPaidErr     error
	markPaidUpdated bool
}

func (s *stubOrderService) CreateOrder(ctx context.Context, order *model.Order) error { return nil }

func (s *stubOrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.order == nil {
		return nil, service.ErrOrderNotExist
	}
	return s.order, nil
}

func (s *stubOrderService) RecordCheckoutRefs(ctx context.Context, orderID, sessionID, paymentIntentID string) error {
	return nil
}

func (s *stubOrderService) MarkProcessing(ctx context.Context, orderID, sessionID, paymentIntentID string) (bool, error) {
	s.markProcessing++
	return true, nil
}

func (s *stubOrderService) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (bool, error) {
	s.markPaid++
	return s.markPaidUpdated, s.markPaidErr
}

func (s *stubOrderService) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	s.markFailed++
	return true, nil
}

func (s *stubOrderService) MarkDecremented(ctx context.Context, orderID string) (bool, error) {
	return true, nil
}

type stubInvoiceService struct {
	invoice *model.Invoice
	err     error
	calls   int
	items   []model.OrderLineItem
}

func (s *stubInvoiceService) EnsureInvoice(ctx context.Context, order *model.Order, paymentRef string, items []model.OrderLineItem) (*model.Invoice, error) {
	s.calls++
	s.items = items
	return s.invoice, s.err
}

func (s *stubInvoiceService) GetInvoiceByOrder(ctx context.Context, orderID string) (*model.Invoice, error) {
	return s.invoice, nil
}

func (s *stubInvoiceService) CreateManualInvoice(ctx context.Context, order *model.Order, taxID string) (*model.Invoice, error) {
	return s.invoice, nil
}

type stubFulfillment struct {
	calls  int
	result *service.FulfillmentResult
}

func (s *stubFulfillment) Fulfill(ctx context.Context, order *model.Order, items []model.OrderLineItem, shipping *evt_model.ShippingIntent) *service.FulfillmentResult {
	s.calls++
	if s.result == nil {
		s.result = &service.FulfillmentResult{}
	}
	return s.result
}

type stubPaymentClient struct {
	lineItems    []gateway.CheckoutLineItem
	lineItemsErr error
	calls        int
}

func (s *stubPaymentClient) CreateCheckoutSession(ctx context.Context, req gateway.CheckoutSessionRequest) (*gateway.CheckoutSession, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentClient) GetPaymentIntent(ctx context.Context, intentID string) (*gateway.PaymentIntent, error) {
	return nil, errors.New("not used")
}

func (s *stubPaymentClient) ListCheckoutLineItems(ctx context.Context, sessionID string) ([]gateway.CheckoutLineItem, error) {
	s.calls++
	return s.lineItems, s.lineItemsErr
}

type stubProducer struct {
	outcomes []producer.SagaOutcome
}

func (s *stubProducer) Publish(ctx context.Context, outcome producer.SagaOutcome) error {
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *stubProducer) Close() error { return nil }

type handlerDeps struct {
	orders      *stubOrderService
	invoices    *stubInvoiceService
	fulfillment *stubFulfillment
	payment     *stubPaymentClient
	prod        *stubProducer
}

func newTestHandler(deps handlerDeps) *PaymentEventHandler {
	if deps.orders == nil {
		deps.orders = &stubOrderService{}
	}
	if deps.invoices == nil {
		deps.invoices = &stubInvoiceService{invoice: &model.Invoice{InvoiceID: "inv-1", OrderID: "o-1"}}
	}
	if deps.fulfillment == nil {
		deps.fulfillment = &stubFulfillment{}
	}
	if deps.payment == nil {
		deps.payment = &stubPaymentClient{}
	}
	var prod producer.ISagaProducer
	if deps.prod != nil {
		prod = deps.prod
	}
	return NewPaymentEventHandler(deps.orders, deps.invoices, deps.fulfillment, deps.payment, prod, zerolog.Nop())
}

func processingOrder() *model.Order {
	return &model.Order{
		OrderID:         "o-1",
		UserID:          "u-1",
		Status:          model.OrderStatusProcessing,
		SessionID:       "cs_1",
		PaymentIntentID: "pi_1",
		ExchangeRate:    decimal.RequireFromString("0.128205"),
	}
}

func succeeded(orderID string) *evt_model.PaymentSucceededEvent {
	return &evt_model.PaymentSucceededEvent{
		BaseEvent:       evt_model.BaseEvent{EventID: "evt_1", EventType: evt_model.PaymentSucceededEventName},
		OrderID:         orderID,
		PaymentIntentID: "pi_1",
	}
}

func TestHandleCheckoutCompleted(t *testing.T) {
	orders := &stubOrderService{order: processingOrder()}
	h := newTestHandler(handlerDeps{orders: orders})

	evt := &evt_model.CheckoutCompletedEvent{
		BaseEvent: evt_model.BaseEvent{EventID: "evt_cs", EventType: evt_model.CheckoutCompletedEventName},
		OrderID:   "o-1",
		SessionID: "cs_1",
	}
	require.NoError(t, h.HandleCheckoutCompleted(context.Background(), evt))
	require.Equal(t, 1, orders.markProcessing)
}

func TestHandleCheckoutCompletedUnknownOrderIsNoOp(t *testing.T) {
	orders := &stubOrderService{}
	h := newTestHandler(handlerDeps{orders: orders})

	evt := &evt_model.CheckoutCompletedEvent{
		BaseEvent: evt_model.BaseEvent{EventID: "evt_cs", EventType: evt_model.CheckoutCompletedEventName},
		OrderID:   "o-missing",
	}
	// 查不到訂單要默默吞掉，回 200 停止重送
	require.NoError(t, h.HandleCheckoutCompleted(context.Background(), evt))
	require.Zero(t, orders.markProcessing)
}

func TestHandlePaymentSucceededRunsFullSaga(t *testing.T) {
	orders := &stubOrderService{order: processingOrder(), markPaidUpdated: true}
	invoices := &stubInvoiceService{invoice: &model.Invoice{InvoiceID: "inv-1", OrderID: "o-1"}}
	fulfillment := &stubFulfillment{}
	prod := &stubProducer{}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices, fulfillment: fulfillment, prod: prod})

	evt := succeeded("o-1")
	evt.Items = []evt_model.EventItem{
		{Name: "Camisa", Price: decimal.RequireFromString("129.99"), Quantity: 2, VariantID: 7, ProductID: 3},
	}

	require.NoError(t, h.HandlePaymentSucceeded(context.Background(), evt))
	require.Equal(t, 1, orders.markPaid)
	require.Equal(t, 1, invoices.calls)
	require.Equal(t, 1, fulfillment.calls)

	// metadata 明細要換算出結算幣單價
	require.Len(t, invoices.items, 1)
	require.True(t, invoices.items[0].UnitPriceSettlement.Equal(decimal.RequireFromString("16.67")))

	require.Len(t, prod.outcomes, 1)
	require.Equal(t, "evt_1", prod.outcomes[0].EventID)
	require.Equal(t, "inv-1", prod.outcomes[0].InvoiceID)
}

func TestHandlePaymentSucceededInvoiceFailureAborts(t *testing.T) {
	boom := errors.New("db down")
	orders := &stubOrderService{order: processingOrder(), markPaidUpdated: true}
	invoices := &stubInvoiceService{err: boom}
	fulfillment := &stubFulfillment{}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices, fulfillment: fulfillment})

	err := h.HandlePaymentSucceeded(context.Background(), succeeded("o-1"))
	require.ErrorIs(t, err, boom)
	// 發票寫不進去就不碰下游
	require.Zero(t, fulfillment.calls)
}

func TestHandlePaymentSucceededMarkPaidFailureContinues(t *testing.T) {
	orders := &stubOrderService{order: processingOrder(), markPaidErr: errors.New("db flaky")}
	invoices := &stubInvoiceService{invoice: &model.Invoice{InvoiceID: "inv-1"}}
	fulfillment := &stubFulfillment{}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices, fulfillment: fulfillment})

	// 狀態寫入失敗不中斷，發票/出貨有自己的 guard
	require.NoError(t, h.HandlePaymentSucceeded(context.Background(), succeeded("o-1")))
	require.Equal(t, 1, invoices.calls)
	require.Equal(t, 1, fulfillment.calls)
}

func TestHandlePaymentSucceededFallsBackToLineItems(t *testing.T) {
	orders := &stubOrderService{order: processingOrder(), markPaidUpdated: true}
	invoices := &stubInvoiceService{invoice: &model.Invoice{InvoiceID: "inv-1"}}
	payment := &stubPaymentClient{lineItems: []gateway.CheckoutLineItem{
		{Name: "Camisa", Quantity: 2, UnitAmount: 1667, Currency: "usd"},
	}}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices, payment: payment})

	// 事件沒帶 items -> 回金流端撈，結算幣分用訂單匯率還原原幣
	require.NoError(t, h.HandlePaymentSucceeded(context.Background(), succeeded("o-1")))
	require.Equal(t, 1, payment.calls)
	require.Len(t, invoices.items, 1)
	require.True(t, invoices.items[0].UnitPriceSettlement.Equal(decimal.RequireFromString("16.67")))
	require.True(t, invoices.items[0].UnitPriceNative.Equal(decimal.RequireFromString("130.03")))
}

func TestHandlePaymentSucceededLineItemFallbackFailureIsNotFatal(t *testing.T) {
	orders := &stubOrderService{order: processingOrder(), markPaidUpdated: true}
	invoices := &stubInvoiceService{invoice: &model.Invoice{InvoiceID: "inv-1"}}
	payment := &stubPaymentClient{lineItemsErr: errors.New("payment svc down")}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices, payment: payment})

	require.NoError(t, h.HandlePaymentSucceeded(context.Background(), succeeded("o-1")))
	require.Empty(t, invoices.items)
	require.Equal(t, 1, invoices.calls)
}

func TestHandlePaymentSucceededUnknownOrderIsNoOp(t *testing.T) {
	orders := &stubOrderService{}
	invoices := &stubInvoiceService{}
	h := newTestHandler(handlerDeps{orders: orders, invoices: invoices})

	require.NoError(t, h.HandlePaymentSucceeded(context.Background(), succeeded("o-missing")))
	require.Zero(t, orders.markPaid)
	require.Zero(t, invoices.calls)
}

func TestHandlePaymentFailed(t *testing.T) {
	orders := &stubOrderService{order: processingOrder()}
	h := newTestHandler(handlerDeps{orders: orders})

	evt := &evt_model.PaymentFailedEvent{
		BaseEvent: evt_model.BaseEvent{EventID: "evt_f", EventType: evt_model.PaymentFailedEventName},
		OrderID:   "o-1",
		Reason:    "card_declined",
	}
	require.NoError(t, h.HandlePaymentFailed(context.Background(), evt))
	require.Equal(t, 1, orders.markFailed)
}

func TestHandlersRejectWrongEventType(t *testing.T) {
	h := newTestHandler(handlerDeps{})
	wrong := &evt_model.IgnoredEvent{BaseEvent: evt_model.BaseEvent{EventID: "evt_x"}}

	require.ErrorIs(t, h.HandleCheckoutCompleted(context.Background(), wrong), errUnknownEventFormat)
	require.ErrorIs(t, h.HandlePaymentSucceeded(context.Background(), wrong), errUnknownEventFormat)
	require.ErrorIs(t, h.HandlePaymentFailed(context.Background(), wrong), errUnknownEventFormat)
}
