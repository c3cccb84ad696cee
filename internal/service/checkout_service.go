package service

import (
	"context"
	"fmt"
	"time"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	evt_model "github.com/SHolweger/payment-service-main/internal/domain/model/event"
	"github.com/SHolweger/payment-service-main/internal/domain/money"
	"github.com/SHolweger/payment-service-main/internal/infra/gateway"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const settlementCurrency = "usd"

type CheckoutItem struct {
	Name      string
	Price     decimal.Decimal // 原幣 (GTQ) 單價
	Quantity  int
	VariantID int64
	ProductID int64
}

type CheckoutRequest struct {
	UserID        string
	TaxID         string
	Destination   string
	ShippingCost  decimal.Decimal
	EstimatedDate *time.Time
	Items         []CheckoutItem
}

type ICheckoutService interface {
	// CreateCheckoutSession 建 pending 訂單 + 開結帳頁，回傳導向 url
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// CheckoutService 結帳時就把匯率鎖進訂單
// 之後開發票、還原明細都用這個匯率，不會被匯率漂移影響
type CheckoutService struct {
	orderService IOrderService
	payment      gateway.IPaymentClient
	rate         decimal.Decimal
	frontendURL  string
	logger       zerolog.Logger
}

func NewCheckoutService(orderService IOrderService, payment gateway.IPaymentClient, rate decimal.Decimal, frontendURL string, logger zerolog.Logger) *CheckoutService {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	if payment == nil {
		panic("payment client cannot be nil")
	}
	if !rate.IsPositive() {
		panic("exchange rate must be positive")
	}
	return &CheckoutService{
		orderService: orderService,
		payment:      payment,
		rate:         rate,
		frontendURL:  frontendURL,
		logger:       logger,
	}
}

func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if len(req.Items) == 0 {
		return "", ErrEmptyItems
	}

	// 逐行換算成結算幣分再加總，總額才會跟金流端逐行計算的結果一致
	var amountNative, amountSettlement int64
	sessionItems := make([]gateway.SessionLineItem, 0, len(req.Items))
	metaItems := make([]evt_model.EventItem, 0, len(req.Items))
	for _, item := range req.Items {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		unitSettlement := money.UnitToSettlementCents(item.Price, s.rate)
		amountNative += money.UnitToNativeCents(item.Price) * int64(qty)
		amountSettlement += unitSettlement * int64(qty)

		sessionItems = append(sessionItems, gateway.SessionLineItem{
			Name:       item.Name,
			UnitAmount: unitSettlement,
			Currency:   settlementCurrency,
			Quantity:   qty,
		})
		metaItems = append(metaItems, evt_model.EventItem{
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  qty,
			VariantID: item.VariantID,
			ProductID: item.ProductID,
		})
	}

	order := &model.Order{
		OrderID:          uuid.NewString(),
		UserID:           req.UserID,
		AmountNative:     amountNative,
		AmountSettlement: amountSettlement,
		Currency:         settlementCurrency,
		ExchangeRate:     s.rate,
		TaxID:            req.TaxID,
		Status:           model.OrderStatusPending,
		ShipDestination:  req.Destination,
		ShipCost:         req.ShippingCost,
		ShipEstimatedAt:  req.EstimatedDate,
	}
	if err := s.orderService.CreateOrder(ctx, order); err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}

	metadata, err := s.buildMetadata(order, metaItems, req)
	if err != nil {
		return "", err
	}

	session, err := s.payment.CreateCheckoutSession(ctx, gateway.CheckoutSessionRequest{
		Mode:              "payment",
		SuccessURL:        fmt.Sprintf("%s/payment/success?session_id={CHECKOUT_SESSION_ID}", s.frontendURL),
		CancelURL:         fmt.Sprintf("%s/payment/cancel?session_id={CHECKOUT_SESSION_ID}", s.frontendURL),
		ClientReferenceID: req.UserID,
		Metadata:          metadata,
		LineItems:         sessionItems,
	})
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	if err := s.orderService.RecordCheckoutRefs(ctx, order.OrderID, session.ID, session.PaymentIntent); err != nil {
		// session 已經開了，refs 之後 checkout completed 事件還會再補一次
		s.logger.Warn().Err(err).Str("order_id", order.OrderID).Msg("record checkout refs failed")
	}

	return session.URL, nil
}

func (s *CheckoutService) buildMetadata(order *model.Order, items []evt_model.EventItem, req CheckoutRequest) (map[string]string, error) {
	encoded, err := evt_model.EncodeItems(items)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		evt_model.MetaOrderID: order.OrderID,
		evt_model.MetaItems:   encoded,
	}
	if req.TaxID != "" {
		metadata[evt_model.MetaTaxID] = req.TaxID
	}
	if req.Destination != "" {
		metadata[evt_model.MetaShipTo] = req.Destination
	}
	if req.ShippingCost.IsPositive() {
		metadata[evt_model.MetaShipCost] = req.ShippingCost.String()
	}
	if req.EstimatedDate != nil {
		metadata[evt_model.MetaShipETA] = evt_model.FormatMetaDate(*req.EstimatedDate)
	}
	return metadata, nil
}

var _ ICheckoutService = (*CheckoutService)(nil)
