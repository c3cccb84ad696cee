package service

import (
	"context"
	"errors"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	"github.com/SHolweger/payment-service-main/internal/infra/repository/db"
)

var (
	ErrOrderNotExist   = errors.New("order is not exist")
	ErrInvoiceNotExist = errors.New("invoice is not exist")
	ErrInvoiceExists   = errors.New("invoice already created")
	ErrOrderNotPaid    = errors.New("order is not paid")
	ErrEmptyItems      = errors.New("items is empty")
)

type IOrderService interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	RecordCheckoutRefs(ctx context.Context, orderID, sessionID, paymentIntentID string) error
	MarkProcessing(ctx context.Context, orderID, sessionID, paymentIntentID string) (bool, error)
	MarkPaid(ctx context.Context, orderID, paymentIntentID string) (bool, error)
	MarkFailed(ctx context.Context, orderID string) (bool, error)
	MarkDecremented(ctx context.Context, orderID string) (bool, error)
}

// OrderService 狀態機: pending -> processing -> paid | failed
// 狀態寫入與 fulfillment 是否執行是兩件事，分開判斷
type OrderService struct {
	orderRepo db.IOrderRepository
}

func NewOrderService(orderRepo db.IOrderRepository) *OrderService {
	if orderRepo == nil {
		panic("orderRepo cannot be nil")
	}
	return &OrderService{orderRepo: orderRepo}
}

func (o *OrderService) CreateOrder(ctx context.Context, order *model.Order) error {
	return o.orderRepo.CreateOrder(ctx, order)
}

func (o *OrderService) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := o.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotExist
	}
	return order, nil
}

func (o *OrderService) RecordCheckoutRefs(ctx context.Context, orderID, sessionID, paymentIntentID string) error {
	return o.orderRepo.UpdateCheckoutRefs(ctx, orderID, sessionID, paymentIntentID)
}

// MarkProcessing 回傳 false 表示訂單已在終態，狀態不動
func (o *OrderService) MarkProcessing(ctx context.Context, orderID, sessionID, paymentIntentID string) (bool, error) {
	return o.orderRepo.MarkProcessing(ctx, orderID, sessionID, paymentIntentID)
}

// MarkPaid 已是 paid 時跳過狀態寫入
// 呼叫端仍要繼續跑發票/出貨，前一次投遞可能在狀態寫入後就掛了
func (o *OrderService) MarkPaid(ctx context.Context, orderID, paymentIntentID string) (bool, error) {
	return o.orderRepo.MarkPaid(ctx, orderID, paymentIntentID)
}

func (o *OrderService) MarkFailed(ctx context.Context, orderID string) (bool, error) {
	return o.orderRepo.MarkFailed(ctx, orderID)
}

// MarkDecremented CAS 設定扣庫存旗標，只會成功一次
func (o *OrderService) MarkDecremented(ctx context.Context, orderID string) (bool, error) {
	return o.orderRepo.SetDecremented(ctx, orderID)
}

var _ IOrderService = (*OrderService)(nil)
