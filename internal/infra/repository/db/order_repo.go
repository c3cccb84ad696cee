package db

import (
	"context"
	"errors"

	"github.com/SHolweger/payment-service-main/internal/domain/model"
	"gorm.io/gorm"
)

type IOrderRepository interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	UpdateCheckoutRefs(ctx context.Context, id, sessionID, paymentIntentID string) error
	// 條件式更新，回傳是否真的有改到 row
	MarkProcessing(ctx context.Context, id, sessionID, paymentIntentID string) (bool, error)
	MarkPaid(ctx context.Context, id, paymentIntentID string) (bool, error)
	MarkFailed(ctx context.Context, id string) (bool, error)
	// compare-and-set，同一張訂單只會成功一次
	SetDecremented(ctx context.Context, id string) (bool, error)
}

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func (r *OrderRepo) CreateOrder(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *OrderRepo) GetOrderByID(ctx context.Context, id string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).First(&order, "order_id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepo) UpdateCheckoutRefs(ctx context.Context, id, sessionID, paymentIntentID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ?", id).
		Updates(map[string]interface{}{
			"session_id":        sessionID,
			"payment_intent_id": paymentIntentID,
		}).Error
}

// MarkProcessing 終態訂單不會被後來的 checkout 事件拉回 processing
func (r *OrderRepo) MarkProcessing(ctx context.Context, id, sessionID, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status NOT IN ?", id, terminalStatuses()).
		Updates(map[string]interface{}{
			"status":            model.OrderStatusProcessing,
			"session_id":        sessionID,
			"payment_intent_id": paymentIntentID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *OrderRepo) MarkPaid(ctx context.Context, id, paymentIntentID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status NOT IN ?", id, terminalStatuses()).
		Updates(map[string]interface{}{
			"status":            model.OrderStatusPaid,
			"payment_intent_id": paymentIntentID,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *OrderRepo) MarkFailed(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND status NOT IN ?", id, terminalStatuses()).
		Update("status", model.OrderStatusFailed)
	return res.RowsAffected > 0, res.Error
}

// SetDecremented 用 rows affected 當 CAS 的判斷依據
func (r *OrderRepo) SetDecremented(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("order_id = ? AND decremented = ?", id, false).
		Update("decremented", true)
	return res.RowsAffected > 0, res.Error
}

func terminalStatuses() []model.OrderStatus {
	return []model.OrderStatus{model.OrderStatusPaid, model.OrderStatusFailed}
}

var _ IOrderRepository = (*OrderRepo)(nil)
