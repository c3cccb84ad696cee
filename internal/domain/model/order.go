package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusPaid       OrderStatus = "paid"
	OrderStatusFailed     OrderStatus = "failed"
)

// paid / failed 為終態，後續 webhook 事件不會再改變訂單狀態
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusPaid || s == OrderStatusFailed
}

// Order 為整個付款 saga 的聚合根
// AmountNative 與 AmountSettlement 可用 ExchangeRate 互相換算 (結帳時鎖定匯率)
// Decremented 一旦為 true 就不會重設，庫存扣減每張訂單最多執行一次
type Order struct {
	OrderID          string          `gorm:"primaryKey;type:varchar(64)"`
	UserID           string          `gorm:"not null;type:varchar(64);index"`
	AmountNative     int64           `gorm:"not null"`
	AmountSettlement int64           `gorm:"not null"`
	Currency         string          `gorm:"not null;type:varchar(8)"`
	ExchangeRate     decimal.Decimal `gorm:"not null;type:decimal(12,6)"`
	TaxID            string          `gorm:"type:varchar(32)"`
	Status           OrderStatus     `gorm:"not null;type:varchar(16);default:'pending'"`
	SessionID        string          `gorm:"type:varchar(128);index"`
	PaymentIntentID  string          `gorm:"type:varchar(128)"`
	Decremented      bool            `gorm:"not null;default:false"`
	ShipDestination  string          `gorm:"type:varchar(255)"`
	ShipCost         decimal.Decimal `gorm:"type:decimal(10,2)"`
	ShipEstimatedAt  *time.Time      `gorm:"null"`
	BaseModel
}
