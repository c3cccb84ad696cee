package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvoiceStatusIssued = "issued"
)

// Invoice 一張訂單只會有一張發票
// 除了 ReceiptURL 補寫之外，建立後不再變動
type Invoice struct {
	InvoiceID   string          `gorm:"primaryKey;type:varchar(64)"`
	OrderID     string          `gorm:"not null;type:varchar(64);uniqueIndex"`
	UserID      string          `gorm:"not null;type:varchar(64)"`
	Company     string          `gorm:"type:varchar(128)"`
	TotalAmount int64           `gorm:"not null"`
	Currency    string          `gorm:"not null;type:varchar(8)"`
	TaxID       string          `gorm:"type:varchar(32)"`
	ReceiptURL  string          `gorm:"type:varchar(512)"`
	Series      string          `gorm:"type:varchar(16)"`
	Number      string          `gorm:"type:varchar(32)"`
	Status      string          `gorm:"not null;type:varchar(16);default:'issued'"`
	IssuedAt    time.Time       `gorm:"not null"`
	Details     []InvoiceDetail `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	BaseModel
}

// InvoiceDetail 發票明細，建立一次後不可變
// 單價與小計同時保存原幣 (GTQ) 與結算幣 (USD)
type InvoiceDetail struct {
	DetailID            string          `gorm:"primaryKey;type:varchar(64)"`
	InvoiceID           string          `gorm:"not null;type:varchar(64);index"`
	ProductName         string          `gorm:"not null;type:varchar(255)"`
	Quantity            int             `gorm:"not null"`
	UnitPriceNative     decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	UnitPriceSettlement decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	SubtotalNative      decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	SubtotalSettlement  decimal.Decimal `gorm:"not null;type:decimal(10,2)"`
	BaseModel
}
