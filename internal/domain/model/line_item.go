package model

import "github.com/shopspring/decimal"

// OrderLineItem 付款事件解析出來的商品明細，不落地
// 來源是事件 metadata，或用結帳明細 + 訂單匯率還原
type OrderLineItem struct {
	ProductID           int64
	VariantID           int64
	Name                string
	Quantity            int
	UnitPriceNative     decimal.Decimal
	UnitPriceSettlement decimal.Decimal
}

func (i OrderLineItem) SubtotalNative() decimal.Decimal {
	return i.UnitPriceNative.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i OrderLineItem) SubtotalSettlement() decimal.Decimal {
	return i.UnitPriceSettlement.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
