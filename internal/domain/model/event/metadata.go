package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// metadata 欄位名稱，閘道限制 value 長度，items 走壓縮過的 json
const (
	MetaOrderID  = "orderId"
	MetaTaxID    = "taxId"
	MetaItems    = "items"
	MetaShipTo   = "shipTo"
	MetaShipCost = "shipCost"
	MetaShipETA  = "shipEta"

	metaDateLayout = "2006-01-02"
	maxItemName    = 200
)

// EventItem metadata 裡的單筆商品，欄位名刻意縮短以節省額度
// Price 為原幣 (GTQ) 單價
type EventItem struct {
	Name      string          `json:"n"`
	Price     decimal.Decimal `json:"p"`
	Quantity  int             `json:"q"`
	VariantID int64           `json:"v,omitempty"`
	ProductID int64           `json:"pr,omitempty"`
}

func EncodeItems(items []EventItem) (string, error) {
	safe := make([]EventItem, len(items))
	for i, it := range items {
		if runes := []rune(it.Name); len(runes) > maxItemName {
			it.Name = string(runes[:maxItemName])
		}
		safe[i] = it
	}
	b, err := json.Marshal(safe)
	if err != nil {
		return "", fmt.Errorf("encode items metadata: %w", err)
	}
	return string(b), nil
}

func DecodeItems(raw string) ([]EventItem, error) {
	if raw == "" {
		return nil, nil
	}
	var items []EventItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("decode items metadata: %w", err)
	}
	return items, nil
}

// shippingFromMeta 還原結帳時存進 metadata 的出貨意向
// 任一欄位缺漏不視為錯誤，缺什麼就留零值
func shippingFromMeta(meta map[string]string) *ShippingIntent {
	dest, hasDest := meta[MetaShipTo]
	costRaw, hasCost := meta[MetaShipCost]
	etaRaw, hasETA := meta[MetaShipETA]
	if !hasDest && !hasCost && !hasETA {
		return nil
	}

	intent := &ShippingIntent{Destination: dest}
	if hasCost {
		if cost, err := decimal.NewFromString(costRaw); err == nil {
			intent.Cost = cost
		}
	}
	if hasETA {
		if eta, err := time.Parse(metaDateLayout, etaRaw); err == nil {
			intent.EstimatedAt = &eta
		}
	}
	return intent
}

func FormatMetaDate(t time.Time) string {
	return t.Format(metaDateLayout)
}
