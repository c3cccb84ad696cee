package money

import "github.com/shopspring/decimal"

// 匯率方向: 1 原幣 (GTQ) = rate 結算幣 (USD)
// 全部以整數分為單位計算，四捨五入只發生在最後一步

// ToSettlementCents 原幣分 -> 結算幣分
func ToSettlementCents(nativeCents int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(nativeCents).Mul(rate).Round(0).IntPart()
}

// ToNativeCents 結算幣分 -> 原幣分
func ToNativeCents(settlementCents int64, rate decimal.Decimal) int64 {
	if rate.IsZero() {
		return 0
	}
	return decimal.NewFromInt(settlementCents).Div(rate).Round(0).IntPart()
}

// UnitToSettlementCents 原幣單價 (例如 129.99) -> 結算幣分
func UnitToSettlementCents(nativeUnit decimal.Decimal, rate decimal.Decimal) int64 {
	return nativeUnit.Mul(rate).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// UnitToNativeCents 原幣單價 -> 原幣分
func UnitToNativeCents(nativeUnit decimal.Decimal) int64 {
	return nativeUnit.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CentsToUnit 分 -> 金額 (兩位小數)
func CentsToUnit(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).Round(2)
}

// SettlementUnitFromNative 原幣單價換算結算幣單價 (兩位小數)
func SettlementUnitFromNative(nativeUnit decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	return nativeUnit.Mul(rate).Round(2)
}

// NativeUnitFromSettlement 結算幣單價還原原幣單價 (兩位小數)
// 用訂單當下鎖定的匯率，避免開發票時讀到漂移後的匯率
func NativeUnitFromSettlement(settlementUnit decimal.Decimal, rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.Zero
	}
	return settlementUnit.Div(rate).Round(2)
}
