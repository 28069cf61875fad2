package usecase

// 送料・合計の計算ルール。
// 小計がFreeShipThresholdを超えたら（ちょうどは含まない）送料無料、それ以外は一律。
const (
	FreeShipThreshold int64 = 500000
	FlatShippingFee   int64 = 30000
)

// 金額計算に使う行（単価×数量）
type PriceLine struct {
	UnitPrice int64
	Quantity  int64
}

type PriceSummary struct {
	Subtotal       int64 `json:"subtotal"`
	ShippingFee    int64 `json:"shipping_fee"`
	DiscountAmount int64 `json:"discount_amount"`
	TotalAmount    int64 `json:"total_amount"`
}

// 小計 = Σ 単価×数量
func Subtotal(lines []PriceLine) int64 {
	var subtotal int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal += l.UnitPrice * l.Quantity
	}
	return subtotal
}

// 送料。しきい値「超え」で無料（ちょうど500000は有料のまま）。
func CalcShippingFee(subtotal int64) int64 {
	if subtotal > FreeShipThreshold {
		return 0
	}
	return FlatShippingFee
}

// 割引は小計を超えない
func ClampDiscount(discount int64, subtotal int64) int64 {
	if discount < 0 {
		return 0
	}
	if discount > subtotal {
		return subtotal
	}
	return discount
}

// 合計 = 小計 + 送料 - 割引（0未満にはしない）
func CalcTotal(subtotal int64, shippingFee int64, discount int64) int64 {
	total := subtotal + shippingFee - discount
	if total < 0 {
		return 0
	}
	return total
}

// まとめて計算（割引はここでもclampする）
func CalcPriceSummary(lines []PriceLine, discount int64) PriceSummary {
	subtotal := Subtotal(lines)
	shipping := CalcShippingFee(subtotal)
	clamped := ClampDiscount(discount, subtotal)

	return PriceSummary{
		Subtotal:       subtotal,
		ShippingFee:    shipping,
		DiscountAmount: clamped,
		TotalAmount:    CalcTotal(subtotal, shipping, clamped),
	}
}
