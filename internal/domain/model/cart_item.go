package model

import "time"

// カートの明細
// (cart, product, size) で1行。同じ組を追加したときは数量加算。
// 追加時点の価格を必ず保存（表示用。注文確定時は最新価格で取り直す）。
type CartItem struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID            int64     `gorm:"not null;index;uniqueIndex:uniq_cart_product_size" json:"cart_id"`
	ProductID         int64     `gorm:"not null;index;uniqueIndex:uniq_cart_product_size" json:"product_id"`
	Size              string    `gorm:"type:varchar(20);not null;uniqueIndex:uniq_cart_product_size" json:"size"`
	Quantity          int64     `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot int64     `gorm:"not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
