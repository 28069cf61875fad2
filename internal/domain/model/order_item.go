package model

import "time"

// 注文明細。作成時に単価と行合計を凍結する（商品の値上げ・値下げに追従しない）。
type OrderItem struct {
	ID                  int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID             int64     `gorm:"not null;index" json:"order_id"`
	ProductID           int64     `gorm:"not null;index" json:"product_id"`
	ProductNameSnapshot string    `gorm:"type:varchar(255);not null" json:"product_name_snapshot"`
	Size                string    `gorm:"type:varchar(20);not null" json:"size"`
	UnitPriceSnapshot   int64     `gorm:"not null" json:"unit_price_snapshot"`
	Quantity            int64     `gorm:"not null" json:"quantity"`
	TotalPrice          int64     `gorm:"not null" json:"total_price"`
	CreatedAt           time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}
