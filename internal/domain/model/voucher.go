package model

import "time"

type DiscountType string

const (
	DiscountTypePercent     DiscountType = "PERCENT"
	DiscountTypeFixedAmount DiscountType = "FIXED_AMOUNT"
)

// 割引クーポン。
// codeは大文字で保存（照合は trim + upper してから）。
// usage_limitは残り利用回数。注文確定時にデクリメントする。
type Voucher struct {
	ID            int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Code          string       `gorm:"type:varchar(50);not null;uniqueIndex" json:"code"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue int64        `gorm:"not null" json:"discount_value"`
	MinOrderValue int64        `gorm:"not null;default:0" json:"min_order_value"`
	StartDate     time.Time    `gorm:"not null" json:"start_date"`
	EndDate       time.Time    `gorm:"not null" json:"end_date"`
	UsageLimit    int64        `gorm:"not null" json:"usage_limit"`
	IsActive      bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time    `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
