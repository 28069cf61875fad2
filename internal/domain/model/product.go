package model

import (
	"time"

	"gorm.io/gorm"
)

type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"`
	IsActive    bool           `gorm:"not null;default:false" json:"is_active"`
	CreatedAt   time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	//サイズ別在庫（S/M/Lなど）
	Sizes []ProductSize `gorm:"foreignKey:ProductID" json:"sizes,omitempty"`
}

// サイズ別の在庫行。
// 在庫はproductではなくここで持つ（カート・注文明細が(商品,サイズ)単位のため）。
type ProductSize struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64     `gorm:"not null;index;uniqueIndex:uniq_product_size" json:"product_id"`
	Size      string    `gorm:"type:varchar(20);not null;uniqueIndex:uniq_product_size" json:"size"`
	Stock     int64     `gorm:"not null" json:"stock"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
