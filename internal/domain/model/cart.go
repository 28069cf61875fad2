package model

import "time"

type CartStatus string

const (
	CartStatusActive     CartStatus = "ACTIVE"
	CartStatusCheckedOut CartStatus = "CHECKED_OUT"
)

// 所有者はログインユーザー（user_id）またはゲスト（session_token）のどちらか。
// 1所有者につきACTIVEは1つ
type Cart struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID       *int64     `gorm:"index" json:"user_id,omitempty"`
	SessionToken string     `gorm:"type:varchar(64);index" json:"-"`
	Status       CartStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt    time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
