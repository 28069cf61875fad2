package model

import "time"

type PaymentTxStatus string

const (
	PaymentTxStatusPending PaymentTxStatus = "Pending"
	PaymentTxStatusSuccess PaymentTxStatus = "Success"
	PaymentTxStatusFailed  PaymentTxStatus = "Failed"
)

// 決済レコード。1注文に複数ぶら下がるが、Successは1つまで。
type Payment struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID       int64           `gorm:"not null;index" json:"order_id"`
	Method        string          `gorm:"type:varchar(50);not null" json:"method"`
	Amount        int64           `gorm:"not null" json:"amount"`
	TransactionID string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	Status        PaymentTxStatus `gorm:"type:varchar(10);not null;index" json:"status"`
	ResponseCode  string          `gorm:"type:varchar(10)" json:"response_code"`
	Note          string          `gorm:"type:varchar(255)" json:"note"`
	CreatedAt     time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
