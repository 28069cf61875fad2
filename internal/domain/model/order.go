package model

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusConfirmed OrderStatus = "Confirmed"
	OrderStatusShipping  OrderStatus = "Shipping"
	OrderStatusCompleted OrderStatus = "Completed"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid PaymentStatus = "Unpaid"
	PaymentStatusPaid   PaymentStatus = "Paid"
)

// 注文ヘッダ。
// total_amount = 明細合計 + shipping_fee - discount_amount（0未満にしない）
type Order struct {
	ID              int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID          int64         `gorm:"not null;index" json:"user_id"`
	ReceiverName    string        `gorm:"type:varchar(255);not null" json:"receiver_name"`
	ReceiverPhone   string        `gorm:"type:varchar(30);not null" json:"receiver_phone"`
	ReceiverAddress string        `gorm:"type:varchar(500);not null" json:"receiver_address"`
	Status          OrderStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod   string        `gorm:"type:varchar(50);not null" json:"payment_method"`
	PaymentStatus   PaymentStatus `gorm:"type:varchar(10);not null" json:"payment_status"`
	ShippingFee     int64         `gorm:"not null" json:"shipping_fee"`
	DiscountAmount  int64         `gorm:"not null" json:"discount_amount"`
	TotalAmount     int64         `gorm:"not null" json:"total_amount"`
	VoucherID       *int64        `gorm:"index" json:"voucher_id,omitempty"`
	IdempotencyKey  string        `gorm:"type:varchar(255);not null;uniqueIndex" json:"-"`
	CreatedAt       time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// ステータス遷移表（前方向のみ）。
// Cancelledは終端以外のどこからでも可。終端（Completed/Cancelled）からは遷移不可。
var orderStatusNext = map[OrderStatus]OrderStatus{
	OrderStatusPending:   OrderStatusConfirmed,
	OrderStatusConfirmed: OrderStatusShipping,
	OrderStatusShipping:  OrderStatusCompleted,
}

// 終端かどうか
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// fromからtoへ遷移できるか。
// 1段ずつしか進めない（Pending→Shippingのような飛ばしは不可）。
func CanTransitionOrderStatus(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == OrderStatusCancelled {
		return true
	}
	return orderStatusNext[from] == to
}
