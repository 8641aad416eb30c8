package models

import "time"

// Order 订单（拼团结算所需的最小字段集）
type Order struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	OrderSn     string    `gorm:"uniqueIndex;size:64;not null" json:"order_sn"` // 订单编号
	MemberID    string    `gorm:"index;size:36" json:"member_id"`
	PintuanID   string    `gorm:"index;size:36" json:"pintuan_id"` // 所属拼团活动
	ParentSn    string    `gorm:"index;size:64" json:"parent_sn"`  // 团长订单编号（同团订单共享）
	OrderStatus string    `gorm:"index;not null" json:"order_status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
