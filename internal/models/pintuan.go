package models

import "time"

// Pintuan 拼团活动
// 活动ID与对应促销活动共用，成团人数决定拼团订单的处理结果。
type Pintuan struct {
	ID               string    `gorm:"primaryKey;size:36" json:"id"`
	PromotionName    string    `json:"promotion_name"`
	RequiredNum      int       `gorm:"not null;default:2" json:"required_num"`          // 成团所需人数
	LimitNum         int       `gorm:"not null;default:0" json:"limit_num"`             // 单次限购数量（0 为不限）
	FulfillmentForce bool      `gorm:"not null;default:false" json:"fulfillment_force"` // 人数不足时是否强制成团
	StoreID          string    `gorm:"index" json:"store_id"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Pintuan) TableName() string {
	return "pintuans"
}
