package models

import (
	"time"

	"gorm.io/gorm"
)

// Promotion 促销活动
type Promotion struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`           // 活动ID
	Title           string         `gorm:"not null" json:"title"`                  // 活动名称
	PromotionType   string         `gorm:"index;not null" json:"promotion_type"`   // 类型（SECKILL/PINTUAN/COUPON_ACTIVITY/...）
	PromotionStatus string         `gorm:"index;not null" json:"promotion_status"` // 状态（NEW/START/END/CLOSE）
	ScopeType       string         `gorm:"not null" json:"scope_type"`             // 范围（ALL/PORTION_GOODS_CATEGORY/PORTION_GOODS）
	ScopeID         string         `json:"scope_id"`                               // 范围明细（分类路径或skuId列表）
	StoreID         string         `gorm:"index" json:"store_id"`                  // 店铺ID
	StartTime       time.Time      `gorm:"index" json:"start_time"`                // 开始时间
	EndTime         *time.Time     `gorm:"index" json:"end_time"`                  // 结束时间（可为空，表示无固定结束时间）
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName 指定表名
func (Promotion) TableName() string {
	return "promotions"
}
