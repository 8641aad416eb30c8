package models

import (
	"time"
)

// PromotionGoods 促销活动商品
// 唯一性由 (promotion_type, promotion_id, sku_id) 组合保证。
type PromotionGoods struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	PromotionType string     `gorm:"uniqueIndex:idx_promotion_goods_key;not null" json:"promotion_type"` // 促销类型
	PromotionID   string     `gorm:"uniqueIndex:idx_promotion_goods_key;size:36;not null" json:"promotion_id"`
	SkuID         string     `gorm:"uniqueIndex:idx_promotion_goods_key;size:36;not null" json:"sku_id"`
	GoodsName     string     `json:"goods_name"`                                         // 商品名称
	Quantity      int        `gorm:"not null;default:0" json:"quantity"`                 // 剩余促销库存，始终 >= 0
	Price         Money      `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 促销价
	StoreID       string     `gorm:"index" json:"store_id"`
	ScopeType     string     `json:"scope_type"`    // 范围（继承自活动）
	ScopeID       string     `json:"scope_id"`      // 范围明细
	CategoryPath  string     `json:"category_path"` // 商品分类路径（范围匹配用）
	StartTime     time.Time  `gorm:"index" json:"start_time"`
	EndTime       *time.Time `gorm:"index" json:"end_time"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (PromotionGoods) TableName() string {
	return "promotion_goods"
}
