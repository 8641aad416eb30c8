package models

import "time"

// SeckillApply 秒杀活动申请
// 秒杀类促销的库存记录在申请上，而不是通用促销商品表。
type SeckillApply struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SeckillID string    `gorm:"uniqueIndex:idx_seckill_apply_key;size:36;not null" json:"seckill_id"` // 秒杀活动ID（即促销活动ID）
	SkuID     string    `gorm:"uniqueIndex:idx_seckill_apply_key;size:36;not null" json:"sku_id"`
	GoodsName string    `json:"goods_name"`
	Quantity  int       `gorm:"not null;default:0" json:"quantity"`                 // 剩余秒杀库存
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 秒杀价
	SalesNum  int       `gorm:"not null;default:0" json:"sales_num"`                // 已售数量
	StoreID   string    `gorm:"index" json:"store_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName 指定表名
func (SeckillApply) TableName() string {
	return "seckill_applies"
}
