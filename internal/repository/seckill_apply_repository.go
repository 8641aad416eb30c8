package repository

import (
	"errors"

	"github.com/promotion-next/internal/models"

	"gorm.io/gorm"
)

// SeckillApplyRepository 秒杀申请数据访问接口
type SeckillApplyRepository interface {
	// GetBySeckillAndSku 点查秒杀申请；不存在返回 (nil, nil)，由上层判定为领域错误
	GetBySeckillAndSku(seckillID, skuID string) (*models.SeckillApply, error)
	Create(apply *models.SeckillApply) error
	// UpdateQuantity 更新秒杀申请剩余库存
	UpdateQuantity(seckillID, skuID string, quantity int) (bool, error)
}

// GormSeckillApplyRepository GORM 实现
type GormSeckillApplyRepository struct {
	db *gorm.DB
}

// NewSeckillApplyRepository 创建秒杀申请仓库
func NewSeckillApplyRepository(db *gorm.DB) *GormSeckillApplyRepository {
	return &GormSeckillApplyRepository{db: db}
}

// GetBySeckillAndSku 点查秒杀申请
func (r *GormSeckillApplyRepository) GetBySeckillAndSku(seckillID, skuID string) (*models.SeckillApply, error) {
	var apply models.SeckillApply
	err := r.db.Where("seckill_id = ? AND sku_id = ?", seckillID, skuID).First(&apply).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &apply, nil
}

// Create 创建秒杀申请
func (r *GormSeckillApplyRepository) Create(apply *models.SeckillApply) error {
	return r.db.Create(apply).Error
}

// UpdateQuantity 更新秒杀申请剩余库存
func (r *GormSeckillApplyRepository) UpdateQuantity(seckillID, skuID string, quantity int) (bool, error) {
	result := r.db.Model(&models.SeckillApply{}).
		Where("seckill_id = ? AND sku_id = ?", seckillID, skuID).
		Update("quantity", quantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
