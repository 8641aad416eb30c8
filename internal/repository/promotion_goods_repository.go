package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/models"

	"gorm.io/gorm"
)

// PromotionGoodsRepository 促销商品数据访问接口
type PromotionGoodsRepository interface {
	GetByUnique(promotionType, promotionID, skuID string) (*models.PromotionGoods, error)
	ListByPromotion(promotionType, promotionID string, skuIDs []string) ([]models.PromotionGoods, error)
	// UpdateQuantity 定向更新 (type, promotionId, skuId) 一行的剩余库存
	UpdateQuantity(promotionType, promotionID, skuID string, quantity int) (bool, error)
	// CountInnerOverlap 统计同类型同 sku 在给定时间窗内已有的促销商品行数，
	// excludePromotionID 非空时排除该活动自身（编辑校验用）
	CountInnerOverlap(promotionType, skuID string, startTime, endTime time.Time, excludePromotionID string) (int64, error)
	// ReplaceByPromotion 整体替换活动商品：先删后插在同一事务内完成
	ReplaceByPromotion(promotionID string, goods []models.PromotionGoods) error
	DeleteByPromotionSkus(promotionID string, skuIDs []string) error
	DeleteByPromotions(promotionIDs []string) error
	// FindSkuValid 查询 sku 当前有效（进行中或未开始）的促销商品，
	// 按范围匹配：指定 sku、全场、或分类路径命中
	FindSkuValid(skuID, categoryPath string, storeIDs []string, now time.Time) ([]models.PromotionGoods, error)
	WithTx(tx *gorm.DB) *GormPromotionGoodsRepository
}

// GormPromotionGoodsRepository GORM 实现
type GormPromotionGoodsRepository struct {
	db *gorm.DB
}

// NewPromotionGoodsRepository 创建促销商品仓库
func NewPromotionGoodsRepository(db *gorm.DB) *GormPromotionGoodsRepository {
	return &GormPromotionGoodsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionGoodsRepository) WithTx(tx *gorm.DB) *GormPromotionGoodsRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionGoodsRepository{db: tx}
}

// GetByUnique 根据 (type, promotionId, skuId) 获取促销商品
func (r *GormPromotionGoodsRepository) GetByUnique(promotionType, promotionID, skuID string) (*models.PromotionGoods, error) {
	var goods models.PromotionGoods
	err := r.db.Where("promotion_type = ? AND promotion_id = ? AND sku_id = ?", promotionType, promotionID, skuID).
		First(&goods).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &goods, nil
}

// ListByPromotion 批量获取活动商品，skuIDs 非空时按 sku 过滤
func (r *GormPromotionGoodsRepository) ListByPromotion(promotionType, promotionID string, skuIDs []string) ([]models.PromotionGoods, error) {
	var goods []models.PromotionGoods
	query := r.db.Where("promotion_type = ? AND promotion_id = ?", promotionType, promotionID)
	if len(skuIDs) > 0 {
		query = query.Where("sku_id IN ?", skuIDs)
	}
	if err := query.Find(&goods).Error; err != nil {
		return nil, err
	}
	return goods, nil
}

// UpdateQuantity 定向更新剩余库存
func (r *GormPromotionGoodsRepository) UpdateQuantity(promotionType, promotionID, skuID string, quantity int) (bool, error) {
	result := r.db.Model(&models.PromotionGoods{}).
		Where("promotion_type = ? AND promotion_id = ? AND sku_id = ?", promotionType, promotionID, skuID).
		Update("quantity", quantity)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// CountInnerOverlap 统计重叠促销商品
// 窗口相交判定：已有行的 start_time < 窗口结束 且 end_time > 窗口开始。
// end_time 为空表示不限期活动，与一切晚于其开始的窗口重叠。
func (r *GormPromotionGoodsRepository) CountInnerOverlap(promotionType, skuID string, startTime, endTime time.Time, excludePromotionID string) (int64, error) {
	var count int64
	query := r.db.Model(&models.PromotionGoods{}).
		Where("promotion_type = ? AND sku_id = ?", promotionType, skuID).
		Where("start_time < ? AND (end_time IS NULL OR end_time > ?)", endTime, startTime)
	if excludePromotionID != "" {
		query = query.Where("promotion_id <> ?", excludePromotionID)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceByPromotion 整体替换活动商品
func (r *GormPromotionGoodsRepository) ReplaceByPromotion(promotionID string, goods []models.PromotionGoods) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("promotion_id = ?", promotionID).Delete(&models.PromotionGoods{}).Error; err != nil {
			return err
		}
		if len(goods) == 0 {
			return nil
		}
		return tx.Create(&goods).Error
	})
}

// DeleteByPromotionSkus 删除活动下指定 sku 的促销商品
func (r *GormPromotionGoodsRepository) DeleteByPromotionSkus(promotionID string, skuIDs []string) error {
	if len(skuIDs) == 0 {
		return nil
	}
	return r.db.Where("promotion_id = ? AND sku_id IN ?", promotionID, skuIDs).
		Delete(&models.PromotionGoods{}).Error
}

// DeleteByPromotions 删除多个活动的全部促销商品
func (r *GormPromotionGoodsRepository) DeleteByPromotions(promotionIDs []string) error {
	if len(promotionIDs) == 0 {
		return nil
	}
	return r.db.Where("promotion_id IN ?", promotionIDs).
		Delete(&models.PromotionGoods{}).Error
}

// FindSkuValid 查询 sku 当前有效的促销商品
func (r *GormPromotionGoodsRepository) FindSkuValid(skuID, categoryPath string, storeIDs []string, now time.Time) ([]models.PromotionGoods, error) {
	var goods []models.PromotionGoods
	query := r.db.Model(&models.PromotionGoods{}).
		Where(
			r.db.Where("sku_id = ?", skuID).
				Or("scope_type = ?", constants.ScopeTypeAll).
				Or("scope_type = ? AND scope_id LIKE ?", constants.ScopeTypePortionGoodsCategory, fmt.Sprintf("%%%s%%", categoryPath)),
		).
		// 进行中（窗口覆盖当前时刻）或尚未开始的活动
		Where(
			r.db.Where("start_time <= ? AND (end_time IS NULL OR end_time >= ?)", now, now).
				Or("start_time > ?", now),
		)
	if len(storeIDs) > 0 {
		query = query.Where("store_id IN ?", storeIDs)
	}
	if err := query.Find(&goods).Error; err != nil {
		return nil, err
	}
	return goods, nil
}
