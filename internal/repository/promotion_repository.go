package repository

import (
	"errors"

	"github.com/promotion-next/internal/models"

	"gorm.io/gorm"
)

// PromotionRepository 促销活动数据访问接口
type PromotionRepository interface {
	GetByID(id string) (*models.Promotion, error)
	Create(promotion *models.Promotion) error
	// UpdateStatusIf 条件状态变更：仅当当前状态属于 allowedPrior 时更新，
	// 返回是否有行被更新。无行更新不是错误，用于吸收重复/乱序投递。
	UpdateStatusIf(id string, allowedPrior []string, newStatus string) (bool, error)
	List(filter PromotionListFilter) ([]models.Promotion, int64, error)
	WithTx(tx *gorm.DB) *GormPromotionRepository
	Transaction(fn func(tx *gorm.DB) error) error
}

// PromotionListFilter 促销活动列表筛选
type PromotionListFilter struct {
	PromotionType   string
	PromotionStatus string
	StoreID         string
	Page            int
	PageSize        int
}

// GormPromotionRepository GORM 实现
type GormPromotionRepository struct {
	db *gorm.DB
}

// NewPromotionRepository 创建促销活动仓库
func NewPromotionRepository(db *gorm.DB) *GormPromotionRepository {
	return &GormPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPromotionRepository) WithTx(tx *gorm.DB) *GormPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormPromotionRepository{db: tx}
}

// Transaction 在事务中执行
func (r *GormPromotionRepository) Transaction(fn func(tx *gorm.DB) error) error {
	if fn == nil {
		return nil
	}
	return r.db.Transaction(fn)
}

// GetByID 根据ID获取促销活动
func (r *GormPromotionRepository) GetByID(id string) (*models.Promotion, error) {
	var promotion models.Promotion
	if err := r.db.Where("id = ?", id).First(&promotion).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// Create 创建促销活动
func (r *GormPromotionRepository) Create(promotion *models.Promotion) error {
	return r.db.Create(promotion).Error
}

// UpdateStatusIf 条件状态变更
func (r *GormPromotionRepository) UpdateStatusIf(id string, allowedPrior []string, newStatus string) (bool, error) {
	if len(allowedPrior) == 0 {
		return false, nil
	}
	result := r.db.Model(&models.Promotion{}).
		Where("id = ? AND promotion_status IN ?", id, allowedPrior).
		Update("promotion_status", newStatus)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List 获取促销活动列表
func (r *GormPromotionRepository) List(filter PromotionListFilter) ([]models.Promotion, int64, error) {
	var promotions []models.Promotion
	query := r.db.Model(&models.Promotion{})

	if filter.PromotionType != "" {
		query = query.Where("promotion_type = ?", filter.PromotionType)
	}
	if filter.PromotionStatus != "" {
		query = query.Where("promotion_status = ?", filter.PromotionStatus)
	}
	if filter.StoreID != "" {
		query = query.Where("store_id = ?", filter.StoreID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		if offset < 0 {
			offset = 0
		}
		query = query.Limit(filter.PageSize).Offset(offset)
	}

	if err := query.Order("created_at desc").Find(&promotions).Error; err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}
