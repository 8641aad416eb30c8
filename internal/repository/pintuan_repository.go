package repository

import (
	"errors"

	"github.com/promotion-next/internal/models"

	"gorm.io/gorm"
)

// PintuanRepository 拼团活动数据访问接口
type PintuanRepository interface {
	GetByID(id string) (*models.Pintuan, error)
	Create(pintuan *models.Pintuan) error
}

// GormPintuanRepository GORM 实现
type GormPintuanRepository struct {
	db *gorm.DB
}

// NewPintuanRepository 创建拼团活动仓库
func NewPintuanRepository(db *gorm.DB) *GormPintuanRepository {
	return &GormPintuanRepository{db: db}
}

// GetByID 根据ID获取拼团活动
func (r *GormPintuanRepository) GetByID(id string) (*models.Pintuan, error) {
	var pintuan models.Pintuan
	if err := r.db.Where("id = ?", id).First(&pintuan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pintuan, nil
}

// Create 创建拼团活动
func (r *GormPintuanRepository) Create(pintuan *models.Pintuan) error {
	return r.db.Create(pintuan).Error
}
