package repository

import (
	"errors"

	"github.com/promotion-next/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口（拼团结算所需的最小集合）
type OrderRepository interface {
	GetByOrderSn(orderSn string) (*models.Order, error)
	ListByPintuan(pintuanID string) ([]models.Order, error)
	// UpdateStatusBySns 批量更新订单状态，返回受影响行数
	UpdateStatusBySns(orderSns []string, status string) (int64, error)
	Create(order *models.Order) error
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// GetByOrderSn 根据订单编号获取订单
func (r *GormOrderRepository) GetByOrderSn(orderSn string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_sn = ?", orderSn).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByPintuan 获取拼团活动下的全部订单
func (r *GormOrderRepository) ListByPintuan(pintuanID string) ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Where("pintuan_id = ?", pintuanID).Order("id asc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatusBySns 批量更新订单状态
func (r *GormOrderRepository) UpdateStatusBySns(orderSns []string, status string) (int64, error) {
	if len(orderSns) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Order{}).
		Where("order_sn IN ?", orderSns).
		Update("order_status", status)
	return result.RowsAffected, result.Error
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}
