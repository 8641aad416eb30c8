package service

import (
	"context"
	"strings"

	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/repository"
)

// PintuanOrderService 拼团订单结算服务
type PintuanOrderService struct {
	pintuanRepo repository.PintuanRepository
	orderRepo   repository.OrderRepository
}

// NewPintuanOrderService 创建拼团订单服务
func NewPintuanOrderService(pintuanRepo repository.PintuanRepository, orderRepo repository.OrderRepository) *PintuanOrderService {
	return &PintuanOrderService{
		pintuanRepo: pintuanRepo,
		orderRepo:   orderRepo,
	}
}

// Agglomerate 拼团订单成团处理。
// 已支付成员数达到成团人数（或活动配置强制成团）时整团转入待发货，
// 否则取消触发订单。重复投递是无操作：已终态的订单不再变更。
func (s *PintuanOrderService) Agglomerate(ctx context.Context, pintuanID, orderSn string) error {
	if strings.TrimSpace(pintuanID) == "" || strings.TrimSpace(orderSn) == "" {
		return ErrPromotionInvalid
	}
	pintuan, err := s.pintuanRepo.GetByID(pintuanID)
	if err != nil {
		return err
	}
	if pintuan == nil {
		return ErrPintuanNotFound
	}
	order, err := s.orderRepo.GetByOrderSn(orderSn)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if isTerminalOrderStatus(order.OrderStatus) {
		logger.Debugw("pintuan_order_already_settled",
			"pintuan_id", pintuanID,
			"order_sn", orderSn,
			"order_status", order.OrderStatus,
		)
		return nil
	}

	members, err := s.orderRepo.ListByPintuan(pintuanID)
	if err != nil {
		return err
	}
	paidSns := make([]string, 0, len(members))
	for _, member := range members {
		if member.OrderStatus == constants.OrderStatusPaid {
			paidSns = append(paidSns, member.OrderSn)
		}
	}

	if len(paidSns) >= pintuan.RequiredNum || pintuan.FulfillmentForce {
		affected, err := s.orderRepo.UpdateStatusBySns(paidSns, constants.OrderStatusUndelivered)
		if err != nil {
			return err
		}
		logger.Infow("pintuan_group_formed",
			"pintuan_id", pintuanID,
			"order_sn", orderSn,
			"member_count", len(paidSns),
			"updated", affected,
		)
		return nil
	}

	if _, err := s.orderRepo.UpdateStatusBySns([]string{orderSn}, constants.OrderStatusCancelled); err != nil {
		return err
	}
	logger.Infow("pintuan_group_failed_order_cancelled",
		"pintuan_id", pintuanID,
		"order_sn", orderSn,
		"paid_members", len(paidSns),
		"required", pintuan.RequiredNum,
	)
	return nil
}

func isTerminalOrderStatus(status string) bool {
	return status == constants.OrderStatusUndelivered || status == constants.OrderStatusCancelled
}
