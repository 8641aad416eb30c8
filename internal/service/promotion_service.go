package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/queue"
	"github.com/promotion-next/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// promotionCloseGrace 活动关闭缓冲：关闭触发在名义结束时间之后一分钟执行，
// 吸收时钟偏差与队列轮询延迟
const promotionCloseGrace = time.Minute

// 状态单调序，CLOSE 为终态覆盖不参与排序
var promotionStatusRank = []string{
	constants.PromotionStatusNew,
	constants.PromotionStatusStart,
	constants.PromotionStatusEnd,
}

// PromotionService 促销活动状态机
type PromotionService struct {
	promotionRepo  repository.PromotionRepository
	goodsRepo      repository.PromotionGoodsRepository
	trigger        queue.TimeTrigger
	promotionTopic string
}

// NewPromotionService 创建促销活动服务
func NewPromotionService(
	promotionRepo repository.PromotionRepository,
	goodsRepo repository.PromotionGoodsRepository,
	trigger queue.TimeTrigger,
	promotionTopic string,
) *PromotionService {
	return &PromotionService{
		promotionRepo:  promotionRepo,
		goodsRepo:      goodsRepo,
		trigger:        trigger,
		promotionTopic: promotionTopic,
	}
}

// UpdatePromotionStatus 处理促销状态变更消息。
// 返回值 false 表示条件更新未命中（重复或过期投递），按无操作处理；
// error 仅在基础设施失败时返回，交由队列重投。
func (s *PromotionService) UpdatePromotionStatus(ctx context.Context, msg *queue.PromotionMessage) (bool, error) {
	if msg == nil || strings.TrimSpace(msg.PromotionID) == "" {
		return false, ErrPromotionInvalid
	}
	// 活动开始时先注册关闭触发，再落状态：
	// 两步之间崩溃后消息可安全重放，同键注册是幂等的
	if msg.PromotionStatus == constants.PromotionStatusStart {
		if err := s.scheduleCloseTrigger(msg); err != nil {
			return false, err
		}
	}

	updated, err := s.promotionRepo.UpdateStatusIf(msg.PromotionID, allowedPriorStatuses(msg.PromotionStatus), msg.PromotionStatus)
	if err != nil {
		return false, err
	}
	if !updated {
		logger.Warnw("promotion_status_transition_stale",
			"promotion_id", msg.PromotionID,
			"target_status", msg.PromotionStatus,
		)
		return false, nil
	}
	logger.Infow("promotion_status_updated",
		"promotion_id", msg.PromotionID,
		"promotion_type", msg.PromotionType,
		"status", msg.PromotionStatus,
	)
	return true, nil
}

// scheduleCloseTrigger 注册活动关闭延时触发。
// 未设置结束时间的活动没有定时关闭。
func (s *PromotionService) scheduleCloseTrigger(msg *queue.PromotionMessage) error {
	if msg.EndTime == nil {
		return nil
	}
	closeMsg := queue.PromotionMessage{
		PromotionID:     msg.PromotionID,
		PromotionStatus: constants.PromotionStatusEnd,
		PromotionType:   msg.PromotionType,
		EndTime:         msg.EndTime,
	}
	payload, err := json.Marshal(closeMsg)
	if err != nil {
		return err
	}
	triggerTime := msg.EndTime.Add(promotionCloseGrace)
	triggerMsg := queue.TimeTriggerMsg{
		ExecutorName: constants.TimeExecutePromotionExecutor,
		TriggerTime:  triggerTime,
		Payload:      payload,
		UniqueKey:    queue.PromotionUniqueKey(msg.PromotionType, msg.PromotionID),
		Topic:        s.promotionTopic,
	}
	return s.trigger.AddDelay(triggerMsg, time.Until(triggerTime))
}

// SavePromotionGoodsInput 活动商品配置
type SavePromotionGoodsInput struct {
	SkuID        string       `json:"sku_id"`
	GoodsName    string       `json:"goods_name"`
	Quantity     int          `json:"quantity"`
	Price        models.Money `json:"price"`
	CategoryPath string       `json:"category_path"`
}

// SavePromotionInput 创建促销活动入参
type SavePromotionInput struct {
	Title         string                    `json:"title"`
	PromotionType string                    `json:"promotion_type"`
	ScopeType     string                    `json:"scope_type"`
	ScopeID       string                    `json:"scope_id"`
	StoreID       string                    `json:"store_id"`
	StartTime     time.Time                 `json:"start_time"`
	EndTime       *time.Time                `json:"end_time"`
	Goods         []SavePromotionGoodsInput `json:"goods"`
}

// SavePromotion 创建促销活动并注册开始触发。
// 活动以 NEW 状态入库，开始时间到达后由延时消息驱动进入 START。
func (s *PromotionService) SavePromotion(ctx context.Context, input SavePromotionInput) (*models.Promotion, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.PromotionType) == "" {
		return nil, ErrPromotionInvalid
	}
	if input.EndTime != nil && !input.EndTime.After(input.StartTime) {
		return nil, ErrPromotionTimeInvalid
	}
	scopeType := input.ScopeType
	if scopeType == "" {
		scopeType = constants.ScopeTypePortionGoods
	}

	promotion := &models.Promotion{
		ID:              uuid.NewString(),
		Title:           input.Title,
		PromotionType:   input.PromotionType,
		PromotionStatus: constants.PromotionStatusNew,
		ScopeType:       scopeType,
		ScopeID:         input.ScopeID,
		StoreID:         input.StoreID,
		StartTime:       input.StartTime,
		EndTime:         input.EndTime,
	}

	// 先做完全部校验再写库，任何分支失败都不留下孤儿活动
	goods := make([]models.PromotionGoods, 0, len(input.Goods))
	for _, g := range input.Goods {
		if g.Quantity < 0 {
			return nil, ErrQuantityInvalid
		}
		goods = append(goods, models.PromotionGoods{
			PromotionType: promotion.PromotionType,
			PromotionID:   promotion.ID,
			SkuID:         g.SkuID,
			GoodsName:     g.GoodsName,
			Quantity:      g.Quantity,
			Price:         g.Price,
			StoreID:       promotion.StoreID,
			ScopeType:     promotion.ScopeType,
			ScopeID:       promotion.ScopeID,
			CategoryPath:  g.CategoryPath,
			StartTime:     promotion.StartTime,
			EndTime:       promotion.EndTime,
		})
	}

	// 活动、商品和开始触发在一个事务内提交。
	// 触发注册失败回滚全部写入；注册成功而提交失败留下的触发
	// 指向不存在的活动，消费端条件更新会将其作为过期投递吸收。
	err := s.promotionRepo.Transaction(func(tx *gorm.DB) error {
		if err := s.promotionRepo.WithTx(tx).Create(promotion); err != nil {
			return err
		}
		if len(goods) > 0 {
			if err := s.goodsRepo.WithTx(tx).ReplaceByPromotion(promotion.ID, goods); err != nil {
				return err
			}
		}
		return s.scheduleStartTrigger(promotion)
	})
	if err != nil {
		// 开始触发注册失败必须显式失败：活动没有触发就永远不会开始
		logger.Errorw("promotion_save_failed",
			"promotion_id", promotion.ID,
			"error", err,
		)
		return nil, err
	}
	return promotion, nil
}

// scheduleStartTrigger 注册活动开始延时触发
func (s *PromotionService) scheduleStartTrigger(promotion *models.Promotion) error {
	startMsg := queue.PromotionMessage{
		PromotionID:     promotion.ID,
		PromotionStatus: constants.PromotionStatusStart,
		PromotionType:   promotion.PromotionType,
		EndTime:         promotion.EndTime,
	}
	payload, err := json.Marshal(startMsg)
	if err != nil {
		return err
	}
	triggerMsg := queue.TimeTriggerMsg{
		ExecutorName: constants.TimeExecutePromotionExecutor,
		TriggerTime:  promotion.StartTime,
		Payload:      payload,
		UniqueKey:    queue.PromotionUniqueKey(promotion.PromotionType, promotion.ID),
		Topic:        s.promotionTopic,
	}
	return s.trigger.AddDelay(triggerMsg, time.Until(promotion.StartTime))
}

// ClosePromotion 管理端手工关闭活动（终态覆盖）
func (s *PromotionService) ClosePromotion(ctx context.Context, promotionID string) (bool, error) {
	if strings.TrimSpace(promotionID) == "" {
		return false, ErrPromotionInvalid
	}
	promotion, err := s.promotionRepo.GetByID(promotionID)
	if err != nil {
		return false, err
	}
	if promotion == nil {
		return false, ErrPromotionNotFound
	}
	return s.promotionRepo.UpdateStatusIf(promotionID,
		allowedPriorStatuses(constants.PromotionStatusClose),
		constants.PromotionStatusClose,
	)
}

// GetPromotion 查询促销活动
func (s *PromotionService) GetPromotion(ctx context.Context, promotionID string) (*models.Promotion, error) {
	return s.promotionRepo.GetByID(promotionID)
}

// allowedPriorStatuses 目标状态允许的前驱状态集合。
// 状态只能沿 NEW→START→END 前进，CLOSE 可以从任意非 CLOSE 状态到达。
func allowedPriorStatuses(target string) []string {
	if target == constants.PromotionStatusClose {
		return append([]string(nil), promotionStatusRank...)
	}
	for i, status := range promotionStatusRank {
		if status == target {
			return append([]string(nil), promotionStatusRank[:i]...)
		}
	}
	return nil
}
