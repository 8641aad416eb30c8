package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/provider"
	"github.com/promotion-next/internal/queue"
	"github.com/promotion-next/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskPromotionTimeTrigger, c.handlePromotionTimeTrigger)
}

func (c *Consumer) handlePromotionTimeTrigger(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_time_trigger_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var msg queue.TimeTriggerMsg
	if err := json.Unmarshal(task.Payload(), &msg); err != nil {
		// 信封损坏是永久性的，重投不会修复，记录后丢弃
		logger.Warnw("worker_time_trigger_unmarshal_failed", "error", err)
		return nil
	}
	payload := queue.DecodeTriggerPayload(msg.Payload)
	switch {
	case payload.Promotion != nil:
		return c.executePromotionTransition(ctx, &msg, payload.Promotion)
	case payload.PintuanOrder != nil:
		return c.executePintuanSettlement(ctx, &msg, payload.PintuanOrder)
	default:
		logger.Debugw("worker_time_trigger_skip_unknown_payload",
			"executor_name", msg.ExecutorName,
			"unique_key", msg.UniqueKey,
		)
		return nil
	}
}

func (c *Consumer) executePromotionTransition(ctx context.Context, msg *queue.TimeTriggerMsg, promotion *queue.PromotionMessage) error {
	if c.PromotionService == nil {
		logger.Warnw("worker_time_trigger_skip_promotion_service_nil", "promotion_id", promotion.PromotionID)
		return nil
	}
	ok, err := c.PromotionService.UpdatePromotionStatus(ctx, promotion)
	if err != nil {
		if errors.Is(err, service.ErrPromotionInvalid) {
			logger.Debugw("worker_time_trigger_skip_invalid_promotion",
				"promotion_id", promotion.PromotionID,
				"promotion_status", promotion.PromotionStatus,
			)
			return nil
		}
		logger.Warnw("worker_time_trigger_promotion_failed",
			"promotion_id", promotion.PromotionID,
			"promotion_status", promotion.PromotionStatus,
			"unique_key", msg.UniqueKey,
			"error", err,
		)
		return err
	}
	if !ok {
		logger.Warnw("worker_time_trigger_promotion_stale",
			"promotion_id", promotion.PromotionID,
			"promotion_status", promotion.PromotionStatus,
			"unique_key", msg.UniqueKey,
		)
	}
	return nil
}

func (c *Consumer) executePintuanSettlement(ctx context.Context, msg *queue.TimeTriggerMsg, order *queue.PintuanOrderMessage) error {
	if c.PintuanOrderService == nil {
		logger.Warnw("worker_time_trigger_skip_pintuan_service_nil", "pintuan_id", order.PintuanID)
		return nil
	}
	err := c.PintuanOrderService.Agglomerate(ctx, order.PintuanID, order.OrderSn)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPintuanNotFound):
			logger.Debugw("worker_time_trigger_skip_pintuan_not_found", "pintuan_id", order.PintuanID, "order_sn", order.OrderSn)
			return nil
		case errors.Is(err, service.ErrOrderNotFound):
			logger.Debugw("worker_time_trigger_skip_order_not_found", "pintuan_id", order.PintuanID, "order_sn", order.OrderSn)
			return nil
		case errors.Is(err, service.ErrPromotionInvalid):
			logger.Debugw("worker_time_trigger_skip_invalid_pintuan_payload", "pintuan_id", order.PintuanID, "order_sn", order.OrderSn)
			return nil
		default:
			logger.Warnw("worker_time_trigger_pintuan_failed",
				"pintuan_id", order.PintuanID,
				"order_sn", order.OrderSn,
				"unique_key", msg.UniqueKey,
				"error", err,
			)
			return err
		}
	}
	return nil
}
