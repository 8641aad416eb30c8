package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/promotion-next/internal/constants"
)

const (
	// TaskPromotionTimeTrigger 促销延时触发任务
	TaskPromotionTimeTrigger = constants.TaskPromotionTimeTrigger
)

// PromotionMessage 促销状态变更消息
type PromotionMessage struct {
	PromotionID     string     `json:"promotion_id"`
	PromotionStatus string     `json:"promotion_status"`
	PromotionType   string     `json:"promotion_type"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

// PintuanOrderMessage 拼团订单消息
type PintuanOrderMessage struct {
	PintuanID string `json:"pintuan_id"`
	OrderSn   string `json:"order_sn"`
}

// TimeTriggerMsg 延时触发消息
// UniqueKey 在 (执行器, 业务ID) 维度内唯一，同键重复注册会取代先前未触发的实例。
type TimeTriggerMsg struct {
	ExecutorName string          `json:"executor_name"`
	TriggerTime  time.Time       `json:"trigger_time"`
	Payload      json.RawMessage `json:"payload"`
	UniqueKey    string          `json:"unique_key"`
	Topic        string          `json:"topic"`
}

// PromotionUniqueKey 生成促销延时任务唯一键
func PromotionUniqueKey(promotionType, promotionID string) string {
	return fmt.Sprintf("{TIME_TRIGGER_%s}_%s", promotionType, promotionID)
}

// TriggerPayload 触发载荷的封闭变体集合，最多一个变体非空；
// 两者都为空表示载荷形状无法识别。
type TriggerPayload struct {
	Promotion    *PromotionMessage
	PintuanOrder *PintuanOrderMessage
}

// DecodeTriggerPayload 在消费入口把载荷一次性解码为封闭变体。
// 促销消息优先：载荷同时带有 promotion_id 与 pintuan_id 时只按促销消息路由。
func DecodeTriggerPayload(raw []byte) TriggerPayload {
	var envelope struct {
		PromotionID     string     `json:"promotion_id"`
		PromotionStatus string     `json:"promotion_status"`
		PromotionType   string     `json:"promotion_type"`
		EndTime         *time.Time `json:"end_time"`
		PintuanID       string     `json:"pintuan_id"`
		OrderSn         string     `json:"order_sn"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return TriggerPayload{}
	}
	if envelope.PromotionID != "" {
		return TriggerPayload{Promotion: &PromotionMessage{
			PromotionID:     envelope.PromotionID,
			PromotionStatus: envelope.PromotionStatus,
			PromotionType:   envelope.PromotionType,
			EndTime:         envelope.EndTime,
		}}
	}
	if envelope.PintuanID != "" {
		return TriggerPayload{PintuanOrder: &PintuanOrderMessage{
			PintuanID: envelope.PintuanID,
			OrderSn:   envelope.OrderSn,
		}}
	}
	return TriggerPayload{}
}
