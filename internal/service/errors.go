package service

import "errors"

// 促销领域错误
var (
	// ErrPromotionInvalid 促销参数无效
	ErrPromotionInvalid = errors.New("promotion invalid")
	// ErrPromotionNotFound 促销活动不存在
	ErrPromotionNotFound = errors.New("promotion not found")
	// ErrPromotionTimeInvalid 活动时间配置无效
	ErrPromotionTimeInvalid = errors.New("promotion time range invalid")
	// ErrSeckillNotExist 秒杀申请不存在；重试无法自愈，需要外部修正数据
	ErrSeckillNotExist = errors.New("seckill apply not exist")
	// ErrQuantityInvalid 库存数量无效（负数或非正扣减量）
	ErrQuantityInvalid = errors.New("stock quantity invalid")
	// ErrPromotionGoodsNotExist 促销商品不存在
	ErrPromotionGoodsNotExist = errors.New("promotion goods not exist")
	// ErrPintuanNotFound 拼团活动不存在
	ErrPintuanNotFound = errors.New("pintuan not found")
	// ErrOrderNotFound 订单不存在
	ErrOrderNotFound = errors.New("order not found")
)
