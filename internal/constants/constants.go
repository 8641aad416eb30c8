package constants

// 促销类型常量
const (
	PromotionTypeSeckill        = "SECKILL"
	PromotionTypePintuan        = "PINTUAN"
	PromotionTypeCouponActivity = "COUPON_ACTIVITY"
	PromotionTypeFullDiscount   = "FULL_DISCOUNT"
	PromotionTypePointsGoods    = "POINTS_GOODS"
)

// 促销状态常量（单调推进：NEW → START → END，CLOSE 为终态覆盖）
const (
	PromotionStatusNew   = "NEW"
	PromotionStatusStart = "START"
	PromotionStatusEnd   = "END"
	PromotionStatusClose = "CLOSE"
)

// 促销范围常量
const (
	ScopeTypeAll                  = "ALL"
	ScopeTypePortionGoodsCategory = "PORTION_GOODS_CATEGORY"
	ScopeTypePortionGoods         = "PORTION_GOODS"
)

// 订单状态常量
const (
	OrderStatusUnpaid      = "UNPAID"
	OrderStatusPaid        = "PAID"
	OrderStatusUndelivered = "UNDELIVERED"
	OrderStatusCancelled   = "CANCELLED"
)

// 队列常量
const (
	QueuePromotion           = "promotion"
	TaskPromotionTimeTrigger = "promotion:time_trigger"
)

// 延时触发执行器标识
const (
	TimeExecutePromotionExecutor = "promotionExecutor"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "pn"
)
