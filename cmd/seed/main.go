package main

import (
	"fmt"
	"time"

	"github.com/promotion-next/internal/config"
	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	now := time.Now()

	// 秒杀活动
	seckillID := uuid.NewString()
	seckillEnd := now.Add(2 * time.Hour)
	seckill := models.Promotion{
		ID:              seckillID,
		Title:           "演示秒杀场",
		PromotionType:   constants.PromotionTypeSeckill,
		PromotionStatus: constants.PromotionStatusStart,
		ScopeType:       constants.ScopeTypePortionGoods,
		StoreID:         "store-demo",
		StartTime:       now.Add(-time.Hour),
		EndTime:         &seckillEnd,
	}
	if err := createIfMissing(&seckill, "title = ? AND promotion_type = ?", seckill.Title, seckill.PromotionType); err != nil {
		stdLog.Printf("Failed to seed seckill promotion: %v", err)
	} else {
		stdLog.Printf("Seeded seckill promotion: %s", seckillID)
	}

	seckillSkus := []struct {
		SkuID    string
		Name     string
		Quantity int
		Price    float64
	}{
		{"sku-phone-001", "演示手机", 100, 1999.00},
		{"sku-buds-002", "演示耳机", 200, 199.00},
	}
	for _, item := range seckillSkus {
		goods := models.PromotionGoods{
			PromotionType: constants.PromotionTypeSeckill,
			PromotionID:   seckillID,
			SkuID:         item.SkuID,
			GoodsName:     item.Name,
			Quantity:      item.Quantity,
			Price:         models.NewMoneyFromDecimal(decimal.NewFromFloat(item.Price)),
			StoreID:       "store-demo",
			ScopeType:     constants.ScopeTypePortionGoods,
			StartTime:     seckill.StartTime,
			EndTime:       seckill.EndTime,
		}
		if err := createIfMissing(&goods, "promotion_id = ? AND sku_id = ?", seckillID, item.SkuID); err != nil {
			stdLog.Printf("Failed to seed promotion goods %s: %v", item.SkuID, err)
		}
		apply := models.SeckillApply{
			SeckillID: seckillID,
			SkuID:     item.SkuID,
			GoodsName: item.Name,
			Quantity:  item.Quantity,
			Price:     models.NewMoneyFromDecimal(decimal.NewFromFloat(item.Price)),
			StoreID:   "store-demo",
		}
		if err := createIfMissing(&apply, "seckill_id = ? AND sku_id = ?", seckillID, item.SkuID); err != nil {
			stdLog.Printf("Failed to seed seckill apply %s: %v", item.SkuID, err)
		}
	}

	// 拼团活动与成员订单
	pintuanID := uuid.NewString()
	pintuan := models.Pintuan{
		ID:            pintuanID,
		PromotionName: "演示三人团",
		RequiredNum:   3,
		LimitNum:      2,
		StoreID:       "store-demo",
	}
	if err := createIfMissing(&pintuan, "promotion_name = ?", pintuan.PromotionName); err != nil {
		stdLog.Printf("Failed to seed pintuan: %v", err)
	} else {
		stdLog.Printf("Seeded pintuan: %s", pintuanID)
	}

	parentSn := fmt.Sprintf("PT%s", now.Format("20060102150405"))
	for i := 0; i < 3; i++ {
		order := models.Order{
			OrderSn:     fmt.Sprintf("%s-%d", parentSn, i+1),
			MemberID:    fmt.Sprintf("member-%03d", i+1),
			PintuanID:   pintuanID,
			ParentSn:    parentSn,
			OrderStatus: constants.OrderStatusPaid,
		}
		if err := createIfMissing(&order, "order_sn = ?", order.OrderSn); err != nil {
			stdLog.Printf("Failed to seed order %s: %v", order.OrderSn, err)
		}
	}

	stdLog.Printf("Seed finished")
}

func createIfMissing(record interface{}, query string, args ...interface{}) error {
	var count int64
	if err := models.DB.Model(record).Where(query, args...).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return models.DB.Create(record).Error
}
