package router

import (
	"github.com/promotion-next/internal/config"
	adminhandlers "github.com/promotion-next/internal/http/handlers/admin"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	adminHandler := adminhandlers.New(c)

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		admin := apiV1.Group("/admin")
		{
			// 促销活动管理
			admin.POST("/promotions", adminHandler.CreatePromotion)
			admin.GET("/promotions", adminHandler.GetAdminPromotions)
			admin.GET("/promotions/:id", adminHandler.GetAdminPromotion)
			admin.POST("/promotions/:id/close", adminHandler.ClosePromotion)

			// 活动商品库存
			admin.GET("/promotions/:id/stock", adminHandler.GetPromotionStock)
			admin.PUT("/promotions/:id/stock", adminHandler.UpdatePromotionStock)
			admin.POST("/promotions/:id/stock/deduct", adminHandler.DeductPromotionStock)
			admin.DELETE("/promotions/:id/goods", adminHandler.DeletePromotionGoods)

			// 活动商品查询
			admin.GET("/promotion-goods/overlap", adminHandler.GetPromotionOverlap)
			admin.GET("/promotion-goods/sku/:sku_id", adminHandler.GetSkuPromotions)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
