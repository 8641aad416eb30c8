package provider

import (
	"github.com/promotion-next/internal/cache"
	"github.com/promotion-next/internal/config"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/queue"
	"github.com/promotion-next/internal/repository"
	"github.com/promotion-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	StockStore  cache.StockStore

	// Repositories
	PromotionRepo      repository.PromotionRepository
	PromotionGoodsRepo repository.PromotionGoodsRepository
	SeckillApplyRepo   repository.SeckillApplyRepository
	PintuanRepo        repository.PintuanRepository
	OrderRepo          repository.OrderRepository

	// Services
	PromotionService      *service.PromotionService
	PromotionGoodsService *service.PromotionGoodsService
	PintuanOrderService   *service.PintuanOrderService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// Redis 未启用时 Client() 为空，库存缓存各操作安全降级
	c.StockStore = cache.NewRedisStockStore(cache.Client(), cache.Prefix())

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.PromotionRepo = repository.NewPromotionRepository(db)
	c.PromotionGoodsRepo = repository.NewPromotionGoodsRepository(db)
	c.SeckillApplyRepo = repository.NewSeckillApplyRepository(db)
	c.PintuanRepo = repository.NewPintuanRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
}

func (c *Container) initServices() {
	c.PromotionService = service.NewPromotionService(c.PromotionRepo, c.PromotionGoodsRepo, c.QueueClient, c.Config.Promotion.Topic)
	c.PromotionGoodsService = service.NewPromotionGoodsService(c.PromotionGoodsRepo, c.SeckillApplyRepo, c.StockStore)
	c.PintuanOrderService = service.NewPintuanOrderService(c.PintuanRepo, c.OrderRepo)
}
