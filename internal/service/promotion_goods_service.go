package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/promotion-next/internal/cache"
	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/logger"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/repository"
)

// PromotionGoodsService 促销商品与库存服务
type PromotionGoodsService struct {
	goodsRepo        repository.PromotionGoodsRepository
	seckillApplyRepo repository.SeckillApplyRepository
	stockStore       cache.StockStore
}

// NewPromotionGoodsService 创建促销商品服务
func NewPromotionGoodsService(
	goodsRepo repository.PromotionGoodsRepository,
	seckillApplyRepo repository.SeckillApplyRepository,
	stockStore cache.StockStore,
) *PromotionGoodsService {
	return &PromotionGoodsService{
		goodsRepo:        goodsRepo,
		seckillApplyRepo: seckillApplyRepo,
		stockStore:       stockStore,
	}
}

// GetStock 获取促销商品库存，缓存优先。
// 缓存未命中时回源数据库并回填；sku 未参与该促销返回 0 且不写缓存，
// 这样后续修正能立即被读到。
func (s *PromotionGoodsService) GetStock(ctx context.Context, promotionType, promotionID, skuID string) (int, error) {
	key := cache.StockKey(promotionType, promotionID, skuID)
	quantity, ok, err := s.stockStore.GetStock(ctx, key)
	if err != nil {
		return 0, err
	}
	if ok {
		return quantity, nil
	}

	goods, err := s.goodsRepo.GetByUnique(promotionType, promotionID, skuID)
	if err != nil {
		return 0, err
	}
	if goods == nil {
		return 0, nil
	}
	// 回填尽力而为，失败不影响本次读取；仅在键不存在时写入，
	// 不覆盖并发扣减已更新的计数
	if _, err := s.stockStore.SetStockNX(ctx, key, goods.Quantity); err != nil {
		logger.Warnw("promotion_stock_cache_populate_failed",
			"key", key,
			"error", err,
		)
	}
	return goods.Quantity, nil
}

// GetStockBatch 批量获取促销商品库存，按入参顺序返回，缺失的 sku 补 0。
// 批量路径是列表展示用途，不读写缓存。
func (s *PromotionGoodsService) GetStockBatch(ctx context.Context, promotionType, promotionID string, skuIDs []string) ([]int, error) {
	goods, err := s.goodsRepo.ListByPromotion(promotionType, promotionID, skuIDs)
	if err != nil {
		return nil, err
	}
	quantities := make(map[string]int, len(goods))
	for _, g := range goods {
		quantities[g.SkuID] = g.Quantity
	}
	result := make([]int, 0, len(skuIDs))
	for _, skuID := range skuIDs {
		result = append(result, quantities[skuID])
	}
	return result, nil
}

// UpdateStock 更新促销商品库存。
// 秒杀类促销的库存记录在秒杀申请上，申请不存在是领域错误；
// 其余类型定向更新促销商品行。两条路径最后都无条件覆盖缓存，
// 缓存是最后的写入者，后续读取与本次写入一致。
func (s *PromotionGoodsService) UpdateStock(ctx context.Context, promotionType, promotionID, skuID string, quantity int) error {
	if quantity < 0 {
		return ErrQuantityInvalid
	}
	if promotionType == constants.PromotionTypeSeckill {
		apply, err := s.seckillApplyRepo.GetBySeckillAndSku(promotionID, skuID)
		if err != nil {
			return err
		}
		if apply == nil {
			return ErrSeckillNotExist
		}
		if _, err := s.seckillApplyRepo.UpdateQuantity(promotionID, skuID, quantity); err != nil {
			return err
		}
	} else {
		if _, err := s.goodsRepo.UpdateQuantity(promotionType, promotionID, skuID, quantity); err != nil {
			return err
		}
	}
	return s.stockStore.SetStock(ctx, cache.StockKey(promotionType, promotionID, skuID), quantity)
}

// DeductStock 原子扣减库存，下限为 0。
// 扣减在缓存层原子完成，并发扣减不会超卖；冷缓存先回源回填再重试一次。
// 数据库随后落盘，热路径以缓存为准。
func (s *PromotionGoodsService) DeductStock(ctx context.Context, promotionType, promotionID, skuID string, n int) (int, error) {
	if n <= 0 {
		return 0, ErrQuantityInvalid
	}
	key := cache.StockKey(promotionType, promotionID, skuID)
	remaining, err := s.stockStore.DecrStockBy(ctx, key, n)
	if errors.Is(err, cache.ErrStockNotCached) {
		goods, gerr := s.goodsRepo.GetByUnique(promotionType, promotionID, skuID)
		if gerr != nil {
			return 0, gerr
		}
		if goods == nil {
			return 0, ErrPromotionGoodsNotExist
		}
		// 回填只在键不存在时生效，并发扣减已写入的计数不会被覆盖
		if _, serr := s.stockStore.SetStockNX(ctx, key, goods.Quantity); serr != nil {
			return 0, serr
		}
		remaining, err = s.stockStore.DecrStockBy(ctx, key, n)
	}
	if err != nil {
		return 0, err
	}

	s.syncDurableStock(promotionType, promotionID, skuID, key, remaining)
	return remaining, nil
}

// 扣减后的落盘。秒杀库存记录在秒杀申请上，其余类型记录在促销商品行。
// 缓存已经扣减成功，落盘失败只记录，不回滚扣减。
func (s *PromotionGoodsService) syncDurableStock(promotionType, promotionID, skuID, key string, remaining int) {
	var err error
	if promotionType == constants.PromotionTypeSeckill {
		_, err = s.seckillApplyRepo.UpdateQuantity(promotionID, skuID, remaining)
	} else {
		_, err = s.goodsRepo.UpdateQuantity(promotionType, promotionID, skuID, remaining)
	}
	if err != nil {
		logger.Warnw("promotion_stock_durable_sync_failed",
			"key", key,
			"remaining", remaining,
			"error", err,
		)
	}
}

// FindInnerOverlap 统计同类型同 sku 在给定时间窗内重叠的促销商品数。
// 管理端配置校验用：同一 sku 同一促销类型在同一时段只允许一个活动价生效。
func (s *PromotionGoodsService) FindInnerOverlap(ctx context.Context, promotionType, skuID string, startTime, endTime time.Time, excludePromotionID string) (int64, error) {
	if strings.TrimSpace(promotionType) == "" || strings.TrimSpace(skuID) == "" {
		return 0, ErrPromotionInvalid
	}
	if !endTime.After(startTime) {
		return 0, ErrPromotionTimeInvalid
	}
	return s.goodsRepo.CountInnerOverlap(promotionType, skuID, startTime, endTime, excludePromotionID)
}

// FindSkuValidPromotions 查询 sku 当前有效的促销商品（按范围匹配）
func (s *PromotionGoodsService) FindSkuValidPromotions(ctx context.Context, skuID, categoryPath string, storeIDs []string) ([]models.PromotionGoods, error) {
	if strings.TrimSpace(skuID) == "" {
		return nil, ErrPromotionInvalid
	}
	return s.goodsRepo.FindSkuValid(skuID, categoryPath, storeIDs, time.Now())
}

// ReplaceByPromotion 整体替换活动商品（先删后插，单个逻辑更新）
func (s *PromotionGoodsService) ReplaceByPromotion(ctx context.Context, promotionID string, goods []models.PromotionGoods) error {
	if strings.TrimSpace(promotionID) == "" {
		return ErrPromotionInvalid
	}
	return s.goodsRepo.ReplaceByPromotion(promotionID, goods)
}

// DeleteByPromotionSkus 删除活动下指定 sku 的促销商品
func (s *PromotionGoodsService) DeleteByPromotionSkus(ctx context.Context, promotionID string, skuIDs []string) error {
	return s.goodsRepo.DeleteByPromotionSkus(promotionID, skuIDs)
}

// DeleteByPromotions 删除多个活动的全部促销商品
func (s *PromotionGoodsService) DeleteByPromotions(ctx context.Context, promotionIDs []string) error {
	return s.goodsRepo.DeleteByPromotions(promotionIDs)
}
