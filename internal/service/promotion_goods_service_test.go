package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/promotion-next/internal/cache"
	"github.com/promotion-next/internal/constants"
	"github.com/promotion-next/internal/models"
	"github.com/promotion-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// memStockStore StockStore 的进程内实现，行为与 Redis 版保持一致
type memStockStore struct {
	values map[string]int
	sets   int
}

func newMemStockStore() *memStockStore {
	return &memStockStore{values: make(map[string]int)}
}

func (m *memStockStore) GetStock(_ context.Context, key string) (int, bool, error) {
	quantity, ok := m.values[key]
	return quantity, ok, nil
}

func (m *memStockStore) SetStock(_ context.Context, key string, quantity int) error {
	m.sets++
	m.values[key] = quantity
	return nil
}

func (m *memStockStore) SetStockNX(_ context.Context, key string, quantity int) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.sets++
	m.values[key] = quantity
	return true, nil
}

func (m *memStockStore) DelStock(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

func (m *memStockStore) DecrStockBy(_ context.Context, key string, n int) (int, error) {
	stock, ok := m.values[key]
	if !ok {
		return 0, cache.ErrStockNotCached
	}
	if stock < n {
		return 0, cache.ErrStockInsufficient
	}
	m.values[key] = stock - n
	return stock - n, nil
}

// countingGoodsRepo 记录数据库回源次数，onGet 用于在回源点插入并发动作
type countingGoodsRepo struct {
	repository.PromotionGoodsRepository
	getCalls int
	onGet    func()
}

func (c *countingGoodsRepo) GetByUnique(promotionType, promotionID, skuID string) (*models.PromotionGoods, error) {
	c.getCalls++
	if c.onGet != nil {
		hook := c.onGet
		c.onGet = nil
		hook()
	}
	return c.PromotionGoodsRepository.GetByUnique(promotionType, promotionID, skuID)
}

func setupPromotionGoodsServiceTest(t *testing.T) (*PromotionGoodsService, *memStockStore, *countingGoodsRepo, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:promotion_goods_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.PromotionGoods{}, &models.SeckillApply{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	store := newMemStockStore()
	goodsRepo := &countingGoodsRepo{PromotionGoodsRepository: repository.NewPromotionGoodsRepository(db)}
	svc := NewPromotionGoodsService(goodsRepo, repository.NewSeckillApplyRepository(db), store)
	return svc, store, goodsRepo, db
}

func seedPromotionGoods(t *testing.T, db *gorm.DB, promotionType, promotionID, skuID string, quantity int) {
	t.Helper()
	end := time.Now().Add(time.Hour)
	goods := models.PromotionGoods{
		PromotionType: promotionType,
		PromotionID:   promotionID,
		SkuID:         skuID,
		Quantity:      quantity,
		StartTime:     time.Now().Add(-time.Hour),
		EndTime:       &end,
	}
	if err := db.Create(&goods).Error; err != nil {
		t.Fatalf("create promotion goods failed: %v", err)
	}
}

func TestGetStockPopulatesCacheOnMiss(t *testing.T) {
	svc, store, goodsRepo, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeSeckill, "pm-1", "sku-1", 42)
	ctx := context.Background()

	stock, err := svc.GetStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1")
	if err != nil {
		t.Fatalf("GetStock error: %v", err)
	}
	if stock != 42 {
		t.Fatalf("expected 42, got %d", stock)
	}
	if goodsRepo.getCalls != 1 {
		t.Fatalf("expected one database read, got %d", goodsRepo.getCalls)
	}
	key := cache.StockKey(constants.PromotionTypeSeckill, "pm-1", "sku-1")
	if got, ok := store.values[key]; !ok || got != 42 {
		t.Fatalf("expected cache populated to 42, got %d (ok=%v)", got, ok)
	}

	// 第二次读取命中缓存，不再回源
	stock, err = svc.GetStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1")
	if err != nil {
		t.Fatalf("GetStock error: %v", err)
	}
	if stock != 42 {
		t.Fatalf("expected 42 from cache, got %d", stock)
	}
	if goodsRepo.getCalls != 1 {
		t.Fatalf("expected cache hit without database read, got %d reads", goodsRepo.getCalls)
	}
}

func TestGetStockAbsentSkuReturnsZeroWithoutCaching(t *testing.T) {
	svc, store, _, _ := setupPromotionGoodsServiceTest(t)
	ctx := context.Background()

	stock, err := svc.GetStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-absent")
	if err != nil {
		t.Fatalf("GetStock error: %v", err)
	}
	if stock != 0 {
		t.Fatalf("expected 0 for absent sku, got %d", stock)
	}
	if store.sets != 0 {
		t.Fatalf("absent sku must not be cached, got %d writes", store.sets)
	}
}

func TestGetStockBatchKeepsInputOrder(t *testing.T) {
	svc, _, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeSeckill, "pm-1", "sku-b", 7)
	ctx := context.Background()

	stocks, err := svc.GetStockBatch(ctx, constants.PromotionTypeSeckill, "pm-1", []string{"sku-a", "sku-b", "sku-c"})
	if err != nil {
		t.Fatalf("GetStockBatch error: %v", err)
	}
	want := []int{0, 7, 0}
	if len(stocks) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(stocks))
	}
	for i := range want {
		if stocks[i] != want[i] {
			t.Fatalf("position %d: expected %d, got %d", i, want[i], stocks[i])
		}
	}
}

func TestUpdateStockSeckillRequiresApply(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeSeckill, "pm-1", "sku-1", 10)
	ctx := context.Background()

	err := svc.UpdateStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1", 5)
	if !errors.Is(err, ErrSeckillNotExist) {
		t.Fatalf("expected ErrSeckillNotExist, got %v", err)
	}
	if store.sets != 0 {
		t.Fatalf("failed update must not touch the cache")
	}
}

func TestUpdateStockSeckillUpdatesApplyAndCache(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	apply := models.SeckillApply{SeckillID: "pm-1", SkuID: "sku-1", Quantity: 10}
	if err := db.Create(&apply).Error; err != nil {
		t.Fatalf("create seckill apply failed: %v", err)
	}
	ctx := context.Background()

	if err := svc.UpdateStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1", 3); err != nil {
		t.Fatalf("UpdateStock error: %v", err)
	}

	var reloaded models.SeckillApply
	if err := db.First(&reloaded, "seckill_id = ? AND sku_id = ?", "pm-1", "sku-1").Error; err != nil {
		t.Fatalf("reload apply failed: %v", err)
	}
	if reloaded.Quantity != 3 {
		t.Fatalf("expected apply quantity 3, got %d", reloaded.Quantity)
	}

	key := cache.StockKey(constants.PromotionTypeSeckill, "pm-1", "sku-1")
	if got, ok := store.values[key]; !ok || got != 3 {
		t.Fatalf("expected cache overwritten to 3, got %d (ok=%v)", got, ok)
	}
}

func TestUpdateStockNonSeckillOverwritesCache(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeFullDiscount, "pm-2", "sku-1", 10)
	key := cache.StockKey(constants.PromotionTypeFullDiscount, "pm-2", "sku-1")
	store.values[key] = 99
	ctx := context.Background()

	if err := svc.UpdateStock(ctx, constants.PromotionTypeFullDiscount, "pm-2", "sku-1", 6); err != nil {
		t.Fatalf("UpdateStock error: %v", err)
	}
	if got := store.values[key]; got != 6 {
		t.Fatalf("expected cache 6, got %d", got)
	}

	var reloaded models.PromotionGoods
	if err := db.First(&reloaded, "promotion_id = ? AND sku_id = ?", "pm-2", "sku-1").Error; err != nil {
		t.Fatalf("reload goods failed: %v", err)
	}
	if reloaded.Quantity != 6 {
		t.Fatalf("expected durable quantity 6, got %d", reloaded.Quantity)
	}
}

func TestUpdateStockRejectsNegativeQuantity(t *testing.T) {
	svc, _, _, _ := setupPromotionGoodsServiceTest(t)
	err := svc.UpdateStock(context.Background(), constants.PromotionTypeSeckill, "pm-1", "sku-1", -1)
	if !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid, got %v", err)
	}
}

func TestDeductStockColdCachePopulatesAndRetries(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeFullDiscount, "pm-1", "sku-1", 10)
	ctx := context.Background()

	remaining, err := svc.DeductStock(ctx, constants.PromotionTypeFullDiscount, "pm-1", "sku-1", 4)
	if err != nil {
		t.Fatalf("DeductStock error: %v", err)
	}
	if remaining != 6 {
		t.Fatalf("expected remaining 6, got %d", remaining)
	}

	key := cache.StockKey(constants.PromotionTypeFullDiscount, "pm-1", "sku-1")
	if got := store.values[key]; got != 6 {
		t.Fatalf("expected cache 6, got %d", got)
	}

	// 数据库随后落盘
	var reloaded models.PromotionGoods
	if err := db.First(&reloaded, "promotion_id = ? AND sku_id = ?", "pm-1", "sku-1").Error; err != nil {
		t.Fatalf("reload goods failed: %v", err)
	}
	if reloaded.Quantity != 6 {
		t.Fatalf("expected durable quantity 6, got %d", reloaded.Quantity)
	}
}

func TestDeductStockPopulateKeepsConcurrentDeduction(t *testing.T) {
	svc, store, goodsRepo, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeFullDiscount, "pm-1", "sku-1", 10)
	ctx := context.Background()

	// 外层冷缓存回源期间另一次扣减完整执行，回填不得覆盖它已写入的计数
	goodsRepo.onGet = func() {
		if _, err := svc.DeductStock(ctx, constants.PromotionTypeFullDiscount, "pm-1", "sku-1", 4); err != nil {
			t.Fatalf("concurrent DeductStock error: %v", err)
		}
	}

	remaining, err := svc.DeductStock(ctx, constants.PromotionTypeFullDiscount, "pm-1", "sku-1", 4)
	if err != nil {
		t.Fatalf("DeductStock error: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected remaining 2 after both deductions, got %d", remaining)
	}
	key := cache.StockKey(constants.PromotionTypeFullDiscount, "pm-1", "sku-1")
	if got := store.values[key]; got != 2 {
		t.Fatalf("expected cache 2, got %d", got)
	}
}

func TestDeductStockSeckillSyncsApply(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeSeckill, "pm-1", "sku-1", 10)
	apply := models.SeckillApply{SeckillID: "pm-1", SkuID: "sku-1", Quantity: 10}
	if err := db.Create(&apply).Error; err != nil {
		t.Fatalf("create seckill apply failed: %v", err)
	}
	key := cache.StockKey(constants.PromotionTypeSeckill, "pm-1", "sku-1")
	store.values[key] = 10
	ctx := context.Background()

	remaining, err := svc.DeductStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1", 3)
	if err != nil {
		t.Fatalf("DeductStock error: %v", err)
	}
	if remaining != 7 {
		t.Fatalf("expected remaining 7, got %d", remaining)
	}

	// 秒杀的持久库存记录在秒杀申请上
	var reloaded models.SeckillApply
	if err := db.First(&reloaded, "seckill_id = ? AND sku_id = ?", "pm-1", "sku-1").Error; err != nil {
		t.Fatalf("reload apply failed: %v", err)
	}
	if reloaded.Quantity != 7 {
		t.Fatalf("expected apply quantity 7, got %d", reloaded.Quantity)
	}
}

func TestDeductStockInsufficient(t *testing.T) {
	svc, store, _, db := setupPromotionGoodsServiceTest(t)
	seedPromotionGoods(t, db, constants.PromotionTypeSeckill, "pm-1", "sku-1", 3)
	key := cache.StockKey(constants.PromotionTypeSeckill, "pm-1", "sku-1")
	store.values[key] = 3
	ctx := context.Background()

	_, err := svc.DeductStock(ctx, constants.PromotionTypeSeckill, "pm-1", "sku-1", 5)
	if !errors.Is(err, cache.ErrStockInsufficient) {
		t.Fatalf("expected ErrStockInsufficient, got %v", err)
	}
	if got := store.values[key]; got != 3 {
		t.Fatalf("failed deduction must not change stock, got %d", got)
	}
}

func TestDeductStockUnknownGoods(t *testing.T) {
	svc, _, _, _ := setupPromotionGoodsServiceTest(t)
	_, err := svc.DeductStock(context.Background(), constants.PromotionTypeSeckill, "pm-1", "sku-missing", 1)
	if !errors.Is(err, ErrPromotionGoodsNotExist) {
		t.Fatalf("expected ErrPromotionGoodsNotExist, got %v", err)
	}
}

func TestDeductStockRejectsNonPositive(t *testing.T) {
	svc, _, _, _ := setupPromotionGoodsServiceTest(t)
	if _, err := svc.DeductStock(context.Background(), constants.PromotionTypeSeckill, "pm-1", "sku-1", 0); !errors.Is(err, ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid, got %v", err)
	}
}
