package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "promotion:stock"

var (
	// ErrStockNotCached 库存键不存在（尚未回填，不代表库存为 0）
	ErrStockNotCached = errors.New("promotion stock not cached")
	// ErrStockInsufficient 剩余库存不足以完成本次扣减
	ErrStockInsufficient = errors.New("promotion stock insufficient")
)

// StockKey 生成促销库存缓存键，由 (促销类型, 活动ID, skuID) 唯一确定
func StockKey(promotionType, promotionID, skuID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", stockKeyPrefix, strings.ToUpper(strings.TrimSpace(promotionType)), promotionID, skuID)
}

// StockStore 促销库存缓存存取接口
// 值为十进制数量字符串；键不存在表示"未缓存"，不表示库存为 0。
type StockStore interface {
	// GetStock 读取库存，第二个返回值表示键是否存在
	GetStock(ctx context.Context, key string) (int, bool, error)
	// SetStock 无条件覆盖库存
	SetStock(ctx context.Context, key string, quantity int) error
	// SetStockNX 仅当键不存在时写入，返回是否写入成功。
	// 冷缓存回填用，避免覆盖并发扣减已经更新的计数。
	SetStockNX(ctx context.Context, key string, quantity int) (bool, error)
	// DelStock 删除库存键
	DelStock(ctx context.Context, key string) error
	// DecrStockBy 原子扣减 n，下限为 0；库存不足返回 ErrStockInsufficient，
	// 键不存在返回 ErrStockNotCached，成功返回扣减后的剩余量
	DecrStockBy(ctx context.Context, key string, n int) (int, error)
}

// 扣减脚本：检查-扣减在 Redis 内原子完成，并发扣减不会超卖
var decrStockScript = redis.NewScript(`
local stock = tonumber(redis.call('get', KEYS[1]))
if not stock then
    return -2
end
local n = tonumber(ARGV[1])
if stock < n then
    return -1
end
return redis.call('decrby', KEYS[1], n)
`)

// RedisStockStore StockStore 的 Redis 实现
type RedisStockStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStockStore 创建 Redis 库存缓存
func NewRedisStockStore(client *redis.Client, prefix string) *RedisStockStore {
	return &RedisStockStore{client: client, prefix: strings.TrimSpace(prefix)}
}

// GetStock 读取库存
func (s *RedisStockStore) GetStock(ctx context.Context, key string) (int, bool, error) {
	if s == nil || s.client == nil {
		return 0, false, nil
	}
	val, err := s.client.Get(ctx, s.buildKey(key)).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	quantity, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return 0, false, fmt.Errorf("parse stock value failed: %w", err)
	}
	return quantity, true, nil
}

// SetStock 无条件覆盖库存
func (s *RedisStockStore) SetStock(ctx context.Context, key string, quantity int) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Set(ctx, s.buildKey(key), strconv.Itoa(quantity), 0).Err()
}

// SetStockNX 仅当键不存在时写入库存
func (s *RedisStockStore) SetStockNX(ctx context.Context, key string, quantity int) (bool, error) {
	if s == nil || s.client == nil {
		return false, nil
	}
	return s.client.SetNX(ctx, s.buildKey(key), strconv.Itoa(quantity), 0).Result()
}

// DelStock 删除库存键
func (s *RedisStockStore) DelStock(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Del(ctx, s.buildKey(key)).Err()
}

// DecrStockBy 原子扣减库存
func (s *RedisStockStore) DecrStockBy(ctx context.Context, key string, n int) (int, error) {
	if s == nil || s.client == nil {
		return 0, ErrStockNotCached
	}
	result, err := decrStockScript.Run(ctx, s.client, []string{s.buildKey(key)}, n).Result()
	if err != nil {
		return 0, err
	}
	remaining, ok := result.(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected decr script result type: %T", result)
	}
	switch remaining {
	case -2:
		return 0, ErrStockNotCached
	case -1:
		return 0, ErrStockInsufficient
	default:
		return int(remaining), nil
	}
}

func (s *RedisStockStore) buildKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", s.prefix, key)
}
