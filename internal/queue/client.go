package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/promotion-next/internal/config"
	"github.com/promotion-next/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueuePromotion
)

// ErrQueueDisabled 队列未启用时注册延时消息返回的错误。
// 状态流转依赖将来触发的关闭事件，队列不可用必须显式失败而不是静默丢弃。
var ErrQueueDisabled = errors.New("delay queue disabled")

// TimeTrigger 延时触发注册接口
type TimeTrigger interface {
	AddDelay(msg TimeTriggerMsg, delay time.Duration) error
}

// Client 延时队列客户端封装
type Client struct {
	client       *asynq.Client
	inspector    *asynq.Inspector
	enabled      bool
	defaultQueue string
}

// NewClient 创建延时队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{enabled: false, defaultQueue: DefaultQueue}, nil
	}
	opt := buildRedisOpt(cfg)
	return &Client{
		client:       asynq.NewClient(opt),
		inspector:    asynq.NewInspector(opt),
		enabled:      true,
		defaultQueue: DefaultQueue,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.enabled && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.inspector != nil {
		_ = c.inspector.Close()
	}
	return c.client.Close()
}

// AddDelay 注册延时触发消息，至少投递一次。
// 同一 UniqueKey 已有未触发实例时先删除再入队，本次注册取代之前的实例。
func (c *Client) AddDelay(msg TimeTriggerMsg, delay time.Duration) error {
	if !c.Enabled() {
		return ErrQueueDisabled
	}
	if strings.TrimSpace(msg.UniqueKey) == "" {
		return errors.New("time trigger unique key is empty")
	}
	if delay < 0 {
		delay = 0
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := c.removePending(msg.UniqueKey); err != nil {
		return fmt.Errorf("supersede pending trigger failed: %w", err)
	}
	task := asynq.NewTask(TaskPromotionTimeTrigger, body)
	_, err = c.client.Enqueue(task,
		asynq.Queue(c.defaultQueue),
		asynq.TaskID(msg.UniqueKey),
		asynq.ProcessIn(delay),
	)
	return err
}

// removePending 删除同键未触发的任务；不存在视为成功
func (c *Client) removePending(uniqueKey string) error {
	if c.inspector == nil {
		return nil
	}
	err := c.inspector.DeleteTask(c.defaultQueue, uniqueKey)
	if err == nil ||
		errors.Is(err, asynq.ErrTaskNotFound) ||
		errors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	return err
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	opt := buildRedisOpt(cfg)
	concurrency := 10
	if cfg != nil && cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	queues := map[string]int{DefaultQueue: 1}
	if cfg != nil && len(cfg.Queues) > 0 {
		queues = cfg.Queues
	}
	return opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      queues,
	}
}

func buildRedisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	password := ""
	db := 0
	if cfg != nil {
		if strings.TrimSpace(cfg.Host) != "" {
			host = strings.TrimSpace(cfg.Host)
		}
		if cfg.Port > 0 {
			port = cfg.Port
		}
		password = cfg.Password
		db = cfg.DB
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	}
}
