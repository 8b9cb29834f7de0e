package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

// Client Redis 客户端封装
type Client struct {
	config *Config
	logger *logger.Logger
	rdb    redis.UniversalClient
}

// New 创建 Redis 客户端并做一次健康检查
func New(cfg *Config, log *logger.Logger) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.L()
	}

	client := &Client{
		config: cfg,
		logger: log,
		rdb:    newUniversalClient(cfg),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	client.logger.Debug("redis client initialized",
		zap.String("mode", string(cfg.Mode)),
		zap.Strings("addrs", universalOptions(cfg).Addrs),
	)

	return client, nil
}

// newUniversalClient 按部署模式创建客户端
func newUniversalClient(cfg *Config) redis.UniversalClient {
	opts := universalOptions(cfg)
	switch cfg.Mode {
	case ModeSentinel:
		return redis.NewFailoverClient(opts.Failover())
	case ModeCluster:
		return redis.NewClusterClient(opts.Cluster())
	default:
		return redis.NewClient(opts.Simple())
	}
}

// universalOptions 根据部署模式生成 UniversalOptions
func universalOptions(cfg *Config) *redis.UniversalOptions {
	opts := &redis.UniversalOptions{
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	switch cfg.Mode {
	case ModeSentinel:
		opts.Addrs = cfg.SentinelAddrs
		opts.MasterName = cfg.MasterName
	case ModeCluster:
		opts.Addrs = cfg.ClusterAddrs
	default:
		opts.Addrs = []string{cfg.Addr}
	}
	return opts
}

// Ping 检查连接
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close 关闭客户端
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Raw 返回底层 go-redis 客户端
func (c *Client) Raw() redis.UniversalClient {
	return c.rdb
}

// timeout 为单次操作附加读超时
func (c *Client) timeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || c.config.ReadTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.ReadTimeout+time.Second)
}
