package redis

import (
	"errors"
	"time"
)

// DeployMode Redis 部署模式
type DeployMode string

const (
	ModeSingle   DeployMode = "single"   // 单机模式
	ModeSentinel DeployMode = "sentinel" // 哨兵模式
	ModeCluster  DeployMode = "cluster"  // 集群模式
)

// Config Redis 配置
type Config struct {
	// 部署模式
	Mode DeployMode `mapstructure:"mode" yaml:"mode"`

	// 单机模式配置
	Addr string `mapstructure:"addr" yaml:"addr"` // 节点地址 (host:port)

	// 哨兵模式配置
	SentinelAddrs []string `mapstructure:"sentinel_addrs" yaml:"sentinel_addrs"` // 哨兵地址列表
	MasterName    string   `mapstructure:"master_name" yaml:"master_name"`       // 主节点名称

	// 集群模式配置
	ClusterAddrs []string `mapstructure:"cluster_addrs" yaml:"cluster_addrs"` // 集群节点地址列表

	// 认证配置
	Password string `mapstructure:"password" yaml:"password"` // 密码
	Username string `mapstructure:"username" yaml:"username"` // 用户名（Redis 6.0+）
	DB       int    `mapstructure:"db" yaml:"db"`             // 数据库编号

	// 连接池配置
	PoolSize int `mapstructure:"pool_size" yaml:"pool_size"` // 连接池大小

	// 超时配置
	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`   // 连接超时
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`   // 读超时
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"` // 写超时
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Mode: ModeSingle,
		Addr: "localhost:6379",
		DB:   0,

		PoolSize: 4,

		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle:
		if c.Addr == "" {
			return errors.New("redis: addr is required in single mode")
		}
	case ModeSentinel:
		if len(c.SentinelAddrs) == 0 {
			return errors.New("redis: sentinel_addrs is required in sentinel mode")
		}
		if c.MasterName == "" {
			return errors.New("redis: master_name is required in sentinel mode")
		}
	case ModeCluster:
		if len(c.ClusterAddrs) == 0 {
			return errors.New("redis: cluster_addrs is required in cluster mode")
		}
	default:
		return errors.New("redis: invalid mode, must be one of: single, sentinel, cluster")
	}

	// 验证数据库编号
	if c.DB < 0 || c.DB > 15 {
		return errors.New("redis: db must be between 0 and 15")
	}

	if c.PoolSize <= 0 {
		return errors.New("redis: pool_size must be > 0")
	}

	// 验证超时配置
	if c.DialTimeout <= 0 {
		return errors.New("redis: dial_timeout must be > 0")
	}
	if c.ReadTimeout < 0 {
		return errors.New("redis: read_timeout must be >= 0")
	}
	if c.WriteTimeout < 0 {
		return errors.New("redis: write_timeout must be >= 0")
	}

	return nil
}
