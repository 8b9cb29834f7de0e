package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/execution-console/internal/pkg/logger"
)

// setupTestClient 需要设置 TEST_REDIS_ADDR，否则跳过
func setupTestClient(t *testing.T) *Client {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}

	cfg := DefaultConfig()
	cfg.Addr = addr

	client, err := New(cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}},
		{name: "single without addr", mutate: func(c *Config) { c.Addr = "" }, wantErr: true},
		{name: "sentinel without master", mutate: func(c *Config) {
			c.Mode = ModeSentinel
			c.SentinelAddrs = []string{"localhost:26379"}
		}, wantErr: true},
		{name: "cluster", mutate: func(c *Config) {
			c.Mode = ModeCluster
			c.ClusterAddrs = []string{"localhost:7000", "localhost:7001"}
		}},
		{name: "bad db", mutate: func(c *Config) { c.DB = 16 }, wantErr: true},
		{name: "bad mode", mutate: func(c *Config) { c.Mode = "read-write" }, wantErr: true},
		{name: "zero pool", mutate: func(c *Config) { c.PoolSize = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUniversalOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeSentinel
	cfg.SentinelAddrs = []string{"a:26379", "b:26379"}
	cfg.MasterName = "mymaster"

	opts := universalOptions(cfg)
	assert.Equal(t, []string{"a:26379", "b:26379"}, opts.Addrs)
	assert.Equal(t, "mymaster", opts.MasterName)

	cfg = DefaultConfig()
	opts = universalOptions(cfg)
	assert.Equal(t, []string{"localhost:6379"}, opts.Addrs)
	assert.Empty(t, opts.MasterName)
}

func TestNew_Unreachable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond

	_, err := New(cfg, logger.NewNop())
	assert.Error(t, err)
}

func TestStringOperations(t *testing.T) {
	client := setupTestClient(t)
	ctx := context.Background()
	key := "execview:test:" + time.Now().Format("150405.000000")

	require.NoError(t, client.Set(ctx, key, "value", time.Minute))

	val, err := client.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "value", val)

	n, err := client.Del(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = client.Get(ctx, key)
	assert.True(t, IsNil(err))
}
