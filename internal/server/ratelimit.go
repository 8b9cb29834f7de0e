package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lk2023060901/execution-console/internal/pkg/logger"
	"github.com/lk2023060901/execution-console/internal/pkg/redis"
)

// Limiter 滑动窗口限流
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, reset time.Time, err error)
	Limit() int
	Window() time.Duration
}

// RateLimit 按客户端 IP 限流，限流器故障时放行
func RateLimit(limiter Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rate_limit:ip:" + normalizeIP(c.ClientIP())

		allowed, remaining, reset, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Error("rate limiter error", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

		if !allowed {
			seconds := int(limiter.Window().Seconds())
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate limit exceeded",
				"message": fmt.Sprintf("too many requests, please try again in %d seconds", seconds),
			})
			return
		}
		c.Next()
	}
}

// normalizeIP 去掉 IPv6 zone，非法地址归为 unknown
func normalizeIP(ip string) string {
	if idx := strings.IndexByte(ip, '%'); idx != -1 {
		ip = ip[:idx]
	}
	if net.ParseIP(ip) == nil {
		return "unknown"
	}
	return ip
}

// MemoryLimiter 进程内滑动窗口
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	hits map[string][]time.Time
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    max,
		window: window,
		now:    time.Now,
		hits:   make(map[string][]time.Time),
	}
}

func (l *MemoryLimiter) Limit() int            { return l.max }
func (l *MemoryLimiter) Window() time.Duration { return l.window }

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, int, time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Add(-l.window)
	kept := l.hits[key][:0]
	for _, t := range l.hits[key] {
		if t.After(start) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= l.max {
		l.hits[key] = kept
		return false, 0, kept[0].Add(l.window), nil
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true, l.max - len(kept), now.Add(l.window), nil
}

// slidingWindowScript 原子性滑动窗口
const slidingWindowScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local current = redis.call('ZCARD', key)

if current < limit then
	redis.call('ZADD', key, now, now .. '-' .. ARGV[4])
	redis.call('PEXPIRE', key, window)
	return {1, limit - current - 1, now + window}
end

local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')[2]
return {0, 0, tonumber(oldest) + window}
`

// RedisLimiter 多实例共享的滑动窗口，时间单位为毫秒
type RedisLimiter struct {
	client *redis.Client
	max    int
	window time.Duration

	mu  sync.Mutex
	seq uint64
}

func NewRedisLimiter(client *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, max: max, window: window}
}

func (l *RedisLimiter) Limit() int            { return l.max }
func (l *RedisLimiter) Window() time.Duration { return l.window }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	l.mu.Lock()
	l.seq++
	seq := l.seq
	l.mu.Unlock()

	now := time.Now().UnixMilli()
	result, err := l.client.Raw().Eval(ctx, slidingWindowScript, []string{key},
		now, l.window.Milliseconds(), l.max, seq).Result()
	if err != nil {
		return false, 0, time.Time{}, err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("invalid rate limit result")
	}
	allowed, _ := values[0].(int64)
	remaining, _ := values[1].(int64)
	reset, _ := values[2].(int64)
	return allowed == 1, int(remaining), time.UnixMilli(reset), nil
}
