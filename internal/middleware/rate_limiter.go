package middleware

import (
	"math"
	"sync"
	"time"

	"github.com/Idri009/Coinbase-x402-Agent/internal/common"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig 限流配置
type RateLimiterConfig struct {
	RequestsPerSecond float64       // 每秒请求数，<=0 关闭限流
	BurstSize         int           // 突发容量，<=0 时取 ceil(RequestsPerSecond)
	CleanupInterval   time.Duration // 清理间隔
	IdleTimeout       time.Duration // 客户端状态空闲多久后清理
}

// DefaultRateLimiterConfig 默认配置
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         20,
		CleanupInterval:   5 * time.Minute,
		IdleTimeout:       10 * time.Minute,
	}
}

// clientState 客户端状态
type clientState struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端的令牌桶限流器
type RateLimiter struct {
	config   RateLimiterConfig
	clients  map[string]*clientState
	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewRateLimiter 创建限流器，限流开启时启动清理协程
func NewRateLimiter(config *RateLimiterConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	cfg := *config
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 10 * time.Minute
	}

	rl := &RateLimiter{
		config:  cfg,
		clients: make(map[string]*clientState),
		stopCh:  make(chan struct{}),
		now:     time.Now,
	}

	if rl.Enabled() {
		go rl.cleanup()
	}

	return rl
}

// Enabled 是否开启限流
func (rl *RateLimiter) Enabled() bool {
	return rl != nil && rl.config.RequestsPerSecond > 0
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	if !rl.Enabled() {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	state, exists := rl.clients[key]
	if !exists {
		state = &clientState{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		}
		rl.clients[key] = state
	}
	state.lastSeen = now

	return state.limiter.AllowN(now, 1)
}

// cleanup 定期清理过期状态
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.evictIdle()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, state := range rl.clients {
		if now.Sub(state.lastSeen) > rl.config.IdleTimeout {
			delete(rl.clients, key)
		}
	}
}

// Stop 停止限流器
func (rl *RateLimiter) Stop() {
	if rl == nil {
		return
	}
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

// ActiveClients 当前跟踪的客户端数
func (rl *RateLimiter) ActiveClients() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

// RateLimitMiddleware 按客户端 IP 限流，限流关闭时直接放行
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		if !limiter.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			common.AbortWithError(c, nil, common.NewError(common.KindRateLimited, "Too many requests, please retry later"))
			return
		}

		c.Next()
	}
}
