package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"parkqr-http-service/internal/error/code"
	"parkqr-http-service/internal/error/response"
)

// 简单的令牌桶限流器
type TokenBucket struct {
	rate       float64   // 每秒填充的令牌数
	capacity   int       // 桶的容量
	tokens     float64   // 当前令牌数
	lastRefill time.Time // 上次填充时间
	mu         sync.Mutex
}

// NewTokenBucket 创建新的令牌桶限流器
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// Allow 尝试获取令牌
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.lastRefill = now

	tb.tokens += elapsed * tb.rate
	if tb.tokens > float64(tb.capacity) {
		tb.tokens = float64(tb.capacity)
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}

// 按键分桶的限流器表，定期清理闲置桶
type limiterTable struct {
	mu       sync.RWMutex
	buckets  map[string]*TokenBucket
	lastSeen map[string]time.Time
}

func newLimiterTable() *limiterTable {
	t := &limiterTable{
		buckets:  make(map[string]*TokenBucket),
		lastSeen: make(map[string]time.Time),
	}
	go t.cleanupLoop()
	return t
}

func (t *limiterTable) get(key string, rate float64, burst int) *TokenBucket {
	t.mu.Lock()
	defer t.mu.Unlock()
	bucket, exists := t.buckets[key]
	if !exists {
		bucket = NewTokenBucket(rate, burst)
		t.buckets[key] = bucket
	}
	t.lastSeen[key] = time.Now()
	return bucket
}

func (t *limiterTable) cleanupLoop() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cutoff := time.Now().Add(-1 * time.Hour)
		t.mu.Lock()
		for key, seen := range t.lastSeen {
			if seen.Before(cutoff) {
				delete(t.buckets, key)
				delete(t.lastSeen, key)
			}
		}
		t.mu.Unlock()
	}
}

var (
	ipLimiters   = newLimiterTable()
	pathLimiters = newLimiterTable()
)

// IPRateLimiter 按客户端IP限流
func IPRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := ipLimiters.get(c.ClientIP(), rate, burst)
		if !limiter.Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// PathRateLimiter 按请求路径限流
func PathRateLimiter(rate float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := pathLimiters.get(c.Request.URL.Path, rate, burst)
		if !limiter.Allow() {
			response.FailWithMessage(c, code.ErrTooManyRequests, "请求频率过高，请稍后再试", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
