package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	// MaxRequests: максимальное количество запросов за Window
	MaxRequests int
	// Window: временное окно для подсчёта запросов
	Window time.Duration
	// KeyPrefix: префикс для ключей в Redis
	KeyPrefix string
}

// ExamRateLimitConfig: лимит для записи в экзамен (старт, ответ, сдача)
func ExamRateLimitConfig(maxRequests int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		MaxRequests: maxRequests,
		Window:      window,
		KeyPrefix:   "rl:exam",
	}
}

// RateLimiter ограничивает частоту запросов по IP + маршруту.
// С Redis считает фиксированное окно общее для всех инстансов, без Redis использует token bucket в памяти процесса.
type RateLimiter struct {
	redisClient redis.UniversalClient
	logger      *zap.Logger

	mu        sync.Mutex
	local     map[string]*localEntry
	lastSweep time.Time
	now       func() time.Time
}

// localEntry: token bucket одного ключа и время последнего обращения к нему
type localEntry struct {
	limiter  *rate.Limiter
	window   time.Duration
	lastSeen time.Time
}

// Как часто чистить локальные лимитеры, к которым давно не обращались
const localSweepInterval = time.Minute

// NewRateLimiter создает новый RateLimiter; redisClient может быть nil
func NewRateLimiter(redisClient redis.UniversalClient, logger *zap.Logger) *RateLimiter {
	return &RateLimiter{
		redisClient: redisClient,
		logger:      logger.Named("rate_limiter"),
		local:       make(map[string]*localEntry),
		now:         time.Now,
	}
}

// Limit возвращает Gin middleware с заданной конфигурацией
// Ключ формируется из IP + endpoint path
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		path := c.FullPath() // Gin route pattern, e.g. "/api/exams/:id/submit"
		if path == "" {
			path = c.Request.URL.Path
		}
		key := fmt.Sprintf("%s:%s:%s", cfg.KeyPrefix, clientIP, path)

		if rl.redisClient == nil {
			rl.limitLocal(c, key, cfg)
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		count, err := rl.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// При ошибке Redis пропускаем запрос (fail-open), но логируем
			rl.logger.Warn("Redis error, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		// Если это первый запрос в окне, устанавливаем TTL
		if count == 1 {
			if err := rl.redisClient.Expire(ctx, key, cfg.Window).Err(); err != nil {
				rl.logger.Warn("Failed to set TTL", zap.String("key", key), zap.Error(err))
			}
		}

		remaining := cfg.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}

		ttl, _ := rl.redisClient.TTL(ctx, key).Result()
		retryAfter := int(ttl.Seconds())
		if retryAfter < 0 {
			retryAfter = int(cfg.Window.Seconds())
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", retryAfter))

		if int(count) > cfg.MaxRequests {
			rl.reject(c, clientIP, path, retryAfter)
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) limitLocal(c *gin.Context, key string, cfg RateLimitConfig) {
	limiter := rl.localLimiter(key, cfg)

	c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
	if !limiter.Allow() {
		retryAfter := int(cfg.Window.Seconds()) / cfg.MaxRequests
		if retryAfter < 1 {
			retryAfter = 1
		}
		rl.reject(c, c.ClientIP(), c.FullPath(), retryAfter)
		return
	}
	c.Next()
}

func (rl *RateLimiter) localLimiter(key string, cfg RateLimitConfig) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) >= localSweepInterval {
		rl.sweepLocked(now)
	}

	entry, ok := rl.local[key]
	if !ok {
		every := cfg.Window / time.Duration(cfg.MaxRequests)
		entry = &localEntry{
			limiter: rate.NewLimiter(rate.Every(every), cfg.MaxRequests),
			window:  cfg.Window,
		}
		rl.local[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// sweepLocked удаляет ключи, простоявшие дольше своего окна: их bucket уже снова полон,
// так что новый лимитер ведёт себя так же. Вызывать под rl.mu.
func (rl *RateLimiter) sweepLocked(now time.Time) {
	for key, entry := range rl.local {
		if now.Sub(entry.lastSeen) > entry.window {
			delete(rl.local, key)
		}
	}
	rl.lastSweep = now
}

func (rl *RateLimiter) reject(c *gin.Context, clientIP, path string, retryAfter int) {
	rl.logger.Info("Rate limit exceeded", zap.String("ip", clientIP), zap.String("path", path))

	c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error":       "Too many requests. Please try again later.",
		"error_type":  "rate_limited",
		"retry_after": retryAfter,
	})
}
