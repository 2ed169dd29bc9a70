package middleware

import (
	"context"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/metrics"
)

// RateLimitConfig содержит настройки rate limiting
type RateLimitConfig struct {
	MaxRequests int
	Window      time.Duration
	KeyPrefix   string
	// PerRoute добавляет шаблон маршрута в ключ
	PerRoute bool
}

// RateLimiter - middleware ограничения частоты запросов по IP
type RateLimiter struct {
	store RateLimitStore
}

// NewRateLimiter создает RateLimiter поверх хранилища счетчиков
func NewRateLimiter(store RateLimitStore) *RateLimiter {
	return &RateLimiter{store: store}
}

// Limit возвращает middleware. При ошибке хранилища запрос пропускается (fail-open).
func (rl *RateLimiter) Limit(cfg RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		key := fmt.Sprintf("%s:%s", cfg.KeyPrefix, clientIP)
		if cfg.PerRoute {
			path := c.FullPath()
			if path == "" {
				path = c.Request.URL.Path
			}
			key = key + ":" + path
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		decision, err := rl.store.Allow(ctx, key, cfg.MaxRequests, cfg.Window)
		if err != nil {
			log.Printf("[RateLimiter] Store error for key %s: %v. Allowing request (fail-open).", key, err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", fmt.Sprintf("%d", cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", decision.Remaining))

		if !decision.Allowed {
			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter <= 0 {
				retryAfter = int(cfg.Window.Seconds())
			}
			log.Printf("[RateLimiter] Rate limit exceeded for IP=%s scope=%s. Limit=%d", clientIP, cfg.KeyPrefix, cfg.MaxRequests)
			metrics.RateLimited.WithLabelValues(cfg.KeyPrefix).Inc()

			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Too many requests. Please try again later.",
				"error_type":  "rate_limited",
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
