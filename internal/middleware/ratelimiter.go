package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/keygate/backend-go/internal/config"
)

// RateLimiter throttles unauthenticated auth endpoints per client IP
// using Redis
type RateLimiter interface {
	// Limit allows at most max requests per window for a given route name
	Limit(route string, max int64, window time.Duration) gin.HandlerFunc

	// Close closes the Redis connection
	Close() error
}

type redisRateLimiter struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRateLimiter creates a new Redis-based rate limiter
func NewRateLimiter(cfg *config.Config, logger *slog.Logger) (RateLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       int(cfg.RedisDatabase),
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("❌ [RateLimiter] Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("✅ [RateLimiter] Connected to Redis",
		"host", cfg.RedisHost,
		"port", cfg.RedisPort,
	)

	return &redisRateLimiter{
		client: client,
		logger: logger,
	}, nil
}

// rateKey generates the Redis key for a fixed window
// Format: rate:{route}:{ip}:{window start unix}
func rateKey(route, ip string, window time.Duration) string {
	windowStart := time.Now().Unix() / int64(window.Seconds())
	return fmt.Sprintf("rate:%s:%s:%d", route, ip, windowStart)
}

func (r *redisRateLimiter) Limit(route string, max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rateKey(route, c.ClientIP(), window)

		pipe := r.client.Pipeline()
		incr := pipe.Incr(c.Request.Context(), key)
		pipe.Expire(c.Request.Context(), key, window)

		if _, err := pipe.Exec(c.Request.Context()); err != nil {
			// On Redis failure, allow the request but log it
			r.logger.Error("❌ [RateLimiter] Failed to check limit", "route", route, "error", err)
			c.Next()
			return
		}

		if incr.Val() > max {
			r.logger.Warn("⚠️ [RateLimiter] Rate limit exceeded", "route", route, "ip", c.ClientIP())
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// noOpRateLimiter is used when Redis is unavailable so auth endpoints keep
// working without throttling
type noOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a rate limiter that allows everything
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter")
	return &noOpRateLimiter{logger: logger}
}

func (n *noOpRateLimiter) Limit(route string, max int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
	}
}

func (n *noOpRateLimiter) Close() error {
	return nil
}
