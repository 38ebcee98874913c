package middleware

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"patient-records-api/config"
	"patient-records-api/util"

	"github.com/gin-gonic/gin"
)

const (
	// Rate limiting defaults
	defaultRateLimit  = 60               // 60 requests
	defaultRateWindow = 15 * time.Minute // per 15 minutes
)

// localCounters backs the in-process fixed-window limiter used when
// Redis is not configured. Entries expire with the window.
var localCounters = gocache.New(defaultRateWindow, 2*defaultRateWindow)

// RateLimitConfig holds configuration for rate limiting
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter creates a rate limiting middleware
func RateLimiter(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.Limit == 0 {
		cfg.Limit = defaultRateLimit
	}
	if cfg.Window == 0 {
		cfg.Window = defaultRateWindow
	}

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		endpoint := c.Request.URL.Path

		key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)

		allowed, err := checkRateLimit(key, cfg.Limit, cfg.Window)
		if err != nil {
			// If the Redis check fails, fall back to the local counter
			// rather than denying service.
			util.LogAuditEvent(util.AuditEvent{
				EventType: util.EventStoreFailure,
				IP:        clientIP,
				Message:   fmt.Sprintf("Rate limit check failed: %v", err),
			})
			allowed = checkLocalRateLimit(key, cfg.Limit, cfg.Window)
		}

		if !allowed {
			util.LogRateLimitExceeded(clientIP, endpoint)

			util.CallUserError(c, util.APIErrorParams{
				Msg: "Too many requests. Please try again later.",
				Err: fmt.Errorf("rate limit exceeded"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// checkRateLimit checks if a request is within rate limits.
// Returns true if allowed, false if rate limit exceeded.
func checkRateLimit(key string, limit int, window time.Duration) (bool, error) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return checkLocalRateLimit(key, limit, window), nil
	}

	ctx := context.Background()

	// Use Redis pipeline for atomic operations
	pipe := rdb.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, window)
	_, err := pipe.Exec(ctx)
	if err != nil && err != redis.Nil {
		return false, fmt.Errorf("failed to check rate limit: %w", err)
	}

	return incrCmd.Val() <= int64(limit), nil
}

// checkLocalRateLimit is the in-process fixed-window counter.
func checkLocalRateLimit(key string, limit int, window time.Duration) bool {
	if err := localCounters.Add(key, int64(1), window); err == nil {
		return limit >= 1
	}
	count, err := localCounters.IncrementInt64(key, 1)
	if err != nil {
		// Entry expired between Add and Increment; start a new window.
		localCounters.Set(key, int64(1), window)
		return limit >= 1
	}
	return count <= int64(limit)
}

// ResetRateLimit resets the rate limit for a given key (useful for testing or admin operations)
func ResetRateLimit(clientIP, endpoint string) error {
	key := fmt.Sprintf("ratelimit:%s:%s", endpoint, clientIP)
	localCounters.Delete(key)

	rdb := config.GetRedisClient()
	if rdb == nil {
		return nil
	}
	return rdb.Del(context.Background(), key).Err()
}
