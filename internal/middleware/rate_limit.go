package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
	pkgredis "github.com/vivahsetu/vivahsetu-backend/pkg/redis"
)

// RateLimitConfig configures the rate limiter
type RateLimitConfig struct {
	RequestsPerMinute int
	KeyPrefix         string
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 120,
		KeyPrefix:         "api:ratelimit:",
	}
}

// RateLimit returns a gin middleware that rate limits by client IP
func RateLimit(redisClient *redis.Client, cfg RateLimitConfig) gin.HandlerFunc {
	return rateLimit(redisClient, cfg, func(c *gin.Context) string {
		return c.ClientIP()
	})
}

// RateLimitPerUser rate limits by authenticated user, falling back to the client IP
func RateLimitPerUser(redisClient *redis.Client, requestsPerMinute int) gin.HandlerFunc {
	cfg := RateLimitConfig{
		RequestsPerMinute: requestsPerMinute,
		KeyPrefix:         "api:ratelimit:user:",
	}
	return rateLimit(redisClient, cfg, func(c *gin.Context) string {
		if userID := GetUserID(c); userID != "" {
			return userID
		}
		return "ip:" + c.ClientIP()
	})
}

func rateLimit(redisClient *redis.Client, cfg RateLimitConfig, identify func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if redisClient == nil || cfg.RequestsPerMinute <= 0 {
			c.Next()
			return
		}

		d, err := pkgredis.AllowSlidingWindow(c.Request.Context(), redisClient,
			cfg.KeyPrefix+identify(c), cfg.RequestsPerMinute, time.Minute)
		if err != nil {
			// fail open
			pkglogger.GetLogger().Debug().Err(err).Msg("rate limiter unavailable")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.RequestsPerMinute))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))

		if !d.Allowed {
			retryAfter := d.RetryAfter(time.Now())
			c.Header("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt/1000, 10))
			c.Header("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
			common.HandleError(c, common.RateLimited("retry in %s", retryAfter.Round(time.Second)))
			c.Abort()
			return
		}

		c.Next()
	}
}
