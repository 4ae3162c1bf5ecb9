package ws

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vivahsetu/vivahsetu-backend/internal/common"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
	pkgredis "github.com/vivahsetu/vivahsetu-backend/pkg/redis"
)

const sendLimitPrefix = "chat:ratelimit:send:"

// SendLimiter caps send-message events per user over a sliding minute.
// It fails open when Redis is missing or erroring.
type SendLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewSendLimiter creates a limiter allowing perMinute sends; zero disables it
func NewSendLimiter(client *redis.Client, perMinute int) *SendLimiter {
	return &SendLimiter{client: client, limit: perMinute, window: time.Minute}
}

// Allow records a send for userID and returns ErrRateLimited once the window is full
func (l *SendLimiter) Allow(ctx context.Context, userID string) error {
	if l == nil || l.client == nil || l.limit <= 0 {
		return nil
	}

	d, err := pkgredis.AllowSlidingWindow(ctx, l.client, sendLimitPrefix+userID, l.limit, l.window)
	if err != nil {
		pkglogger.GetLogger().Debug().Err(err).Str("user_id", userID).Msg("send limiter unavailable")
		return nil
	}
	if !d.Allowed {
		return common.RateLimited("retry in %s", d.RetryAfter(time.Now()).Round(time.Second))
	}
	return nil
}
