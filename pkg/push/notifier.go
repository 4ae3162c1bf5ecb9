// Package push hands out-of-band notifications to the platform push worker.
//
// The chat service never talks to FCM/APNs directly. Jobs are appended to a
// Redis list that the push worker drains; delivery is best-effort.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	pkglogger "github.com/vivahsetu/vivahsetu-backend/pkg/logger"
)

// DefaultQueueKey is the Redis list the push worker consumes
const DefaultQueueKey = "push:outbox"

// maxQueueLength bounds the outbox when the worker is down
const maxQueueLength = 10000

// Notifier delivers a notification to a device token
type Notifier interface {
	Notify(ctx context.Context, deviceToken, title, body string, data map[string]string) error
}

// Job is the wire format shared with the push worker
type Job struct {
	DeviceToken string            `json:"device_token"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	Data        map[string]string `json:"data,omitempty"`
	EnqueuedAt  time.Time         `json:"enqueued_at"`
}

// RedisNotifier enqueues jobs onto a Redis list
type RedisNotifier struct {
	client *redis.Client
	key    string
}

// NewRedisNotifier creates a Redis-backed notifier
func NewRedisNotifier(client *redis.Client, key string) *RedisNotifier {
	if key == "" {
		key = DefaultQueueKey
	}
	return &RedisNotifier{client: client, key: key}
}

// Notify enqueues a job. The list is trimmed so a stalled worker cannot grow it unbounded.
func (n *RedisNotifier) Notify(ctx context.Context, deviceToken, title, body string, data map[string]string) error {
	if deviceToken == "" {
		return nil
	}
	payload, err := json.Marshal(&Job{
		DeviceToken: deviceToken,
		Title:       title,
		Body:        body,
		Data:        data,
		EnqueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal push job: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	pipe := n.client.TxPipeline()
	pipe.LPush(ctx, n.key, payload)
	pipe.LTrim(ctx, n.key, 0, maxQueueLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("enqueue push job: %w", err)
	}
	return nil
}

// LogNotifier is used when Redis is unavailable; it only records the attempt
type LogNotifier struct{}

// Notify logs the notification and reports success
func (LogNotifier) Notify(_ context.Context, deviceToken, title, _ string, _ map[string]string) error {
	if deviceToken == "" {
		return nil
	}
	pkglogger.GetLogger().Debug().Str("title", title).Msg("push notifier disabled, dropping notification")
	return nil
}
