package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTracker is a Tracker backed by Redis SET NX, letting several scheduler
// processes share one notified-occurrence record and restarts do not
// re-notify within the detection window.
type RedisTracker struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisTracker creates a tracker on the given Redis URL
func NewRedisTracker(redisURL string, retention time.Duration) (*RedisTracker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if retention <= 0 {
		retention = DefaultTrackerRetention
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &RedisTracker{client: client, retention: retention}, nil
}

// MarkNotified sets the key if absent; SET NX makes the first-writer-wins
// decision atomic
func (t *RedisTracker) MarkNotified(ctx context.Context, key string) (bool, error) {
	first, err := t.client.SetNX(ctx, key, "1", t.retention).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark occurrence notified: %w", err)
	}
	return first, nil
}

// Client exposes the underlying Redis client for sharing (rate limiting)
func (t *RedisTracker) Client() *redis.Client { return t.client }

// Close closes the Redis connection
func (t *RedisTracker) Close() error { return t.client.Close() }

var _ Tracker = (*RedisTracker)(nil)
