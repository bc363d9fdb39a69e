package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clera-dev/clera-gateway/internal/config"
)

// StatusCache is a short-TTL read-through cache for caller statuses. A miss
// or a redis failure simply falls through to the database; the cache is an
// optimization, never a source of truth.
type StatusCache struct {
	Client *redis.Client
	ttl    time.Duration
}

func NewStatusCache(cfg *config.Config) (*StatusCache, error) {
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := time.Duration(cfg.Redis.StatusTTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return &StatusCache{Client: rdb, ttl: ttl}, nil
}

func statusKey(userID, requirement string) string {
	return fmt.Sprintf("status:%s:%s", userID, requirement)
}

// Get returns the cached raw status value and whether it was present.
func (c *StatusCache) Get(ctx context.Context, userID, requirement string) (string, bool) {
	val, err := c.Client.Get(ctx, statusKey(userID, requirement)).Result()
	if err != nil {
		return "", false
	}
	return val, true
}

func (c *StatusCache) Set(ctx context.Context, userID, requirement, value string) {
	// Best effort; a failed write only costs a later cache miss.
	_ = c.Client.Set(ctx, statusKey(userID, requirement), value, c.ttl).Err()
}

// Invalidate drops every cached status for the user. Called after funding or
// billing writes so gating reflects the change on the next request.
func (c *StatusCache) Invalidate(ctx context.Context, userID string) {
	pipe := c.Client.Pipeline()
	for _, requirement := range []string{"onboarding", "payment", "funded", "accounts"} {
		pipe.Del(ctx, statusKey(userID, requirement))
	}
	_, _ = pipe.Exec(ctx)
}
