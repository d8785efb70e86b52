package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/deppfellow/classroom/internal/server"

	"github.com/redis/go-redis/v9"
)

// RateLimitRepository counts hits per key in fixed Redis windows.
type RateLimitRepository struct {
	server *server.Server
}

func NewRateLimitRepository(s *server.Server) *RateLimitRepository {
	return &RateLimitRepository{server: s}
}

// Increment adds a hit to key and returns the count in the current window.
// The window starts with the first hit. INCR and TTL run in one MULTI, and a
// key found without a TTL gets its window set, so a failed EXPIRE can not
// leave a counter that never resets.
func (r *RateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	redisKey := "rate_limit:" + key

	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	_, err := r.server.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		ttl = pipe.TTL(ctx, redisKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to increment %s: %w", redisKey, err)
	}

	count := incr.Val()
	if ttl.Val() < 0 {
		if err := r.server.Redis.Expire(ctx, redisKey, window).Err(); err != nil {
			return count, fmt.Errorf("failed to set window on %s: %w", redisKey, err)
		}
	}
	return count, nil
}
