// Package redisstore keeps the request counters used for rate limiting.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Hit increments the caller's counter for the current window and reports the
// total. The first hit in a window sets the key's TTL; later hits must not
// touch it, or steady traffic would keep the window from ever expiring and
// the counter would grow without bound.
func (s *Store) Hit(ctx context.Context, callerID string, window time.Duration) (int64, error) {
	key := fmt.Sprintf("ratelimit:%s", callerID)
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
