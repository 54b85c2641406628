package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

const DefaultCacheTTL = 30 * time.Minute

var _ domain.KeyValueStore = (*CachedStore)(nil)

// CachedStore is a read-through redis cache in front of another store. Writes
// go to the backing store first and then drop the cached copy, so a cache
// outage only costs latency.
type CachedStore struct {
	next   domain.KeyValueStore
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewCachedStore(next domain.KeyValueStore, cache *redis.Client, ttl time.Duration, logger *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedStore{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *CachedStore) cacheKey(key string) string {
	return "kv:" + key
}

func (s *CachedStore) invalidate(ctx context.Context, key string) {
	if err := s.cache.Del(ctx, s.cacheKey(key)).Err(); err != nil {
		s.logger.Warn("cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *CachedStore) Get(ctx context.Context, key string) (string, error) {
	ck := s.cacheKey(key)

	val, err := s.cache.Get(ctx, ck).Result()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	val, err = s.next.Get(ctx, key)
	if err != nil {
		return "", err
	}

	if setErr := s.cache.Set(ctx, ck, val, s.ttl).Err(); setErr != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(setErr))
	}
	return val, nil
}

func (s *CachedStore) Set(ctx context.Context, key, value string) error {
	if err := s.next.Set(ctx, key, value); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

func (s *CachedStore) Remove(ctx context.Context, key string) error {
	if err := s.next.Remove(ctx, key); err != nil {
		return err
	}
	s.invalidate(ctx, key)
	return nil
}

// Ping reports the health of the backing store only.
func (s *CachedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
