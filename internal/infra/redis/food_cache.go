package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/repository"
	"foodvision/internal/infra/metrics"
)

var _ repository.FoodCacheRepository = (*foodCacheDecorator)(nil)

// foodCacheDecorator fronts the durable food cache with a redis hot layer.
// The durable store stays authoritative; redis only short-circuits repeat
// lookups within the TTL window.
type foodCacheDecorator struct {
	inner repository.FoodCacheRepository
	cache RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewFoodCacheDecorator(inner repository.FoodCacheRepository, cache RedisClient, ttl time.Duration, log *zerolog.Logger) repository.FoodCacheRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &foodCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: log}
}

func (d *foodCacheDecorator) Get(ctx context.Context, name string) (*model.CacheEntry, error) {
	key := "food:" + name
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var entry model.CacheEntry
		if json.Unmarshal([]byte(val), &entry) == nil {
			metrics.IncCacheRequest("food_hot", "hit")
			return &entry, nil
		}
	} else if !Nil(err) {
		d.log.Warn().Err(err).Str("key", key).Msg("redis get failed")
	}

	metrics.IncCacheRequest("food_hot", "miss")
	entry, err := d.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if bytes, err := json.Marshal(entry); err == nil {
		if err := d.cache.Set(ctx, key, bytes, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
	}
	return entry, nil
}

func (d *foodCacheDecorator) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	if err := d.inner.Upsert(ctx, entry); err != nil {
		return err
	}
	// Write through so the next Get does not have to fall back.
	key := "food:" + entry.Name
	if bytes, err := json.Marshal(entry); err == nil {
		if err := d.cache.Set(ctx, key, bytes, d.ttl); err != nil {
			d.log.Warn().Err(err).Str("key", key).Msg("redis set failed")
		}
	}
	return nil
}
