package repository

import (
	"context"

	"foodvision/internal/domain/model"
)

// FoodCacheRepository persists per-100g nutrition entries keyed by
// canonical name. Upsert is last-writer-wins; concurrent lookups for the
// same unseen key may each miss once, which is acceptable.
type FoodCacheRepository interface {
	// Get returns domain.ErrNotFound when the key has never been cached.
	Get(ctx context.Context, name string) (*model.CacheEntry, error)
	Upsert(ctx context.Context, entry *model.CacheEntry) error
}
