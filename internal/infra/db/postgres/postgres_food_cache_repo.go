package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/repository"
)

var _ repository.FoodCacheRepository = (*foodCacheRepo)(nil)

type foodCacheRepo struct {
	pool *pgxpool.Pool
}

func NewFoodCacheRepo(pool *pgxpool.Pool) *foodCacheRepo {
	return &foodCacheRepo{pool: pool}
}

func (r *foodCacheRepo) Get(ctx context.Context, name string) (*model.CacheEntry, error) {
	const q = `
SELECT name, corrected_label, calories, protein, carbs, fat, base_unit
FROM food_cache WHERE name = $1;`

	var e model.CacheEntry
	err := r.pool.QueryRow(ctx, q, name).Scan(
		&e.Name, &e.CorrectedLabel,
		&e.PerBase.Calories, &e.PerBase.Protein, &e.PerBase.Carbs, &e.PerBase.Fat,
		&e.BaseUnit,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("food cache get: %w", err)
	}
	return &e, nil
}

func (r *foodCacheRepo) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	const q = `
INSERT INTO food_cache (name, corrected_label, calories, protein, carbs, fat, base_unit, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
ON CONFLICT (name) DO UPDATE SET
  corrected_label = EXCLUDED.corrected_label,
  calories = EXCLUDED.calories,
  protein = EXCLUDED.protein,
  carbs = EXCLUDED.carbs,
  fat = EXCLUDED.fat,
  base_unit = EXCLUDED.base_unit,
  updated_at = NOW();`

	_, err := r.pool.Exec(ctx, q,
		entry.Name, entry.CorrectedLabel,
		entry.PerBase.Calories, entry.PerBase.Protein, entry.PerBase.Carbs, entry.PerBase.Fat,
		entry.BaseUnit,
	)
	if err != nil {
		return fmt.Errorf("food cache upsert: %w", err)
	}
	return nil
}
