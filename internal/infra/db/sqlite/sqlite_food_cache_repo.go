package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/repository"
)

var _ repository.FoodCacheRepository = (*foodCacheRepo)(nil)

type foodCacheRepo struct {
	db *sql.DB
}

func NewFoodCacheRepo(db *sql.DB) *foodCacheRepo {
	return &foodCacheRepo{db: db}
}

func (r *foodCacheRepo) Get(ctx context.Context, name string) (*model.CacheEntry, error) {
	const q = `
SELECT name, corrected_label, calories, protein, carbs, fat, base_unit
FROM food_cache WHERE name = ?;`

	var e model.CacheEntry
	err := r.db.QueryRowContext(ctx, q, name).Scan(
		&e.Name, &e.CorrectedLabel,
		&e.PerBase.Calories, &e.PerBase.Protein, &e.PerBase.Carbs, &e.PerBase.Fat,
		&e.BaseUnit,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("food cache get: %w", err)
	}
	return &e, nil
}

func (r *foodCacheRepo) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	const q = `
INSERT INTO food_cache (name, corrected_label, calories, protein, carbs, fat, base_unit, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, datetime('now'))
ON CONFLICT(name) DO UPDATE SET
  corrected_label = excluded.corrected_label,
  calories = excluded.calories,
  protein = excluded.protein,
  carbs = excluded.carbs,
  fat = excluded.fat,
  base_unit = excluded.base_unit,
  updated_at = datetime('now');`

	_, err := r.db.ExecContext(ctx, q,
		entry.Name, entry.CorrectedLabel,
		entry.PerBase.Calories, entry.PerBase.Protein, entry.PerBase.Carbs, entry.PerBase.Fat,
		entry.BaseUnit,
	)
	if err != nil {
		return fmt.Errorf("food cache upsert: %w", err)
	}
	return nil
}
