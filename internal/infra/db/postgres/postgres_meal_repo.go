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

var _ repository.MealRepository = (*mealRepo)(nil)

type mealRepo struct {
	pool *pgxpool.Pool
}

func NewMealRepo(pool *pgxpool.Pool) *mealRepo {
	return &mealRepo{pool: pool}
}

func (r *mealRepo) Insert(ctx context.Context, rec *model.MealRecord) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		const q = `
INSERT INTO meals (id, created_at, image_path, original_label, corrected_label, calories, protein, carbs, fat, raw_response)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`
		_, err := tx.Exec(ctx, q,
			rec.ID, rec.CreatedAt, rec.ImagePath, rec.OriginalLabel, rec.CorrectedLabel,
			rec.Totals.Calories, rec.Totals.Protein, rec.Totals.Carbs, rec.Totals.Fat,
			rec.RawResponse,
		)
		if err != nil {
			return fmt.Errorf("insert meal: %w", err)
		}
		return insertItems(ctx, tx, rec.ID, rec.Items)
	})
}

func (r *mealRepo) Get(ctx context.Context, id string) (*model.MealRecord, error) {
	const q = `
SELECT id, created_at, image_path, original_label, corrected_label, calories, protein, carbs, fat, COALESCE(raw_response, '')
FROM meals WHERE id = $1;`

	var rec model.MealRecord
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&rec.ID, &rec.CreatedAt, &rec.ImagePath, &rec.OriginalLabel, &rec.CorrectedLabel,
		&rec.Totals.Calories, &rec.Totals.Protein, &rec.Totals.Carbs, &rec.Totals.Fat,
		&rec.RawResponse,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get meal: %w", err)
	}
	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

func (r *mealRepo) UpdateCorrection(ctx context.Context, id, correctedLabel string, totals model.Macros, items []model.FoodItem) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		const q = `
UPDATE meals SET corrected_label = $2, calories = $3, protein = $4, carbs = $5, fat = $6
WHERE id = $1;`
		tag, err := tx.Exec(ctx, q, id, correctedLabel, totals.Calories, totals.Protein, totals.Carbs, totals.Fat)
		if err != nil {
			return fmt.Errorf("update meal: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM meal_items WHERE meal_id = $1;`, id); err != nil {
			return fmt.Errorf("clear meal items: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
}

func (r *mealRepo) List(ctx context.Context, limit int) ([]*model.MealRecord, error) {
	const q = `
SELECT id, created_at, image_path, original_label, corrected_label, calories, protein, carbs, fat
FROM meals ORDER BY created_at DESC LIMIT $1;`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var out []*model.MealRecord
	for rows.Next() {
		var rec model.MealRecord
		if err := rows.Scan(
			&rec.ID, &rec.CreatedAt, &rec.ImagePath, &rec.OriginalLabel, &rec.CorrectedLabel,
			&rec.Totals.Calories, &rec.Totals.Protein, &rec.Totals.Carbs, &rec.Totals.Fat,
		); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, rec := range out {
		items, err := r.itemsFor(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Items = items
	}
	return out, nil
}

func (r *mealRepo) Delete(ctx context.Context, id string) ([]string, error) {
	var paths []string
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		var imagePath string
		err := tx.QueryRow(ctx, `SELECT COALESCE(image_path, '') FROM meals WHERE id = $1;`, id).Scan(&imagePath)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if imagePath != "" {
			paths = append(paths, imagePath)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM meal_items WHERE meal_id = $1;`, id); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM meals WHERE id = $1;`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *mealRepo) DeleteAll(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT image_path FROM meals WHERE image_path IS NOT NULL AND image_path <> '';`)
		if err != nil {
			return err
		}
		for rows.Next() {
			var p string
			if err := rows.Scan(&p); err != nil {
				rows.Close()
				return err
			}
			paths = append(paths, p)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM meal_items;`); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM meals;`)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *mealRepo) itemsFor(ctx context.Context, mealID string) ([]model.FoodItem, error) {
	const q = `
SELECT name, quantity, calories, protein, carbs, fat
FROM meal_items WHERE meal_id = $1 ORDER BY id;`

	rows, err := r.pool.Query(ctx, q, mealID)
	if err != nil {
		return nil, fmt.Errorf("list meal items: %w", err)
	}
	defer rows.Close()

	var items []model.FoodItem
	for rows.Next() {
		var it model.FoodItem
		if err := rows.Scan(&it.Name, &it.Quantity, &it.Macros.Calories, &it.Macros.Protein, &it.Macros.Carbs, &it.Macros.Fat); err != nil {
			return nil, fmt.Errorf("scan meal item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func insertItems(ctx context.Context, tx pgx.Tx, mealID string, items []model.FoodItem) error {
	const q = `
INSERT INTO meal_items (meal_id, name, quantity, calories, protein, carbs, fat)
VALUES ($1, $2, $3, $4, $5, $6, $7);`
	for _, it := range items {
		if _, err := tx.Exec(ctx, q, mealID, it.Name, it.Quantity, it.Macros.Calories, it.Macros.Protein, it.Macros.Carbs, it.Macros.Fat); err != nil {
			return fmt.Errorf("insert meal item: %w", err)
		}
	}
	return nil
}

func (r *mealRepo) withTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
