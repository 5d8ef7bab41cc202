package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/repository"
)

var _ repository.MealRepository = (*mealRepo)(nil)

type mealRepo struct {
	db *sql.DB
}

func NewMealRepo(db *sql.DB) *mealRepo {
	return &mealRepo{db: db}
}

func (r *mealRepo) Insert(ctx context.Context, rec *model.MealRecord) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
INSERT INTO meals (id, created_at, image_path, original_label, corrected_label, calories, protein, carbs, fat, raw_response)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
		_, err := tx.ExecContext(ctx, q,
			rec.ID, rec.CreatedAt.UTC().Format(time.RFC3339), rec.ImagePath, rec.OriginalLabel, rec.CorrectedLabel,
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
FROM meals WHERE id = ?;`

	var rec model.MealRecord
	var createdAt string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &createdAt, &rec.ImagePath, &rec.OriginalLabel, &rec.CorrectedLabel,
		&rec.Totals.Calories, &rec.Totals.Protein, &rec.Totals.Carbs, &rec.Totals.Fat,
		&rec.RawResponse,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get meal: %w", err)
	}
	rec.CreatedAt = parseTime(createdAt)
	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Items = items
	return &rec, nil
}

func (r *mealRepo) UpdateCorrection(ctx context.Context, id, correctedLabel string, totals model.Macros, items []model.FoodItem) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		const q = `
UPDATE meals SET corrected_label = ?, calories = ?, protein = ?, carbs = ?, fat = ?
WHERE id = ?;`
		res, err := tx.ExecContext(ctx, q, correctedLabel, totals.Calories, totals.Protein, totals.Carbs, totals.Fat, id)
		if err != nil {
			return fmt.Errorf("update meal: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM meal_items WHERE meal_id = ?;`, id); err != nil {
			return fmt.Errorf("clear meal items: %w", err)
		}
		return insertItems(ctx, tx, id, items)
	})
}

func (r *mealRepo) List(ctx context.Context, limit int) ([]*model.MealRecord, error) {
	const q = `
SELECT id, created_at, image_path, original_label, corrected_label, calories, protein, carbs, fat
FROM meals ORDER BY created_at DESC LIMIT ?;`

	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}
	defer rows.Close()

	var out []*model.MealRecord
	for rows.Next() {
		var rec model.MealRecord
		var createdAt string
		if err := rows.Scan(
			&rec.ID, &createdAt, &rec.ImagePath, &rec.OriginalLabel, &rec.CorrectedLabel,
			&rec.Totals.Calories, &rec.Totals.Protein, &rec.Totals.Carbs, &rec.Totals.Fat,
		); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		rec.CreatedAt = parseTime(createdAt)
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
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var imagePath string
		err := tx.QueryRowContext(ctx, `SELECT COALESCE(image_path, '') FROM meals WHERE id = ?;`, id).Scan(&imagePath)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}
		if imagePath != "" {
			paths = append(paths, imagePath)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM meal_items WHERE meal_id = ?;`, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM meals WHERE id = ?;`, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *mealRepo) DeleteAll(ctx context.Context) ([]string, error) {
	var paths []string
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT image_path FROM meals WHERE image_path IS NOT NULL AND image_path <> '';`)
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
		if _, err := tx.ExecContext(ctx, `DELETE FROM meal_items;`); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM meals;`)
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
FROM meal_items WHERE meal_id = ? ORDER BY id;`

	rows, err := r.db.QueryContext(ctx, q, mealID)
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

func insertItems(ctx context.Context, tx *sql.Tx, mealID string, items []model.FoodItem) error {
	const q = `
INSERT INTO meal_items (meal_id, name, quantity, calories, protein, carbs, fat)
VALUES (?, ?, ?, ?, ?, ?, ?);`
	for _, it := range items {
		if _, err := tx.ExecContext(ctx, q, mealID, it.Name, it.Quantity, it.Macros.Calories, it.Macros.Protein, it.Macros.Carbs, it.Macros.Fat); err != nil {
			return fmt.Errorf("insert meal item: %w", err)
		}
	}
	return nil
}

func (r *mealRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
