package repository

import (
	"context"

	"foodvision/internal/domain/model"
)

// MealRepository is the durable store for analyzed meals and their items.
type MealRepository interface {
	// Insert persists the record and its items atomically.
	Insert(ctx context.Context, rec *model.MealRecord) error
	// Get returns domain.ErrNotFound for unknown ids. Items are loaded.
	Get(ctx context.Context, id string) (*model.MealRecord, error)
	// UpdateCorrection overwrites label, totals and the item list.
	UpdateCorrection(ctx context.Context, id, correctedLabel string, totals model.Macros, items []model.FoodItem) error
	// List returns the most recent records, newest first.
	List(ctx context.Context, limit int) ([]*model.MealRecord, error)
	// Delete removes one record and returns its image paths so the caller
	// can unlink the files.
	Delete(ctx context.Context, id string) ([]string, error)
	// DeleteAll clears history and returns every stored image path.
	DeleteAll(ctx context.Context) ([]string, error)
}
