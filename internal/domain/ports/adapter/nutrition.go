package adapter

import (
	"context"

	"foodvision/internal/domain/model"
)

// NutritionFacts is one nutrition-source answer, per 100g. An unmatched
// food yields all-zero macros with a nil error; Raw keeps the provider's
// response text for diagnostics only.
type NutritionFacts struct {
	CorrectedLabel string
	PerBase        model.Macros
	Raw            string
}

// NutritionSource is the port for per-100g macro estimation by food name.
type NutritionSource interface {
	Query(ctx context.Context, name string) (NutritionFacts, error)
}
