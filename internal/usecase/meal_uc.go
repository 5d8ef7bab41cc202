package usecase

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/repository"
	"foodvision/internal/infra/logging"
)

// Compile-time check
var _ MealUseCase = (*mealUC)(nil)

// MealUseCase persists pipeline results as meal history and serves the
// correction/history operations.
type MealUseCase interface {
	// SaveResult stores a finished pipeline run for the uploaded image and
	// builds the result payload attached to the job's terminal event.
	SaveResult(ctx context.Context, uploadPath string, res *model.PipelineResult) (*model.ScanResult, error)
	// Correct re-resolves macros for a corrected label through the
	// nutrition cache and overwrites the stored record.
	Correct(ctx context.Context, mealID, newLabel string) (model.Macros, []model.FoodItem, error)
	History(ctx context.Context, limit int) ([]*model.MealRecord, error)
	Delete(ctx context.Context, mealID string) error
	Clear(ctx context.Context) error
}

type mealUC struct {
	meals     repository.MealRepository
	nutrition NutritionUseCase
	log       *zerolog.Logger
}

func NewMealUseCase(meals repository.MealRepository, nutrition NutritionUseCase, logger *zerolog.Logger) *mealUC {
	l := logger.With().Str("component", "MealUC").Logger()
	return &mealUC{meals: meals, nutrition: nutrition, log: &l}
}

func (m *mealUC) SaveResult(ctx context.Context, uploadPath string, res *model.PipelineResult) (*model.ScanResult, error) {
	// The annotated overview replaces the raw upload as the record's
	// image when segmentation produced one.
	imagePath := uploadPath
	if res.AnnotatedImagePath != "" {
		imagePath = res.AnnotatedImagePath
		if res.AnnotatedImagePath != uploadPath {
			if err := os.Remove(uploadPath); err != nil && !os.IsNotExist(err) {
				m.log.Warn().Err(err).Str("path", uploadPath).Msg("could not remove raw upload")
			}
		}
	}

	originalLabel := res.OriginalLabel
	if originalLabel == "" && len(res.Items) > 0 {
		originalLabel = res.Items[0].Name
	}
	correctedLabel := ""
	if len(res.Items) > 0 {
		correctedLabel = res.Items[0].Name
	}

	rec := &model.MealRecord{
		ID:             ulid.Make().String(),
		CreatedAt:      time.Now().UTC(),
		ImagePath:      imagePath,
		OriginalLabel:  originalLabel,
		CorrectedLabel: correctedLabel,
		Totals:         res.Totals,
		RawResponse:    res.RawResponse,
		Items:          res.Items,
	}
	if err := m.meals.Insert(ctx, rec); err != nil {
		return nil, err
	}

	out := &model.ScanResult{
		MealID:        rec.ID,
		ImagePath:     imagePath,
		ImageURL:      uploadURL(imagePath),
		OriginalLabel: res.OriginalLabel,
		Items:         res.Items,
		Totals:        res.Totals,
		Regions:       res.Regions,
	}
	if res.AnnotatedImagePath != "" {
		out.AnnotatedImageURL = uploadURL(res.AnnotatedImagePath)
	}
	return out, nil
}

func (m *mealUC) Correct(ctx context.Context, mealID, newLabel string) (model.Macros, []model.FoodItem, error) {
	newLabel = strings.TrimSpace(newLabel)
	if newLabel == "" {
		return model.Macros{}, nil, domain.ErrInvalidArgument
	}
	if _, err := m.meals.Get(ctx, mealID); err != nil {
		return model.Macros{}, nil, err
	}

	res, err := m.nutrition.Lookup(ctx, newLabel, 1.0)
	if err != nil {
		return model.Macros{}, nil, err
	}
	items := []model.FoodItem{{Name: res.Name, Quantity: res.Quantity, Macros: res.Macros}}

	if err := m.meals.UpdateCorrection(ctx, mealID, res.Name, res.Macros, items); err != nil {
		return model.Macros{}, nil, err
	}
	logging.With(logging.WithMealID(ctx, mealID), m.log).Info().
		Str("label", res.Name).Msg("meal corrected")
	return res.Macros, items, nil
}

func (m *mealUC) History(ctx context.Context, limit int) ([]*model.MealRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	return m.meals.List(ctx, limit)
}

func (m *mealUC) Delete(ctx context.Context, mealID string) error {
	paths, err := m.meals.Delete(ctx, mealID)
	if err != nil {
		return err
	}
	m.removeFiles(paths)
	return nil
}

func (m *mealUC) Clear(ctx context.Context) error {
	paths, err := m.meals.DeleteAll(ctx)
	if err != nil {
		return err
	}
	m.removeFiles(paths)
	return nil
}

func (m *mealUC) removeFiles(paths []string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			m.log.Warn().Err(err).Str("path", p).Msg("could not remove meal image")
		}
	}
}

func uploadURL(path string) string {
	return "/api/uploads/" + filepath.Base(path)
}
