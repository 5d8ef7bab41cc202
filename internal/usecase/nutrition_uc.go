package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
	"foodvision/internal/domain/ports/repository"
	"foodvision/internal/infra/logging"
	"foodvision/internal/infra/metrics"
)

// Compile-time check
var _ NutritionUseCase = (*nutritionUC)(nil)

// LookupResult is one resolved food: canonical name plus macros scaled to
// the requested quantity.
type LookupResult struct {
	Name        string
	Quantity    float64
	Macros      model.Macros
	RawResponse string
	// Incomplete marks labels the source could not resolve even after the
	// simplification retry. Zero macros are still a valid, cached outcome.
	Incomplete bool
}

// NutritionUseCase is the get-or-fetch-and-persist wrapper around the
// nutrition source, keyed by canonical food name.
type NutritionUseCase interface {
	Lookup(ctx context.Context, rawLabel string, quantity float64) (*LookupResult, error)
}

type nutritionUC struct {
	cache  repository.FoodCacheRepository
	source adapter.NutritionSource
	log    *zerolog.Logger
}

func NewNutritionUseCase(cache repository.FoodCacheRepository, source adapter.NutritionSource, logger *zerolog.Logger) *nutritionUC {
	l := logger.With().Str("component", "NutritionUC").Logger()
	return &nutritionUC{cache: cache, source: source, log: &l}
}

// Lookup resolves macros for a raw label. The cache hit path never touches
// the nutrition source; on a miss the per-100g result is upserted
// unconditionally, including all-zero "misses", so unresolvable labels are
// not re-queried on every scan.
func (n *nutritionUC) Lookup(ctx context.Context, rawLabel string, quantity float64) (*LookupResult, error) {
	defer logging.TraceDuration(n.log, "NutritionUC.Lookup")()
	if quantity <= 0 {
		quantity = 1.0
	}
	key := model.CanonicalName(rawLabel)

	entry, err := n.cache.Get(ctx, key)
	if err == nil {
		metrics.IncCacheRequest("food", "hit")
		return &LookupResult{
			Name:     key,
			Quantity: quantity,
			Macros:   entry.PerBase.Scale(quantity),
		}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	metrics.IncCacheRequest("food", "miss")

	facts, incomplete := n.fetch(ctx, rawLabel)

	upsert := &model.CacheEntry{
		Name:           key,
		CorrectedLabel: facts.CorrectedLabel,
		PerBase:        facts.PerBase,
		BaseUnit:       model.BaseUnit,
	}
	if err := n.cache.Upsert(ctx, upsert); err != nil {
		return nil, err
	}

	return &LookupResult{
		Name:        key,
		Quantity:    quantity,
		Macros:      facts.PerBase.Scale(quantity),
		RawResponse: facts.Raw,
		Incomplete:  incomplete,
	}, nil
}

// fetch queries the source with the humanized label and, when that comes
// back all-zero for a multi-word label, retries with just the last word.
// Source failures degrade to a zero result instead of failing the scan.
func (n *nutritionUC) fetch(ctx context.Context, rawLabel string) (adapter.NutritionFacts, bool) {
	human := model.HumanLabel(rawLabel)

	facts := n.query(ctx, human)
	if facts.PerBase.IsZero() {
		if words := strings.Fields(human); len(words) > 1 {
			retry := n.query(ctx, words[len(words)-1])
			if !retry.PerBase.IsZero() {
				facts = retry
			}
		}
	}

	incomplete := facts.PerBase.IsZero()
	if incomplete {
		metrics.IncNutritionLookup("incomplete")
	} else {
		metrics.IncNutritionLookup("resolved")
	}
	return facts, incomplete
}

func (n *nutritionUC) query(ctx context.Context, name string) adapter.NutritionFacts {
	facts, err := n.source.Query(ctx, name)
	if err != nil {
		n.log.Warn().Err(err).Str("query", name).Msg("nutrition source failed")
		return adapter.NutritionFacts{CorrectedLabel: name, Raw: err.Error()}
	}
	if facts.CorrectedLabel == "" {
		facts.CorrectedLabel = name
	}
	return facts
}
