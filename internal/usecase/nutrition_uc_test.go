package usecase

import (
	"context"
	"errors"
	"testing"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

func TestLookupCacheHitSkipsSource(t *testing.T) {
	cache := newMemFoodCache()
	cache.Upsert(context.Background(), &model.CacheEntry{
		Name:           "banana",
		CorrectedLabel: "Bananas, raw",
		PerBase:        model.Macros{Calories: 105, Protein: 1.3, Carbs: 27, Fat: 0.4},
		BaseUnit:       model.BaseUnit,
	})
	source := newCountingSource()
	uc := NewNutritionUseCase(cache, source, testLogger())

	res, err := uc.Lookup(context.Background(), "Banana", 2.0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if source.callCount() != 0 {
		t.Errorf("cache hit reached the source %d times", source.callCount())
	}
	want := model.Macros{Calories: 210, Protein: 2.6, Carbs: 54, Fat: 0.8}
	if res.Macros != want {
		t.Errorf("scaled macros = %+v, want %+v", res.Macros, want)
	}
	if res.Name != "banana" {
		t.Errorf("name = %q", res.Name)
	}
}

func TestLookupMissFetchesAndCaches(t *testing.T) {
	cache := newMemFoodCache()
	source := newCountingSource()
	source.replies["fried rice"] = adapter.NutritionFacts{
		CorrectedLabel: "Rice, fried",
		PerBase:        model.Macros{Calories: 163, Protein: 3.2, Carbs: 31, Fat: 3.1},
	}
	uc := NewNutritionUseCase(cache, source, testLogger())

	res, err := uc.Lookup(context.Background(), "Fried Rice", 1.0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if source.callCount() != 1 {
		t.Errorf("source calls = %d, want 1", source.callCount())
	}
	if res.Incomplete {
		t.Error("resolved lookup marked incomplete")
	}

	entry, err := cache.Get(context.Background(), "fried_rice")
	if err != nil {
		t.Fatalf("miss was not cached: %v", err)
	}
	if entry.CorrectedLabel != "Rice, fried" {
		t.Errorf("cached corrected label = %q", entry.CorrectedLabel)
	}
	if entry.BaseUnit != model.BaseUnit {
		t.Errorf("cached base unit = %q", entry.BaseUnit)
	}
}

func TestLookupLastWordRetry(t *testing.T) {
	cache := newMemFoodCache()
	source := newCountingSource()
	// Full label misses, the last word resolves.
	source.replies["breast"] = adapter.NutritionFacts{
		CorrectedLabel: "Chicken, breast",
		PerBase:        model.Macros{Calories: 165, Protein: 31, Carbs: 0, Fat: 3.6},
	}
	uc := NewNutritionUseCase(cache, source, testLogger())

	res, err := uc.Lookup(context.Background(), "grilled_chicken_breast", 1.0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if source.callCount() != 2 {
		t.Fatalf("source calls = %d, want 2 (original then last word)", source.callCount())
	}
	if source.queries[0] != "grilled chicken breast" || source.queries[1] != "breast" {
		t.Errorf("queries = %v", source.queries)
	}
	if res.Macros.Calories != 165 {
		t.Errorf("retry macros not used: %+v", res.Macros)
	}
}

func TestLookupSourceFailureCachesZero(t *testing.T) {
	cache := newMemFoodCache()
	source := newCountingSource()
	source.err = errors.New("upstream down")
	uc := NewNutritionUseCase(cache, source, testLogger())

	res, err := uc.Lookup(context.Background(), "mystery stew", 1.0)
	if err != nil {
		t.Fatalf("source failure must degrade, got error: %v", err)
	}
	if !res.Macros.IsZero() || !res.Incomplete {
		t.Errorf("degraded result = %+v", res)
	}

	// Second call resolves from the cached zero entry without touching
	// the broken source again.
	before := source.callCount()
	if _, err := uc.Lookup(context.Background(), "Mystery Stew", 1.0); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if source.callCount() != before {
		t.Errorf("cached miss re-queried the source")
	}
}

func TestLookupQuantityDefaultsToOne(t *testing.T) {
	cache := newMemFoodCache()
	cache.Upsert(context.Background(), &model.CacheEntry{
		Name:    "apple",
		PerBase: model.Macros{Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2},
	})
	uc := NewNutritionUseCase(cache, newCountingSource(), testLogger())

	res, err := uc.Lookup(context.Background(), "apple", 0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if res.Quantity != 1.0 || res.Macros.Calories != 52 {
		t.Errorf("quantity fallback broken: %+v", res)
	}
}
