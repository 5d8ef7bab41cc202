package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// memFoodCache is a small in-memory implementation used by unit tests.
type memFoodCache struct {
	mu      sync.Mutex
	store   map[string]*model.CacheEntry
	upserts int
}

func newMemFoodCache() *memFoodCache {
	return &memFoodCache{store: make(map[string]*model.CacheEntry)}
}

func (m *memFoodCache) Get(ctx context.Context, name string) (*model.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memFoodCache) Upsert(ctx context.Context, entry *model.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.store[entry.Name] = &cp
	m.upserts++
	return nil
}

// countingSource records every query so tests can assert the cache hit
// path never reaches the source.
type countingSource struct {
	mu      sync.Mutex
	replies map[string]adapter.NutritionFacts
	err     error
	queries []string
}

func newCountingSource() *countingSource {
	return &countingSource{replies: make(map[string]adapter.NutritionFacts)}
}

func (s *countingSource) Query(ctx context.Context, name string) (adapter.NutritionFacts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, name)
	if s.err != nil {
		return adapter.NutritionFacts{}, s.err
	}
	if f, ok := s.replies[name]; ok {
		return f, nil
	}
	return adapter.NutritionFacts{CorrectedLabel: name, Raw: "no match"}, nil
}

func (s *countingSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queries)
}

// fakeVision replies per image path, optionally after a delay, so tests
// can invert completion order across crops.
type fakeVision struct {
	mu      sync.Mutex
	replies map[string]string
	delays  map[string]time.Duration
	err     error
	calls   []string
}

func newFakeVision() *fakeVision {
	return &fakeVision{replies: make(map[string]string), delays: make(map[string]time.Duration)}
}

func (v *fakeVision) Label(ctx context.Context, imagePath, modelHint string) (string, error) {
	v.mu.Lock()
	delay := v.delays[imagePath]
	reply, ok := v.replies[imagePath]
	err := v.err
	v.calls = append(v.calls, imagePath)
	v.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err != nil {
		return "", err
	}
	if !ok {
		return model.NonFoodSentinel, nil
	}
	return reply, nil
}

type fakeSegmenter struct {
	seg *adapter.Segmentation
	err error
}

func (s *fakeSegmenter) Segment(ctx context.Context, imagePath string) (*adapter.Segmentation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.seg, nil
}

// memMealRepo backs meal usecase tests without a database.
type memMealRepo struct {
	mu    sync.Mutex
	store map[string]*model.MealRecord
	order []string
}

func newMemMealRepo() *memMealRepo {
	return &memMealRepo{store: make(map[string]*model.MealRecord)}
}

func (m *memMealRepo) Insert(ctx context.Context, rec *model.MealRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.store[rec.ID] = &cp
	m.order = append(m.order, rec.ID)
	return nil
}

func (m *memMealRepo) Get(ctx context.Context, id string) (*model.MealRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memMealRepo) UpdateCorrection(ctx context.Context, id, correctedLabel string, totals model.Macros, items []model.FoodItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.CorrectedLabel = correctedLabel
	rec.Totals = totals
	rec.Items = items
	return nil
}

func (m *memMealRepo) List(ctx context.Context, limit int) ([]*model.MealRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.MealRecord
	for i := len(m.order) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.store[m.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memMealRepo) Delete(ctx context.Context, id string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	delete(m.store, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if rec.ImagePath != "" {
		return []string{rec.ImagePath}, nil
	}
	return nil, nil
}

func (m *memMealRepo) DeleteAll(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var paths []string
	for _, rec := range m.store {
		if rec.ImagePath != "" {
			paths = append(paths, rec.ImagePath)
		}
	}
	m.store = make(map[string]*model.MealRecord)
	m.order = nil
	return paths, nil
}

// fakePipeline scripts the background run for scan usecase tests.
type fakePipeline struct {
	stages []string
	result *model.PipelineResult
	err    error
}

func (p *fakePipeline) Run(ctx context.Context, imagePath string, mode model.ScanMode, report ProgressFunc) (*model.PipelineResult, error) {
	for i, st := range p.stages {
		report(st, (i+1)*10)
	}
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

// fakeMeals satisfies MealUseCase where persistence is out of scope.
type fakeMeals struct {
	saveErr error
}

func (f *fakeMeals) SaveResult(ctx context.Context, uploadPath string, res *model.PipelineResult) (*model.ScanResult, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	return &model.ScanResult{
		MealID:        "meal-1",
		ImagePath:     uploadPath,
		OriginalLabel: res.OriginalLabel,
		Items:         res.Items,
		Totals:        res.Totals,
		Regions:       res.Regions,
	}, nil
}

func (f *fakeMeals) Correct(ctx context.Context, mealID, newLabel string) (model.Macros, []model.FoodItem, error) {
	return model.Macros{}, nil, nil
}

func (f *fakeMeals) History(ctx context.Context, limit int) ([]*model.MealRecord, error) {
	return nil, nil
}

func (f *fakeMeals) Delete(ctx context.Context, mealID string) error { return nil }

func (f *fakeMeals) Clear(ctx context.Context) error { return nil }
