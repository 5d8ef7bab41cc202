package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
	"foodvision/internal/infra/logging"
	"foodvision/internal/infra/metrics"
	"foodvision/internal/infra/worker"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

// ProgressFunc receives stage labels and a percentage in [0,100]. Invoked
// zero or more times before Run returns; the caller never polls.
type ProgressFunc func(stage string, pct int)

// PipelineUseCase turns one image into an itemized nutrition result using
// either the fast single-shot strategy or the deep segment-then-classify
// strategy.
type PipelineUseCase interface {
	Run(ctx context.Context, imagePath string, mode model.ScanMode, report ProgressFunc) (*model.PipelineResult, error)
}

type pipelineUC struct {
	vision    adapter.VisionLabeler
	segmenter adapter.Segmenter
	nutrition NutritionUseCase
	crops     *worker.Pool
	models    adapter.ModelHints
	log       *zerolog.Logger
}

func NewPipelineUseCase(
	vision adapter.VisionLabeler,
	segmenter adapter.Segmenter,
	nutrition NutritionUseCase,
	crops *worker.Pool,
	models adapter.ModelHints,
	logger *zerolog.Logger,
) *pipelineUC {
	l := logger.With().Str("component", "PipelineUC").Logger()
	return &pipelineUC{
		vision:    vision,
		segmenter: segmenter,
		nutrition: nutrition,
		crops:     crops,
		models:    models,
		log:       &l,
	}
}

func (p *pipelineUC) Run(ctx context.Context, imagePath string, mode model.ScanMode, report ProgressFunc) (*model.PipelineResult, error) {
	defer logging.TraceDuration(logging.With(ctx, p.log), "PipelineUC.Run")()
	if report == nil {
		report = func(string, int) {}
	}
	if mode == model.ScanModeDeep {
		return p.runDeep(ctx, imagePath, report)
	}
	return p.runFast(ctx, imagePath, report)
}

// label calls the vision labeler and degrades provider failures to the
// non-food sentinel: classification failure must not fail the job.
func (p *pipelineUC) label(ctx context.Context, imagePath, modelHint string) string {
	start := time.Now()
	reply, err := p.vision.Label(ctx, imagePath, modelHint)
	metrics.ObserveVisionCall(modelHint, time.Since(start), err == nil)
	if err != nil {
		p.log.Warn().Err(err).Str("model", modelHint).Msg("vision labeler failed, degrading to non-food")
		return model.NonFoodSentinel
	}
	if strings.TrimSpace(reply) == "" {
		return model.NonFoodSentinel
	}
	return reply
}

func (p *pipelineUC) runFast(ctx context.Context, imagePath string, report ProgressFunc) (*model.PipelineResult, error) {
	report("Analyzing image", 10)
	originalLabel := p.label(ctx, imagePath, p.models.Fast)

	if strings.Contains(strings.ToUpper(originalLabel), model.NonFoodSentinel) {
		return &model.PipelineResult{
			OriginalLabel: "Non-Food Item Detected",
			Items:         []model.FoodItem{},
			RawResponse:   "The AI determined there is no edible food in this image.",
		}, nil
	}

	report("Identifying food", 45)

	// Fast mode is meant to be light: lookups run sequentially.
	labels := model.SplitLabels(originalLabel)
	items := make([]model.FoodItem, 0, len(labels))
	for i, raw := range labels {
		report("Looking up nutrition", 50+int(float64(i)/float64(max(1, len(labels)))*45))
		res, err := p.nutrition.Lookup(ctx, raw, 1.0)
		if err != nil {
			return nil, fmt.Errorf("nutrition lookup %q: %w", raw, err)
		}
		items = append(items, model.FoodItem{Name: res.Name, Quantity: res.Quantity, Macros: res.Macros})
	}

	report("Done", 100)

	return &model.PipelineResult{
		OriginalLabel: originalLabel,
		Items:         items,
		Totals:        sumTotals(items),
		RawResponse:   "AI detected: " + originalLabel,
	}, nil
}

func (p *pipelineUC) runDeep(ctx context.Context, imagePath string, report ProgressFunc) (*model.PipelineResult, error) {
	report("Isolating items", 5)

	if p.segmenter == nil {
		return nil, domain.ErrSegmentationUnavailable
	}
	seg, err := p.segmenter.Segment(ctx, imagePath)
	if err != nil {
		// Propagated as the named failure so the boundary can suggest
		// the fast-scan fallback.
		return nil, err
	}

	if len(seg.Crops) == 0 {
		report("Done", 100)
		return &model.PipelineResult{
			OriginalLabel:      "No food segments detected",
			Items:              []model.FoodItem{},
			AnnotatedImagePath: seg.AnnotatedImagePath,
			RawResponse:        "Segmentation found no distinct food regions.",
		}, nil
	}

	report("Identifying food", 40)

	items := p.processSegments(ctx, seg.Crops)

	if len(items) == 0 {
		report("Done", 100)
		return &model.PipelineResult{
			OriginalLabel:      "No edible food detected in segments",
			Items:              []model.FoodItem{},
			AnnotatedImagePath: seg.AnnotatedImagePath,
			RawResponse:        "AI did not identify edible food in the segmented regions.",
		}, nil
	}

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Name
	}
	joined := strings.Join(names, ", ")

	report("Done", 100)

	regions := make([]model.Region, len(seg.Crops))
	for i, c := range seg.Crops {
		regions[i] = c.Region
	}

	return &model.PipelineResult{
		OriginalLabel:      joined,
		Items:              items,
		Totals:             sumTotals(items),
		Regions:            regions,
		AnnotatedImagePath: seg.AnnotatedImagePath,
		RawResponse:        "Deep Scan detected: " + joined,
	}, nil
}

// processSegments classifies every crop concurrently (bounded by the
// worker pool) and merges the per-crop item lists deterministically:
// crops in submission order, candidates in reply order, first seen
// canonical name wins. Completion order never shows in the output.
func (p *pipelineUC) processSegments(ctx context.Context, crops []adapter.Crop) []model.FoodItem {
	perCrop := make([][]model.FoodItem, len(crops))
	var wg sync.WaitGroup

	for i, crop := range crops {
		i, crop := i, crop
		wg.Add(1)
		task := func(ctx context.Context) error {
			defer wg.Done()
			perCrop[i] = p.classifyCrop(ctx, crop)
			return nil
		}
		if err := p.crops.Submit(ctx, task); err != nil {
			// Submission only fails when the context died or the pool
			// stopped; the crop then contributes nothing.
			wg.Done()
			p.log.Warn().Err(err).Int("crop", i).Msg("crop analysis not scheduled")
		}
	}
	wg.Wait()

	seen := make(map[string]struct{})
	var items []model.FoodItem
	for _, list := range perCrop {
		for _, item := range list {
			key := model.CanonicalName(item.Name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			items = append(items, item)
		}
	}
	return items
}

// classifyCrop resolves the food items of a single crop. Any failure
// degrades to "no items for this crop"; one bad crop must not abort the
// batch.
func (p *pipelineUC) classifyCrop(ctx context.Context, crop adapter.Crop) []model.FoodItem {
	reply := p.label(ctx, crop.ImagePath, p.models.Deep)
	if strings.Contains(strings.ToUpper(reply), model.NonFoodSentinel) {
		return nil
	}

	var items []model.FoodItem
	for _, raw := range model.SplitLabels(reply) {
		if model.IsNonFood(raw) {
			continue
		}
		res, err := p.nutrition.Lookup(ctx, raw, 1.0)
		if err != nil {
			p.log.Warn().Err(err).Str("label", raw).Msg("crop nutrition lookup failed")
			continue
		}
		items = append(items, model.FoodItem{Name: res.Name, Quantity: res.Quantity, Macros: res.Macros})
	}
	return items
}

func sumTotals(items []model.FoodItem) model.Macros {
	var totals model.Macros
	for _, it := range items {
		totals = totals.Add(it.Macros)
	}
	return totals
}
