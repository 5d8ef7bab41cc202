package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/infra/logging"
	"foodvision/internal/jobs"
)

// Compile-time check
var _ ScanUseCase = (*scanUC)(nil)

// ScanUseCase is the job-facing surface of the pipeline: submit an image,
// then drain the job's event log through cursors.
type ScanUseCase interface {
	// Submit registers a job and starts the pipeline in the background.
	// It returns the job id immediately; the caller never blocks on the
	// analysis.
	Submit(ctx context.Context, imagePath string, mode model.ScanMode) string
	// Poll returns events appended since cursor plus the next cursor.
	Poll(jobID string, cursor int) ([]model.Event, int, error)
	Status(jobID string) (model.JobStatus, error)
}

type scanUC struct {
	registry *jobs.Registry
	pipeline PipelineUseCase
	meals    MealUseCase
	log      *zerolog.Logger
}

func NewScanUseCase(registry *jobs.Registry, pipeline PipelineUseCase, meals MealUseCase, logger *zerolog.Logger) *scanUC {
	l := logger.With().Str("component", "ScanUC").Logger()
	return &scanUC{registry: registry, pipeline: pipeline, meals: meals, log: &l}
}

func (s *scanUC) Submit(ctx context.Context, imagePath string, mode model.ScanMode) string {
	jobID := s.registry.Create()
	// The job owns its own lifetime: an observer going away must not
	// cancel the analysis, so the background run detaches from the
	// request context.
	go s.run(context.Background(), jobID, imagePath, mode)
	return jobID
}

func (s *scanUC) run(ctx context.Context, jobID, imagePath string, mode model.ScanMode) {
	ctx = logging.WithJobID(ctx, jobID)
	log := logging.With(ctx, s.log).With().Str("mode", string(mode)).Logger()
	log.Info().Str("image", imagePath).Msg("scan started")

	report := func(stage string, pct int) {
		s.registry.Append(jobID, model.Event{Kind: model.EventProgress, Stage: stage, Progress: pct})
	}

	res, err := s.pipeline.Run(ctx, imagePath, mode, report)
	if err != nil {
		s.fail(jobID, err)
		log.Error().Err(err).Msg("scan failed")
		return
	}

	payload, err := s.meals.SaveResult(ctx, imagePath, res)
	if err != nil {
		s.fail(jobID, err)
		log.Error().Err(err).Msg("could not persist scan result")
		return
	}

	s.registry.Append(jobID, model.Event{Kind: model.EventResult, Result: payload})
	log.Info().Str("meal_id", payload.MealID).Int("items", len(payload.Items)).Msg("scan finished")
}

// fail appends the single terminal error event. Segmentation
// unavailability carries its fixed actionable message; everything else
// surfaces its own message as-is.
func (s *scanUC) fail(jobID string, err error) {
	msg := err.Error()
	if errors.Is(err, domain.ErrSegmentationUnavailable) {
		msg = domain.DeepScanUnavailableMsg
	}
	s.registry.Append(jobID, model.Event{Kind: model.EventError, Message: msg})
}

func (s *scanUC) Poll(jobID string, cursor int) ([]model.Event, int, error) {
	return s.registry.ReadFrom(jobID, cursor)
}

func (s *scanUC) Status(jobID string) (model.JobStatus, error) {
	return s.registry.Status(jobID)
}
