package ai

import (
	"context"
	"time"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

var _ adapter.VisionLabeler = (*NoopVisionAdapter)(nil)

// NoopVisionAdapter implements adapter.VisionLabeler for local/dev setups
// with no provider configured. It always reports "no food", which the
// pipeline handles gracefully, so the rest of the system stays exercisable.
type NoopVisionAdapter struct{}

func NewNoopVisionAdapter() *NoopVisionAdapter {
	return &NoopVisionAdapter{}
}

func (a *NoopVisionAdapter) Label(ctx context.Context, imagePath, modelHint string) (string, error) {
	// Simulate slight processing time and respect ctx
	select {
	case <-time.After(100 * time.Millisecond):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return model.NonFoodSentinel, nil
}
