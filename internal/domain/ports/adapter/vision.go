package adapter

import "context"

// VisionLabeler is the port for whole-image and per-crop food
// identification. Implementations return a comma-separated list of food
// names, or model.NonFoodSentinel when nothing edible is visible.
//
// A returned error means the provider itself failed; callers degrade that
// to the non-food sentinel rather than failing the job.
type VisionLabeler interface {
	Label(ctx context.Context, imagePath string, modelHint string) (string, error)
}

// ModelHints carries the per-strategy model names configured for a labeler.
type ModelHints struct {
	Fast string
	Deep string
}
