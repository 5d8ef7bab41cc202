package adapter

import (
	"context"

	"foodvision/internal/domain/model"
)

// Crop is one region the segmenter isolated, saved as its own image file.
type Crop struct {
	ImagePath string
	Region    model.Region
}

// Segmentation is the output of one successful segmenter call.
type Segmentation struct {
	// AnnotatedImagePath points at the overview image with masks/boxes
	// drawn on it. Always present on success, even with zero crops.
	AnnotatedImagePath string
	Crops              []Crop
}

// Segmenter is the port for the deep-scan region isolation service.
// Unreachability or malformed output surfaces as an error wrapping
// domain.ErrSegmentationUnavailable.
type Segmenter interface {
	Segment(ctx context.Context, imagePath string) (*Segmentation, error)
}
