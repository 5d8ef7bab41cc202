package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrSegmentationUnavailable is raised when the deep-scan segmenter
	// cannot be reached or returns malformed output. The boundary layer
	// matches this error to offer the fast-scan fallback instead of a
	// generic failure.
	ErrSegmentationUnavailable = errors.New("segmentation service unavailable")

	ErrJobNotFound = errors.New("job not found")
)

// DeepScanUnavailableMsg is the fixed, user-facing message attached to the
// terminal error event when segmentation is unavailable.
const DeepScanUnavailableMsg = "Deep Scan engine is currently unavailable. Please use Fast Scan."
