package model

import "time"

// ScanMode selects the pipeline strategy.
type ScanMode string

const (
	ScanModeFast ScanMode = "fast"
	ScanModeDeep ScanMode = "deep"
)

// ParseScanMode normalizes caller input, defaulting to fast.
func ParseScanMode(s string) ScanMode {
	if ScanMode(s) == ScanModeDeep {
		return ScanModeDeep
	}
	return ScanModeFast
}

// MealRecord is one persisted analysis, with its itemization.
type MealRecord struct {
	ID             string     `json:"meal_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ImagePath      string     `json:"image_path"`
	OriginalLabel  string     `json:"original_label"`
	CorrectedLabel string     `json:"corrected_label"`
	Totals         Macros     `json:"totals"`
	RawResponse    string     `json:"-"`
	Items          []FoodItem `json:"items"`
}

// ScanResult is the payload of a job's result event: the persisted meal
// plus the URLs the client needs to render it.
type ScanResult struct {
	MealID            string     `json:"meal_id"`
	ImagePath         string     `json:"image_path"`
	ImageURL          string     `json:"image_url"`
	AnnotatedImageURL string     `json:"annotated_image_url,omitempty"`
	OriginalLabel     string     `json:"original_label"`
	Items             []FoodItem `json:"items"`
	Totals            Macros     `json:"totals"`
	Regions           []Region   `json:"regions"`
}
