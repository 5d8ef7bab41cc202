package model

import "strings"

// NonFoodSentinel is the exact reply the vision labeler is prompted to
// return when an image contains no edible food. Matching is
// case-insensitive and substring-based, mirroring how loosely the models
// follow the prompt.
const NonFoodSentinel = "NON_FOOD"

// Macros is the nutrition quadruple tracked per 100g and scaled by quantity.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the component-wise sum of two macro quadruples.
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Calories: m.Calories + o.Calories,
		Protein:  m.Protein + o.Protein,
		Carbs:    m.Carbs + o.Carbs,
		Fat:      m.Fat + o.Fat,
	}
}

// Scale multiplies the per-100g base values by a quantity factor.
func (m Macros) Scale(quantity float64) Macros {
	return Macros{
		Calories: m.Calories * quantity,
		Protein:  m.Protein * quantity,
		Carbs:    m.Carbs * quantity,
		Fat:      m.Fat * quantity,
	}
}

// IsZero reports whether all four components are zero, which is how the
// nutrition source signals "nothing matched".
func (m Macros) IsZero() bool {
	return m.Calories == 0 && m.Protein == 0 && m.Carbs == 0 && m.Fat == 0
}

// FoodItem is one identified food with its scaled macros.
type FoodItem struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Macros   Macros  `json:"macros"`
}

// Region is the bounding box of one detected segment, in pixel coordinates.
type Region struct {
	BBox [4]int `json:"bbox"`
}

// PipelineResult is the terminal output of one pipeline run, before the
// meal record is persisted.
type PipelineResult struct {
	OriginalLabel string
	Items         []FoodItem
	Totals        Macros
	Regions       []Region
	// AnnotatedImagePath is empty when no segmentation step ran.
	AnnotatedImagePath string
	// RawResponse is a diagnostic string for audit/debug. Never parsed.
	RawResponse string
}

// CacheEntry is a persisted per-100g nutrition record keyed by canonical name.
type CacheEntry struct {
	Name           string `json:"name"`
	CorrectedLabel string `json:"corrected_label"`
	PerBase        Macros `json:"per_base"`
	BaseUnit       string `json:"base_unit"`
}

// BaseUnit is the reference serving size for cached macro values.
const BaseUnit = "100g"

// CanonicalName maps arbitrary food text to a stable cache/dedup key:
// trimmed, lowercased, spaces and hyphens folded to single underscores.
// It is total and idempotent and never returns an empty key.
func CanonicalName(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return "unknown"
	}
	return s
}

// HumanLabel is the inverse-ish of CanonicalName for display and for
// querying the nutrition source, which matches better on plain words.
func HumanLabel(label string) string {
	s := strings.TrimSpace(strings.ReplaceAll(label, "_", " "))
	if s == "" {
		return label
	}
	return s
}

// nonFoodBlocklist holds canonical keys for tableware and other non-edible
// things detectors routinely box alongside food. Items matching it must
// never be charged against nutrition totals.
var nonFoodBlocklist = map[string]struct{}{
	"plate":     {},
	"plates":    {},
	"non_food":  {},
	"table":     {},
	"cutlery":   {},
	"fork":      {},
	"knife":     {},
	"spoon":     {},
	"napkin":    {},
	"container": {},
	"bowl":      {},
	"cup":       {},
	"glass":     {},
	"unknown":   {},
}

// IsNonFood reports whether a candidate label canonicalizes to a
// blocklisted non-food key.
func IsNonFood(label string) bool {
	_, blocked := nonFoodBlocklist[CanonicalName(label)]
	return blocked
}

// SplitLabels splits a comma-separated labeler reply into trimmed,
// non-empty candidate names.
func SplitLabels(reply string) []string {
	parts := strings.Split(reply, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
