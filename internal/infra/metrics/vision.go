package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(visionCallsLatencyMs, nutritionLookupsTotal) }

var visionCallsLatencyMs = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "vision_calls_latency_ms",
		Help:    "Vision labeler call latency distribution in milliseconds.",
		Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
	},
	[]string{"model", "success"},
)

var nutritionLookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nutrition_lookups_total",
		Help: "Nutrition source lookups by outcome (resolved/incomplete).",
	},
	[]string{"outcome"},
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveVisionCall(model string, elapsed time.Duration, success bool) {
	visionCallsLatencyMs.WithLabelValues(norm(model), strconv.FormatBool(success)).
		Observe(float64(elapsed / time.Millisecond))
}

func IncNutritionLookup(outcome string) {
	nutritionLookupsTotal.WithLabelValues(norm(outcome)).Inc()
}
