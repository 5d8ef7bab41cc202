package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWithCarriesContextIDs(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithJobID(ctx, "job-2")
	ctx = WithMealID(ctx, "meal-3")

	With(ctx, &base).Info().Msg("hello")

	out := buf.String()
	for _, want := range []string{
		`"request_id":"req-1"`,
		`"job_id":"job-2"`,
		`"meal_id":"meal-3"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %s: %s", want, out)
		}
	}
}

func TestWithEmptyContext(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	With(context.Background(), &base).Info().Msg("hello")

	out := buf.String()
	for _, field := range []string{"request_id", "job_id", "meal_id"} {
		if strings.Contains(out, field) {
			t.Errorf("log line has unexpected field %s: %s", field, out)
		}
	}
}

func TestTraceDuration(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf).Level(zerolog.TraceLevel)

	done := TraceDuration(&base, "NutritionUC.Lookup")
	done()

	out := buf.String()
	if !strings.Contains(out, `"method":"NutritionUC.Lookup"`) {
		t.Errorf("trace lines missing method field: %s", out)
	}
	if !strings.Contains(out, `"message":"start"`) {
		t.Errorf("missing start line: %s", out)
	}
	if !strings.Contains(out, `"message":"finish"`) || !strings.Contains(out, `"duration"`) {
		t.Errorf("missing finish line with duration: %s", out)
	}
}
