package segment

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"foodvision/internal/domain"
)

func testLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func writeUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meal.jpg")
	if err := os.WriteFile(path, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestSegmentMaterializesCrops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/segment" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if _, _, err := r.FormFile("image"); err != nil {
			t.Errorf("image part missing: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"annotated_image": b64("annotated"),
			"crops": []map[string]any{
				{"image": b64("crop-a"), "bbox": [4]int{0, 0, 50, 50}},
				{"image": b64("crop-b"), "bbox": [4]int{50, 0, 100, 50}},
			},
		})
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	seg, err := c.Segment(context.Background(), writeUpload(t))
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if seg.AnnotatedImagePath == "" {
		t.Fatal("no annotated image path")
	}
	if got, _ := os.ReadFile(seg.AnnotatedImagePath); string(got) != "annotated" {
		t.Errorf("annotated content = %q", got)
	}
	if len(seg.Crops) != 2 {
		t.Fatalf("crops = %v", seg.Crops)
	}
	// Detection order must survive materialization.
	if got, _ := os.ReadFile(seg.Crops[0].ImagePath); string(got) != "crop-a" {
		t.Errorf("crop 0 content = %q", got)
	}
	if seg.Crops[1].Region.BBox != [4]int{50, 0, 100, 50} {
		t.Errorf("crop 1 bbox = %v", seg.Crops[1].Region.BBox)
	}
}

func TestSegmentEngineDownIsUnavailable(t *testing.T) {
	c, err := NewClient("http://127.0.0.1:1", time.Second, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Segment(context.Background(), writeUpload(t))
	if !errors.Is(err, domain.ErrSegmentationUnavailable) {
		t.Fatalf("err = %v, want ErrSegmentationUnavailable", err)
	}
}

func TestSegmentHTTPErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, time.Second, testLogger())
	_, err := c.Segment(context.Background(), writeUpload(t))
	if !errors.Is(err, domain.ErrSegmentationUnavailable) {
		t.Fatalf("err = %v", err)
	}
}

func TestSegmentZeroCrops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"annotated_image": %q, "crops": []}`, b64("annotated"))
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL, time.Second, testLogger())
	seg, err := c.Segment(context.Background(), writeUpload(t))
	if err != nil {
		t.Fatalf("Segment: %v", err)
	}
	if len(seg.Crops) != 0 {
		t.Errorf("crops = %v", seg.Crops)
	}
}

func TestNewClientRequiresURL(t *testing.T) {
	if _, err := NewClient("", time.Second, testLogger()); err == nil {
		t.Fatal("empty base url accepted")
	}
}
