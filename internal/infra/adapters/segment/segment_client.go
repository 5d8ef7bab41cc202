// Package segment talks to the remote food-segmentation engine. The
// service accepts an image and returns an annotated overview plus one crop
// per detected region; every failure mode here collapses into the named
// "unavailable" error so the caller can suggest a fast scan instead.
package segment

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"foodvision/internal/domain"
	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

// Compile-time assurance this client satisfies the port
var _ adapter.Segmenter = (*Client)(nil)

// Client implements adapter.Segmenter against the segmentation engine's
// HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
	log     *zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zerolog.Logger) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("segment: empty base url")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	l := logger.With().Str("component", "SegmentClient").Logger()
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     &l,
	}, nil
}

type segmentResponse struct {
	AnnotatedImage string        `json:"annotated_image"` // base64 jpeg
	Crops          []segmentCrop `json:"crops"`
}

type segmentCrop struct {
	Image string `json:"image"` // base64 jpeg
	BBox  [4]int `json:"bbox"`
}

// Segment uploads the image and materializes the engine's reply as files
// next to the original upload. Crops keep their detection order; the
// pipeline's merge step depends on it.
func (c *Client) Segment(ctx context.Context, imagePath string) (*adapter.Segmentation, error) {
	resp, err := c.call(ctx, imagePath)
	if err != nil {
		c.log.Warn().Err(err).Str("image", imagePath).Msg("segmentation engine unreachable")
		return nil, fmt.Errorf("%w: %v", domain.ErrSegmentationUnavailable, err)
	}
	if resp.AnnotatedImage == "" {
		return nil, fmt.Errorf("%w: engine returned no annotated image", domain.ErrSegmentationUnavailable)
	}

	dir := filepath.Dir(imagePath)
	stem := strings.TrimSuffix(filepath.Base(imagePath), filepath.Ext(imagePath))

	annotatedPath := filepath.Join(dir, fmt.Sprintf("annotated_%s_%s.jpg", stem, shortID()))
	if err := writeB64(annotatedPath, resp.AnnotatedImage); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSegmentationUnavailable, err)
	}

	out := &adapter.Segmentation{AnnotatedImagePath: annotatedPath}
	for i, crop := range resp.Crops {
		cropPath := filepath.Join(dir, fmt.Sprintf("crop_%s_%d_%s.jpg", stem, i, shortID()))
		if err := writeB64(cropPath, crop.Image); err != nil {
			c.log.Warn().Err(err).Int("crop", i).Msg("crop image discarded")
			continue
		}
		out.Crops = append(out.Crops, adapter.Crop{
			ImagePath: cropPath,
			Region:    model.Region{BBox: crop.BBox},
		})
	}
	return out, nil
}

func (c *Client) call(ctx context.Context, imagePath string) (*segmentResponse, error) {
	f, err := os.Open(imagePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", filepath.Base(imagePath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/segment", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("segment http %d", resp.StatusCode)
	}

	var payload segmentResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &payload, nil
}

func writeB64(path, data string) error {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
