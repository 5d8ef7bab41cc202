package ai

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

var _ adapter.VisionLabeler = (*GeminiAdapter)(nil)

// GeminiAdapter implements adapter.VisionLabeler with the official Gemini
// SDK. Used when no OpenAI-compatible provider is configured.
type GeminiAdapter struct {
	client       *genai.Client
	defaultModel string
}

func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, defaultModel string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, defaultModel: defaultModel}, nil
}

func (g *GeminiAdapter) Label(ctx context.Context, imagePath, modelHint string) (string, error) {
	if modelHint == "" {
		modelHint = g.defaultModel
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, "image/jpeg"),
			genai.NewPartFromText(labelPrompt),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, modelHint, contents, &genai.GenerateContentConfig{
		MaxOutputTokens: 64,
		Temperature:     genai.Ptr[float32](0.1),
	})
	if err != nil {
		return "", err
	}

	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if t := strings.TrimSpace(part.Text); t != "" {
				return t, nil
			}
		}
	}
	return model.NonFoodSentinel, nil
}
