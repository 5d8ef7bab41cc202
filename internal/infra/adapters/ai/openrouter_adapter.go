package ai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.VisionLabeler = (*OpenRouterAdapter)(nil)

const labelPrompt = "Identify the edible food in this image. Reply ONLY with a comma-separated " +
	"list of the core food items (e.g., 'burger, french fries, soda'). If there is " +
	"absolutely no edible food in the image, reply EXACTLY with 'NON_FOOD'."

// OpenRouterAdapter implements adapter.VisionLabeler against any
// OpenAI-compatible chat-completions endpoint that accepts image parts.
type OpenRouterAdapter struct {
	client       openai.Client
	defaultModel string
}

func NewOpenRouterAdapter(apiKey, baseURL, defaultModel string) (*OpenRouterAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openrouter api key empty")
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &OpenRouterAdapter{client: client, defaultModel: defaultModel}, nil
}

func (o *OpenRouterAdapter) Label(ctx context.Context, imagePath, modelHint string) (string, error) {
	if modelHint == "" {
		modelHint = o.defaultModel
	}
	dataURL, err := imageDataURL(imagePath)
	if err != nil {
		return "", err
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(modelHint),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(labelPrompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
		MaxTokens:   openai.Int(64),
		Temperature: openai.Float(0.1),
	})
	if err != nil {
		return "", fmt.Errorf("vision completion: %w", err)
	}

	for _, c := range resp.Choices {
		if s := strings.TrimSpace(c.Message.Content); s != "" {
			return s, nil
		}
	}
	return model.NonFoodSentinel, nil
}

func imageDataURL(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(b), nil
}
