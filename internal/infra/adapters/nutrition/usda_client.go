// Package nutrition queries the USDA FoodData Central search API for
// per-100g macro estimates.
package nutrition

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"foodvision/internal/domain/model"
	"foodvision/internal/domain/ports/adapter"
)

// Compile-time assurance this client satisfies the port
var _ adapter.NutritionSource = (*USDAClient)(nil)

type USDAClient struct {
	apiKey string
	base   string
	client *http.Client
}

func NewUSDAClient(apiKey, baseURL string) *USDAClient {
	if baseURL == "" {
		baseURL = "https://api.nal.usda.gov/fdc/v1"
	}
	return &USDAClient{
		apiKey: apiKey,
		base:   baseURL,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type searchResponse struct {
	Foods []struct {
		Description   string `json:"description"`
		FoodNutrients []struct {
			NutrientName string  `json:"nutrientName"`
			Value        float64 `json:"value"`
		} `json:"foodNutrients"`
	} `json:"foods"`
}

// Query returns per-100g facts for the best match, or all-zero facts when
// nothing matched. Without an API key every lookup is a miss: the caller
// caches zero-macro entries either way.
func (u *USDAClient) Query(ctx context.Context, name string) (adapter.NutritionFacts, error) {
	if u.apiKey == "" {
		return adapter.NutritionFacts{CorrectedLabel: name}, nil
	}

	q := url.Values{}
	q.Set("api_key", u.apiKey)
	q.Set("query", name)
	q.Set("pageSize", strconv.Itoa(1))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.base+"/foods/search?"+q.Encode(), nil)
	if err != nil {
		return adapter.NutritionFacts{}, err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return adapter.NutritionFacts{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return adapter.NutritionFacts{}, fmt.Errorf("usda http %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return adapter.NutritionFacts{}, fmt.Errorf("decode reply: %w", err)
	}

	facts := adapter.NutritionFacts{CorrectedLabel: name}
	if len(payload.Foods) == 0 {
		facts.Raw = "usda: no foods matched"
		return facts, nil
	}

	f := payload.Foods[0]
	if f.Description != "" {
		facts.CorrectedLabel = f.Description
	}
	var macros model.Macros
	for _, n := range f.FoodNutrients {
		switch n.NutrientName {
		case "Energy":
			macros.Calories = n.Value
		case "Protein":
			macros.Protein = n.Value
		case "Carbohydrate, by difference":
			macros.Carbs = n.Value
		case "Total lipid (fat)":
			macros.Fat = n.Value
		}
	}
	facts.PerBase = macros
	facts.Raw = fmt.Sprintf("usda: matched %q", f.Description)
	return facts, nil
}
