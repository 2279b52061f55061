package gemini

import (
	"context"
	"strings"

	"google.golang.org/genai"
)

// ModelInfo is the metadata used to enrich a scraped record.
type ModelInfo struct {
	Name        string
	DisplayName string
	Description string
}

// ID returns the model name without its "models/" prefix.
func (m ModelInfo) ID() string {
	if idx := strings.LastIndex(m.Name, "/"); idx >= 0 {
		return m.Name[idx+1:]
	}
	return m.Name
}

// ModelLister lists Gemini models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// GenAILister lists models through the Gemini API.
type GenAILister struct {
	apiKey string
}

// NewGenAILister creates a lister authenticated with apiKey.
func NewGenAILister(apiKey string) *GenAILister {
	return &GenAILister{apiKey: apiKey}
}

// ListModels pages through every base model.
func (l *GenAILister) ListModels(ctx context.Context) ([]ModelInfo, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  l.apiKey,
	})
	if err != nil {
		return nil, err
	}

	var out []ModelInfo
	pageToken := ""
	for {
		config := &genai.ListModelsConfig{
			QueryBase: genai.Ptr(true),
			PageSize:  100,
		}
		if pageToken != "" {
			config.PageToken = pageToken
		}

		page, err := client.Models.List(ctx, config)
		if err != nil {
			return nil, err
		}
		for _, m := range page.Items {
			out = append(out, ModelInfo{
				Name:        m.Name,
				DisplayName: m.DisplayName,
				Description: m.Description,
			})
		}

		if page.NextPageToken == "" {
			break
		}
		pageToken = page.NextPageToken
	}
	return out, nil
}
