package narrative

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// GeminiGenerator produces narrative via the Gemini API. It serves as the
// fallback when the primary generator is unavailable.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// NewGeminiGenerator creates a generator for the given model. The genai
// client reads its API key from the environment. An empty model name falls
// back to gemini-1.5-pro.
func NewGeminiGenerator(ctx context.Context, modelName string) (*GeminiGenerator, error) {
	if modelName == "" {
		modelName = "gemini-1.5-pro"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GeminiGenerator{client: client, model: modelName}, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini:" + g.model
}

func (g *GeminiGenerator) Generate(ctx context.Context, report *model.ImpactReport) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: buildPrompt(report)}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil ||
		len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("generate content returned no candidates")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
