package narrative

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/impactlens/impact-analyzer/pkg/model"
)

// OpenAIGenerator produces narrative via the OpenAI chat completions API
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator creates a generator for the given model. An empty
// model name falls back to gpt-4.1.
func NewOpenAIGenerator(apiKey, modelName string) *OpenAIGenerator {
	if modelName == "" {
		modelName = "gpt-4.1"
	}
	return &OpenAIGenerator{
		client: openai.NewClient(apiKey),
		model:  modelName,
	}
}

func (g *OpenAIGenerator) Name() string {
	return "openai:" + g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, report *model.ImpactReport) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(report)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
