package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"masumi-rag-agent/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*OpenAIAdapter)(nil)

// OpenAIAdapter is the fallback provider when no Gemini key is configured.
type OpenAIAdapter struct {
	client          openai.Client
	generationModel string
	embeddingModel  string
	embeddingDim    int
}

func NewOpenAIAdapter(apiKey, generationModel, embeddingModel string, embeddingDim int) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if generationModel == "" {
		generationModel = "gpt-4o-mini"
	}
	if embeddingModel == "" {
		embeddingModel = "text-embedding-3-small"
	}
	return &OpenAIAdapter{
		client:          openai.NewClient(option.WithAPIKey(apiKey)),
		generationModel: generationModel,
		embeddingModel:  embeddingModel,
		embeddingDim:    embeddingDim,
	}, nil
}

func (o *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float64, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(o.embeddingModel),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	}
	if o.embeddingDim > 0 {
		// Keep OpenAI vectors compatible with the index dimension.
		params.Dimensions = openai.Int(int64(o.embeddingDim))
	}
	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai embed: empty embedding")
	}
	return resp.Data[0].Embedding, nil
}

func (o *OpenAIAdapter) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.generationModel),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai generate: %w", err)
	}
	for _, c := range resp.Choices {
		if c.Message.Content != "" {
			return c.Message.Content, nil
		}
	}
	return "", errors.New("openai generate: no choice content")
}
