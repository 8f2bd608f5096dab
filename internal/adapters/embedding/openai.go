package embedding

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// OpenAIAdapter implements ports.EmbeddingService against any
// OpenAI-compatible server (llama.cpp, LocalAI, vLLM, LM Studio).
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

var _ ports.EmbeddingService = (*OpenAIAdapter)(nil)

func NewOpenAIAdapter(baseURL, apiKey, model string) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request. Results are ordered by the
// index the server reports for each item.
func (a *OpenAIAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	logger.GetLogger().WithField("model", a.model).WithField("inputs", len(texts)).Debug("openai embed")

	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(a.model),
	})
	if err != nil {
		return nil, fmt.Errorf("creating embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("server returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func (a *OpenAIAdapter) Model() string {
	return a.model
}
