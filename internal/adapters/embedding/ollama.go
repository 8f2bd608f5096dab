// Package embedding provides embedding adapters for local model servers.
// Adapters implement ports.EmbeddingService; the domain layer never sees
// backend specifics.
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "mistral:latest"
)

// OllamaAdapter implements ports.EmbeddingService using the Ollama /api/embed endpoint.
type OllamaAdapter struct {
	client *api.Client
	model  string
}

var _ ports.EmbeddingService = (*OllamaAdapter)(nil)

// NewOllamaAdapter creates a new Ollama embedding adapter.
func NewOllamaAdapter(baseURL, model string) (*OllamaAdapter, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultModel
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	return &OllamaAdapter{
		client: api.NewClient(u, &http.Client{Timeout: 5 * time.Minute}),
		model:  model,
	}, nil
}

// Embed generates an embedding for a single text.
func (a *OllamaAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := a.embed(ctx, text, 1)
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch embeds all texts in one request.
func (a *OllamaAdapter) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	return a.embed(ctx, texts, len(texts))
}

func (a *OllamaAdapter) embed(ctx context.Context, input any, want int) ([][]float32, error) {
	logger.GetLogger().WithField("model", a.model).WithField("inputs", want).Debug("ollama embed")

	resp, err := a.client.Embed(ctx, &api.EmbedRequest{
		Model: a.model,
		Input: input,
	})
	if err != nil {
		return nil, fmt.Errorf("calling ollama embed: %w", err)
	}
	if len(resp.Embeddings) != want {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d inputs", len(resp.Embeddings), want)
	}
	return resp.Embeddings, nil
}

// Model returns the embedding model name.
func (a *OllamaAdapter) Model() string {
	return a.model
}
