// Package llm provides streaming chat adapters for local model servers.
// Adapters implement ports.LLMService.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

const (
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultModel       = "mistral:latest"
	DefaultTemperature = 0.1
)

// OllamaLLMAdapter implements ports.LLMService using the Ollama chat API.
type OllamaLLMAdapter struct {
	client      *api.Client
	model       string
	temperature float64
}

var _ ports.LLMService = (*OllamaLLMAdapter)(nil)

// NewOllamaLLMAdapter creates a new Ollama LLM adapter. A negative
// temperature selects DefaultTemperature.
func NewOllamaLLMAdapter(baseURL, model string, temperature float64) (*OllamaLLMAdapter, error) {
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}
	if model == "" {
		model = DefaultModel
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama url %q: %w", baseURL, err)
	}

	return &OllamaLLMAdapter{
		// Longer timeout for streaming
		client:      api.NewClient(u, &http.Client{Timeout: 10 * time.Minute}),
		model:       model,
		temperature: temperature,
	}, nil
}

// Stream sends the chat and forwards each streamed content fragment to onToken.
// An error line in the middle of the stream aborts it.
func (a *OllamaLLMAdapter) Stream(ctx context.Context, messages []entities.Message, onToken func(string) error) error {
	stream := true
	req := &api.ChatRequest{
		Model:    a.model,
		Messages: toOllamaMessages(messages),
		Stream:   &stream,
		Options: map[string]any{
			"temperature": a.temperature,
		},
	}

	log := logger.GetLogger().WithField("model", a.model)
	log.WithField("messages", len(messages)).Debug("ollama chat")

	err := a.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return onToken(resp.Message.Content)
	})
	if err != nil {
		return fmt.Errorf("ollama chat: %w", err)
	}
	return nil
}

func (a *OllamaLLMAdapter) Model() string {
	return a.model
}

func toOllamaMessages(messages []entities.Message) []api.Message {
	out := make([]api.Message, len(messages))
	for i, m := range messages {
		out[i] = api.Message{Role: chatRole(m.Role), Content: m.Text}
	}
	return out
}

// chatRole maps transcript roles to chat-completion roles.
func chatRole(r entities.Role) string {
	switch r {
	case entities.RoleHuman:
		return "user"
	case entities.RoleAI:
		return "assistant"
	default:
		return "system"
	}
}
