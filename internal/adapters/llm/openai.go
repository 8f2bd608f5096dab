package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sashabaranov/go-openai"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// OpenAIAdapter implements ports.LLMService against an OpenAI-compatible
// chat completions endpoint served locally.
type OpenAIAdapter struct {
	client      *openai.Client
	model       string
	temperature float32
}

var _ ports.LLMService = (*OpenAIAdapter)(nil)

func NewOpenAIAdapter(baseURL, apiKey, model string, temperature float64) *OpenAIAdapter {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if temperature < 0 {
		temperature = DefaultTemperature
	}
	return &OpenAIAdapter{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: float32(temperature),
	}
}

// Stream reads the completion stream until it ends, forwarding delta content.
func (a *OpenAIAdapter) Stream(ctx context.Context, messages []entities.Message, onToken func(string) error) error {
	msgs := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		msgs[i] = openai.ChatCompletionMessage{Role: chatRole(m.Role), Content: m.Text}
	}

	logger.GetLogger().WithField("model", a.model).WithField("messages", len(messages)).Debug("openai chat stream")

	stream, err := a.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Messages:    msgs,
		Temperature: a.temperature,
		Stream:      true,
	})
	if err != nil {
		return fmt.Errorf("creating chat stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading chat stream: %w", err)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		if err := onToken(resp.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
}

func (a *OpenAIAdapter) Model() string {
	return a.model
}
