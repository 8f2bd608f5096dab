package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

// GenerationEngine streams an answer for an assembled prompt.
type GenerationEngine struct {
	llm ports.LLMService
}

func NewGenerationEngine(llm ports.LLMService) *GenerationEngine {
	return &GenerationEngine{llm: llm}
}

// Generate forwards every model token to sink in order and finishes with a
// single Done token. On success the Done token carries the full answer, which
// is also returned. On failure it carries the error and no answer is returned.
func (e *GenerationEngine) Generate(ctx context.Context, prompt entities.Prompt, sink ports.TokenSink) (string, error) {
	if sink == nil {
		sink = func(ports.StreamToken) {}
	}

	var answer strings.Builder
	err := e.llm.Stream(ctx, prompt.Messages(), func(token string) error {
		answer.WriteString(token)
		sink(ports.StreamToken{Content: token})
		return nil
	})
	if err != nil {
		err = fmt.Errorf("generating answer: %w", err)
		sink(ports.StreamToken{Done: true, Error: err})
		return "", err
	}

	sink(ports.StreamToken{Content: answer.String(), Done: true})
	return answer.String(), nil
}
