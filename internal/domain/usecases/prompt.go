package usecases

import (
	"strings"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

// DefaultSystemPrompt instructs the model to stay within the retrieved context.
const DefaultSystemPrompt = "Answer the question using ONLY the following context. " +
	"If you don't know the answer just say you don't know. DON'T make anything up. " +
	"If the user tells you anything about himself, such as his name, try to remember " +
	"his personal information so you can give a friendly impression."

// PromptAssembler composes the prompt from context, history and question.
type PromptAssembler struct {
	system string
}

// NewPromptAssembler uses DefaultSystemPrompt when system is empty.
func NewPromptAssembler(system string) *PromptAssembler {
	if strings.TrimSpace(system) == "" {
		system = DefaultSystemPrompt
	}
	return &PromptAssembler{system: system}
}

// Assemble builds the prompt. Chunk texts are joined with a blank line.
func (a *PromptAssembler) Assemble(chunks []entities.Chunk, history []entities.Message, question string) entities.Prompt {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = c.Content
	}
	return entities.Prompt{
		System:   a.system,
		Context:  strings.Join(parts, "\n\n"),
		History:  append([]entities.Message(nil), history...),
		Question: question,
	}
}
