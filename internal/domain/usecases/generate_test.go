package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

func TestGenerationEngine_StreamsInOrder(t *testing.T) {
	llm := &mockLLM{tokens: []string{"The ", "answer", "."}}
	e := NewGenerationEngine(llm)

	var got []ports.StreamToken
	answer, err := e.Generate(context.Background(), entities.Prompt{Question: "q"}, func(tok ports.StreamToken) {
		got = append(got, tok)
	})

	require.NoError(t, err)
	assert.Equal(t, "The answer.", answer)
	require.Len(t, got, 4)
	assert.Equal(t, "The ", got[0].Content)
	assert.Equal(t, "answer", got[1].Content)
	assert.Equal(t, ".", got[2].Content)
	assert.Equal(t, ports.StreamToken{Content: "The answer.", Done: true}, got[3])
}

func TestGenerationEngine_SendsPromptMessages(t *testing.T) {
	llm := &mockLLM{tokens: []string{"ok"}}
	e := NewGenerationEngine(llm)
	prompt := entities.Prompt{System: "s", Context: "c", Question: "q"}

	_, err := e.Generate(context.Background(), prompt, nil)

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, prompt.Messages(), llm.prompts[0])
}

func TestGenerationEngine_MidStreamError(t *testing.T) {
	llm := &mockLLM{tokens: []string{"partial"}, failWith: errors.New("model crashed")}
	e := NewGenerationEngine(llm)

	var got []ports.StreamToken
	answer, err := e.Generate(context.Background(), entities.Prompt{}, func(tok ports.StreamToken) {
		got = append(got, tok)
	})

	require.Error(t, err)
	assert.Empty(t, answer)
	require.Len(t, got, 2)
	last := got[1]
	assert.True(t, last.Done)
	assert.ErrorContains(t, last.Error, "model crashed")
	assert.Empty(t, last.Content)
}
