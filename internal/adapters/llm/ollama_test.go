package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

func ndjson(w http.ResponseWriter, lines ...any) {
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)
	for _, l := range lines {
		enc.Encode(l)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func chatLine(content string, done bool) map[string]any {
	return map[string]any{
		"model":   "test-model",
		"message": map[string]any{"role": "assistant", "content": content},
		"done":    done,
	}
}

func TestOllamaLLM_Stream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req struct {
			Model    string `json:"model"`
			Stream   bool   `json:"stream"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Options map[string]any `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.True(t, req.Stream)
		require.Len(t, req.Messages, 3)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "assistant", req.Messages[1].Role)
		assert.Equal(t, "user", req.Messages[2].Role)
		assert.InDelta(t, 0.1, req.Options["temperature"], 1e-9)

		ndjson(w, chatLine("Hello", false), chatLine(" world", false), chatLine("", true))
	}))
	defer server.Close()

	adapter, err := NewOllamaLLMAdapter(server.URL, "test-model", 0.1)
	require.NoError(t, err)

	var tokens []string
	err = adapter.Stream(context.Background(), []entities.Message{
		{Role: entities.RoleSystem, Text: "be nice"},
		{Role: entities.RoleAI, Text: "earlier"},
		{Role: entities.RoleHuman, Text: "hi"},
	}, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"Hello", " world"}, tokens)
}

func TestOllamaLLM_MidStreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ndjson(w, chatLine("partial", false), map[string]any{"error": "model runner crashed"})
	}))
	defer server.Close()

	adapter, err := NewOllamaLLMAdapter(server.URL, "test-model", 0.1)
	require.NoError(t, err)

	var tokens []string
	err = adapter.Stream(context.Background(), nil, func(tok string) error {
		tokens = append(tokens, tok)
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "model runner crashed")
	assert.Equal(t, []string{"partial"}, tokens)
}

func TestOllamaLLM_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"model \"nope\" not found"}`))
	}))
	defer server.Close()

	adapter, err := NewOllamaLLMAdapter(server.URL, "nope", 0.1)
	require.NoError(t, err)

	err = adapter.Stream(context.Background(), nil, func(string) error { return nil })
	assert.Error(t, err)
}

func TestOllamaLLM_DefaultValues(t *testing.T) {
	adapter, err := NewOllamaLLMAdapter("", "", -1)
	require.NoError(t, err)

	assert.Equal(t, DefaultModel, adapter.Model())
	assert.Equal(t, DefaultTemperature, adapter.temperature)
}
