package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIAdapter_EmbedBatchOrdersByIndex(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer local", r.Header.Get("Authorization"))

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b"}, req.Input)
		assert.Equal(t, "nomic", req.Model)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "nomic",
			"data": []map[string]any{
				{"object": "embedding", "index": 1, "embedding": []float32{2}},
				{"object": "embedding", "index": 0, "embedding": []float32{1}},
			},
		})
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL+"/v1", "local", "nomic")

	out, err := adapter.EmbedBatch(context.Background(), []string{"a", "b"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}, {2}}, out)
}

func TestOpenAIAdapter_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream down","type":"server_error"}}`))
	}))
	defer server.Close()

	adapter := NewOpenAIAdapter(server.URL+"/v1", "local", "")

	_, err := adapter.Embed(context.Background(), "q")

	assert.Error(t, err)
	assert.Equal(t, DefaultModel, adapter.Model())
}
