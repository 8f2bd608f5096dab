package vectordb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

func buildMemory(t *testing.T, chunks []entities.Chunk) *MemoryIndex {
	t.Helper()
	idx, err := NewMemoryBuilder().Build(context.Background(), &entities.Document{Name: "doc.txt"}, chunks)
	require.NoError(t, err)
	return idx.(*MemoryIndex)
}

func TestMemoryIndex_Search(t *testing.T) {
	idx := buildMemory(t, []entities.Chunk{
		{ID: "c1", Content: "hello", Embedding: []float32{1, 0, 0}},
		{ID: "c2", Content: "world", Embedding: []float32{0, 1, 0}},
		{ID: "c3", Content: "both", Embedding: []float32{1, 1, 0}},
	})

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, 2)

	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "c1", results[0].Chunk.ID)
	assert.Equal(t, "c3", results[1].Chunk.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	assert.Equal(t, "doc.txt", results[0].SourceDoc)
}

func TestMemoryIndex_TiesKeepDocumentOrder(t *testing.T) {
	idx := buildMemory(t, []entities.Chunk{
		{ID: "a", Embedding: []float32{1, 0}},
		{ID: "b", Embedding: []float32{1, 0}},
		{ID: "c", Embedding: []float32{1, 0}},
	})

	results, err := idx.Search(context.Background(), []float32{1, 0}, 3)

	require.NoError(t, err)
	assert.Equal(t, "a", results[0].Chunk.ID)
	assert.Equal(t, "b", results[1].Chunk.ID)
	assert.Equal(t, "c", results[2].Chunk.ID)
}

func TestMemoryIndex_FewerChunksThanTopK(t *testing.T) {
	idx := buildMemory(t, []entities.Chunk{{ID: "only", Embedding: []float32{0, 1}}})

	results, err := idx.Search(context.Background(), []float32{1, 0}, 4)

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].Score)
	assert.Equal(t, 1, idx.Len())
}

func TestMemoryIndex_Close(t *testing.T) {
	idx := buildMemory(t, []entities.Chunk{{ID: "c1", Embedding: []float32{1}}})

	require.NoError(t, idx.Close(context.Background()))
	require.NoError(t, idx.Close(context.Background()))

	_, err := idx.Search(context.Background(), []float32{1}, 1)
	assert.ErrorIs(t, err, ErrIndexClosed)
	assert.Equal(t, 0, idx.Len())
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
