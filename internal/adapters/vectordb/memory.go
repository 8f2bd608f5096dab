// Package vectordb provides per-document similarity indices.
// Adapters implementing ports.IndexBuilder and ports.VectorIndex.
package vectordb

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

// ErrIndexClosed is returned when searching an index after Close.
var ErrIndexClosed = errors.New("index is closed")

// MemoryBuilder builds brute-force cosine indices held in memory.
type MemoryBuilder struct{}

var _ ports.IndexBuilder = MemoryBuilder{}

func NewMemoryBuilder() MemoryBuilder {
	return MemoryBuilder{}
}

// Build copies the chunks into a new MemoryIndex.
func (MemoryBuilder) Build(ctx context.Context, doc *entities.Document, chunks []entities.Chunk) (ports.VectorIndex, error) {
	return &MemoryIndex{
		source: doc.Name,
		chunks: append([]entities.Chunk(nil), chunks...),
	}, nil
}

// MemoryIndex is the in-memory index of one document.
type MemoryIndex struct {
	mu     sync.RWMutex
	source string
	chunks []entities.Chunk
	closed bool
}

// Search finds the most similar chunks to a query embedding. Chunks with
// equal scores keep document order.
func (s *MemoryIndex) Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrIndexClosed
	}

	results := make([]entities.QueryResult, len(s.chunks))
	for i, chunk := range s.chunks {
		results[i] = entities.QueryResult{
			Chunk:     chunk,
			Score:     cosineSimilarity(embedding, chunk.Embedding),
			SourceDoc: s.source,
		}
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (s *MemoryIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// Close drops the chunks. Closing twice is a no-op.
func (s *MemoryIndex) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = nil
	s.closed = true
	return nil
}
