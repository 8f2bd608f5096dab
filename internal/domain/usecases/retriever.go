package usecases

import (
	"context"
	"fmt"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 4

// Retriever builds per-document indices and answers similarity queries.
type Retriever struct {
	embedder  ports.EmbeddingService
	caches    ports.EmbeddingCacheOpener
	builder   ports.IndexBuilder
	namespace string
	topK      int
}

// NewRetriever creates a Retriever. caches may be nil, in which case chunk
// embeddings are always recomputed.
func NewRetriever(
	embedder ports.EmbeddingService,
	caches ports.EmbeddingCacheOpener,
	builder ports.IndexBuilder,
	namespace string,
	topK int,
) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder:  embedder,
		caches:    caches,
		builder:   builder,
		namespace: namespace,
		topK:      topK,
	}
}

// Build embeds the chunks of doc and indexes them.
func (r *Retriever) Build(ctx context.Context, doc *entities.Document, chunks []entities.Chunk) (ports.VectorIndex, error) {
	log := logger.GetLogger().WithField("document", doc.Name)

	embedder := r.embedder
	if r.caches != nil {
		cache, err := r.caches.Open(ctx, doc.Name)
		if err != nil {
			return nil, fmt.Errorf("opening embedding cache: %w", err)
		}
		defer cache.Close()

		cached := NewCachedEmbedder(r.embedder, cache, r.namespace)
		defer func() {
			hits, misses := cached.Stats()
			log.WithField("hits", hits).WithField("misses", misses).Debug("embedding cache")
		}()
		embedder = cached
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	embedded := make([]entities.Chunk, len(chunks))
	for i := range chunks {
		embedded[i] = chunks[i]
		embedded[i].Embedding = vectors[i]
	}

	index, err := r.builder.Build(ctx, doc, embedded)
	if err != nil {
		return nil, fmt.Errorf("building index: %w", err)
	}
	log.WithField("chunks", index.Len()).Info("index built")
	return index, nil
}

// Query returns the chunks most similar to question, best first.
func (r *Retriever) Query(ctx context.Context, index ports.VectorIndex, question string) ([]entities.Chunk, error) {
	results, err := r.Search(ctx, index, question)
	if err != nil {
		return nil, err
	}
	chunks := make([]entities.Chunk, len(results))
	for i, res := range results {
		chunks[i] = res.Chunk
	}
	return chunks, nil
}

// Search is Query with similarity scores.
func (r *Retriever) Search(ctx context.Context, index ports.VectorIndex, question string) ([]entities.QueryResult, error) {
	embedding, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	results, err := index.Search(ctx, embedding, r.topK)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	return results, nil
}

func (r *Retriever) TopK() int {
	return r.topK
}
