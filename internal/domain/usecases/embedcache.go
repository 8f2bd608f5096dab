package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

// CachedEmbedder wraps an EmbeddingService with a durable per-document cache.
// Batch (chunk) embeddings go through the cache; single query embeddings do not.
type CachedEmbedder struct {
	underlying ports.EmbeddingService
	cache      ports.EmbeddingCache
	namespace  string

	hits   atomic.Int64
	misses atomic.Int64
}

var _ ports.EmbeddingService = (*CachedEmbedder)(nil)

// NewCachedEmbedder creates a CachedEmbedder. namespace separates vectors
// produced by different embedding models in the same store.
func NewCachedEmbedder(underlying ports.EmbeddingService, cache ports.EmbeddingCache, namespace string) *CachedEmbedder {
	return &CachedEmbedder{
		underlying: underlying,
		cache:      cache,
		namespace:  namespace,
	}
}

// Embed embeds a query without touching the cache.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return c.underlying.Embed(ctx, text)
}

// EmbedBatch returns cached vectors where present and embeds the rest in a
// single call, writing them back before returning.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = c.key(t)
	}

	found, err := c.cache.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("reading embedding cache: %w", err)
	}

	var missTexts, missKeys []string
	pending := make(map[string]bool)
	for i, k := range keys {
		if _, ok := found[k]; ok || pending[k] {
			continue
		}
		pending[k] = true
		missTexts = append(missTexts, texts[i])
		missKeys = append(missKeys, k)
	}

	if len(missTexts) > 0 {
		vectors, err := c.underlying.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vectors) != len(missTexts) {
			return nil, fmt.Errorf("embedding backend returned %d vectors for %d texts", len(vectors), len(missTexts))
		}

		fresh := make(map[string][]float32, len(vectors))
		for i, v := range vectors {
			fresh[missKeys[i]] = v
			found[missKeys[i]] = v
		}
		if err := c.cache.PutMany(ctx, fresh); err != nil {
			return nil, fmt.Errorf("writing embedding cache: %w", err)
		}
	}

	c.hits.Add(int64(len(texts) - len(missTexts)))
	c.misses.Add(int64(len(missTexts)))

	out := make([][]float32, len(texts))
	for i, k := range keys {
		out[i] = found[k]
	}
	return out, nil
}

// Stats reports cache hits and misses since creation.
func (c *CachedEmbedder) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *CachedEmbedder) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return c.namespace + hex.EncodeToString(sum[:])
}
