package usecases

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

// mockEmbedder implements ports.EmbeddingService with a letter-frequency vector.
type mockEmbedder struct {
	mu         sync.Mutex
	batchCalls int
	embedded   []string
	err        error
}

func letterVector(text string) []float32 {
	v := make([]float32, 26)
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return letterVector(text), nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		m.embedded = append(m.embedded, t)
		out[i] = letterVector(t)
	}
	return out, nil
}

// mockCache implements ports.EmbeddingCache over a shared map.
type mockCache struct {
	store  map[string][]float32
	closed bool
	putErr error
}

func (c *mockCache) GetMany(ctx context.Context, keys []string) (map[string][]float32, error) {
	out := make(map[string][]float32)
	for _, k := range keys {
		if v, ok := c.store[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (c *mockCache) PutMany(ctx context.Context, entries map[string][]float32) error {
	if c.putErr != nil {
		return c.putErr
	}
	for k, v := range entries {
		c.store[k] = v
	}
	return nil
}

func (c *mockCache) Close() error {
	c.closed = true
	return nil
}

// mockCacheOpener keeps one store per document name, surviving re-opens.
type mockCacheOpener struct {
	stores map[string]map[string][]float32
	opened []string
}

func newMockCacheOpener() *mockCacheOpener {
	return &mockCacheOpener{stores: make(map[string]map[string][]float32)}
}

func (o *mockCacheOpener) Open(ctx context.Context, name string) (ports.EmbeddingCache, error) {
	o.opened = append(o.opened, name)
	if o.stores[name] == nil {
		o.stores[name] = make(map[string][]float32)
	}
	return &mockCache{store: o.stores[name]}, nil
}

// mockIndex implements ports.VectorIndex with brute-force cosine.
type mockIndex struct {
	chunks []entities.Chunk
	name   string
	closed bool
}

func (i *mockIndex) Search(ctx context.Context, q []float32, topK int) ([]entities.QueryResult, error) {
	if i.closed {
		return nil, errors.New("index closed")
	}
	results := make([]entities.QueryResult, len(i.chunks))
	for n, c := range i.chunks {
		results[n] = entities.QueryResult{Chunk: c, Score: cosine(q, c.Embedding), SourceDoc: i.name}
	}
	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (i *mockIndex) Len() int { return len(i.chunks) }

func (i *mockIndex) Close(ctx context.Context) error {
	i.closed = true
	return nil
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

type mockIndexBuilder struct {
	built []*mockIndex
	err   error
}

func (b *mockIndexBuilder) Build(ctx context.Context, doc *entities.Document, chunks []entities.Chunk) (ports.VectorIndex, error) {
	if b.err != nil {
		return nil, b.err
	}
	idx := &mockIndex{chunks: chunks, name: doc.Name}
	b.built = append(b.built, idx)
	return idx, nil
}

// mockLLM implements ports.LLMService, streaming tokens then optionally failing.
type mockLLM struct {
	tokens   []string
	failWith error
	prompts  [][]entities.Message
}

func (m *mockLLM) Stream(ctx context.Context, messages []entities.Message, onToken func(string) error) error {
	m.prompts = append(m.prompts, messages)
	for _, t := range m.tokens {
		if err := onToken(t); err != nil {
			return err
		}
	}
	return m.failWith
}

// mockLoader treats every supported file as plain text.
type mockLoader struct {
	err error
}

func (l *mockLoader) Load(ctx context.Context, doc *entities.Document) error {
	if l.err != nil {
		return l.err
	}
	doc.Content = string(doc.Data)
	return nil
}

func (l *mockLoader) SupportedExtensions() []string {
	return []string{".pdf", ".txt", ".docx"}
}

type mockBlobStore struct {
	saved []string
	err   error
}

func (b *mockBlobStore) Save(ctx context.Context, doc *entities.Document) (string, error) {
	if b.err != nil {
		return "", b.err
	}
	b.saved = append(b.saved, doc.Name)
	return filepath.Join("private_files", doc.Name), nil
}
