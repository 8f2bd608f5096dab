// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions; adapters implement them.
package ports

import (
	"context"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

// BlobStore persists uploaded documents on local disk.
type BlobStore interface {
	// Save writes the raw bytes and returns the path they were written to.
	Save(ctx context.Context, doc *entities.Document) (string, error)
}

// EmbeddingService generates vector embeddings for text.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingCache is a durable key/vector store backing cached embeddings.
type EmbeddingCache interface {
	// GetMany returns the vectors found for keys; missing keys are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string][]float32, error)

	// PutMany stores vectors by key, overwriting existing entries.
	PutMany(ctx context.Context, entries map[string][]float32) error

	Close() error
}

// EmbeddingCacheOpener opens the embedding cache belonging to one document.
type EmbeddingCacheOpener interface {
	Open(ctx context.Context, documentName string) (EmbeddingCache, error)
}

// VectorIndex is a similarity index over the chunks of one document.
type VectorIndex interface {
	// Search finds the most similar chunks to a query embedding, best first.
	Search(ctx context.Context, embedding []float32, topK int) ([]entities.QueryResult, error)

	// Len returns the number of indexed chunks.
	Len() int

	// Close frees the index. Searching a closed index is an error.
	Close(ctx context.Context) error
}

// IndexBuilder creates a VectorIndex from embedded chunks.
type IndexBuilder interface {
	Build(ctx context.Context, doc *entities.Document, chunks []entities.Chunk) (VectorIndex, error)
}

// LLMService streams a chat completion from a language model.
type LLMService interface {
	// Stream sends the prompt messages and invokes onToken for every token in
	// generation order. It returns when the model finishes or fails.
	Stream(ctx context.Context, messages []entities.Message, onToken func(token string) error) error
}

// StreamToken represents a single event of a streaming answer.
// Done marks the final event; on success Content then holds the full answer.
type StreamToken struct {
	Content string
	Done    bool
	Error   error
}

// TokenSink receives streamed tokens in order, then one final Done token.
type TokenSink func(tok StreamToken)

// DocumentLoader extracts text from an uploaded document.
type DocumentLoader interface {
	// Load fills doc.Content from doc.Data.
	Load(ctx context.Context, doc *entities.Document) error

	// SupportedExtensions returns file extensions this loader handles.
	SupportedExtensions() []string
}

// DocumentParser extracts text from binary document formats (PDF, DOCX).
type DocumentParser interface {
	// Parse extracts text content from document bytes.
	Parse(ctx context.Context, data []byte, filename string) (string, error)

	// SupportedFormats returns formats this parser handles (e.g., "pdf", "docx").
	SupportedFormats() []string
}

// FileWatcher monitors a directory for changes.
type FileWatcher interface {
	// Watch starts monitoring the directory and emits events.
	Watch(ctx context.Context, dir string) (<-chan FileEvent, error)

	// Stop stops the watcher.
	Stop() error
}

// FileEvent represents a file system change.
type FileEvent struct {
	Path      string
	Operation FileOperation
}

// FileOperation is the type of file change.
type FileOperation int

const (
	FileCreated FileOperation = iota
	FileModified
	FileDeleted
)
