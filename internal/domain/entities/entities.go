// Package entities contains core business entities.
// These are pure domain objects with no external dependencies.
package entities

import (
	"strings"
	"time"
)

// Document represents an uploaded source document (PDF, TXT, DOCX).
// Immutable once uploaded.
type Document struct {
	ID          string
	Name        string
	Path        string // Where the blob store persisted the raw bytes
	Data        []byte
	Content     string // Extracted text
	Fingerprint string // Hex SHA-256 of Data
	CreatedAt   time.Time
}

// Chunk represents a contiguous piece of a document for embedding.
type Chunk struct {
	ID         string
	DocumentID string
	Content    string
	Index      int       // Position in document
	Embedding  []float32 // Vector representation (populated by adapter)
}

// QueryResult represents a search result with relevance.
type QueryResult struct {
	Chunk     Chunk
	Score     float64 // Similarity score
	SourceDoc string  // Document name
}

// Role identifies who authored a message.
type Role string

const (
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleSystem Role = "system"
)

// Message is one entry of the visible transcript.
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Turn is one question/answer pair kept by conversation memory.
type Turn struct {
	Question string
	Answer   string
}

// Prompt is the structured input handed to the language model.
type Prompt struct {
	System   string
	Context  string
	History  []Message
	Question string
}

// Messages renders the prompt in model order: the system instruction with the
// retrieved context, the history turns, then the new question.
func (p Prompt) Messages() []Message {
	var system strings.Builder
	system.WriteString(p.System)
	system.WriteString("\n\nContext: ")
	system.WriteString(p.Context)

	msgs := make([]Message, 0, len(p.History)+2)
	msgs = append(msgs, Message{Role: RoleSystem, Text: system.String()})
	msgs = append(msgs, p.History...)
	msgs = append(msgs, Message{Role: RoleHuman, Text: p.Question})
	return msgs
}

// Upload is a file handed to the application by a user.
type Upload struct {
	Name string
	Data []byte
}
