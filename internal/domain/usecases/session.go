package usecases

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
	"github.com/0xcro3dile/privategpt-go/internal/logger"
)

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	NoDocument SessionState = iota
	DocumentLoaded
)

func (s SessionState) String() string {
	switch s {
	case NoDocument:
		return "no_document"
	case DocumentLoaded:
		return "document_loaded"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// SessionDeps are the collaborators a Session drives.
type SessionDeps struct {
	Blobs     ports.BlobStore
	Loader    ports.DocumentLoader
	Splitter  *TextSplitter
	Retriever *Retriever
	Assembler *PromptAssembler
	Engine    *GenerationEngine
	Memory    *WindowMemory
}

// Session holds one user's document, index, memory and transcript.
// Interactions are serialised: an upload or question runs to completion
// before the next one starts. Reads of the transcript and state do not wait
// for a running interaction.
type Session struct {
	id   string
	deps SessionDeps

	op sync.Mutex

	mu         sync.RWMutex
	state      SessionState
	doc        *entities.Document
	index      ports.VectorIndex
	transcript []entities.Message
}

// NewSession creates a session in the NoDocument state. Nil splitter,
// assembler and memory fall back to defaults.
func NewSession(deps SessionDeps) *Session {
	if deps.Splitter == nil {
		deps.Splitter = NewTextSplitter(DefaultSeparator, DefaultChunkSize, DefaultChunkOverlap)
	}
	if deps.Assembler == nil {
		deps.Assembler = NewPromptAssembler("")
	}
	if deps.Memory == nil {
		deps.Memory = NewWindowMemory(DefaultMemoryWindow)
	}
	return &Session{
		id:    uuid.NewString(),
		deps:  deps,
		state: NoDocument,
	}
}

// Upload persists, parses, chunks and indexes a file, then makes it the
// session's document. A successful upload resets memory and the transcript.
// On failure the previous document stays active.
func (s *Session) Upload(ctx context.Context, up entities.Upload) (*entities.Document, error) {
	s.op.Lock()
	defer s.op.Unlock()

	name := filepath.Base(strings.TrimSpace(up.Name))
	log := logger.GetLogger().WithField("session", s.id).WithField("document", name)

	if !s.supported(name) {
		return nil, fmt.Errorf("%w: %s", entities.ErrUnsupportedFileType, filepath.Ext(name))
	}
	if len(up.Data) == 0 {
		return nil, entities.ErrEmptyDocument
	}

	sum := sha256.Sum256(up.Data)
	doc := &entities.Document{
		ID:          hex.EncodeToString(sum[:8]),
		Name:        name,
		Data:        up.Data,
		Fingerprint: hex.EncodeToString(sum[:]),
		CreatedAt:   time.Now().UTC(),
	}

	path, err := s.deps.Blobs.Save(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}
	doc.Path = path

	s.mu.RLock()
	current, currentIndex := s.doc, s.index
	s.mu.RUnlock()

	if current != nil && currentIndex != nil && current.Fingerprint == doc.Fingerprint {
		doc.Content = current.Content
		s.activate(ctx, doc, currentIndex)
		log.Info("document unchanged, reusing index")
		return doc, nil
	}

	if err := s.deps.Loader.Load(ctx, doc); err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	if strings.TrimSpace(doc.Content) == "" {
		return nil, entities.ErrEmptyDocument
	}

	chunks := s.deps.Splitter.Split(doc)
	index, err := s.deps.Retriever.Build(ctx, doc, chunks)
	if err != nil {
		log.WithError(err).Error("indexing failed")
		return nil, err
	}

	s.activate(ctx, doc, index)
	log.WithField("chunks", len(chunks)).Info("document loaded")
	return doc, nil
}

// activate swaps in doc and index, frees a replaced index, and starts a
// fresh conversation.
func (s *Session) activate(ctx context.Context, doc *entities.Document, index ports.VectorIndex) {
	s.mu.Lock()
	old := s.index
	s.doc = doc
	s.index = index
	s.state = DocumentLoaded
	s.transcript = nil
	s.deps.Memory.Reset()
	s.mu.Unlock()

	if old != nil && old != index {
		if err := old.Close(ctx); err != nil {
			logger.GetLogger().WithField("session", s.id).WithError(err).Warn("closing replaced index")
		}
	}
}

// Ask answers a question about the loaded document, streaming tokens to
// sink. The question and answer are added to memory and the transcript only
// when generation succeeds.
func (s *Session) Ask(ctx context.Context, question string, sink ports.TokenSink) (string, error) {
	s.op.Lock()
	defer s.op.Unlock()

	question = strings.TrimSpace(question)
	if question == "" {
		return "", entities.ErrEmptyQuestion
	}

	s.mu.RLock()
	state, index := s.state, s.index
	s.mu.RUnlock()
	if state != DocumentLoaded || index == nil {
		return "", entities.ErrNoDocument
	}

	log := logger.GetLogger().WithField("session", s.id)

	chunks, err := s.deps.Retriever.Query(ctx, index, question)
	if err != nil {
		log.WithError(err).Error("retrieval failed")
		return "", err
	}

	prompt := s.deps.Assembler.Assemble(chunks, s.deps.Memory.Render(), question)

	answer, err := s.deps.Engine.Generate(ctx, prompt, sink)
	if err != nil {
		log.WithError(err).Error("generation failed")
		return "", err
	}

	s.mu.Lock()
	s.deps.Memory.Record(question, answer)
	s.transcript = append(s.transcript,
		entities.Message{Role: entities.RoleHuman, Text: question},
		entities.Message{Role: entities.RoleAI, Text: answer},
	)
	s.mu.Unlock()

	log.WithField("context_chunks", len(chunks)).Debug("question answered")
	return answer, nil
}

// Transcript returns a copy of the visible conversation.
func (s *Session) Transcript() []entities.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Message(nil), s.transcript...)
}

// History returns the memory window as rendered into prompts.
func (s *Session) History() []entities.Message {
	return s.deps.Memory.Render()
}

func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Document returns the loaded document without its raw bytes, or nil.
func (s *Session) Document() *entities.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return nil
	}
	d := *s.doc
	d.Data = nil
	return &d
}

func (s *Session) ID() string {
	return s.id
}

// SupportedExtensions lists the upload extensions the session accepts.
func (s *Session) SupportedExtensions() []string {
	return s.deps.Loader.SupportedExtensions()
}

// Close frees the active index.
func (s *Session) Close(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	index := s.index
	s.index = nil
	s.mu.Unlock()

	if index == nil {
		return nil
	}
	return index.Close(ctx)
}

func (s *Session) supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.deps.Loader.SupportedExtensions() {
		if ext == e {
			return true
		}
	}
	return false
}
