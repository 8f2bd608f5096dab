package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

type sessionFixture struct {
	session  *Session
	embedder *mockEmbedder
	opener   *mockCacheOpener
	builder  *mockIndexBuilder
	llm      *mockLLM
	blobs    *mockBlobStore
	loader   *mockLoader
}

func newSessionFixture() *sessionFixture {
	f := &sessionFixture{
		embedder: &mockEmbedder{},
		opener:   newMockCacheOpener(),
		builder:  &mockIndexBuilder{},
		llm:      &mockLLM{tokens: []string{"It ", "is ", "fine."}},
		blobs:    &mockBlobStore{},
		loader:   &mockLoader{},
	}
	f.session = NewSession(SessionDeps{
		Blobs:     f.blobs,
		Loader:    f.loader,
		Splitter:  NewTextSplitter("\n", 600, 100),
		Retriever: NewRetriever(f.embedder, f.opener, f.builder, "mistral:latest", 4),
		Engine:    NewGenerationEngine(f.llm),
		Memory:    NewWindowMemory(6),
	})
	return f
}

func longText(prefix string, lines int) string {
	var b strings.Builder
	for i := 0; i < lines; i++ {
		fmt.Fprintf(&b, "%s line %03d with some filler words to take up room\n", prefix, i)
	}
	return b.String()
}

func upload(t *testing.T, s *Session, name, text string) *entities.Document {
	t.Helper()
	doc, err := s.Upload(context.Background(), entities.Upload{Name: name, Data: []byte(text)})
	require.NoError(t, err)
	return doc
}

func TestSession_InitialState(t *testing.T) {
	f := newSessionFixture()

	assert.Equal(t, NoDocument, f.session.State())
	assert.Nil(t, f.session.Document())
	assert.Empty(t, f.session.Transcript())
	assert.NotEmpty(t, f.session.ID())
}

func TestSession_AskWithoutDocument(t *testing.T) {
	f := newSessionFixture()

	_, err := f.session.Ask(context.Background(), "hello?", nil)

	assert.ErrorIs(t, err, entities.ErrNoDocument)
}

func TestSession_EmptyQuestion(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "content")

	_, err := f.session.Ask(context.Background(), "   ", nil)

	assert.ErrorIs(t, err, entities.ErrEmptyQuestion)
}

func TestSession_UnsupportedFileType(t *testing.T) {
	f := newSessionFixture()

	_, err := f.session.Upload(context.Background(), entities.Upload{Name: "image.png", Data: []byte("x")})

	assert.ErrorIs(t, err, entities.ErrUnsupportedFileType)
	assert.Empty(t, f.blobs.saved)
	assert.Equal(t, NoDocument, f.session.State())
}

func TestSession_EmptyUpload(t *testing.T) {
	f := newSessionFixture()

	_, err := f.session.Upload(context.Background(), entities.Upload{Name: "a.txt"})

	assert.ErrorIs(t, err, entities.ErrEmptyDocument)
}

func TestSession_SmallDocumentSingleChunkIsContext(t *testing.T) {
	f := newSessionFixture()
	text := "Go was designed at Google.\n\nIt has goroutines.\n\nIt compiles quickly."

	doc := upload(t, f.session, "go.txt", text)
	assert.Equal(t, DocumentLoaded, f.session.State())
	assert.Equal(t, "go.txt", doc.Name)
	assert.NotEmpty(t, doc.Fingerprint)

	require.Len(t, f.builder.built, 1)
	require.Len(t, f.builder.built[0].chunks, 1)
	assert.Equal(t, text, f.builder.built[0].chunks[0].Content)

	_, err := f.session.Ask(context.Background(), "who designed Go?", nil)
	require.NoError(t, err)

	require.Len(t, f.llm.prompts, 1)
	system := f.llm.prompts[0][0]
	assert.Equal(t, entities.RoleSystem, system.Role)
	assert.Equal(t, DefaultSystemPrompt+"\n\nContext: "+text, system.Text)
}

func TestSession_AskRecordsTurnAndTranscript(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "some content")

	var tokens []string
	answer, err := f.session.Ask(context.Background(), "Q1", func(tok ports.StreamToken) {
		if !tok.Done {
			tokens = append(tokens, tok.Content)
		}
	})
	require.NoError(t, err)

	assert.Equal(t, "It is fine.", answer)
	assert.Equal(t, []string{"It ", "is ", "fine."}, tokens)
	assert.Equal(t, []entities.Message{
		{Role: entities.RoleHuman, Text: "Q1"},
		{Role: entities.RoleAI, Text: "It is fine."},
	}, f.session.Transcript())
}

func TestSession_HistoryKeepsTurnOrder(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "some content")

	_, err := f.session.Ask(context.Background(), "Q1", nil)
	require.NoError(t, err)
	_, err = f.session.Ask(context.Background(), "Q2", nil)
	require.NoError(t, err)

	history := f.session.History()
	require.Len(t, history, 4)
	assert.Equal(t, "Q1", history[0].Text)
	assert.Equal(t, "Q2", history[2].Text)

	// the second prompt carries the first turn as history
	second := f.llm.prompts[1]
	require.Len(t, second, 4)
	assert.Equal(t, entities.Message{Role: entities.RoleHuman, Text: "Q1"}, second[1])
	assert.Equal(t, entities.Message{Role: entities.RoleAI, Text: "It is fine."}, second[2])
	assert.Equal(t, entities.Message{Role: entities.RoleHuman, Text: "Q2"}, second[3])
}

func TestSession_GenerationFailureCommitsNothing(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "some content")
	f.llm.failWith = errors.New("connection reset")

	var final ports.StreamToken
	_, err := f.session.Ask(context.Background(), "Q1", func(tok ports.StreamToken) {
		if tok.Done {
			final = tok
		}
	})

	require.Error(t, err)
	assert.Error(t, final.Error)
	for _, m := range f.session.Transcript() {
		assert.NotEqual(t, entities.RoleAI, m.Role)
	}
	assert.Empty(t, f.session.History())
}

func TestSession_NewUploadResetsConversation(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "first document")
	_, err := f.session.Ask(context.Background(), "Q1", nil)
	require.NoError(t, err)
	require.NotEmpty(t, f.session.Transcript())

	upload(t, f.session, "b.txt", "second document")

	assert.Empty(t, f.session.Transcript())
	assert.Empty(t, f.session.History())
	assert.Equal(t, "b.txt", f.session.Document().Name)
}

func TestSession_ReplacedIndexIsClosed(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "first document")
	upload(t, f.session, "b.txt", "second document")

	require.Len(t, f.builder.built, 2)
	assert.True(t, f.builder.built[0].closed)
	assert.False(t, f.builder.built[1].closed)

	require.NoError(t, f.session.Close(context.Background()))
	assert.True(t, f.builder.built[1].closed)

	_, err := f.session.Ask(context.Background(), "Q", nil)
	assert.ErrorIs(t, err, entities.ErrNoDocument)
}

func TestSession_ReuploadHitsEmbeddingCache(t *testing.T) {
	f := newSessionFixture()
	a := longText("alpha", 40)
	b := longText("beta", 40)

	upload(t, f.session, "a.txt", a)
	firstPass := len(f.embedder.embedded)
	require.Greater(t, firstPass, 1)

	upload(t, f.session, "b.txt", b)
	afterB := len(f.embedder.embedded)
	require.Greater(t, afterB, firstPass)

	upload(t, f.session, "a.txt", a)

	assert.Equal(t, afterB, len(f.embedder.embedded), "cached chunks must not be re-embedded")
	assert.Len(t, f.builder.built, 3)
}

func TestSession_SameFingerprintReusesIndex(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "same bytes")
	_, err := f.session.Ask(context.Background(), "Q1", nil)
	require.NoError(t, err)

	upload(t, f.session, "a.txt", "same bytes")

	assert.Len(t, f.builder.built, 1)
	assert.False(t, f.builder.built[0].closed)
	assert.Empty(t, f.session.Transcript())
	assert.Empty(t, f.session.History())
}

func TestSession_FailedUploadKeepsPreviousDocument(t *testing.T) {
	f := newSessionFixture()
	upload(t, f.session, "a.txt", "first document")
	_, err := f.session.Ask(context.Background(), "Q1", nil)
	require.NoError(t, err)

	f.loader.err = errors.New("corrupt file")
	_, err = f.session.Upload(context.Background(), entities.Upload{Name: "b.txt", Data: []byte("other")})
	require.Error(t, err)

	assert.Equal(t, "a.txt", f.session.Document().Name)
	assert.Len(t, f.session.Transcript(), 2)
	assert.False(t, f.builder.built[0].closed)
}

func TestSession_BlobFailureSurfaces(t *testing.T) {
	f := newSessionFixture()
	f.blobs.err = errors.New("permission denied")

	_, err := f.session.Upload(context.Background(), entities.Upload{Name: "a.txt", Data: []byte("x")})

	assert.ErrorContains(t, err, "permission denied")
	assert.Equal(t, NoDocument, f.session.State())
}

func TestSessionState_String(t *testing.T) {
	assert.Equal(t, "no_document", NoDocument.String())
	assert.Equal(t, "document_loaded", DocumentLoaded.String())
}
