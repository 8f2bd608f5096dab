// Package loader provides document loading adapters.
package loader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

// TextLoader loads plain text documents verbatim.
type TextLoader struct{}

var _ ports.DocumentLoader = (*TextLoader)(nil)

// NewTextLoader creates a new text document loader.
func NewTextLoader() *TextLoader {
	return &TextLoader{}
}

// Load sets the content to the raw bytes, minus a UTF-8 byte order mark.
func (l *TextLoader) Load(ctx context.Context, doc *entities.Document) error {
	data := doc.Data
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	if !utf8.Valid(data) {
		return fmt.Errorf("%s is not valid UTF-8 text", doc.Name)
	}
	doc.Content = string(data)
	return nil
}

// SupportedExtensions returns file extensions this loader handles.
func (l *TextLoader) SupportedExtensions() []string {
	return []string{".txt"}
}

// ParserLoader loads a binary format through a DocumentParser.
type ParserLoader struct {
	parser ports.DocumentParser
	exts   []string
}

var _ ports.DocumentLoader = (*ParserLoader)(nil)

// NewParserLoader handles the parser's formats as extensions.
func NewParserLoader(parser ports.DocumentParser) *ParserLoader {
	exts := make([]string, 0, len(parser.SupportedFormats()))
	for _, f := range parser.SupportedFormats() {
		exts = append(exts, "."+strings.TrimPrefix(strings.ToLower(f), "."))
	}
	return &ParserLoader{parser: parser, exts: exts}
}

func (l *ParserLoader) Load(ctx context.Context, doc *entities.Document) error {
	text, err := l.parser.Parse(ctx, doc.Data, doc.Name)
	if err != nil {
		return err
	}
	doc.Content = text
	return nil
}

func (l *ParserLoader) SupportedExtensions() []string {
	return l.exts
}

// MultiLoader dispatches to a loader by file extension.
type MultiLoader struct {
	loaders map[string]ports.DocumentLoader
}

var _ ports.DocumentLoader = (*MultiLoader)(nil)

// NewMultiLoader registers loaders in order; a later loader wins an
// extension claimed by an earlier one.
func NewMultiLoader(loaders ...ports.DocumentLoader) *MultiLoader {
	m := &MultiLoader{loaders: make(map[string]ports.DocumentLoader)}
	for _, l := range loaders {
		for _, ext := range l.SupportedExtensions() {
			m.loaders[strings.ToLower(ext)] = l
		}
	}
	return m
}

// Load dispatches to the appropriate loader based on extension.
func (m *MultiLoader) Load(ctx context.Context, doc *entities.Document) error {
	ext := strings.ToLower(filepath.Ext(doc.Name))
	loader, ok := m.loaders[ext]
	if !ok {
		return fmt.Errorf("%w: %q", entities.ErrUnsupportedFileType, ext)
	}
	if err := loader.Load(ctx, doc); err != nil {
		return fmt.Errorf("extracting text from %s: %w", doc.Name, err)
	}
	return nil
}

// SupportedExtensions returns all supported extensions, sorted.
func (m *MultiLoader) SupportedExtensions() []string {
	exts := make([]string, 0, len(m.loaders))
	for ext := range m.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether path has a registered extension.
func (m *MultiLoader) Supports(path string) bool {
	_, ok := m.loaders[strings.ToLower(filepath.Ext(path))]
	return ok
}

// ReadUpload reads a file from disk into an Upload.
func ReadUpload(path string) (entities.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.Upload{}, err
	}
	return entities.Upload{Name: filepath.Base(path), Data: data}, nil
}
