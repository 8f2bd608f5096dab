package usecases

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/0xcro3dile/privategpt-go/internal/domain/entities"
)

const (
	DefaultSeparator    = "\n"
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 100
)

// TextSplitter splits document text on a separator and merges the pieces
// into chunks of at most ChunkSize runes, sharing up to ChunkOverlap runes
// between neighbours.
type TextSplitter struct {
	separator string
	size      int
	overlap   int
}

// NewTextSplitter creates a splitter. Invalid values fall back to defaults;
// an overlap that is not smaller than size is clamped to size/2.
func NewTextSplitter(separator string, size, overlap int) *TextSplitter {
	if separator == "" {
		separator = DefaultSeparator
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 2
	}
	return &TextSplitter{separator: separator, size: size, overlap: overlap}
}

// Split chunks a document's content.
func (s *TextSplitter) Split(doc *entities.Document) []entities.Chunk {
	texts := s.SplitText(doc.Content)
	chunks := make([]entities.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = entities.Chunk{
			ID:         generateChunkID(doc.ID, i),
			DocumentID: doc.ID,
			Content:    text,
			Index:      i,
		}
	}
	return chunks
}

// SplitText splits raw text. Text no longer than the chunk size is returned
// as a single chunk, verbatim apart from surrounding whitespace.
func (s *TextSplitter) SplitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= s.size {
		return []string{text}
	}

	var pieces []string
	for _, p := range strings.Split(text, s.separator) {
		if strings.TrimSpace(p) == "" {
			continue
		}
		if runeLen(p) > s.size {
			pieces = append(pieces, s.window(p)...)
			continue
		}
		pieces = append(pieces, p)
	}
	return s.merge(pieces)
}

// merge greedily joins pieces up to the chunk size. When a chunk is emitted
// the trailing pieces that fit in the overlap seed the next one.
func (s *TextSplitter) merge(pieces []string) []string {
	sepLen := runeLen(s.separator)

	var out []string
	var current []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		if total+n+joinCost(len(current), sepLen) > s.size && len(current) > 0 {
			if doc := s.join(current); doc != "" {
				out = append(out, doc)
			}
			for len(current) > 0 && (total > s.overlap || total+n+joinCost(len(current), sepLen) > s.size) {
				total -= runeLen(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, p)
		total += n
		if len(current) > 1 {
			total += sepLen
		}
	}

	if doc := s.join(current); doc != "" {
		out = append(out, doc)
	}
	return out
}

// window cuts one oversized piece at word boundaries.
func (s *TextSplitter) window(text string) []string {
	runes := []rune(strings.TrimSpace(text))

	var out []string
	start := 0
	for start < len(runes) {
		end := start + s.size
		if end > len(runes) {
			end = len(runes)
		}

		// Try to break at word boundary
		if end < len(runes) {
			if lastSpace := lastIndexRune(runes[start:end], ' '); lastSpace > 0 {
				end = start + lastSpace
			}
		}

		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end >= len(runes) {
			break
		}

		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func (s *TextSplitter) join(pieces []string) string {
	return strings.TrimSpace(strings.Join(pieces, s.separator))
}

func joinCost(current, sepLen int) int {
	if current > 0 {
		return sepLen
	}
	return 0
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}

// generateChunkID creates a deterministic ID for a chunk.
func generateChunkID(docID string, index int) string {
	hash := sha256.Sum256([]byte(docID + ":" + strconv.Itoa(index)))
	return hex.EncodeToString(hash[:8])
}
