package chunker

import (
	"regexp"
	"strings"
	"unicode"

	"bookrag/internal/domain"
)

// Chunker splits section text into overlapping word windows, optionally
// trimming each window to end at a natural boundary.
type Chunker struct {
	size              int
	overlap           int
	respectBoundaries bool
}

// New creates a chunker with the given window size and overlap in words.
func New(size, overlap int, respectBoundaries bool) *Chunker {
	if size <= 0 {
		size = 500
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap, respectBoundaries: respectBoundaries}
}

// SectionChunk is one emitted chunk with its section type and zero-based
// index within that section.
type SectionChunk struct {
	SectionType string
	Text        string
	Index       int
}

var sentenceEndRe = regexp.MustCompile(`[.!?]\s+`)

// ChunkText splits text into overlapping chunks. Empty or whitespace-only
// input yields no chunks; text at or under the window size is returned as a
// single chunk. Boundary trimming only shortens the emitted text; the next
// window always starts relative to the untrimmed window end, so no word is
// ever skipped and the total chunk count stays bounded.
func (c *Chunker) ChunkText(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	words := splitWords(text)
	if len(words) <= c.size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(words) {
		end := start + c.size
		if end > len(words) {
			end = len(words)
		}
		chunk := text[words[start].start:words[end-1].end]
		if c.respectBoundaries && end < len(words) {
			chunk = adjustToBoundary(chunk)
		}
		chunks = append(chunks, chunk)
		if end >= len(words) {
			break
		}
		start = end - c.overlap
	}
	return chunks
}

// ChunkSections chunks each section independently, concatenating the results
// in section order. Chunk indexes restart at zero per section.
func (c *Chunker) ChunkSections(sections []domain.Section) []SectionChunk {
	var all []SectionChunk
	for _, sec := range sections {
		for idx, text := range c.ChunkText(sec.Content) {
			all = append(all, SectionChunk{SectionType: sec.Type, Text: text, Index: idx})
		}
	}
	return all
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// adjustToBoundary trims a chunk to end at a paragraph break if one falls in
// the back half, otherwise at the last sentence end in the back half.
// Without a suitable boundary the chunk is returned unchanged.
func adjustToBoundary(text string) string {
	if i := strings.Index(text, "\n\n"); i > len(text)/2 {
		return text[:i]
	}
	ends := sentenceEndRe.FindAllStringIndex(text, -1)
	for i := len(ends) - 1; i >= 0; i-- {
		if ends[i][1] > len(text)/2 {
			return strings.TrimSpace(text[:ends[i][1]])
		}
	}
	return text
}

type wordSpan struct {
	start, end int
}

// splitWords returns the byte spans of whitespace-separated words so chunks
// can be sliced out of the original text with interior whitespace intact.
func splitWords(text string) []wordSpan {
	var spans []wordSpan
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				spans = append(spans, wordSpan{start, i})
				start = -1
			}
		} else if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		spans = append(spans, wordSpan{start, len(text)})
	}
	return spans
}
