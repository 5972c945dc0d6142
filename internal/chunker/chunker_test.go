package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/domain"
)

// numberedWords builds "w0 w1 w2 ..." so window positions are observable.
func numberedWords(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkTextEmptyInput(t *testing.T) {
	c := New(500, 100, true)
	assert.Nil(t, c.ChunkText(""))
	assert.Nil(t, c.ChunkText("   \n\t  "))
}

func TestChunkTextSingleChunk(t *testing.T) {
	c := New(10, 2, true)
	text := "one two three four five"
	chunks := c.ChunkText(text)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])

	// Exactly at the window size still yields one chunk.
	atLimit := numberedWords(10)
	chunks = c.ChunkText(atLimit)
	require.Len(t, chunks, 1)
	assert.Equal(t, atLimit, chunks[0])
}

func TestChunkTextOverlapAndCoverage(t *testing.T) {
	const total, size, overlap = 95, 10, 3
	c := New(size, overlap, false)
	chunks := c.ChunkText(numberedWords(total))
	require.NotEmpty(t, chunks)

	seen := make(map[string]struct{})
	for i, chunk := range chunks {
		words := strings.Fields(chunk)
		if i < len(chunks)-1 {
			assert.Len(t, words, size)
		}
		for _, w := range words {
			seen[w] = struct{}{}
		}
		if i > 0 {
			prev := strings.Fields(chunks[i-1])
			assert.Equal(t, prev[len(prev)-overlap:], words[:overlap],
				"consecutive chunks must overlap by exactly %d words", overlap)
		}
	}
	assert.Len(t, seen, total, "every word must be covered")

	last := strings.Fields(chunks[len(chunks)-1])
	assert.Equal(t, fmt.Sprintf("w%d", total-1), last[len(last)-1],
		"final window must extend to the end of the text")
}

func TestChunkTextSentenceBoundaryTrim(t *testing.T) {
	// 20 words per window; a sentence ends at word 15, well into the back
	// half of the window.
	words := make([]string, 30)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	words[14] = "w14."
	text := strings.Join(words, " ")

	trimmed := New(20, 5, true).ChunkText(text)
	untrimmed := New(20, 5, false).ChunkText(text)
	require.Equal(t, len(untrimmed), len(trimmed),
		"boundary trimming must not change the chunk count")

	assert.True(t, strings.HasSuffix(trimmed[0], "w14."),
		"first chunk should be trimmed at the sentence boundary, got %q", trimmed[0])
	// The next window still starts from the untrimmed bounds: word 15
	// appears in the second chunk even though the first was trimmed.
	assert.Contains(t, trimmed[1], "w15")
}

func TestChunkTextParagraphBoundaryTrim(t *testing.T) {
	first := numberedWords(14)
	second := "x0 x1 x2 x3 x4 x5 x6 x7 x8 x9 x10"
	text := first + "\n\n" + second

	chunks := New(20, 5, true).ChunkText(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, first, chunks[0], "first chunk should stop at the paragraph break")
	assert.Contains(t, chunks[len(chunks)-1], "x10")
}

func TestChunkTextNoBoundaryInBackHalf(t *testing.T) {
	// Sentence end in the front half must be ignored.
	words := strings.Fields(numberedWords(30))
	words[2] = "w2."
	text := strings.Join(words, " ")

	chunks := New(20, 5, true).ChunkText(text)
	require.NotEmpty(t, chunks)
	assert.Equal(t, 20, len(strings.Fields(chunks[0])), "chunk should be left untrimmed")
}

func TestChunkSections(t *testing.T) {
	c := New(10, 2, false)
	sections := []domain.Section{
		{Type: "concepts", Content: numberedWords(25)},
		{Type: "algorithms", Content: "short section"},
		{Type: "real-world", Content: "   "},
	}
	out := c.ChunkSections(sections)
	require.NotEmpty(t, out)

	var conceptCount int
	for _, sc := range out {
		if sc.SectionType == "concepts" {
			assert.Equal(t, conceptCount, sc.Index, "indexes are zero-based per section")
			conceptCount++
		}
	}
	assert.Greater(t, conceptCount, 1)

	last := out[len(out)-1]
	assert.Equal(t, "algorithms", last.SectionType)
	assert.Equal(t, 0, last.Index)
	assert.Equal(t, "short section", last.Text)
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("  a\tb\nc "))
}
