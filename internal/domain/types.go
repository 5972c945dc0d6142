package domain

import (
	"hash/fnv"
	"strconv"
)

// Section is a named span of a source document. Section types are one of
// concepts, architectures, algorithms, real-world or general.
type Section struct {
	Type    string
	Content string
}

// Chunk is a bounded span of text derived from a document section.
type Chunk struct {
	ChapterID    string
	ChapterTitle string
	ModuleID     string
	FilePath     string
	SectionType  string
	Index        int
	Text         string
	WordCount    int
	Topics       []string
}

// CompositeID is the stable identifier of a chunk within its chapter.
func (c Chunk) CompositeID() string {
	return c.ChapterID + c.SectionType + strconv.Itoa(c.Index)
}

// PointID derives a deterministic vector-index point id from the chunk's
// composite id. The id space is the positive 63-bit integers; collisions
// overwrite rather than error.
func (c Chunk) PointID() uint64 {
	h := fnv.New64a()
	h.Write([]byte(c.CompositeID()))
	return h.Sum64() & (1<<63 - 1)
}

// EmbeddedChunk is a chunk together with its embedding vector.
type EmbeddedChunk struct {
	Chunk
	Vector []float32
}

// Payload mirrors the non-vector fields persisted with each indexed point.
type Payload struct {
	ChapterID    string   `json:"chapter_id"`
	ChapterTitle string   `json:"chapter_title"`
	ModuleID     string   `json:"module_id"`
	SectionType  string   `json:"section_type"`
	ChunkIndex   int      `json:"chunk_index"`
	FilePath     string   `json:"file_path"`
	Topics       []string `json:"topics,omitempty"`
	ChunkText    string   `json:"chunk_text"`
	WordCount    int      `json:"word_count"`
}

// WithDefaults fills missing payload fields with their documented defaults.
func (p Payload) WithDefaults() Payload {
	if p.ChapterID == "" {
		p.ChapterID = "unknown"
	}
	if p.ChapterTitle == "" {
		p.ChapterTitle = "Unknown Chapter"
	}
	if p.ModuleID == "" {
		p.ModuleID = "unknown-module"
	}
	if p.SectionType == "" {
		p.SectionType = "general"
	}
	return p
}

// RetrievedResult is one ranked hit from a vector search.
type RetrievedResult struct {
	ID      uint64
	Score   float64
	Payload Payload
}

// SourceCitation links an answer back to a supporting chunk.
type SourceCitation struct {
	ChapterID      string  `json:"chapter_id"`
	ChapterTitle   string  `json:"chapter_title"`
	ModuleID       string  `json:"module_id"`
	SectionType    string  `json:"section_type"`
	FilePath       string  `json:"file_path"`
	ChunkText      string  `json:"chunk_text"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Answer is the final response produced for a query.
type Answer struct {
	ResponseText    string           `json:"response_text"`
	SourceCitations []SourceCitation `json:"source_citations"`
	ConfidenceScore float64          `json:"confidence_score"`
	SessionID       string           `json:"session_id,omitempty"`
	RetrievedChunks int              `json:"retrieved_chunks"`
}
