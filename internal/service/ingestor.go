package service

import (
	"context"
	"fmt"

	"bookrag/internal/chunker"
	"bookrag/internal/domain"
	"bookrag/internal/markdown"
)

// Ingestor runs the document ingestion pipeline: chunk, embed, upsert.
type Ingestor struct {
	chunker  *chunker.Chunker
	embedder domain.Embedder
	index    domain.VectorIndex

	// Progress, when set, receives per-stage progress lines.
	Progress func(format string, args ...any)
}

func NewIngestor(c *chunker.Chunker, embedder domain.Embedder, index domain.VectorIndex) *Ingestor {
	return &Ingestor{chunker: c, embedder: embedder, index: index}
}

// IngestSummary reports what the pipeline produced. When Ingest fails
// partway, the counts reflect work completed before the failure.
type IngestSummary struct {
	Documents int
	Chunks    int
	Embedded  int
	Upserted  int
}

// Ingest chunks every document section, embeds the chunks in batches and
// upserts them into the vector index. With recreate set, the collection is
// dropped and recreated before any write.
func (ing *Ingestor) Ingest(ctx context.Context, docs []markdown.Document, recreate bool) (IngestSummary, error) {
	summary := IngestSummary{Documents: len(docs)}

	var chunks []domain.Chunk
	for _, doc := range docs {
		sections := doc.Sections()
		if len(sections) == 0 {
			// Documents without recognizable H2 sections ingest whole.
			sections = []domain.Section{{Type: "general", Content: doc.Content}}
		}
		for _, sc := range ing.chunker.ChunkSections(sections) {
			chunks = append(chunks, domain.Chunk{
				ChapterID:    doc.ChapterID,
				ChapterTitle: doc.Title,
				ModuleID:     doc.ModuleID,
				FilePath:     doc.FilePath,
				SectionType:  sc.SectionType,
				Index:        sc.Index,
				Text:         sc.Text,
				WordCount:    chunker.WordCount(sc.Text),
				Topics:       doc.Topics,
			})
		}
	}
	summary.Chunks = len(chunks)
	if len(chunks) == 0 {
		return summary, fmt.Errorf("ingest: no chunks produced from %d documents", len(docs))
	}
	ing.progress("Chunked %d documents into %d chunks", len(docs), len(chunks))

	if err := ing.index.EnsureCollection(ctx, ing.embedder.Dimension(), "Cosine", recreate); err != nil {
		return summary, fmt.Errorf("ensure collection: %w", err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := ing.embedder.EmbedMany(ctx, texts, func(done, total int) {
		ing.progress("Embedded %d/%d texts", done, total)
	})
	if err != nil {
		return summary, fmt.Errorf("embed chunks: %w", err)
	}
	summary.Embedded = len(vectors)

	embedded := make([]domain.EmbeddedChunk, len(chunks))
	for i := range chunks {
		embedded[i] = domain.EmbeddedChunk{Chunk: chunks[i], Vector: vectors[i]}
	}

	upserted, err := ing.index.Upsert(ctx, embedded)
	summary.Upserted = upserted
	if err != nil {
		return summary, fmt.Errorf("upsert after %d points: %w", upserted, err)
	}
	ing.progress("Upserted %d/%d chunks", upserted, len(embedded))
	return summary, nil
}

func (ing *Ingestor) progress(format string, args ...any) {
	if ing.Progress != nil {
		ing.Progress(format, args...)
	}
}
