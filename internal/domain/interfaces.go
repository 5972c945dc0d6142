package domain

import "context"

// Embedder converts text into fixed-length numeric vectors via a remote
// embedding capability. Implementations are safe for concurrent use.
type Embedder interface {
	// EmbedOne returns the embedding for a single text.
	EmbedOne(ctx context.Context, text string) ([]float32, error)
	// EmbedMany embeds texts in provider-sized batches, preserving input
	// order. The progress callback, when non-nil, is invoked after each
	// batch with the number of texts embedded so far.
	EmbedMany(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error)
	// Dimension reports the vector length produced by the configured model.
	Dimension() int
}

// VectorIndex wraps a remote vector-search capability.
type VectorIndex interface {
	// EnsureCollection creates the collection if needed. With recreate set,
	// any existing collection is deleted first; delete failures for a
	// missing collection are swallowed.
	EnsureCollection(ctx context.Context, dimension int, distance string, recreate bool) error
	// Exists reports whether the collection is present.
	Exists(ctx context.Context) (bool, error)
	// Upsert writes embedded chunks in batches. On failure it returns the
	// number of points written before the failing batch, allowing resumption.
	Upsert(ctx context.Context, chunks []EmbeddedChunk) (int, error)
	// Search returns up to limit results ordered by descending score.
	// A scoreThreshold of 0 disables the similarity floor.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter map[string]string) ([]RetrievedResult, error)
}

// Generator produces answer text from assembled context via a remote
// chat-completion capability.
type Generator interface {
	// Generate answers a full-book query. Returns the response text and a
	// heuristic confidence score in [0,1].
	Generate(ctx context.Context, query, docContext string) (string, float64, error)
	// GenerateForSelection answers a query focused on a highlighted passage.
	GenerateForSelection(ctx context.Context, query, docContext, selectedText string) (string, float64, error)
	// Available reports whether the completion capability is configured.
	Available() bool
}
