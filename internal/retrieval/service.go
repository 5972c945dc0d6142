package retrieval

import (
	"context"
	"fmt"
	"strings"

	"bookrag/internal/domain"
)

const (
	// Similarity floor for full-book retrieval.
	fullBookThreshold = 0.7
	// Lower floor for selection-biased retrieval; the lexical filter
	// removes the extra noise this admits.
	selectionThreshold = 0.6
	// Minimum shared words between a candidate chunk and the selected
	// passage for the candidate to survive the lexical pre-filter.
	minSharedWords = 3
)

// Service converts queries into ranked chunk results.
type Service struct {
	embedder domain.Embedder
	index    domain.VectorIndex
}

func New(embedder domain.Embedder, index domain.VectorIndex) *Service {
	return &Service{embedder: embedder, index: index}
}

// Retrieve runs the full-book strategy: embed the query and search with a
// fixed similarity floor.
func (s *Service) Retrieve(ctx context.Context, queryText string, maxResults int) ([]domain.RetrievedResult, error) {
	vector, err := s.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := s.index.Search(ctx, vector, maxResults, fullBookThreshold, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	return results, nil
}

// RetrieveForSelection runs the selected-text strategy: blend the query and
// selection embeddings into their element-wise mean, search with a lower
// similarity floor, then drop candidates sharing too few words with the
// selection. The blended vector balances what the user asked against what
// they are looking at; the lexical filter removes vector-similar but
// topically unrelated chunks.
func (s *Service) RetrieveForSelection(ctx context.Context, queryText, selectedText string, maxResults int) ([]domain.RetrievedResult, error) {
	queryVec, err := s.embedder.EmbedOne(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	selectedVec, err := s.embedder.EmbedOne(ctx, selectedText)
	if err != nil {
		return nil, fmt.Errorf("embed selection: %w", err)
	}
	if len(queryVec) != len(selectedVec) {
		return nil, fmt.Errorf("embedding dimension mismatch: %d vs %d", len(queryVec), len(selectedVec))
	}

	blended := make([]float32, len(queryVec))
	for i := range queryVec {
		blended[i] = (queryVec[i] + selectedVec[i]) / 2
	}

	candidates, err := s.index.Search(ctx, blended, maxResults, selectionThreshold, nil)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	selectedWords := tokenSet(selectedText)
	filtered := make([]domain.RetrievedResult, 0, len(candidates))
	for _, r := range candidates {
		if sharedWords(selectedWords, r.Payload.ChunkText) > minSharedWords {
			filtered = append(filtered, r)
		}
	}
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}
	return filtered, nil
}

// FormatContext renders results into the context block handed to the
// generator. An empty result list yields an empty string.
func (s *Service) FormatContext(results []domain.RetrievedResult) string {
	if len(results) == 0 {
		return ""
	}
	parts := make([]string, 0, len(results))
	for i, r := range results {
		parts = append(parts, fmt.Sprintf("[Source %d: %s - %s (relevance: %.2f)]\n%s\n",
			i+1, r.Payload.ChapterTitle, r.Payload.SectionType, r.Score, r.Payload.ChunkText))
	}
	return strings.Join(parts, "\n---\n")
}

func tokenSet(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func sharedWords(selected map[string]struct{}, chunkText string) int {
	count := 0
	for w := range tokenSet(chunkText) {
		if _, ok := selected[w]; ok {
			count++
		}
	}
	return count
}
