package service

import (
	"context"
	"fmt"

	"bookrag/internal/domain"
	"bookrag/internal/retrieval"
	"bookrag/internal/selection"
)

// RAGService sequences retrieval, selection filtering, context assembly,
// generation and citation extraction for a single query.
type RAGService struct {
	embedder  domain.Embedder
	index     domain.VectorIndex
	generator domain.Generator
	retrieval *retrieval.Service
	selection *selection.Handler
}

func NewRAGService(embedder domain.Embedder, index domain.VectorIndex, generator domain.Generator) *RAGService {
	return &RAGService{
		embedder:  embedder,
		index:     index,
		generator: generator,
		retrieval: retrieval.New(embedder, index),
		selection: selection.NewHandler(0),
	}
}

// ProcessQuery runs the full pipeline. Validation failures are rejected
// before any remote call; any later step error aborts the query with no
// partial answer.
func (s *RAGService) ProcessQuery(ctx context.Context, query domain.Query) (domain.Answer, error) {
	if err := query.Validate(); err != nil {
		return domain.Answer{}, err
	}

	selectionMode := query.Mode == domain.ModeSelectedText && query.SelectedText != ""

	var results []domain.RetrievedResult
	var err error
	if selectionMode {
		// Over-fetch so the lexical re-rank has candidates to discard.
		candidates, rerr := s.retrieval.RetrieveForSelection(ctx, query.Text, query.SelectedText, query.MaxResults*2)
		if rerr != nil {
			return domain.Answer{}, fmt.Errorf("retrieval: %w", rerr)
		}
		results = s.selection.FilterBySelection(candidates, query.SelectedText, query.MaxResults)
	} else {
		results, err = s.retrieval.Retrieve(ctx, query.Text, query.MaxResults)
		if err != nil {
			return domain.Answer{}, fmt.Errorf("retrieval: %w", err)
		}
	}

	docContext := s.retrieval.FormatContext(results)
	if selectionMode {
		docContext = s.selection.EnhanceContext(docContext, query.SelectedText)
	}

	var responseText string
	var confidence float64
	if selectionMode {
		responseText, confidence, err = s.generator.GenerateForSelection(ctx, query.Text, docContext, query.SelectedText)
	} else {
		responseText, confidence, err = s.generator.Generate(ctx, query.Text, docContext)
	}
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generation: %w", err)
	}

	return domain.Answer{
		ResponseText:    responseText,
		SourceCitations: extractCitations(results),
		ConfidenceScore: confidence,
		SessionID:       query.SessionID,
		RetrievedChunks: len(results),
	}, nil
}

// extractCitations builds one citation per result, preserving order.
// Payloads are already defaulted by the index adapter.
func extractCitations(results []domain.RetrievedResult) []domain.SourceCitation {
	citations := make([]domain.SourceCitation, 0, len(results))
	for _, r := range results {
		p := r.Payload.WithDefaults()
		citations = append(citations, domain.SourceCitation{
			ChapterID:      p.ChapterID,
			ChapterTitle:   p.ChapterTitle,
			ModuleID:       p.ModuleID,
			SectionType:    p.SectionType,
			FilePath:       p.FilePath,
			ChunkText:      p.ChunkText,
			RelevanceScore: r.Score,
		})
	}
	return citations
}

// HealthCheck probes each dependency independently; a degraded dependency
// never blocks evaluation of the others.
func (s *RAGService) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{
		"vector_store":       "unknown",
		"embedder":           "unknown",
		"response_generator": "unknown",
	}

	if exists, err := s.index.Exists(ctx); err != nil {
		status["vector_store"] = "error: " + err.Error()
	} else if exists {
		status["vector_store"] = "healthy"
	} else {
		status["vector_store"] = "no_collection"
	}

	if vector, err := s.embedder.EmbedOne(ctx, "test"); err != nil {
		status["embedder"] = "error: " + err.Error()
	} else if len(vector) == 0 {
		status["embedder"] = "error: empty embedding"
	} else {
		status["embedder"] = "healthy"
	}

	if s.generator.Available() {
		status["response_generator"] = "healthy"
	} else {
		status["response_generator"] = "error: unavailable"
	}

	return status
}
