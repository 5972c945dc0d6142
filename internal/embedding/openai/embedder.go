package openai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultBatchSize = 100

// Embedder generates embeddings through the OpenAI embeddings API.
type Embedder struct {
	client    *openai.Client
	model     string
	batchSize int
}

// Config configures the embedding client.
type Config struct {
	APIKey    string
	Model     string
	BatchSize int
}

// NewEmbedder creates an embedding client. The model defaults to
// text-embedding-ada-002 and the batch size to 100.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai embedder: missing API key")
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-ada-002"
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &Embedder{
		client:    openai.NewClient(cfg.APIKey),
		model:     cfg.Model,
		batchSize: cfg.BatchSize,
	}, nil
}

// Dimension reports the vector length for the configured model. Unknown
// models fall back to 1536.
func (e *Embedder) Dimension() int {
	return ModelDimension(e.model)
}

// ModelDimension maps an embedding model name to its output dimensionality.
func ModelDimension(model string) int {
	switch {
	case model == "text-embedding-ada-002":
		return 1536
	case strings.HasPrefix(model, "text-embedding-3-small"):
		return 1536
	case strings.HasPrefix(model, "text-embedding-3-large"):
		return 3072
	default:
		return 1536
	}
}

// EmbedOne returns the embedding for a single text.
func (e *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedMany embeds texts in batches, preserving input order. The progress
// callback, when non-nil, fires after each completed batch.
func (e *Embedder) EmbedMany(ctx context.Context, texts []string, progress func(done, total int)) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.batchSize {
		end := i + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		all = append(all, vectors...)
		if progress != nil {
			progress(len(all), len(texts))
		}
	}
	return all, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	// Embedding models are sensitive to raw newlines.
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = strings.ReplaceAll(t, "\n", " ")
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: cleaned,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(cleaned) {
		return nil, fmt.Errorf("openai embeddings: got %d vectors for %d inputs", len(resp.Data), len(cleaned))
	}
	vectors := make([][]float32, len(resp.Data))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(vectors) {
			return nil, fmt.Errorf("openai embeddings: vector index %d out of range", d.Index)
		}
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}
