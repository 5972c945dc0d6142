package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"bookrag/internal/domain"
)

const upsertBatchSize = 100

// Index is a minimal REST client to a Qdrant collection.
type Index struct {
	url        string
	apiKey     string
	collection string
	client     *http.Client

	// OnProgress, when set, is invoked after each upserted batch.
	OnProgress func(done, total int)
}

// Config contains connection details for a Qdrant vector index.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

func NewIndex(cfg Config) *Index {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Index{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

// EnsureCollection creates the collection with the given dimension and
// distance metric. With recreate set, any existing collection is deleted
// first; a failed delete of a missing collection is not an error.
func (ix *Index) EnsureCollection(ctx context.Context, dimension int, distance string, recreate bool) error {
	if dimension <= 0 {
		return errors.New("qdrant: invalid collection dimension")
	}
	if distance == "" {
		distance = "Cosine"
	}
	if recreate {
		req, _ := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), nil)
		ix.setHeaders(req)
		if resp, err := ix.client.Do(req); err == nil {
			resp.Body.Close()
		}
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": distance,
		},
	}
	return ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s", ix.url, ix.collection), body)
}

// Exists reports whether the collection is present on the server.
func (ix *Index) Exists(ctx context.Context) (bool, error) {
	var resp struct {
		Result struct {
			Collections []struct {
				Name string `json:"name"`
			} `json:"collections"`
		} `json:"result"`
	}
	if err := ix.getJSON(ctx, fmt.Sprintf("%s/collections", ix.url), &resp); err != nil {
		return false, err
	}
	for _, c := range resp.Result.Collections {
		if c.Name == ix.collection {
			return true, nil
		}
	}
	return false, nil
}

// Upsert writes embedded chunks in batches of 100. A chunk without an
// embedding is fatal before any point is written. On a batch failure the
// count of points already written is returned alongside the error.
func (ix *Index) Upsert(ctx context.Context, chunks []domain.EmbeddedChunk) (int, error) {
	points := make([]map[string]any, len(chunks))
	for i, c := range chunks {
		if len(c.Vector) == 0 {
			return 0, fmt.Errorf("qdrant: chunk %s has no embedding", c.CompositeID())
		}
		points[i] = map[string]any{
			"id":     c.PointID(),
			"vector": c.Vector,
			"payload": domain.Payload{
				ChapterID:    c.ChapterID,
				ChapterTitle: c.ChapterTitle,
				ModuleID:     c.ModuleID,
				SectionType:  c.SectionType,
				ChunkIndex:   c.Index,
				FilePath:     c.FilePath,
				Topics:       c.Topics,
				ChunkText:    c.Text,
				WordCount:    c.WordCount,
			},
		}
	}

	done := 0
	for i := 0; i < len(points); i += upsertBatchSize {
		end := i + upsertBatchSize
		if end > len(points) {
			end = len(points)
		}
		body := map[string]any{"points": points[i:end]}
		if err := ix.putJSON(ctx, fmt.Sprintf("%s/collections/%s/points?wait=true", ix.url, ix.collection), body); err != nil {
			return done, err
		}
		done = end
		if ix.OnProgress != nil {
			ix.OnProgress(done, len(points))
		}
	}
	return done, nil
}

// Search returns up to limit results ordered by descending similarity.
// A zero scoreThreshold disables the similarity floor.
func (ix *Index) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64, filter map[string]string) ([]domain.RetrievedResult, error) {
	if limit <= 0 {
		limit = 5
	}
	req := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if scoreThreshold > 0 {
		req["score_threshold"] = scoreThreshold
	}
	if len(filter) > 0 {
		var must []map[string]any
		for k, v := range filter {
			must = append(must, map[string]any{"key": k, "match": map[string]any{"value": v}})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			ID      uint64         `json:"id"`
			Score   float64        `json:"score"`
			Payload domain.Payload `json:"payload"`
		} `json:"result"`
	}
	if err := ix.postJSON(ctx, fmt.Sprintf("%s/collections/%s/points/search", ix.url, ix.collection), req, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.RetrievedResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, domain.RetrievedResult{
			ID:      r.ID,
			Score:   r.Score,
			Payload: r.Payload.WithDefaults(),
		})
	}
	return results, nil
}

func (ix *Index) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if ix.apiKey != "" {
		req.Header.Set("api-key", ix.apiKey)
	}
}

func (ix *Index) putJSON(ctx context.Context, url string, body any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	ix.setHeaders(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant PUT %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant PUT %s failed: %s", url, resp.Status)
	}
	return nil
}

func (ix *Index) postJSON(ctx context.Context, url string, body, out any) error {
	data, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	ix.setHeaders(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant POST %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (ix *Index) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	ix.setHeaders(req)
	resp, err := ix.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant GET %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant GET %s failed: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
