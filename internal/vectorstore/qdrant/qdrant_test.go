package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookrag/internal/domain"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	body   map[string]any
	apiKey string
}

func newTestServer(t *testing.T, respond func(r recordedRequest) any) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var requests []recordedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			apiKey: r.Header.Get("api-key"),
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.body)
		}
		requests = append(requests, rec)
		w.Header().Set("Content-Type", "application/json")
		resp := respond(rec)
		if resp == nil {
			resp = map[string]any{"result": true, "status": "ok"}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func TestEnsureCollection(t *testing.T) {
	srv, requests := newTestServer(t, func(recordedRequest) any { return nil })
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters", APIKey: "qd-key"})

	require.NoError(t, ix.EnsureCollection(context.Background(), 1536, "", true))

	reqs := *requests
	require.Len(t, reqs, 2, "recreate deletes before creating")
	assert.Equal(t, http.MethodDelete, reqs[0].method)
	assert.Equal(t, "/collections/chapters", reqs[0].path)
	assert.Equal(t, http.MethodPut, reqs[1].method)
	assert.Equal(t, "qd-key", reqs[1].apiKey)

	vectors := reqs[1].body["vectors"].(map[string]any)
	assert.Equal(t, float64(1536), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"], "empty distance falls back to Cosine")
}

func TestEnsureCollectionInvalidDimension(t *testing.T) {
	ix := NewIndex(Config{URL: "http://localhost:0", Collection: "chapters"})
	assert.Error(t, ix.EnsureCollection(context.Background(), 0, "Cosine", false))
}

func TestExists(t *testing.T) {
	srv, _ := newTestServer(t, func(recordedRequest) any {
		return map[string]any{"result": map[string]any{"collections": []map[string]any{
			{"name": "other"},
			{"name": "chapters"},
		}}}
	})
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	exists, err := ix.Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, exists)

	ix = NewIndex(Config{URL: srv.URL, Collection: "missing"})
	exists, err = ix.Exists(context.Background())
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertSendsPoints(t *testing.T) {
	srv, requests := newTestServer(t, func(recordedRequest) any { return nil })
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	chunk := domain.Chunk{
		ChapterID:   "ch1",
		SectionType: "concepts",
		Index:       0,
		Text:        "ROS 2 uses DDS.",
		WordCount:   4,
	}
	done, err := ix.Upsert(context.Background(), []domain.EmbeddedChunk{{Chunk: chunk, Vector: []float32{1, 0, 0}}})
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	reqs := *requests
	require.Len(t, reqs, 1)
	assert.Equal(t, "/collections/chapters/points", reqs[0].path)
	assert.Equal(t, "wait=true", reqs[0].query)

	points := reqs[0].body["points"].([]any)
	require.Len(t, points, 1)
	point := points[0].(map[string]any)
	payload := point["payload"].(map[string]any)
	assert.Equal(t, "ch1", payload["chapter_id"])
	assert.Equal(t, "ROS 2 uses DDS.", payload["chunk_text"])
}

func TestUpsertRejectsMissingVector(t *testing.T) {
	srv, requests := newTestServer(t, func(recordedRequest) any { return nil })
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	done, err := ix.Upsert(context.Background(), []domain.EmbeddedChunk{
		{Chunk: domain.Chunk{ChapterID: "ch1", SectionType: "concepts"}, Vector: []float32{1}},
		{Chunk: domain.Chunk{ChapterID: "ch2", SectionType: "concepts"}},
	})
	require.Error(t, err)
	assert.Zero(t, done)
	assert.Empty(t, *requests, "validation happens before any write")
}

func TestSearch(t *testing.T) {
	srv, requests := newTestServer(t, func(r recordedRequest) any {
		return map[string]any{"result": []map[string]any{
			{"id": 7, "score": 0.91, "payload": map[string]any{"chapter_id": "ch1", "chunk_text": "body"}},
			{"id": 8, "score": 0.82, "payload": map[string]any{}},
		}}
	})
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	results, err := ix.Search(context.Background(), []float32{1, 0}, 5, 0.7, map[string]string{"module_id": "module-01"})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(7), results[0].ID)
	assert.Equal(t, 0.91, results[0].Score)
	assert.Equal(t, "ch1", results[0].Payload.ChapterID)
	assert.Equal(t, "unknown", results[1].Payload.ChapterID, "missing payload fields take defaults")

	reqs := *requests
	require.Len(t, reqs, 1)
	assert.Equal(t, "/collections/chapters/points/search", reqs[0].path)
	assert.Equal(t, float64(0.7), reqs[0].body["score_threshold"])
	assert.Equal(t, true, reqs[0].body["with_payload"])
	filter := reqs[0].body["filter"].(map[string]any)
	must := filter["must"].([]any)
	require.Len(t, must, 1)
	clause := must[0].(map[string]any)
	assert.Equal(t, "module_id", clause["key"])
}

func TestSearchOmitsZeroThreshold(t *testing.T) {
	srv, requests := newTestServer(t, func(recordedRequest) any {
		return map[string]any{"result": []map[string]any{}}
	})
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	_, err := ix.Search(context.Background(), []float32{1, 0}, 0, 0, nil)
	require.NoError(t, err)

	reqs := *requests
	require.Len(t, reqs, 1)
	_, hasThreshold := reqs[0].body["score_threshold"]
	assert.False(t, hasThreshold, "zero threshold disables the similarity floor")
	assert.Equal(t, float64(5), reqs[0].body["limit"], "non-positive limit defaults to 5")
}

func TestServerErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	ix := NewIndex(Config{URL: srv.URL, Collection: "chapters"})

	_, err := ix.Search(context.Background(), []float32{1}, 5, 0, nil)
	assert.Error(t, err)
	_, err = ix.Exists(context.Background())
	assert.Error(t, err)
}
