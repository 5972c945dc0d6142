package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"bookrag/internal/domain"
)

// Index is an in-memory vector index using brute-force cosine similarity.
// It mirrors the remote index's id and payload semantics and is used by
// tests and local development.
type Index struct {
	mu        sync.RWMutex
	dimension int
	created   bool
	points    map[uint64]point
	order     []uint64
}

type point struct {
	vector  []float32
	payload domain.Payload
}

func NewIndex() *Index { return &Index{points: make(map[uint64]point)} }

func (ix *Index) EnsureCollection(_ context.Context, dimension int, _ string, recreate bool) error {
	if dimension <= 0 {
		return errors.New("memory: invalid collection dimension")
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if recreate || !ix.created {
		ix.points = make(map[uint64]point)
		ix.order = nil
	}
	ix.dimension = dimension
	ix.created = true
	return nil
}

func (ix *Index) Exists(_ context.Context) (bool, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.created, nil
}

func (ix *Index) Upsert(_ context.Context, chunks []domain.EmbeddedChunk) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if !ix.created {
		return 0, errors.New("memory: collection does not exist")
	}
	done := 0
	for _, c := range chunks {
		if len(c.Vector) == 0 {
			return done, errors.New("memory: chunk " + c.CompositeID() + " has no embedding")
		}
		if len(c.Vector) != ix.dimension {
			return done, errors.New("memory: vector dimension mismatch")
		}
		id := c.PointID()
		if _, exists := ix.points[id]; !exists {
			ix.order = append(ix.order, id)
		}
		ix.points[id] = point{
			vector: c.Vector,
			payload: domain.Payload{
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
		done++
	}
	return done, nil
}

func (ix *Index) Search(_ context.Context, vector []float32, limit int, scoreThreshold float64, filter map[string]string) ([]domain.RetrievedResult, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if limit <= 0 {
		limit = 5
	}
	var results []domain.RetrievedResult
	for _, id := range ix.order {
		p := ix.points[id]
		if !matchesFilter(p.payload, filter) {
			continue
		}
		score := cosine(vector, p.vector)
		if scoreThreshold > 0 && score < scoreThreshold {
			continue
		}
		results = append(results, domain.RetrievedResult{ID: id, Score: score, Payload: p.payload.WithDefaults()})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func matchesFilter(p domain.Payload, filter map[string]string) bool {
	for k, v := range filter {
		switch k {
		case "chapter_id":
			if p.ChapterID != v {
				return false
			}
		case "module_id":
			if p.ModuleID != v {
				return false
			}
		case "section_type":
			if p.SectionType != v {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
