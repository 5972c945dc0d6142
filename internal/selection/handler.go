package selection

import (
	"fmt"
	"sort"
	"strings"

	"bookrag/internal/domain"
)

const defaultOverlapThreshold = 0.3

// stopWords are dropped during keyword extraction.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {},
	"been": {}, "be": {}, "have": {}, "has": {}, "had": {}, "do": {},
	"does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "this": {},
	"that": {}, "these": {}, "those": {}, "i": {}, "you": {}, "he": {},
	"she": {}, "it": {}, "we": {}, "they": {}, "what": {}, "which": {},
	"who": {}, "when": {}, "where": {}, "why": {}, "how": {},
}

// Handler re-ranks retrieval results against a highlighted passage using a
// hybrid of vector similarity and lexical overlap.
type Handler struct {
	overlapThreshold float64
}

// NewHandler creates a handler. A non-positive threshold selects the
// default of 0.3.
func NewHandler(overlapThreshold float64) *Handler {
	if overlapThreshold <= 0 {
		overlapThreshold = defaultOverlapThreshold
	}
	return &Handler{overlapThreshold: overlapThreshold}
}

type scored struct {
	result   domain.RetrievedResult
	overlap  float64
	combined float64
}

// FilterBySelection sorts results by combined score (0.6 vector + 0.4
// lexical overlap) and keeps those whose overlap with the selection meets
// the threshold. When the filter would remove every candidate, the top
// candidates by combined score are returned instead; a non-empty input
// never yields an empty output.
func (h *Handler) FilterBySelection(results []domain.RetrievedResult, selectedText string, maxResults int) []domain.RetrievedResult {
	if selectedText == "" || len(results) == 0 {
		if len(results) > maxResults {
			return results[:maxResults]
		}
		return results
	}

	keywords := ExtractKeywords(selectedText)

	ranked := make([]scored, len(results))
	for i, r := range results {
		overlap := OverlapScore(r.Payload.ChunkText, keywords)
		ranked[i] = scored{
			result:   r,
			overlap:  overlap,
			combined: CombinedScore(r.Score, overlap),
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].combined > ranked[j].combined })

	filtered := make([]scored, 0, len(ranked))
	for _, s := range ranked {
		if s.overlap >= h.overlapThreshold {
			filtered = append(filtered, s)
		}
	}
	if len(filtered) == 0 {
		filtered = ranked
	}
	if len(filtered) > maxResults {
		filtered = filtered[:maxResults]
	}

	out := make([]domain.RetrievedResult, len(filtered))
	for i, s := range filtered {
		out[i] = s.result
	}
	return out
}

// CombinedScore blends vector similarity with lexical overlap.
func CombinedScore(vectorScore, overlapScore float64) float64 {
	return vectorScore*0.6 + overlapScore*0.4
}

// ExtractKeywords lowercases and tokenizes text, dropping stop words and
// tokens of two characters or fewer.
func ExtractKeywords(text string) map[string]struct{} {
	words := strings.Fields(strings.ToLower(text))
	keywords := make(map[string]struct{}, len(words))
	for _, w := range words {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}
	return keywords
}

// OverlapScore is the Jaccard similarity between the chunk's token set and
// the selection's keyword set.
func OverlapScore(chunkText string, keywords map[string]struct{}) float64 {
	if len(keywords) == 0 {
		return 0
	}
	chunkWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(chunkText)) {
		chunkWords[w] = struct{}{}
	}
	return Jaccard(chunkWords, keywords)
}

// Jaccard is |intersection| / |union| over two token sets, 0 when the
// union is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// EnhanceContext prepends the highlighted passage block to the retrieval
// context.
func (h *Handler) EnhanceContext(baseContext, selectedText string) string {
	return fmt.Sprintf(`HIGHLIGHTED PASSAGE (User's Focus):
%s

---

RELATED CONTENT FROM TEXTBOOK:
%s`, selectedText, baseContext)
}

// ValidateSelectionFocus reports the fraction of selection keywords that
// reappear in the response. Diagnostic only; 0.5 when the selection has no
// extractable keywords.
func (h *Handler) ValidateSelectionFocus(responseText, selectedText string) float64 {
	keywords := ExtractKeywords(selectedText)
	if len(keywords) == 0 {
		return 0.5
	}
	responseWords := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(responseText)) {
		responseWords[w] = struct{}{}
	}
	found := 0
	for w := range keywords {
		if _, ok := responseWords[w]; ok {
			found++
		}
	}
	score := float64(found) / float64(len(keywords))
	if score > 1 {
		score = 1
	}
	return score
}
