package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/iwilltry42/bm25-go/bm25"

	"github.com/genocem/Edumond-AI-portal/internal/stringutil"
)

// SearchHit is one keyword search result.
type SearchHit struct {
	ID    string
	Score float64 // BM25 score, higher is better
	Rank  int     // 1-indexed
}

// SearchIndex provides BM25 keyword search over course text.
// It is immutable once built.
type SearchIndex struct {
	okapi *bm25.BM25Okapi
	ids   []string // document index -> course id
}

// NewSearchIndex indexes name, description, format and curriculum highlights.
// An empty course list yields an index that returns no hits.
func NewSearchIndex(courses []Course) (*SearchIndex, error) {
	idx := &SearchIndex{}
	if len(courses) == 0 {
		return idx, nil
	}

	corpus := make([]string, 0, len(courses))
	for _, c := range courses {
		parts := []string{c.Name, c.Description, c.Format}
		parts = append(parts, c.CurriculumHighlights...)
		corpus = append(corpus, strings.Join(parts, " "))
		idx.ids = append(idx.ids, c.ID)
	}

	// k1=1.5, b=0.75 are standard BM25 parameters
	okapi, err := bm25.NewBM25Okapi(corpus, stringutil.Tokenize, 1.5, 0.75, nil)
	if err != nil {
		return nil, fmt.Errorf("create BM25 index: %w", err)
	}
	idx.okapi = okapi
	return idx, nil
}

// Search returns courses with a positive score for query, best first.
// topN <= 0 returns every hit.
func (idx *SearchIndex) Search(query string, topN int) ([]SearchHit, error) {
	if idx == nil || idx.okapi == nil {
		return nil, nil
	}

	tokens := stringutil.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	scores, err := idx.okapi.GetScores(tokens)
	if err != nil {
		return nil, fmt.Errorf("BM25 scoring failed: %w", err)
	}

	var hits []SearchHit
	for docID, score := range scores {
		if score > 0 && docID < len(idx.ids) {
			hits = append(hits, SearchHit{ID: idx.ids[docID], Score: score})
		}
	}

	// Stable keeps catalog order among equal scores
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	for i := range hits {
		hits[i].Rank = i + 1
	}
	if topN > 0 && len(hits) > topN {
		hits = hits[:topN]
	}
	return hits, nil
}
