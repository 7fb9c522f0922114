package kb

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// Store is the persistence surface the searcher needs.
type Store interface {
	ListDocuments(ctx context.Context, documentType string) ([]model.Document, error)
}

// Result pairs a document with its relevance score.
type Result struct {
	Document model.Document `json:"document"`
	Score    int            `json:"score"`
}

// Searcher ranks knowledge-base documents against a query.
type Searcher struct {
	store Store
}

// NewSearcher creates a searcher over the given store.
func NewSearcher(store Store) *Searcher {
	return &Searcher{store: store}
}

// Query fetches documents (optionally filtered by type), scores each against
// the query, drops non-positive scores, and returns the top results sorted
// descending by score. Ties keep original fetch order (stable sort). A
// non-positive limit falls back to DefaultLimit.
func (s *Searcher) Query(ctx context.Context, query string, limit int, documentType string) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	docs, err := s.store.ListDocuments(ctx, documentType)
	if err != nil {
		return nil, eris.Wrap(err, "kb: list documents")
	}

	var results []Result
	for _, doc := range docs {
		score := Score(doc, query)
		if score <= 0 {
			continue
		}
		results = append(results, Result{Document: doc, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	zap.L().Debug("kb: query scored",
		zap.String("query", query),
		zap.Int("candidates", len(docs)),
		zap.Int("results", len(results)),
	)

	return results, nil
}
