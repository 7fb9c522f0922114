// Package kb implements the knowledge-base retrieval feature: a heuristic
// text-relevance score over a small in-memory document set. The dashboard
// calls this "semantic search"; it is not — the naive scoring below, including
// its false-positive proneness on short tokens, is the contract. Do not swap
// in embeddings or vector search.
package kb

import (
	"strings"

	"github.com/confops/sponsor-pipeline/internal/model"
)

// Scoring weights.
const (
	fullQueryBonus  = 100 // document content contains the entire query
	tokenBonus      = 10  // per query token (>3 chars) found in content
	tagBonus        = 15  // per document tag found inside the query
	minTokenLength  = 4   // tokens shorter than this contribute nothing
	DefaultLimit    = 10
)

// Score ranks a document's textual match to a query:
//   - +100 if the lower-cased content contains the full lower-cased query
//   - +10 per whitespace-split query token longer than 3 characters that
//     appears as a substring of the content
//   - +15 per document tag whose lower-cased form appears in the query
func Score(doc model.Document, query string) int {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0
	}
	content := strings.ToLower(doc.Content)

	score := 0
	if strings.Contains(content, q) {
		score += fullQueryBonus
	}
	for _, token := range strings.Fields(q) {
		if len(token) < minTokenLength {
			continue
		}
		if strings.Contains(content, token) {
			score += tokenBonus
		}
	}
	for _, tag := range doc.Tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if strings.Contains(q, t) {
			score += tagBonus
		}
	}

	return score
}
