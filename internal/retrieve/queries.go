// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strings"

	"github.com/pdiddy/cite-gate/internal/textnorm"
)

// probePhrases are appended to the question to widen lexical coverage. The
// order is fixed; query generation must be deterministic.
var probePhrases = []string{
	"primary source evidence",
	"counterargument evidence",
	"methodology limitations",
}

const (
	variantTokens = 6
	maxQueries    = 6
)

// BuildQueries derives the lexical query variants for a question: the
// whitespace-normalized question, head/tail token variants when the question
// has at least 4 significant tokens, and the question joined with each probe
// phrase. Duplicates are dropped first-seen, the list is capped at 6.
// The same question always yields the same list.
func BuildQueries(question string) []string {
	q := textnorm.CollapseWhitespace(question)
	if q == "" {
		return nil
	}

	candidates := []string{q}

	tokens := textnorm.Tokens(q)
	if len(tokens) >= 4 {
		head := tokens
		if len(head) > variantTokens {
			head = head[:variantTokens]
		}
		tail := tokens
		if len(tail) > variantTokens {
			tail = tail[len(tail)-variantTokens:]
		}
		candidates = append(candidates, strings.Join(head, " "), strings.Join(tail, " "))
	}

	for _, probe := range probePhrases {
		candidates = append(candidates, q+" "+probe)
	}

	seen := make(map[string]bool, len(candidates))
	var queries []string
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		queries = append(queries, c)
		if len(queries) == maxQueries {
			break
		}
	}
	return queries
}
