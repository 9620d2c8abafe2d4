// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"math"
	"strings"

	"github.com/pdiddy/cite-gate/internal/ocr"
	"github.com/pdiddy/cite-gate/internal/textnorm"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// Re-rank weights. Semantic chunks deliberately share the formula with
// annotations; see DESIGN.md for the ranking ambiguity this carries.
const (
	weightSimilarity = 0.60
	weightRelevance  = 0.28
	bonusCitation    = 0.08
	bonusNote        = 0.03
	penaltyArtifact  = 0.08
)

// categoryBonuses rewards curated annotation categories.
var categoryBonuses = map[string]float64{
	"evidence":    0.12,
	"key_quote":   0.10,
	"argument":    0.08,
	"methodology": 0.04,
}

const bonusOtherCategory = 0.02

// normalizeSimilarity maps a raw backend similarity onto [0,1]. Stores that
// report percentages are detected by values above 1.0.
func normalizeSimilarity(raw float64) float64 {
	if raw > 1.0 {
		raw = raw / 100.0
	}
	if raw < 0 {
		return 0
	}
	if raw > 1 {
		return 1
	}
	return raw
}

// scoreItem fills an item's OCR fields and ReRankScore in place. The score
// is a pure function of the item and question, rounded to 4 decimals.
func scoreItem(item *types.EvidenceItem, question string) {
	quote := item.QuoteText()

	item.HasOCRArtifact, item.OCRArtifactReasons = ocr.Detect(quote)

	relevance := textnorm.Overlap(question, quote+" "+item.Note+" "+item.DocumentFilename)

	score := weightSimilarity*item.SimilarityScore + weightRelevance*relevance
	if len(item.CitationData) > 0 {
		score += bonusCitation
	}
	if strings.TrimSpace(item.Note) != "" {
		score += bonusNote
	}
	score += categoryBonus(item.Category)
	if item.HasOCRArtifact {
		score -= penaltyArtifact
	}

	item.ReRankScore = math.Round(score*10000) / 10000
}

func categoryBonus(category string) float64 {
	if category == "" {
		return 0
	}
	if b, ok := categoryBonuses[category]; ok {
		return b
	}
	return bonusOtherCategory
}
