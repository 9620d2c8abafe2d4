// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify classifies draft quotations against retrieved evidence.
// Every draft quote ends in exactly one of five terminal states; matching is
// literal and truncation-aware, never semantic. The caller must treat any
// state other than EXACT_MATCH or TRUNCATED_OK as a verification failure.
package verify

import (
	"math"
	"regexp"
	"strings"

	"github.com/pdiddy/cite-gate/internal/ocr"
	"github.com/pdiddy/cite-gate/internal/textnorm"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// SourceQuote is one annotation's canonical quotable text.
type SourceQuote struct {
	AnnotationID string
	Text         string
}

// SourcesFromPacket extracts source quotes from a packet's annotations in
// packet order. Semantic chunks are not citation-ready and are excluded.
func SourcesFromPacket(packet *types.EvidencePacket) []SourceQuote {
	var sources []SourceQuote
	for _, e := range packet.Annotations() {
		text := e.QuoteText()
		if strings.TrimSpace(text) == "" {
			continue
		}
		sources = append(sources, SourceQuote{AnnotationID: e.AnnotationID, Text: text})
	}
	return sources
}

// markerRe matches the recognized truncation markers. The bracketed forms
// must come first so "[...]" is not consumed as "...".
var markerRe = regexp.MustCompile(`\[\.\.\.\]|\[…\]|\.\.\.|…`)

// Remediation notes for failing states.
const (
	noteExpanded = "Draft adds unverified prose around the source quote; trim the quote to the verbatim source text or move the additions outside the quotation marks."
	noteSourceMismatch = "Cited annotation exists but its text diverges from the draft quote; re-copy the quote verbatim from the annotation."
	noteMismatch = "No source matches this quote; quote verbatim from a retrieved annotation or drop the quotation."
)

// Verify classifies each draft quote against the source quotes, in input
// order, and aggregates pass/fail counts.
func Verify(quotes []types.DraftQuote, sources []SourceQuote) types.VerificationReport {
	var report types.VerificationReport
	for i, q := range quotes {
		result := classify(i, q, sources)
		if result.Status.Passing() {
			report.Passed++
		} else {
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}
	return report
}

// classify assigns exactly one terminal state. States are tried in
// precedence order against every candidate source before falling to the
// next state; within a state the first matching source wins, scanning
// sources in the given order. An exact match on any source therefore can
// never be shadowed by a weaker state on an earlier source. A declared
// SourceAnnotationID hard-filters the candidate sources.
func classify(index int, quote types.DraftQuote, sources []SourceQuote) types.VerificationResult {
	result := types.VerificationResult{
		QuoteIndex:         index,
		DraftText:          quote.Text,
		SourceAnnotationID: quote.SourceAnnotationID,
	}

	var candidates []SourceQuote
	for _, s := range sources {
		if quote.SourceAnnotationID != "" && s.AnnotationID != quote.SourceAnnotationID {
			continue
		}
		candidates = append(candidates, s)
	}

	// Exact: character-for-character, no normalization.
	for _, s := range candidates {
		if quote.Text == s.Text {
			return matched(result, types.StatusExactMatch, s, "")
		}
	}

	// Truncated, normalization form: strip markers, collapse whitespace,
	// require a literal substring of the source.
	stripped := textnorm.CollapseWhitespace(markerRe.ReplaceAllString(quote.Text, " "))
	if stripped != "" {
		for _, s := range candidates {
			if strings.Contains(textnorm.CollapseWhitespace(s.Text), stripped) {
				return matched(result, types.StatusTruncatedOK, s, "")
			}
		}
	}

	// Truncated, ordered-segments form: every marker-delimited segment must
	// appear in the source strictly after the previous match.
	segments := splitSegments(quote.Text)
	if len(segments) >= 2 {
		for _, s := range candidates {
			if segmentsInOrder(segments, textnorm.CollapseWhitespace(s.Text)) {
				return matched(result, types.StatusTruncatedOK, s, "")
			}
		}
	}

	// Expanded: the source is a substring of the draft — the draft wraps
	// verified words in unverified prose.
	for _, s := range candidates {
		if s.Text != "" && strings.Contains(quote.Text, s.Text) {
			return matched(result, types.StatusExpandedError, s, noteExpanded)
		}
	}

	if quote.SourceAnnotationID != "" {
		result.Status = types.StatusSourceMismatch
		result.Note = noteSourceMismatch
		return result
	}

	// Mismatch: report the single closest source over every source quote.
	result.Status = types.StatusMismatch
	result.Note = noteMismatch
	best := -1.0
	for _, s := range sources {
		if sim := positionalSimilarity(quote.Text, s.Text); sim > best {
			best = sim
			result.MatchedAnnotationID = s.AnnotationID
			result.MatchedText = s.Text
			result.Similarity = math.Round(sim*10000) / 10000
		}
	}
	return result
}

// matched fills the common fields of a result that found its source. The
// OCR warning is always computed over the source text, never the draft.
func matched(result types.VerificationResult, status types.VerificationStatus, s SourceQuote, note string) types.VerificationResult {
	result.Status = status
	result.MatchedAnnotationID = s.AnnotationID
	result.MatchedText = s.Text
	result.Note = note
	result.OCR.HasArtifact, result.OCR.Reasons = ocr.Detect(s.Text)
	return result
}

// splitSegments splits draft text on truncation markers into non-empty,
// whitespace-collapsed segments. Edge punctuation is trimmed so a quote's
// own terminal period does not have to appear mid-source.
func splitSegments(text string) []string {
	var segments []string
	for _, part := range markerRe.Split(text, -1) {
		seg := textnorm.CollapseWhitespace(part)
		seg = strings.Trim(seg, ".,;:!?\"'")
		seg = strings.TrimSpace(seg)
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// segmentsInOrder reports whether every segment occurs in source with a
// monotonically advancing cursor: each match must start after the end of
// the previous one. Reordered or fabricated fragments fail.
func segmentsInOrder(segments []string, source string) bool {
	cursor := 0
	for _, seg := range segments {
		idx := strings.Index(source[cursor:], seg)
		if idx < 0 {
			return false
		}
		cursor += idx + len(seg)
	}
	return true
}

// positionalSimilarity is the character-overlap ratio used to pick the
// closest source for a mismatch: matching positions divided by the longer
// length. It is deliberately positional, not edit distance.
func positionalSimilarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 0
	}

	n := len(ra)
	if len(rb) < n {
		n = len(rb)
	}
	matches := 0
	for i := 0; i < n; i++ {
		if ra[i] == rb[i] {
			matches++
		}
	}
	return float64(matches) / float64(longer)
}
