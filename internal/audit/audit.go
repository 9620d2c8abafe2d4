// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit checks a draft's claim sentences against an evidence packet.
// It is lexical only: heuristics over token overlap, not entailment.
package audit

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/cite-gate/internal/textnorm"
	"github.com/pdiddy/cite-gate/pkg/types"
)

const (
	// minClaimTokens is the significant-token floor below which a sentence is
	// not treated as a claim.
	minClaimTokens = 6

	// topSupportRefs is how many best-overlapping evidence items back a claim.
	topSupportRefs = 3

	// minSupportScore is the weak-evidence threshold on the top-3 mean.
	minSupportScore = 0.16

	// contradictionOverlap is the minimum overlap for an evidence item to be
	// considered related enough to contradict an absolute claim.
	contradictionOverlap = 0.22
)

var (
	// Recognized citation marker syntaxes, checked once per paragraph.
	footnoteMarkerRe = regexp.MustCompile(`\[\^[^\]\s]+\]`)
	parenYearRe      = regexp.MustCompile(`\([^)]*\b\d{4}\b[^)]*\)`)
	numericRefRe     = regexp.MustCompile(`\[\d{1,3}\]`)

	absoluteTermRe = regexp.MustCompile(`(?i)\b(always|never|only|all|none|must|cannot)\b`)
	hedgeTermRe    = regexp.MustCompile(`(?i)\b(however|although|but|yet|nevertheless|some|many|often)\b`)

	quoteOpeners = `"'` + "“‘"
)

// Audit segments the draft into claim sentences and grades each one against
// the packet's evidence. Verification failures are results, not errors, so
// Audit itself cannot fail.
func Audit(draft string, packet *types.EvidencePacket) types.AuditReport {
	report := types.AuditReport{Status: types.AuditPass}

	var evidence []types.EvidenceItem
	if packet != nil {
		evidence = packet.Evidence
	}

	for _, para := range Paragraphs(draft) {
		hasMarker := hasCitationMarker(para.Text)

		for _, sentence := range para.Sentences {
			if !isClaim(sentence) {
				continue
			}

			claim := types.ClaimAudit{
				Sentence:          sentence,
				ParagraphIndex:    para.Index,
				HasCitationMarker: hasMarker,
			}
			claim.SupportScore, claim.SupportRefs = supportScore(sentence, evidence)

			if !hasMarker {
				claim.Issues = append(claim.Issues, types.IssueMissingCitationMarker)
			}
			if claim.SupportScore < minSupportScore {
				claim.Issues = append(claim.Issues, types.IssueWeakOrMissingEvidence)
			}
			if contradictsEvidence(sentence, evidence) {
				claim.Issues = append(claim.Issues, types.IssuePotentialContradiction)
			}

			claim.Severity = severity(claim.Issues)
			switch claim.Severity {
			case types.SeverityOK:
				report.Counts.OK++
			case types.SeverityMedium:
				report.Counts.Medium++
			case types.SeverityHigh:
				report.Counts.High++
			}
			report.Claims = append(report.Claims, claim)
		}
	}

	switch {
	case report.Counts.High > 0:
		report.Status = types.AuditFail
	case report.Counts.Medium > 0:
		report.Status = types.AuditWarn
	}
	return report
}

// isClaim filters sentences worth auditing: not quote-initial and carrying at
// least 6 significant tokens.
func isClaim(sentence string) bool {
	first, _ := utf8.DecodeRuneInString(sentence)
	if strings.ContainsRune(quoteOpeners, first) {
		return false
	}
	return len(textnorm.Tokens(sentence)) >= minClaimTokens
}

func hasCitationMarker(paragraph string) bool {
	return footnoteMarkerRe.MatchString(paragraph) ||
		parenYearRe.MatchString(paragraph) ||
		numericRefRe.MatchString(paragraph)
}

// supportScore is the mean of the top-3 positive lexical overlaps between the
// sentence and each item's text plus note, with the refs behind them. No
// positive overlap means 0.0 support and no refs.
func supportScore(sentence string, evidence []types.EvidenceItem) (float64, []string) {
	type scored struct {
		score float64
		ref   string
	}

	var candidates []scored
	for _, item := range evidence {
		ov := textnorm.Overlap(sentence, item.QuoteText()+" "+item.Note)
		if ov > 0 {
			candidates = append(candidates, scored{score: ov, ref: evidenceRef(item)})
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if len(candidates) > topSupportRefs {
		candidates = candidates[:topSupportRefs]
	}

	var sum float64
	refs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		sum += c.score
		refs = append(refs, c.ref)
	}
	return math.Round(sum/float64(len(candidates))*10000) / 10000, refs
}

// contradictsEvidence flags absolute claims whose related evidence hedges.
// The condition requires related evidence: an absolute sentence with no
// overlapping items is not a contradiction.
func contradictsEvidence(sentence string, evidence []types.EvidenceItem) bool {
	if !absoluteTermRe.MatchString(sentence) {
		return false
	}
	for _, item := range evidence {
		blob := item.QuoteText() + " " + item.Note
		if textnorm.Overlap(sentence, blob) >= contradictionOverlap && hedgeTermRe.MatchString(blob) {
			return true
		}
	}
	return false
}

// severity grades the issue set. Weak evidence is always high, any other
// issue is medium.
func severity(issues []types.ClaimIssue) types.Severity {
	if len(issues) == 0 {
		return types.SeverityOK
	}
	for _, issue := range issues {
		if issue == types.IssueWeakOrMissingEvidence {
			return types.SeverityHigh
		}
	}
	return types.SeverityMedium
}

func evidenceRef(item types.EvidenceItem) string {
	if item.AnnotationID != "" {
		return item.AnnotationID
	}
	return fmt.Sprintf("rank-%d", item.Rank)
}
