// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package eval runs a benchmark suite against the retrieval pipeline and
// grades each case on evidence volume and required-term recall. A case
// passes when the packet holds at least minEvidence items and the recall of
// its mustIncludeTerms meets minRecall.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/pdiddy/cite-gate/internal/retrieve"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// Case defaults applied when the suite leaves a field at zero.
const (
	defaultCaseTop     = 30
	defaultMinEvidence = 5
	defaultMinRecall   = 0.5
)

// Case is one benchmark scenario in a suite file.
type Case struct {
	// Name labels the case in reports. Defaults to "unnamed-case".
	Name string `json:"name"`

	// Question is the research question to retrieve for. Required.
	Question string `json:"question"`

	// Queries overrides the generated query variants when non-empty.
	Queries []string `json:"queries,omitempty"`

	// ProjectID overrides the run-level project for this case.
	ProjectID string `json:"projectId,omitempty"`

	// Top is the packet size after ranking (default 30).
	Top int `json:"top,omitempty"`

	// IncludeSemantic controls semantic expansion (default true).
	IncludeSemantic *bool `json:"includeSemantic,omitempty"`

	// MinEvidence is the minimum packet size to pass (default 5).
	MinEvidence int `json:"minEvidence,omitempty"`

	// MustIncludeTerms are substrings the packet corpus must contain.
	MustIncludeTerms []string `json:"mustIncludeTerms,omitempty"`

	// MinRecall is the required-term recall threshold (default 0.5).
	MinRecall float64 `json:"minRecall,omitempty"`
}

// Suite is a benchmark suite file.
type Suite struct {
	Cases []Case `json:"cases"`
}

// CaseResult grades one case.
type CaseResult struct {
	Name               string             `json:"name"`
	Question           string             `json:"question"`
	Passed             bool               `json:"passed"`
	EvidenceCount      int                `json:"evidenceCount"`
	MinEvidence        int                `json:"minEvidence"`
	RequiredTermRecall float64            `json:"requiredTermRecall"`
	MinRecall          float64            `json:"minRecall"`
	AvgReRankScore     float64            `json:"avgReRankScore"`
	TopQuote           string             `json:"topQuote"`
	Counts             types.PacketCounts `json:"counts"`
}

// Totals aggregates pass/fail counts over a run.
type Totals struct {
	Cases  int `json:"cases"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Summary is the full evaluation run, serialized as the JSON report.
type Summary struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Suite       string       `json:"suite"`
	Results     []CaseResult `json:"results"`
	Totals      Totals       `json:"totals"`
}

// Searcher builds a retrieval store scoped to a project. The run calls it
// once per case so a case-level projectId override gets its own client; an
// empty projectID means the run-level default.
type Searcher func(projectID string) retrieve.Store

// LoadSuite reads and validates a suite file. Every case needs a question
// and the suite needs at least one case.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}
	var suite Suite
	if err := json.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite file %s: %w", path, err)
	}
	if len(suite.Cases) == 0 {
		return nil, fmt.Errorf("suite %s has no cases", path)
	}
	for i, c := range suite.Cases {
		if strings.TrimSpace(c.Question) == "" {
			name := c.Name
			if name == "" {
				name = fmt.Sprintf("#%d", i+1)
			}
			return nil, fmt.Errorf("suite case %s: question is required", name)
		}
	}
	return &suite, nil
}

// TermRecall returns the fraction of terms found as case-insensitive
// substrings in the packet corpus (quote text, note, and filename of every
// item). No terms means recall 1.
func TermRecall(items []types.EvidenceItem, terms []string) float64 {
	if len(terms) == 0 {
		return 1.0
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(item.QuoteText())
		b.WriteString("\n")
		b.WriteString(item.Note)
		b.WriteString("\n")
		b.WriteString(item.DocumentFilename)
		b.WriteString("\n")
	}
	corpus := strings.ToLower(b.String())

	hits := 0
	for _, term := range terms {
		if strings.Contains(corpus, strings.ToLower(term)) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}

// EvaluateCase retrieves for one case and grades the packet.
func EvaluateCase(ctx context.Context, newStore Searcher, c Case, w io.Writer) (CaseResult, error) {
	name := c.Name
	if name == "" {
		name = "unnamed-case"
	}

	top := c.Top
	if top <= 0 {
		top = defaultCaseTop
	}
	minEvidence := c.MinEvidence
	if minEvidence <= 0 {
		minEvidence = defaultMinEvidence
	}
	minRecall := c.MinRecall
	if minRecall <= 0 {
		minRecall = defaultMinRecall
	}
	semantic := true
	if c.IncludeSemantic != nil {
		semantic = *c.IncludeSemantic
	}

	cfg := types.RetrievalConfig{TopN: top, EnableSemantic: semantic}
	packet, err := retrieve.Retrieve(ctx, newStore(c.ProjectID), c.Question, c.Queries, cfg, w)
	if err != nil {
		return CaseResult{}, fmt.Errorf("case %s: %w", name, err)
	}

	recall := TermRecall(packet.Evidence, c.MustIncludeTerms)

	avg := 0.0
	if len(packet.Evidence) > 0 {
		sum := 0.0
		for _, item := range packet.Evidence {
			sum += item.ReRankScore
		}
		avg = sum / float64(len(packet.Evidence))
	}

	topQuote := ""
	if len(packet.Evidence) > 0 {
		topQuote = inline(packet.Evidence[0].QuoteText(), 140)
	}

	return CaseResult{
		Name:               name,
		Question:           strings.TrimSpace(c.Question),
		Passed:             len(packet.Evidence) >= minEvidence && recall >= minRecall,
		EvidenceCount:      len(packet.Evidence),
		MinEvidence:        minEvidence,
		RequiredTermRecall: round3(recall),
		MinRecall:          minRecall,
		AvgReRankScore:     round3(avg),
		TopQuote:           topQuote,
		Counts:             packet.Counts,
	}, nil
}

// Run evaluates every case in order and returns the summary. The first case
// that fails to retrieve aborts the run; grading failures are results, not
// errors.
func Run(ctx context.Context, newStore Searcher, suite *Suite, suitePath string, w io.Writer) (*Summary, error) {
	summary := &Summary{
		GeneratedAt: time.Now().UTC(),
		Suite:       suitePath,
	}
	for i, c := range suite.Cases {
		fmt.Fprintf(w, "case %d/%d: %s\n", i+1, len(suite.Cases), caseName(c))
		result, err := EvaluateCase(ctx, newStore, c, w)
		if err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, result)
		if result.Passed {
			summary.Totals.Passed++
		} else {
			summary.Totals.Failed++
		}
	}
	summary.Totals.Cases = len(summary.Results)
	return summary, nil
}

func caseName(c Case) string {
	if c.Name != "" {
		return c.Name
	}
	return "unnamed-case"
}

// inline collapses runs of whitespace and clips to max characters.
func inline(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
