// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the cite-gate pipeline.
// EvidenceItem and EvidencePacket are produced by retrieval; the verification
// and audit stages consume them read-only.
package types

import (
	"fmt"
	"strings"
	"time"
)

// SourceType distinguishes curated annotations from semantic snippets.
type SourceType string

const (
	// SourceAnnotation is a curated, citation-ready annotation from the store.
	SourceAnnotation SourceType = "annotation"

	// SourceSemanticChunk is a raw semantic-search snippet. Not citation-ready:
	// the quoted text must be confirmed against the source before use.
	SourceSemanticChunk SourceType = "semantic_chunk"
)

// EvidenceItem is one retrievable piece of source evidence in a packet.
type EvidenceItem struct {
	// SourceType is "annotation" or "semantic_chunk".
	SourceType SourceType `json:"sourceType" yaml:"source_type"`

	// Query is the search query that first surfaced this item. Later queries
	// that would have surfaced the same item are dropped by dedup.
	Query string `json:"query" yaml:"query"`

	// AnnotationID identifies the source annotation, when the item is one.
	AnnotationID string `json:"annotationId,omitempty" yaml:"annotation_id,omitempty"`

	// ProjectDocumentID is the project-scoped document record id.
	ProjectDocumentID string `json:"projectDocumentId,omitempty" yaml:"project_document_id,omitempty"`

	// DocumentID is the underlying document id.
	DocumentID string `json:"documentId,omitempty" yaml:"document_id,omitempty"`

	// DocumentFilename is the source document's filename.
	DocumentFilename string `json:"documentFilename,omitempty" yaml:"document_filename,omitempty"`

	// Category is the annotation category (e.g. "evidence", "key_quote").
	Category string `json:"category,omitempty" yaml:"category,omitempty"`

	// Note is the annotator's note, or the fixed caution for semantic chunks.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// MatchedText is the raw matched span from the backend.
	MatchedText string `json:"matchedText,omitempty" yaml:"matched_text,omitempty"`

	// HighlightedText is the canonical quotable text. When empty, MatchedText
	// is the fallback; one of the two is non-empty for every retained item.
	HighlightedText string `json:"highlightedText,omitempty" yaml:"highlighted_text,omitempty"`

	// CitationData carries the backend's citation metadata, when present.
	CitationData map[string]any `json:"citationData,omitempty" yaml:"citation_data,omitempty"`

	// SimilarityScore is the backend similarity normalized into [0,1].
	SimilarityScore float64 `json:"similarityScore" yaml:"similarity_score"`

	// RelevanceLevel is the backend's coarse relevance label, when present.
	RelevanceLevel string `json:"relevanceLevel,omitempty" yaml:"relevance_level,omitempty"`

	// StartPosition is the character offset of the span in its document.
	StartPosition *int `json:"startPosition,omitempty" yaml:"start_position,omitempty"`

	// HasOCRArtifact reports whether the quotable text shows OCR damage.
	HasOCRArtifact bool `json:"hasOcrArtifact" yaml:"has_ocr_artifact"`

	// OCRArtifactReasons lists detected artifact kinds in detection order.
	OCRArtifactReasons []string `json:"ocrArtifactReasons,omitempty" yaml:"ocr_artifact_reasons,omitempty"`

	// ReRankScore is the deterministic re-ranking score, rounded to 4 decimals.
	ReRankScore float64 `json:"reRankScore" yaml:"re_rank_score"`

	// Rank is the 1-based position after final sorting and truncation.
	Rank int `json:"rank" yaml:"rank"`
}

// QuoteText returns the canonical quotable text: HighlightedText, falling
// back to MatchedText.
func (e EvidenceItem) QuoteText() string {
	if strings.TrimSpace(e.HighlightedText) != "" {
		return e.HighlightedText
	}
	return e.MatchedText
}

// DedupKey returns the stable identity key for this item. Two items sharing
// a key are the same evidence; only the first-seen survives.
func (e EvidenceItem) DedupKey() string {
	if e.AnnotationID != "" {
		return "ann:" + e.AnnotationID
	}
	pos := ""
	if e.StartPosition != nil {
		pos = fmt.Sprintf("%d", *e.StartPosition)
	}
	text := e.QuoteText()
	if len(text) > 80 {
		text = text[:80]
	}
	return "doc:" + e.DocumentID + "|" + pos + "|" + text
}

// SearchStats summarizes the backend activity behind a packet.
type SearchStats struct {
	// QueriesIssued is the number of lexical queries sent to the backend.
	QueriesIssued int `json:"queriesIssued" yaml:"queries_issued"`

	// RawResults counts backend results before filtering and dedup.
	RawResults int `json:"rawResults" yaml:"raw_results"`

	// DuplicatesRemoved counts items dropped by the stable-key dedup.
	DuplicatesRemoved int `json:"duplicatesRemoved" yaml:"duplicates_removed"`

	// SemanticDocsSearched counts documents that contributed semantic chunks.
	SemanticDocsSearched int `json:"semanticDocsSearched" yaml:"semantic_docs_searched"`

	// SemanticDocsFailed counts documents skipped after a fetch failure.
	SemanticDocsFailed int `json:"semanticDocsFailed" yaml:"semantic_docs_failed"`

	// BackendSearchTime is the sum of backend-reported search times (ms).
	BackendSearchTime float64 `json:"backendSearchTimeMs" yaml:"backend_search_time_ms"`
}

// PacketCounts breaks down the retained evidence by source type.
type PacketCounts struct {
	Annotations    int `json:"annotations" yaml:"annotations"`
	SemanticChunks int `json:"semanticChunks" yaml:"semantic_chunks"`
	Total          int `json:"total" yaml:"total"`
}

// EvidencePacket is the ranked evidence produced for one question. It is
// built once per run and never mutated afterwards.
type EvidencePacket struct {
	// GeneratedAt is the packet creation time.
	GeneratedAt time.Time `json:"generatedAt" yaml:"generated_at"`

	// ProjectID identifies the backend project searched.
	ProjectID string `json:"projectId" yaml:"project_id"`

	// Question is the research question the packet answers.
	Question string `json:"question" yaml:"question"`

	// Queries lists the issued query variants in order.
	Queries []string `json:"queries" yaml:"queries"`

	// SearchStats summarizes backend activity.
	SearchStats SearchStats `json:"searchStats" yaml:"search_stats"`

	// Counts breaks down retained evidence by source type.
	Counts PacketCounts `json:"counts" yaml:"counts"`

	// Evidence is sorted by ReRankScore descending, Rank assigned 1..N.
	Evidence []EvidenceItem `json:"evidence" yaml:"evidence"`
}

// Annotations returns the subset of evidence that is citation-ready, in
// packet order. Semantic chunks are excluded.
func (p *EvidencePacket) Annotations() []EvidenceItem {
	var out []EvidenceItem
	for _, e := range p.Evidence {
		if e.SourceType == SourceAnnotation {
			out = append(out, e)
		}
	}
	return out
}
