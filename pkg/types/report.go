// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// DraftQuote is a candidate quotation extracted from a draft, optionally
// pre-tagged with the annotation it claims to originate from.
type DraftQuote struct {
	// Text is the quoted text exactly as it appears in the draft.
	Text string `json:"text" yaml:"text"`

	// SourceAnnotationID, when set, restricts verification to that annotation.
	SourceAnnotationID string `json:"sourceAnnotationId,omitempty" yaml:"source_annotation_id,omitempty"`
}

// VerificationStatus is the terminal fidelity state of one draft quote.
// Every consumer must handle all five states.
type VerificationStatus string

const (
	// StatusExactMatch: draft text equals source text character-for-character.
	StatusExactMatch VerificationStatus = "EXACT_MATCH"

	// StatusTruncatedOK: draft text is a marked elision of the source text,
	// either a literal substring after stripping truncation markers or an
	// ordered sequence of source segments.
	StatusTruncatedOK VerificationStatus = "TRUNCATED_OK"

	// StatusExpandedError: the source text is a substring of the draft text;
	// the draft wraps verified words in unverified prose.
	StatusExpandedError VerificationStatus = "EXPANDED_ERROR"

	// StatusSourceMismatch: the draft cited a specific annotation id but its
	// text diverges from that annotation.
	StatusSourceMismatch VerificationStatus = "SOURCE_MISMATCH"

	// StatusMismatch: no source matches; the closest source is reported.
	StatusMismatch VerificationStatus = "MISMATCH"
)

// Passing reports whether the status counts as verified.
func (s VerificationStatus) Passing() bool {
	return s == StatusExactMatch || s == StatusTruncatedOK
}

// OCRWarning flags possible OCR damage in a matched source text. It is
// advisory and never changes the verification status.
type OCRWarning struct {
	HasArtifact bool     `json:"has_artifact" yaml:"has_artifact"`
	Reasons     []string `json:"reasons,omitempty" yaml:"reasons,omitempty"`
}

// VerificationResult classifies one draft quote against the evidence packet.
type VerificationResult struct {
	// QuoteIndex is the zero-based position of the quote in the input order.
	QuoteIndex int `json:"quote_index" yaml:"quote_index"`

	// Status is the terminal fidelity state.
	Status VerificationStatus `json:"status" yaml:"status"`

	// DraftText is the quote as it appears in the draft.
	DraftText string `json:"draft_text" yaml:"draft_text"`

	// SourceAnnotationID echoes the id the draft declared, if any.
	SourceAnnotationID string `json:"source_annotation_id,omitempty" yaml:"source_annotation_id,omitempty"`

	// MatchedAnnotationID is the annotation that verified the quote, or for
	// MISMATCH the closest annotation found.
	MatchedAnnotationID string `json:"matched_annotation_id,omitempty" yaml:"matched_annotation_id,omitempty"`

	// MatchedText is the source text that matched (or is closest).
	MatchedText string `json:"matched_text,omitempty" yaml:"matched_text,omitempty"`

	// Similarity is the positional character-overlap ratio to the closest
	// source. Set only for MISMATCH.
	Similarity float64 `json:"similarity,omitempty" yaml:"similarity,omitempty"`

	// Note carries the remediation guidance for failing states.
	Note string `json:"note,omitempty" yaml:"note,omitempty"`

	// OCR is the artifact detection over the matched source text.
	OCR OCRWarning `json:"ocr_warning" yaml:"ocr_warning"`
}

// VerificationReport aggregates the results for one draft.
type VerificationReport struct {
	Results []VerificationResult `json:"results" yaml:"results"`
	Passed  int                  `json:"passed" yaml:"passed"`
	Failed  int                  `json:"failed" yaml:"failed"`
}

// Pass reports whether every quote verified.
func (r VerificationReport) Pass() bool { return r.Failed == 0 }

// ClaimIssue names one problem found with a claim sentence.
type ClaimIssue string

const (
	IssueMissingCitationMarker  ClaimIssue = "missing_citation_marker"
	IssueWeakOrMissingEvidence  ClaimIssue = "weak_or_missing_evidence"
	IssuePotentialContradiction ClaimIssue = "potential_contradiction"
)

// Severity grades a claim audit finding.
type Severity string

const (
	SeverityOK     Severity = "ok"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// ClaimAudit is the audit record for one claim-like sentence.
type ClaimAudit struct {
	// Sentence is the audited sentence.
	Sentence string `json:"sentence" yaml:"sentence"`

	// ParagraphIndex is the zero-based index of the enclosing paragraph.
	ParagraphIndex int `json:"paragraph_index" yaml:"paragraph_index"`

	// HasCitationMarker reports whether the enclosing paragraph carries any
	// recognized citation marker. Shared by every sentence in the paragraph.
	HasCitationMarker bool `json:"has_citation_marker" yaml:"has_citation_marker"`

	// SupportScore is the mean of the top-3 evidence overlap scores.
	SupportScore float64 `json:"support_score" yaml:"support_score"`

	// SupportRefs identifies the evidence items behind SupportScore.
	SupportRefs []string `json:"support_refs,omitempty" yaml:"support_refs,omitempty"`

	// Severity is ok, medium, or high.
	Severity Severity `json:"severity" yaml:"severity"`

	// Issues lists the flags raised for this sentence.
	Issues []ClaimIssue `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// AuditStatus is the draft-level audit outcome.
type AuditStatus string

const (
	AuditPass AuditStatus = "pass"
	AuditWarn AuditStatus = "warn"
	AuditFail AuditStatus = "fail"
)

// AuditCounts breaks down audited claims by severity.
type AuditCounts struct {
	OK     int `json:"ok" yaml:"ok"`
	Medium int `json:"medium" yaml:"medium"`
	High   int `json:"high" yaml:"high"`
}

// AuditReport is the claim audit for one draft against one packet.
type AuditReport struct {
	Status AuditStatus  `json:"status" yaml:"status"`
	Counts AuditCounts  `json:"counts" yaml:"counts"`
	Claims []ClaimAudit `json:"claims" yaml:"claims"`
}

// Pass reports whether no claim reached high severity.
func (r AuditReport) Pass() bool { return r.Status != AuditFail }
