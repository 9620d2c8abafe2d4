// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/cite-gate/pkg/types"
)

// FormatReport writes the findings list and status line to w. Claims graded
// ok are skipped; the list carries only what needs attention.
func FormatReport(report types.AuditReport, w io.Writer) {
	total := report.Counts.OK + report.Counts.Medium + report.Counts.High
	if total == 0 {
		fmt.Fprintln(w, "No claim sentences found.")
		return
	}

	for _, claim := range report.Claims {
		if claim.Severity == types.SeverityOK {
			continue
		}
		fmt.Fprintf(w, "[%s] paragraph %d: %s\n",
			strings.ToUpper(string(claim.Severity)), claim.ParagraphIndex+1, clip(claim.Sentence, 100))
		fmt.Fprintf(w, "        issues:  %s\n", joinIssues(claim.Issues))
		fmt.Fprintf(w, "        support: %.3f", claim.SupportScore)
		if len(claim.SupportRefs) > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(claim.SupportRefs, ", "))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nClaim audit: %s (%d ok, %d medium, %d high of %d claims)\n",
		strings.ToUpper(string(report.Status)), report.Counts.OK, report.Counts.Medium, report.Counts.High, total)
}

// FormatJSON writes the full report object as indented JSON to w.
func FormatJSON(report types.AuditReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func joinIssues(issues []types.ClaimIssue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = string(issue)
	}
	return strings.Join(parts, ", ")
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
