// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/cite-gate/pkg/types"
)

// FormatReport writes the per-quote pass/fail list and a summary line to w.
func FormatReport(report types.VerificationReport, w io.Writer) {
	if len(report.Results) == 0 {
		fmt.Fprintln(w, "No quotes to verify.")
		return
	}

	for _, r := range report.Results {
		mark := "FAIL"
		if r.Status.Passing() {
			mark = "ok"
		}
		fmt.Fprintf(w, "[%s] quote %d: %s\n", mark, r.QuoteIndex+1, r.Status)
		fmt.Fprintf(w, "      draft:  %s\n", clip(r.DraftText, 100))

		switch r.Status {
		case types.StatusMismatch:
			if r.MatchedText != "" {
				fmt.Fprintf(w, "      closest: %s (similarity %.2f, %s)\n",
					clip(r.MatchedText, 100), r.Similarity, r.MatchedAnnotationID)
			}
		default:
			if r.MatchedText != "" {
				fmt.Fprintf(w, "      source: %s (%s)\n", clip(r.MatchedText, 100), r.MatchedAnnotationID)
			}
		}
		if r.Note != "" {
			fmt.Fprintf(w, "      note:   %s\n", r.Note)
		}
		if r.OCR.HasArtifact {
			fmt.Fprintf(w, "      warning: source text may carry OCR artifacts (%s)\n",
				strings.Join(r.OCR.Reasons, ", "))
		}
	}

	fmt.Fprintf(w, "\n%d passed, %d failed\n", report.Passed, report.Failed)
}

// FormatJSON writes the results as an indented JSON array to w.
func FormatJSON(report types.VerificationReport, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report.Results)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
