// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package eval

import (
	"encoding/json"
	"fmt"
	"io"
)

// FormatMarkdown writes the human report: totals, a per-case grade table,
// and the top quote for each case.
func FormatMarkdown(summary *Summary, w io.Writer) {
	fmt.Fprintln(w, "# Evaluation Report")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Cases: %d\n", summary.Totals.Cases)
	fmt.Fprintf(w, "- Passed: %d\n", summary.Totals.Passed)
	fmt.Fprintf(w, "- Failed: %d\n", summary.Totals.Failed)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Case | Status | Evidence | Recall | Avg Score |")
	fmt.Fprintln(w, "|---|---|---:|---:|---:|")
	for _, r := range summary.Results {
		fmt.Fprintf(w, "| %s | %s | %d | %.3f | %.3f |\n",
			r.Name, statusWord(r.Passed), r.EvidenceCount, r.RequiredTermRecall, r.AvgReRankScore)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "## Case Notes")
	fmt.Fprintln(w)
	for _, r := range summary.Results {
		fmt.Fprintf(w, "- **%s** (%s)\n", r.Name, statusWord(r.Passed))
		fmt.Fprintf(w, "  Top quote: %q\n", r.TopQuote)
	}
}

// FormatJSON writes the full summary as indented JSON to w.
func FormatJSON(summary *Summary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}

func statusWord(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}
