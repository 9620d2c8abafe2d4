// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package check composes quote verification and the claim audit into the
// write-then-verify gate: both checks consume the same evidence packet and
// the combined result drives the process exit status.
package check

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pdiddy/cite-gate/internal/audit"
	"github.com/pdiddy/cite-gate/internal/verify"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// Result is the combined gate outcome for one draft.
type Result struct {
	Verification types.VerificationReport `json:"verification" yaml:"verification"`
	Audit        types.AuditReport        `json:"audit" yaml:"audit"`
}

// Pass reports whether the draft clears the gate: every quote in a passing
// state and no high-severity claim.
func (r Result) Pass() bool {
	return r.Verification.Pass() && r.Audit.Pass()
}

// Run verifies the quotes and audits the draft against the packet.
func Run(packet *types.EvidencePacket, quotes []types.DraftQuote, draft string) Result {
	sources := verify.SourcesFromPacket(packet)
	return Result{
		Verification: verify.Verify(quotes, sources),
		Audit:        audit.Audit(draft, packet),
	}
}

// FormatResult writes both reports and a combined gate line to w.
func FormatResult(result Result, w io.Writer) {
	fmt.Fprintln(w, "Quote verification")
	fmt.Fprintln(w, "------------------")
	verify.FormatReport(result.Verification, w)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Claim audit")
	fmt.Fprintln(w, "-----------")
	audit.FormatReport(result.Audit, w)

	verdict := "PASS"
	if !result.Pass() {
		verdict = "FAIL"
	}
	fmt.Fprintf(w, "\nGate: %s\n", verdict)
}

// FormatJSON writes the combined result as indented JSON to w.
func FormatJSON(result Result, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
