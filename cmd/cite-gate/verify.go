// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-gate/internal/store"
	"github.com/pdiddy/cite-gate/internal/verify"
	"github.com/pdiddy/cite-gate/pkg/types"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify draft quotations against an evidence packet",
	Long: `Verify classifies every quotation in a draft into one of five fidelity
states: EXACT_MATCH, TRUNCATED_OK, EXPANDED_ERROR, SOURCE_MISMATCH, or
MISMATCH. Quotes come from a markdown draft (--draft) or a JSON quotes
file (--quotes).

The command exits non-zero when any quote is not EXACT_MATCH or TRUNCATED_OK.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	packet, err := loadPacket(cmd)
	if err != nil {
		return err
	}
	quotes, err := loadQuotes(cmd)
	if err != nil {
		return err
	}

	report := verify.Verify(quotes, verify.SourcesFromPacket(packet))
	saveReportToHistory(cmd, store.ReportVerify, gateStatus(report.Pass()), report)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := verify.FormatJSON(report, os.Stdout); err != nil {
			return err
		}
	} else {
		verify.FormatReport(report, os.Stdout)
	}

	if !report.Pass() {
		return fmt.Errorf("%d quote(s) failed verification", report.Failed)
	}
	return nil
}

// loadPacket reads the evidence packet JSON named by --packet.
func loadPacket(cmd *cobra.Command) (*types.EvidencePacket, error) {
	path, _ := cmd.Flags().GetString("packet")
	if path == "" {
		return nil, fmt.Errorf("--packet is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading packet: %w", err)
	}
	var packet types.EvidencePacket
	if err := json.Unmarshal(data, &packet); err != nil {
		return nil, fmt.Errorf("parsing packet %s: %w", path, err)
	}
	return &packet, nil
}

// loadQuotes reads draft quotes from --quotes (JSON) or extracts them from
// the markdown draft named by --draft.
func loadQuotes(cmd *cobra.Command) ([]types.DraftQuote, error) {
	quotesPath, _ := cmd.Flags().GetString("quotes")
	draftPath, _ := cmd.Flags().GetString("draft")

	switch {
	case quotesPath != "":
		return verify.LoadQuotesFile(quotesPath)
	case draftPath != "":
		draft, err := readDraft(cmd)
		if err != nil {
			return nil, err
		}
		return verify.ExtractQuotes(draft), nil
	default:
		return nil, fmt.Errorf("--draft or --quotes is required")
	}
}

// readDraft reads the markdown draft named by --draft.
func readDraft(cmd *cobra.Command) (string, error) {
	path, _ := cmd.Flags().GetString("draft")
	if path == "" {
		return "", fmt.Errorf("--draft is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading draft: %w", err)
	}
	return string(data), nil
}

// saveReportToHistory persists a report; history is best-effort and never
// changes the command outcome.
func saveReportToHistory(cmd *cobra.Command, kind store.ReportKind, status string, payload any) {
	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history store unavailable: %v\n", err)
		return
	}
	defer s.Close()

	runID, _ := cmd.Flags().GetInt64("run")
	if _, err := s.SaveReport(context.Background(), runID, kind, status, payload); err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving %s report failed: %v\n", kind, err)
	}
}

func gateStatus(pass bool) string {
	if pass {
		return "pass"
	}
	return "fail"
}

// addCheckFlags registers the flags shared by verify, audit, and check.
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("packet", "", "evidence packet JSON file (from retrieve --out)")
	cmd.Flags().String("draft", "", "markdown draft file")
	cmd.Flags().Bool("json", false, "output the report as JSON")
	cmd.Flags().Int64("run", 0, "history run id the packet came from")
	cmd.Flags().String("state-dir", "", "history store directory (default: state)")
	cmd.Flags().Int("max-results", 0, "history listing/search limit (default 20)")
}

func init() {
	addCheckFlags(verifyCmd)
	verifyCmd.Flags().String("quotes", "", "JSON quotes file (instead of extracting from --draft)")

	rootCmd.AddCommand(verifyCmd)
}
