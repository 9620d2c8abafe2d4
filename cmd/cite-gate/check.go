// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-gate/internal/check"
	"github.com/pdiddy/cite-gate/internal/store"
	"github.com/pdiddy/cite-gate/internal/verify"
	"github.com/pdiddy/cite-gate/pkg/types"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full write-then-verify gate on a draft",
	Long: `Check composes quote verification and the claim audit against the same
evidence packet. Quotes are extracted from the draft unless an explicit
--quotes file is given.

The command exits non-zero when any quote fails verification or any claim
reaches high severity.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	packet, err := loadPacket(cmd)
	if err != nil {
		return err
	}
	draft, err := readDraft(cmd)
	if err != nil {
		return err
	}

	var quotes []types.DraftQuote
	if quotesPath, _ := cmd.Flags().GetString("quotes"); quotesPath != "" {
		quotes, err = verify.LoadQuotesFile(quotesPath)
		if err != nil {
			return err
		}
	} else {
		quotes = verify.ExtractQuotes(draft)
	}

	result := check.Run(packet, quotes, draft)
	saveReportToHistory(cmd, store.ReportVerify, gateStatus(result.Verification.Pass()), result.Verification)
	saveReportToHistory(cmd, store.ReportAudit, string(result.Audit.Status), result.Audit)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := check.FormatJSON(result, os.Stdout); err != nil {
			return err
		}
	} else {
		check.FormatResult(result, os.Stdout)
	}

	if !result.Pass() {
		return fmt.Errorf("draft failed the citation gate")
	}
	return nil
}

func init() {
	addCheckFlags(checkCmd)
	checkCmd.Flags().String("quotes", "", "JSON quotes file (instead of extracting from --draft)")

	rootCmd.AddCommand(checkCmd)
}
