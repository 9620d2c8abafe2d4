// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-gate/internal/audit"
	"github.com/pdiddy/cite-gate/internal/store"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit draft claims against an evidence packet",
	Long: `Audit segments the draft into sentences and flags claims with no citation
marker, weak or missing evidence support, or absolute language that the
cited evidence itself hedges.

The command exits non-zero when any claim reaches high severity.`,
	RunE: runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	packet, err := loadPacket(cmd)
	if err != nil {
		return err
	}
	draft, err := readDraft(cmd)
	if err != nil {
		return err
	}

	report := audit.Audit(draft, packet)
	saveReportToHistory(cmd, store.ReportAudit, string(report.Status), report)

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		if err := audit.FormatJSON(report, os.Stdout); err != nil {
			return err
		}
	} else {
		audit.FormatReport(report, os.Stdout)
	}

	if !report.Pass() {
		return fmt.Errorf("%d claim(s) at high severity", report.Counts.High)
	}
	return nil
}

func init() {
	addCheckFlags(auditCmd)

	rootCmd.AddCommand(auditCmd)
}
