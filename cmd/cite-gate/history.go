// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-gate/internal/retrieve"
	"github.com/pdiddy/cite-gate/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse and search past retrieval runs",
	Long: `History reads the local run store. Every retrieve run saves its packet
there; list shows recent runs, show reprints a stored packet, and search
runs a full-text query over all stored evidence.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent retrieval runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		runs, err := s.ListRuns(context.Background())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		fmt.Fprintf(os.Stdout, "%-5s  %-20s  %-50s  %-8s  %s\n",
			"Run", "Created", "Question", "Evidence", "Reports")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 95))
		for _, r := range runs {
			question := r.Question
			if len(question) > 50 {
				question = question[:47] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-5d  %-20s  %-50s  %-8d  %d\n",
				r.ID, r.Created, question, r.Evidence, r.Reports)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Print the evidence packet from a past run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}

		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		packet, err := s.GetRun(context.Background(), runID)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			return retrieve.FormatJSON(packet, os.Stdout)
		}
		retrieve.FormatTable(packet, os.Stdout)
		return nil
	},
}

var historySearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search across all stored evidence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		hits, err := s.SearchEvidence(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matches found.")
			return nil
		}

		for _, h := range hits {
			ref := h.AnnotationID
			if ref == "" {
				ref = fmt.Sprintf("rank-%d", h.Rank)
			}
			fmt.Fprintf(os.Stdout, "run %d (%s) %s\n", h.RunID, ref, h.DocumentFilename)
			fmt.Fprintf(os.Stdout, "  %s\n", h.Content)
			if h.Note != "" {
				fmt.Fprintf(os.Stdout, "  note: %s\n", h.Note)
			}
		}
		fmt.Fprintf(os.Stdout, "\n%d match(es)\n", len(hits))
		return nil
	},
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all stored runs as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := store.Open(storeConfig(cmd))
		if err != nil {
			return err
		}
		defer s.Close()

		return s.ExportYAML(context.Background(), os.Stdout)
	},
}

func init() {
	for _, cmd := range []*cobra.Command{historyListCmd, historyShowCmd, historySearchCmd, historyExportCmd} {
		cmd.Flags().String("state-dir", "", "history store directory (default: state)")
		cmd.Flags().Int("max-results", 0, "listing/search limit (default 20)")
		historyCmd.AddCommand(cmd)
	}
	historyShowCmd.Flags().Bool("json", false, "output the packet as JSON")

	rootCmd.AddCommand(historyCmd)
}
