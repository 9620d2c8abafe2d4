// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/cite-gate/internal/backend"
	"github.com/pdiddy/cite-gate/internal/eval"
	"github.com/pdiddy/cite-gate/internal/retrieve"
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run a retrieval benchmark suite and grade each case",
	Long: `Eval runs the retrieval pipeline for every case in a JSON suite file and
grades the resulting packets: a case passes when it holds at least
minEvidence items and the recall of its mustIncludeTerms meets minRecall.

The summary goes to --out-json and the markdown report to --out-md; with
neither flag the markdown report prints to stdout. The command exits
non-zero when any case fails.`,
	RunE: runEval,
}

func runEval(cmd *cobra.Command, args []string) error {
	suitePath, _ := cmd.Flags().GetString("suite")
	if suitePath == "" {
		return fmt.Errorf("--suite is required")
	}
	suite, err := eval.LoadSuite(suitePath)
	if err != nil {
		return err
	}

	cfg, err := backendConfig(cmd)
	if err != nil {
		return err
	}

	newStore := func(projectID string) retrieve.Store {
		c := cfg
		if projectID != "" {
			c.ProjectID = projectID
		}
		return backend.New(c)
	}

	summary, err := eval.Run(context.Background(), newStore, suite, suitePath, os.Stderr)
	if err != nil {
		return err
	}

	wroteFile := false
	if outJSON, _ := cmd.Flags().GetString("out-json"); outJSON != "" {
		if err := writeReport(outJSON, func(f *os.File) error { return eval.FormatJSON(summary, f) }); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "JSON: %s\n", outJSON)
		wroteFile = true
	}
	if outMD, _ := cmd.Flags().GetString("out-md"); outMD != "" {
		if err := writeReport(outMD, func(f *os.File) error { eval.FormatMarkdown(summary, f); return nil }); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "MD:   %s\n", outMD)
		wroteFile = true
	}
	if !wroteFile {
		eval.FormatMarkdown(summary, os.Stdout)
	}

	fmt.Fprintf(os.Stderr, "Evaluation complete: %d/%d cases passed\n",
		summary.Totals.Passed, summary.Totals.Cases)

	if summary.Totals.Failed > 0 {
		return fmt.Errorf("%d of %d benchmark cases failed", summary.Totals.Failed, summary.Totals.Cases)
	}
	return nil
}

func writeReport(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer f.Close()
	if err := write(f); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func init() {
	evalCmd.Flags().String("suite", "", "benchmark suite JSON file")
	evalCmd.Flags().String("out-json", "", "write the run summary JSON to a file")
	evalCmd.Flags().String("out-md", "", "write the markdown report to a file")

	evalCmd.Flags().String("base-url", "", "annotation store base URL")
	evalCmd.Flags().String("project", "", "default project id (cases may override)")
	evalCmd.Flags().String("api-key", "", "bearer token (default: .secrets/backend-api-key)")
	evalCmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	evalCmd.Flags().Duration("request-interval", 0, "minimum spacing between backend requests")
	evalCmd.Flags().Duration("cache-ttl", 5*time.Minute, "in-run response cache TTL (0 disables)")

	rootCmd.AddCommand(evalCmd)
}
