// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/cite-gate/internal/backend"
	"github.com/pdiddy/cite-gate/internal/retrieve"
	"github.com/pdiddy/cite-gate/internal/secrets"
	"github.com/pdiddy/cite-gate/internal/store"
	"github.com/pdiddy/cite-gate/pkg/types"
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Retrieve and rank evidence for a research question",
	Long: `Retrieve issues multiple lexical queries (and optionally per-document
semantic-snippet queries) against the annotation store, deduplicates the
results, scores them, and produces a ranked evidence packet.

The packet is the input to verify, audit, and check. Each run is saved to
the local history store unless --no-save is given.`,
	RunE: runRetrieve,
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	question, _ := cmd.Flags().GetString("question")
	if question == "" {
		return fmt.Errorf("--question is required")
	}
	queries, _ := cmd.Flags().GetStringArray("query")

	cfg, err := backendConfig(cmd)
	if err != nil {
		return err
	}

	topN, _ := cmd.Flags().GetInt("top-n")
	limit, _ := cmd.Flags().GetInt("limit")
	semantic, _ := cmd.Flags().GetBool("semantic")
	maxSemanticDocs, _ := cmd.Flags().GetInt("max-semantic-docs")
	semanticPerDoc, _ := cmd.Flags().GetInt("semantic-per-doc")

	rcfg := types.RetrievalConfig{
		PerQueryLimit:   limit,
		TopN:            topN,
		EnableSemantic:  semantic,
		MaxSemanticDocs: maxSemanticDocs,
		SemanticPerDoc:  semanticPerDoc,
	}

	client := backend.New(cfg)
	packet, err := retrieve.Retrieve(context.Background(), client, question, queries, rcfg, os.Stderr)
	if err != nil {
		return err
	}

	if noSave, _ := cmd.Flags().GetBool("no-save"); !noSave {
		saveRunToHistory(cmd, packet)
	}

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		if err := retrieve.FormatJSON(packet, f); err != nil {
			return fmt.Errorf("writing packet: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote packet to %s\n", outPath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return retrieve.FormatJSON(packet, os.Stdout)
	}
	retrieve.FormatTable(packet, os.Stdout)
	return nil
}

// saveRunToHistory persists the packet; history is best-effort and never
// fails the retrieval run.
func saveRunToHistory(cmd *cobra.Command, packet *types.EvidencePacket) {
	s, err := store.Open(storeConfig(cmd))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history store unavailable: %v\n", err)
		return
	}
	defer s.Close()

	runID, err := s.SaveRun(context.Background(), packet)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: saving run failed: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Saved run %d\n", runID)
}

// backendConfig resolves backend settings from flags, the config file, and
// the .secrets/ directory.
func backendConfig(cmd *cobra.Command) (types.BackendConfig, error) {
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" {
		baseURL = viper.GetString("backend.base_url")
	}
	if baseURL == "" {
		return types.BackendConfig{}, fmt.Errorf("backend base URL required: set --base-url or backend.base_url in the config file")
	}

	projectID, _ := cmd.Flags().GetString("project")
	if projectID == "" {
		projectID = viper.GetString("backend.project_id")
	}
	if projectID == "" {
		return types.BackendConfig{}, fmt.Errorf("project id required: set --project or backend.project_id in the config file")
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	interval, _ := cmd.Flags().GetDuration("request-interval")
	cacheTTL, _ := cmd.Flags().GetDuration("cache-ttl")

	return types.BackendConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: "cite-gate/" + version,
		},
		BaseURL:         baseURL,
		ProjectID:       projectID,
		APIKey:          secretDefault(secrets.BackendAPIKey, apiKey),
		RequestInterval: interval,
		CacheTTL:        cacheTTL,
	}, nil
}

// storeConfig resolves history store settings shared by retrieve and history.
func storeConfig(cmd *cobra.Command) types.StoreConfig {
	stateDir, _ := cmd.Flags().GetString("state-dir")
	if stateDir == "" {
		stateDir = viper.GetString("store.state_dir")
	}
	maxResults, _ := cmd.Flags().GetInt("max-results")
	return types.StoreConfig{StateDir: stateDir, MaxResults: maxResults}
}

func init() {
	retrieveCmd.Flags().String("question", "", "research question to retrieve evidence for")
	retrieveCmd.Flags().StringArray("query", nil, "explicit query variant (repeatable; default: generated from the question)")
	retrieveCmd.Flags().Int("limit", 0, "per-query backend result limit (default 15)")
	retrieveCmd.Flags().Int("top-n", 0, "packet size after ranking (default 12)")
	retrieveCmd.Flags().Bool("semantic", false, "expand the packet with per-document semantic snippets")
	retrieveCmd.Flags().Int("max-semantic-docs", 0, "documents to search semantically (default 4)")
	retrieveCmd.Flags().Int("semantic-per-doc", 0, "snippets kept per document (default 2)")
	retrieveCmd.Flags().String("out", "", "write the packet JSON to a file")
	retrieveCmd.Flags().Bool("json", false, "output the packet as JSON")
	retrieveCmd.Flags().Bool("no-save", false, "skip saving the run to the history store")

	retrieveCmd.Flags().String("base-url", "", "annotation store base URL")
	retrieveCmd.Flags().String("project", "", "project id to search")
	retrieveCmd.Flags().String("api-key", "", "bearer token (default: .secrets/backend-api-key)")
	retrieveCmd.Flags().Duration("timeout", 30*time.Second, "HTTP request timeout")
	retrieveCmd.Flags().Duration("request-interval", 0, "minimum spacing between backend requests")
	retrieveCmd.Flags().Duration("cache-ttl", 5*time.Minute, "in-run response cache TTL (0 disables)")

	retrieveCmd.Flags().String("state-dir", "", "history store directory (default: state)")
	retrieveCmd.Flags().Int("max-results", 0, "history listing/search limit (default 20)")

	rootCmd.AddCommand(retrieveCmd)
}
