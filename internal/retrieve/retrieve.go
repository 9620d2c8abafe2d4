// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve issues multi-query evidence searches against the
// document/annotation store, deduplicates and re-ranks the results, and
// produces the EvidencePacket the verification and audit stages consume.
//
// The run is deterministic for fixed backend responses: query variants,
// dedup survivors, scores, and the final ranking are all pure functions of
// the inputs, and ranking ties break on discovery order.
package retrieve

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/cite-gate/internal/backend"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// semanticNote is the fixed caution attached to every semantic chunk.
const semanticNote = "Semantic match; requires manual quote confirmation before citation."

// Store is the slice of the backend client retrieval needs.
type Store interface {
	ProjectID() string
	Search(ctx context.Context, query string, limit int) (*backend.SearchResponse, error)
	ListDocuments(ctx context.Context) ([]backend.ProjectDocument, error)
	SemanticSearch(ctx context.Context, projectDocumentID, query string) ([]backend.SemanticSnippet, error)
}

// Defaults used when the config leaves a knob at zero.
const (
	defaultPerQueryLimit   = 15
	defaultTopN            = 12
	defaultMaxSemanticDocs = 4
	defaultSemanticPerDoc  = 2
)

// pooled pairs an evidence item with its discovery index, the explicit
// tie-break key for the final sort.
type pooled struct {
	item  types.EvidenceItem
	order int
}

// Retrieve produces a ranked evidence packet for a question. When queries is
// empty the deterministic variants from BuildQueries are used. A lexical
// search failure aborts the run; a per-document semantic fetch failure only
// skips that document. Progress and warnings go to w.
func Retrieve(ctx context.Context, store Store, question string, queries []string, cfg types.RetrievalConfig, w io.Writer) (*types.EvidencePacket, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty: provide a research question")
	}

	if len(queries) == 0 {
		queries = BuildQueries(question)
	}

	perQueryLimit := cfg.PerQueryLimit
	if perQueryLimit <= 0 {
		perQueryLimit = defaultPerQueryLimit
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = defaultTopN
	}

	var (
		stats types.SearchStats
		pool  []pooled
		seen  = make(map[string]bool)
	)

	add := func(item types.EvidenceItem) {
		key := item.DedupKey()
		if seen[key] {
			stats.DuplicatesRemoved++
			return
		}
		seen[key] = true
		scoreItem(&item, question)
		pool = append(pool, pooled{item: item, order: len(pool)})
	}

	for i, query := range queries {
		fmt.Fprintf(w, "query %d/%d: %s\n", i+1, len(queries), query)

		resp, err := store.Search(ctx, query, perQueryLimit)
		if err != nil {
			return nil, err
		}

		stats.QueriesIssued++
		stats.RawResults += len(resp.Results)
		stats.BackendSearchTime += resp.SearchTime

		for _, r := range resp.Results {
			if r.Type != "annotation" {
				continue
			}
			item := annotationItem(query, r)
			if strings.TrimSpace(item.QuoteText()) == "" {
				continue
			}
			add(item)
		}
	}

	if cfg.EnableSemantic {
		if err := expandSemantic(ctx, store, question, queries, cfg, &stats, add, w); err != nil {
			return nil, err
		}
	}

	// Score descending; ties keep discovery order.
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].item.ReRankScore != pool[j].item.ReRankScore {
			return pool[i].item.ReRankScore > pool[j].item.ReRankScore
		}
		return pool[i].order < pool[j].order
	})

	if len(pool) > topN {
		pool = pool[:topN]
	}

	packet := &types.EvidencePacket{
		GeneratedAt: time.Now().UTC(),
		ProjectID:   store.ProjectID(),
		Question:    question,
		Queries:     queries,
		SearchStats: stats,
	}
	for i, p := range pool {
		p.item.Rank = i + 1
		packet.Evidence = append(packet.Evidence, p.item)
		switch p.item.SourceType {
		case types.SourceSemanticChunk:
			packet.Counts.SemanticChunks++
		default:
			packet.Counts.Annotations++
		}
	}
	packet.Counts.Total = len(packet.Evidence)

	return packet, nil
}

// annotationItem converts a backend search result into an evidence item.
func annotationItem(query string, r backend.SearchResult) types.EvidenceItem {
	return types.EvidenceItem{
		SourceType:        types.SourceAnnotation,
		Query:             query,
		AnnotationID:      r.AnnotationID,
		ProjectDocumentID: r.ProjectDocumentID,
		DocumentID:        r.DocumentID,
		DocumentFilename:  r.DocumentFilename,
		Category:          r.Category,
		Note:              r.Note,
		MatchedText:       r.MatchedText,
		HighlightedText:   r.HighlightedText,
		CitationData:      r.CitationData,
		SimilarityScore:   normalizeSimilarity(r.Similarity),
		RelevanceLevel:    r.RelevanceLevel,
		StartPosition:     r.StartPosition,
	}
}

// expandSemantic merges per-document semantic snippets into the pool. Each
// document that fails to fetch is skipped with a warning; the run continues.
func expandSemantic(ctx context.Context, store Store, question string, queries []string, cfg types.RetrievalConfig, stats *types.SearchStats, add func(types.EvidenceItem), w io.Writer) error {
	maxDocs := cfg.MaxSemanticDocs
	if maxDocs <= 0 {
		maxDocs = defaultMaxSemanticDocs
	}
	perDoc := cfg.SemanticPerDoc
	if perDoc <= 0 {
		perDoc = defaultSemanticPerDoc
	}

	docs, err := store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) > maxDocs {
		docs = docs[:maxDocs]
	}

	semQuery := question
	if len(queries) > 0 {
		semQuery = queries[0]
	}

	for _, doc := range docs {
		snippets, err := store.SemanticSearch(ctx, doc.ID, semQuery)
		if err != nil {
			fmt.Fprintf(w, "warning: semantic search failed for %s: %v\n", doc.Document.Filename, err)
			stats.SemanticDocsFailed++
			continue
		}
		stats.SemanticDocsSearched++

		if len(snippets) > perDoc {
			snippets = snippets[:perDoc]
		}
		for _, sn := range snippets {
			if strings.TrimSpace(sn.Text) == "" {
				continue
			}
			add(types.EvidenceItem{
				SourceType:        types.SourceSemanticChunk,
				Query:             semQuery,
				ProjectDocumentID: doc.ID,
				DocumentID:        doc.DocumentID,
				DocumentFilename:  doc.Document.Filename,
				Note:              semanticNote,
				MatchedText:       sn.Text,
				HighlightedText:   sn.Text,
				SimilarityScore:   normalizeSimilarity(sn.Similarity),
				StartPosition:     sn.StartPosition,
			})
		}
	}

	return nil
}
