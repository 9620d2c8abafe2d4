// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pdiddy/cite-gate/internal/backend"
	"github.com/pdiddy/cite-gate/pkg/types"
)

// --- mock store ---

type mockStore struct {
	searches  map[string]*backend.SearchResponse
	searchErr map[string]error
	docs      []backend.ProjectDocument
	docsErr   error
	semantic  map[string][]backend.SemanticSnippet
	semErr    map[string]error
	calls     []string
}

func (m *mockStore) ProjectID() string { return "proj-1" }

func (m *mockStore) Search(_ context.Context, query string, _ int) (*backend.SearchResponse, error) {
	m.calls = append(m.calls, "search:"+query)
	if err, ok := m.searchErr[query]; ok {
		return nil, err
	}
	if resp, ok := m.searches[query]; ok {
		return resp, nil
	}
	return &backend.SearchResponse{Results: []backend.SearchResult{}}, nil
}

func (m *mockStore) ListDocuments(_ context.Context) ([]backend.ProjectDocument, error) {
	m.calls = append(m.calls, "docs")
	return m.docs, m.docsErr
}

func (m *mockStore) SemanticSearch(_ context.Context, pdID, query string) ([]backend.SemanticSnippet, error) {
	m.calls = append(m.calls, "semantic:"+pdID+":"+query)
	if err, ok := m.semErr[pdID]; ok {
		return nil, err
	}
	return m.semantic[pdID], nil
}

func annotation(id, doc, text string, similarity float64) backend.SearchResult {
	return backend.SearchResult{
		Type:            "annotation",
		AnnotationID:    id,
		DocumentID:      doc,
		HighlightedText: text,
		Similarity:      similarity,
	}
}

// --- query generation ---

func TestBuildQueriesDeterministic(t *testing.T) {
	q := "What caused the collapse of the imperial grain economy?"
	first := BuildQueries(q)
	for i := 0; i < 5; i++ {
		if got := BuildQueries(q); !reflect.DeepEqual(got, first) {
			t.Fatalf("run %d: queries differ:\n%v\n%v", i, got, first)
		}
	}
	if len(first) != 6 {
		t.Errorf("len = %d, want 6 (base + head + tail + 3 probes)", len(first))
	}
	if first[0] != q {
		t.Errorf("first variant = %q, want the normalized question", first[0])
	}
}

func TestBuildQueriesHeadTail(t *testing.T) {
	q := "alpha beta gamma delta epsilon zeta eta theta"
	queries := BuildQueries(q)
	wantHead := "alpha beta gamma delta epsilon zeta"
	wantTail := "gamma delta epsilon zeta eta theta"
	if queries[1] != wantHead {
		t.Errorf("head variant = %q, want %q", queries[1], wantHead)
	}
	if queries[2] != wantTail {
		t.Errorf("tail variant = %q, want %q", queries[2], wantTail)
	}
}

func TestBuildQueriesShortQuestion(t *testing.T) {
	// Three significant tokens: no head/tail variants, just question + probes.
	queries := BuildQueries("imperial grain economy")
	if len(queries) != 4 {
		t.Fatalf("len = %d, want 4: %v", len(queries), queries)
	}
	for _, q := range queries[1:] {
		if !strings.HasPrefix(q, "imperial grain economy ") {
			t.Errorf("probe variant %q does not extend the question", q)
		}
	}
}

func TestBuildQueriesNormalizesWhitespace(t *testing.T) {
	got := BuildQueries("  imperial   grain\teconomy ")
	if got[0] != "imperial grain economy" {
		t.Errorf("base variant = %q", got[0])
	}
}

func TestBuildQueriesEmpty(t *testing.T) {
	if got := BuildQueries("   "); got != nil {
		t.Errorf("BuildQueries(blank) = %v, want nil", got)
	}
}

// --- retrieval ---

func retrievalCfg() types.RetrievalConfig {
	return types.RetrievalConfig{PerQueryLimit: 10, TopN: 10}
}

func TestRetrieveFiltersAndRanks(t *testing.T) {
	question := "quantum cryptography adoption barriers"
	store := &mockStore{
		searches: map[string]*backend.SearchResponse{
			question: {
				Results: []backend.SearchResult{
					annotation("ann-low", "doc-1", "unrelated prose entirely", 20),
					annotation("ann-high", "doc-1", "unrelated prose entirely two", 90),
					{Type: "document", AnnotationID: "ann-doc", HighlightedText: "not an annotation"},
					annotation("ann-empty", "doc-1", "   ", 99),
				},
				SearchTime: 5,
			},
		},
	}

	var buf bytes.Buffer
	packet, err := Retrieve(context.Background(), store, question, []string{question}, retrievalCfg(), &buf)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(packet.Evidence) != 2 {
		t.Fatalf("evidence = %d items, want 2 (type filter + empty-text filter): %+v",
			len(packet.Evidence), packet.Evidence)
	}
	if packet.Evidence[0].AnnotationID != "ann-high" {
		t.Errorf("top item = %s, want ann-high", packet.Evidence[0].AnnotationID)
	}
	if packet.Evidence[0].Rank != 1 || packet.Evidence[1].Rank != 2 {
		t.Errorf("ranks = %d, %d", packet.Evidence[0].Rank, packet.Evidence[1].Rank)
	}
	if packet.Counts.Total != 2 || packet.Counts.Annotations != 2 {
		t.Errorf("counts = %+v", packet.Counts)
	}
}

func TestRetrieveSimilarityNormalization(t *testing.T) {
	question := "quantum cryptography adoption barriers"
	store := &mockStore{
		searches: map[string]*backend.SearchResponse{
			question: {Results: []backend.SearchResult{
				annotation("ann-pct", "doc-1", "unrelated prose entirely", 75),
				annotation("ann-frac", "doc-2", "other unrelated prose here", 0.75),
			}},
		},
	}

	packet, err := Retrieve(context.Background(), store, question, []string{question}, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	for _, e := range packet.Evidence {
		if e.SimilarityScore != 0.75 {
			t.Errorf("%s similarity = %f, want 0.75", e.AnnotationID, e.SimilarityScore)
		}
	}
	// Identical inputs produce identical scores.
	if packet.Evidence[0].ReRankScore != packet.Evidence[1].ReRankScore {
		t.Errorf("scores differ: %f vs %f",
			packet.Evidence[0].ReRankScore, packet.Evidence[1].ReRankScore)
	}
}

func TestRetrieveScoreFormula(t *testing.T) {
	question := "quantum cryptography adoption barriers"
	store := &mockStore{
		searches: map[string]*backend.SearchResponse{
			question: {Results: []backend.SearchResult{{
				Type:            "annotation",
				AnnotationID:    "ann-1",
				DocumentID:      "doc-1",
				HighlightedText: "unrelated prose entirely",
				Similarity:      50,
				Category:        "evidence",
				Note:            "strong primary material",
				CitationData:    map[string]any{"page": 12},
			}}},
		},
	}

	packet, err := Retrieve(context.Background(), store, question, []string{question}, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	// 0.60*0.5 + 0.28*0 (disjoint tokens) + 0.08 citation + 0.03 note + 0.12 category.
	want := 0.53
	if got := packet.Evidence[0].ReRankScore; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestRetrieveDedupFirstSeenWins(t *testing.T) {
	q1 := "first query"
	q2 := "second query"
	store := &mockStore{
		searches: map[string]*backend.SearchResponse{
			q1: {Results: []backend.SearchResult{annotation("ann-1", "doc-1", "shared quote", 0.4)}},
			q2: {Results: []backend.SearchResult{annotation("ann-1", "doc-1", "shared quote", 0.9)}},
		},
	}

	packet, err := Retrieve(context.Background(), store, "some question", []string{q1, q2}, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(packet.Evidence) != 1 {
		t.Fatalf("evidence = %d, want 1", len(packet.Evidence))
	}
	if packet.Evidence[0].Query != q1 {
		t.Errorf("query = %q, want first-seen %q", packet.Evidence[0].Query, q1)
	}
	if packet.Evidence[0].SimilarityScore != 0.4 {
		t.Errorf("similarity = %f, want first-seen 0.4", packet.Evidence[0].SimilarityScore)
	}
	if packet.SearchStats.DuplicatesRemoved != 1 {
		t.Errorf("duplicatesRemoved = %d, want 1", packet.SearchStats.DuplicatesRemoved)
	}
}

func TestRetrieveTieBreakIsDiscoveryOrder(t *testing.T) {
	q := "only query"
	store := &mockStore{
		searches: map[string]*backend.SearchResponse{
			q: {Results: []backend.SearchResult{
				annotation("ann-a", "doc-1", "first discovered quote", 0.5),
				annotation("ann-b", "doc-2", "second discovered quote", 0.5),
				annotation("ann-c", "doc-3", "third discovered quote", 0.5),
			}},
		},
	}

	packet, err := Retrieve(context.Background(), store, "tie question", []string{q}, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	var order []string
	for _, e := range packet.Evidence {
		order = append(order, e.AnnotationID)
	}
	want := []string{"ann-a", "ann-b", "ann-c"}
	if !reflect.DeepEqual(order, want) {
		t.Errorf("tie order = %v, want discovery order %v", order, want)
	}
}

func TestRetrieveTopNTruncation(t *testing.T) {
	q := "only query"
	var results []backend.SearchResult
	for i := 0; i < 8; i++ {
		results = append(results, annotation(
			fmt.Sprintf("ann-%d", i), "doc-1",
			fmt.Sprintf("distinct quote number %d", i), float64(10*(i+1))))
	}
	store := &mockStore{searches: map[string]*backend.SearchResponse{q: {Results: results}}}

	cfg := retrievalCfg()
	cfg.TopN = 3
	packet, err := Retrieve(context.Background(), store, "some question", []string{q}, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if len(packet.Evidence) != 3 {
		t.Fatalf("evidence = %d, want 3", len(packet.Evidence))
	}
	for i, e := range packet.Evidence {
		if e.Rank != i+1 {
			t.Errorf("rank[%d] = %d, want %d", i, e.Rank, i+1)
		}
	}
	// Highest similarity survives truncation.
	if packet.Evidence[0].AnnotationID != "ann-7" {
		t.Errorf("top = %s, want ann-7", packet.Evidence[0].AnnotationID)
	}
}

func TestRetrieveLexicalFailureAborts(t *testing.T) {
	store := &mockStore{
		searchErr: map[string]error{"bad query": fmt.Errorf("HTTP 500")},
	}
	_, err := Retrieve(context.Background(), store, "some question", []string{"bad query"}, retrievalCfg(), &bytes.Buffer{})
	if err == nil {
		t.Fatal("expected lexical search failure to abort the run")
	}
}

func TestRetrieveEmptyQuestion(t *testing.T) {
	if _, err := Retrieve(context.Background(), &mockStore{}, "  ", nil, retrievalCfg(), &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for empty question")
	}
}

// --- semantic expansion ---

func semanticStore() *mockStore {
	intPtr := func(i int) *int { return &i }
	return &mockStore{
		searches: map[string]*backend.SearchResponse{},
		docs: []backend.ProjectDocument{
			{ID: "pd-1", DocumentID: "doc-1", Document: struct {
				Filename string `json:"filename"`
			}{Filename: "treaty.pdf"}},
			{ID: "pd-2", DocumentID: "doc-2", Document: struct {
				Filename string `json:"filename"`
			}{Filename: "memoir.pdf"}},
		},
		semantic: map[string][]backend.SemanticSnippet{
			"pd-1": {
				{Text: "snippet one from treaty", Similarity: 0.8, StartPosition: intPtr(10)},
				{Text: "snippet two from treaty", Similarity: 0.7, StartPosition: intPtr(90)},
				{Text: "snippet three beyond the per-doc cap", Similarity: 0.6, StartPosition: intPtr(200)},
			},
		},
		semErr: map[string]error{"pd-2": fmt.Errorf("HTTP 502")},
	}
}

func TestRetrieveSemanticExpansion(t *testing.T) {
	store := semanticStore()
	cfg := retrievalCfg()
	cfg.EnableSemantic = true
	cfg.MaxSemanticDocs = 2
	cfg.SemanticPerDoc = 2

	var buf bytes.Buffer
	packet, err := Retrieve(context.Background(), store, "treaty terms", []string{"treaty terms"}, cfg, &buf)
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	if packet.Counts.SemanticChunks != 2 {
		t.Fatalf("semantic chunks = %d, want 2 (per-doc cap)", packet.Counts.SemanticChunks)
	}
	for _, e := range packet.Evidence {
		if e.SourceType != types.SourceSemanticChunk {
			continue
		}
		if e.Note != semanticNote {
			t.Errorf("note = %q, want fixed caution", e.Note)
		}
		if e.AnnotationID != "" {
			t.Errorf("semantic chunk carries annotation id %q", e.AnnotationID)
		}
	}

	// pd-2 failed: skipped with a warning, run not aborted.
	if packet.SearchStats.SemanticDocsFailed != 1 || packet.SearchStats.SemanticDocsSearched != 1 {
		t.Errorf("stats = %+v", packet.SearchStats)
	}
	if !strings.Contains(buf.String(), "warning: semantic search failed for memoir.pdf") {
		t.Errorf("missing warning in output: %q", buf.String())
	}
}

func TestRetrieveSemanticUsesFirstQuery(t *testing.T) {
	store := semanticStore()
	cfg := retrievalCfg()
	cfg.EnableSemantic = true

	_, err := Retrieve(context.Background(), store, "the question", []string{"variant one", "variant two"}, cfg, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	found := false
	for _, c := range store.calls {
		if strings.HasPrefix(c, "semantic:") {
			found = true
			if !strings.HasSuffix(c, ":variant one") {
				t.Errorf("semantic call %q did not use the first query", c)
			}
		}
	}
	if !found {
		t.Fatal("no semantic calls recorded")
	}
}

func TestRetrieveDeterministicAcrossRuns(t *testing.T) {
	question := "quantum cryptography adoption barriers"
	build := func() *mockStore {
		s := &mockStore{searches: map[string]*backend.SearchResponse{}}
		for _, q := range BuildQueries(question) {
			s.searches[q] = &backend.SearchResponse{Results: []backend.SearchResult{
				annotation("ann-1", "doc-1", "quantum key distribution remains costly", 70),
				annotation("ann-2", "doc-2", "deployment barriers include hardware cost", 65),
			}}
		}
		return s
	}

	p1, err := Retrieve(context.Background(), build(), question, nil, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	p2, err := Retrieve(context.Background(), build(), question, nil, retrievalCfg(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}

	p1.GeneratedAt = p2.GeneratedAt
	if !reflect.DeepEqual(p1, p2) {
		t.Errorf("packets differ across identical runs:\n%+v\n%+v", p1, p2)
	}
}

func TestFormatTableIncludesUsageRules(t *testing.T) {
	packet := &types.EvidencePacket{
		Question: "q",
		Queries:  []string{"q"},
		Evidence: []types.EvidenceItem{{
			SourceType:      types.SourceAnnotation,
			Rank:            1,
			ReRankScore:     0.5123,
			Category:        "evidence",
			HighlightedText: "a quote",
			AnnotationID:    "ann-1",
		}},
		Counts: types.PacketCounts{Total: 1, Annotations: 1},
	}

	var buf bytes.Buffer
	FormatTable(packet, &buf)
	out := buf.String()
	if !strings.Contains(out, "Usage rules:") {
		t.Error("table output missing usage footer")
	}
	if !strings.Contains(out, "0.512") {
		t.Error("table output missing 3-decimal score")
	}
}
