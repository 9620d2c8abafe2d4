// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/cite-gate/pkg/types"
)

func testClient(ts *httptest.Server, ttl time.Duration) *Client {
	return New(types.BackendConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 5 * time.Second, UserAgent: "cite-gate-test/0.1"},
		BaseURL:    ts.URL,
		ProjectID:  "proj-1",
		CacheTTL:   ttl,
	})
}

func TestSearch(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]any{{
				"type":            "annotation",
				"annotationId":    "ann-1",
				"documentId":      "doc-1",
				"highlightedText": "the war began in 1914",
				"similarity":      87.5,
			}},
			"totalResults": 1,
			"searchTime":   12.0,
		})
	}))
	defer ts.Close()

	sr, err := testClient(ts, 0).Search(context.Background(), "war origins", 15)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	if gotPath != "/api/projects/proj-1/search" {
		t.Errorf("path = %s", gotPath)
	}
	if gotBody["query"] != "war origins" || gotBody["limit"] != float64(15) {
		t.Errorf("request body = %v", gotBody)
	}
	if len(sr.Results) != 1 || sr.Results[0].AnnotationID != "ann-1" {
		t.Fatalf("results = %+v", sr.Results)
	}
	if sr.Results[0].Similarity != 87.5 {
		t.Errorf("similarity = %f, want raw 87.5", sr.Results[0].Similarity)
	}
}

func TestSearchMissingResultsIsContractViolation(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"totalResults": 0}`))
	}))
	defer ts.Close()

	_, err := testClient(ts, 0).Search(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected contract-violation error for missing results field")
	}
}

func TestSearchEmptyResultsIsFine(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [], "totalResults": 0, "searchTime": 3}`))
	}))
	defer ts.Close()

	sr, err := testClient(ts, 0).Search(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(sr.Results) != 0 {
		t.Errorf("results = %v", sr.Results)
	}
}

func TestSearchMalformedJSONIsFatal(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer ts.Close()

	_, err := testClient(ts, 0).Search(context.Background(), "q", 5)
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestListDocuments(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/proj-1/documents" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"id": "pd-1", "documentId": "doc-1", "document": {"filename": "treaty.pdf"}}]`))
	}))
	defer ts.Close()

	docs, err := testClient(ts, 0).ListDocuments(context.Background())
	if err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
	if len(docs) != 1 || docs[0].Document.Filename != "treaty.pdf" {
		t.Fatalf("docs = %+v", docs)
	}
}

func TestSemanticSearch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/projects/proj-1/documents/pd-9/semantic-search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`[{"text": "a snippet", "similarity": 0.71, "startPosition": 140}]`))
	}))
	defer ts.Close()

	snippets, err := testClient(ts, 0).SemanticSearch(context.Background(), "pd-9", "war origins")
	if err != nil {
		t.Fatalf("SemanticSearch: %v", err)
	}
	if len(snippets) != 1 || snippets[0].Similarity != 0.71 {
		t.Fatalf("snippets = %+v", snippets)
	}
	if snippets[0].StartPosition == nil || *snippets[0].StartPosition != 140 {
		t.Errorf("startPosition = %v", snippets[0].StartPosition)
	}
}

func TestCacheServesRepeatedQueries(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Write([]byte(`{"results": [], "totalResults": 0, "searchTime": 1}`))
	}))
	defer ts.Close()

	c := testClient(ts, time.Minute)
	for i := 0; i < 3; i++ {
		if _, err := c.Search(context.Background(), "same query", 5); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("backend calls = %d, want 1 (cache hit for identical requests)", calls)
	}

	// A different query misses the cache.
	if _, err := c.Search(context.Background(), "other query", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 {
		t.Errorf("backend calls = %d, want 2", calls)
	}
}

func TestAuthAndUserAgentHeaders(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sekret" {
			t.Errorf("auth header = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("User-Agent") != "cite-gate-test/0.1" {
			t.Errorf("user agent = %q", r.Header.Get("User-Agent"))
		}
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := New(types.BackendConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "cite-gate-test/0.1"},
		BaseURL:    ts.URL,
		ProjectID:  "proj-1",
		APIKey:     "sekret",
	})
	if _, err := c.ListDocuments(context.Background()); err != nil {
		t.Fatalf("ListDocuments: %v", err)
	}
}
