// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package backend is the HTTP client for the remote document/annotation
// store. Responses are decoded into tagged structs and shape-checked at the
// boundary; an unexpected shape is a backend-contract violation, never a
// silent default.
//
// All calls are sequential and blocking. A rate limiter spaces consecutive
// requests and a short-TTL in-memory cache absorbs identical requests
// repeated within one run (query variants often overlap), so a retrieval run
// stays deterministic against unchanged backend state.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/pdiddy/cite-gate/internal/httputil"
	"github.com/pdiddy/cite-gate/pkg/types"
)

const defaultTimeout = 30 * time.Second

// SearchResult is one item from the lexical search endpoint.
type SearchResult struct {
	// Type is the item kind; retrieval keeps only "annotation".
	Type              string         `json:"type"`
	AnnotationID      string         `json:"annotationId"`
	ProjectDocumentID string         `json:"projectDocumentId"`
	DocumentID        string         `json:"documentId"`
	DocumentFilename  string         `json:"documentFilename"`
	Category          string         `json:"category"`
	Note              string         `json:"note"`
	MatchedText       string         `json:"matchedText"`
	HighlightedText   string         `json:"highlightedText"`
	CitationData      map[string]any `json:"citationData"`

	// Similarity is raw: some store versions report 0..1, others 0..100.
	Similarity     float64 `json:"similarity"`
	RelevanceLevel string  `json:"relevanceLevel"`
	StartPosition  *int    `json:"startPosition"`
}

// SearchResponse is the lexical search endpoint's envelope.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalResults int            `json:"totalResults"`
	SearchTime   float64        `json:"searchTime"`
}

// ProjectDocument is one entry from the document listing endpoint.
type ProjectDocument struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	Document   struct {
		Filename string `json:"filename"`
	} `json:"document"`
}

// SemanticSnippet is one per-document semantic search hit.
type SemanticSnippet struct {
	Text          string  `json:"text"`
	Similarity    float64 `json:"similarity"`
	StartPosition *int    `json:"startPosition"`
}

// Client talks to one project in the store. Construct with New.
type Client struct {
	cfg     types.BackendConfig
	http    *http.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
}

// New builds a Client from explicit configuration. The base URL and project
// id always come from cfg; nothing is read from the environment here.
func New(cfg types.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
	if cfg.RequestInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(cfg.RequestInterval), 1)
	}
	if cfg.CacheTTL > 0 {
		c.cache = gocache.New(cfg.CacheTTL, 10*time.Minute)
	}
	return c
}

// ProjectID returns the configured project id.
func (c *Client) ProjectID() string { return c.cfg.ProjectID }

// Search runs a lexical search with a per-query result limit. The results
// field must be present in the response, even when empty.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	path := fmt.Sprintf("/api/projects/%s/search", url.PathEscape(c.cfg.ProjectID))
	payload := map[string]any{"query": query, "limit": limit}

	body, err := c.request(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var sr SearchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, fmt.Errorf("parsing response from %s: %w", path, err)
	}
	if sr.Results == nil {
		return nil, fmt.Errorf("backend contract violation at %s: missing results field", path)
	}
	return &sr, nil
}

// ListDocuments fetches the project's document descriptors.
func (c *Client) ListDocuments(ctx context.Context) ([]ProjectDocument, error) {
	path := fmt.Sprintf("/api/projects/%s/documents", url.PathEscape(c.cfg.ProjectID))

	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var docs []ProjectDocument
	if err := json.Unmarshal(body, &docs); err != nil {
		return nil, fmt.Errorf("parsing response from %s: %w", path, err)
	}
	return docs, nil
}

// SemanticSearch runs a semantic-snippet search scoped to one document.
func (c *Client) SemanticSearch(ctx context.Context, projectDocumentID, query string) ([]SemanticSnippet, error) {
	path := fmt.Sprintf("/api/projects/%s/documents/%s/semantic-search",
		url.PathEscape(c.cfg.ProjectID), url.PathEscape(projectDocumentID))
	payload := map[string]any{"query": query}

	body, err := c.request(ctx, http.MethodPost, path, payload)
	if err != nil {
		return nil, err
	}

	var snippets []SemanticSnippet
	if err := json.Unmarshal(body, &snippets); err != nil {
		return nil, fmt.Errorf("parsing response from %s: %w", path, err)
	}
	return snippets, nil
}

// request issues one HTTP call through the limiter, serving identical
// requests from cache when a TTL is configured.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var encoded []byte
	if payload != nil {
		var err error
		encoded, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request for %s: %w", path, err)
		}
	}

	cacheKey := method + " " + path + " " + string(encoded)
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			return cached.([]byte), nil
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var bodyReader *bytes.Reader
	if encoded != nil {
		bodyReader = bytes.NewReader(encoded)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", path, err)
	}
	if encoded != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	body, err := httputil.Do(ctx, c.http, req)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, body, gocache.DefaultExpiration)
	}
	return body, nil
}
