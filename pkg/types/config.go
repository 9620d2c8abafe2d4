package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "cite-gate/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// BackendConfig holds settings for the document/annotation store client.
// The base URL and project id are explicit here; no entry point reads them
// from the environment directly.
type BackendConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the store's base URL (e.g. "https://store.example.com").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// ProjectID is the project whose documents and annotations are searched.
	ProjectID string `json:"project_id" yaml:"project_id"`

	// APIKey is an optional bearer token for the store.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// RequestInterval spaces consecutive backend requests. Calls stay
	// sequential and blocking; the limiter only enforces minimum spacing.
	RequestInterval time.Duration `json:"request_interval" yaml:"request_interval"`

	// CacheTTL is how long identical request responses are served from the
	// in-memory cache. Zero disables caching.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// RetrievalConfig holds settings for the evidence retrieval stage.
type RetrievalConfig struct {
	// PerQueryLimit is the per-query backend result limit (default 15).
	PerQueryLimit int `json:"per_query_limit" yaml:"per_query_limit"`

	// TopN is the packet size after ranking (default 12).
	TopN int `json:"top_n" yaml:"top_n"`

	// EnableSemantic turns on per-document semantic expansion.
	EnableSemantic bool `json:"enable_semantic" yaml:"enable_semantic"`

	// MaxSemanticDocs caps how many documents are semantically searched (default 4).
	MaxSemanticDocs int `json:"max_semantic_docs" yaml:"max_semantic_docs"`

	// SemanticPerDoc caps snippets taken per document (default 2).
	SemanticPerDoc int `json:"semantic_per_doc" yaml:"semantic_per_doc"`
}

// StoreConfig holds settings for the local run-history store.
type StoreConfig struct {
	// StateDir is the directory holding cite-gate.db (default "state").
	StateDir string `json:"state_dir" yaml:"state_dir"`

	// MaxResults is the default maximum number of history query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// MemoryConfig holds settings for the rolling project memory file.
type MemoryConfig struct {
	// Path is the memory file location (default "memory.yaml").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Backend   BackendConfig   `json:"backend" yaml:"backend"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval"`
	Store     StoreConfig     `json:"store" yaml:"store"`
	Memory    MemoryConfig    `json:"memory" yaml:"memory"`
}
