// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings for components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "market-scout/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CacheConfig holds settings for the cache store.
type CacheConfig struct {
	// CacheDir is the directory holding the SQLite cache database.
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

// ProviderConfig holds settings shared by the provider adapters.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// SerperAPIKey authenticates against the Serper.dev search API.
	SerperAPIKey string `json:"serper_api_key,omitempty" yaml:"serper_api_key,omitempty"`

	// GitHubToken is optional; it raises the GitHub search rate limit
	// from 60 to 5000 requests/hour.
	GitHubToken string `json:"github_token,omitempty" yaml:"github_token,omitempty"`

	// YouTubeAPIKey authenticates against the YouTube Data API v3.
	YouTubeAPIKey string `json:"youtube_api_key,omitempty" yaml:"youtube_api_key,omitempty"`

	// MaxResults is the per-provider result cap (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// Location is the geographic scope for web searches (default "United States").
	Location string `json:"location" yaml:"location"`
}

// ResearchConfig holds settings for the orchestrator.
type ResearchConfig struct {
	// MaxConcurrent bounds the number of provider branches in flight (default 4).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent"`

	// RequestTimeout is the overall deadline for one research run (default 60s).
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// BranchTimeout is the per-provider deadline within a run (default 30s).
	BranchTimeout time.Duration `json:"branch_timeout" yaml:"branch_timeout"`

	// TTLOverrides maps provider id to a cache TTL, overriding the
	// adapter's default (volatile job data 24h, trend data 48h).
	TTLOverrides map[string]time.Duration `json:"ttl_overrides,omitempty" yaml:"ttl_overrides,omitempty"`
}

// EngineConfig groups all engine configuration.
type EngineConfig struct {
	Cache     CacheConfig    `json:"cache" yaml:"cache"`
	Providers ProviderConfig `json:"providers" yaml:"providers"`
	Research  ResearchConfig `json:"research" yaml:"research"`
}
