// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the market-scout engine:
// the research request, provider-scoped queries, per-provider results, and
// the aggregated result envelope handed to downstream synthesis.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidQuery reports a malformed query or research request. It fails
// fast at construction time and is never retried.
var ErrInvalidQuery = errors.New("invalid query")

// Status is the terminal state of one provider branch.
type Status string

const (
	StatusOK      Status = "ok"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// ErrorKind classifies a provider failure. The orchestrator records the kind
// on the failed branch; it never surfaces a single kind as a whole-request
// failure.
type ErrorKind string

const (
	// ErrRateLimited marks a quota exhaustion response. Transient; the
	// result is not cached.
	ErrRateLimited ErrorKind = "rate_limited"

	// ErrTransientNetwork marks a network or 5xx failure that survived the
	// adapter's bounded retries.
	ErrTransientNetwork ErrorKind = "transient_network"

	// ErrNotConfigured marks a missing credential. Failed immediately,
	// never retried.
	ErrNotConfigured ErrorKind = "not_configured"

	// ErrPermanent marks a bad request or unparseable response. Not retried.
	ErrPermanent ErrorKind = "permanent"

	// ErrTimeout marks a branch that exceeded its deadline.
	ErrTimeout ErrorKind = "timeout"
)

// ResearchRequest is the caller-supplied input to one research run.
type ResearchRequest struct {
	Topic           string `json:"topic" yaml:"topic"`
	Category        string `json:"category" yaml:"category"`
	ExperienceLevel string `json:"experience_level" yaml:"experience_level"`
}

// Validate reports whether the request can be researched.
func (r ResearchRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidQuery)
	}
	return nil
}

// Query is a provider-scoped sub-query. It is immutable once constructed:
// the parameter map is copied in and only exposed as copies.
type Query struct {
	ProviderID string
	Topic      string
	params     map[string]string
}

// NewQuery constructs a Query. The topic is folded into the parameter map
// under the "topic" key so that it participates in fingerprinting. An empty
// provider id fails with ErrInvalidQuery.
func NewQuery(providerID, topic string, params map[string]string) (Query, error) {
	if strings.TrimSpace(providerID) == "" {
		return Query{}, fmt.Errorf("%w: provider id is required", ErrInvalidQuery)
	}
	cp := make(map[string]string, len(params)+1)
	for k, v := range params {
		cp[k] = v
	}
	if topic != "" {
		cp["topic"] = topic
	}
	return Query{ProviderID: providerID, Topic: topic, params: cp}, nil
}

// Params returns a copy of the query parameters, topic included.
func (q Query) Params() map[string]string {
	cp := make(map[string]string, len(q.params))
	for k, v := range q.params {
		cp[k] = v
	}
	return cp
}

// Param returns a single parameter value, or "" if absent.
func (q Query) Param(key string) string {
	return q.params[key]
}

// ProviderResult is the outcome of one provider branch. Items are opaque
// domain items in provider order; the engine never interprets them.
type ProviderResult struct {
	ProviderID       string            `json:"provider_id"`
	Status           Status            `json:"status"`
	Items            []json.RawMessage `json:"items,omitempty"`
	ErrorKind        ErrorKind         `json:"error_kind,omitempty"`
	FetchedFromCache bool              `json:"fetched_from_cache"`
}

// AggregatedResult is the provenance-tagged envelope handed to the synthesis
// collaborator. DataSourcesUsed and CacheHitCount must stay accurate:
// downstream transparency reporting depends on them.
type AggregatedResult struct {
	RequestID         string           `json:"request_id"`
	ProviderResults   []ProviderResult `json:"provider_results"`
	DataSourcesUsed   []string         `json:"data_sources_used"`
	TotalItems        int              `json:"total_items"`
	CacheHitCount     int              `json:"cache_hit_count"`
	ResearchTimestamp time.Time        `json:"research_timestamp"`
}
