// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/meshintel/market-scout/pkg/types"
)

// serperAPIBase is the Serper.dev Google Search endpoint. Declared as a var
// so tests can substitute an httptest server.
var serperAPIBase = "https://google.serper.dev/search"

// SerperAdapter queries Google Search via Serper.dev for job-market and
// salary data. Job-market data is volatile, so its payloads carry the
// shortest default TTL of the four providers.
type SerperAdapter struct {
	Client     *http.Client
	APIKey     string
	Location   string
	MaxResults int
	UserAgent  string

	limiter *rate.Limiter
}

// NewSerper constructs the web-search adapter.
func NewSerper(cfg types.ProviderConfig) *SerperAdapter {
	return &SerperAdapter{
		Client:     &http.Client{Timeout: cfg.Timeout},
		APIKey:     cfg.SerperAPIKey,
		Location:   cfg.Location,
		MaxResults: cfg.MaxResults,
		UserAgent:  cfg.UserAgent,
		limiter:    newLimiter(serperRate),
	}
}

// Name returns the provider identifier.
func (a *SerperAdapter) Name() string { return "serper" }

// DefaultTTL returns the cache lifetime for job-market payloads.
func (a *SerperAdapter) DefaultTTL() time.Duration { return 24 * time.Hour }

// BuildQuery derives the job-market query for a research request.
func (a *SerperAdapter) BuildQuery(req types.ResearchRequest) (types.Query, error) {
	return types.NewQuery(a.Name(), req.Topic, map[string]string{
		"category": req.Category,
		"level":    req.ExperienceLevel,
		"location": a.location(),
	})
}

func (a *SerperAdapter) location() string {
	if a.Location != "" {
		return a.Location
	}
	return "United States"
}

// subQueries returns the targeted searches run for one query. Multiple
// angles on the same topic (requirements, salary, skills) are merged into a
// single payload.
func (a *SerperAdapter) subQueries(q types.Query) []string {
	topic := q.Topic
	category := q.Param("category")
	level := q.Param("level")
	return []string{
		fmt.Sprintf("%s %s jobs %s requirements", topic, category, level),
		fmt.Sprintf("%s salary range %s", topic, level),
		fmt.Sprintf("%s skills in demand", category),
	}
}

// Fetch runs the sub-query searches and merges their organic results into
// one payload. A sub-query failure is recorded in the payload rather than
// failing the fetch, as long as at least one sub-query succeeded.
func (a *SerperAdapter) Fetch(ctx context.Context, q types.Query) ([]byte, error) {
	if a.APIKey == "" {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrNotConfigured,
			Err: fmt.Errorf("serper-api-key is not set")}
	}

	payload := serperPayload{Queries: a.subQueries(q)}
	var lastErr error
	for _, sub := range payload.Queries {
		results, err := a.search(ctx, sub)
		if err != nil {
			lastErr = err
			payload.Errors = append(payload.Errors, fmt.Sprintf("%s: %v", sub, err))
			continue
		}
		payload.Results = append(payload.Results, results...)
	}

	if len(payload.Results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return json.Marshal(payload)
}

func (a *SerperAdapter) search(ctx context.Context, query string) ([]serperOrganic, error) {
	body, err := json.Marshal(serperRequest{
		Query:    query,
		Num:      a.maxResults(),
		Country:  "us",
		Language: "en",
		Location: a.location(),
	})
	if err != nil {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrPermanent, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIBase, bytes.NewReader(body))
	if err != nil {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrPermanent, Err: err}
	}
	req.Header.Set("X-API-KEY", a.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", a.UserAgent)

	var sr serperResponse
	if err := do(ctx, a.Name(), a.Client, a.limiter, req, &sr); err != nil {
		return nil, err
	}
	return sr.Organic, nil
}

func (a *SerperAdapter) maxResults() int {
	if a.MaxResults > 0 {
		return a.MaxResults
	}
	return 10
}

// Items parses a payload into opaque search-result items. The payload is
// partial when some sub-queries failed.
func (a *SerperAdapter) Items(payload []byte) ([]json.RawMessage, bool, error) {
	var p serperPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, fmt.Errorf("parsing serper payload: %w", err)
	}
	items, err := rawItems(p.Results)
	if err != nil {
		return nil, false, err
	}
	return items, len(p.Errors) > 0, nil
}

// Serper API JSON structures.
type serperRequest struct {
	Query    string `json:"q"`
	Num      int    `json:"num"`
	Country  string `json:"gl"`
	Language string `json:"hl"`
	Location string `json:"location"`
}

type serperResponse struct {
	Organic []serperOrganic `json:"organic"`
}

type serperOrganic struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// serperPayload is the serialized cache payload: merged organic results plus
// any per-sub-query failures.
type serperPayload struct {
	Queries []string        `json:"queries"`
	Results []serperOrganic `json:"results"`
	Errors  []string        `json:"errors,omitempty"`
}
