// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/meshintel/market-scout/pkg/types"
)

// hackerNewsAPIBase is the Algolia Hacker News search endpoint. Declared as
// a var so tests can substitute an httptest server. No credential required.
var hackerNewsAPIBase = "https://hn.algolia.com/api/v1/search"

// HackerNewsAdapter surfaces hiring threads and technology discussions.
type HackerNewsAdapter struct {
	Client     *http.Client
	MaxResults int
	UserAgent  string

	limiter *rate.Limiter
}

// NewHackerNews constructs the forum-threads adapter.
func NewHackerNews(cfg types.ProviderConfig) *HackerNewsAdapter {
	return &HackerNewsAdapter{
		Client:     &http.Client{Timeout: cfg.Timeout},
		MaxResults: cfg.MaxResults,
		UserAgent:  cfg.UserAgent,
		limiter:    newLimiter(hackerNewsRate),
	}
}

// Name returns the provider identifier.
func (a *HackerNewsAdapter) Name() string { return "hackernews" }

// DefaultTTL returns the cache lifetime for discussion payloads. Hiring
// threads churn daily, like job-market data.
func (a *HackerNewsAdapter) DefaultTTL() time.Duration { return 24 * time.Hour }

// BuildQuery derives the discussion-search query for a research request.
func (a *HackerNewsAdapter) BuildQuery(req types.ResearchRequest) (types.Query, error) {
	return types.NewQuery(a.Name(), req.Topic, map[string]string{
		"category": req.Category,
		"tags":     "story",
	})
}

// Fetch searches Hacker News stories for the topic.
func (a *HackerNewsAdapter) Fetch(ctx context.Context, q types.Query) ([]byte, error) {
	search := q.Topic
	if c := q.Param("category"); c != "" {
		search += " " + c
	}

	params := url.Values{
		"query":       {search},
		"tags":        {q.Param("tags")},
		"hitsPerPage": {fmt.Sprintf("%d", a.maxResults())},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hackerNewsAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrPermanent, Err: err}
	}
	req.Header.Set("User-Agent", a.UserAgent)

	var hr hackerNewsResponse
	if err := do(ctx, a.Name(), a.Client, a.limiter, req, &hr); err != nil {
		return nil, err
	}

	payload := hackerNewsPayload{Query: search}
	for _, hit := range hr.Hits {
		payload.Stories = append(payload.Stories, hackerNewsStory{
			ObjectID:    hit.ObjectID,
			Title:       hit.Title,
			URL:         hit.URL,
			Author:      hit.Author,
			Points:      hit.Points,
			NumComments: hit.NumComments,
			CreatedAt:   hit.CreatedAt,
		})
	}
	return json.Marshal(payload)
}

func (a *HackerNewsAdapter) maxResults() int {
	if a.MaxResults > 0 {
		return a.MaxResults
	}
	return 10
}

// Items parses a payload into opaque story items.
func (a *HackerNewsAdapter) Items(payload []byte) ([]json.RawMessage, bool, error) {
	var p hackerNewsPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, fmt.Errorf("parsing hackernews payload: %w", err)
	}
	items, err := rawItems(p.Stories)
	return items, false, err
}

// Algolia HN API JSON structures.
type hackerNewsResponse struct {
	Hits []hackerNewsHit `json:"hits"`
}

type hackerNewsHit struct {
	ObjectID    string `json:"objectID"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}

// hackerNewsPayload is the serialized cache payload.
type hackerNewsPayload struct {
	Query   string            `json:"query"`
	Stories []hackerNewsStory `json:"stories"`
}

type hackerNewsStory struct {
	ObjectID    string `json:"object_id"`
	Title       string `json:"title"`
	URL         string `json:"url,omitempty"`
	Author      string `json:"author"`
	Points      int    `json:"points"`
	NumComments int    `json:"num_comments"`
	CreatedAt   string `json:"created_at"`
}
