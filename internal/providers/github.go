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

// gitHubAPIBase is the GitHub repository search endpoint. Declared as a var
// so tests can substitute an httptest server.
var gitHubAPIBase = "https://api.github.com/search/repositories"

// GitHubAdapter measures technology adoption through repository search.
// A token is optional: unauthenticated requests work at a lower rate limit,
// so a missing token is not a configuration failure.
type GitHubAdapter struct {
	Client     *http.Client
	Token      string
	MaxResults int
	UserAgent  string

	limiter *rate.Limiter
}

// NewGitHub constructs the code-trends adapter.
func NewGitHub(cfg types.ProviderConfig) *GitHubAdapter {
	return &GitHubAdapter{
		Client:     &http.Client{Timeout: cfg.Timeout},
		Token:      cfg.GitHubToken,
		MaxResults: cfg.MaxResults,
		UserAgent:  cfg.UserAgent,
		limiter:    newLimiter(gitHubRate),
	}
}

// Name returns the provider identifier.
func (a *GitHubAdapter) Name() string { return "github" }

// DefaultTTL returns the cache lifetime for trend payloads. Repository
// popularity moves slowly, so trends cache longer than job data.
func (a *GitHubAdapter) DefaultTTL() time.Duration { return 48 * time.Hour }

// BuildQuery derives the repository-trend query for a research request.
func (a *GitHubAdapter) BuildQuery(req types.ResearchRequest) (types.Query, error) {
	return types.NewQuery(a.Name(), req.Topic, map[string]string{
		"category": req.Category,
	})
}

// Fetch searches for active repositories matching the topic, sorted by
// stars, and serializes the trend metrics into a payload.
func (a *GitHubAdapter) Fetch(ctx context.Context, q types.Query) ([]byte, error) {
	search := q.Topic
	if c := q.Param("category"); c != "" {
		search += " " + c
	}

	params := url.Values{
		"q":        {search + " stars:>100"},
		"sort":     {"stars"},
		"order":    {"desc"},
		"per_page": {fmt.Sprintf("%d", a.maxResults())},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, gitHubAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrPermanent, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", a.UserAgent)
	if a.Token != "" {
		req.Header.Set("Authorization", "token "+a.Token)
	}

	var gr gitHubSearchResponse
	if err := do(ctx, a.Name(), a.Client, a.limiter, req, &gr); err != nil {
		return nil, err
	}

	payload := gitHubPayload{TotalCount: gr.TotalCount}
	for _, r := range gr.Items {
		payload.Repos = append(payload.Repos, gitHubRepoItem{
			FullName:    r.FullName,
			Description: r.Description,
			Stars:       r.StargazersCount,
			Forks:       r.ForksCount,
			Language:    r.Language,
			Topics:      r.Topics,
			URL:         r.HTMLURL,
		})
		payload.TotalStars += r.StargazersCount
	}
	return json.Marshal(payload)
}

func (a *GitHubAdapter) maxResults() int {
	if a.MaxResults > 0 {
		return a.MaxResults
	}
	return 10
}

// Items parses a payload into opaque repository items.
func (a *GitHubAdapter) Items(payload []byte) ([]json.RawMessage, bool, error) {
	var p gitHubPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, fmt.Errorf("parsing github payload: %w", err)
	}
	items, err := rawItems(p.Repos)
	return items, false, err
}

// GitHub API JSON structures.
type gitHubSearchResponse struct {
	TotalCount int          `json:"total_count"`
	Items      []gitHubRepo `json:"items"`
}

type gitHubRepo struct {
	FullName        string   `json:"full_name"`
	Description     string   `json:"description"`
	StargazersCount int      `json:"stargazers_count"`
	ForksCount      int      `json:"forks_count"`
	Language        string   `json:"language"`
	Topics          []string `json:"topics"`
	HTMLURL         string   `json:"html_url"`
}

// gitHubPayload is the serialized cache payload: trimmed repository records
// plus aggregate trend metrics.
type gitHubPayload struct {
	TotalCount int              `json:"total_count"`
	TotalStars int              `json:"total_stars"`
	Repos      []gitHubRepoItem `json:"repos"`
}

type gitHubRepoItem struct {
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	Stars       int      `json:"stars"`
	Forks       int      `json:"forks"`
	Language    string   `json:"language,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	URL         string   `json:"url"`
}
