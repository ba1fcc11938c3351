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

// youTubeAPIBase is the YouTube Data API v3 search endpoint. Declared as a
// var so tests can substitute an httptest server.
var youTubeAPIBase = "https://www.googleapis.com/youtube/v3/search"

// YouTubeAdapter discovers tutorial and course videos for a topic.
type YouTubeAdapter struct {
	Client     *http.Client
	APIKey     string
	MaxResults int
	UserAgent  string

	limiter *rate.Limiter
}

// NewYouTube constructs the video-resources adapter.
func NewYouTube(cfg types.ProviderConfig) *YouTubeAdapter {
	return &YouTubeAdapter{
		Client:     &http.Client{Timeout: cfg.Timeout},
		APIKey:     cfg.YouTubeAPIKey,
		MaxResults: cfg.MaxResults,
		UserAgent:  cfg.UserAgent,
		limiter:    newLimiter(youTubeRate),
	}
}

// Name returns the provider identifier.
func (a *YouTubeAdapter) Name() string { return "youtube" }

// DefaultTTL returns the cache lifetime for video-resource payloads.
func (a *YouTubeAdapter) DefaultTTL() time.Duration { return 48 * time.Hour }

// BuildQuery derives the learning-resources query for a research request.
func (a *YouTubeAdapter) BuildQuery(req types.ResearchRequest) (types.Query, error) {
	return types.NewQuery(a.Name(), req.Topic, map[string]string{
		"level": req.ExperienceLevel,
	})
}

// Fetch searches for tutorial videos matching the topic and level.
func (a *YouTubeAdapter) Fetch(ctx context.Context, q types.Query) ([]byte, error) {
	if a.APIKey == "" {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrNotConfigured,
			Err: fmt.Errorf("youtube-api-key is not set")}
	}

	search := fmt.Sprintf("%s tutorial %s", q.Topic, q.Param("level"))
	params := url.Values{
		"part":       {"snippet"},
		"q":          {search},
		"type":       {"video"},
		"maxResults": {fmt.Sprintf("%d", a.maxResults())},
		"order":      {"relevance"},
		"key":        {a.APIKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, youTubeAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &Error{Provider: a.Name(), Kind: types.ErrPermanent, Err: err}
	}
	req.Header.Set("User-Agent", a.UserAgent)

	var yr youTubeSearchResponse
	if err := do(ctx, a.Name(), a.Client, a.limiter, req, &yr); err != nil {
		return nil, err
	}

	payload := youTubePayload{Query: search}
	for _, item := range yr.Items {
		payload.Videos = append(payload.Videos, youTubeVideo{
			VideoID:     item.ID.VideoID,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			Description: item.Snippet.Description,
			PublishedAt: item.Snippet.PublishedAt,
		})
	}
	return json.Marshal(payload)
}

func (a *YouTubeAdapter) maxResults() int {
	if a.MaxResults > 0 {
		return a.MaxResults
	}
	return 10
}

// Items parses a payload into opaque video items.
func (a *YouTubeAdapter) Items(payload []byte) ([]json.RawMessage, bool, error) {
	var p youTubePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, fmt.Errorf("parsing youtube payload: %w", err)
	}
	items, err := rawItems(p.Videos)
	return items, false, err
}

// YouTube API JSON structures.
type youTubeSearchResponse struct {
	Items []youTubeSearchItem `json:"items"`
}

type youTubeSearchItem struct {
	ID      youTubeItemID  `json:"id"`
	Snippet youTubeSnippet `json:"snippet"`
}

type youTubeItemID struct {
	VideoID string `json:"videoId"`
}

type youTubeSnippet struct {
	Title        string `json:"title"`
	ChannelTitle string `json:"channelTitle"`
	Description  string `json:"description"`
	PublishedAt  string `json:"publishedAt"`
}

// youTubePayload is the serialized cache payload.
type youTubePayload struct {
	Query  string         `json:"query"`
	Videos []youTubeVideo `json:"videos"`
}

type youTubeVideo struct {
	VideoID     string `json:"video_id"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Description string `json:"description"`
	PublishedAt string `json:"published_at"`
}
