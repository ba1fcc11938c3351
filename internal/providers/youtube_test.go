// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/market-scout/pkg/types"
)

const sampleYouTubeResponse = `{
  "items": [
    {"id": {"videoId": "abc123"}, "snippet": {"title": "Rust Crash Course", "channelTitle": "Tech Academy", "description": "learn rust", "publishedAt": "2026-01-15T00:00:00Z"}},
    {"id": {"videoId": "def456"}, "snippet": {"title": "Advanced Rust Patterns", "channelTitle": "Systems Weekly", "description": "traits and lifetimes", "publishedAt": "2026-03-02T00:00:00Z"}}
  ]
}`

func youTubeQuery(t *testing.T) types.Query {
	t.Helper()
	q, err := types.NewQuery("youtube", "rust", map[string]string{"level": "intermediate"})
	if err != nil {
		t.Fatalf("NewQuery: %v", err)
	}
	return q
}

func TestYouTubeNotConfigured(t *testing.T) {
	a := NewYouTube(types.ProviderConfig{})
	_, err := a.Fetch(context.Background(), youTubeQuery(t))
	var pe *Error
	if !errors.As(err, &pe) {
		t.Fatalf("Fetch() error = %v, want *Error", err)
	}
	if pe.Kind != types.ErrNotConfigured {
		t.Errorf("Fetch() kind = %s, want %s", pe.Kind, types.ErrNotConfigured)
	}
}

func TestYouTubeFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("key"); got != "yt-key" {
			t.Errorf("key = %q, want %q", got, "yt-key")
		}
		if got := q.Get("type"); got != "video" {
			t.Errorf("type = %q, want %q", got, "video")
		}
		if !strings.Contains(q.Get("q"), "tutorial") {
			t.Errorf("q = %q, want it to contain %q", q.Get("q"), "tutorial")
		}
		fmt.Fprint(w, sampleYouTubeResponse)
	}))
	defer ts.Close()

	origBase := youTubeAPIBase
	youTubeAPIBase = ts.URL
	defer func() { youTubeAPIBase = origBase }()

	a := NewYouTube(types.ProviderConfig{
		HTTPConfig:    types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "market-scout-test/0.1"},
		YouTubeAPIKey: "yt-key",
		MaxResults:    5,
	})
	a.Client = ts.Client()

	payload, err := a.Fetch(context.Background(), youTubeQuery(t))
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	items, partial, err := a.Items(payload)
	if err != nil {
		t.Fatalf("Items() failed: %v", err)
	}
	if partial {
		t.Error("Items() partial = true, want false")
	}
	if len(items) != 2 {
		t.Errorf("items = %d, want 2", len(items))
	}
	if !strings.Contains(string(items[0]), "abc123") {
		t.Errorf("first item = %s, want it to carry video_id abc123", items[0])
	}
}
