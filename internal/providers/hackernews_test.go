// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/market-scout/pkg/types"
)

const sampleHackerNewsResponse = `{
  "hits": [
    {"objectID": "39000001", "title": "Who is hiring? (August 2026)", "url": "", "author": "whoishiring", "points": 512, "num_comments": 840, "created_at": "2026-08-01T15:00:00Z"},
    {"objectID": "39000002", "title": "Rust in production at scale", "url": "https://example.com/rust-prod", "author": "pg", "points": 310, "num_comments": 120, "created_at": "2026-07-20T09:30:00Z"}
  ]
}`

func TestHackerNewsFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if got := q.Get("tags"); got != "story" {
			t.Errorf("tags = %q, want %q", got, "story")
		}
		if got := q.Get("hitsPerPage"); got != "5" {
			t.Errorf("hitsPerPage = %q, want %q", got, "5")
		}
		fmt.Fprint(w, sampleHackerNewsResponse)
	}))
	defer ts.Close()

	origBase := hackerNewsAPIBase
	hackerNewsAPIBase = ts.URL
	defer func() { hackerNewsAPIBase = origBase }()

	a := NewHackerNews(types.ProviderConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "market-scout-test/0.1"},
		MaxResults: 5,
	})
	a.Client = ts.Client()

	q, err := a.BuildQuery(types.ResearchRequest{Topic: "rust", Category: "backend"})
	if err != nil {
		t.Fatalf("BuildQuery: %v", err)
	}

	payload, err := a.Fetch(context.Background(), q)
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
	if !strings.Contains(string(items[0]), "39000001") {
		t.Errorf("first item = %s, want it to carry object_id 39000001", items[0])
	}
}

func TestHackerNewsDefaultTTL(t *testing.T) {
	a := NewHackerNews(types.ProviderConfig{})
	if got := a.DefaultTTL(); got != 24*time.Hour {
		t.Errorf("DefaultTTL() = %v, want 24h", got)
	}
}
