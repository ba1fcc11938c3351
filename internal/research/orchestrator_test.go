// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/meshintel/market-scout/internal/cache"
	"github.com/meshintel/market-scout/internal/providers"
	"github.com/meshintel/market-scout/pkg/types"
)

// fakeAdapter is a scriptable provider: it yields a fixed number of items or
// fails with a fixed kind, and counts upstream fetches.
type fakeAdapter struct {
	name     string
	items    int
	failKind types.ErrorKind
	partial  bool
	ttl      time.Duration

	fetchCalls atomic.Int64
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) DefaultTTL() time.Duration {
	if f.ttl > 0 {
		return f.ttl
	}
	return time.Hour
}

func (f *fakeAdapter) BuildQuery(req types.ResearchRequest) (types.Query, error) {
	return types.NewQuery(f.name, req.Topic, map[string]string{"category": req.Category})
}

func (f *fakeAdapter) Fetch(ctx context.Context, q types.Query) ([]byte, error) {
	f.fetchCalls.Add(1)
	if f.failKind != "" {
		return nil, &providers.Error{Provider: f.name, Kind: f.failKind, Err: errors.New("scripted failure")}
	}
	payload := fakePayload{Partial: f.partial}
	for i := 0; i < f.items; i++ {
		payload.Entries = append(payload.Entries, fmt.Sprintf("%s-item-%d", f.name, i))
	}
	return json.Marshal(payload)
}

func (f *fakeAdapter) Items(payload []byte) ([]json.RawMessage, bool, error) {
	var p fakePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, false, err
	}
	items := make([]json.RawMessage, 0, len(p.Entries))
	for _, e := range p.Entries {
		raw, err := json.Marshal(e)
		if err != nil {
			return nil, false, err
		}
		items = append(items, raw)
	}
	return items, p.Partial, nil
}

type fakePayload struct {
	Entries []string `json:"entries"`
	Partial bool     `json:"partial"`
}

func testStore(t *testing.T) *cache.Store {
	t.Helper()
	s, err := cache.NewStore(types.CacheConfig{CacheDir: t.TempDir()}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRequest() types.ResearchRequest {
	return types.ResearchRequest{
		Topic:           "Frontend Development",
		Category:        "frontend",
		ExperienceLevel: "intermediate",
	}
}

func TestResearchInvalidRequest(t *testing.T) {
	o := New(testStore(t), []providers.Adapter{&fakeAdapter{name: "a", items: 1}}, types.ResearchConfig{}, nil)
	_, err := o.Research(context.Background(), types.ResearchRequest{Topic: "   "})
	if !errors.Is(err, types.ErrInvalidQuery) {
		t.Fatalf("Research() error = %v, want ErrInvalidQuery", err)
	}
}

func TestResearchPartialFailure(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "serper", items: 3},
		&fakeAdapter{name: "github", failKind: types.ErrNotConfigured},
		&fakeAdapter{name: "youtube", items: 2},
		&fakeAdapter{name: "hackernews", items: 1},
	}
	o := New(testStore(t), adapters, types.ResearchConfig{}, nil)

	agg, err := o.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Research() failed: %v", err)
	}

	if len(agg.ProviderResults) != 4 {
		t.Fatalf("provider results = %d, want 4", len(agg.ProviderResults))
	}
	if agg.ProviderResults[1].Status != types.StatusFailed {
		t.Errorf("github status = %s, want failed", agg.ProviderResults[1].Status)
	}
	if agg.ProviderResults[1].ErrorKind != types.ErrNotConfigured {
		t.Errorf("github kind = %s, want not_configured", agg.ProviderResults[1].ErrorKind)
	}

	wantSources := []string{"hackernews", "serper", "youtube"}
	if len(agg.DataSourcesUsed) != len(wantSources) {
		t.Fatalf("DataSourcesUsed = %v, want %v", agg.DataSourcesUsed, wantSources)
	}
	for i, s := range wantSources {
		if agg.DataSourcesUsed[i] != s {
			t.Errorf("DataSourcesUsed[%d] = %q, want %q", i, agg.DataSourcesUsed[i], s)
		}
	}
	if agg.TotalItems != 6 {
		t.Errorf("TotalItems = %d, want 6", agg.TotalItems)
	}
	if agg.RequestID == "" {
		t.Error("RequestID is empty")
	}
}

func TestResearchAllFailed(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "serper", failKind: types.ErrNotConfigured},
		&fakeAdapter{name: "github", failKind: types.ErrRateLimited},
	}
	o := New(testStore(t), adapters, types.ResearchConfig{}, nil)

	agg, err := o.Research(context.Background(), testRequest())
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("Research() error = %v, want ErrAllProvidersFailed", err)
	}
	if len(agg.ProviderResults) != 2 {
		t.Errorf("provider results = %d, want 2 even on total failure", len(agg.ProviderResults))
	}
	for _, r := range agg.ProviderResults {
		if r.Status != types.StatusFailed {
			t.Errorf("%s status = %s, want failed", r.ProviderID, r.Status)
		}
	}
}

func TestResearchResultsKeepRegistrationOrder(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "serper", items: 1},
		&fakeAdapter{name: "github", items: 1},
		&fakeAdapter{name: "youtube", items: 1},
		&fakeAdapter{name: "hackernews", items: 1},
	}
	o := New(testStore(t), adapters, types.ResearchConfig{MaxConcurrent: 2}, nil)

	agg, err := o.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Research() failed: %v", err)
	}
	for i, a := range adapters {
		if agg.ProviderResults[i].ProviderID != a.Name() {
			t.Errorf("results[%d] = %s, want %s", i, agg.ProviderResults[i].ProviderID, a.Name())
		}
	}
}

func TestResearchPartialProviderStatus(t *testing.T) {
	adapters := []providers.Adapter{
		&fakeAdapter{name: "serper", items: 4, partial: true},
	}
	o := New(testStore(t), adapters, types.ResearchConfig{}, nil)

	agg, err := o.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Research() failed: %v", err)
	}
	if agg.ProviderResults[0].Status != types.StatusPartial {
		t.Errorf("status = %s, want partial", agg.ProviderResults[0].Status)
	}
	if agg.TotalItems != 4 {
		t.Errorf("TotalItems = %d, want 4 (partial payloads still count)", agg.TotalItems)
	}
}

// A repeated run serves every surviving provider from the cache and does not
// touch the upstreams again.
func TestResearchRepeatRunHitsCache(t *testing.T) {
	serper := &fakeAdapter{name: "serper", items: 12}
	github := &fakeAdapter{name: "github", failKind: types.ErrTransientNetwork}
	youtube := &fakeAdapter{name: "youtube", items: 8}
	hackernews := &fakeAdapter{name: "hackernews", items: 5}
	adapters := []providers.Adapter{serper, github, youtube, hackernews}

	o := New(testStore(t), adapters, types.ResearchConfig{}, nil)

	first, err := o.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("first Research() failed: %v", err)
	}
	if first.TotalItems != 25 {
		t.Errorf("first TotalItems = %d, want 25", first.TotalItems)
	}
	if first.CacheHitCount != 0 {
		t.Errorf("first CacheHitCount = %d, want 0", first.CacheHitCount)
	}
	if len(first.DataSourcesUsed) != 3 {
		t.Errorf("first DataSourcesUsed = %v, want 3 sources", first.DataSourcesUsed)
	}

	second, err := o.Research(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("second Research() failed: %v", err)
	}
	if second.CacheHitCount != 3 {
		t.Errorf("second CacheHitCount = %d, want 3", second.CacheHitCount)
	}
	if second.TotalItems != 25 {
		t.Errorf("second TotalItems = %d, want 25", second.TotalItems)
	}
	for _, a := range []*fakeAdapter{serper, youtube, hackernews} {
		if got := a.fetchCalls.Load(); got != 1 {
			t.Errorf("%s fetch calls = %d, want 1 (second run cached)", a.name, got)
		}
	}
	// The failed branch was never cached, so it is retried.
	if got := github.fetchCalls.Load(); got != 2 {
		t.Errorf("github fetch calls = %d, want 2", got)
	}
	if first.RequestID == second.RequestID {
		t.Error("repeat run reused the request id")
	}
}

func TestTTLOverrideWins(t *testing.T) {
	a := &fakeAdapter{name: "serper", items: 1, ttl: 24 * time.Hour}
	o := New(testStore(t), []providers.Adapter{a}, types.ResearchConfig{
		TTLOverrides: map[string]time.Duration{"serper": time.Minute},
	}, nil)

	if got := o.ttl(a); got != time.Minute {
		t.Errorf("ttl() = %v, want override of 1m", got)
	}
	if got := o.ttl(&fakeAdapter{name: "github", ttl: 48 * time.Hour}); got != 48*time.Hour {
		t.Errorf("ttl() = %v, want adapter default of 48h", got)
	}
}
