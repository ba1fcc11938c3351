// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/market-scout/pkg/types"
)

func sampleAggregate() types.AggregatedResult {
	return types.AggregatedResult{
		RequestID: "req-1",
		ProviderResults: []types.ProviderResult{
			{ProviderID: "serper", Status: types.StatusOK,
				Items: []json.RawMessage{json.RawMessage(`{"title":"x"}`)}, FetchedFromCache: true},
			{ProviderID: "github", Status: types.StatusFailed, ErrorKind: types.ErrRateLimited},
		},
		DataSourcesUsed:   []string{"serper"},
		TotalItems:        1,
		CacheHitCount:     1,
		ResearchTimestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleAggregate(), &buf)
	out := buf.String()

	for _, want := range []string{"serper", "github", "rate_limited", "hit", "1 items from 1 sources (1 cache hits)"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatTable output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := FormatJSON(sampleAggregate(), &buf); err != nil {
		t.Fatalf("FormatJSON: %v", err)
	}

	var decoded types.AggregatedResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("round-trip: %v", err)
	}
	if decoded.RequestID != "req-1" {
		t.Errorf("RequestID = %q, want %q", decoded.RequestID, "req-1")
	}
	if decoded.CacheHitCount != 1 {
		t.Errorf("CacheHitCount = %d, want 1", decoded.CacheHitCount)
	}
}
