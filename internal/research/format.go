// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package research

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/meshintel/market-scout/pkg/types"
)

// FormatTable writes a human-readable per-provider summary to w.
func FormatTable(agg types.AggregatedResult, w io.Writer) {
	fmt.Fprintf(w, "%-12s  %-8s  %-6s  %-6s  %s\n",
		"Provider", "Status", "Items", "Cache", "Error")
	fmt.Fprintln(w, strings.Repeat("-", 50))

	for _, r := range agg.ProviderResults {
		cached := ""
		if r.FetchedFromCache {
			cached = "hit"
		}
		fmt.Fprintf(w, "%-12s  %-8s  %-6d  %-6s  %s\n",
			r.ProviderID, r.Status, len(r.Items), cached, r.ErrorKind)
	}

	fmt.Fprintf(w, "\n%d items from %d sources (%d cache hits)\n",
		agg.TotalItems, len(agg.DataSourcesUsed), agg.CacheHitCount)
}

// FormatJSON writes the full aggregate as indented JSON to w.
func FormatJSON(agg types.AggregatedResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(agg)
}
