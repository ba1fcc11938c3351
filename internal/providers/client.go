// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/meshintel/market-scout/internal/httputil"
	"github.com/meshintel/market-scout/pkg/types"
)

// maxFetchRetries bounds in-adapter retries for transient failures.
const maxFetchRetries = 2

// Proactive per-provider throttle rates (requests/second). GitHub's stays
// under the authenticated quota of 5000/hour; the rest follow the published
// per-second limits of their APIs.
const (
	serperRate     = 2.0
	gitHubRate     = 1.2
	youTubeRate    = 2.0
	hackerNewsRate = 3.0
)

func newLimiter(perSecond float64) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}

// do waits for the provider's token bucket, issues the request with bounded
// retries, classifies any failure into *Error, and decodes the body into v.
func do(ctx context.Context, provider string, client *http.Client, limiter *rate.Limiter, req *http.Request, v any) error {
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return &Error{Provider: provider, Kind: types.ErrTimeout, Err: err}
		}
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, maxFetchRetries)
	if err != nil {
		kind := types.ErrTransientNetwork
		if ctx.Err() != nil {
			kind = types.ErrTimeout
		}
		return &Error{Provider: provider, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Error{Provider: provider, Kind: types.ErrRateLimited, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return &Error{Provider: provider, Kind: types.ErrTransientNetwork, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	default:
		return &Error{Provider: provider, Kind: types.ErrPermanent, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &Error{Provider: provider, Kind: types.ErrPermanent, Err: fmt.Errorf("parsing response: %w", err)}
	}
	return nil
}
