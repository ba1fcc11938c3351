// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research coordinates one research run: it fans a request out to
// every registered provider adapter concurrently, routes each branch through
// the cache, tolerates partial failure, and assembles the provenance-tagged
// aggregate handed to downstream synthesis.
package research

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meshintel/market-scout/internal/cache"
	"github.com/meshintel/market-scout/internal/providers"
	"github.com/meshintel/market-scout/pkg/types"
)

// ErrAllProvidersFailed reports that no provider branch produced a payload.
// A run with at least one surviving branch never returns it.
var ErrAllProvidersFailed = errors.New("all providers failed")

const (
	defaultMaxConcurrent  = 4
	defaultRequestTimeout = 60 * time.Second
	defaultBranchTimeout  = 30 * time.Second
)

// Orchestrator runs research requests against a fixed set of adapters.
type Orchestrator struct {
	store    *cache.Store
	adapters []providers.Adapter
	cfg      types.ResearchConfig
	logger   *zap.Logger
}

// New constructs an orchestrator. Zero config fields fall back to defaults.
func New(store *cache.Store, adapters []providers.Adapter, cfg types.ResearchConfig, logger *zap.Logger) *Orchestrator {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = defaultMaxConcurrent
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.BranchTimeout <= 0 {
		cfg.BranchTimeout = defaultBranchTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{store: store, adapters: adapters, cfg: cfg, logger: logger}
}

// Research fans the request out to every adapter, bounded by MaxConcurrent,
// and aggregates the branch outcomes. Provider results keep the adapter
// registration order regardless of completion order. A branch failure is
// recorded on its result, never propagated; only the all-failed run errors.
func (o *Orchestrator) Research(ctx context.Context, req types.ResearchRequest) (types.AggregatedResult, error) {
	if err := req.Validate(); err != nil {
		return types.AggregatedResult{}, err
	}
	if len(o.adapters) == 0 {
		return types.AggregatedResult{}, fmt.Errorf("no providers registered")
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RequestTimeout)
	defer cancel()

	results := make([]types.ProviderResult, len(o.adapters))

	var g errgroup.Group
	g.SetLimit(o.cfg.MaxConcurrent)
	for i, a := range o.adapters {
		i, a := i, a
		g.Go(func() error {
			results[i] = o.runBranch(ctx, a, req)
			return nil
		})
	}
	g.Wait()

	return o.assemble(results)
}

// runBranch executes one provider branch under its own deadline. Every
// failure path resolves to a failed ProviderResult.
func (o *Orchestrator) runBranch(ctx context.Context, a providers.Adapter, req types.ResearchRequest) types.ProviderResult {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.BranchTimeout)
	defer cancel()

	q, err := a.BuildQuery(req)
	if err != nil {
		o.logger.Warn("provider query rejected",
			zap.String("provider", a.Name()), zap.Error(err))
		return types.ProviderResult{ProviderID: a.Name(), Status: types.StatusFailed, ErrorKind: types.ErrPermanent}
	}

	payload, fromCache, err := o.store.GetOrFetch(ctx, q, o.ttl(a), func(fctx context.Context) ([]byte, error) {
		return a.Fetch(fctx, q)
	})
	if err != nil {
		kind := providers.Kind(err)
		o.logger.Warn("provider branch failed",
			zap.String("provider", a.Name()),
			zap.String("kind", string(kind)),
			zap.Error(err))
		return types.ProviderResult{ProviderID: a.Name(), Status: types.StatusFailed, ErrorKind: kind}
	}

	items, partial, err := a.Items(payload)
	if err != nil {
		o.logger.Warn("provider payload unreadable",
			zap.String("provider", a.Name()), zap.Error(err))
		return types.ProviderResult{ProviderID: a.Name(), Status: types.StatusFailed, ErrorKind: types.ErrPermanent}
	}

	status := types.StatusOK
	if partial {
		status = types.StatusPartial
	}
	return types.ProviderResult{
		ProviderID:       a.Name(),
		Status:           status,
		Items:            items,
		FetchedFromCache: fromCache,
	}
}

// ttl resolves the cache lifetime for an adapter, preferring a configured
// override over the adapter's default.
func (o *Orchestrator) ttl(a providers.Adapter) time.Duration {
	if ttl, ok := o.cfg.TTLOverrides[a.Name()]; ok && ttl > 0 {
		return ttl
	}
	return a.DefaultTTL()
}

func (o *Orchestrator) assemble(results []types.ProviderResult) (types.AggregatedResult, error) {
	agg := types.AggregatedResult{
		RequestID:         uuid.NewString(),
		ProviderResults:   results,
		ResearchTimestamp: time.Now().UTC(),
	}

	var failures []string
	for _, r := range results {
		if r.Status == types.StatusFailed {
			failures = append(failures, fmt.Sprintf("%s (%s)", r.ProviderID, r.ErrorKind))
			continue
		}
		agg.DataSourcesUsed = append(agg.DataSourcesUsed, r.ProviderID)
		agg.TotalItems += len(r.Items)
		if r.FetchedFromCache {
			agg.CacheHitCount++
		}
	}
	sort.Strings(agg.DataSourcesUsed)

	if len(agg.DataSourcesUsed) == 0 {
		return agg, fmt.Errorf("%w: %s", ErrAllProvidersFailed, strings.Join(failures, ", "))
	}

	o.logger.Info("research complete",
		zap.String("request_id", agg.RequestID),
		zap.Strings("sources", agg.DataSourcesUsed),
		zap.Int("total_items", agg.TotalItems),
		zap.Int("cache_hits", agg.CacheHitCount),
		zap.Int("failed", len(failures)))
	return agg, nil
}
