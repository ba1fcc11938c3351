// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package providers integrates external data sources behind a uniform
// adapter contract. Each adapter builds its own provider-scoped query,
// fetches a raw serialized payload, and parses payloads into opaque domain
// items; the orchestrator only ever sees the common shapes in pkg/types.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meshintel/market-scout/pkg/types"
)

// Adapter is implemented once per external data source.
type Adapter interface {
	// Name returns the provider identifier used in fingerprints and provenance.
	Name() string

	// DefaultTTL is how long a cached payload from this provider stays fresh.
	DefaultTTL() time.Duration

	// BuildQuery derives this provider's sub-query from a research request.
	// The derivation is deterministic: equal requests yield equal queries.
	BuildQuery(req types.ResearchRequest) (types.Query, error)

	// Fetch retrieves the raw serialized payload for a query. Every failure
	// path resolves to a classified *Error; Fetch never panics.
	Fetch(ctx context.Context, q types.Query) ([]byte, error)

	// Items parses a payload into opaque domain items in provider order.
	// partial reports that the payload was produced from an incomplete fetch.
	Items(payload []byte) (items []json.RawMessage, partial bool, err error)
}

// Error is a classified provider failure.
type Error struct {
	Provider string
	Kind     types.ErrorKind
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// Kind extracts the error kind from a branch failure. Context expiry maps to
// timeout; anything unclassified is permanent.
func Kind(err error) types.ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.ErrTimeout
	}
	return types.ErrPermanent
}

// rawItems marshals a slice of parsed values back into opaque items.
func rawItems[T any](vals []T) ([]json.RawMessage, error) {
	items := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encoding item: %w", err)
		}
		items = append(items, raw)
	}
	return items, nil
}
