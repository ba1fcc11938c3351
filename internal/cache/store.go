// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists provider payloads in a TTL-bounded SQLite store and
// guarantees at most one in-flight fetch per query fingerprint.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/meshintel/market-scout/internal/fingerprint"
	"github.com/meshintel/market-scout/pkg/types"
)

const dbFile = "market-scout.db"

// FetchFunc produces a provider payload on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Store manages the research cache SQLite database. Mutation is serialized
// per fingerprint through a singleflight group; reads of distinct
// fingerprints proceed independently.
type Store struct {
	db     *sql.DB
	flight singleflight.Group
	logger *zap.Logger
}

// NewStore opens or creates the cache database at cacheDir/market-scout.db
// and creates the schema if it does not exist.
func NewStore(cfg types.CacheConfig, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(cfg.CacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.CacheDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection. In-flight fetches already started
// will finish their work against a closed handle and log a degraded write.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS research_cache (
			fingerprint TEXT PRIMARY KEY,
			provider_id TEXT NOT NULL,
			payload BLOB NOT NULL,
			created_at TEXT NOT NULL,
			expires_at TEXT NOT NULL,
			hit_count INTEGER NOT NULL DEFAULT 0,
			last_accessed_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_provider ON research_cache(provider_id)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_expires ON research_cache(expires_at)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// flightResult carries a payload out of a shared singleflight call.
type flightResult struct {
	payload   []byte
	fromCache bool
}

// GetOrFetch returns the cached payload for the query if a live entry
// exists, or invokes fetch exactly once among all concurrent callers sharing
// the query's fingerprint, storing the result with expiry now+ttl.
//
// A waiter whose context expires abandons the wait and returns ctx.Err();
// the shared fetch is not cancelled and still populates the cache for future
// callers. On fetch failure nothing is written and the error propagates to
// every waiter. A backing-store failure degrades to a direct uncached fetch
// rather than failing the request.
func (s *Store) GetOrFetch(ctx context.Context, q types.Query, ttl time.Duration, fetch FetchFunc) ([]byte, bool, error) {
	fp := fingerprint.FromQuery(q)

	payload, ok, err := s.read(ctx, fp, time.Now().UTC())
	if err != nil {
		s.logger.Warn("cache degraded: read failed, bypassing cache",
			zap.String("provider", q.ProviderID), zap.Error(err))
		p, ferr := fetch(ctx)
		return p, false, ferr
	}
	if ok {
		s.recordHit(ctx, fp)
		return payload, true, nil
	}

	ch := s.flight.DoChan(fp, func() (any, error) {
		// The fetch may outlive the caller that started it: a waiter
		// giving up must not cancel the flight other callers share.
		fctx := context.WithoutCancel(ctx)

		// Re-check under the lease: a previous flight may have filled
		// the entry between our read and this call.
		if p, live, rerr := s.read(fctx, fp, time.Now().UTC()); rerr == nil && live {
			return flightResult{payload: p, fromCache: true}, nil
		}

		p, ferr := fetch(fctx)
		if ferr != nil {
			return nil, ferr
		}
		if werr := s.write(fctx, fp, q.ProviderID, p, ttl); werr != nil {
			s.logger.Warn("cache degraded: write failed",
				zap.String("provider", q.ProviderID), zap.Error(werr))
		}
		return flightResult{payload: p}, nil
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		fr := res.Val.(flightResult)
		if fr.fromCache {
			s.recordHit(ctx, fp)
		}
		return fr.payload, fr.fromCache, nil
	}
}

// Invalidate removes the entry for a fingerprint. Removing an absent entry
// is not an error.
func (s *Store) Invalidate(ctx context.Context, fp string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM research_cache WHERE fingerprint = ?`, fp); err != nil {
		return fmt.Errorf("invalidating cache entry: %w", err)
	}
	return nil
}

// Sweep physically removes entries that expired before now and reports how
// many were removed. Correctness does not depend on sweeping: GetOrFetch
// treats expired entries as misses lazily.
func (s *Store) Sweep(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM research_cache WHERE expires_at < ?`,
		now.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("sweeping cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ProviderStats summarizes cache usage for one provider.
type ProviderStats struct {
	ProviderID string `json:"provider_id"`
	Entries    int    `json:"entries"`
	TotalHits  int    `json:"total_hits"`
}

// Stats summarizes the cache contents.
type Stats struct {
	TotalEntries   int             `json:"total_entries"`
	ActiveEntries  int             `json:"active_entries"`
	ExpiredEntries int             `json:"expired_entries"`
	ByProvider     []ProviderStats `json:"by_provider"`
}

// Stats reports entry counts and per-provider hit totals.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	now := time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM research_cache`).Scan(&st.TotalEntries); err != nil {
		return Stats{}, fmt.Errorf("counting cache entries: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM research_cache WHERE expires_at < ?`, now).Scan(&st.ExpiredEntries); err != nil {
		return Stats{}, fmt.Errorf("counting expired entries: %w", err)
	}
	st.ActiveEntries = st.TotalEntries - st.ExpiredEntries

	rows, err := s.db.QueryContext(ctx,
		`SELECT provider_id, count(*), coalesce(sum(hit_count), 0)
		 FROM research_cache GROUP BY provider_id ORDER BY provider_id`)
	if err != nil {
		return Stats{}, fmt.Errorf("querying provider stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var ps ProviderStats
		if err := rows.Scan(&ps.ProviderID, &ps.Entries, &ps.TotalHits); err != nil {
			return Stats{}, err
		}
		st.ByProvider = append(st.ByProvider, ps)
	}
	return st, rows.Err()
}

// read returns the live payload for fp, or ok=false when absent or expired.
func (s *Store) read(ctx context.Context, fp string, now time.Time) ([]byte, bool, error) {
	var payload []byte
	var expiresAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, expires_at FROM research_cache WHERE fingerprint = ?`, fp,
	).Scan(&payload, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	exp, perr := time.Parse(time.RFC3339Nano, expiresAt)
	if perr != nil || !now.Before(exp) {
		// Unparseable expiry is treated as expired; the refresh overwrites it.
		return nil, false, nil
	}
	return payload, true, nil
}

// write replaces the entry for fp wholesale, keeping its accumulated hit count.
func (s *Store) write(ctx context.Context, fp, providerID string, payload []byte, ttl time.Duration) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO research_cache (fingerprint, provider_id, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(fingerprint) DO UPDATE SET
			provider_id=excluded.provider_id, payload=excluded.payload,
			created_at=excluded.created_at, expires_at=excluded.expires_at`,
		fp, providerID, payload,
		now.Format(time.RFC3339Nano),
		now.Add(ttl).Format(time.RFC3339Nano),
	)
	return err
}

// recordHit bumps the hit counter for cache analytics. Failures only degrade
// the statistics, so they are logged and dropped.
func (s *Store) recordHit(ctx context.Context, fp string) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE research_cache SET hit_count = hit_count + 1, last_accessed_at = ? WHERE fingerprint = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), fp)
	if err != nil {
		s.logger.Debug("cache hit count update failed", zap.Error(err))
	}
}
