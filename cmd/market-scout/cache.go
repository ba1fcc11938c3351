// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/market-scout/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local provider cache",
	Long: `Cache manages the local SQLite store of provider payloads. Use stats to
see per-provider entry and hit counts, sweep to purge expired entries, and
invalidate to drop a specific entry by fingerprint.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show per-provider cache entry and hit counts",
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.Stats(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	if stats.TotalEntries == 0 {
		fmt.Println("Cache is empty.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-12s  %-8s  %s\n", "Provider", "Entries", "Hits")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 32))
	for _, p := range stats.ByProvider {
		fmt.Fprintf(os.Stdout, "%-12s  %-8d  %d\n", p.ProviderID, p.Entries, p.TotalHits)
	}
	fmt.Fprintf(os.Stdout, "\n%d entries (%d active, %d expired)\n",
		stats.TotalEntries, stats.ActiveEntries, stats.ExpiredEntries)
	return nil
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired entries from the cache",
	RunE:  runCacheSweep,
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.Sweep(context.Background(), time.Now().UTC())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired entries\n", removed)
	return nil
}

var cacheInvalidateCmd = &cobra.Command{
	Use:   "invalidate <fingerprint>",
	Short: "Drop a cache entry by fingerprint",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheInvalidate,
}

func runCacheInvalidate(cmd *cobra.Command, args []string) error {
	store, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Invalidate(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Invalidated %s\n", args[0])
	return nil
}

func openStore(cmd *cobra.Command) (*cache.Store, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(engineConfig().Cache, logger)
}

func init() {
	cacheStatsCmd.Flags().Bool("json", false, "output stats as JSON")

	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheInvalidateCmd)
	rootCmd.AddCommand(cacheCmd)
}
