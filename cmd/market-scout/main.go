// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the market-scout CLI.
// It researches technology topics across external data providers
// (web search, GitHub, YouTube, Hacker News) and caches results locally.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/meshintel/market-scout/internal/secrets"
	"github.com/meshintel/market-scout/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the market-scout CLI.
var rootCmd = &cobra.Command{
	Use:   "market-scout",
	Short: "Market research aggregation across external data providers",
	Long: `market-scout gathers job-market, technology-trend, learning-resource, and
community-discussion data for a topic from external providers, fans requests
out concurrently, and caches provider payloads in a local SQLite store so
repeated research on the same topic costs no upstream quota.

Run research with the research subcommand; inspect or maintain the cache
with the cache subcommand.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./market-scout.yaml or ~/.config/market-scout/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("market-scout")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "market-scout"))
		}
	}

	viper.SetEnvPrefix("MARKET_SCOUT")
	viper.AutomaticEnv()

	viper.SetDefault("cache.dir", "cache")
	viper.SetDefault("providers.max_results", 10)
	viper.SetDefault("providers.location", "United States")
	viper.SetDefault("providers.timeout", 15*time.Second)
	viper.SetDefault("providers.user_agent", "market-scout/"+version)
	viper.SetDefault("research.max_concurrent", 4)
	viper.SetDefault("research.request_timeout", 60*time.Second)
	viper.SetDefault("research.branch_timeout", 30*time.Second)

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// engineConfig assembles the engine configuration from config file,
// environment, and loaded secrets. Secrets from .secrets/ win over config
// values; environment variables fill remaining gaps.
func engineConfig() types.EngineConfig {
	return types.EngineConfig{
		Cache: types.CacheConfig{
			CacheDir: viper.GetString("cache.dir"),
		},
		Providers: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("providers.timeout"),
				UserAgent: viper.GetString("providers.user_agent"),
			},
			SerperAPIKey:  credential("serper-api-key", "providers.serper_api_key", "SERPER_API_KEY"),
			GitHubToken:   credential("github-token", "providers.github_token", "GITHUB_TOKEN"),
			YouTubeAPIKey: credential("youtube-api-key", "providers.youtube_api_key", "YOUTUBE_API_KEY"),
			MaxResults:    viper.GetInt("providers.max_results"),
			Location:      viper.GetString("providers.location"),
		},
		Research: types.ResearchConfig{
			MaxConcurrent:  viper.GetInt("research.max_concurrent"),
			RequestTimeout: viper.GetDuration("research.request_timeout"),
			BranchTimeout:  viper.GetDuration("research.branch_timeout"),
			TTLOverrides:   ttlOverrides(),
		},
	}
}

func credential(secretKey, viperKey, envVar string) string {
	if v := secrets.Value(loadedSecrets, secretKey, envVar); v != "" {
		return v
	}
	return viper.GetString(viperKey)
}

func ttlOverrides() map[string]time.Duration {
	raw := viper.GetStringMapString("research.ttl_overrides")
	if len(raw) == 0 {
		return nil
	}
	overrides := make(map[string]time.Duration, len(raw))
	for provider, v := range raw {
		d, err := time.ParseDuration(v)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: invalid ttl override for %s: %v\n", provider, err)
			continue
		}
		overrides[provider] = d
	}
	return overrides
}

// newLogger builds the CLI logger. Verbose runs log at debug to stderr.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
