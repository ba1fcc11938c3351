// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/meshintel/market-scout/internal/cache"
	"github.com/meshintel/market-scout/internal/providers"
	"github.com/meshintel/market-scout/internal/research"
	"github.com/meshintel/market-scout/pkg/types"
)

var researchCmd = &cobra.Command{
	Use:   "research [topic]",
	Short: "Research a technology topic across all data providers",
	Long: `Research gathers job-market data (web search), adoption trends (GitHub),
learning resources (YouTube), and community discussion (Hacker News) for a
topic. Providers are queried concurrently; a provider failure degrades the
result instead of failing the run. Payloads are cached, so repeating a
research run within the cache TTL costs no upstream requests.`,
	RunE: runResearch,
}

func runResearch(cmd *cobra.Command, args []string) error {
	req := requestFromFlags(cmd, args)

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg := engineConfig()
	store, err := cache.NewStore(cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	adapters := []providers.Adapter{
		providers.NewSerper(cfg.Providers),
		providers.NewGitHub(cfg.Providers),
		providers.NewYouTube(cfg.Providers),
		providers.NewHackerNews(cfg.Providers),
	}

	o := research.New(store, adapters, cfg.Research, logger)
	agg, err := o.Research(context.Background(), req)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		if err := exportYAML(agg, out); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return research.FormatJSON(agg, os.Stdout)
	}
	research.FormatTable(agg, os.Stdout)
	return nil
}

func requestFromFlags(cmd *cobra.Command, args []string) types.ResearchRequest {
	topic, _ := cmd.Flags().GetString("topic")
	if topic == "" && len(args) > 0 {
		topic = strings.Join(args, " ")
	}
	category, _ := cmd.Flags().GetString("category")
	level, _ := cmd.Flags().GetString("level")

	return types.ResearchRequest{
		Topic:           topic,
		Category:        category,
		ExperienceLevel: level,
	}
}

// exportYAML writes the aggregate to a YAML file. The JSON round-trip keeps
// the YAML keys aligned with the JSON field names.
func exportYAML(agg types.AggregatedResult, path string) error {
	raw, err := json.Marshal(agg)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func init() {
	researchCmd.Flags().String("topic", "", "technology or role to research (e.g. \"Frontend Development\")")
	researchCmd.Flags().String("category", "", "market category (e.g. frontend, backend, data)")
	researchCmd.Flags().String("level", "", "experience level: junior, intermediate, senior")
	researchCmd.Flags().Bool("json", false, "output the full aggregate as JSON")
	researchCmd.Flags().String("output", "", "also export the aggregate to a YAML file")

	rootCmd.AddCommand(researchCmd)
}
