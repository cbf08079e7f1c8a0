package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/akozyrev/tenderwatch/internal/cache"
	"github.com/akozyrev/tenderwatch/internal/config"
	"github.com/akozyrev/tenderwatch/internal/db"
	"github.com/akozyrev/tenderwatch/internal/scrape"
	"github.com/akozyrev/tenderwatch/internal/search"
)

var (
	cfg        *config.Config
	configPath string
	useColly   bool
)

var rootCmd = &cobra.Command{
	Use:   "tenderwatch",
	Short: "Government tender search and project economics",
	Long:  "Searches the procurement portal for tenders, fetches detail pages, and estimates project economics for the results.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("TENDERWATCH_CONFIG"), "path to config YAML")
	rootCmd.PersistentFlags().BoolVar(&useColly, "colly", false, "use the colly-backed portal client")
}

// newPortalClient builds the configured retrieval client. One client means
// one cookie session for everything a command does.
func newPortalClient() scrape.Client {
	clientCfg := scrape.ClientConfig{
		BaseURL:        cfg.Portal.BaseURL,
		UserAgent:      cfg.Portal.UserAgent,
		AcceptLanguage: cfg.Portal.AcceptLanguage,
		SearchRetries:  cfg.Portal.SearchRetries,
		DetailRetries:  cfg.Portal.DetailRetries,
		CourtesyDelay:  cfg.Portal.CourtesyDelay(),
		RateLimitRPS:   cfg.Portal.RateLimitRPS,
		RequestTimeout: time.Duration(cfg.Portal.TimeoutSeconds) * time.Second,
		DebugDir:       cfg.Files.DebugDir,
	}
	if useColly || cfg.Portal.UseColly {
		return scrape.NewCollyClient(clientCfg)
	}
	return scrape.NewZakupkiClient(clientCfg)
}

// newSearchServiceWith wraps a client in the orchestrator with an in-memory
// repository so the CLI works without a database.
func newSearchServiceWith(client scrape.Client) *search.Service {
	return search.NewService(client, cache.NewMemory(), db.NewMemoryRepository(), search.Options{
		CacheTTL:  cfg.Cache.TTL(),
		Freshness: cfg.Cache.Freshness(),
	})
}

func newSearchService() *search.Service {
	return newSearchServiceWith(newPortalClient())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
