package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/akozyrev/tenderwatch/internal/api"
	"github.com/akozyrev/tenderwatch/internal/cache"
	"github.com/akozyrev/tenderwatch/internal/config"
	"github.com/akozyrev/tenderwatch/internal/db"
	"github.com/akozyrev/tenderwatch/internal/scrape"
	"github.com/akozyrev/tenderwatch/internal/search"
)

func main() {
	cfg, err := config.Load(os.Getenv("TENDERWATCH_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Server.Port
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.Storage.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

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
	var client scrape.Client
	if cfg.Portal.UseColly {
		client = scrape.NewCollyClient(clientCfg)
	} else {
		client = scrape.NewZakupkiClient(clientCfg)
	}

	svc := search.NewService(client, cache.NewMemory(), db.NewStore(pool), search.Options{
		CacheTTL:  cfg.Cache.TTL(),
		Freshness: cfg.Cache.Freshness(),
	})

	srv := api.NewServer(pool, svc)
	log.Printf("Server starting on port %s...", port)
	if err := srv.Start(port); err != nil {
		log.Fatal(err)
	}
}
