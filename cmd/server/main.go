// Command server runs the MindMate insights HTTP server: emotion entry
// storage, pattern analysis endpoints, and live WebSocket updates.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"mindmate-insights/internal/api"
	"mindmate-insights/internal/cache"
	"mindmate-insights/internal/config"
	"mindmate-insights/internal/insights"
	"mindmate-insights/internal/live"
	"mindmate-insights/internal/logging"
	"mindmate-insights/internal/storage"
)

const version = "1.0.0"

func main() {
	var (
		addr       = flag.String("addr", "", "Listen address, overrides config (host:port)")
		configFile = flag.String("config", "", "Path to YAML config file")
		showVer    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVer {
		fmt.Printf("mindmate-insights %s\n", version)
		return
	}

	if *configFile != "" {
		_ = os.Setenv("INSIGHTS_CONFIG_FILE", *configFile)
	}

	if err := run(*addr); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func run(addrOverride string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.JSON)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	reportCache := cache.NewReportCache(&cfg.Redis, logger)
	defer func() { _ = reportCache.Close() }()

	service := insights.NewService(store, reportCache, cfg.Analysis, logger)

	hub := live.NewHub(logger)
	go hub.Run(ctx)

	router := api.NewRouter(cfg, store, service, hub, logger)
	defer router.Shutdown()

	addr := addrOverride
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      router.Handler(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	printBanner(cfg, addr)
	logger.Info("server starting",
		"addr", addr,
		"storage", cfg.Storage.Provider,
		"cache", cfg.Redis.Enabled,
		"version", version)

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}

func buildStore(ctx context.Context, cfg *config.Config) (storage.EntryStore, error) {
	var (
		store storage.EntryStore
		err   error
	)
	switch cfg.Storage.Provider {
	case "sqlite":
		store, err = storage.NewSQLiteStore(cfg.Storage.Path)
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.Storage.DSN)
	case "memory":
		store = storage.NewMemoryStore()
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Provider, err)
	}

	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Provider, err)
	}
	return store, nil
}

func printBanner(cfg *config.Config, addr string) {
	title := color.New(color.FgCyan, color.Bold)
	info := color.New(color.FgGreen)

	title.Println("MindMate Insights")
	info.Printf("  listening on %s\n", addr)
	info.Printf("  storage: %s\n", cfg.Storage.Provider)
	if cfg.Redis.Enabled {
		info.Printf("  cache: redis (%s)\n", cfg.Redis.Addr)
	}
}
