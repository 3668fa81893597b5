// Package main is the entry point for the Solguard liquidation engine.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/solguard/engine/internal/api"
	"github.com/solguard/engine/internal/cache"
	"github.com/solguard/engine/internal/chain"
	"github.com/solguard/engine/internal/config"
	"github.com/solguard/engine/internal/executor"
	"github.com/solguard/engine/internal/feed"
	"github.com/solguard/engine/internal/ledger"
	"github.com/solguard/engine/internal/metrics"
	"github.com/solguard/engine/internal/monitor"
	"github.com/solguard/engine/internal/profiler"
	"github.com/solguard/engine/internal/scanner"
	"github.com/solguard/engine/internal/store"
	"github.com/solguard/engine/internal/ui"
)

const (
	// PriceChannelBuffer is the size of the buffered price update channel
	PriceChannelBuffer = 1000
	// MemoryLedgerCap bounds the in-memory outcome store
	MemoryLedgerCap = 1000

	ShutdownTimeout = 10 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := setupLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	slog.Info("solguard starting",
		"version", "1.0.0",
	)

	slog.Info("config_loaded",
		"gateway_url", cfg.GatewayURL,
		"feed_ws_url", cfg.FeedWSURL,
		"scan_interval", cfg.ScanInterval,
		"score_interval", cfg.ScoreInterval,
		"min_profit_sol", cfg.MinProfitSOL,
		"risk_threshold", cfg.RiskThreshold,
		"price_depth", cfg.PriceDepth,
		"parallel_limit", cfg.ParallelLimit,
		"database_url", cfg.MaskedDatabaseURL(),
		"http_port", cfg.HTTPPort,
		"enable_tui", cfg.EnableTUI,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Gateway client shared by all pipeline stages
	client := chain.NewGatewayClient(cfg.GatewayURL)

	// Outcome ledger: PostgreSQL when configured, in-memory otherwise
	var (
		outcomes ledger.Store
		pool     *pgxpool.Pool
	)
	if cfg.DatabaseURL != "" {
		pool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		if err := pool.Ping(ctx); err != nil {
			slog.Error("database ping failed", "error", err)
			os.Exit(1)
		}
		outcomes = ledger.NewPostgresStore(pool)
		slog.Info("ledger_backend", "backend", "postgres")
	} else {
		outcomes = ledger.NewMemoryStore(MemoryLedgerCap)
		slog.Info("ledger_backend", "backend", "memory")
	}

	// Pipeline stages
	tracker := metrics.NewEngineTracker()
	profileCache := cache.New[store.WalletProfile](cfg.ProfileMaxAge, cfg.ProfileMaxSize)
	prof := profiler.New(client, client, profileCache, cfg.ProfileCooldown, cfg.TradeLimit)
	scan := scanner.New(client, cfg.PriceDepth, cfg.TokenLimit)
	exec := executor.New(client, cfg.MinProfitLamports())

	var strategy executor.Strategy = executor.Sequential{}
	if cfg.ParallelLimit > 1 {
		strategy = executor.BoundedParallel{Limit: cfg.ParallelLimit}
	}

	mon := monitor.New(monitor.Config{
		ScanInterval:  cfg.ScanInterval,
		ScoreInterval: cfg.ScoreInterval,
		RiskThreshold: cfg.RiskThreshold,
		BorrowerLimit: cfg.BorrowerLimit,
	}, scan, client, prof, exec, strategy, outcomes, tracker)

	if err := mon.Start(ctx); err != nil {
		slog.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}

	// Operator HTTP API
	apiServer := api.New(cfg.HTTPPort, mon, outcomes, tracker)
	go func() {
		if err := apiServer.Start(); err != nil {
			slog.Error("api_server_failed", "error", err)
			cancel()
		}
	}()

	// Optional streaming price feed
	var listener *feed.Listener
	if cfg.FeedWSURL != "" {
		priceChan := make(chan store.PriceUpdate, PriceChannelBuffer)
		listener = feed.NewListener(cfg.FeedWSURL, priceChan)
		listener.SetMints(monitoredMints(mon))
		listener.Start(ctx)
		tracker.SetFeedStatus("connected")

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case update, ok := <-priceChan:
					if !ok {
						return
					}
					mon.ApplyPriceUpdate(update, cfg.PriceDepth)
				}
			}
		}()

		// Resubscribe after each discovery pass so new tokens get ticks
		go func() {
			ticker := time.NewTicker(cfg.ScanInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					listener.SetMints(monitoredMints(mon))
				}
			}
		}()
	}

	slog.Info("engine_started",
		"status", "monitoring lending markets",
		"tui_enabled", cfg.EnableTUI,
	)

	// Start TUI or run in background mode
	if cfg.EnableTUI {
		slog.Info("starting_tui")
		app := ui.NewApp(mon, tracker, cfg.UIRefreshRate)

		// Start TUI in goroutine so we can still handle signals
		go func() {
			if err := app.Run(); err != nil {
				slog.Error("tui_error", "error", err)
				cancel()
			}
		}()

		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
			app.Stop()
		case <-ctx.Done():
			app.Stop()
		}
	} else {
		select {
		case sig := <-sigChan:
			slog.Info("shutdown_signal_received", "signal", sig.String())
		case <-ctx.Done():
		}
	}

	cancel()

	// Graceful shutdown
	slog.Info("shutting_down", "status", "stopping monitor")
	mon.Stop()

	if listener != nil {
		listener.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		slog.Warn("api_shutdown_failed", "error", err)
	}

	if pool != nil {
		pool.Close()
	}

	slog.Info("shutdown_complete")
}

// monitoredMints collects the mints of the current working set for the feed
// subscription.
func monitoredMints(mon *monitor.Monitor) []string {
	tokens := mon.Tokens()
	mints := make([]string, 0, len(tokens))
	for _, t := range tokens {
		mints = append(mints, t.Mint)
	}
	return mints
}

// setupLogger creates a structured logger with the specified level.
// Format: 2025-01-04 14:32:01 [INFO]  message key=value
func setupLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(levelStr) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Format("2006-01-02 15:04:05"))
				}
			}
			return a
		},
	}

	handler := slog.NewTextHandler(os.Stdout, opts)
	return slog.New(handler)
}
