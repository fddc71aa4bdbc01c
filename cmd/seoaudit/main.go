package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/seoaudit/api"
	"github.com/use-agent/seoaudit/api/handler"
	"github.com/use-agent/seoaudit/audit"
	"github.com/use-agent/seoaudit/cache"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/delivery"
	"github.com/use-agent/seoaudit/engine"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
	"github.com/use-agent/seoaudit/rules"
	"github.com/use-agent/seoaudit/scraper"
)

// backend is a page renderer the server can report on and shut down.
type backend interface {
	audit.Renderer
	Stats() models.PoolStats
	Close()
}

func main() {
	// Registered first so it runs after every other deferred cleanup.
	exitCode := 0
	defer func() { os.Exit(exitCode) }()

	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	initLogger(cfg.Log)
	slog.Info("seoaudit starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"renderMode", cfg.Audit.RenderMode,
		"version", config.Version,
	)

	// ── 3. Initialise cache and report rendering ────────────────────
	// Both can fail on bad configuration, so they come before the browser
	// launch: os.Exit skips deferred cleanup.
	store, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialise cache", "backend", cfg.Cache.Backend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	renderer, err := report.FromConfig(cfg.Report)
	if err != nil {
		_ = store.Close()
		slog.Error("invalid report configuration", "error", err)
		os.Exit(1)
	}

	// ── 4. Initialise page renderer (may launch browser) ────────────
	var rb backend
	switch cfg.Audit.RenderMode {
	case "http":
		rb = engine.NewHTTPEngine(cfg.Audit, cfg.Browser.DefaultProxy)
	default:
		sc, err := scraper.NewScraper(cfg.Browser, cfg.Audit)
		if err != nil {
			_ = store.Close()
			slog.Error("failed to initialise scraper", "error", err)
			os.Exit(1)
		}
		rb = sc
	}
	defer rb.Close()

	// ── 5. Initialise analyzer ──────────────────────────────────────
	catalog := rules.Default()
	if cfg.Audit.ExtendedRules {
		catalog = rules.Extended()
	}
	analyzer := audit.New(rb, audit.WithCatalog(catalog))

	// ── 6. Initialise delivery ──────────────────────────────────────
	var mailer delivery.Channel
	if cfg.Mail.Host != "" {
		mailer = delivery.NewSMTP(cfg.Mail, cfg.Report.ProductName)
	} else {
		slog.Info("SMTP not configured, email delivery disabled")
	}
	notifier := delivery.NewNotifier(mailer, renderer, cfg.Webhook.RetryDelays, cfg.Webhook.Timeout, cfg.Webhook.AllowPrivate)

	// ── 7. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(cfg, handler.Deps{
		Auditor:          analyzer,
		Renderer:         renderer,
		Cache:            store,
		Notifier:         notifier,
		BatchConcurrency: cfg.Audit.BatchConcurrency,
	}, rb, startTime)

	// ── 8. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// ── 9. Graceful shutdown ────────────────────────────────────────
	// Returning from main (not os.Exit) lets the deferred Close calls kill
	// the browser on every path.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-serveErr:
		slog.Error("HTTP server error", "error", err)
		exitCode = 1
		return
	}

	// In-flight audits get one audit timeout to finish.
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Audit.Timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	slog.Info("seoaudit stopped")
}

// initLogger configures slog based on the LogConfig.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(os.Stdout, opts)
	} else {
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(h))
}
