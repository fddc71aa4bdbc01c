// Package scraper renders pages in headless Chromium for auditing.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/metrics"
	"github.com/use-agent/seoaudit/models"
)

// session is one isolated browser tab. Render drives it through this narrow
// surface so the lifecycle can be exercised without a browser.
type session interface {
	// Navigate starts loading url and returns once the navigation commits.
	Navigate(ctx context.Context, url string) error

	// WaitQuiescent blocks until the network has been quiet long enough.
	WaitQuiescent(ctx context.Context) error

	// Status is the HTTP status of the main document, 0 when unknown.
	Status(ctx context.Context) int

	// Snapshot serializes the current DOM and reports the document URL.
	Snapshot(ctx context.Context) (html, finalURL string, err error)

	// Close disposes of the tab and its browser context.
	Close() error
}

type sessionOpener func(ctx context.Context) (session, error)

// Scraper manages the global browser lifecycle. Every Render call gets its
// own incognito context, so calls share no cookies, storage or cache.
// It is safe for concurrent use.
type Scraper struct {
	browser  *rod.Browser
	launcher *launcher.Launcher

	browserCfg config.BrowserConfig
	auditCfg   config.AuditConfig
	open       sessionOpener

	activeRenders atomic.Int32
	totalRenders  atomic.Int64
	startTime     time.Time
}

// NewScraper launches a headless browser and connects to it.
func NewScraper(browserCfg config.BrowserConfig, auditCfg config.AuditConfig) (*Scraper, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewAuditError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, models.NewAuditError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	s := newScraper(browserCfg, auditCfg, nil)
	s.browser = browser
	s.launcher = l
	s.open = s.openTab
	return s, nil
}

func newScraper(browserCfg config.BrowserConfig, auditCfg config.AuditConfig, open sessionOpener) *Scraper {
	if auditCfg.Timeout <= 0 {
		auditCfg.Timeout = 30 * time.Second
	}
	if browserCfg.CloseTimeout <= 0 {
		browserCfg.CloseTimeout = 5 * time.Second
	}
	return &Scraper{
		browserCfg: browserCfg,
		auditCfg:   auditCfg,
		open:       open,
		startTime:  time.Now(),
	}
}

// Render loads url in a fresh incognito context, waits for network
// quiescence and returns the rendered DOM.
//
// Lifecycle:
//
//  1. Timeout guard    – hard deadline from navigation start to snapshot
//  2. Open tab         – new incognito context + page
//  3. DEFER: dispose   – the context is closed on every exit path
//  4. Navigate         – load time is measured from here
//  5. Quiescence       – ≤ MaxInflight requests for IdleWindow
//  6. Status check     – 2xx/3xx only
//  7. Snapshot         – serialized DOM + final URL
func (s *Scraper) Render(ctx context.Context, url string) (*models.RenderedPage, error) {
	// ── 1. Timeout guard ──────────────────────────────────────────────
	ctx, cancel := context.WithTimeout(ctx, s.auditCfg.Timeout)
	defer cancel()

	s.activeRenders.Add(1)
	s.totalRenders.Add(1)
	metrics.ActiveRenders.Inc()
	defer func() {
		s.activeRenders.Add(-1)
		metrics.ActiveRenders.Dec()
	}()

	// ── 2. Open tab ───────────────────────────────────────────────────
	sess, err := s.open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, classify(ctx, err, "timed out opening a browser tab")
		}
		return nil, models.NewAuditError(
			models.ErrCodeBrowserCrash,
			"failed to open browser tab",
			err,
		)
	}

	// ── 3. Dispose on every path ──────────────────────────────────────
	defer func() {
		if closeErr := sess.Close(); closeErr != nil {
			slog.Warn("cleanup: failed to dispose browser context",
				"url", url, "error", closeErr,
			)
		}
	}()

	// ── 4. Navigate ───────────────────────────────────────────────────
	start := time.Now()
	if err := sess.Navigate(ctx, url); err != nil {
		return nil, classify(ctx, err, "navigation to target URL failed")
	}

	// ── 5. Wait for quiescence ────────────────────────────────────────
	if err := sess.WaitQuiescent(ctx); err != nil {
		return nil, classify(ctx, err, "page did not reach network quiescence")
	}
	loadTime := time.Since(start)

	// ── 6. Status check ───────────────────────────────────────────────
	status := sess.Status(ctx)
	if !Acceptable(status) {
		return nil, models.SiteUnreachable(status, "page returned an error status", nil)
	}

	// ── 7. Snapshot ───────────────────────────────────────────────────
	html, finalURL, err := sess.Snapshot(ctx)
	if err != nil {
		return nil, classify(ctx, err, "failed to extract page HTML")
	}
	if finalURL == "" {
		finalURL = url
	}

	return &models.RenderedPage{
		RequestedURL: url,
		FinalURL:     finalURL,
		HTML:         html,
		StatusCode:   status,
		LoadTime:     loadTime,
	}, nil
}

// Acceptable reports whether a document status counts as reachable.
// Unknown (0) is not.
func Acceptable(status int) bool {
	return status >= 200 && status <= 399
}

// classify prefers the context's own error: a navigation that failed because
// the deadline passed is a timeout, whatever the driver reported.
func classify(ctx context.Context, err error, msg string) *models.AuditError {
	if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
		err = errors.Join(ctxErr, err)
	}
	return models.CategorizeTransportError(err, msg)
}

// Stats returns a snapshot of renderer activity.
func (s *Scraper) Stats() models.PoolStats {
	st := models.PoolStats{
		ActiveRenders: int(s.activeRenders.Load()),
		TotalRenders:  s.totalRenders.Load(),
		Mode:          "browser",
	}
	if s.launcher != nil {
		st.BrowserPID = s.launcher.PID()
	}
	return st
}

// Close kills the browser process and removes its profile directory.
// Call this on graceful shutdown to prevent zombie Chrome processes.
func (s *Scraper) Close() {
	if s.browser != nil {
		slog.Info("scraper shutting down: closing browser")
		if err := s.browser.Close(); err != nil {
			slog.Warn("browser close failed", "error", err)
		}
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
	}
	slog.Info("scraper shutdown complete")
}
