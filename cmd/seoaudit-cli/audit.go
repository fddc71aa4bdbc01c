package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/use-agent/seoaudit/audit"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/engine"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
	"github.com/use-agent/seoaudit/rules"
	"github.com/use-agent/seoaudit/scraper"
)

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cfg := config.Load()

	cmd := &cobra.Command{
		Use:   "audit <url>",
		Short: "Audit a single page",
		Long: `Audit renders the page, evaluates the SEO rules and prints the report.

Examples:
  # JSON report using a headless browser
  seoaudit audit https://example.com/

  # Markdown report fetched without a browser
  seoaudit audit --static --format markdown https://example.com/

  # Fail a CI step when the score drops below 80
  seoaudit audit --fail-under 80 https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(cmd, cfg, args[0])
		},
	}

	cmd.Flags().StringP("format", "f", "json", "Output format: json, html, markdown or text")
	cmd.Flags().Bool("static", cfg.Audit.RenderMode == "http", "Fetch raw HTML without a browser")
	cmd.Flags().DurationVarP(&cfg.Audit.Timeout, "timeout", "t", cfg.Audit.Timeout, "Overall audit timeout")
	cmd.Flags().BoolVar(&cfg.Audit.ExtendedRules, "extended", cfg.Audit.ExtendedRules, "Also report informational checks")
	cmd.Flags().Int("fail-under", 0, "Exit with an error when the score is below this value")

	return cmd
}

func runAudit(cmd *cobra.Command, cfg *config.Config, url string) error {
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))
	}

	format, _ := cmd.Flags().GetString("format")
	static, _ := cmd.Flags().GetBool("static")
	failUnder, _ := cmd.Flags().GetInt("fail-under")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := report.FromConfig(cfg.Report)
	if err != nil {
		return err
	}

	renderer, closeRenderer, err := newRenderer(cfg, static)
	if err != nil {
		return err
	}
	defer closeRenderer()

	catalog := rules.Default()
	if cfg.Audit.ExtendedRules {
		catalog = rules.Extended()
	}

	rep, err := audit.New(renderer, audit.WithCatalog(catalog)).Analyze(ctx, url)
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), r, rep, format); err != nil {
		return err
	}

	if rep.Score < failUnder {
		return fmt.Errorf("score %d is below %d", rep.Score, failUnder)
	}
	return nil
}

func newRenderer(cfg *config.Config, static bool) (audit.Renderer, func(), error) {
	if static {
		e := engine.NewHTTPEngine(cfg.Audit, cfg.Browser.DefaultProxy)
		return e, e.Close, nil
	}
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Audit)
	if err != nil {
		return nil, nil, models.NewAuditError(models.ErrCodeBrowserCrash, "launch browser", err)
	}
	return sc, sc.Close, nil
}

func writeReport(w io.Writer, r *report.Renderer, rep *models.Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	case "html":
		_, err := io.WriteString(w, r.HTML(rep))
		return err
	case "markdown":
		return r.WriteMarkdown(w, rep)
	case "text":
		txt, err := r.Text(rep)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, txt)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

