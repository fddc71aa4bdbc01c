// Package engine holds the static page renderer used where no browser is
// available.
package engine

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/metrics"
	"github.com/use-agent/seoaudit/models"
)

// maxBody caps how much of a document is read.
const maxBody = 10 << 20

// HTTPEngine renders a page with a single GET and no JavaScript. Load time
// is the time until the body is fully read. Pages that build their content
// client-side will report thin content.
type HTTPEngine struct {
	client *http.Client
	cfg    config.AuditConfig
	active atomic.Int32
	total  atomic.Int64
}

// chromeH1Spec is a Chrome-like TLS ClientHello with ALPN forced to http/1.1
// only. Computed once at init time and reused for every connection.
var chromeH1Spec tls.ClientHelloSpec

func init() {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return
	}
	// Replace h2 with http/1.1 only in the ALPN extension so the server
	// never negotiates HTTP/2 (which Go's http.Transport cannot handle
	// over a utls connection).
	for i, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			spec.Extensions[i] = alpn
			break
		}
	}
	chromeH1Spec = spec
}

// NewHTTPEngine creates an HTTPEngine with a Chrome-like TLS fingerprint.
// proxy, when set, must be an http(s) proxy URL.
func NewHTTPEngine(cfg config.AuditConfig, proxy string) *HTTPEngine {
	transport := &http.Transport{
		DialTLSContext:    dialChromeTLS,
		ForceAttemptHTTP2: false,
	}
	if proxy != "" {
		if proxyURL, err := url.Parse(proxy); err == nil && (proxyURL.Scheme == "http" || proxyURL.Scheme == "https") {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = config.DefaultUserAgent
	}
	return &HTTPEngine{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

func dialChromeTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	tlsConn := tls.UClient(conn, &tls.Config{ServerName: host}, tls.HelloCustom)
	if err := tlsConn.ApplyPreset(&chromeH1Spec); err != nil {
		conn.Close()
		return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}

// Render fetches url and returns the raw document as the rendered page.
func (e *HTTPEngine) Render(ctx context.Context, url string) (*models.RenderedPage, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	e.active.Add(1)
	e.total.Add(1)
	metrics.ActiveRenders.Inc()
	defer func() {
		e.active.Add(-1)
		metrics.ActiveRenders.Dec()
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewAuditError(models.ErrCodeInvalidInput, "build request", err)
	}
	httpReq.Header.Set("User-Agent", e.cfg.UserAgent)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if e.cfg.AcceptLanguage != "" {
		httpReq.Header.Set("Accept-Language", e.cfg.AcceptLanguage)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, models.CategorizeTransportError(err, "request to target URL failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 399 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, models.SiteUnreachable(resp.StatusCode, "page returned an error status", nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, models.CategorizeTransportError(err, "failed to read page body")
	}
	loadTime := time.Since(start)

	return &models.RenderedPage{
		RequestedURL: url,
		FinalURL:     resp.Request.URL.String(),
		HTML:         string(body),
		StatusCode:   resp.StatusCode,
		LoadTime:     loadTime,
	}, nil
}

// Stats returns a snapshot of renderer activity.
func (e *HTTPEngine) Stats() models.PoolStats {
	return models.PoolStats{
		ActiveRenders: int(e.active.Load()),
		TotalRenders:  e.total.Load(),
		Mode:          "http",
	}
}

// Close releases idle connections.
func (e *HTTPEngine) Close() {
	e.client.CloseIdleConnections()
}
