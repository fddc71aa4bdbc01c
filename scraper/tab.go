package scraper

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// tab is the rod-backed session: one page inside its own incognito context.
type tab struct {
	incognito    *rod.Browser
	page         *rod.Page
	idle         *idleTracker
	status       atomic.Int32
	stopEvents   context.CancelFunc
	closeTimeout time.Duration
}

// openTab creates an incognito context and a page inside it, applies the
// identifying user agent and extra headers, and starts listening to network
// events before anything navigates.
func (s *Scraper) openTab(ctx context.Context) (session, error) {
	incognito, err := s.browser.Context(ctx).Incognito()
	if err != nil {
		return nil, err
	}
	// Later calls must not inherit the request deadline; disposal has its
	// own bound.
	incognito = incognito.Context(context.Background())

	page, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Timeout(s.browserCfg.CloseTimeout).Close()
		return nil, err
	}

	t := &tab{
		incognito:    incognito,
		page:         page.Context(context.Background()),
		idle:         newIdleTracker(s.auditCfg.MaxInflight, s.auditCfg.IdleWindow),
		closeTimeout: s.browserCfg.CloseTimeout,
	}
	if err := t.prepare(ctx, s.auditCfg.UserAgent, s.auditCfg.AcceptLanguage, s.browserCfg.Stealth); err != nil {
		_ = t.Close()
		return nil, err
	}
	return t, nil
}

func (t *tab) prepare(ctx context.Context, userAgent, acceptLanguage string, useStealth bool) error {
	p := t.page.Context(ctx)

	if err := (proto.NetworkEnable{}).Call(p); err != nil {
		return err
	}
	if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      userAgent,
		AcceptLanguage: acceptLanguage,
	}); err != nil {
		return err
	}
	if acceptLanguage != "" {
		if err := (proto.NetworkSetExtraHTTPHeaders{
			Headers: toHeadersMap(map[string]string{"Accept-Language": acceptLanguage}),
		}).Call(p); err != nil {
			return err
		}
	}
	if useStealth {
		if _, err := p.EvalOnNewDocument(stealth.JS); err != nil {
			return err
		}
	}

	evCtx, cancel := context.WithCancel(context.Background())
	t.stopEvents = cancel
	wait := t.page.Context(evCtx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			t.idle.started(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFinished) {
			t.idle.finished(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFailed) {
			t.idle.finished(string(e.RequestID))
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Type == proto.NetworkResourceTypeDocument && e.FrameID == t.page.FrameID && e.Response != nil {
				t.status.Store(int32(e.Response.Status))
			}
		},
	)
	go wait()
	return nil
}

func (t *tab) Navigate(ctx context.Context, url string) error {
	if err := t.page.Context(ctx).Navigate(url); err != nil {
		return err
	}
	t.idle.arm()
	return nil
}

func (t *tab) WaitQuiescent(ctx context.Context) error {
	select {
	case <-t.idle.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Status prefers the main-frame Document response seen on the wire and falls
// back to the Navigation Timing entry.
func (t *tab) Status(ctx context.Context) int {
	if st := int(t.status.Load()); st != 0 {
		return st
	}
	res, err := t.page.Context(ctx).Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch(e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}

func (t *tab) Snapshot(ctx context.Context) (string, string, error) {
	p := t.page.Context(ctx)
	html, err := p.HTML()
	if err != nil {
		return "", "", err
	}
	return html, evalStringOrEmpty(p, `() => window.location.href`), nil
}

// Close stops event delivery and disposes of the incognito context, which
// closes the page with it.
func (t *tab) Close() error {
	if t.stopEvents != nil {
		t.stopEvents()
	}
	t.idle.stop()
	return t.incognito.Timeout(t.closeTimeout).Close()
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
