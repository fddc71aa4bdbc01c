package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
)

type fakeSession struct {
	navErr      error
	blockIdle   bool
	status      int
	html        string
	finalURL    string
	snapErr     error
	navDelay    time.Duration
	closed      int
	snapshotted bool
}

func (f *fakeSession) Navigate(ctx context.Context, _ string) error {
	if f.navDelay > 0 {
		select {
		case <-time.After(f.navDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.navErr
}

func (f *fakeSession) WaitQuiescent(ctx context.Context) error {
	if f.blockIdle {
		<-ctx.Done()
		return ctx.Err()
	}
	return nil
}

func (f *fakeSession) Status(context.Context) int { return f.status }

func (f *fakeSession) Snapshot(context.Context) (string, string, error) {
	f.snapshotted = true
	return f.html, f.finalURL, f.snapErr
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func testScraper(sess *fakeSession, openErr error, timeout time.Duration) *Scraper {
	return newScraper(config.BrowserConfig{}, config.AuditConfig{Timeout: timeout},
		func(context.Context) (session, error) {
			if openErr != nil {
				return nil, openErr
			}
			return sess, nil
		})
}

func TestRender_Success(t *testing.T) {
	sess := &fakeSession{status: 200, html: "<html></html>", finalURL: "https://example.com/final", navDelay: 20 * time.Millisecond}
	s := testScraper(sess, nil, time.Second)

	page, err := s.Render(context.Background(), "https://example.com/")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if page.FinalURL != "https://example.com/final" || page.RequestedURL != "https://example.com/" {
		t.Errorf("urls = %q / %q", page.RequestedURL, page.FinalURL)
	}
	if page.StatusCode != 200 || page.HTML != "<html></html>" {
		t.Errorf("unexpected page %+v", page)
	}
	if page.LoadTime < 20*time.Millisecond {
		t.Errorf("LoadTime = %v, want >= navigation time", page.LoadTime)
	}
	if sess.closed != 1 {
		t.Errorf("session closed %d times, want 1", sess.closed)
	}
	if s.Stats().ActiveRenders != 0 || s.Stats().TotalRenders != 1 {
		t.Errorf("stats = %+v", s.Stats())
	}
}

func TestRender_FinalURLFallsBackToRequested(t *testing.T) {
	sess := &fakeSession{status: 301}
	page, err := testScraper(sess, nil, time.Second).Render(context.Background(), "https://example.com/a")
	if err != nil {
		t.Fatal(err)
	}
	if page.FinalURL != "https://example.com/a" {
		t.Errorf("FinalURL = %q", page.FinalURL)
	}
}

func TestRender_StatusClassification(t *testing.T) {
	tests := []struct {
		status int
		ok     bool
	}{
		{200, true},
		{204, true},
		{399, true},
		{0, false},
		{199, false},
		{404, false},
		{500, false},
		{503, false},
	}
	for _, tt := range tests {
		sess := &fakeSession{status: tt.status}
		page, err := testScraper(sess, nil, time.Second).Render(context.Background(), "https://example.com/")

		if tt.ok {
			if err != nil {
				t.Errorf("status %d: unexpected error %v", tt.status, err)
			}
		} else {
			var ae *models.AuditError
			if !errors.As(err, &ae) || ae.Code != models.ErrCodeSiteUnreachable || ae.Status != tt.status {
				t.Errorf("status %d: err = %v", tt.status, err)
			}
			if page != nil {
				t.Errorf("status %d: page returned with error", tt.status)
			}
			if sess.snapshotted {
				t.Errorf("status %d: DOM read after bad status", tt.status)
			}
		}
		if sess.closed != 1 {
			t.Errorf("status %d: session closed %d times", tt.status, sess.closed)
		}
	}
}

func TestRender_NavigationError(t *testing.T) {
	sess := &fakeSession{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	_, err := testScraper(sess, nil, time.Second).Render(context.Background(), "https://nope.invalid/")

	if !errors.Is(err, models.ErrSiteUnreachable) {
		t.Errorf("err = %v, want SITE_UNREACHABLE", err)
	}
	if sess.closed != 1 {
		t.Error("session not closed after navigation error")
	}
}

func TestRender_Timeout(t *testing.T) {
	sess := &fakeSession{status: 200, blockIdle: true}
	start := time.Now()
	_, err := testScraper(sess, nil, 50*time.Millisecond).Render(context.Background(), "https://slow.example.com/")

	if !errors.Is(err, models.ErrTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("timeout not enforced")
	}
	if sess.closed != 1 {
		t.Error("session not closed after timeout")
	}
}

func TestRender_NavigationErrorAfterDeadlineIsTimeout(t *testing.T) {
	sess := &fakeSession{navDelay: time.Second}
	_, err := testScraper(sess, nil, 30*time.Millisecond).Render(context.Background(), "https://example.com/")
	if !errors.Is(err, models.ErrTimeout) {
		t.Errorf("err = %v, want TIMEOUT", err)
	}
}

func TestRender_SnapshotError(t *testing.T) {
	sess := &fakeSession{status: 200, snapErr: errors.New("target closed")}
	_, err := testScraper(sess, nil, time.Second).Render(context.Background(), "https://example.com/")
	if err == nil {
		t.Fatal("expected error")
	}
	if sess.closed != 1 {
		t.Error("session not closed after snapshot error")
	}
}

func TestRender_OpenFailureIsBrowserCrash(t *testing.T) {
	_, err := testScraper(nil, errors.New("websocket closed"), time.Second).Render(context.Background(), "https://example.com/")

	var ae *models.AuditError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeBrowserCrash {
		t.Errorf("err = %v, want BROWSER_CRASH", err)
	}
}

func TestAcceptable(t *testing.T) {
	if Acceptable(0) || Acceptable(400) || !Acceptable(302) {
		t.Error("unexpected status classification")
	}
}
