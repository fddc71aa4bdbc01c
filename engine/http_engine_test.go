package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/use-agent/seoaudit/config"
	"github.com/use-agent/seoaudit/models"
)

func TestHTTPEngine_Render(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old":
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
		case "/new":
			gotUA = r.UserAgent()
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<html><head><title>Hello</title></head></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	e := NewHTTPEngine(config.AuditConfig{}, "")
	defer e.Close()

	page, err := e.Render(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if page.FinalURL != srv.URL+"/new" {
		t.Errorf("FinalURL = %q", page.FinalURL)
	}
	if page.StatusCode != 200 {
		t.Errorf("StatusCode = %d", page.StatusCode)
	}
	if page.HTML != "<html><head><title>Hello</title></head></html>" {
		t.Errorf("HTML = %q", page.HTML)
	}
	if gotUA != config.DefaultUserAgent {
		t.Errorf("User-Agent = %q", gotUA)
	}
	if e.Stats().TotalRenders != 1 || e.Stats().ActiveRenders != 0 {
		t.Errorf("stats = %+v", e.Stats())
	}
}

func TestHTTPEngine_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPEngine(config.AuditConfig{}, "").Render(context.Background(), srv.URL+"/missing")

	var ae *models.AuditError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeSiteUnreachable || ae.Status != 404 {
		t.Fatalf("err = %v, want SITE_UNREACHABLE 404", err)
	}
}

func TestHTTPEngine_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	e := NewHTTPEngine(config.AuditConfig{Timeout: 50 * time.Millisecond}, "")
	_, err := e.Render(context.Background(), srv.URL)
	if !errors.Is(err, models.ErrTimeout) {
		t.Fatalf("err = %v, want TIMEOUT", err)
	}
}

func TestHTTPEngine_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPEngine(config.AuditConfig{Timeout: 2 * time.Second}, "").Render(context.Background(), addr)
	var ae *models.AuditError
	if !errors.As(err, &ae) || ae.Code != models.ErrCodeSiteUnreachable || ae.Status != 0 {
		t.Fatalf("err = %v, want SITE_UNREACHABLE with unknown status", err)
	}
}
