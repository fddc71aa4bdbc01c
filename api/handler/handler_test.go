package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/seoaudit/cache"
	"github.com/use-agent/seoaudit/delivery"
	"github.com/use-agent/seoaudit/models"
	"github.com/use-agent/seoaudit/report"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuditor struct {
	calls atomic.Int32
	errs  map[string]error
}

func (f *fakeAuditor) Analyze(_ context.Context, url string) (*models.Report, error) {
	f.calls.Add(1)
	if err := f.errs[url]; err != nil {
		return nil, err
	}
	return &models.Report{
		URL:         url,
		GeneratedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Score:       90,
		Issues: []models.Issue{{
			Rule:     "h1-missing",
			Severity: models.SeverityWarning,
			Category: "Headers",
			Title:    "Missing H1 Tag",
		}},
		Metrics: models.Metrics{H1Count: 0, HTTPStatus: 200},
	}, nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (f *fakeNotifier) Notify(rep *models.Report, _ *models.Notify) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, rep.URL)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakeStats struct{ active int }

func (f fakeStats) Stats() models.PoolStats {
	return models.PoolStats{ActiveRenders: f.active, Mode: "browser"}
}

func newDeps(a Auditor) Deps {
	return Deps{
		Auditor:          a,
		Renderer:         report.New(report.DefaultOptions()),
		BatchConcurrency: 2,
	}
}

func do(t *testing.T, h gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Handle(method, "/x", h)
	req := httptest.NewRequest(method, "/x", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeAudit(t *testing.T, w *httptest.ResponseRecorder) models.AuditResponse {
	t.Helper()
	var resp models.AuditResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v (%s)", err, w.Body.String())
	}
	return resp
}

func TestAudit_Success(t *testing.T) {
	a := &fakeAuditor{}
	w := do(t, Audit(newDeps(a)), http.MethodPost, `{"url":"https://example.com/"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	resp := decodeAudit(t, w)
	if !resp.Success || resp.Report == nil {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Report.Score != 90 || resp.Rendered != "" || resp.CacheStatus != "" || resp.Delivery != "" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAudit_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"html", "<html"},
		{"markdown", "Missing H1 Tag"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			body := `{"url":"https://example.com/","format":"` + tt.format + `"}`
			w := do(t, Audit(newDeps(&fakeAuditor{})), http.MethodPost, body)
			resp := decodeAudit(t, w)
			if !strings.Contains(resp.Rendered, tt.want) {
				t.Errorf("rendered does not contain %q", tt.want)
			}
		})
	}
}

func TestAudit_InvalidInput(t *testing.T) {
	bodies := []string{
		`{}`,
		`{"url":"not a url"}`,
		`{"url":"https://example.com/","format":"pdf"}`,
		`{"url":"https://example.com/","max_age":-1}`,
		`{"url":"https://example.com/","notify":{"email":"nope"}}`,
	}
	for _, body := range bodies {
		a := &fakeAuditor{}
		w := do(t, Audit(newDeps(a)), http.MethodPost, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, w.Code)
		}
		if resp := decodeAudit(t, w); resp.Error == nil || resp.Error.Code != models.ErrCodeInvalidInput {
			t.Errorf("%s: error = %+v", body, resp.Error)
		}
		if a.calls.Load() != 0 {
			t.Errorf("%s: auditor called", body)
		}
	}
}

func TestAudit_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{models.SiteUnreachable(404, "page returned an error status", nil), http.StatusBadGateway},
		{models.NewAuditError(models.ErrCodeTimeout, "timed out", nil), http.StatusGatewayTimeout},
		{models.NewAuditError(models.ErrCodeBrowserCrash, "crash", nil), http.StatusServiceUnavailable},
		{models.NewAuditError(models.ErrCodeInvalidInput, "bad url", nil), http.StatusBadRequest},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		a := &fakeAuditor{errs: map[string]error{"https://example.com/": tt.err}}
		w := do(t, Audit(newDeps(a)), http.MethodPost, `{"url":"https://example.com/"}`)
		if w.Code != tt.want {
			t.Errorf("%v: status = %d, want %d", tt.err, w.Code, tt.want)
		}
		resp := decodeAudit(t, w)
		if resp.Success || resp.Report != nil || resp.Error == nil {
			t.Errorf("%v: resp = %+v", tt.err, resp)
		}
	}
}

func TestAudit_UnreachableKeepsStatus(t *testing.T) {
	a := &fakeAuditor{errs: map[string]error{
		"https://example.com/": models.SiteUnreachable(404, "page returned an error status", nil),
	}}
	resp := decodeAudit(t, do(t, Audit(newDeps(a)), http.MethodPost, `{"url":"https://example.com/"}`))
	if resp.Error.Code != models.ErrCodeSiteUnreachable || resp.Error.Status != 404 {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestAudit_Cache(t *testing.T) {
	a := &fakeAuditor{}
	d := newDeps(a)
	mem := cache.NewMemory(10, time.Hour)
	defer mem.Close()
	d.Cache = mem
	h := Audit(d)

	body := `{"url":"https://example.com/","max_age":3600}`
	first := decodeAudit(t, do(t, h, http.MethodPost, body))
	if first.CacheStatus != "miss" {
		t.Errorf("first cache status = %q", first.CacheStatus)
	}
	second := decodeAudit(t, do(t, h, http.MethodPost, body))
	if second.CacheStatus != "hit" {
		t.Errorf("second cache status = %q", second.CacheStatus)
	}
	if n := a.calls.Load(); n != 1 {
		t.Errorf("auditor calls = %d, want 1", n)
	}

	// max_age 0 always audits fresh.
	fresh := decodeAudit(t, do(t, h, http.MethodPost, `{"url":"https://example.com/"}`))
	if fresh.CacheStatus != "" || a.calls.Load() != 2 {
		t.Errorf("fresh = %q, calls = %d", fresh.CacheStatus, a.calls.Load())
	}
}

func TestAudit_Delivery(t *testing.T) {
	body := `{"url":"https://example.com/","notify":{"email":"owner@example.com"}}`

	n := &fakeNotifier{}
	d := newDeps(&fakeAuditor{})
	d.Notifier = n
	if resp := decodeAudit(t, do(t, Audit(d), http.MethodPost, body)); resp.Delivery != "queued" {
		t.Errorf("delivery = %q, want queued", resp.Delivery)
	}
	if n.count() != 1 {
		t.Errorf("notifications = %d", n.count())
	}

	d.Notifier = &fakeNotifier{err: context.Canceled}
	if resp := decodeAudit(t, do(t, Audit(d), http.MethodPost, body)); resp.Delivery != "unavailable" {
		t.Errorf("delivery = %q, want unavailable", resp.Delivery)
	}

	d.Notifier = nil
	if resp := decodeAudit(t, do(t, Audit(d), http.MethodPost, body)); resp.Delivery != "unavailable" {
		t.Errorf("delivery = %q, want unavailable", resp.Delivery)
	}

	d.Notifier = &fakeNotifier{err: delivery.ErrWebhookTarget}
	hook := `{"url":"https://example.com/","notify":{"webhook_url":"http://127.0.0.1/hook"}}`
	if resp := decodeAudit(t, do(t, Audit(d), http.MethodPost, hook)); resp.Delivery != "rejected" {
		t.Errorf("delivery = %q, want rejected", resp.Delivery)
	}
}

func TestAudit_WebhookSchemeRejected(t *testing.T) {
	a := &fakeAuditor{}
	body := `{"url":"https://example.com/","notify":{"webhook_url":"ftp://hooks.example.com/x"}}`
	w := do(t, Audit(newDeps(a)), http.MethodPost, body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if a.calls.Load() != 0 {
		t.Error("auditor called for invalid webhook url")
	}
}

func TestRender(t *testing.T) {
	rep := `{"url":"https://example.com/","generated_at":"2026-03-14T09:30:00Z","score":100,"issues":[],"metrics":{}}`

	w := do(t, Render(report.New(report.DefaultOptions())), http.MethodPost, `{"report":`+rep+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(w.Body.String(), "https://example.com/") {
		t.Error("html missing url")
	}

	w = do(t, Render(report.New(report.DefaultOptions())), http.MethodPost, `{"format":"markdown","report":`+rep+`}`)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}

	w = do(t, Render(report.New(report.DefaultOptions())), http.MethodPost, `{"format":"markdown"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing report: status = %d", w.Code)
	}
}

func TestBatch(t *testing.T) {
	a := &fakeAuditor{errs: map[string]error{
		"https://bad.example.com/": models.SiteUnreachable(0, "connection refused", nil),
	}}
	n := &fakeNotifier{}
	d := newDeps(a)
	d.Notifier = n

	r := gin.New()
	r.POST("/batch", PostBatch(d))
	r.GET("/batch/:id", GetBatch())

	body := `{"urls":["https://a.example.com/","https://bad.example.com/","https://b.example.com/"],"notify":{"webhook_url":"https://hooks.example.com/x"}}`
	req := httptest.NewRequest(http.MethodPost, "/batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var created models.BatchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.Total != 3 || created.Status != models.BatchProcessing {
		t.Fatalf("created = %+v", created)
	}

	var status models.BatchStatusResponse
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/batch/"+created.ID, nil))
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			t.Fatal(err)
		}
		if status.Status != models.BatchProcessing {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status.Status != models.BatchPartial || status.Completed != 3 {
		t.Fatalf("status = %+v", status)
	}
	if status.Results[1].Error == nil || status.Results[1].Report != nil {
		t.Errorf("failed url result = %+v", status.Results[1])
	}
	if status.Results[0].Report == nil || status.Results[0].URL != "https://a.example.com/" {
		t.Errorf("first result = %+v", status.Results[0])
	}
	if n.count() != 2 {
		t.Errorf("notifications = %d, want 2", n.count())
	}
}

func TestBatch_Validation(t *testing.T) {
	bodies := []string{
		`{"urls":[]}`,
		`{"urls":["not a url"]}`,
		`{"urls":["https://a.example.com/"` + strings.Repeat(`,"https://a.example.com/"`, 100) + `]}`,
	}
	for _, body := range bodies {
		w := do(t, PostBatch(newDeps(&fakeAuditor{})), http.MethodPost, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	}
}

func TestGetBatch_NotFound(t *testing.T) {
	r := gin.New()
	r.GET("/batch/:id", GetBatch())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/batch/batch-missing", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestHealth(t *testing.T) {
	tests := []struct {
		active int
		want   string
	}{
		{0, "healthy"},
		{8, "healthy"},
		{9, "degraded"},
	}
	for _, tt := range tests {
		w := do(t, Health(fakeStats{active: tt.active}, time.Now(), 8), http.MethodGet, "")
		var resp models.HealthResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Status != tt.want {
			t.Errorf("active %d: status = %q, want %q", tt.active, resp.Status, tt.want)
		}
		if resp.Version == "" || resp.PoolStats.Mode != "browser" {
			t.Errorf("resp = %+v", resp)
		}
	}
}
