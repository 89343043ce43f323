package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"
)

const firefoxUA = "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTrackedEcho(t *testing.T) (*echo.Echo, *Store) {
	t.Helper()
	store := newTestStore(t)
	tracker := NewTracker(store, zaptest.NewLogger(t))
	tracker.now = func() time.Time { return testNow }
	t.Cleanup(tracker.Close)

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("test-secret"))))
	e.Use(tracker.Middleware())
	e.GET("/", func(c echo.Context) error { return c.HTML(http.StatusOK, "<p>home</p>") })
	e.GET("/feed.xml", func(c echo.Context) error { return c.XML(http.StatusOK, struct{}{}) })
	e.GET("/public/site.css", func(c echo.Context) error { return c.HTML(http.StatusOK, "x") })
	return e, store
}

func get(e *echo.Echo, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.RemoteAddr = "198.51.100.7:1234"
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func statsAt(t *testing.T, s *Store) *Stats {
	t.Helper()
	stats, err := s.Stats(context.Background(), testNow.Add(-time.Hour), testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	return stats
}

func TestMiddlewareRecordsHTMLViews(t *testing.T) {
	e, store := newTrackedEcho(t)

	rec := get(e, "/", http.Header{"User-Agent": {firefoxUA}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie on first visit")
	}

	stats := statsAt(t, store)
	if stats.TotalViews != 1 || stats.UniqueVisitors != 1 {
		t.Errorf("views=%d unique=%d, want 1/1", stats.TotalViews, stats.UniqueVisitors)
	}
	if len(stats.Browsers) != 1 || stats.Browsers[0].Name != "Firefox" {
		t.Errorf("Browsers = %+v", stats.Browsers)
	}
}

func TestMiddlewareSkipsNonPages(t *testing.T) {
	e, store := newTrackedEcho(t)
	h := http.Header{"User-Agent": {firefoxUA}}

	get(e, "/feed.xml", h)
	get(e, "/public/site.css", h)
	get(e, "/missing/", h)
	get(e, "/", http.Header{"User-Agent": {firefoxUA}, "Dnt": {"1"}})

	if stats := statsAt(t, store); stats.TotalViews != 0 {
		t.Errorf("TotalViews = %d, want 0", stats.TotalViews)
	}
}

func TestMiddlewareSeparatesBots(t *testing.T) {
	e, store := newTrackedEcho(t)

	rec := get(e, "/", http.Header{"User-Agent": {"Googlebot/2.1"}})
	if len(rec.Result().Cookies()) != 0 {
		t.Error("bots should not get a session cookie")
	}

	stats := statsAt(t, store)
	if stats.TotalViews != 0 || stats.BotViews != 1 {
		t.Errorf("views=%d bots=%d, want 0/1", stats.TotalViews, stats.BotViews)
	}
}

func TestMiddlewareRateLimitsPerIP(t *testing.T) {
	e, store := newTrackedEcho(t)
	h := http.Header{"User-Agent": {firefoxUA}}

	for i := 0; i < 70; i++ {
		get(e, "/", h)
	}
	if stats := statsAt(t, store); stats.TotalViews != 60 {
		t.Errorf("TotalViews = %d, want 60", stats.TotalViews)
	}
}

func TestStatsHandler(t *testing.T) {
	store := newTestStore(t)
	if err := store.RecordVisit(context.Background(), Visit{VisitorID: "v", Path: "/", Timestamp: testNow.Add(-time.Hour)}); err != nil {
		t.Fatalf("RecordVisit failed: %v", err)
	}
	h := NewHandler(store, zaptest.NewLogger(t))
	h.now = func() time.Time { return testNow }

	e := echo.New()
	h.RegisterRoutes(e)

	rec := get(e, "/api/stats/?days=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var resp StatsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PeriodDays != 7 || resp.Stats == nil || resp.Stats.TotalViews != 1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestParseDays(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"", 30},
		{"7", 7},
		{"0", 30},
		{"-3", 30},
		{"abc", 30},
		{"1000", 365},
	}
	for _, tt := range tests {
		if got := parseDays(tt.input); got != tt.want {
			t.Errorf("parseDays(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}
