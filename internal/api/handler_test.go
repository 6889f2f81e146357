package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/functest-config/internal/config"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func setupTestRouter(t *testing.T) (http.Handler, *controllableClock) {
	t.Helper()

	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(config.Defaults(), WithClock(clock.Now))
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false), WithRateLimit(0, 0))

	return router, clock
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}
	if got := requestIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty id, got %s", got)
	}
}

func TestHealth(t *testing.T) {
	router, clock := setupTestRouter(t)
	clock.Advance(time.Minute)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" || !resp.Timestamp.Equal(clock.Now()) {
		t.Fatalf("unexpected health response %+v", resp)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestGetConfigReturnsAllEntries(t *testing.T) {
	router, clock := setupTestRouter(t)
	loadedAt := clock.Now()
	clock.Advance(time.Hour)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp configResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Entries) != len(config.Keys()) {
		t.Fatalf("expected %d entries, got %d", len(config.Keys()), len(resp.Entries))
	}
	if !resp.LoadedAt.Equal(loadedAt) {
		t.Fatalf("expected loadedAt %s, got %s", loadedAt, resp.LoadedAt)
	}

	first := resp.Entries[0]
	if first.Key != "TEST_OS_STRING" || first.Value != "Linux" || first.Derived {
		t.Fatalf("unexpected first entry %+v", first)
	}
	for _, e := range resp.Entries {
		if e.Key == "PSWDFILE" {
			if !e.Derived || e.Source != "TMPDIR" || e.Value != "/path/to/opends/tests/functional-run/tmp/password" {
				t.Fatalf("unexpected PSWDFILE entry %+v", e)
			}
		}
	}
}

func TestGetConfigRenderedFormat(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config?format=shell", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "export DSCONFIG='dsconfig'\n") {
		t.Fatalf("unexpected body:\n%s", rec.Body.String())
	}
}

func TestGetConfigRejectsUnknownFormat(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/config?format=xml", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Suggestion == "" {
		t.Fatalf("expected suggestion in error response")
	}
}

func TestGetKey(t *testing.T) {
	router, _ := setupTestRouter(t)

	testCases := []struct {
		path   string
		status int
		value  string
	}{
		{"/api/config/DIRECTORY_INSTANCE_PORT", http.StatusOK, "1389"},
		{"/api/config/tests_root", http.StatusOK, "/path/to/opends/tests"},
		{"/api/config/LOGS_URI", http.StatusOK, ""},
		{"/api/config/NOT_A_KEY", http.StatusNotFound, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))

			if rec.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, rec.Code)
			}
			if tc.status != http.StatusOK {
				return
			}
			var resp entryResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.Value != tc.value {
				t.Fatalf("expected %q, got %q", tc.value, resp.Value)
			}
		})
	}
}

func TestConditionalGetReturnsNotModified(t *testing.T) {
	router, _ := setupTestRouter(t)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/config", nil))
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatalf("expected ETag on config response")
	}

	for _, path := range []string{"/api/config", "/api/config?format=python", "/api/config/TMPDIR"} {
		t.Run(path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			req.Header.Set("If-None-Match", etag)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusNotModified {
				t.Fatalf("expected 304, got %d", rec.Code)
			}
			if rec.Body.Len() != 0 {
				t.Fatalf("expected empty body, got %q", rec.Body.String())
			}
		})
	}

	t.Run("stale tag", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/config/TMPDIR", nil)
		req.Header.Set("If-None-Match", `"stale"`)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 for stale tag, got %d", rec.Code)
		}
	})
}

func TestETagFollowsTableContent(t *testing.T) {
	t.Setenv("FUNCTEST_TMPDIR", "/var/tmp/functest")
	loaded, err := config.Load(nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	a := NewHandler(config.Defaults()).etag
	b := NewHandler(config.Defaults()).etag
	c := NewHandler(loaded).etag
	if a == "" || a != b {
		t.Fatalf("expected stable tag for identical tables, got %q and %q", a, b)
	}
	if a == c {
		t.Fatalf("expected different tag after TMPDIR override")
	}
}

func TestWriteInternalError(t *testing.T) {
	rec := httptest.NewRecorder()
	writeInternalError(rec, assertError("boom"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "boom") {
		t.Fatalf("expected error details in body")
	}
}

type assertError string

func (e assertError) Error() string {
	return string(e)
}
