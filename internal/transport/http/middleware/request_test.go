package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRequestIDMintsWhenMissingOrUnsafe(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	for _, header := range []string{"", "bad id\nwith newline", strings.Repeat("a", maxRequestIDLen+1)} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("X-Request-ID", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if seen == "" || seen == header || rec.Header().Get("X-Request-ID") != seen {
			t.Fatalf("header %q: expected minted id, got %q", header, seen)
		}
	}
}

func TestRequestIDKeepsCallerValue(t *testing.T) {
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "trace-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "trace-123" {
		t.Fatalf("expected caller request id, got %q", rec.Header().Get("X-Request-ID"))
	}
}

func TestRecovererReturns500(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

type countingRecorder struct{ statuses []int }

func (c *countingRecorder) Record(status int, _ time.Duration) {
	c.statuses = append(c.statuses, status)
}

func TestLoggerFeedsRecorder(t *testing.T) {
	recorder := &countingRecorder{}
	handler := Logger(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if len(recorder.statuses) != 1 || recorder.statuses[0] != http.StatusTeapot {
		t.Fatalf("unexpected statuses %v", recorder.statuses)
	}
}

func TestSecureHeadersAllowPhotoOrigin(t *testing.T) {
	handler := SecureHeaders(true, "https://photos.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil))
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "img-src 'self' data: https://photos.example.com") {
		t.Fatalf("unexpected csp %q", csp)
	}
	if rec.Header().Get("Cache-Control") != "no-store" || rec.Header().Get("Strict-Transport-Security") == "" {
		t.Fatalf("missing api headers: %v", rec.Header())
	}
}

func TestBodyLimitRejectsDeclaredOversize(t *testing.T) {
	called := false
	handler := BodyLimit(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/menu/special", strings.NewReader(`{"food":"Biryani"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge || called {
		t.Fatalf("expected 413 before handler, got %d called=%v", rec.Code, called)
	}

	upload := httptest.NewRequest(http.MethodPost, "/api/v1/feedback/reviews/r1/photos", strings.NewReader(strings.Repeat("x", 64)))
	upload.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	handler.ServeHTTP(httptest.NewRecorder(), upload)
	if !called {
		t.Fatal("expected multipart upload to reach handler")
	}
}
