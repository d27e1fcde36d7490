package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"messease/internal/transport/http/api"
)

const maxPeekBytes = 64 * 1024

type keyFunc func(r *http.Request) string

type fixedWindow struct {
	hits    int
	resetAt time.Time
}

// limiter is a fixed-window counter keyed per caller. Expired windows are
// swept at most once per period so idle callers do not accumulate.
type limiter struct {
	mu        sync.Mutex
	max       int
	period    time.Duration
	key       keyFunc
	now       func() time.Time
	windows   map[string]*fixedWindow
	nextSweep time.Time
}

type verdict struct {
	allowed   bool
	remaining int
	resetIn   int
}

func newLimiter(limit int, period time.Duration, key keyFunc) *limiter {
	return &limiter{
		max:     limit,
		period:  period,
		key:     key,
		now:     time.Now,
		windows: map[string]*fixedWindow{},
	}
}

func (l *limiter) take(key string) verdict {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, win := range l.windows {
			if now.After(win.resetAt) {
				delete(l.windows, k)
			}
		}
		l.nextSweep = now.Add(l.period)
	}

	win, ok := l.windows[key]
	if !ok || now.After(win.resetAt) {
		win = &fixedWindow{resetAt: now.Add(l.period)}
		l.windows[key] = win
	}
	win.hits++
	return verdict{
		allowed:   win.hits <= l.max,
		remaining: max(l.max-win.hits, 0),
		resetIn:   ceilSeconds(win.resetAt.Sub(now)),
	}
}

// allow counts the request and writes the rate headers. It answers 429 and
// returns false once the caller is over the limit.
func (l *limiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if l.max <= 0 {
		return true
	}
	key := l.key(r)
	if key == "" {
		key = ClientIP(r)
	}
	v := l.take(key)

	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(l.max))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(v.remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(v.resetIn))
	if v.allowed {
		return true
	}

	h.Set("Retry-After", strconv.Itoa(max(v.resetIn, 1)))
	slog.Warn("rate limit exceeded",
		"key", key,
		"method", r.Method,
		"path", r.URL.Path,
		"limit", l.max,
		"windowSec", int(l.period.Seconds()),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// RateLimit applies limit requests per window to every route, keyed by admin
// when a session is present and by client address otherwise.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	l := newLimiter(limit, window, adminOrIP)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if l.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

func adminOrIP(r *http.Request) string {
	if session, ok := GetSession(r.Context()); ok && session.AdminID != "" {
		return "admin:" + session.AdminID
	}
	return "ip:" + ClientIP(r)
}

func ipOnly(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// loginEmail keys sign-in attempts by the submitted email so one address
// cannot be brute forced from many hosts.
func loginEmail(r *http.Request) string {
	if email := peekJSONString(r, "email"); email != "" {
		return "email:" + strings.ToLower(email)
	}
	return ipOnly(r)
}

// peekJSONString reads field from a JSON body and restores the body for the
// next handler.
func peekJSONString(r *http.Request, field string) string {
	if r.Body == nil || !strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "application/json") {
		return ""
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxPeekBytes))
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	var value string
	if err := json.Unmarshal(payload[field], &value); err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}

// ClientIP returns the caller address, preferring the first X-Forwarded-For hop.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil && host != "" {
		return host
	}
	return addr
}
