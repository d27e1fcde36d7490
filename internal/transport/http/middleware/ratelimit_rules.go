package middleware

import (
	"net/http"
	"strings"
	"time"
)

type routeRule struct {
	method   string
	match    func(path string) bool
	limiters []*limiter
}

func exactPath(paths ...string) func(string) bool {
	return func(path string) bool {
		for _, p := range paths {
			if path == p {
				return true
			}
		}
		return false
	}
}

func actionPath(prefix string, actions ...string) func(string) bool {
	return func(path string) bool {
		if !strings.HasPrefix(path, prefix) {
			return false
		}
		for _, action := range actions {
			if strings.HasSuffix(path, "/"+action) {
				return true
			}
		}
		return len(actions) == 0
	}
}

// SensitiveMutationRateLimit layers tighter limits over the global one:
// sign-in and MFA changes per address and per email, leave decisions and
// account edits per admin, and estimation runs at estimationLimit per admin.
func SensitiveMutationRateLimit(baseLimit, estimationLimit int, window time.Duration) func(http.Handler) http.Handler {
	authLimit := max(baseLimit/4, 1)
	mutationLimit := max(baseLimit/2, 1)

	signIn := []*limiter{newLimiter(authLimit, window, ipOnly), newLimiter(authLimit, window, loginEmail)}
	mfa := []*limiter{newLimiter(authLimit, window, adminOrIP)}
	mutations := []*limiter{newLimiter(mutationLimit, window, adminOrIP)}
	estimations := []*limiter{newLimiter(estimationLimit, window, adminOrIP)}

	rules := []routeRule{
		{method: http.MethodPost, match: exactPath("/auth/login"), limiters: signIn},
		{method: http.MethodPost, match: exactPath("/auth/mfa/setup", "/auth/mfa/enable", "/auth/mfa/disable"), limiters: mfa},
		{method: http.MethodPost, match: exactPath("/estimation/runs"), limiters: estimations},
		{method: http.MethodPost, match: exactPath("/jobs/attendance-snapshot"), limiters: mutations},
		{method: http.MethodPost, match: actionPath("/leaves/", "approve", "reject"), limiters: mutations},
		{method: http.MethodPatch, match: actionPath("/users/"), limiters: mutations},
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := strings.TrimPrefix(r.URL.Path, "/api/v1")
			for _, rule := range rules {
				if r.Method != rule.method || !rule.match(path) {
					continue
				}
				for _, l := range rule.limiters {
					if !l.allow(w, r) {
						return
					}
				}
				break
			}
			next.ServeHTTP(w, r)
		})
	}
}
