package middleware

import (
	"net/http"
	"strings"

	"messease/internal/transport/http/api"
)

// SecureHeaders sets browser hardening headers. photoOrigin is allowed as an
// image source so review photos render, and API responses are never cached.
func SecureHeaders(isProd bool, photoOrigin string) func(http.Handler) http.Handler {
	imgSrc := "img-src 'self' data:"
	if photoOrigin != "" {
		imgSrc += " " + photoOrigin
	}
	csp := strings.Join([]string{
		"default-src 'self'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
		"object-src 'none'",
		imgSrc,
		"style-src 'self' 'unsafe-inline'",
		"script-src 'self'",
	}, "; ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "no-referrer")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("Cross-Origin-Opener-Policy", "same-origin")
			if strings.HasPrefix(r.URL.Path, "/api/") {
				h.Set("Cache-Control", "no-store")
			}
			if isProd {
				h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains; preload")
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BodyLimit caps JSON request bodies at maxBytes. Declared oversize bodies are
// refused up front with 413. Multipart uploads are left to their handlers,
// which set their own cap.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxBytes <= 0 || !hasBody(r.Method) ||
				strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
				next.ServeHTTP(w, r)
				return
			}
			if r.ContentLength > maxBytes {
				api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", GetRequestID(r.Context()))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}
