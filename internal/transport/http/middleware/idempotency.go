package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"messease/internal/platform/querier"
	"messease/internal/transport/http/api"
)

const (
	IdempotencyHeader  = "Idempotency-Key"
	maxIdempotencyKey  = 128
	idempotencyTTL     = 24 * time.Hour
	maxIdempotentBytes = 256 * 1024
)

var ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")

// StoredResponse is a replayable 201 answer to a create request.
type StoredResponse struct {
	RequestHash string
	Status      int
	Body        []byte
}

type IdempotencyStore interface {
	Lookup(ctx context.Context, adminID, endpoint, key string) (StoredResponse, bool, error)
	Save(ctx context.Context, adminID, endpoint, key string, resp StoredResponse) error
}

// PostgresIdempotency keeps create responses in idempotency_keys for a day.
type PostgresIdempotency struct {
	DB querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *PostgresIdempotency {
	return &PostgresIdempotency{DB: db}
}

func (s *PostgresIdempotency) Lookup(ctx context.Context, adminID, endpoint, key string) (StoredResponse, bool, error) {
	var resp StoredResponse
	err := s.DB.QueryRow(ctx, `
    SELECT request_hash, status, response_json
    FROM idempotency_keys
    WHERE admin_id = $1 AND endpoint = $2 AND key = $3 AND created_at > $4
  `, adminID, endpoint, key, time.Now().Add(-idempotencyTTL)).Scan(&resp.RequestHash, &resp.Status, &resp.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	return resp, true, nil
}

func (s *PostgresIdempotency) Save(ctx context.Context, adminID, endpoint, key string, resp StoredResponse) error {
	tag, err := s.DB.Exec(ctx, `
    INSERT INTO idempotency_keys (admin_id, key, endpoint, request_hash, status, response_json)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (admin_id, key, endpoint) DO UPDATE
      SET request_hash = EXCLUDED.request_hash, status = EXCLUDED.status,
          response_json = EXCLUDED.response_json, created_at = now()
      WHERE idempotency_keys.created_at <= now() - interval '24 hours'
         OR idempotency_keys.request_hash = EXCLUDED.request_hash
  `, adminID, key, endpoint, resp.RequestHash, resp.Status, resp.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + " " + path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type captureWriter struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	overflow bool
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	if c.buf.Len()+len(b) > maxIdempotentBytes {
		c.overflow = true
	} else {
		c.buf.Write(b)
	}
	return c.ResponseWriter.Write(b)
}

// Idempotency replays the stored 201 for a POST that repeats an
// Idempotency-Key with the same body, and answers 409 when the key is reused
// for a different body. Requests without the header or a session, and
// multipart uploads, pass through untouched. Only 201 responses are stored.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			session, ok := GetSession(r.Context())
			multipart := strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/")
			if store == nil || r.Method != http.MethodPost || key == "" || !ok || multipart {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())
			if len(key) > maxIdempotencyKey {
				api.Fail(w, http.StatusBadRequest, "invalid_idempotency_key", "Idempotency-Key is too long", reqID)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := requestHash(r.Method, r.URL.Path, body)

			stored, found, err := store.Lookup(r.Context(), session.AdminID, r.URL.Path, key)
			if err != nil {
				slog.Warn("idempotency lookup failed", "err", err)
			}
			if found {
				if stored.RequestHash != hash {
					api.Fail(w, http.StatusConflict, "idempotency_conflict", ErrIdempotencyConflict.Error(), reqID)
					return
				}
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)
			if capture.status != http.StatusCreated || capture.overflow {
				return
			}
			resp := StoredResponse{RequestHash: hash, Status: capture.status, Body: capture.buf.Bytes()}
			if err := store.Save(r.Context(), session.AdminID, r.URL.Path, key, resp); err != nil {
				slog.Warn("idempotency save failed", "key", key, "err", err)
			}
		})
	}
}
