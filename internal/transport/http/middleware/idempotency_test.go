package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"messease/internal/domain/auth"
)

type memoryIdempotency struct {
	saved map[string]StoredResponse
}

func (m *memoryIdempotency) Lookup(_ context.Context, adminID, endpoint, key string) (StoredResponse, bool, error) {
	resp, ok := m.saved[adminID+"|"+endpoint+"|"+key]
	return resp, ok, nil
}

func (m *memoryIdempotency) Save(_ context.Context, adminID, endpoint, key string, resp StoredResponse) error {
	m.saved[adminID+"|"+endpoint+"|"+key] = resp
	return nil
}

func idempotentCreate(store IdempotencyStore, created *int) http.Handler {
	return Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*created++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"data":{"id":"poll-1"}}`))
	}))
}

func postWithKey(h http.Handler, admin, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/feedback/polls", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyHeader, key)
	}
	req = req.WithContext(WithSession(req.Context(), auth.Session{AdminID: admin, Role: auth.RoleManager}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysCreate(t *testing.T) {
	store := &memoryIdempotency{saved: map[string]StoredResponse{}}
	created := 0
	h := idempotentCreate(store, &created)

	first := postWithKey(h, "admin-1", "k1", `{"question":"Paneer?"}`)
	second := postWithKey(h, "admin-1", "k1", `{"question":"Paneer?"}`)
	if created != 1 {
		t.Fatalf("expected a single create, got %d", created)
	}
	if second.Code != http.StatusCreated || second.Body.String() != first.Body.String() || second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("unexpected replay: %d %q", second.Code, second.Body.String())
	}

	if rec := postWithKey(h, "admin-1", "k1", `{"question":"Dal?"}`); rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for reused key, got %d", rec.Code)
	}
	postWithKey(h, "admin-2", "k1", `{"question":"Paneer?"}`)
	if created != 2 {
		t.Fatalf("expected keys to be scoped per admin, got %d creates", created)
	}
}

func TestIdempotencyPassesThroughWithoutKey(t *testing.T) {
	store := &memoryIdempotency{saved: map[string]StoredResponse{}}
	created := 0
	h := idempotentCreate(store, &created)
	postWithKey(h, "admin-1", "", `{}`)
	postWithKey(h, "admin-1", "", `{}`)
	if created != 2 || len(store.saved) != 0 {
		t.Fatalf("expected plain posts to run, created=%d saved=%d", created, len(store.saved))
	}
}

func TestRequestHashCoversPathAndBody(t *testing.T) {
	a := requestHash(http.MethodPost, "/menu/special", []byte("x"))
	if a != requestHash(http.MethodPost, "/menu/special", []byte("x")) {
		t.Fatal("expected deterministic hash")
	}
	if a == requestHash(http.MethodPost, "/feedback/polls", []byte("x")) || a == requestHash(http.MethodPost, "/menu/special", []byte("y")) {
		t.Fatal("expected hash to depend on path and body")
	}
}
