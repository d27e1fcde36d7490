package usershandler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"messease/internal/domain/audit"
	"messease/internal/domain/auth"
	"messease/internal/domain/users"
	"messease/internal/transport/http/middleware"
)

type memoryStore struct {
	users map[string]users.User
}

func (m *memoryStore) CountUsers(context.Context) (int, error) {
	return len(m.users), nil
}

func (m *memoryStore) List(context.Context, users.Filter) (users.ListResult, error) {
	out := make([]users.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return users.ListResult{Users: out, Total: len(out)}, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (users.User, error) {
	u, ok := m.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) Save(_ context.Context, u users.User) error {
	m.users[u.ID] = u
	return nil
}

type memoryAudit struct {
	entries []audit.Entry
}

func (m *memoryAudit) Record(_ context.Context, e audit.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func newRouter(store *memoryStore, rec *memoryAudit, role string) http.Handler {
	h := NewHandler(users.NewService(store), auth.StaticPermissions{}, rec)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			session := auth.Session{AdminID: "admin-1", Role: role, SessionID: "s1"}
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), session)))
		})
	})
	h.RegisterRoutes(r)
	return r
}

func seeded() *memoryStore {
	return &memoryStore{users: map[string]users.User{
		"u1": {ID: "u1", Name: "Asha", Email: "asha@college.test", Designation: users.DesignationStudent, Member: true},
	}}
}

func TestPatchUserAudits(t *testing.T) {
	store := seeded()
	rec := &memoryAudit{}
	router := newRouter(store, rec, auth.RoleManager)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/users/u1", strings.NewReader(`{"member":false,"batch":"2027"}`)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if u := store.users["u1"]; u.Member || u.Batch != "2027" || u.Name != "Asha" {
		t.Fatalf("unexpected stored user: %+v", u)
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != audit.ActionUserEdit {
		t.Fatalf("unexpected audit entries: %+v", rec.entries)
	}
}

func TestPatchUserErrors(t *testing.T) {
	router := newRouter(seeded(), &memoryAudit{}, auth.RoleManager)
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{name: "empty", path: "/users/u1", body: `{}`, status: http.StatusBadRequest},
		{name: "bad email", path: "/users/u1", body: `{"email":"nope"}`, status: http.StatusBadRequest},
		{name: "blank name", path: "/users/u1", body: `{"name":"  "}`, status: http.StatusBadRequest},
		{name: "missing", path: "/users/u9", body: `{"batch":"2026"}`, status: http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := httptest.NewRecorder()
			router.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, tc.path, strings.NewReader(tc.body)))
			if resp.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, resp.Code)
			}
		})
	}
}

func TestStaffCannotEditUsers(t *testing.T) {
	router := newRouter(seeded(), &memoryAudit{}, auth.RoleStaff)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodPatch, "/users/u1", strings.NewReader(`{"batch":"2026"}`)))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/users/", nil))
	if resp.Code != http.StatusOK || resp.Header().Get("X-Total-Count") != "1" {
		t.Fatalf("expected list to succeed, got %d", resp.Code)
	}
}
