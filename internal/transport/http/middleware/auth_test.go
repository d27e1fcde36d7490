package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"messease/internal/domain/auth"
)

type tokenTable map[string]auth.Session

func (t tokenTable) Authenticate(_ context.Context, token string) (auth.Session, error) {
	if s, ok := t[token]; ok {
		return s, nil
	}
	if token == "broken" {
		return auth.Session{}, errors.New("db down")
	}
	return auth.Session{}, auth.ErrSessionExpired
}

func TestAuthMiddlewareSetsSession(t *testing.T) {
	tokens := tokenTable{"good": {AdminID: "a1", Role: auth.RoleStaff}}
	var got auth.Session
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session, ok := GetSession(r.Context())
		if !ok {
			t.Fatal("expected session in context")
		}
		got = session
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if got.AdminID != "a1" || got.Role != auth.RoleStaff {
		t.Fatalf("unexpected session: %+v", got)
	}
}

func TestAuthMiddlewareIgnoresBadTokens(t *testing.T) {
	tokens := tokenTable{}
	handler := Auth(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetSession(r.Context()); ok {
			t.Fatal("did not expect session in context")
		}
	}))

	for _, header := range []string{"", "Bearer revoked", "Bearer broken", "Basic abc"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}
}

func TestRequirePermission(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	guarded := RequirePermission(auth.PermBillingRead, auth.StaticPermissions{})(ok)

	cases := []struct {
		session *auth.Session
		want    int
		code    string
	}{
		{nil, http.StatusUnauthorized, "unauthorized"},
		{&auth.Session{AdminID: "s1", Role: auth.RoleStaff}, http.StatusForbidden, "forbidden"},
		{&auth.Session{AdminID: "c1", Role: auth.RoleAccountant}, http.StatusNoContent, ""},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/billing/payments", nil)
		if tc.session != nil {
			req = req.WithContext(WithSession(req.Context(), *tc.session))
		}
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		if rec.Code != tc.want {
			t.Fatalf("expected %d, got %d", tc.want, rec.Code)
		}
		if tc.code != "" {
			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			_ = json.NewDecoder(rec.Body).Decode(&body)
			if body.Error.Code != tc.code {
				t.Fatalf("expected error code %q, got %q", tc.code, body.Error.Code)
			}
		}
	}
}
