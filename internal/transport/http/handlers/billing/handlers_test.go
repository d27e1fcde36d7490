package billinghandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"messease/internal/domain/auth"
	"messease/internal/domain/billing"
	"messease/internal/transport/http/middleware"
)

type memoryStore struct {
	payments []billing.Payment
	last     billing.Filter
}

func (m *memoryStore) List(_ context.Context, filter billing.Filter) (billing.ListResult, error) {
	m.last = filter
	return billing.ListResult{Payments: m.payments, Total: len(m.payments)}, nil
}

func (m *memoryStore) CountByPurpose(context.Context, string, time.Time, time.Time) (int, error) {
	return 0, nil
}

func newRouter(store *memoryStore, role string) http.Handler {
	svc := billing.NewService(store, time.UTC)
	svc.Now = func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }
	h := NewHandler(svc, auth.StaticPermissions{})
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

func samplePayments() []billing.Payment {
	return []billing.Payment{
		{ID: "p1", Amount: decimal.RequireFromString("3500.00"), Status: "Success", Purpose: "Mess Fee"},
		{ID: "p2", Amount: decimal.RequireFromString("80.50"), Status: "success", Purpose: billing.GuestMealPurpose},
		{ID: "p3", Amount: decimal.RequireFromString("-500"), Status: "REFUNDED", Purpose: "Mess Fee"},
	}
}

func TestSummaryTotals(t *testing.T) {
	router := newRouter(&memoryStore{payments: samplePayments()}, auth.RoleAccountant)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/summary", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var env struct {
		Data billing.Summary `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !env.Data.TotalCollection.Equal(decimal.RequireFromString("3580.50")) {
		t.Fatalf("unexpected total: %s", env.Data.TotalCollection)
	}
	if !env.Data.Refunds.Equal(decimal.NewFromInt(500)) || env.Data.ByStatus["success"] != 2 {
		t.Fatalf("unexpected summary: %+v", env.Data)
	}
}

func TestPaymentsRangeInclusiveOfEndDay(t *testing.T) {
	store := &memoryStore{payments: samplePayments()}
	router := newRouter(store, auth.RoleManager)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/payments?from=2026-10-01&to=2026-10-19", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if want := time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC); !store.last.To.Equal(want) {
		t.Fatalf("expected exclusive upper bound %v, got %v", want, store.last.To)
	}
	if resp.Header().Get("X-Total-Count") != "3" {
		t.Fatalf("unexpected total header %q", resp.Header().Get("X-Total-Count"))
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/payments?from=2026-10-19&to=2026-10-01", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for inverted range, got %d", resp.Code)
	}
}

func TestStatementRendersPDF(t *testing.T) {
	router := newRouter(&memoryStore{payments: samplePayments()}, auth.RoleAccountant)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/statement.pdf?month=2026-10", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !bytes.HasPrefix(resp.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("expected pdf body")
	}

	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/statement.pdf?month=October", nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestStaffCannotSeeBilling(t *testing.T) {
	router := newRouter(&memoryStore{}, auth.RoleStaff)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/billing/payments", nil))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
}
