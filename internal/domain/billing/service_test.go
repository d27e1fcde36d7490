package billing

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type fakeStore struct {
	payments    []Payment
	lastFilter  Filter
	guestFrom   time.Time
	guestTo     time.Time
	guestResult int
}

func (f *fakeStore) List(_ context.Context, filter Filter) (ListResult, error) {
	f.lastFilter = filter
	return ListResult{Payments: f.payments, Total: len(f.payments)}, nil
}

func (f *fakeStore) CountByPurpose(_ context.Context, purpose string, from, to time.Time) (int, error) {
	if purpose != GuestMealPurpose {
		return 0, errors.New("unexpected purpose")
	}
	f.guestFrom, f.guestTo = from, to
	return f.guestResult, nil
}

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSummarizeIgnoresNonPositiveAmounts(t *testing.T) {
	sum := Summarize([]Payment{
		{Amount: amount("3500.50"), Status: "Paid"},
		{Amount: amount("0.10"), Status: " paid "},
		{Amount: amount("0.20"), Status: "Pending"},
		{Amount: amount("-500"), Status: "Refunded"},
		{Amount: amount("0"), Status: ""},
	})
	if !sum.TotalCollection.Equal(amount("3500.80")) {
		t.Fatalf("expected 3500.80, got %s", sum.TotalCollection)
	}
	if !sum.Refunds.Equal(amount("500")) {
		t.Fatalf("expected refunds 500, got %s", sum.Refunds)
	}
	if sum.Transactions != 5 || sum.ByStatus["paid"] != 2 || sum.ByStatus["unknown"] != 1 {
		t.Fatalf("unexpected summary: %+v", sum)
	}
}

func TestGuestMealsTodayUsesMessLocalDay(t *testing.T) {
	ist, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	store := &fakeStore{guestResult: 3}
	svc := NewService(store, ist)
	// 20:00 UTC on the 18th is 01:30 IST on the 19th.
	svc.Now = func() time.Time { return time.Date(2026, 10, 18, 20, 0, 0, 0, time.UTC) }

	n, err := svc.GuestMealsToday(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("unexpected result %d, %v", n, err)
	}
	want := time.Date(2026, 10, 19, 0, 0, 0, 0, ist)
	if !store.guestFrom.Equal(want) || !store.guestTo.Equal(want.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected bounds %s - %s", store.guestFrom, store.guestTo)
	}
}

func TestStatementRendersPDFForMonth(t *testing.T) {
	store := &fakeStore{payments: []Payment{
		{ID: "p1", Name: "Asha", Purpose: "Mess Fee", Amount: amount("3500"), Status: "Paid", PaidAt: time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC)},
		{ID: "p2", Name: "Ravi", Purpose: GuestMealPurpose, Amount: amount("80"), Status: "Paid", PaidAt: time.Date(2026, 10, 3, 9, 0, 0, 0, time.UTC)},
	}}
	svc := NewService(store, time.UTC)

	out, err := svc.Statement(context.Background(), "2026-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatal("expected PDF output")
	}
	if !store.lastFilter.From.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) || !store.lastFilter.To.Equal(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected month filter: %+v", store.lastFilter)
	}
	if _, err := svc.Statement(context.Background(), "October"); !errors.Is(err, ErrInvalidMonth) {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}
