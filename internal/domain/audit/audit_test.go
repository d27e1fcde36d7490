package audit

import (
	"testing"
	"time"
)

func TestFilterWhereNumbersPlaceholders(t *testing.T) {
	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	where, args := Filter{Action: ActionLeaveApprove, Actor: "a1", From: from}.where()
	want := " WHERE action = $1 AND actor_id = $2 AND created_at >= $3"
	if where != want {
		t.Fatalf("unexpected where clause: %q", where)
	}
	if len(args) != 3 || args[0] != ActionLeaveApprove || args[1] != "a1" || args[2] != from {
		t.Fatalf("unexpected args: %v", args)
	}

	if where, args := (Filter{}).where(); where != "" || args != nil {
		t.Fatalf("expected empty filter to match everything, got %q %v", where, args)
	}
}

func TestMarshalOptional(t *testing.T) {
	if raw, err := marshalOptional(nil); err != nil || raw != nil {
		t.Fatalf("expected nil payload, got %s, %v", raw, err)
	}
	raw, err := marshalOptional(map[string]string{"status": "Approved"})
	if err != nil || string(raw) != `{"status":"Approved"}` {
		t.Fatalf("unexpected payload %s, %v", raw, err)
	}
}
