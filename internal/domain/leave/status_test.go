package leave

import "testing"

func TestNormalizeStatus(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"PENDING_APPROVAL", StatusPending},
		{"Pending", StatusPending},
		{"pending", StatusPending},
		{"PENDING", StatusPending},
		{" pending_approval ", StatusPending},
		{"", StatusPending},
		{"APPROVE", StatusApproved},
		{"APPROVED", StatusApproved},
		{"Approved", StatusApproved},
		{"approve", StatusApproved},
		{"REJECTED", StatusRejected},
		{"Rejected", StatusRejected},
		{"reject", StatusRejected},
		{"Cancelled", "Cancelled"},
		{"ON_HOLD", "ON_HOLD"},
	}
	for _, tc := range cases {
		if got := NormalizeStatus(tc.in); got != tc.want {
			t.Fatalf("NormalizeStatus(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestEveryAliasNormalizesToItsCanonical(t *testing.T) {
	for _, canonical := range []string{StatusPending, StatusApproved, StatusRejected} {
		aliases := Aliases(canonical)
		if len(aliases) < 2 {
			t.Fatalf("expected at least two aliases for %s, got %v", canonical, aliases)
		}
		for _, alias := range aliases {
			if got := NormalizeStatus(alias); got != canonical {
				t.Fatalf("alias %q normalized to %q, want %q", alias, got, canonical)
			}
		}
	}
}

func TestAliasesAreSorted(t *testing.T) {
	got := Aliases(StatusApproved)
	if len(got) != 2 || got[0] != "APPROVE" || got[1] != "APPROVED" {
		t.Fatalf("unexpected approved aliases: %v", got)
	}
}
