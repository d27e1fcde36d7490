package leave

import (
	"sort"
	"strings"
)

// statusAliases is the allow-list of stored spellings, keyed by their upper-case form.
var statusAliases = map[string]string{
	"PENDING":          StatusPending,
	"PENDING_APPROVAL": StatusPending,
	"APPROVED":         StatusApproved,
	"APPROVE":          StatusApproved,
	"REJECTED":         StatusRejected,
	"REJECT":           StatusRejected,
}

// NormalizeStatus maps a stored status onto Pending, Approved or Rejected.
// An empty status is an unreviewed record and reads as Pending. Values outside
// the allow-list are returned unchanged so unknown states stay visible as stored.
func NormalizeStatus(raw string) string {
	key := strings.ToUpper(strings.TrimSpace(raw))
	if key == "" {
		return StatusPending
	}
	if canonical, ok := statusAliases[key]; ok {
		return canonical
	}
	return raw
}

// Aliases returns every stored spelling (upper-case) that normalizes to canonical.
func Aliases(canonical string) []string {
	var out []string
	for alias, value := range statusAliases {
		if value == canonical {
			out = append(out, alias)
		}
	}
	sort.Strings(out)
	return out
}

func IsCanonical(status string) bool {
	return status == StatusPending || status == StatusApproved || status == StatusRejected
}
