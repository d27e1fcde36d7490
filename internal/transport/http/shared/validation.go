package shared

import (
	"net/http"
	"strings"
	"time"

	"messease/internal/transport/http/api"
)

const dayLayout = "2006-01-02"

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects one reason per field, in the order fields were checked.
type Validator struct {
	issues []ValidationIssue
	seen   map[string]bool
}

func NewValidator() *Validator {
	return &Validator{seen: map[string]bool{}}
}

func (v *Validator) Add(field, reason string) {
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" || v.seen[field] {
		return
	}
	v.seen[field] = true
	v.issues = append(v.issues, ValidationIssue{Field: field, Reason: reason})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

// Date accepts RFC3339 or YYYY-MM-DD.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, _, err := parseDate(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

// Window reads an optional from/to pair. A plain YYYY-MM-DD upper bound is
// widened to the start of the following day so the whole day is included.
// Either bound may come back zero when absent.
func (v *Validator) Window(fromField, fromRaw, toField, toRaw string) (from, to time.Time) {
	if strings.TrimSpace(fromRaw) != "" {
		from, _ = v.Date(fromField, fromRaw)
	}
	if strings.TrimSpace(toRaw) != "" {
		parsed, dayOnly, err := parseDate(toRaw)
		if err != nil {
			v.Add(toField, "must be a valid date in YYYY-MM-DD format")
		} else {
			if dayOnly {
				parsed = parsed.AddDate(0, 0, 1)
			}
			to = parsed
		}
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		v.Add(toField, "must be after "+fromField)
	}
	return from, to
}

func (v *Validator) Issues() []ValidationIssue {
	return v.issues
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if len(v.issues) == 0 {
		return false
	}
	FailValidation(w, requestID, v.issues)
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}

// FailField rejects a request over a single field.
func FailField(w http.ResponseWriter, requestID, field, reason string) {
	FailValidation(w, requestID, []ValidationIssue{{Field: field, Reason: reason}})
}

func parseDate(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, false, nil
	}
	parsed, err := time.Parse(dayLayout, raw)
	return parsed, true, err
}
