package estimation

import (
	"errors"

	"messease/internal/domain/attendance"
	"messease/internal/domain/menu"
)

// Inputs are the values an estimation request is built from.
type Inputs struct {
	MealSlot   menu.MealSlot         `json:"mealSlot"`
	Projection attendance.Projection `json:"attendance"`
	MenuText   string                `json:"menuText"`
	Prompt     string                `json:"prompt,omitempty"`
}

type ViewError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// View is the presentation of a session's estimation state.
type View struct {
	State      State      `json:"state"`
	Generation uint64     `json:"generation"`
	Inputs     Inputs     `json:"inputs"`
	Manifest   *Manifest  `json:"manifest,omitempty"`
	Error      *ViewError `json:"error,omitempty"`
}

// ErrorCode maps an estimation failure to its stable API code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "estimation_not_configured"
	case errors.Is(err, ErrEmptyResponse):
		return "estimation_empty_response"
	case errors.Is(err, ErrParse):
		return "estimation_unparseable"
	case errors.Is(err, ErrSuperseded):
		return "estimation_superseded"
	case errors.Is(err, ErrCancelled):
		return "estimation_cancelled"
	case errors.Is(err, ErrTransport):
		return "estimation_upstream_failed"
	default:
		return "estimation_failed"
	}
}

// NewViewError builds the user-facing error. Parse failures get a generic
// message so raw model output never reaches the caller.
func NewViewError(err error) *ViewError {
	if err == nil {
		return nil
	}
	msg := err.Error()
	var upstream *UpstreamError
	switch {
	case errors.Is(err, ErrParse):
		msg = "The estimation service returned a response that could not be read. Try again."
	case errors.As(err, &upstream):
		msg = upstream.Message
	case errors.Is(err, ErrConfiguration):
		msg = "Estimation is not configured. Set GEMINI_API_KEY and restart the server."
	case errors.Is(err, ErrEmptyResponse):
		msg = "The estimation service returned an empty response."
	}
	return &ViewError{Code: ErrorCode(err), Message: msg}
}
