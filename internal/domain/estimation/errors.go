package estimation

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("estimation not configured")
	ErrTransport     = errors.New("estimation upstream failed")
	ErrEmptyResponse = errors.New("estimation returned empty response")
	ErrParse         = errors.New("estimation response could not be parsed")
	ErrSuperseded    = errors.New("estimation superseded by a newer request")
	ErrCancelled     = errors.New("estimation cancelled")
	ErrInvalidSlot   = errors.New("invalid meal slot")
)

// PlaceholderAPIKey is the sample value shipped in env templates.
const PlaceholderAPIKey = "PLACEHOLDER_API_KEY"

// UpstreamError carries the message reported by the text-generation service.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: %s", ErrTransport, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", ErrTransport, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error { return ErrTransport }
