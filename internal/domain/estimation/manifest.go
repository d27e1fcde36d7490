package estimation

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Estimate struct {
	Item          string `json:"item"`
	Quantity      string `json:"quantity"`
	Unit          string `json:"unit"`
	WastageBuffer string `json:"wastageBuffer"`
}

// UnmarshalJSON accepts numeric as well as string values for every field.
func (e *Estimate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Item          json.RawMessage `json:"item"`
		Quantity      json.RawMessage `json:"quantity"`
		Unit          json.RawMessage `json:"unit"`
		WastageBuffer json.RawMessage `json:"wastageBuffer"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Estimate{
		Item:          looseString(raw.Item),
		Quantity:      looseString(raw.Quantity),
		Unit:          looseString(raw.Unit),
		WastageBuffer: looseString(raw.WastageBuffer),
	}
	return nil
}

type Manifest struct {
	Estimates    []Estimate `json:"estimates"`
	TotalWastage string     `json:"totalWastageEstimation,omitempty"`
	Notes        string     `json:"notes,omitempty"`
}

// StripFences removes markdown code fences the model sometimes adds despite instructions.
func StripFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseManifest decodes model output into a Manifest. Every estimate must name an item.
func ParseManifest(text string) (Manifest, error) {
	var raw struct {
		Estimates    *[]Estimate     `json:"estimates"`
		TotalWastage json.RawMessage `json:"totalWastageEstimation"`
		Notes        json.RawMessage `json:"notes"`
	}
	if err := json.Unmarshal([]byte(StripFences(text)), &raw); err != nil {
		return Manifest{}, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if raw.Estimates == nil {
		return Manifest{}, fmt.Errorf("%w: missing estimates", ErrParse)
	}
	for i, e := range *raw.Estimates {
		if strings.TrimSpace(e.Item) == "" {
			return Manifest{}, fmt.Errorf("%w: estimate %d has no item", ErrParse, i)
		}
	}
	return Manifest{
		Estimates:    *raw.Estimates,
		TotalWastage: looseString(raw.TotalWastage),
		Notes:        looseString(raw.Notes),
	}, nil
}

// looseString accepts a JSON string or any scalar and renders it as text.
func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
