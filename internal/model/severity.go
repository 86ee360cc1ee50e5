package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity is the impact level a checker assigns to an incidence.
// Severities are author-assigned per rule, never computed.
type Severity int

const (
	// SeverityLow marks issues with limited impact on assistive technology users.
	SeverityLow Severity = iota

	// SeverityMedium marks issues that degrade the experience but leave content reachable.
	SeverityMedium

	// SeverityHigh marks issues that block access to content or functionality.
	SeverityHigh
)

// String returns the label stored in reports ("Low", "Medium", "High").
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	default:
		return "Unknown"
	}
}

// ParseSeverity converts a label back into a Severity.
// Matching is case-insensitive.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return SeverityLow, nil
	case "medium":
		return SeverityMedium, nil
	case "high":
		return SeverityHigh, nil
	default:
		return SeverityLow, fmt.Errorf("unknown severity %q", s)
	}
}

// MarshalJSON writes the severity as its label.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts either the label or the numeric value.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		parsed, err := ParseSeverity(label)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid severity: %s", string(data))
	}
	*s = Severity(n)
	return nil
}

// Severities returns all severities from most to least severe.
func Severities() []Severity {
	return []Severity{SeverityHigh, SeverityMedium, SeverityLow}
}
