package model

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"
)

// ElementInfo describes the element an incidence points at.
type ElementInfo struct {
	// Tag is the lower-case element name.
	Tag string `json:"tag"`

	// Text is the element's normalized text, truncated to 50 characters.
	Text string `json:"text,omitempty"`

	// ID is the id attribute or "N/A".
	ID string `json:"id"`

	// Class is the space-joined class list or "N/A".
	Class string `json:"class"`

	// Line is the 1-based source line of the start tag, 0 when unknown.
	Line int `json:"line_number,omitempty"`
}

// String renders the element as a short CSS-like locator, e.g. "div#menu.nav (line 12)".
func (e ElementInfo) String() string {
	var b strings.Builder
	b.WriteString(e.Tag)
	if e.ID != "" && e.ID != "N/A" {
		b.WriteString("#" + e.ID)
	}
	if e.Class != "" && e.Class != "N/A" {
		b.WriteString("." + strings.Join(strings.Fields(e.Class), "."))
	}
	if e.Line > 0 {
		b.WriteString(" (line ")
		b.WriteString(strconv.Itoa(e.Line))
		b.WriteString(")")
	}
	return b.String()
}

// Incidence is one accessibility finding.
// Every incidence is attributable to exactly one checker and one document.
type Incidence struct {
	// Title is the short human label of the finding.
	Title string `json:"title"`

	// Category is the taxonomy bucket, serialized as "type".
	Category Category `json:"type"`

	// Severity is assigned by the checker that produced the incidence.
	Severity Severity `json:"severity"`

	// Description includes the concrete offending value when available.
	Description string `json:"description"`

	// Remediation is the actionable fix.
	Remediation string `json:"remediation"`

	// WCAG is the success criterion number. Nil for tooling failures.
	WCAG *string `json:"wcag_reference"`

	// Impact is the user-facing consequence.
	Impact string `json:"impact"`

	// Source is the originating document (URL or file path).
	Source string `json:"page_url"`

	// ResolutionPointer names the remediation guide for the criterion.
	ResolutionPointer string `json:"resolution_pointer,omitempty"`

	// Checker is the registry name of the rule that fired.
	Checker string `json:"checker"`

	// Element is set when the incidence refers to a single element.
	Element *ElementInfo `json:"element_info,omitempty"`

	// AffectedElements is set when one incidence summarizes several elements.
	AffectedElements []ElementInfo `json:"affected_elements,omitempty"`

	// Extra holds checker-specific values (duplicated ids, measured ratios, src).
	Extra map[string]any `json:"extra,omitempty"`

	// DetectedAt is stamped by the report store when the incidence is written.
	DetectedAt *time.Time `json:"detected_at,omitempty"`
}

// Criterion returns the WCAG reference or an empty string.
func (i Incidence) Criterion() string {
	if i.WCAG == nil {
		return ""
	}
	return *i.WCAG
}

// WCAGRef returns a pointer to ref, or nil when ref is empty.
func WCAGRef(ref string) *string {
	if ref == "" {
		return nil
	}
	return &ref
}

// ElementKey identifies the offending element(s) of the incidence.
func (i Incidence) ElementKey() string {
	if i.Element != nil {
		return i.Element.String()
	}
	keys := make([]string, 0, len(i.AffectedElements))
	for _, e := range i.AffectedElements {
		keys = append(keys, e.String())
	}
	return strings.Join(keys, ",")
}

// Fingerprint is a stable SHA3-256 digest of source, checker, title and
// element. Two runs over an unchanged document produce equal fingerprints,
// which the run history uses to diff runs.
func (i Incidence) Fingerprint() string {
	h := sha3.New256()
	for _, part := range []string{i.Source, i.Checker, i.Title, i.ElementKey()} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
