package model

import "strings"

// Criterion describes a WCAG success criterion referenced by incidences.
type Criterion struct {
	// Number is the criterion reference, e.g. "1.4.3".
	Number string
	// Name is the official short name.
	Name string
	// Level is the conformance level ("A", "AA", "AAA").
	Level string
}

// criteria holds the success criteria the built-in checkers report against.
var criteria = map[string]Criterion{
	"1.1.1":  {Number: "1.1.1", Name: "Non-text Content", Level: "A"},
	"1.3.1":  {Number: "1.3.1", Name: "Info and Relationships", Level: "A"},
	"1.4.1":  {Number: "1.4.1", Name: "Use of Color", Level: "A"},
	"1.4.3":  {Number: "1.4.3", Name: "Contrast (Minimum)", Level: "AA"},
	"1.4.4":  {Number: "1.4.4", Name: "Resize Text", Level: "AA"},
	"1.4.5":  {Number: "1.4.5", Name: "Images of Text", Level: "AA"},
	"1.4.10": {Number: "1.4.10", Name: "Reflow", Level: "AA"},
	"1.4.11": {Number: "1.4.11", Name: "Non-text Contrast", Level: "AA"},
	"1.4.12": {Number: "1.4.12", Name: "Text Spacing", Level: "AA"},
	"2.1.1":  {Number: "2.1.1", Name: "Keyboard", Level: "A"},
	"2.2.1":  {Number: "2.2.1", Name: "Timing Adjustable", Level: "A"},
	"2.4.2":  {Number: "2.4.2", Name: "Page Titled", Level: "A"},
	"2.4.3":  {Number: "2.4.3", Name: "Focus Order", Level: "A"},
	"2.4.7":  {Number: "2.4.7", Name: "Focus Visible", Level: "AA"},
	"3.1.1":  {Number: "3.1.1", Name: "Language of Page", Level: "A"},
	"3.3.1":  {Number: "3.3.1", Name: "Error Identification", Level: "A"},
	"4.1.1":  {Number: "4.1.1", Name: "Parsing", Level: "A"},
	"4.1.2":  {Number: "4.1.2", Name: "Name, Role, Value", Level: "A"},
}

// LookupCriterion returns the criterion for a reference such as "1.4.3".
func LookupCriterion(ref string) (Criterion, bool) {
	c, ok := criteria[strings.TrimSpace(ref)]
	return c, ok
}

// ResolutionGuide returns the remediation guide name for a criterion,
// e.g. "Understanding SC 1.4.3: Contrast (Minimum)". Unknown references
// yield an empty string.
func ResolutionGuide(ref string) string {
	c, ok := LookupCriterion(ref)
	if !ok {
		return ""
	}
	return "Understanding SC " + c.Number + ": " + c.Name
}

// GuideURL returns the W3C Understanding document URL for a criterion.
func GuideURL(ref string) string {
	c, ok := LookupCriterion(ref)
	if !ok {
		return ""
	}
	slug := strings.ToLower(c.Name)
	slug = strings.NewReplacer("(", "", ")", "", ",", "", " ", "-").Replace(slug)
	return "https://www.w3.org/WAI/WCAG22/Understanding/" + slug + ".html"
}
