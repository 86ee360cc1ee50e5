package model

import (
	"sort"
	"time"
)

// Summary is a condensed view of one run, consumed by the report writers.
type Summary struct {
	// RunID identifies the run in the history database, if saved.
	RunID string `json:"run_id,omitempty"`

	// GeneratedAt is when the summary was built.
	GeneratedAt time.Time `json:"generated_at"`

	// Documents is the number of documents audited.
	Documents int `json:"documents"`

	// FailedDocuments lists sources that could not be audited.
	FailedDocuments []string `json:"failed_documents,omitempty"`

	HighCount   int `json:"high_count"`
	MediumCount int `json:"medium_count"`
	LowCount    int `json:"low_count"`

	// ByCategory counts incidences per category.
	ByCategory map[Category]int `json:"by_category,omitempty"`

	// ByChecker counts incidences per checker.
	ByChecker map[string]int `json:"by_checker,omitempty"`

	// Incidences in run order.
	Incidences []Incidence `json:"incidences,omitempty"`
}

// NewSummary counts the given incidences.
func NewSummary(documents int, incidences []Incidence) *Summary {
	s := &Summary{
		GeneratedAt: time.Now(),
		Documents:   documents,
		ByCategory:  make(map[Category]int),
		ByChecker:   make(map[string]int),
		Incidences:  incidences,
	}

	for _, inc := range incidences {
		switch inc.Severity {
		case SeverityHigh:
			s.HighCount++
		case SeverityMedium:
			s.MediumCount++
		case SeverityLow:
			s.LowCount++
		}
		s.ByCategory[inc.Category]++
		s.ByChecker[inc.Checker]++
	}

	return s
}

// Total returns the number of incidences.
func (s *Summary) Total() int {
	return s.HighCount + s.MediumCount + s.LowCount
}

// HasIncidences reports whether anything was found.
func (s *Summary) HasIncidences() bool {
	return s.Total() > 0
}

// BySeverity returns the incidences of one severity, in run order.
func (s *Summary) BySeverity(sev Severity) []Incidence {
	result := make([]Incidence, 0)
	for _, inc := range s.Incidences {
		if inc.Severity == sev {
			result = append(result, inc)
		}
	}
	return result
}

// CheckerCount pairs a checker name with its incidence count.
type CheckerCount struct {
	Checker string
	Count   int
}

// TopCheckers returns checkers ordered by incidence count, highest first.
// Ties are broken by name so output is stable.
func (s *Summary) TopCheckers() []CheckerCount {
	result := make([]CheckerCount, 0, len(s.ByChecker))
	for name, n := range s.ByChecker {
		result = append(result, CheckerCount{Checker: name, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Checker < result[j].Checker
	})
	return result
}
