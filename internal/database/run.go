package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/a11yscan/internal/model"
	"github.com/nao1215/a11yscan/internal/pipeline"
)

// Run is one audit of a set of documents.
type Run struct {
	// ID is a UUID assigned by NewRun or SaveRun.
	ID string

	// Target is the folder, file list or start URL that was audited.
	Target string

	StartedAt time.Time
	Elapsed   time.Duration

	// Checkers lists the checker names that ran, in order.
	Checkers []string

	Documents  []Document
	Incidences []model.Incidence
}

// Document is one audited document of a run.
type Document struct {
	Source     string
	Hash       string
	StatusCode int
	Incidences int
	Elapsed    time.Duration

	// Error is set when the document could not be fully checked.
	Error string
}

// NewRun converts a batch result into a run with a fresh ID.
func NewRun(target string, checkers []string, result pipeline.BatchResult) *Run {
	run := &Run{
		ID:         uuid.NewString(),
		Target:     target,
		StartedAt:  result.StartedAt,
		Elapsed:    result.Elapsed,
		Checkers:   checkers,
		Documents:  make([]Document, 0, len(result.Documents)),
		Incidences: result.Incidences(),
	}
	for _, d := range result.Documents {
		doc := Document{
			Incidences: len(d.Incidences),
			Elapsed:    d.Elapsed,
		}
		if d.Page != nil {
			doc.Source = d.Page.Source
			doc.Hash = d.Page.Hash
			doc.StatusCode = d.Page.StatusCode
		}
		if d.Err != nil {
			doc.Error = d.Err.Error()
		}
		run.Documents = append(run.Documents, doc)
	}
	return run
}

// Summary builds the report summary of the run.
func (r *Run) Summary() *model.Summary {
	s := model.NewSummary(len(r.Documents), r.Incidences)
	s.RunID = r.ID
	for _, d := range r.Documents {
		if d.Error != "" {
			s.FailedDocuments = append(s.FailedDocuments, d.Source)
		}
	}
	return s
}

// RunMetadata summarizes a stored run without its incidences.
type RunMetadata struct {
	ID          string
	Target      string
	StartedAt   time.Time
	Elapsed     time.Duration
	Documents   int
	Failed      int
	HighCount   int
	MediumCount int
	LowCount    int
}

// Total returns the number of incidences of the run.
func (m RunMetadata) Total() int {
	return m.HighCount + m.MediumCount + m.LowCount
}

// RunDiff compares the incidences of two runs by fingerprint.
type RunDiff struct {
	// New incidences appear only in the newer run.
	New []model.Incidence

	// Resolved incidences appear only in the older run.
	Resolved []model.Incidence

	// Unchanged incidences appear in both; the newer copies are kept.
	Unchanged []model.Incidence
}

// CompareRuns diffs older against newer. Incidences with the same
// fingerprint are matched one to one, so duplicates are counted.
func CompareRuns(older, newer *Run) RunDiff {
	remaining := make(map[string]int)
	for _, inc := range older.Incidences {
		remaining[inc.Fingerprint()]++
	}

	diff := RunDiff{
		New:       make([]model.Incidence, 0),
		Resolved:  make([]model.Incidence, 0),
		Unchanged: make([]model.Incidence, 0),
	}
	matched := make(map[string]int)
	for _, inc := range newer.Incidences {
		fp := inc.Fingerprint()
		if remaining[fp] > 0 {
			remaining[fp]--
			matched[fp]++
			diff.Unchanged = append(diff.Unchanged, inc)
			continue
		}
		diff.New = append(diff.New, inc)
	}
	for _, inc := range older.Incidences {
		fp := inc.Fingerprint()
		if matched[fp] > 0 {
			matched[fp]--
			continue
		}
		diff.Resolved = append(diff.Resolved, inc)
	}
	return diff
}
