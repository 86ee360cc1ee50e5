package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/a11yscan/internal/model"
)

const (
	// IssuesSheet holds one row per incidence.
	IssuesSheet = "Issues"

	// DefaultTablePath is the workbook used when none is configured.
	DefaultTablePath = "issue_report.xlsx"
)

// Fixed leading columns of the Issues sheet.
const (
	ColTitle           = "Title"
	ColBugType         = "Bug Type"
	ColPriority        = "Priority"
	ColSteps           = "Steps"
	ColExpected        = "Expected Result"
	ColActual          = "Actual Result"
	ColResolutions     = "Suggested Resolution(s)"
	ColEvidence        = "Evidence"
	ColCheckpoint      = "Failed Checkpoint"
	ColUserImpact      = "User Impact"
	ColPageURL         = "Page URL"
	ColResolutionGuide = "Resolution Guide"
	ColDetectedAt      = "Detected At"
	ColChecker         = "Checker"
)

// FixedColumns lists the Issues sheet columns every export writes, in order.
var FixedColumns = []string{
	ColTitle, ColBugType, ColPriority, ColSteps, ColExpected, ColActual,
	ColResolutions, ColEvidence, ColCheckpoint, ColUserImpact, ColPageURL,
	ColResolutionGuide, ColDetectedAt, ColChecker,
}

// IssueRow maps an incidence to column values. Extra keys are returned
// under their own names.
func IssueRow(inc model.Incidence) map[string]string {
	row := map[string]string{
		ColTitle:           inc.Title,
		ColBugType:         string(inc.Category),
		ColPriority:        inc.Severity.String(),
		ColSteps:           steps(inc),
		ColExpected:        expected(inc),
		ColActual:          inc.Description,
		ColResolutions:     inc.Remediation,
		ColEvidence:        inc.ElementKey(),
		ColCheckpoint:      inc.Criterion(),
		ColUserImpact:      inc.Impact,
		ColPageURL:         inc.Source,
		ColResolutionGuide: inc.ResolutionPointer,
		ColChecker:         inc.Checker,
	}
	if inc.DetectedAt != nil {
		row[ColDetectedAt] = inc.DetectedAt.Format(time.RFC3339)
	}
	for k, v := range inc.Extra {
		if _, fixed := row[k]; fixed {
			k = "extra." + k
		}
		row[k] = cellValue(v)
	}
	return row
}

func steps(inc model.Incidence) string {
	s := "Open " + inc.Source
	if key := inc.ElementKey(); key != "" {
		s += " and inspect " + key
	}
	return s
}

func expected(inc model.Incidence) string {
	if c := inc.Criterion(); c != "" {
		return "The page meets WCAG " + c + "."
	}
	return "The check runs to completion."
}

func cellValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32, int, int64, int32, bool:
		return fmt.Sprint(x)
	default:
		data, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(data)
	}
}

// ExportTabular appends incidences as rows of the Issues sheet in the
// workbook at path, creating it when absent.
//
// The schema only grows: columns are the existing header followed by any
// column first seen in this export (fixed columns first, then extra keys in
// sorted order). Earlier rows are left empty in new columns.
func ExportTabular(ctx context.Context, incidences []model.Incidence, path string) error {
	release, err := acquireTable(ctx, path)
	if err != nil {
		return err
	}
	defer release()

	f, err := openWorkbook(path, IssuesSheet)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // nothing to recover on close

	rows, err := f.GetRows(IssuesSheet)
	if err != nil {
		return fmt.Errorf("reading %s: %w", IssuesSheet, err)
	}

	var header []string
	if len(rows) > 0 {
		header = slices.Clone(rows[0])
	}

	mapped := make([]map[string]string, 0, len(incidences))
	var extras []string
	for _, inc := range incidences {
		row := IssueRow(inc)
		mapped = append(mapped, row)
		for k := range row {
			if !slices.Contains(FixedColumns, k) && !slices.Contains(extras, k) {
				extras = append(extras, k)
			}
		}
	}
	slices.Sort(extras)
	for _, col := range append(slices.Clone(FixedColumns), extras...) {
		if !slices.Contains(header, col) {
			header = append(header, col)
		}
	}

	if err := setRow(f, IssuesSheet, 1, toCells(header)); err != nil {
		return err
	}
	if err := boldHeader(f, IssuesSheet, len(header)); err != nil {
		return err
	}

	next := max(len(rows), 1) + 1
	for i, row := range mapped {
		cells := make([]any, len(header))
		for c, col := range header {
			cells[c] = row[col]
		}
		if err := setRow(f, IssuesSheet, next+i, cells); err != nil {
			return err
		}
	}

	if err := ensureDir(path); err != nil {
		return err
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// ReadSheet returns the rows of sheet in the workbook at path.
func ReadSheet(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // read only
	return f.GetRows(sheet)
}

// acquireTable serializes workbook writers in this process.
func acquireTable(ctx context.Context, path string) (func(), error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving table path: %w", err)
	}
	return acquirePath(ctx, abs)
}

// openWorkbook opens the workbook at path, or creates one whose first sheet
// is named sheet. The sheet exists in the returned file.
func openWorkbook(path, sheet string) (*excelize.File, error) {
	f, err := excelize.OpenFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", sheet); err != nil {
			return nil, fmt.Errorf("creating %s: %w", sheet, err)
		}
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		_ = f.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("reading sheets of %s: %w", path, err)
	}
	if idx == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			_ = f.Close() //nolint:errcheck // already failing
			return nil, fmt.Errorf("creating %s: %w", sheet, err)
		}
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, row int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func boldHeader(f *excelize.File, sheet string, columns int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(columns, 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

// ensureDir creates the parent directory of path.
func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
