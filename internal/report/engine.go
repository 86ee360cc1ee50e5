package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// EngineSheet holds the violations of external engines.
const EngineSheet = "Engine Violations"

// EngineColumns are the columns of the Engine Violations sheet.
var EngineColumns = []string{"url", "engine", "rule", "impact", "description", "help_url", "nodes", "error"}

type axeResult struct {
	URL        string         `json:"url"`
	FilePath   string         `json:"file_path"`
	Violations []axeViolation `json:"violations"`
	Error      string         `json:"error"`
}

type axeViolation struct {
	ID          string            `json:"id"`
	Impact      string            `json:"impact"`
	Description string            `json:"description"`
	Help        string            `json:"help"`
	HelpURL     string            `json:"helpUrl"`
	Nodes       []json.RawMessage `json:"nodes"`
}

// LoadAxeResults reads axe-core output: an array (or single object) of
// {url | file_path, violations, error}.
func LoadAxeResults(r io.Reader) ([]model.EngineResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading axe results: %w", err)
	}
	data = bytes.TrimSpace(data)

	var raw []axeResult
	switch {
	case len(data) == 0:
		return nil, fmt.Errorf("%w: empty axe results", ErrInvalidEngineReport)
	case data[0] == '{':
		var one axeResult
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEngineReport, err)
		}
		raw = []axeResult{one}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEngineReport, err)
		}
	}

	results := make([]model.EngineResult, 0, len(raw))
	for _, r := range raw {
		source := r.URL
		if source == "" {
			source = r.FilePath
		}
		res := model.EngineResult{
			Source:     source,
			Engine:     model.EngineAxe,
			Violations: make([]model.Violation, 0, len(r.Violations)),
			Error:      r.Error,
		}
		for _, v := range r.Violations {
			desc := v.Description
			if desc == "" {
				desc = v.Help
			}
			res.Violations = append(res.Violations, model.Violation{
				ID:          v.ID,
				Impact:      v.Impact,
				Description: desc,
				HelpURL:     v.HelpURL,
				Nodes:       len(v.Nodes),
			})
		}
		results = append(results, res)
	}
	return results, nil
}

type lighthouseReport struct {
	RequestedURL      string `json:"requestedUrl"`
	FinalURL          string `json:"finalUrl"`
	FinalDisplayedURL string `json:"finalDisplayedUrl"`
	RuntimeError      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"runtimeError"`
	Categories map[string]struct {
		AuditRefs []struct {
			ID     string  `json:"id"`
			Weight float64 `json:"weight"`
		} `json:"auditRefs"`
	} `json:"categories"`
	Audits map[string]lighthouseAudit `json:"audits"`
}

type lighthouseAudit struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Score            json.RawMessage `json:"score"`
	ScoreDisplayMode string          `json:"scoreDisplayMode"`
	Details          struct {
		Items []json.RawMessage `json:"items"`
	} `json:"details"`
}

// failing reports whether the audit did not pass. A null score counts as
// failing except for audits Lighthouse marks as manual or not applicable.
func (a lighthouseAudit) failing() bool {
	switch a.ScoreDisplayMode {
	case "notApplicable", "manual", "informative":
		return false
	}
	s := strings.TrimSpace(string(a.Score))
	if s == "" {
		return false
	}
	if s == "null" {
		return true
	}
	score, err := strconv.ParseFloat(s, 64)
	return err == nil && score < 1
}

var markdownLink = regexp.MustCompile(`\[[^\]]*\]\((https?://[^)\s]+)\)`)

// LoadLighthouseReport reads a Lighthouse JSON report and keeps the
// accessibility audits that did not pass.
func LoadLighthouseReport(r io.Reader) (model.EngineResult, error) {
	var rep lighthouseReport
	if err := json.NewDecoder(r).Decode(&rep); err != nil {
		return model.EngineResult{}, fmt.Errorf("%w: %w", ErrInvalidEngineReport, err)
	}

	source := rep.FinalDisplayedURL
	if source == "" {
		source = rep.FinalURL
	}
	if source == "" {
		source = rep.RequestedURL
	}
	res := model.EngineResult{
		Source:     source,
		Engine:     model.EngineLighthouse,
		Violations: make([]model.Violation, 0),
	}
	if rep.RuntimeError != nil && rep.RuntimeError.Code != "" && rep.RuntimeError.Code != "NO_ERROR" {
		res.Error = rep.RuntimeError.Code + ": " + rep.RuntimeError.Message
	}

	category, ok := rep.Categories["accessibility"]
	if !ok {
		return res, fmt.Errorf("%w: no accessibility category", ErrInvalidEngineReport)
	}

	for _, ref := range category.AuditRefs {
		audit, ok := rep.Audits[ref.ID]
		if !ok || !audit.failing() {
			continue
		}
		v := model.Violation{
			ID:          ref.ID,
			Description: audit.Title,
			Nodes:       len(audit.Details.Items),
		}
		if v.Description == "" {
			v.Description = audit.Description
		}
		if m := markdownLink.FindStringSubmatch(audit.Description); m != nil {
			v.HelpURL = m[1]
		}
		res.Violations = append(res.Violations, v)
	}
	return res, nil
}

// ExportEngineViolations writes one row per violation to the Engine
// Violations sheet of the workbook at path, replacing what the sheet held.
// A page whose engine failed without violations gets one row carrying the
// error. Other sheets of the workbook are kept.
func ExportEngineViolations(ctx context.Context, results []model.EngineResult, path string) error {
	release, err := acquireTable(ctx, path)
	if err != nil {
		return err
	}
	defer release()

	f, err := openWorkbook(path, EngineSheet)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }() //nolint:errcheck // nothing to recover on close

	// Rewrite the sheet from scratch.
	if rows, err := f.GetRows(EngineSheet); err == nil {
		for i := len(rows); i >= 1; i-- {
			if err := f.RemoveRow(EngineSheet, i); err != nil {
				return fmt.Errorf("clearing %s: %w", EngineSheet, err)
			}
		}
	}

	if err := setRow(f, EngineSheet, 1, toCells(EngineColumns)); err != nil {
		return err
	}
	if err := boldHeader(f, EngineSheet, len(EngineColumns)); err != nil {
		return err
	}

	row := 2
	for _, r := range results {
		if len(r.Violations) == 0 {
			if r.Error == "" {
				continue
			}
			if err := setRow(f, EngineSheet, row, []any{r.Source, string(r.Engine), "", "", "", "", 0, r.Error}); err != nil {
				return err
			}
			row++
			continue
		}
		for _, v := range r.Violations {
			cells := []any{r.Source, string(r.Engine), v.ID, v.Impact, v.Description, v.HelpURL, v.Nodes, r.Error}
			if err := setRow(f, EngineSheet, row, cells); err != nil {
				return err
			}
			row++
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
