package report

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/model"
)

const axeFixture = `[
  {
    "url": "https://www.example.com/",
    "violations": [
      {
        "id": "image-alt",
        "impact": "critical",
        "description": "Ensures <img> elements have alternate text",
        "helpUrl": "https://dequeuniversity.com/rules/axe/4.4/image-alt",
        "nodes": [{"target": ["img"]}, {"target": ["img.logo"]}]
      }
    ]
  },
  {"file_path": "pages/broken.html", "violations": [], "error": "axe-core did not load"}
]`

const lighthouseFixture = `{
  "requestedUrl": "https://www.example.com",
  "finalDisplayedUrl": "https://www.example.com/",
  "categories": {
    "accessibility": {
      "auditRefs": [
        {"id": "color-contrast", "weight": 7},
        {"id": "document-title", "weight": 7},
        {"id": "aria-allowed-attr", "weight": 10},
        {"id": "logical-tab-order", "weight": 0},
        {"id": "label", "weight": 7}
      ]
    }
  },
  "audits": {
    "color-contrast": {
      "id": "color-contrast",
      "title": "Background and foreground colors do not have a sufficient contrast ratio.",
      "description": "Low-contrast text is difficult to read. [Learn how to provide sufficient color contrast](https://dequeuniversity.com/rules/axe/4.8/color-contrast).",
      "score": 0,
      "scoreDisplayMode": "binary",
      "details": {"items": [{}, {}, {}]}
    },
    "document-title": {"id": "document-title", "title": "Document has a title", "score": 1, "scoreDisplayMode": "binary"},
    "aria-allowed-attr": {"id": "aria-allowed-attr", "title": "ARIA attributes could not be evaluated", "score": null, "scoreDisplayMode": "binary"},
    "logical-tab-order": {"id": "logical-tab-order", "title": "Logical tab order", "score": null, "scoreDisplayMode": "manual"},
    "label": {"id": "label", "title": "Form elements have labels", "score": null, "scoreDisplayMode": "notApplicable"}
  }
}`

func TestLoadAxeResults(t *testing.T) {
	t.Parallel()

	results, err := LoadAxeResults(strings.NewReader(axeFixture))
	if err != nil {
		t.Fatalf("LoadAxeResults() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	first := results[0]
	if first.Source != "https://www.example.com/" || first.Engine != model.EngineAxe {
		t.Errorf("first = %+v", first)
	}
	v := first.Violations[0]
	if v.ID != "image-alt" || v.Impact != "critical" || v.Nodes != 2 || !strings.HasPrefix(v.HelpURL, "https://dequeuniversity.com") {
		t.Errorf("violation = %+v", v)
	}

	if results[1].Source != "pages/broken.html" || results[1].Error == "" {
		t.Errorf("second = %+v", results[1])
	}

	t.Run("single object", func(t *testing.T) {
		t.Parallel()

		got, err := LoadAxeResults(strings.NewReader(`{"url":"a","violations":[]}`))
		if err != nil || len(got) != 1 || got[0].Source != "a" {
			t.Errorf("got %+v, %v", got, err)
		}
	})

	t.Run("invalid input", func(t *testing.T) {
		t.Parallel()

		for _, in := range []string{"", "nope", `[{"violations": 3}]`} {
			if _, err := LoadAxeResults(strings.NewReader(in)); !errors.Is(err, ErrInvalidEngineReport) {
				t.Errorf("LoadAxeResults(%q) error = %v", in, err)
			}
		}
	})
}

func TestLoadLighthouseReport(t *testing.T) {
	t.Parallel()

	res, err := LoadLighthouseReport(strings.NewReader(lighthouseFixture))
	if err != nil {
		t.Fatalf("LoadLighthouseReport() error = %v", err)
	}
	if res.Source != "https://www.example.com/" || res.Engine != model.EngineLighthouse {
		t.Errorf("result = %+v", res)
	}

	ids := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		ids = append(ids, v.ID)
	}
	if strings.Join(ids, ",") != "color-contrast,aria-allowed-attr" {
		t.Errorf("violations = %v", ids)
	}
	cc := res.Violations[0]
	if cc.Nodes != 3 || cc.HelpURL != "https://dequeuniversity.com/rules/axe/4.8/color-contrast" {
		t.Errorf("color-contrast = %+v", cc)
	}

	t.Run("missing accessibility category", func(t *testing.T) {
		t.Parallel()

		_, err := LoadLighthouseReport(strings.NewReader(`{"categories": {"performance": {}}}`))
		if !errors.Is(err, ErrInvalidEngineReport) {
			t.Errorf("error = %v, want ErrInvalidEngineReport", err)
		}
	})

	t.Run("runtime error", func(t *testing.T) {
		t.Parallel()

		res, err := LoadLighthouseReport(strings.NewReader(`{"requestedUrl":"https://x.test","runtimeError":{"code":"NO_FCP","message":"no paint"},"categories":{"accessibility":{"auditRefs":[]}}}`))
		if err != nil {
			t.Fatal(err)
		}
		if res.Error != "NO_FCP: no paint" || res.Source != "https://x.test" {
			t.Errorf("result = %+v", res)
		}
	})
}

func TestExportEngineViolations(t *testing.T) {
	t.Parallel()

	axe, err := LoadAxeResults(strings.NewReader(axeFixture))
	if err != nil {
		t.Fatal(err)
	}
	lh, err := LoadLighthouseReport(strings.NewReader(lighthouseFixture))
	if err != nil {
		t.Fatal(err)
	}
	results := append(axe, lh)

	path := filepath.Join(t.TempDir(), "issue_report.xlsx")
	if err := ExportTabular(context.Background(), sampleIncidences(1), path); err != nil {
		t.Fatal(err)
	}

	// Writing twice replaces the sheet.
	for range 2 {
		if err := ExportEngineViolations(context.Background(), results, path); err != nil {
			t.Fatalf("ExportEngineViolations() error = %v", err)
		}
	}

	rows, err := ReadSheet(path, EngineSheet)
	if err != nil {
		t.Fatal(err)
	}
	// header + image-alt + axe error row + two lighthouse violations
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5: %v", len(rows), rows)
	}
	if strings.Join(rows[0], ",") != strings.Join(EngineColumns, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][1] != "axe-core" || rows[1][2] != "image-alt" || rows[1][6] != "2" {
		t.Errorf("axe row = %v", rows[1])
	}
	if rows[2][0] != "pages/broken.html" || cell(rows[2], 7) != "axe-core did not load" {
		t.Errorf("error row = %v", rows[2])
	}

	issues, err := ReadSheet(path, IssuesSheet)
	if err != nil || len(issues) != 2 {
		t.Errorf("Issues sheet must be kept: %d rows, %v", len(issues), err)
	}
}
