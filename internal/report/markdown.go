package report

import (
	"io"
	"slices"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/a11yscan/internal/model"
)

// MarkdownWriter outputs the summary as GitHub-flavored Markdown with a
// mermaid pie chart of severities.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write implements Writer.
func (w *MarkdownWriter) Write(summary *model.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeSummary(md, summary)
	w.writeCategories(md, summary)
	w.writeIncidences(md, summary)
	w.writeFailed(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, summary *model.Summary) {
	md.H1("Accessibility Report")
	md.PlainText("")

	rows := [][]string{
		{"Generated", summary.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
		{"Documents", strconv.Itoa(summary.Documents)},
		{"Incidences", strconv.Itoa(summary.Total())},
	}
	if summary.RunID != "" {
		rows = append(rows, []string{"Run", "`" + summary.RunID + "`"})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Severity Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🟠 High", strconv.Itoa(summary.HighCount)},
			{"🟡 Medium", strconv.Itoa(summary.MediumCount)},
			{"🔵 Low", strconv.Itoa(summary.LowCount)},
			{"**Total**", "**" + strconv.Itoa(summary.Total()) + "**"},
		},
	})
	md.PlainText("")

	if summary.HasIncidences() {
		w.writePieChart(md, summary)
	}
	w.writeAlert(md, summary)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, summary *model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Incidence Severity Distribution"),
		piechart.WithShowData(true),
	)

	if summary.HighCount > 0 {
		chart.LabelAndIntValue("High", uint64(summary.HighCount))
	}
	if summary.MediumCount > 0 {
		chart.LabelAndIntValue("Medium", uint64(summary.MediumCount))
	}
	if summary.LowCount > 0 {
		chart.LabelAndIntValue("Low", uint64(summary.LowCount))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, summary *model.Summary) {
	switch {
	case summary.HighCount > 0:
		md.Warningf("%d high severity incidence(s) block access for some users.", summary.HighCount)
	case summary.MediumCount > 0:
		md.Importantf("%d medium severity incidence(s) degrade the experience.", summary.MediumCount)
	case summary.Total() > 0:
		md.Note("Only low severity incidences were found.")
	default:
		md.Tip("No accessibility incidences detected.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeCategories(md *markdown.Markdown, summary *model.Summary) {
	if !summary.HasIncidences() {
		return
	}

	md.H2("By Category")
	md.PlainText("")

	categories := make([]string, 0, len(summary.ByCategory))
	for c := range summary.ByCategory {
		categories = append(categories, string(c))
	}
	slices.Sort(categories)

	rows := make([][]string, 0, len(categories))
	for _, c := range categories {
		rows = append(rows, []string{c, strconv.Itoa(summary.ByCategory[model.Category(c)])})
	}
	md.Table(markdown.TableSet{Header: []string{"Category", "Count"}, Rows: rows})
	md.PlainText("")

	top := summary.TopCheckers()
	rows = make([][]string, 0, len(top))
	for _, cc := range top {
		rows = append(rows, []string{"`" + cc.Checker + "`", strconv.Itoa(cc.Count)})
	}
	md.H3("By Checker")
	md.PlainText("")
	md.Table(markdown.TableSet{Header: []string{"Checker", "Count"}, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeIncidences(md *markdown.Markdown, summary *model.Summary) {
	md.H2("Incidences")
	md.PlainText("")

	if !summary.HasIncidences() {
		md.PlainText("No incidences detected.")
		md.PlainText("")
		return
	}

	headers := map[model.Severity]string{
		model.SeverityHigh:   "### 🟠 High",
		model.SeverityMedium: "### 🟡 Medium",
		model.SeverityLow:    "### 🔵 Low",
	}
	for _, sev := range model.Severities() {
		incidences := summary.BySeverity(sev)
		if len(incidences) == 0 {
			continue
		}
		md.PlainText(headers[sev])
		md.PlainText("")
		w.writeIncidenceTable(md, incidences)
	}
}

func (w *MarkdownWriter) writeIncidenceTable(md *markdown.Markdown, incidences []model.Incidence) {
	rows := make([][]string, len(incidences))
	for i, inc := range incidences {
		rows[i] = []string{
			inc.Title,
			orDash(inc.Criterion()),
			truncateString(inc.Source, 50),
			truncateString(location(inc), 40),
			truncateString(orDash(inc.Remediation), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Title", "WCAG", "Page", "Element", "Remediation"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, inc := range incidences {
		if inc.Description != "" {
			md.Details(inc.Title, inc.Description)
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailed(md *markdown.Markdown, summary *model.Summary) {
	if len(summary.FailedDocuments) == 0 {
		return
	}
	md.H2("Failed Documents")
	md.PlainText("")
	md.BulletList(summary.FailedDocuments...)
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [a11yscan](https://github.com/nao1215/a11yscan)*")
}
