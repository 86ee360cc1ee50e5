package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/nao1215/a11yscan/internal/model"
)

// TextWriter outputs terminal tables.
type TextWriter struct {
	baseWriter

	// verbose adds descriptions and remediations to each row.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write implements Writer.
func (w *TextWriter) Write(summary *model.Summary) (int, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Accessibility report: %d document(s), %d incidence(s)\n\n",
		summary.Documents, summary.Total())

	counts := table.NewWriter()
	counts.SetStyle(table.StyleLight)
	counts.AppendHeader(table.Row{"Severity", "Count"})
	counts.AppendRow(table.Row{"High", summary.HighCount})
	counts.AppendRow(table.Row{"Medium", summary.MediumCount})
	counts.AppendRow(table.Row{"Low", summary.LowCount})
	counts.AppendFooter(table.Row{"Total", summary.Total()})
	sb.WriteString(counts.Render())
	sb.WriteString("\n")

	if summary.HasIncidences() {
		sb.WriteString("\n")
		sb.WriteString(w.incidenceTable(summary))
		sb.WriteString("\n")
	}

	if len(summary.FailedDocuments) > 0 {
		sb.WriteString("\nFailed documents:\n")
		for _, src := range summary.FailedDocuments {
			sb.WriteString("  - " + src + "\n")
		}
	}

	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) incidenceTable(summary *model.Summary) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)

	header := table.Row{"Severity", "Title", "WCAG", "Page", "Element", "Checker"}
	if w.verbose {
		header = append(header, "Description", "Remediation")
	}
	t.AppendHeader(header)

	for _, sev := range model.Severities() {
		for _, inc := range summary.BySeverity(sev) {
			row := table.Row{
				sev.String(),
				inc.Title,
				orDash(inc.Criterion()),
				truncateString(inc.Source, 40),
				truncateString(location(inc), 40),
				inc.Checker,
			}
			if w.verbose {
				row = append(row, inc.Description, inc.Remediation)
			}
			t.AppendRow(row)
		}
	}

	if w.verbose {
		t.SetColumnConfigs([]table.ColumnConfig{
			{Name: "Description", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
			{Name: "Remediation", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
		})
	}
	return t.Render()
}
