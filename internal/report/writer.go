package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/a11yscan/internal/model"
)

// Writer renders a run summary.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *model.Summary) (int, error)
}

// Format names a Writer implementation.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON}
}

// NewWriter returns the Writer for format writing to output.
func NewWriter(format string, output io.Writer) (Writer, error) {
	switch Format(strings.ToLower(strings.TrimSpace(format))) {
	case FormatText, "":
		return NewTextWriter(output), nil
	case FormatMarkdown, "md":
		return NewMarkdownWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// MultiWriter writes to multiple Writers in order.
// It stops at the first error.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to all configured Writers and returns the
// total bytes written.
func (m *MultiWriter) Write(summary *model.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates s to maxLen runes with an ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// location renders where an incidence points.
func location(inc model.Incidence) string {
	if key := inc.ElementKey(); key != "" {
		return key
	}
	return "-"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
