package checker

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	t.Run("registers every built-in checker in order", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry()
		if reg.Len() != 32 {
			t.Fatalf("Len() = %d, want 32", reg.Len())
		}
		names := reg.Names()
		if names[0] != "aria-label-in-div" || names[31] != "images-of-text" {
			t.Errorf("first/last = %q/%q", names[0], names[31])
		}
		seen := make(map[string]bool)
		for _, n := range names {
			if seen[n] {
				t.Errorf("duplicate checker name %q", n)
			}
			seen[n] = true
		}
	})

	t.Run("every checker belongs to a known family", func(t *testing.T) {
		t.Parallel()

		for _, c := range NewRegistry().Checkers() {
			if !slices.Contains(Families(), c.Family()) {
				t.Errorf("%s has unknown family %q", c.Name(), c.Family())
			}
		}
	})

	t.Run("fills defaults left unset by options", func(t *testing.T) {
		t.Parallel()

		reg := NewRegistry(func(o *Options) {
			o.Logger = nil
			o.CallTimeout = 0
		})
		if reg.Options().Logger == nil {
			t.Error("Logger should default to slog.Default()")
		}
		if reg.Options().CallTimeout != DefaultCallTimeout {
			t.Errorf("CallTimeout = %v, want %v", reg.Options().CallTimeout, DefaultCallTimeout)
		}
	})
}

func TestRegistrySelection(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()

	t.Run("Without drops the named checkers", func(t *testing.T) {
		t.Parallel()

		got := reg.Without("focus-order", "no-such-checker")
		if got.Len() != 31 {
			t.Errorf("Len() = %d, want 31", got.Len())
		}
		if _, ok := got.Lookup("focus-order"); ok {
			t.Error("focus-order should be removed")
		}
		if reg.Len() != 32 {
			t.Error("Without must not modify the original registry")
		}
	})

	t.Run("Only keeps registry order", func(t *testing.T) {
		t.Parallel()

		got := reg.Only("images-of-text", "aria-label-in-div").Names()
		want := []string{"aria-label-in-div", "images-of-text"}
		if !slices.Equal(got, want) {
			t.Errorf("Names() = %v, want %v", got, want)
		}
	})

	t.Run("Lookup finds by name", func(t *testing.T) {
		t.Parallel()

		c, ok := reg.Lookup("dropdown-contrast")
		if !ok || c.Family() != FamilyContrast {
			t.Errorf("Lookup() = %v, %v", c, ok)
		}
	})

	t.Run("empty registry has no checkers", func(t *testing.T) {
		t.Parallel()

		if NewEmptyRegistry().Len() != 0 {
			t.Error("NewEmptyRegistry() should be empty")
		}
	})
}

func TestParseReportMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ReportMode
		ok   bool
	}{
		{"aggregate", Aggregate, true},
		{"per-element", PerElement, true},
		{"per_element", PerElement, true},
		{"grouped", PerElement, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseReportMode(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseReportMode(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
	if Aggregate.String() != "aggregate" || PerElement.String() != "per-element" {
		t.Error("String() does not round-trip")
	}
}

func TestReportModes(t *testing.T) {
	t.Parallel()

	const markup = `<p>
<a href="/a" style="color: #d00">Terms</a>
<a href="/b" style="color: #d00">Privacy</a>
<a href="/c" style="color: #d00; text-decoration: underline">Help</a>
</p>`

	t.Run("aggregate lists every element in one incidence", func(t *testing.T) {
		t.Parallel()

		got := check(t, "buttons-only-by-color", markup)
		if len(got) != 1 {
			t.Fatalf("got %d incidences, want 1: %v", len(got), titles(got))
		}
		inc := got[0]
		if len(inc.AffectedElements) != 2 || inc.Element != nil {
			t.Errorf("AffectedElements = %v, Element = %v", inc.AffectedElements, inc.Element)
		}
		if !strings.HasSuffix(inc.Description, "(2 elements)") {
			t.Errorf("Description = %q, want element count suffix", inc.Description)
		}
		details, _ := inc.Extra["details"].([]string)
		if len(details) != 2 {
			t.Errorf("details = %v, want one per element", inc.Extra["details"])
		}
	})

	t.Run("per-element emits one incidence per element", func(t *testing.T) {
		t.Parallel()

		got := check(t, "buttons-only-by-color", markup, WithReportMode(FamilyContrast, PerElement))
		if len(got) != 2 {
			t.Fatalf("got %d incidences, want 2", len(got))
		}
		for _, inc := range got {
			if inc.Element == nil || inc.Element.Tag != "a" || len(inc.AffectedElements) != 0 {
				t.Errorf("incidence = %+v, want a single <a> element", inc)
			}
		}
	})
}

func TestNoFindingsOnCleanPages(t *testing.T) {
	t.Parallel()

	const accessible = `<!DOCTYPE html>
<html lang="en">
<head><title>Contact - Example</title></head>
<body>
<h1>Contact us</h1>
<p>We answer every message within two working days.</p>
<form action="/send">
<label for="email">Email</label>
<input id="email" type="email" name="email">
<button type="submit">Send</button>
</form>
<img src="team.png" alt="Our support team at the Berlin office">
</body>
</html>`

	pages := map[string]string{
		"empty":      "",
		"blank body": `<html lang="en"><head><title>Example</title></head><body></body></html>`,
		"accessible": accessible,
	}
	for name, markup := range pages {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			reg := NewRegistry(
				WithImagesDir(t.TempDir()),
				withClassifier(fakeClassifier{}),
				withSimilarity(fakeScorer{}),
			)
			doc := dom.Parse("https://www.example.com/contact", markup)
			for _, c := range reg.Checkers() {
				got, err := c.Check(context.Background(), doc, doc.Source())
				if err != nil {
					t.Errorf("%s: error = %v", c.Name(), err)
				}
				if len(got) != 0 {
					t.Errorf("%s reported %v on a clean page", c.Name(), titles(got))
				}
			}
		})
	}
}

func TestCheckersTolerateMalformedMarkup(t *testing.T) {
	t.Parallel()

	inputs := []string{
		`<div><p>unclosed <img src=x.png alt><ul><div>`,
		`<select><option style="color:">`,
		`<style>{{{ } } width: }</style><div style=";;;:">`,
		`<svg><title></svg><hr><table role=presentation><th>`,
	}
	reg := NewRegistry(WithImagesDir(t.TempDir()), withClassifier(fakeClassifier{}))
	for _, markup := range inputs {
		doc := dom.Parse("page.html", markup)
		for _, c := range reg.Checkers() {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("%s panicked on %q: %v", c.Name(), markup, r)
					}
				}()
				if _, err := c.Check(context.Background(), doc, "page.html"); err != nil {
					t.Errorf("%s: error = %v", c.Name(), err)
				}
			}()
		}
	}
}

func TestIncidenceFields(t *testing.T) {
	t.Parallel()

	got := check(t, "focus-order", `<button tabindex="3">Go</button>`)
	if len(got) != 1 {
		t.Fatalf("got %d incidences, want 1", len(got))
	}
	inc := got[0]
	if inc.Criterion() != "2.4.3" || inc.ResolutionPointer == "" {
		t.Errorf("WCAG = %q, ResolutionPointer = %q", inc.Criterion(), inc.ResolutionPointer)
	}
	if inc.Remediation == "" || inc.Impact == "" {
		t.Error("remediation and impact must be set")
	}
	if inc.Element == nil || inc.Element.Tag != "button" || inc.Element.Line != 1 {
		t.Errorf("Element = %+v", inc.Element)
	}
	if inc.Severity != model.SeverityHigh {
		t.Errorf("Severity = %v, want High", inc.Severity)
	}
}
