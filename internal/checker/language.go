package checker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/langid"
	"github.com/nao1215/a11yscan/internal/model"
)

var ruleLanguageMismatch = &rule{
	title:       "Page language mismatch",
	category:    model.CategoryOther,
	severity:    model.SeverityHigh,
	wcag:        "3.1.1",
	description: "A large share of the visible text is in a language other than the one declared in <html lang>.",
	remediation: "Declare the main language of the content in <html lang>, and mark passages in other languages with their own lang attribute.",
	impact:      "Screen readers may pronounce the content with the wrong voice and rules.",
}

type pageTitleLanguage struct{ base }

func newPageTitleLanguage(o *Options) Checker {
	return &pageTitleLanguage{newBase("page-title-language", FamilyLanguage, PerElement, o)}
}

// Check implements Checker.
//
// Every visible text fragment of at least MinFragmentLength characters is
// classified; fragments above LanguageConfidence are counted. A finding is
// raised when the share of counted fragments not in the declared language
// exceeds LanguageMismatchThreshold.
func (c *pageTitleLanguage) Check(ctx context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	declared := doc.Lang()
	if declared == "" || c.opts.Language == nil {
		return nil, nil
	}
	expected := langid.Base(declared)

	var findings []finding
	counts := make(map[string]int)
	total := 0
	for _, text := range doc.VisibleTextFragments() {
		if cancelled(ctx) {
			return c.report(doc, source, findings), ctx.Err()
		}
		if utf8.RuneCountInString(text) < c.opts.MinFragmentLength {
			continue
		}
		got, err := c.classify(ctx, text)
		if err != nil {
			findings = append(findings, toolingFailure("Language classification", fmt.Sprintf("%q", truncate(text, 40)), err, nil))
			continue
		}
		if got.confidence > c.opts.LanguageConfidence {
			counts[langid.Base(got.lang)]++
			total++
		}
	}
	if total == 0 {
		return c.report(doc, source, findings), nil
	}

	mismatch := float64(total-counts[expected]) / float64(total)
	if mismatch > c.opts.LanguageMismatchThreshold {
		findings = append(findings, finding{
			rule: ruleLanguageMismatch,
			description: fmt.Sprintf("%.1f%% of the visible text is in a language other than %q declared in <html lang>. Detected languages: %s.",
				mismatch*100, expected, formatCounts(counts)),
			extra: map[string]any{
				"declared_language": expected,
				"mismatch_ratio":    mismatch,
				"detected":          counts,
			},
		})
	}
	return c.report(doc, source, findings), nil
}

// formatCounts renders {"es": 9, "en": 1} as "es=9, en=1", largest first.
func formatCounts(counts map[string]int) string {
	langs := make([]string, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})
	parts := make([]string, 0, len(langs))
	for _, l := range langs {
		parts = append(parts, fmt.Sprintf("%s=%d", l, counts[l]))
	}
	return strings.Join(parts, ", ")
}

// truncate shortens s to n runes, marking the cut with "...".
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
