package checker

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// rule is the fixed text of one kind of finding.
type rule struct {
	title       string
	category    model.Category
	severity    model.Severity
	wcag        string
	description string
	remediation string
	impact      string
}

// finding is one occurrence of a rule. sel is nil for page-level findings.
// description, when set, replaces the rule description for this occurrence.
type finding struct {
	rule        *rule
	sel         *goquery.Selection
	description string
	extra       map[string]any
}

// base carries what every checker shares.
type base struct {
	name   string
	family Family
	mode   ReportMode
	opts   *Options
}

func newBase(name string, family Family, def ReportMode, opts *Options) base {
	return base{
		name:   name,
		family: family,
		mode:   opts.modeFor(family, def),
		opts:   opts,
	}
}

// Name returns the registry name.
func (b base) Name() string {
	return b.name
}

// Family returns the checker family.
func (b base) Family() Family {
	return b.family
}

// report turns findings into incidences according to the checker's mode.
// Tooling failures and page-level findings are always emitted one by one.
func (b base) report(doc *dom.Document, source string, findings []finding) []model.Incidence {
	incidences := make([]model.Incidence, 0, len(findings))

	if b.mode == PerElement {
		for _, f := range findings {
			inc := b.incidence(f.rule, source, f.description, f.extra)
			if f.sel != nil {
				info := doc.ElementInfo(f.sel)
				inc.Element = &info
			}
			incidences = append(incidences, inc)
		}
		return incidences
	}

	groups := make(map[string]int)
	for _, f := range findings {
		if f.sel == nil || f.rule.category == model.CategoryTestExecution {
			inc := b.incidence(f.rule, source, f.description, f.extra)
			if f.sel != nil {
				info := doc.ElementInfo(f.sel)
				inc.Element = &info
			}
			incidences = append(incidences, inc)
			continue
		}

		idx, ok := groups[f.rule.title]
		if !ok {
			idx = len(incidences)
			groups[f.rule.title] = idx
			incidences = append(incidences, b.incidence(f.rule, source, "", nil))
		}
		inc := &incidences[idx]
		inc.AffectedElements = append(inc.AffectedElements, doc.ElementInfo(f.sel))
		if f.description != "" {
			details, _ := inc.Extra["details"].([]string)
			b.setExtra(inc, "details", append(details, f.description))
		}
		for k, v := range f.extra {
			b.mergeExtra(inc, k, v)
		}
	}

	for i := range incidences {
		if n := len(incidences[i].AffectedElements); n > 1 {
			incidences[i].Description = fmt.Sprintf("%s (%d elements)", incidences[i].Description, n)
		}
	}
	return incidences
}

func (b base) setExtra(inc *model.Incidence, key string, value any) {
	if inc.Extra == nil {
		inc.Extra = make(map[string]any)
	}
	inc.Extra[key] = value
}

// mergeExtra sets key, merging map values so that aggregated findings keep
// every entry.
func (b base) mergeExtra(inc *model.Incidence, key string, value any) {
	if add, ok := value.(map[string]any); ok {
		if cur, ok := inc.Extra[key].(map[string]any); ok {
			for k, v := range add {
				cur[k] = v
			}
			return
		}
		merged := make(map[string]any, len(add))
		for k, v := range add {
			merged[k] = v
		}
		value = merged
	}
	b.setExtra(inc, key, value)
}

func (b base) incidence(r *rule, source, description string, extra map[string]any) model.Incidence {
	if description == "" {
		description = r.description
	}
	inc := model.Incidence{
		Title:       r.title,
		Category:    r.category,
		Severity:    r.severity,
		Description: description,
		Remediation: r.remediation,
		WCAG:        model.WCAGRef(r.wcag),
		Impact:      r.impact,
		Source:      source,
		Checker:     b.name,
	}
	if r.wcag != "" {
		inc.ResolutionPointer = model.ResolutionGuide(r.wcag)
	}
	if len(extra) > 0 {
		inc.Extra = make(map[string]any, len(extra))
		for k, v := range extra {
			inc.Extra[k] = v
		}
	}
	return inc
}

// toolingFailure describes a capability call that failed or timed out.
func toolingFailure(capability, subject string, err error, sel *goquery.Selection) finding {
	return finding{
		rule: &rule{
			title:       capability + " failed",
			category:    model.CategoryTestExecution,
			severity:    model.SeverityMedium,
			remediation: "Check that the " + capability + " backend is installed and reachable, then rerun the scan.",
			impact:      "The check could not be completed for this element.",
		},
		sel:         sel,
		description: fmt.Sprintf("%s failed for %s: %v", capability, subject, err),
	}
}

// bounded runs fn with the per-call timeout. A panic inside fn is returned
// as an error. If fn ignores its context the call is abandoned at the
// deadline and its result discarded.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// similarity scores a and b through the configured scorer.
func (b base) similarity(ctx context.Context, a, c string) (float64, error) {
	return bounded(ctx, b.opts.CallTimeout, func(ctx context.Context) (float64, error) {
		return b.opts.Similarity.Similarity(ctx, a, c)
	})
}

type classification struct {
	lang       string
	confidence float64
}

// classify identifies the language of text through the configured classifier.
func (b base) classify(ctx context.Context, text string) (classification, error) {
	return bounded(ctx, b.opts.CallTimeout, func(ctx context.Context) (classification, error) {
		lang, conf, err := b.opts.Language.Classify(ctx, text)
		return classification{lang: lang, confidence: conf}, err
	})
}

// extractText reads the text of a local image through the configured extractor.
func (b base) extractText(ctx context.Context, path string) (string, error) {
	return bounded(ctx, b.opts.CallTimeout, func(ctx context.Context) (string, error) {
		return b.opts.TextExtractor.Extract(ctx, path)
	})
}

// cancelled reports whether ctx is done, for use at loop heads.
func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
