package checker

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/a11yscan/internal/cssrules"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// reflowViewport is the narrowest viewport content must reflow into.
const reflowViewport = 320

var absoluteLength = regexp.MustCompile(`^(\d+(?:\.\d+)?)(px|pt|cm|mm|in)$`)

// fixedLength reports whether v is an absolute length and returns it in px.
func fixedLength(v string) (float64, bool) {
	m := absoluteLength.FindStringSubmatch(strings.ToLower(strings.TrimSpace(v)))
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch m[2] {
	case "pt":
		n *= 96.0 / 72.0
	case "cm":
		n *= 96.0 / 2.54
	case "mm":
		n *= 96.0 / 25.4
	case "in":
		n *= 96.0
	}
	return n, true
}

func inlineStyle(s *goquery.Selection) cssrules.Declarations {
	return cssrules.ParseDeclarations(dom.Attr(s, "style", ""))
}

// clips reports whether the declarations hide overflowing content on any axis.
func clips(decls cssrules.Declarations) bool {
	for _, prop := range []string{"overflow", "overflow-x", "overflow-y"} {
		if v, ok := decls.Get(prop); ok {
			for _, word := range strings.Fields(strings.ToLower(v)) {
				if word == "hidden" || word == "clip" {
					return true
				}
			}
		}
	}
	return false
}

// fixedHeight returns the height declaration when it is an absolute length
// that no min-height lets grow.
func fixedHeight(decls cssrules.Declarations) (string, bool) {
	if _, ok := decls.Get("min-height"); ok {
		return "", false
	}
	v, ok := decls.Get("height")
	if !ok {
		return "", false
	}
	if _, fixed := fixedLength(v); !fixed {
		return "", false
	}
	return v, true
}

var (
	ruleSpacingCropped = &rule{
		title:       "Content may be cropped with text spacing adjustments",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.12",
		description: "The element hides overflowing content, so text may be cut off when users increase line, letter or word spacing.",
		remediation: "Remove overflow: hidden or let the container grow with its content.",
		impact:      "Users who override text spacing for readability lose part of the content.",
	}
	ruleSpacingFixedHeight = &rule{
		title:       "Fixed height detected, may crop text",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.12",
		description: "The element has a fixed height, so text may overflow or be cropped when text spacing is increased.",
		remediation: "Use min-height or relative units instead of a fixed height.",
		impact:      "Users who override text spacing may not be able to read the whole text.",
	}
)

type textSpacingCropping struct{ base }

func newTextSpacingCropping(o *Options) Checker {
	return &textSpacingCropping{newBase("text-spacing-cropping", FamilyLayout, PerElement, o)}
}

// Check implements Checker.
func (c *textSpacingCropping) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, s := range doc.FindByAttr("style", "p", "div", "span", "section", "article") {
		decls := inlineStyle(s)
		if clips(decls) {
			findings = append(findings, finding{rule: ruleSpacingCropped, sel: s})
		}
		if v, ok := fixedHeight(decls); ok {
			findings = append(findings, finding{
				rule:        ruleSpacingFixedHeight,
				sel:         s,
				description: fmt.Sprintf("The %s has a fixed height of %s and may crop text when spacing is increased.", dom.Tag(s), v),
			})
		}
	}

	for _, b := range cssrules.Blocks(doc) {
		selector := strings.Join(b.Selectors, ", ")
		if clips(b.Declarations) {
			findings = append(findings, finding{
				rule:        ruleSpacingCropped,
				description: fmt.Sprintf("The rule %q hides overflowing content, so text may be cut off when spacing is increased.", selector),
				extra:       map[string]any{"selector": selector},
			})
		}
		if v, ok := fixedHeight(b.Declarations); ok {
			findings = append(findings, finding{
				rule:        ruleSpacingFixedHeight,
				description: fmt.Sprintf("The rule %q sets a fixed height of %s and may crop text when spacing is increased.", selector, v),
				extra:       map[string]any{"selector": selector},
			})
		}
	}
	return c.report(doc, source, findings), nil
}

var (
	ruleMenuCropped = &rule{
		title:       "Menu text may be cropped with text spacing adjustments",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.12",
		description: "A menu item hides overflowing content, so its label may be cut off when text spacing is increased.",
		remediation: "Remove overflow: hidden from menu items and let them grow with their labels.",
		impact:      "Users who override text spacing cannot read the menu.",
	}
	ruleMenuNoWrap = &rule{
		title:       "Text does not wrap in the menu",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.12",
		description: "A menu item prevents wrapping, so longer spaced text overflows its container.",
		remediation: "Remove white-space: nowrap from menu items.",
		impact:      "Menu labels overlap or are hidden when text spacing is increased.",
	}
	ruleMenuMaxHeight = &rule{
		title:       "Menu items may be cut off",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.12",
		description: "A menu item has a fixed maximum height, so taller spaced text is cut off.",
		remediation: "Remove the pixel max-height or express it in em units.",
		impact:      "Users who override text spacing cannot read all menu items.",
	}
)

var menuClasses = []string{"menu", "navigation", "navbar", "nav-menu"}

type menuTextSpacing struct{ base }

func newMenuTextSpacing(o *Options) Checker {
	return &menuTextSpacing{newBase("menu-text-spacing", FamilyLayout, PerElement, o)}
}

// Check implements Checker. Items of nested menus are reported once.
func (c *menuTextSpacing) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	seen := make(map[*html.Node]bool)
	for _, menu := range doc.FindByClass(menuClasses, "nav", "ul", "div") {
		menu.Find("li, a, span, div").Each(func(_ int, item *goquery.Selection) {
			if seen[item.Nodes[0]] || !dom.HasAttr(item, "style") {
				return
			}
			seen[item.Nodes[0]] = true

			for _, r := range menuProblems(inlineStyle(item)) {
				findings = append(findings, finding{rule: r, sel: item})
			}
		})
	}

	for _, b := range cssrules.Blocks(doc) {
		if !targetsMenu(b.Selectors) {
			continue
		}
		selector := strings.Join(b.Selectors, ", ")
		for _, r := range menuProblems(b.Declarations) {
			findings = append(findings, finding{
				rule:        r,
				description: fmt.Sprintf("The rule %q styles menu items. %s", selector, r.description),
				extra:       map[string]any{"selector": selector},
			})
		}
	}
	return c.report(doc, source, findings), nil
}

// menuProblems returns the rules broken by the declarations of a menu item.
func menuProblems(decls cssrules.Declarations) []*rule {
	var broken []*rule
	if clips(decls) {
		broken = append(broken, ruleMenuCropped)
	}
	if v, ok := decls.Get("white-space"); ok && strings.EqualFold(v, "nowrap") {
		broken = append(broken, ruleMenuNoWrap)
	}
	if v, ok := decls.Get("max-height"); ok {
		if _, fixed := fixedLength(v); fixed {
			broken = append(broken, ruleMenuMaxHeight)
		}
	}
	return broken
}

// targetsMenu reports whether a selector list addresses a nav element or
// one of the menu classes.
func targetsMenu(selectors []string) bool {
	for _, sel := range selectors {
		compounds := strings.FieldsFunc(strings.ToLower(sel), func(r rune) bool {
			return strings.ContainsRune(" >+~:[]()", r)
		})
		for _, compound := range compounds {
			parts := strings.Split(compound, ".")
			if tag, _, _ := strings.Cut(parts[0], "#"); tag == "nav" {
				return true
			}
			for _, part := range parts[1:] {
				class, _, _ := strings.Cut(part, "#")
				if slices.Contains(menuClasses, class) {
					return true
				}
			}
		}
	}
	return false
}

// cutoffReasons lists the declarations that keep enlarged text from fitting.
func cutoffReasons(decls cssrules.Declarations) []string {
	var reasons []string
	if clips(decls) {
		reasons = append(reasons, "overflow hidden")
	}
	if v, ok := fixedHeight(decls); ok {
		reasons = append(reasons, "height: "+v)
	}
	if v, ok := decls.Get("max-height"); ok {
		if _, fixed := fixedLength(v); fixed {
			reasons = append(reasons, "max-height: "+v)
		}
	}
	return reasons
}

// Check implements Checker. Inline clipping styles follow the checker mode
// and style rules are reported one per rule. Truncation classes are always
// reported per element.
func (c *zoomTextCutoff) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var styled []finding
	for _, s := range doc.FindByAttr("style") {
		reasons := cutoffReasons(inlineStyle(s))
		if len(reasons) == 0 {
			continue
		}
		styled = append(styled, finding{
			rule:        ruleZoomCutoff,
			sel:         s,
			description: fmt.Sprintf("The %s declares %s.", dom.Tag(s), strings.Join(reasons, ", ")),
		})
	}
	for _, b := range cssrules.Blocks(doc) {
		reasons := cutoffReasons(b.Declarations)
		if len(reasons) == 0 {
			continue
		}
		selector := strings.Join(b.Selectors, ", ")
		styled = append(styled, finding{
			rule:        ruleZoomCutoff,
			description: fmt.Sprintf("The rule %q declares %s.", selector, strings.Join(reasons, ", ")),
			extra:       map[string]any{"selector": selector},
		})
	}

	var truncated []finding
	for _, s := range doc.FindByClass(truncationClasses) {
		truncated = append(truncated, finding{
			rule:        ruleTruncation,
			sel:         s,
			description: fmt.Sprintf("The %s %q uses a truncating class.", dom.Tag(s), dom.Snippet(s, 50)),
		})
	}

	perElement := c.base
	perElement.mode = PerElement
	return append(c.report(doc, source, styled), perElement.report(doc, source, truncated)...), nil
}

var (
	ruleFixedWidthInline = &rule{
		title:       "Fixed width elements detected (inline styles)",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityHigh,
		wcag:        "1.4.10",
		description: "The element is wider than a 320 CSS pixel viewport and has no max-width, forcing horizontal scrolling.",
		remediation: "Use relative widths or add max-width: 100%.",
		impact:      "Users on small screens or zoomed to 400% must scroll in two directions to read.",
	}
	ruleFixedWidthCSS = &rule{
		title:       "Fixed width detected in CSS",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityMedium,
		wcag:        "1.4.10",
		description: "A style rule sets a width wider than a 320 CSS pixel viewport without a max-width.",
		remediation: "Use relative widths, add max-width: 100%, or override the width in a narrow media query.",
		impact:      "Users on small screens or zoomed to 400% must scroll in two directions to read.",
	}
	ruleHorizontalScroll = &rule{
		title:       "Horizontal scrolling detected",
		category:    model.CategoryZoomReflow,
		severity:    model.SeverityMedium,
		wcag:        "1.4.10",
		description: "The element scrolls horizontally.",
		remediation: "Let the content wrap instead of scrolling, except for data tables, maps and similar two-dimensional content.",
		impact:      "Users who zoom must scroll horizontally to read each line.",
	}
)

type reflow320 struct{ base }

func newReflow320(o *Options) Checker {
	return &reflow320{newBase("reflow-320px", FamilyLayout, Aggregate, o)}
}

// tooWide reports the first width declaration that cannot fit the reflow
// viewport, unless a max-width caps it.
func tooWide(decls cssrules.Declarations) (string, bool) {
	if _, ok := decls.Get("max-width"); ok {
		return "", false
	}
	for _, prop := range []string{"width", "min-width"} {
		if v, ok := decls.Get(prop); ok {
			if px, fixed := fixedLength(v); fixed && px > reflowViewport {
				return prop + ": " + v, true
			}
		}
	}
	return "", false
}

// Check implements Checker.
//
// Inline widths follow the checker mode. Style rules have no element and
// are reported one per rule. Horizontal scrolling is reported per element,
// except on tables and pre blocks.
func (c *reflow320) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var inline, scrolling []finding
	for _, s := range doc.FindByAttr("style") {
		decls := inlineStyle(s)
		if width, ok := tooWide(decls); ok {
			inline = append(inline, finding{
				rule:        ruleFixedWidthInline,
				sel:         s,
				description: fmt.Sprintf("The %s declares %s without max-width.", dom.Tag(s), width),
			})
		}
		if v, ok := decls.Get("overflow-x"); ok && scrolls(v) {
			switch dom.Tag(s) {
			case "table", "pre", "code":
				continue
			}
			scrolling = append(scrolling, finding{rule: ruleHorizontalScroll, sel: s})
		}
	}

	var page []finding
	for _, b := range cssrules.Blocks(doc) {
		width, ok := tooWide(b.Declarations)
		if !ok {
			continue
		}
		selector := strings.Join(b.Selectors, ", ")
		page = append(page, finding{
			rule:        ruleFixedWidthCSS,
			description: fmt.Sprintf("The rule %q declares %s without max-width.", selector, width),
			extra:       map[string]any{"selector": selector},
		})
	}

	perElement := c.base
	perElement.mode = PerElement
	incidences := c.report(doc, source, inline)
	incidences = append(incidences, c.report(doc, source, page)...)
	return append(incidences, perElement.report(doc, source, scrolling)...), nil
}

func scrolls(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "auto", "scroll":
		return true
	}
	return false
}
