package checker

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/color"
	"github.com/nao1215/a11yscan/internal/cssrules"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// Colors assumed when nothing is declared.
const (
	defaultForeground       = "#000000"
	defaultBackground       = "#FFFFFF"
	defaultPlaceholderColor = "#757575"
)

// placeholderSelectors are the style-block selectors consulted for
// placeholder text color, most specific first.
var placeholderSelectors = []string{
	"input::placeholder",
	"textarea::placeholder",
	"::placeholder",
	"::-webkit-input-placeholder",
}

// contrastFinding builds a finding carrying the measured ratio.
func contrastFinding(r *rule, s *goquery.Selection, what string, fg, bg string, ratio, min float64) finding {
	return finding{
		rule: r,
		sel:  s,
		description: fmt.Sprintf("%s has a contrast ratio of %.2f:1 (%s on %s), below the %.1f:1 minimum.",
			what, ratio, fg, bg, min),
		extra: map[string]any{
			"contrast_ratio": ratio,
			"foreground":     fg,
			"background":     bg,
		},
	}
}

// ratio computes the contrast of fg on bg, logging values it cannot parse.
func (b base) ratio(fg, bg string) (float64, bool) {
	r, err := color.ContrastRatio(fg, bg)
	if err != nil {
		b.opts.Logger.Debug("skipping unparseable color", "checker", b.name, "foreground", fg, "background", bg, "error", err)
		return 0, false
	}
	return r, true
}

var ruleOnlyByColor = &rule{
	title:       "Multiple buttons/links identified only by use of color",
	category:    model.CategoryColorContrast,
	severity:    model.SeverityLow,
	wcag:        "1.4.1",
	description: "Buttons or links are distinguished from surrounding content only by their color, with no underline, border or background.",
	remediation: "Add a non-color cue such as text-decoration: underline on links, a border on buttons, or bold text.",
	impact:      "Users who do not perceive color differences may not notice that these elements are interactive.",
}

type buttonsOnlyByColor struct{ base }

func newButtonsOnlyByColor(o *Options) Checker {
	return &buttonsOnlyByColor{newBase("buttons-only-by-color", FamilyContrast, Aggregate, o)}
}

// Check implements Checker. Only elements whose inline style sets a color
// are candidates; unstyled links keep the browser underline.
func (c *buttonsOnlyByColor) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, s := range doc.FindAll("button", "a") {
		decls := cssrules.ParseDeclarations(dom.Attr(s, "style", ""))
		fg, ok := decls.Get("color")
		if !ok || hasNonColorCue(decls) {
			continue
		}
		findings = append(findings, finding{
			rule:        ruleOnlyByColor,
			sel:         s,
			description: fmt.Sprintf("The %s %q is styled with color %s and no other visual cue.", dom.Tag(s), dom.Snippet(s, 50), fg),
		})
	}
	return c.report(doc, source, findings), nil
}

func hasNonColorCue(decls cssrules.Declarations) bool {
	if v, ok := decls.Get("text-decoration"); ok && strings.Contains(strings.ToLower(v), "underline") {
		return true
	}
	if v, ok := decls.Get("text-decoration-line"); ok && strings.Contains(strings.ToLower(v), "underline") {
		return true
	}
	for _, d := range decls {
		if strings.HasPrefix(d.Property, "border") && !isNone(d.Value) {
			return true
		}
	}
	if _, ok := decls.Background(); ok {
		return true
	}
	if v, ok := decls.Get("font-weight"); ok {
		if strings.EqualFold(v, "bold") || strings.EqualFold(v, "bolder") {
			return true
		}
		if n, err := strconv.Atoi(v); err == nil && n >= 600 {
			return true
		}
	}
	return false
}

func isNone(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none", "0", "0px", "hidden":
		return true
	}
	return false
}

var rulePlaceholderContrast = &rule{
	title:       "Grey placeholder fails contrast on white background",
	category:    model.CategoryColorContrast,
	severity:    model.SeverityHigh,
	wcag:        "1.4.3",
	description: "The placeholder text does not reach the 4.5:1 contrast required for normal text.",
	remediation: "Use a darker placeholder color or a different background, e.g. color: #757575 instead of #BFCAD1.",
	impact:      "Users with low vision cannot read the placeholder text.",
}

type placeholderContrast struct{ base }

func newPlaceholderContrast(o *Options) Checker {
	return &placeholderContrast{newBase("placeholder-contrast", FamilyContrast, PerElement, o)}
}

// Check implements Checker.
//
// The placeholder color comes from a ::placeholder rule, then the field's
// inline color, then the common browser default. The background comes from
// the inline style, then an "input"/"textarea" rule, then white.
func (c *placeholderContrast) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	fields := doc.FindByAttr("placeholder", "input", "textarea")
	if len(fields) == 0 {
		return nil, nil
	}
	rules := cssrules.ExtractDocument(doc)

	var findings []finding
	for _, s := range fields {
		decls := cssrules.ParseDeclarations(dom.Attr(s, "style", ""))

		fg := ""
		for _, sel := range placeholderSelectors {
			if r, ok := rules[sel]; ok && r.Color != "" {
				fg = r.Color
				break
			}
		}
		if fg == "" {
			fg, _ = decls.Color()
		}
		if fg == "" {
			fg = defaultPlaceholderColor
		}

		bg, ok := decls.Background()
		if !ok {
			bg = rules[dom.Tag(s)].BackgroundOr(defaultBackground)
		}

		ratio, ok := c.ratio(fg, bg)
		if !ok || ratio >= c.opts.TextContrast {
			continue
		}
		what := fmt.Sprintf("The placeholder %q", dom.Attr(s, "placeholder", ""))
		findings = append(findings, contrastFinding(rulePlaceholderContrast, s, what, fg, bg, ratio, c.opts.TextContrast))
	}
	return c.report(doc, source, findings), nil
}

var ruleDropdownContrast = &rule{
	title:       "Dropdown selected value fails contrast once expanded",
	category:    model.CategoryColorContrast,
	severity:    model.SeverityHigh,
	wcag:        "1.4.3",
	description: "The selected option of a dropdown does not reach the 4.5:1 contrast required for normal text.",
	remediation: "Use a darker text color or a different background, e.g. color: #2C3E50 instead of #BAC7CB.",
	impact:      "Users with low vision cannot read the selected option.",
}

type dropdownContrast struct{ base }

func newDropdownContrast(o *Options) Checker {
	return &dropdownContrast{newBase("dropdown-contrast", FamilyContrast, PerElement, o)}
}

// Check implements Checker. The selected option, or the first option when
// none is selected, is measured with its inline colors over black on white.
func (c *dropdownContrast) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, sel := range doc.FindAll("select") {
		option := sel.Find("option[selected]").First()
		if option.Length() == 0 {
			option = sel.Find("option").First()
		}
		if option.Length() == 0 {
			continue
		}

		decls := cssrules.ParseDeclarations(dom.Attr(option, "style", ""))
		fg, ok := decls.Color()
		if !ok {
			fg = defaultForeground
		}
		bg, ok := decls.Background()
		if !ok {
			bg = defaultBackground
		}

		ratio, ok := c.ratio(fg, bg)
		if !ok || ratio >= c.opts.TextContrast {
			continue
		}
		findings = append(findings, contrastFinding(ruleDropdownContrast, option, "The selected option", fg, bg, ratio, c.opts.TextContrast))
	}
	return c.report(doc, source, findings), nil
}

var ruleDropdownFocusContrast = &rule{
	title:       "Dropdown selected/hovered option fails color contrast requirements",
	category:    model.CategoryColorContrast,
	severity:    model.SeverityHigh,
	wcag:        "1.4.11",
	description: "An option in an active state does not reach the 3:1 contrast required for state indicators.",
	remediation: "Use a darker background or a lighter text color for the active state, e.g. background-color: #939393.",
	impact:      "Users with low vision may not notice which option is selected or focused.",
}

// optionStates are the pseudo-state selectors measured when a style block
// declares them.
var optionStates = []string{"option:hover", "option:focus", "option:checked"}

type dropdownFocusContrast struct{ base }

func newDropdownFocusContrast(o *Options) Checker {
	return &dropdownFocusContrast{newBase("dropdown-focus-contrast", FamilyContrast, PerElement, o)}
}

// Check implements Checker.
//
// Options with the selected attribute are measured against the
// "option[selected]" style rule. Hover, focus and checked states are
// measured once per dropdown, only when a rule for them exists.
func (c *dropdownFocusContrast) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	selects := doc.FindAll("select")
	if len(selects) == 0 {
		return nil, nil
	}
	rules := cssrules.ExtractDocument(doc)

	var findings []finding
	measure := func(s *goquery.Selection, state string, colors cssrules.Colors) {
		fg := colors.ColorOr(defaultForeground)
		bg := colors.BackgroundOr(defaultBackground)
		ratio, ok := c.ratio(fg, bg)
		if !ok || ratio >= c.opts.UIContrast {
			return
		}
		what := fmt.Sprintf("The option (state %s)", state)
		f := contrastFinding(ruleDropdownFocusContrast, s, what, fg, bg, ratio, c.opts.UIContrast)
		f.extra["state"] = state
		findings = append(findings, f)
	}

	for _, sel := range selects {
		sel.Find("option[selected]").Each(func(_ int, option *goquery.Selection) {
			colors, _ := rules.Lookup("option[selected]")
			measure(option, "selected", colors)
		})
		for _, state := range optionStates {
			if colors, ok := rules.Lookup(state); ok {
				measure(sel, strings.TrimPrefix(state, "option:"), colors)
			}
		}
	}
	return c.report(doc, source, findings), nil
}
