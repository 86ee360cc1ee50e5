package checker

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/cssrules"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// nativeInteractive are the elements that are focusable without tabindex.
var nativeInteractive = map[string]bool{
	"a":        true,
	"button":   true,
	"input":    true,
	"textarea": true,
	"select":   true,
}

// interactiveRoles are ARIA roles that make an element a control.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "checkbox": true, "radio": true, "tab": true,
	"menuitem": true, "menuitemcheckbox": true, "menuitemradio": true,
	"option": true, "switch": true, "slider": true, "combobox": true,
	"textbox": true, "searchbox": true, "spinbutton": true, "treeitem": true,
}

// tabIndex returns the parsed tabindex and whether it is present and numeric.
func tabIndex(s *goquery.Selection) (int, bool) {
	v, ok := s.Attr("tabindex")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return n, true
}

// focusable reports whether an element takes part in sequential focus.
func focusable(s *goquery.Selection) bool {
	if n, ok := tabIndex(s); ok {
		return n >= 0
	}
	if dom.Tag(s) == "a" {
		return dom.HasAttr(s, "href")
	}
	return nativeInteractive[dom.Tag(s)]
}

var (
	rulePositiveTabindex = &rule{
		title:       "Tabindex greater than 0",
		category:    model.CategoryFocusOrder,
		severity:    model.SeverityHigh,
		wcag:        "2.4.3",
		description: "A positive tabindex moves the element ahead of the natural focus order.",
		remediation: "Remove positive tabindex values and order the DOM so that the natural order is logical.",
		impact:      "Keyboard focus jumps unpredictably around the page.",
	}
	ruleNegativeTabindexNative = &rule{
		title:       "Interactive element with tabindex=-1",
		category:    model.CategoryFocusOrder,
		severity:    model.SeverityMedium,
		wcag:        "2.4.3",
		description: "A natively interactive element has tabindex=\"-1\" and cannot be reached with Tab.",
		remediation: "Remove tabindex=\"-1\" from interactive elements unless focus is managed by script.",
		impact:      "Keyboard users cannot reach this element.",
	}
	ruleAnchorNoHref = &rule{
		title:       "Link without href or tabindex",
		category:    model.CategoryFocusOrder,
		severity:    model.SeverityMedium,
		wcag:        "2.4.3",
		description: "An <a> element has neither href nor tabindex and cannot receive keyboard focus.",
		remediation: "Add an href, or tabindex=\"0\" with keyboard handlers, or use a <button>.",
		impact:      "Keyboard users cannot reach the link.",
	}
	ruleClosedDialog = &rule{
		title:       "Dialog without open attribute",
		category:    model.CategoryFocusOrder,
		severity:    model.SeverityLow,
		wcag:        "2.4.3",
		description: "A <dialog> has no open attribute. If it is shown by script, focus must be moved into it and returned afterwards.",
		remediation: "Open dialogs with showModal() or the open attribute and manage focus when they appear and close.",
		impact:      "Users may not notice the dialog is active when focus stays behind it.",
	}
)

type focusOrder struct{ base }

func newFocusOrder(o *Options) Checker {
	return &focusOrder{newBase("focus-order", FamilyFocus, PerElement, o)}
}

// Check implements Checker.
func (c *focusOrder) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding

	for _, s := range doc.FindByAttr("tabindex") {
		n, ok := tabIndex(s)
		if !ok {
			continue
		}
		if n > 0 {
			findings = append(findings, finding{
				rule:        rulePositiveTabindex,
				sel:         s,
				description: fmt.Sprintf("The element has tabindex=%d, which moves it ahead of the natural focus order.", n),
			})
		}
		if n == -1 && nativeInteractive[dom.Tag(s)] {
			findings = append(findings, finding{rule: ruleNegativeTabindexNative, sel: s})
		}
	}

	for _, a := range doc.FindAll("a") {
		if !dom.HasAttr(a, "href") && !dom.HasAttr(a, "tabindex") {
			findings = append(findings, finding{rule: ruleAnchorNoHref, sel: a})
		}
	}

	for _, d := range doc.FindAll("dialog") {
		if !dom.HasAttr(d, "open") {
			findings = append(findings, finding{rule: ruleClosedDialog, sel: d})
		}
	}

	return c.report(doc, source, findings), nil
}

var (
	ruleFocusIndicatorRemoved = &rule{
		title:       "Focus indicator removed",
		category:    model.CategoryFocusVisible,
		severity:    model.SeverityHigh,
		wcag:        "2.4.7",
		description: "An inline style removes the outline or border that shows keyboard focus.",
		remediation: "Keep a visible focus style, e.g. a :focus-visible outline with sufficient contrast.",
		impact:      "Keyboard users cannot see which element has focus.",
	}
	ruleClickableNotFocusable = &rule{
		title:       "Interactive element without tabindex",
		category:    model.CategoryFocusVisible,
		severity:    model.SeverityMedium,
		wcag:        "2.4.7",
		description: "A div or span acts as a control (onclick handler or interactive role) but has no tabindex.",
		remediation: "Add tabindex=\"0\" and keyboard handlers, or use a native <button>.",
		impact:      "Keyboard users cannot focus the control.",
	}
	ruleScriptedNotFocusable = &rule{
		title:       "Element with tabindex=-1",
		category:    model.CategoryFocusVisible,
		severity:    model.SeverityMedium,
		wcag:        "2.4.7",
		description: "A scripted control has tabindex=\"-1\" and never receives keyboard focus.",
		remediation: "Use tabindex=\"0\" unless an accessible alternative is provided.",
		impact:      "The control is unreachable with the keyboard.",
	}
	ruleHiddenOnFocus = &rule{
		title:       "Element hidden when focused",
		category:    model.CategoryFocusVisible,
		severity:    model.SeverityHigh,
		wcag:        "2.4.7",
		description: "A focusable element is hidden with display:none or visibility:hidden.",
		remediation: "Keep focusable elements visible, or remove them from the focus order while they are hidden.",
		impact:      "Focus lands on an invisible element and users lose their place.",
	}
)

type focusVisible struct{ base }

func newFocusVisible(o *Options) Checker {
	return &focusVisible{newBase("focus-visible", FamilyFocus, PerElement, o)}
}

// Check implements Checker.
func (c *focusVisible) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding

	for _, s := range doc.FindAll("a", "button", "input", "select", "textarea", "iframe", "div", "span") {
		decls := cssrules.ParseDeclarations(dom.Attr(s, "style", ""))
		tag := dom.Tag(s)
		generic := tag == "div" || tag == "span"
		scripted := generic && (dom.HasAttr(s, "onclick") || interactiveRoles[dom.AttrLower(s, "role")])

		if prop, value, ok := removesFocusIndicator(decls); ok && (focusable(s) || scripted) {
			findings = append(findings, finding{
				rule:        ruleFocusIndicatorRemoved,
				sel:         s,
				description: fmt.Sprintf("The inline style sets %s: %s, which hides the focus indicator.", prop, value),
			})
		}

		if scripted {
			n, ok := tabIndex(s)
			switch {
			case !dom.HasAttr(s, "tabindex"):
				findings = append(findings, finding{rule: ruleClickableNotFocusable, sel: s})
			case ok && n == -1:
				findings = append(findings, finding{rule: ruleScriptedNotFocusable, sel: s})
			}
		}

		if (focusable(s) || scripted) && hiddenInline(s) {
			findings = append(findings, finding{rule: ruleHiddenOnFocus, sel: s})
		}
	}

	return c.report(doc, source, findings), nil
}

// removesFocusIndicator reports the declaration that hides the focus ring.
func removesFocusIndicator(decls cssrules.Declarations) (string, string, bool) {
	for _, prop := range []string{"outline", "outline-style", "border"} {
		v, ok := decls.Get(prop)
		if !ok {
			continue
		}
		switch strings.ToLower(v) {
		case "none", "0", "0px":
			return prop, v, true
		}
	}
	return "", "", false
}

var (
	ruleMouseOnly = &rule{
		title:       "Mouse event without keyboard support",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityHigh,
		wcag:        "2.1.1",
		description: "An element reacts to mouse events but has no keyboard equivalent.",
		remediation: "Add keyboard handlers (onkeydown, onfocus) and make the element focusable, or use a native control.",
		impact:      "Users without a mouse cannot operate the element.",
	}
	ruleScriptClick = &rule{
		title:       "Click handler without keydown",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityHigh,
		wcag:        "2.1.1",
		description: "An inline script registers addEventListener('click', ...) without any keydown handler.",
		remediation: "Register a keydown handler alongside the click handler, or attach it to a native button.",
		impact:      "Keyboard users cannot trigger the function.",
	}
	ruleScriptMouseover = &rule{
		title:       "Mouseover handler without focus",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityMedium,
		wcag:        "2.1.1",
		description: "An inline script registers addEventListener('mouseover', ...) without any focus handler.",
		remediation: "Register a focus handler that reveals the same content.",
		impact:      "Users without a mouse cannot reach the revealed content.",
	}
	ruleScriptMouseenter = &rule{
		title:       "Mouseenter handler without focus",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityMedium,
		wcag:        "2.1.1",
		description: "An inline script registers addEventListener('mouseenter', ...) without any focus handler.",
		remediation: "Register a focus handler that reveals the same content.",
		impact:      "Users without a mouse cannot reach the revealed content.",
	}
	ruleScriptHidden = &rule{
		title:       "Element hidden without aria-hidden",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityLow,
		wcag:        "2.1.1",
		description: "An inline script sets style.display = 'none' and never touches aria-hidden.",
		remediation: "Call element.setAttribute('aria-hidden', 'true') when hiding content.",
		impact:      "Screen reader users are not told that content disappeared.",
	}
	ruleDataEventMouseover = &rule{
		title:       "data-event mouseover without onfocus",
		category:    model.CategoryKeyboard,
		severity:    model.SeverityMedium,
		wcag:        "2.1.1",
		description: "An element declares data-event=\"mouseover\" but has no onfocus handler.",
		remediation: "Add an onfocus handler so the behaviour can be triggered from the keyboard.",
		impact:      "Users without a mouse cannot trigger the event.",
	}
)

var scriptPatterns = []struct {
	pattern *regexp.Regexp
	unless  string
	rule    *rule
}{
	{regexp.MustCompile(`\.addEventListener\s*\(\s*["']click["']`), "keydown", ruleScriptClick},
	{regexp.MustCompile(`\.addEventListener\s*\(\s*["']mouseover["']`), "focus", ruleScriptMouseover},
	{regexp.MustCompile(`\.addEventListener\s*\(\s*["']mouseenter["']`), "focus", ruleScriptMouseenter},
	{regexp.MustCompile(`\.style\.display\s*=\s*["']none["']`), "aria-hidden", ruleScriptHidden},
}

type keyboardAccessibility struct{ base }

func newKeyboardAccessibility(o *Options) Checker {
	return &keyboardAccessibility{newBase("keyboard-accessibility", FamilyFocus, PerElement, o)}
}

// Check implements Checker.
func (c *keyboardAccessibility) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding

	mouse := doc.FindFunc(func(s *goquery.Selection) bool {
		return dom.HasAttr(s, "onclick") || dom.HasAttr(s, "onmouseover") || dom.HasAttr(s, "onmouseenter")
	})
	for _, s := range mouse {
		missing := missingKeyboardSupport(s)
		if len(missing) == 0 {
			continue
		}
		findings = append(findings, finding{
			rule: ruleMouseOnly,
			sel:  s,
			description: fmt.Sprintf("The element has %s but lacks %s.",
				strings.Join(eventAttrs(s), ", "), strings.Join(missing, ", ")),
			extra: map[string]any{"missing": missing},
		})
	}

	for _, script := range doc.FindAll("script") {
		body := script.Text()
		if strings.TrimSpace(body) == "" {
			continue
		}
		for _, p := range scriptPatterns {
			if p.pattern.MatchString(body) && !strings.Contains(body, p.unless) {
				findings = append(findings, finding{rule: p.rule, sel: script})
			}
		}
	}

	for _, s := range doc.FindByAttrValue("data-event", "mouseover") {
		if !dom.HasAttr(s, "onfocus") {
			findings = append(findings, finding{rule: ruleDataEventMouseover, sel: s})
		}
	}

	return c.report(doc, source, findings), nil
}

// missingKeyboardSupport lists what an element with mouse handlers lacks.
// Native controls fire click on Enter/Space, so onclick alone is fine there.
func missingKeyboardSupport(s *goquery.Selection) []string {
	var missing []string
	tag := dom.Tag(s)
	hasKey := dom.HasAttr(s, "onkeydown") || dom.HasAttr(s, "onkeypress") || dom.HasAttr(s, "onkeyup")
	hover := dom.HasAttr(s, "onmouseover") || dom.HasAttr(s, "onmouseenter")
	click := dom.HasAttr(s, "onclick")

	if click && !hasKey && (!nativeInteractive[tag] || !focusable(s)) {
		missing = append(missing, "onkeydown")
	}
	if hover && !dom.HasAttr(s, "onfocus") {
		missing = append(missing, "onfocus")
	}
	if (tag == "div" || tag == "span") && click && !dom.HasAttr(s, "tabindex") {
		missing = append(missing, "tabindex=\"0\"")
	}
	return missing
}

// eventAttrs lists the on* attributes of an element in source order.
func eventAttrs(s *goquery.Selection) []string {
	var names []string
	for _, a := range s.Nodes[0].Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			names = append(names, a.Key)
		}
	}
	return names
}
