package checker

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

var ruleButtonPressed = &rule{
	title:       "Visually selected button is not announced",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: `No element with role="button" has aria-pressed="true", so screen reader users cannot tell which button is selected.`,
	remediation: `Add aria-pressed="true" to the selected button, e.g. <button aria-pressed="true">Global position</button>.`,
	impact:      "Screen reader users may not know which button is selected.",
}

var ruleTabSelected = &rule{
	title:       "Selected tab state is not announced",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: `No element with role="tab" has aria-selected="true", so screen reader users cannot tell which tab is active.`,
	remediation: `Add aria-selected="true" to the active tab inside role="tablist", e.g. <button role="tab" aria-selected="true">My orders</button>.`,
	impact:      "Screen reader users may not know which tab is selected.",
}

var ruleAccordionExpanded = &rule{
	title:       "Accordion items don't announce state",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: "An accordion toggle has no valid aria-expanded attribute, so screen reader users cannot tell whether the section is expanded or collapsed.",
	remediation: `Set aria-expanded="true" or aria-expanded="false" on the accordion toggle, e.g. <button aria-expanded="false">Section 1</button>.`,
	impact:      "Screen reader users may not realize there is expandable content on the page.",
}

var ruleButtonExpanded = &rule{
	title:       "Expanded/Collapsed state is not announced in the button",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: "A button that expands or collapses content has no valid aria-expanded attribute.",
	remediation: `Set aria-expanded="true" or aria-expanded="false" on the button and update it when the content toggles, e.g. <button aria-expanded="false">Categories</button>.`,
	impact:      "Screen reader users, including on mobile, get no information about the state of the button.",
}

var ruleComboboxExpanded = &rule{
	title:       "Aria-expanded attribute is not working correctly in Search combobox",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: "A combobox does not expose a valid aria-expanded state. It must be true while the list is open and false when it is collapsed.",
	remediation: `Keep aria-expanded on the combobox in sync with its popup, e.g. <input role="combobox" aria-expanded="true"> while expanded.`,
	impact:      "Screen reader users may be confused when the search suggestions open or close without an announcement.",
}

// validState reports whether an ARIA state attribute is exactly "true" or "false".
func validState(s *goquery.Selection, attr string) bool {
	v, ok := s.Attr(attr)
	return ok && (v == "true" || v == "false")
}

// stateDetail describes the current value of an ARIA state attribute.
func stateDetail(s *goquery.Selection, attr string) string {
	v, ok := s.Attr(attr)
	if !ok {
		return attr + " is missing"
	}
	return fmt.Sprintf("%s=%q is not true or false", attr, v)
}

// stateFinding builds a per-element ARIA state finding with the offending value.
func stateFinding(r *rule, s *goquery.Selection, attr string) finding {
	return finding{
		rule:        r,
		sel:         s,
		description: r.description + " Found: " + stateDetail(s, attr) + ".",
	}
}

// selectedStateChecker fires one page-level finding when elements of role
// exist but none holds attr="true".
type selectedStateChecker struct {
	base
	role string
	attr string
	rule *rule
}

func newButtonAriaPressed(o *Options) Checker {
	return &selectedStateChecker{
		base: newBase("button-aria-pressed", FamilyARIA, PerElement, o),
		role: "button",
		attr: "aria-pressed",
		rule: ruleButtonPressed,
	}
}

func newTabAriaSelected(o *Options) Checker {
	return &selectedStateChecker{
		base: newBase("tab-aria-selected", FamilyARIA, PerElement, o),
		role: "tab",
		attr: "aria-selected",
		rule: ruleTabSelected,
	}
}

// Check implements Checker.
func (c *selectedStateChecker) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	candidates := doc.FindByRole([]string{c.role})
	if len(candidates) == 0 {
		return nil, nil
	}
	for _, s := range candidates {
		if strings.TrimSpace(dom.Attr(s, c.attr, "")) == "true" {
			return nil, nil
		}
	}

	f := finding{
		rule: c.rule,
		description: fmt.Sprintf("None of the %d elements with role=%q has %s=\"true\". %s",
			len(candidates), c.role, c.attr, c.rule.impact),
		extra: map[string]any{"candidates": len(candidates)},
	}
	return c.report(doc, source, []finding{f}), nil
}

type accordionAriaExpanded struct{ base }

func newAccordionAriaExpanded(o *Options) Checker {
	return &accordionAriaExpanded{newBase("accordion-aria-expanded", FamilyARIA, PerElement, o)}
}

// Check implements Checker.
func (c *accordionAriaExpanded) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	toggles := doc.FindFunc(isAccordionToggle)

	var findings []finding
	for _, s := range toggles {
		if !validState(s, "aria-expanded") {
			findings = append(findings, stateFinding(ruleAccordionExpanded, s, "aria-expanded"))
		}
	}
	return c.report(doc, source, findings), nil
}

func isAccordionToggle(s *goquery.Selection) bool {
	if !dom.HasClass(s, "accordion-toggle", "accordion-button", "accordion-header") {
		return false
	}
	switch dom.Tag(s) {
	case "button", "a":
		return true
	default:
		return dom.AttrLower(s, "role") == "button"
	}
}

type buttonAriaExpanded struct{ base }

func newButtonAriaExpanded(o *Options) Checker {
	return &buttonAriaExpanded{newBase("button-aria-expanded", FamilyARIA, PerElement, o)}
}

// Check implements Checker.
//
// Candidates are buttons (or role="button") that control other content,
// plus any element that already carries aria-expanded. Accordion toggles
// are left to accordion-aria-expanded.
func (c *buttonAriaExpanded) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	candidates := doc.FindFunc(func(s *goquery.Selection) bool {
		if isAccordionToggle(s) {
			return false
		}
		if dom.HasAttr(s, "aria-expanded") {
			return true
		}
		isButton := dom.Tag(s) == "button" || dom.AttrLower(s, "role") == "button"
		return isButton && controlsContent(s)
	})

	var findings []finding
	for _, s := range candidates {
		if !validState(s, "aria-expanded") {
			findings = append(findings, stateFinding(ruleButtonExpanded, s, "aria-expanded"))
		}
	}
	return c.report(doc, source, findings), nil
}

// controlsContent reports whether a button looks like a disclosure or menu toggle.
func controlsContent(s *goquery.Selection) bool {
	if dom.HasAttr(s, "aria-controls") || dom.HasAttr(s, "aria-haspopup") {
		return true
	}
	for _, attr := range []string{"data-toggle", "data-bs-toggle"} {
		switch dom.AttrLower(s, attr) {
		case "collapse", "dropdown", "offcanvas":
			return true
		}
	}
	for _, hint := range []string{"toggle", "dropdown", "collapse", "hamburger", "menu-button", "navbar-toggler"} {
		if dom.ClassContains(s, hint) {
			return true
		}
	}
	return false
}

type comboboxAriaExpanded struct{ base }

func newComboboxAriaExpanded(o *Options) Checker {
	return &comboboxAriaExpanded{newBase("combobox-aria-expanded", FamilyARIA, PerElement, o)}
}

// Check implements Checker.
func (c *comboboxAriaExpanded) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	candidates := doc.FindFunc(func(s *goquery.Selection) bool {
		switch dom.Tag(s) {
		case "input", "div":
			return dom.AttrLower(s, "role") == "combobox"
		case "select":
			return dom.HasAttr(s, "aria-expanded")
		default:
			return false
		}
	})

	var findings []finding
	for _, s := range candidates {
		if !validState(s, "aria-expanded") {
			findings = append(findings, stateFinding(ruleComboboxExpanded, s, "aria-expanded"))
		}
	}
	return c.report(doc, source, findings), nil
}

var ruleMissingName = &rule{
	title:       "Missing accessible name",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityHigh,
	wcag:        "4.1.2",
	description: "An interactive element has no accessible name.",
	remediation: "Add visible text content, an aria-label, an aria-labelledby reference or an associated <label>.",
	impact:      "Screen reader users hear only the role of the control and cannot tell what it does.",
}

var ruleMissingRole = &rule{
	title:       "Missing accessible role",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "4.1.2",
	description: "A div or span behaves as a control but declares no role.",
	remediation: `Use a native element such as <button>, or add an appropriate role (e.g. role="button").`,
	impact:      "Assistive technologies announce the element as plain text, hiding that it is interactive.",
}

var ruleMissingValue = &rule{
	title:       "Missing accessible value",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityHigh,
	wcag:        "4.1.2",
	description: "A custom checkbox, radio button or switch has no programmatically determinable state.",
	remediation: "Use a native <input type=\"checkbox\"> or keep aria-checked in sync with the control's state.",
	impact:      "Screen reader users cannot tell whether the option is selected.",
}

type nameRoleValue struct{ base }

func newNameRoleValue(o *Options) Checker {
	return &nameRoleValue{newBase("name-role-value", FamilyARIA, PerElement, o)}
}

// Check implements Checker.
//
// Native controls (button, a, input, textarea, select) need a name. A div
// or span is held to the same rules only when it is scripted to act as a
// control (onclick handler or tabindex).
func (c *nameRoleValue) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	labelled := labelTargets(doc)

	var findings []finding
	for _, s := range doc.FindAll("button", "input", "textarea", "select", "a", "div", "span") {
		tag := dom.Tag(s)
		generic := tag == "div" || tag == "span"
		if generic && !actsAsControl(s) {
			continue
		}
		if tag == "input" && dom.AttrLower(s, "type") == "hidden" {
			continue
		}
		if tag == "a" && !dom.HasAttr(s, "href") && !dom.HasAttr(s, "tabindex") {
			continue
		}

		id := identify(s)
		if !hasAccessibleName(s, labelled) {
			findings = append(findings, finding{
				rule:        ruleMissingName,
				sel:         s,
				description: fmt.Sprintf("The %s element %q has no accessible name.", tag, id),
			})
		}
		if generic && !dom.HasAttr(s, "role") {
			findings = append(findings, finding{
				rule:        ruleMissingRole,
				sel:         s,
				description: fmt.Sprintf("The %s element %q acts as a control but has no role.", tag, id),
			})
		}
		switch role := dom.AttrLower(s, "role"); role {
		case "checkbox", "radio", "switch":
			if tag != "input" && !dom.HasAttr(s, "aria-checked") {
				findings = append(findings, finding{
					rule:        ruleMissingValue,
					sel:         s,
					description: fmt.Sprintf("The %s with role=%q has no aria-checked state.", tag, role),
				})
			}
		}
	}
	return c.report(doc, source, findings), nil
}

// actsAsControl reports whether a generic element is scripted as a control.
func actsAsControl(s *goquery.Selection) bool {
	return dom.HasAttr(s, "onclick") || dom.HasAttr(s, "tabindex")
}

// identify returns a short human identifier for messages: id, name or tag.
func identify(s *goquery.Selection) string {
	if id := strings.TrimSpace(dom.Attr(s, "id", "")); id != "" {
		return id
	}
	if name := strings.TrimSpace(dom.Attr(s, "name", "")); name != "" {
		return name
	}
	return "without id"
}

// labelTargets returns the ids referenced by <label for>.
func labelTargets(doc *dom.Document) map[string]bool {
	targets := make(map[string]bool)
	for _, l := range doc.FindByAttr("for", "label") {
		if id := strings.TrimSpace(dom.Attr(l, "for", "")); id != "" {
			targets[id] = true
		}
	}
	return targets
}

// hasAccessibleName approximates the accessible name computation.
func hasAccessibleName(s *goquery.Selection, labelled map[string]bool) bool {
	for _, attr := range []string{"aria-label", "aria-labelledby", "title"} {
		if strings.TrimSpace(dom.Attr(s, attr, "")) != "" {
			return true
		}
	}
	if dom.Text(s) != "" {
		return true
	}
	switch dom.Tag(s) {
	case "input", "textarea", "select":
		if id := strings.TrimSpace(dom.Attr(s, "id", "")); id != "" && labelled[id] {
			return true
		}
		if dom.Closest(s, "label") != nil {
			return true
		}
		if dom.Tag(s) == "input" {
			switch dom.AttrLower(s, "type") {
			case "submit", "reset", "button":
				return strings.TrimSpace(dom.Attr(s, "value", "")) != "" || dom.AttrLower(s, "type") != "button"
			case "image":
				return strings.TrimSpace(dom.Attr(s, "alt", "")) != ""
			}
		}
		return strings.TrimSpace(dom.Attr(s, "placeholder", "")) != ""
	case "a", "button":
		// An image inside a link or button names it through its alt.
		named := false
		s.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
			if strings.TrimSpace(dom.Attr(img, "alt", "")) != "" {
				named = true
			}
		})
		return named
	}
	return false
}
