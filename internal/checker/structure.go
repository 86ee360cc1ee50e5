package checker

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

var ruleAriaLabelInDiv = &rule{
	title:       "Aria-label attribute incorrectly used in div elements",
	category:    model.CategoryHTMLValidator,
	severity:    model.SeverityLow,
	wcag:        "4.1.2",
	description: "aria-label is set on a <div> that has no role. aria-label is not supported on generic elements without a role.",
	remediation: `Give the <div> an appropriate role such as role="button" or role="region", or move the label to an element that supports it.`,
	impact:      "No immediate impact, but validators flag it and assistive technologies may ignore the label.",
}

type ariaLabelInDiv struct{ base }

func newAriaLabelInDiv(o *Options) Checker {
	return &ariaLabelInDiv{newBase("aria-label-in-div", FamilyStructure, PerElement, o)}
}

// Check implements Checker.
func (c *ariaLabelInDiv) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, s := range doc.FindByAttr("aria-label", "div") {
		if !dom.HasAttr(s, "role") {
			findings = append(findings, finding{
				rule:        ruleAriaLabelInDiv,
				sel:         s,
				description: fmt.Sprintf("<div aria-label=%q> has no role.", dom.Attr(s, "aria-label", "")),
			})
		}
	}
	return c.report(doc, source, findings), nil
}

var ruleInvalidListChild = &rule{
	title:       "Div elements nested into the ul/ol in the navigation menu",
	category:    model.CategoryHTMLValidator,
	severity:    model.SeverityLow,
	wcag:        "4.1.1",
	description: "A <div> is a direct child of a <ul> or <ol>. Lists may only contain <li>, <script> and <template> children.",
	remediation: `Wrap the content in <li> elements, e.g. <li><div class="menu-item">Home</div></li>.`,
	impact:      "No immediate impact, but the list structure may be announced incorrectly and breaks validation.",
}

type invalidElementsInList struct{ base }

func newInvalidElementsInList(o *Options) Checker {
	return &invalidElementsInList{newBase("invalid-elements-in-list", FamilyStructure, PerElement, o)}
}

// Check implements Checker. Each offending <div> is reported, not its list.
func (c *invalidElementsInList) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, list := range doc.FindAll("ul", "ol") {
		for _, child := range dom.Children(list) {
			if dom.Tag(child) != "div" {
				continue
			}
			findings = append(findings, finding{
				rule: ruleInvalidListChild,
				sel:  child,
				description: fmt.Sprintf("A <div> is a direct child of <%s>. Lists may only contain <li>, <script> and <template> children.",
					dom.Tag(list)),
			})
		}
	}
	return c.report(doc, source, findings), nil
}

var ruleDuplicateID = &rule{
	title:       "Duplicated id in fields",
	category:    model.CategoryHTMLValidator,
	severity:    model.SeverityHigh,
	wcag:        "4.1.1",
	description: "Several elements share the same id. Every id must be unique in the document.",
	remediation: `Make each id unique. For repeated components use a class or a unique suffix such as id="passwordPositions_1".`,
	impact:      "Labels, descriptions and scripts that reference the id may point at the wrong element for assistive technology users.",
}

type duplicateIDs struct{ base }

func newDuplicateIDs(o *Options) Checker {
	return &duplicateIDs{newBase("duplicate-ids", FamilyStructure, PerElement, o)}
}

// Check implements Checker. One finding per duplicated id value, anchored
// on its first element and listing every tag that shares it.
func (c *duplicateIDs) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	order := make([]string, 0)
	byID := make(map[string][]*goquery.Selection)
	for _, s := range doc.FindByAttr("id") {
		id := dom.Attr(s, "id", "")
		if _, ok := byID[id]; !ok {
			order = append(order, id)
		}
		byID[id] = append(byID[id], s)
	}

	var findings []finding
	for _, id := range order {
		elements := byID[id]
		if len(elements) < 2 {
			continue
		}
		tags := make([]string, 0, len(elements))
		for _, s := range elements {
			tags = append(tags, dom.Tag(s))
		}
		findings = append(findings, finding{
			rule: ruleDuplicateID,
			sel:  elements[0],
			description: fmt.Sprintf("The id %q is used by %d elements (%s). Every id must be unique in the document.",
				id, len(elements), strings.Join(tags, ", ")),
			extra: map[string]any{"duplicated_ids": map[string]any{id: tags}},
		})
	}
	return c.report(doc, source, findings), nil
}

var (
	ruleNoHeadings = &rule{
		title:       "Missing semantic headings",
		category:    model.CategoryStructure,
		severity:    model.SeverityMedium,
		wcag:        "1.3.1",
		description: "The page has content but no heading elements (h1-h6).",
		remediation: "Mark section titles up with h1-h6 instead of styled text.",
		impact:      "Screen reader users cannot navigate the page by headings.",
	}
	rulePresentationTable = &rule{
		title:       "Table with role=presentation contains header cells",
		category:    model.CategoryStructure,
		severity:    model.SeverityHigh,
		wcag:        "1.3.1",
		description: `A table marked role="presentation" or role="none" contains <th> cells.`,
		remediation: `Remove role="presentation" if the table holds data, or replace the <th> cells with <td>.`,
		impact:      "Screen readers ignore the header cells and the relationships between data cells are lost.",
	}
	ruleHeaderScope = &rule{
		title:       "Table header without scope or headers",
		category:    model.CategoryStructure,
		severity:    model.SeverityMedium,
		wcag:        "1.3.1",
		description: "A <th> has neither a scope nor a headers attribute.",
		remediation: `Add scope="col" or scope="row", or associate cells through headers/id.`,
		impact:      "Screen reader users may not understand how data cells relate to headers.",
	}
	ruleUnlabelledField = &rule{
		title:       "Form field without label or ARIA name",
		category:    model.CategoryStructure,
		severity:    model.SeverityHigh,
		wcag:        "1.3.1",
		description: "A form field has no associated <label> and no aria-label or aria-labelledby.",
		remediation: `Add <label for="field_id">Text</label> or use aria-label / aria-labelledby.`,
		impact:      "Screen reader users cannot tell what the field is for.",
	}
	ruleGroupNoFieldset = &rule{
		title:       "Option group without fieldset",
		category:    model.CategoryStructure,
		severity:    model.SeverityMedium,
		wcag:        "1.3.1",
		description: "A group of radio buttons or checkboxes is not inside a <fieldset>.",
		remediation: "Group the controls in a <fieldset> with a descriptive <legend>.",
		impact:      "Screen reader users may not understand what the options refer to.",
	}
	ruleFieldsetNoLegend = &rule{
		title:       "Option group without legend",
		category:    model.CategoryStructure,
		severity:    model.SeverityLow,
		wcag:        "1.3.1",
		description: "A <fieldset> grouping options has no <legend>.",
		remediation: "Add a <legend> inside the <fieldset> describing the group.",
		impact:      "Screen reader users cannot tell the purpose of the group.",
	}
)

type infoAndRelationships struct{ base }

func newInfoAndRelationships(o *Options) Checker {
	return &infoAndRelationships{newBase("info-and-relationships", FamilyStructure, PerElement, o)}
}

// Check implements Checker.
func (c *infoAndRelationships) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding

	if len(doc.FindAll("h1", "h2", "h3", "h4", "h5", "h6")) == 0 && len(doc.VisibleTextFragments()) > 0 {
		findings = append(findings, finding{rule: ruleNoHeadings})
	}

	for _, table := range doc.FindAll("table") {
		headers := table.Find("th")
		role := dom.AttrLower(table, "role")
		if (role == "presentation" || role == "none") && headers.Length() > 0 {
			findings = append(findings, finding{rule: rulePresentationTable, sel: table})
		}
		headers.Each(func(_ int, th *goquery.Selection) {
			if !dom.HasAttr(th, "scope") && !dom.HasAttr(th, "headers") {
				findings = append(findings, finding{
					rule:        ruleHeaderScope,
					sel:         th,
					description: fmt.Sprintf("The header %q has neither a scope nor a headers attribute.", dom.Snippet(th, 50)),
				})
			}
		})
	}

	for _, form := range doc.FindAll("form") {
		form.Find("input, select, textarea").Each(func(_ int, field *goquery.Selection) {
			if dom.Tag(field) == "input" {
				switch dom.AttrLower(field, "type") {
				case "submit", "reset", "button", "image", "hidden":
					return
				}
			}
			if fieldLabelled(form, field) {
				return
			}
			findings = append(findings, finding{
				rule:        ruleUnlabelledField,
				sel:         field,
				description: fmt.Sprintf("The %s field %q has no associated <label> and no aria-label or aria-labelledby.", dom.Tag(field), identify(field)),
			})
		})
	}

	findings = append(findings, optionGroupFindings(doc)...)

	return c.report(doc, source, findings), nil
}

func fieldLabelled(form, field *goquery.Selection) bool {
	if strings.TrimSpace(dom.Attr(field, "aria-label", "")) != "" ||
		strings.TrimSpace(dom.Attr(field, "aria-labelledby", "")) != "" {
		return true
	}
	if id := strings.TrimSpace(dom.Attr(field, "id", "")); id != "" {
		labelled := false
		form.Find("label").Each(func(_ int, l *goquery.Selection) {
			if strings.TrimSpace(dom.Attr(l, "for", "")) == id {
				labelled = true
			}
		})
		if labelled {
			return true
		}
	}
	return dom.Closest(field, "label") != nil
}

// optionGroupFindings checks radio and checkbox groups, keyed by name.
func optionGroupFindings(doc *dom.Document) []finding {
	order := make([]string, 0)
	groups := make(map[string][]*goquery.Selection)
	for _, field := range doc.FindAll("input") {
		switch dom.AttrLower(field, "type") {
		case "radio", "checkbox":
		default:
			continue
		}
		name := strings.TrimSpace(dom.Attr(field, "name", ""))
		if name == "" {
			continue
		}
		if _, ok := groups[name]; !ok {
			order = append(order, name)
		}
		groups[name] = append(groups[name], field)
	}

	var findings []finding
	reported := make(map[*html.Node]bool)
	for _, name := range order {
		fields := groups[name]
		fieldsets := make([]*goquery.Selection, len(fields))
		anyFieldset := false
		for i, f := range fields {
			fieldsets[i] = dom.Closest(f, "fieldset")
			anyFieldset = anyFieldset || fieldsets[i] != nil
		}

		if !anyFieldset {
			for _, f := range fields {
				findings = append(findings, finding{
					rule:        ruleGroupNoFieldset,
					sel:         f,
					description: fmt.Sprintf("The option group %q is not inside a <fieldset> with a <legend>.", name),
				})
			}
			continue
		}

		for _, fs := range fieldsets {
			if fs == nil || fs.Find("legend").Length() > 0 {
				continue
			}
			if reported[fs.Nodes[0]] {
				continue
			}
			reported[fs.Nodes[0]] = true
			findings = append(findings, finding{
				rule:        ruleFieldsetNoLegend,
				sel:         fs,
				description: fmt.Sprintf("The option group %q has a <fieldset> but no <legend>.", name),
			})
		}
	}
	return findings
}

var ruleTitleSiteName = &rule{
	title:       "Page title does not contain site name",
	category:    model.CategoryOther,
	severity:    model.SeverityMedium,
	wcag:        "2.4.2",
	description: "The page title does not include the site name.",
	remediation: "Include the site name in <title>, e.g. \"Help Center - Example Store\".",
	impact:      "Users cannot easily tell which site they are on, especially across several tabs.",
}

type pageTitleSiteName struct{ base }

func newPageTitleSiteName(o *Options) Checker {
	return &pageTitleSiteName{newBase("page-title-site-name", FamilyStructure, PerElement, o)}
}

// Check implements Checker. Nothing is reported when the page has no
// <title> or no site name can be determined.
func (c *pageTitleSiteName) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	site := c.opts.SiteName
	if site == "" {
		site = doc.Meta("og:site_name")
	}
	if site == "" {
		site = siteNameFromURL(source)
	}
	if site == "" || len(doc.FindAll("title")) == 0 {
		return nil, nil
	}

	title := doc.Title()
	fold := cases.Fold()
	if strings.Contains(fold.String(title), fold.String(site)) {
		return nil, nil
	}

	f := finding{
		rule: ruleTitleSiteName,
		description: fmt.Sprintf("The page title %q does not include the site name %q, which makes the site harder to identify.",
			title, site),
		extra: map[string]any{"site_name": site},
	}
	return c.report(doc, source, []finding{f}), nil
}

// siteNameFromURL derives "Example" from "https://www.example.com/path".
// File paths, bare hosts and IP addresses yield "".
func siteNameFromURL(source string) string {
	u, err := url.Parse(source)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" || net.ParseIP(host) != nil {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return ""
	}
	return cases.Title(language.Und).String(parts[len(parts)-2])
}
