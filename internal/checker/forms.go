package checker

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/cssrules"
	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

var ruleErrorNotIdentified = &rule{
	title:       "Error not identified in text",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityHigh,
	wcag:        "3.3.1",
	description: "A field is marked aria-invalid=\"true\" but no visible error message is associated with it.",
	remediation: "Show the error as visible text next to the field and reference it with aria-describedby.",
	impact:      "Users, and screen reader users in particular, do not learn what went wrong or how to fix it.",
}

type formErrorIdentification struct{ base }

func newFormErrorIdentification(o *Options) Checker {
	return &formErrorIdentification{newBase("form-error-identification", FamilyForms, PerElement, o)}
}

// Check implements Checker.
func (c *formErrorIdentification) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, field := range doc.FindFunc(func(s *goquery.Selection) bool {
		switch dom.Tag(s) {
		case "input", "textarea", "select":
			return dom.AttrLower(s, "aria-invalid") == "true"
		}
		return false
	}) {
		if errorMessage(doc, field) != "" {
			continue
		}
		findings = append(findings, finding{
			rule:        ruleErrorNotIdentified,
			sel:         field,
			description: fmt.Sprintf("The field %q is marked invalid but has no visible error message.", fieldName(field)),
		})
	}
	return c.report(doc, source, findings), nil
}

// errorMessage returns the visible error text of an invalid field: the
// first element referenced by aria-describedby with text, or else the first
// following sibling span/div/p/small whose class mentions "error".
func errorMessage(doc *dom.Document, field *goquery.Selection) string {
	for _, id := range strings.Fields(dom.Attr(field, "aria-describedby", "")) {
		for _, target := range doc.FindByAttrValue("id", id) {
			if text := dom.Text(target); text != "" && !hiddenInline(target) {
				return text
			}
		}
	}
	for _, sib := range dom.NextElementSiblings(field) {
		switch dom.Tag(sib) {
		case "span", "div", "p", "small":
		default:
			continue
		}
		if !dom.ClassContains(sib, "error") || hiddenInline(sib) {
			continue
		}
		if text := dom.Text(sib); text != "" {
			return text
		}
	}
	return ""
}

// hiddenInline reports whether an inline style hides the element.
func hiddenInline(s *goquery.Selection) bool {
	decls := cssrules.ParseDeclarations(dom.Attr(s, "style", ""))
	if v, ok := decls.Get("display"); ok && strings.EqualFold(v, "none") {
		return true
	}
	if v, ok := decls.Get("visibility"); ok && strings.EqualFold(v, "hidden") {
		return true
	}
	return false
}

func fieldName(s *goquery.Selection) string {
	if name := strings.TrimSpace(dom.Attr(s, "name", "")); name != "" {
		return name
	}
	if id := strings.TrimSpace(dom.Attr(s, "id", "")); id != "" {
		return id
	}
	return "unnamed field"
}
