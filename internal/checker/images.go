package checker

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/a11yscan/internal/dom"
	"github.com/nao1215/a11yscan/internal/model"
)

// imageAlt returns the alt attribute and whether it is present.
func imageAlt(s *goquery.Selection) (string, bool) {
	alt, ok := s.Attr("alt")
	return strings.TrimSpace(alt), ok
}

func ariaHidden(s *goquery.Selection) bool {
	return dom.AttrLower(s, "aria-hidden") == "true"
}

func presentational(s *goquery.Selection) bool {
	switch dom.AttrLower(s, "role") {
	case "presentation", "none":
		return true
	}
	return false
}

// localImage maps an image src to its downloaded copy, matched by file name.
// It returns "" when src is inline data or no such file exists.
func (b base) localImage(src string) string {
	if b.opts.ImagesDir == "" || src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
		return ""
	}
	p := src
	if u, err := url.Parse(src); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	local := filepath.Join(b.opts.ImagesDir, name)
	if _, err := os.Stat(local); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			b.opts.Logger.Debug("cannot stat downloaded image", "checker", b.name, "path", local, "error", err)
		}
		return ""
	}
	return local
}

// wordSet splits text into lower-cased letter and digit runs.
func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[w] = true
	}
	return set
}

var (
	ruleMissingAlt = &rule{
		title:       "Missing alt attribute",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityHigh,
		wcag:        "1.1.1",
		description: "The image has no alt attribute.",
		remediation: "Add an alt attribute describing the image, or alt=\"\" if it is purely decorative.",
		impact:      "Screen readers announce the file name or nothing, so users miss the image's purpose.",
	}
	ruleDecorativeAnnounced = &rule{
		title:       "Decorative image is focused and announced",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "An image with empty alt text is still exposed to assistive technology.",
		remediation: "Remove tabindex from decorative images, or add aria-hidden=\"true\".",
		impact:      "Screen reader and keyboard users stop on an image that carries no information.",
	}
	ruleDecorativeWrongAlt = &rule{
		title:       "Decorative image has incorrect alt",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "An image whose file name marks it as decorative has non-empty alt text.",
		remediation: "Use alt=\"\" for decorative images.",
		impact:      "Screen readers announce text that adds nothing to the content.",
	}
	ruleSeparatorAnnounced = &rule{
		title:       "Decorative separator is focused and announced",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "A visual separator is exposed to assistive technology.",
		remediation: "Add aria-hidden=\"true\" or role=\"presentation\" to purely visual separators.",
		impact:      "Screen reader users hear separators that carry no information.",
	}
)

type imagesDecorative struct{ base }

func newImagesDecorative(o *Options) Checker {
	return &imagesDecorative{newBase("images-decorative", FamilyImages, PerElement, o)}
}

// Check implements Checker. It is the only checker reporting images
// without an alt attribute.
func (c *imagesDecorative) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, img := range doc.FindAll("img") {
		src := dom.Attr(img, "src", "")
		alt, ok := imageAlt(img)
		switch {
		case !ok:
			findings = append(findings, finding{
				rule:        ruleMissingAlt,
				sel:         img,
				description: fmt.Sprintf("The image %q has no alt attribute.", src),
				extra:       map[string]any{"src": src},
			})
		case alt == "":
			if ariaHidden(img) || presentational(img) {
				continue
			}
			if t, ok := tabIndex(img); ok && t >= 0 {
				findings = append(findings, finding{
					rule:        ruleDecorativeAnnounced,
					sel:         img,
					description: fmt.Sprintf("The image %q has empty alt text but is in the tab order.", src),
				})
			}
		case strings.Contains(strings.ToLower(src), "decorative"):
			findings = append(findings, finding{
				rule:        ruleDecorativeWrongAlt,
				sel:         img,
				description: fmt.Sprintf("The decorative image %q has alt text %q.", src, alt),
			})
		}
	}

	for _, s := range doc.FindFunc(func(s *goquery.Selection) bool {
		switch dom.Tag(s) {
		case "hr":
			return true
		case "svg", "div", "span":
			return dom.ClassContains(s, "separator") || dom.ClassContains(s, "divider")
		}
		return false
	}) {
		if ariaHidden(s) || presentational(s) {
			continue
		}
		if t, ok := tabIndex(s); ok && t < 0 {
			continue
		}
		if dom.Tag(s) != "hr" && dom.AttrLower(s, "role") != "separator" && !dom.HasAttr(s, "tabindex") {
			continue
		}
		findings = append(findings, finding{rule: ruleSeparatorAnnounced, sel: s})
	}
	return c.report(doc, source, findings), nil
}

var (
	ruleIconNotAnnounced = &rule{
		title:       "Informative icon is not announced",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityHigh,
		wcag:        "1.1.1",
		description: "An icon font glyph has no text alternative.",
		remediation: "Add aria-label to the icon (or its control) or visually hidden text next to it.",
		impact:      "Screen reader users do not learn what the icon means.",
	}
	ruleInformativeImageEmptyAlt = &rule{
		title:       "Informative image is not set as such",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityHigh,
		wcag:        "1.1.1",
		description: "An image that carries information has empty alt text.",
		remediation: "Describe the image in its alt attribute.",
		impact:      "Screen readers skip the image, so users miss its information.",
	}
	ruleSVGNotAccessible = &rule{
		title:       "Informative SVG is not accessible",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "An inline SVG has no accessible name.",
		remediation: "Add a <title> element or aria-label with role=\"img\", or aria-hidden=\"true\" if it is decorative.",
		impact:      "Screen readers announce the graphic without saying what it shows.",
	}
)

var iconClasses = []string{"icon", "fa", "fas", "far", "fab", "material-icons", "glyphicon", "bi"}

type iconsInformative struct{ base }

func newIconsInformative(o *Options) Checker {
	return &iconsInformative{newBase("icons-informative", FamilyImages, PerElement, o)}
}

// Check implements Checker.
//
// Icon glyphs count as informative unless aria-hidden or named by their
// control. Images with empty alt count as informative when they carry a
// title or a figure caption.
func (c *iconsInformative) Check(_ context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, s := range doc.FindByClass(iconClasses, "span", "i") {
		if ariaHidden(s) || hasAccessibleName(s, nil) {
			continue
		}
		if control := dom.Closest(s, "a", "button"); control != nil && hasAccessibleName(control, nil) {
			continue
		}
		findings = append(findings, finding{
			rule:        ruleIconNotAnnounced,
			sel:         s,
			description: fmt.Sprintf("The icon with class %q has no text alternative.", dom.Attr(s, "class", "")),
		})
	}

	for _, img := range doc.FindAll("img") {
		alt, ok := imageAlt(img)
		if !ok || alt != "" || ariaHidden(img) || presentational(img) {
			continue
		}
		titled := strings.TrimSpace(dom.Attr(img, "title", "")) != ""
		if fig := dom.Closest(img, "figure"); fig != nil && dom.Text(fig.Find("figcaption")) != "" {
			titled = true
		}
		if titled {
			findings = append(findings, finding{
				rule:        ruleInformativeImageEmptyAlt,
				sel:         img,
				description: fmt.Sprintf("The image %q has a title or caption but empty alt text.", dom.Attr(img, "src", "")),
			})
		}
	}

	for _, svg := range doc.FindAll("svg") {
		if ariaHidden(svg) || presentational(svg) {
			continue
		}
		if dom.Text(svg.ChildrenFiltered("title")) != "" {
			continue
		}
		if strings.TrimSpace(dom.Attr(svg, "aria-label", "")) != "" || strings.TrimSpace(dom.Attr(svg, "aria-labelledby", "")) != "" {
			continue
		}
		if dom.ClassContains(svg, "separator") || dom.ClassContains(svg, "divider") {
			continue
		}
		findings = append(findings, finding{rule: ruleSVGNotAccessible, sel: svg})
	}
	return c.report(doc, source, findings), nil
}

var (
	ruleControlWithoutText = &rule{
		title:       "Link/button without accessible text",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityHigh,
		wcag:        "1.1.1",
		description: "A link or button whose only content is an image with empty alt text has no accessible name.",
		remediation: "Describe the link or button destination in the image alt text or in aria-label.",
		impact:      "Screen readers announce the control without saying what it does.",
	}
	ruleRedundantAlt = &rule{
		title:       "Redundant alternative text",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "The alt text repeats the text next to the image.",
		remediation: "Use alt=\"\" when adjacent text already describes the image, or describe what the text does not.",
		impact:      "Screen reader users hear the same information twice.",
	}
)

type altDistinction struct{ base }

func newAltDistinction(o *Options) Checker {
	return &altDistinction{newBase("alt-distinction", FamilyImages, PerElement, o)}
}

// Check implements Checker.
func (c *altDistinction) Check(ctx context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, img := range doc.FindAll("img") {
		if cancelled(ctx) {
			return c.report(doc, source, findings), ctx.Err()
		}
		alt, ok := imageAlt(img)
		if !ok {
			continue
		}
		src := dom.Attr(img, "src", "")

		if alt == "" {
			control := dom.Closest(img, "a", "button")
			if control == nil || dom.Text(control) != "" || strings.TrimSpace(dom.Attr(control, "aria-label", "")) != "" {
				continue
			}
			findings = append(findings, finding{
				rule:        ruleControlWithoutText,
				sel:         control,
				description: fmt.Sprintf("The %s around image %q has no text and the image alt is empty.", dom.Tag(control), src),
			})
			continue
		}

		if c.opts.Similarity == nil {
			continue
		}
		adjacent := strings.TrimSpace(dom.PreviousTextNode(img) + " " + dom.NextTextNode(img))
		if adjacent == "" {
			continue
		}
		score, err := c.similarity(ctx, alt, adjacent)
		if err != nil {
			findings = append(findings, toolingFailure("Text similarity", fmt.Sprintf("image %q", src), err, img))
			continue
		}
		if score > c.opts.SimilarityThreshold {
			findings = append(findings, finding{
				rule: ruleRedundantAlt,
				sel:  img,
				description: fmt.Sprintf("The alt text %q of image %q repeats the adjacent text %q (similarity %.2f).",
					alt, src, truncate(adjacent, 80), score),
				extra: map[string]any{"similarity": score},
			})
		}
	}
	return c.report(doc, source, findings), nil
}

var (
	ruleGenericAlt = &rule{
		title:       "Informative image has a generic alt text",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "The alt text names the kind of image instead of describing it.",
		remediation: "Describe what the image shows or does, e.g. \"Sales grew 20% in 2024\" instead of \"chart\".",
		impact:      "Screen reader users learn that there is an image but not what it conveys.",
	}
	ruleInaccurateAlt = &rule{
		title:       "Alt text may be inaccurate compared to image text",
		category:    model.CategoryScreenReader,
		severity:    model.SeverityMedium,
		wcag:        "1.1.1",
		description: "Most of the text found in the image is missing from its alt text.",
		remediation: "Include the text shown in the image in its alt attribute.",
		impact:      "Screen reader users miss information that sighted users read in the image.",
	}
)

var (
	genericAltWords = map[string]bool{
		"image": true, "img": true, "photo": true, "picture": true, "pic": true,
		"graphic": true, "icon": true, "logo": true, "chart": true, "banner": true,
	}
	articleNoun = regexp.MustCompile(`^an?\s+\w+$`)
)

func genericAlt(alt string) bool {
	lower := strings.ToLower(strings.TrimSpace(alt))
	lower = strings.TrimSuffix(strings.TrimSuffix(lower, "."), "s")
	if genericAltWords[lower] {
		return true
	}
	return articleNoun.MatchString(lower)
}

type informativeImages struct{ base }

func newInformativeImages(o *Options) Checker {
	return &informativeImages{newBase("informative-images", FamilyImages, PerElement, o)}
}

// Check implements Checker.
//
// Alt text is compared with the text extracted from the downloaded copy of
// the image. Images without a downloaded copy are only checked for
// generic alt text.
func (c *informativeImages) Check(ctx context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	var findings []finding
	for _, img := range doc.FindAll("img") {
		if cancelled(ctx) {
			return c.report(doc, source, findings), ctx.Err()
		}
		alt, ok := imageAlt(img)
		if !ok || alt == "" {
			continue
		}
		src := dom.Attr(img, "src", "")

		if genericAlt(alt) {
			findings = append(findings, finding{
				rule:        ruleGenericAlt,
				sel:         img,
				description: fmt.Sprintf("The image %q has the generic alt text %q.", src, alt),
			})
			continue
		}

		if c.opts.TextExtractor == nil {
			continue
		}
		local := c.localImage(src)
		if local == "" {
			continue
		}
		text, err := c.extractText(ctx, local)
		if err != nil {
			findings = append(findings, toolingFailure("Image text extraction", fmt.Sprintf("image %q", src), err, img))
			continue
		}
		found := wordSet(text)
		if len(found) == 0 {
			continue
		}
		described := wordSet(alt)
		shared := 0
		for w := range found {
			if described[w] {
				shared++
			}
		}
		overlap := float64(shared) / float64(len(found))
		if overlap < c.opts.GenericAltOverlap {
			findings = append(findings, finding{
				rule: ruleInaccurateAlt,
				sel:  img,
				description: fmt.Sprintf("The alt text %q of image %q covers %.1f%% of the words found in the image.",
					alt, src, overlap*100),
				extra: map[string]any{"overlap": overlap, "image_text": truncate(text, 200)},
			})
		}
	}
	return c.report(doc, source, findings), nil
}

var ruleImageOfText = &rule{
	title:       "Image of Text Possibly Used",
	category:    model.CategoryScreenReader,
	severity:    model.SeverityMedium,
	wcag:        "1.4.5",
	description: "The image contains text that is not repeated in its alt text or the text after it.",
	remediation: "Use real text styled with CSS instead of an image of text, or repeat the text in the alt attribute.",
	impact:      "Users cannot resize, recolor or translate text rendered as an image.",
}

type imagesOfText struct{ base }

func newImagesOfText(o *Options) Checker {
	return &imagesOfText{newBase("images-of-text", FamilyImages, PerElement, o)}
}

// Check implements Checker.
func (c *imagesOfText) Check(ctx context.Context, doc *dom.Document, source string) ([]model.Incidence, error) {
	if c.opts.TextExtractor == nil {
		return nil, nil
	}
	var findings []finding
	for _, img := range doc.FindAll("img") {
		if cancelled(ctx) {
			return c.report(doc, source, findings), ctx.Err()
		}
		alt, ok := imageAlt(img)
		src := strings.TrimSpace(dom.Attr(img, "src", ""))
		if !ok || src == "" {
			continue
		}
		local := c.localImage(src)
		if local == "" {
			continue
		}
		text, err := c.extractText(ctx, local)
		if err != nil {
			findings = append(findings, toolingFailure("Image text extraction", fmt.Sprintf("image %q", src), err, img))
			continue
		}
		text = strings.Join(strings.Fields(strings.ToLower(text)), " ")
		if text == "" {
			continue
		}
		nearby := strings.ToLower(alt + " " + dom.NextTextNode(img))
		if strings.Contains(nearby, text) {
			continue
		}
		findings = append(findings, finding{
			rule:        ruleImageOfText,
			sel:         img,
			description: fmt.Sprintf("The image %q contains the text %q, which is not in its alt text or the following text.", src, truncate(text, 80)),
			extra:       map[string]any{"image_text": text},
		})
	}
	return c.report(doc, source, findings), nil
}
