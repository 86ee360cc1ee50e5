package dom

import (
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is an immutable parsed HTML page.
type Document struct {
	source string
	raw    string
	doc    *goquery.Document

	linesOnce sync.Once
	lines     map[*html.Node]int
}

// Parse builds a Document from raw markup. It never returns an error:
// unparseable input yields an empty html/head/body tree.
func Parse(source, markup string) *Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		root, _ := html.Parse(strings.NewReader("")) //nolint:errcheck // empty input always parses
		doc = goquery.NewDocumentFromNode(root)
	}

	return &Document{
		source: source,
		raw:    markup,
		doc:    doc,
	}
}

// Source returns the document's source identifier (URL or file path).
func (d *Document) Source() string {
	return d.source
}

// Raw returns the original markup.
func (d *Document) Raw() string {
	return d.raw
}

// Root returns the selection of the document node.
func (d *Document) Root() *goquery.Selection {
	return d.doc.Selection
}

// Select returns all elements matching a CSS selector, in document order.
// An invalid selector matches nothing.
func (d *Document) Select(selector string) []*goquery.Selection {
	var result []*goquery.Selection
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		result = append(result, s)
	})
	return result
}

// FindAll returns every element whose tag is one of tags. With no tags it
// returns every element.
func (d *Document) FindAll(tags ...string) []*goquery.Selection {
	set := tagSet(tags)
	return d.collect(func(n *html.Node) bool {
		return set.match(n)
	})
}

// FindByAttr returns elements carrying attribute name, optionally limited to tags.
func (d *Document) FindByAttr(name string, tags ...string) []*goquery.Selection {
	set := tagSet(tags)
	return d.collect(func(n *html.Node) bool {
		_, ok := nodeAttr(n, name)
		return ok && set.match(n)
	})
}

// FindByAttrValue returns elements whose attribute name equals value
// (surrounding whitespace ignored), optionally limited to tags.
func (d *Document) FindByAttrValue(name, value string, tags ...string) []*goquery.Selection {
	set := tagSet(tags)
	return d.collect(func(n *html.Node) bool {
		v, ok := nodeAttr(n, name)
		return ok && strings.TrimSpace(v) == value && set.match(n)
	})
}

// FindByClass returns elements whose class list contains any of classes,
// optionally limited to tags.
func (d *Document) FindByClass(classes []string, tags ...string) []*goquery.Selection {
	set := tagSet(tags)
	return d.collect(func(n *html.Node) bool {
		if !set.match(n) {
			return false
		}
		v, ok := nodeAttr(n, "class")
		if !ok {
			return false
		}
		for _, token := range strings.Fields(v) {
			for _, c := range classes {
				if token == c {
					return true
				}
			}
		}
		return false
	})
}

// FindByRole returns elements whose role attribute is one of roles
// (case-insensitive), optionally limited to tags.
func (d *Document) FindByRole(roles []string, tags ...string) []*goquery.Selection {
	set := tagSet(tags)
	return d.collect(func(n *html.Node) bool {
		v, ok := nodeAttr(n, "role")
		if !ok || !set.match(n) {
			return false
		}
		v = strings.ToLower(strings.TrimSpace(v))
		for _, r := range roles {
			if v == r {
				return true
			}
		}
		return false
	})
}

// FindFunc returns elements for which match reports true.
func (d *Document) FindFunc(match func(s *goquery.Selection) bool) []*goquery.Selection {
	var result []*goquery.Selection
	walk(d.doc.Nodes, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		s := d.doc.FindNodes(n)
		if match(s) {
			result = append(result, s)
		}
	})
	return result
}

// Title returns the normalized text of the first <title>.
func (d *Document) Title() string {
	return Text(d.doc.Find("title").First())
}

// Lang returns the lang attribute of <html>, trimmed.
func (d *Document) Lang() string {
	v, _ := d.doc.Find("html").First().Attr("lang")
	return strings.TrimSpace(v)
}

// Meta returns the content of the first meta tag whose property or name
// equals key.
func (d *Document) Meta(key string) string {
	for _, s := range d.FindAll("meta") {
		if Attr(s, "property", "") == key || Attr(s, "name", "") == key {
			return strings.TrimSpace(Attr(s, "content", ""))
		}
	}
	return ""
}

// StyleText returns the concatenated contents of every <style> block.
func (d *Document) StyleText() string {
	var b strings.Builder
	for _, s := range d.FindAll("style") {
		b.WriteString(s.Text())
		b.WriteString("\n")
	}
	return b.String()
}

// StyleBlocks returns the contents of each <style> block.
func (d *Document) StyleBlocks() []string {
	blocks := make([]string, 0)
	for _, s := range d.FindAll("style") {
		blocks = append(blocks, s.Text())
	}
	return blocks
}

// Scripts returns the bodies of inline <script> elements.
func (d *Document) Scripts() []string {
	scripts := make([]string, 0)
	for _, s := range d.FindAll("script") {
		if body := s.Text(); strings.TrimSpace(body) != "" {
			scripts = append(scripts, body)
		}
	}
	return scripts
}

// invisibleTextParents are elements whose text is never rendered.
var invisibleTextParents = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"meta":     true,
	"head":     true,
	"link":     true,
	"title":    true,
	"template": true,
}

// VisibleTextFragments returns the trimmed, non-empty text nodes that would
// be rendered, in document order.
func (d *Document) VisibleTextFragments() []string {
	fragments := make([]string, 0)
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && invisibleTextParents[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := normalize(n.Data); text != "" {
				fragments = append(fragments, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range d.doc.Nodes {
		visit(n)
	}
	return fragments
}

// collect walks the tree in document order and wraps matching element nodes.
func (d *Document) collect(match func(n *html.Node) bool) []*goquery.Selection {
	var result []*goquery.Selection
	walk(d.doc.Nodes, func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			result = append(result, d.doc.FindNodes(n))
		}
	})
	return result
}

// walk visits nodes depth-first in document order.
func walk(roots []*html.Node, fn func(n *html.Node)) {
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		fn(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	for _, n := range roots {
		visit(n)
	}
}

type tags map[string]bool

func tagSet(names []string) tags {
	if len(names) == 0 {
		return nil
	}
	set := make(tags, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}

func (t tags) match(n *html.Node) bool {
	return t == nil || t[n.Data]
}
