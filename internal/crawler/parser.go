package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Parser extracts the title and links of an HTML page.
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs. A <base href> element replaces it.
	baseURL *url.URL
}

// ParseResult contains what the spider needs from one page.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// Lang is the lang attribute of the <html> element.
	Lang string

	// Links contains all resolved link targets in document order.
	Links []string

	// InternalLinks are links on the same host as the page.
	InternalLinks []string

	// ExternalLinks are links to other hosts.
	ExternalLinks []string

	// NoFollow is set by <meta name="robots"> containing "nofollow" or "none".
	NoFollow bool
}

// NewParser creates a new HTML parser with the given base URL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse parses HTML content and extracts the title and links.
func (p *Parser) Parse(content io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:         make([]string, 0),
		InternalLinks: make([]string, 0),
		ExternalLinks: make([]string, 0),
	}

	// <base> must be known before any href is resolved.
	if base := findBase(doc); base != "" {
		if u, err := url.Parse(base); err == nil {
			p.baseURL = p.baseURL.ResolveReference(u)
		}
	}

	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			p.processElement(n, result, seen)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return result, nil
}

// processElement handles HTML element nodes.
func (p *Parser) processElement(n *html.Node, result *ParseResult, seen map[string]bool) {
	switch n.Data {
	case "html":
		result.Lang = strings.TrimSpace(getAttr(n, "lang"))

	case "title":
		if result.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			result.Title = strings.TrimSpace(n.FirstChild.Data)
		}

	case "a", "area":
		if strings.Contains(strings.ToLower(getAttr(n, "rel")), "nofollow") {
			return
		}
		resolved := p.resolveURL(getAttr(n, "href"))
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		result.Links = append(result.Links, resolved)
		p.classifyLink(resolved, result)

	case "meta":
		if !strings.EqualFold(getAttr(n, "name"), "robots") {
			return
		}
		content := strings.ToLower(getAttr(n, "content"))
		if strings.Contains(content, "nofollow") || strings.Contains(content, "none") {
			result.NoFollow = true
		}
	}
}

// resolveURL resolves href against the base URL and drops the fragment.
// Non-navigational schemes resolve to "".
func (p *Parser) resolveURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	u, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := p.baseURL.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}

// classifyLink sorts a link into internal or external.
func (p *Parser) classifyLink(link string, result *ParseResult) {
	u, err := url.Parse(link)
	if err != nil {
		return
	}
	if strings.EqualFold(u.Host, p.baseURL.Host) {
		result.InternalLinks = append(result.InternalLinks, link)
		return
	}
	result.ExternalLinks = append(result.ExternalLinks, link)
}

// findBase returns the href of the first <base> element.
func findBase(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "base" {
		return getAttr(n, "href")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if href := findBase(c); href != "" {
			return href
		}
	}
	return ""
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
