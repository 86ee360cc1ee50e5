package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Tag returns the lower-case tag name of the first node in s.
func Tag(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 || s.Nodes[0].Type != html.ElementNode {
		return ""
	}
	return s.Nodes[0].Data
}

// Attr returns the value of attribute name, or def when absent.
func Attr(s *goquery.Selection, name, def string) string {
	if s == nil || len(s.Nodes) == 0 {
		return def
	}
	if v, ok := nodeAttr(s.Nodes[0], name); ok {
		return v
	}
	return def
}

// HasAttr reports whether the attribute is present, regardless of value.
func HasAttr(s *goquery.Selection, name string) bool {
	if s == nil || len(s.Nodes) == 0 {
		return false
	}
	_, ok := nodeAttr(s.Nodes[0], name)
	return ok
}

// AttrLower returns the trimmed, lower-cased attribute value ("" when absent).
func AttrLower(s *goquery.Selection, name string) string {
	return strings.ToLower(strings.TrimSpace(Attr(s, name, "")))
}

// Classes returns the class tokens of the element.
func Classes(s *goquery.Selection) []string {
	return strings.Fields(Attr(s, "class", ""))
}

// HasClass reports whether any of classes is in the element's class list.
func HasClass(s *goquery.Selection, classes ...string) bool {
	for _, token := range Classes(s) {
		for _, c := range classes {
			if token == c {
				return true
			}
		}
	}
	return false
}

// ClassContains reports whether any class token contains substr.
func ClassContains(s *goquery.Selection, substr string) bool {
	for _, token := range Classes(s) {
		if strings.Contains(strings.ToLower(token), substr) {
			return true
		}
	}
	return false
}

// Text returns the element's descendant text with whitespace collapsed.
func Text(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 {
		return ""
	}
	return normalize(s.Text())
}

// Snippet returns Text truncated to at most n runes.
func Snippet(s *goquery.Selection, n int) string {
	text := []rune(Text(s))
	if len(text) <= n {
		return string(text)
	}
	return string(text[:n])
}

// Parent returns the parent element, or an empty selection at the root.
func Parent(s *goquery.Selection) *goquery.Selection {
	return s.Parent()
}

// Ancestors returns the element's ancestors from nearest to farthest.
func Ancestors(s *goquery.Selection) []*goquery.Selection {
	var result []*goquery.Selection
	s.Parents().Each(func(_ int, p *goquery.Selection) {
		result = append(result, p)
	})
	return result
}

// Closest returns the nearest ancestor whose tag is one of tags, or nil.
func Closest(s *goquery.Selection, tags ...string) *goquery.Selection {
	set := tagSet(tags)
	for _, a := range Ancestors(s) {
		if set.match(a.Nodes[0]) {
			return a
		}
	}
	return nil
}

// Children returns the element children in order.
func Children(s *goquery.Selection) []*goquery.Selection {
	var result []*goquery.Selection
	s.Children().Each(func(_ int, c *goquery.Selection) {
		result = append(result, c)
	})
	return result
}

// NextElementSiblings returns the following element siblings in order.
func NextElementSiblings(s *goquery.Selection) []*goquery.Selection {
	var result []*goquery.Selection
	s.NextAll().Each(func(_ int, c *goquery.Selection) {
		result = append(result, c)
	})
	return result
}

// PreviousTextNode returns the text of the nearest preceding sibling text
// node. Whitespace-only text and comments are skipped; an element sibling
// ends the search. The result is trimmed and may be empty.
func PreviousTextNode(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].PrevSibling; n != nil; n = n.PrevSibling {
		if text, stop := adjacentText(n); stop {
			return text
		}
	}
	return ""
}

// NextTextNode is the forward counterpart of PreviousTextNode.
func NextTextNode(s *goquery.Selection) string {
	if s == nil || len(s.Nodes) == 0 {
		return ""
	}
	for n := s.Nodes[0].NextSibling; n != nil; n = n.NextSibling {
		if text, stop := adjacentText(n); stop {
			return text
		}
	}
	return ""
}

func adjacentText(n *html.Node) (string, bool) {
	switch n.Type {
	case html.TextNode:
		text := normalize(n.Data)
		return text, text != ""
	case html.ElementNode:
		return "", true
	default:
		return "", false
	}
}

func nodeAttr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val, true
		}
	}
	return "", false
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
