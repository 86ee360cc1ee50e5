package dom

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/nao1215/a11yscan/internal/model"
)

// Line returns the 1-based source line of the element's start tag, or 0
// when the element was synthesized by the parser (implied <tbody>, <body>...).
//
// The parse tree carries no positions, so the raw markup is re-tokenized and
// the k-th element of a tag in tree order is matched with the k-th start tag
// of that name in the source.
func (d *Document) Line(s *goquery.Selection) int {
	if s == nil || len(s.Nodes) == 0 {
		return 0
	}
	d.linesOnce.Do(d.indexLines)
	return d.lines[s.Nodes[0]]
}

// ElementInfo describes s for an incidence.
func (d *Document) ElementInfo(s *goquery.Selection) model.ElementInfo {
	id := strings.TrimSpace(Attr(s, "id", ""))
	if id == "" {
		id = "N/A"
	}
	class := strings.Join(Classes(s), " ")
	if class == "" {
		class = "N/A"
	}
	return model.ElementInfo{
		Tag:   Tag(s),
		Text:  Snippet(s, 50),
		ID:    id,
		Class: class,
		Line:  d.Line(s),
	}
}

// ElementInfos describes several elements.
func (d *Document) ElementInfos(sels []*goquery.Selection) []model.ElementInfo {
	infos := make([]model.ElementInfo, 0, len(sels))
	for _, s := range sels {
		infos = append(infos, d.ElementInfo(s))
	}
	return infos
}

func (d *Document) indexLines() {
	d.lines = make(map[*html.Node]int)

	starts := make(map[string][]int)
	z := html.NewTokenizer(strings.NewReader(d.raw))
	line := 1
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := z.Raw()
		if tt == html.StartTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			starts[string(name)] = append(starts[string(name)], line)
		}
		line += strings.Count(string(raw), "\n")
	}

	seen := make(map[string]int)
	walk(d.doc.Nodes, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		k := seen[n.Data]
		seen[n.Data] = k + 1
		if k < len(starts[n.Data]) {
			d.lines[n] = starts[n.Data][k]
		}
	})
}
