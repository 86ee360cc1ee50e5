package cssrules

import (
	"sort"
	"strings"

	"github.com/nao1215/a11yscan/internal/dom"
)

// Colors holds the color properties declared for one selector. Empty
// fields were not declared.
type Colors struct {
	Color      string
	Background string
}

// Rules maps a trimmed selector to its declared colors.
type Rules map[string]Colors

// Extract collects color rules from every <style> block of markup.
func Extract(markup string) Rules {
	return ExtractDocument(dom.Parse("", markup))
}

// Block is one rule of a <style> block.
type Block struct {
	// Selectors lists the comma-separated selectors, trimmed.
	Selectors    []string
	Declarations Declarations
}

// Blocks returns every rule of every <style> block in document order. Each
// style is split on "}" and each chunk on its last "{"; text before an
// earlier "{" belongs to an at-rule such as @media and is dropped.
func Blocks(doc *dom.Document) []Block {
	var blocks []Block
	for _, style := range doc.StyleBlocks() {
		for _, chunk := range strings.Split(style, "}") {
			chunk = strings.TrimSpace(chunk)
			if chunk == "" {
				continue
			}
			idx := strings.LastIndex(chunk, "{")
			if idx < 0 {
				continue
			}
			selectors, body := chunk[:idx], chunk[idx+1:]
			if j := strings.LastIndex(selectors, "{"); j >= 0 {
				selectors = selectors[j+1:]
			}
			b := Block{Declarations: ParseDeclarations(body)}
			for _, sel := range strings.Split(selectors, ",") {
				if sel = strings.TrimSpace(sel); sel != "" {
					b.Selectors = append(b.Selectors, sel)
				}
			}
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// ExtractDocument is Extract over an already parsed document.
//
// Within a block only the first color and the first background declaration
// count; a later block for the same selector overrides the properties it
// declares.
func ExtractDocument(doc *dom.Document) Rules {
	rules := make(Rules)
	for _, b := range Blocks(doc) {
		found := firstColors(b.Declarations)
		if found.Color == "" && found.Background == "" {
			continue
		}
		for _, sel := range b.Selectors {
			current := rules[sel]
			if found.Color != "" {
				current.Color = found.Color
			}
			if found.Background != "" {
				current.Background = found.Background
			}
			rules[sel] = current
		}
	}
	return rules
}

func firstColors(decls Declarations) Colors {
	var c Colors
	for _, d := range decls {
		switch d.Property {
		case "color":
			if c.Color == "" {
				if v, ok := FirstColor(d.Value); ok {
					c.Color = v
				}
			}
		case "background", "background-color":
			if c.Background == "" {
				if v, ok := FirstColor(d.Value); ok {
					c.Background = v
				}
			}
		}
	}
	return c
}

// Lookup returns the rule for selector. When no key matches exactly, the
// first key (in sorted order) that contains selector once its spaces are
// removed is used, so "option[selected]" finds "select option[selected]".
func (r Rules) Lookup(selector string) (Colors, bool) {
	if c, ok := r[selector]; ok {
		return c, true
	}
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if strings.Contains(strings.ReplaceAll(k, " ", ""), selector) {
			return r[k], true
		}
	}
	return Colors{}, false
}

// ColorOr returns the rule's text color or def.
func (c Colors) ColorOr(def string) string {
	if c.Color == "" {
		return def
	}
	return c.Color
}

// BackgroundOr returns the rule's background or def.
func (c Colors) BackgroundOr(def string) string {
	if c.Background == "" {
		return def
	}
	return c.Background
}
