package dom

import (
	"testing"
)

const sample = `<!DOCTYPE html>
<html lang="en">
<head><title>  Shop |  Example </title>
<meta property="og:site_name" content="Example">
<style>.a { color: red; }</style>
</head>
<body>
<div id="menu" class="nav main">
  <a href="/">Home</a>
  <span role="Button">Go</span>
</div>
<p>Before <img src="logo.png" alt="Logo"> after</p>
<script>var x = 1;</script>
</body>
</html>`

// TestParse tests parsing and the basic document accessors.
func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("exposes source, title and lang", func(t *testing.T) {
		t.Parallel()

		d := Parse("index.html", sample)
		if d.Source() != "index.html" {
			t.Errorf("Source() = %q", d.Source())
		}
		if d.Title() != "Shop | Example" {
			t.Errorf("Title() = %q", d.Title())
		}
		if d.Lang() != "en" {
			t.Errorf("Lang() = %q", d.Lang())
		}
		if d.Meta("og:site_name") != "Example" {
			t.Errorf("Meta() = %q", d.Meta("og:site_name"))
		}
	})

	t.Run("tolerates malformed markup", func(t *testing.T) {
		t.Parallel()

		inputs := []string{
			"",
			"<div><p>unclosed",
			"<ul><li>one<li>two</ul></div></div>",
			"<img src=x alt",
			"<<<>>>",
		}
		for _, in := range inputs {
			d := Parse("broken.html", in)
			if d.Root() == nil {
				t.Errorf("nil root for %q", in)
			}
			_ = d.FindAll()
			_ = d.VisibleTextFragments()
		}
	})
}

// TestQueries tests the element finders.
func TestQueries(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)

	t.Run("FindAll by tag", func(t *testing.T) {
		t.Parallel()
		if got := len(d.FindAll("a", "span")); got != 2 {
			t.Errorf("expected 2 elements, got %d", got)
		}
	})

	t.Run("FindByAttr", func(t *testing.T) {
		t.Parallel()
		if got := len(d.FindByAttr("href")); got != 1 {
			t.Errorf("expected 1 element with href, got %d", got)
		}
		if got := len(d.FindByAttr("src", "script")); got != 0 {
			t.Errorf("expected no script with src, got %d", got)
		}
	})

	t.Run("FindByAttrValue", func(t *testing.T) {
		t.Parallel()
		got := d.FindByAttrValue("id", "menu")
		if len(got) != 1 || Tag(got[0]) != "div" {
			t.Errorf("expected div#menu, got %d elements", len(got))
		}
	})

	t.Run("FindByClass matches tokens not substrings", func(t *testing.T) {
		t.Parallel()
		if got := len(d.FindByClass([]string{"nav"})); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
		if got := len(d.FindByClass([]string{"na"})); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("FindByRole is case-insensitive", func(t *testing.T) {
		t.Parallel()
		if got := len(d.FindByRole([]string{"button"})); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
	})

	t.Run("Select uses CSS selectors", func(t *testing.T) {
		t.Parallel()
		if got := len(d.Select("div#menu > a")); got != 1 {
			t.Errorf("expected 1, got %d", got)
		}
		if got := len(d.Select("[[invalid")); got != 0 {
			t.Errorf("invalid selector should match nothing, got %d", got)
		}
	})
}

// TestElementHelpers tests attribute and text helpers.
func TestElementHelpers(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)
	menu := d.FindByAttrValue("id", "menu")[0]

	if !HasClass(menu, "main") {
		t.Error("expected class main")
	}
	if !ClassContains(menu, "ai") {
		t.Error("expected a class containing \"ai\"")
	}
	if Attr(menu, "data-x", "fallback") != "fallback" {
		t.Error("missing attribute should return default")
	}
	if Text(menu) != "Home Go" {
		t.Errorf("Text() = %q", Text(menu))
	}
	if Snippet(menu, 3) != "Hom" {
		t.Errorf("Snippet() = %q", Snippet(menu, 3))
	}
	if len(Children(menu)) != 2 {
		t.Errorf("expected 2 children, got %d", len(Children(menu)))
	}

	link := d.FindAll("a")[0]
	if Closest(link, "div") == nil {
		t.Error("Closest(div) should find the menu")
	}
	if Closest(link, "table") != nil {
		t.Error("Closest(table) should be nil")
	}
}

// TestAdjacentText tests the sibling text primitives.
func TestAdjacentText(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)
	img := d.FindAll("img")[0]

	if got := PreviousTextNode(img); got != "Before" {
		t.Errorf("PreviousTextNode() = %q", got)
	}
	if got := NextTextNode(img); got != "after" {
		t.Errorf("NextTextNode() = %q", got)
	}

	d2 := Parse("x.html", `<p><b>bold</b><img src="a.png" alt="a"></p>`)
	if got := PreviousTextNode(d2.FindAll("img")[0]); got != "" {
		t.Errorf("element sibling should stop the search, got %q", got)
	}
}

// TestLine tests source line lookup.
func TestLine(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)

	testCases := []struct {
		tag  string
		want int
	}{
		{"html", 2},
		{"div", 8},
		{"a", 9},
		{"img", 12},
	}
	for _, tc := range testCases {
		t.Run(tc.tag, func(t *testing.T) {
			t.Parallel()
			if got := d.Line(d.FindAll(tc.tag)[0]); got != tc.want {
				t.Errorf("Line(%s) = %d, want %d", tc.tag, got, tc.want)
			}
		})
	}

	t.Run("synthesized elements have no line", func(t *testing.T) {
		t.Parallel()
		frag := Parse("frag.html", "<table><tr><td>x</td></tr></table>")
		if got := frag.Line(frag.FindAll("tbody")[0]); got != 0 {
			t.Errorf("implied tbody should have line 0, got %d", got)
		}
	})
}

// TestElementInfo tests incidence element descriptions.
func TestElementInfo(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)
	info := d.ElementInfo(d.FindAll("span")[0])
	if info.Tag != "span" || info.ID != "N/A" || info.Class != "N/A" || info.Text != "Go" {
		t.Errorf("unexpected info %+v", info)
	}
	if info.Line != 10 {
		t.Errorf("expected line 10, got %d", info.Line)
	}
}

// TestVisibleTextFragments tests that non-rendered text is excluded.
func TestVisibleTextFragments(t *testing.T) {
	t.Parallel()

	d := Parse("index.html", sample)
	for _, f := range d.VisibleTextFragments() {
		if f == "var x = 1;" || f == ".a { color: red; }" || f == "Shop | Example" {
			t.Errorf("invisible text leaked: %q", f)
		}
	}
	if len(d.Scripts()) != 1 {
		t.Errorf("expected 1 script, got %d", len(d.Scripts()))
	}
	if d.StyleText() == "" {
		t.Error("expected style text")
	}
}
