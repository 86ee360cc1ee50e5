package checker

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/nao1215/a11yscan/internal/model"
)

func TestFixedLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  float64
		fixed bool
	}{
		{"200px", 200, true},
		{" 12PT ", 16, true},
		{"1in", 96, true},
		{"2.54cm", 96, true},
		{"50%", 0, false},
		{"10em", 0, false},
		{"auto", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, ok := fixedLength(tt.in)
			if ok != tt.fixed || math.Abs(got-tt.want) > 0.001 {
				t.Errorf("fixedLength(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.fixed)
			}
		})
	}
}

func TestTextSpacingCropping(t *testing.T) {
	t.Parallel()

	const markup = `<p style="overflow: hidden">a</p>
<div style="height: 40px; overflow-y: hidden">b</div>
<section style="height: 50%">c</section>
<span style="color: red">d</span>
<li style="overflow: hidden">e</li>`

	got := titles(check(t, "text-spacing-cropping", markup))
	want := []string{
		"Content may be cropped with text spacing adjustments",
		"Content may be cropped with text spacing adjustments",
		"Fixed height detected, may crop text",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("titles = %v, want %v", got, want)
	}
}

func TestMenuTextSpacing(t *testing.T) {
	t.Parallel()

	const markup = `<nav class="navbar">
<ul class="menu">
<li style="white-space: nowrap"><a href="/" style="overflow: hidden; max-height: 20px">Home</a></li>
<li><a href="/shop">Shop</a></li>
</ul>
</nav>
<ul class="list"><li style="white-space: nowrap">not a menu</li></ul>`

	got := check(t, "menu-text-spacing", markup)
	counts := make(map[string]int)
	for _, inc := range got {
		counts[inc.Title]++
	}
	want := map[string]int{
		"Text does not wrap in the menu":                         1,
		"Menu text may be cropped with text spacing adjustments": 1,
		"Menu items may be cut off":                              1,
	}
	if !reflect.DeepEqual(counts, want) {
		t.Errorf("titles = %v, want %v (nested menus must not double count)", counts, want)
	}
}

func TestZoomTextCutoff(t *testing.T) {
	t.Parallel()

	const markup = `<div style="height: 100px">a</div>
<p style="overflow:hidden">b</p>
<p style="max-height: 10em">c</p>
<span class="text-truncate">Long product name</span>
<span class="truncate">Other</span>`

	got := check(t, "zoom-text-cutoff", markup)
	styled := withTitle(got, "Text may be cut off at 200% zoom")
	if len(styled) != 1 || len(styled[0].AffectedElements) != 2 {
		t.Fatalf("style hits = %+v, want one aggregate over 2 elements", styled)
	}
	if styled[0].Severity != model.SeverityHigh {
		t.Errorf("Severity = %v, want High", styled[0].Severity)
	}

	truncated := withTitle(got, "Text truncation detected")
	if len(truncated) != 2 {
		t.Fatalf("truncation hits = %d, want one per element", len(truncated))
	}
	for _, inc := range truncated {
		if inc.Element == nil || inc.Severity != model.SeverityMedium {
			t.Errorf("truncation incidence = %+v", inc)
		}
	}
}

func TestReflow320(t *testing.T) {
	t.Parallel()

	const markup = `<html><head><style>
.container { width: 960px }
.capped { width: 960px; max-width: 100% }
.narrow { width: 200px }
</style></head><body>
<div style="width: 800px">a</div>
<div style="min-width: 500px">b</div>
<div style="width: 100px">c</div>
<div style="overflow-x: scroll">d</div>
<table style="overflow-x: auto"><tr><td>e</td></tr></table>
</body></html>`

	got := check(t, "reflow-320px", markup)

	inline := withTitle(got, "Fixed width elements detected (inline styles)")
	if len(inline) != 1 || len(inline[0].AffectedElements) != 2 {
		t.Errorf("inline = %+v, want one aggregate over 2 elements", inline)
	}

	css := withTitle(got, "Fixed width detected in CSS")
	if len(css) != 1 || css[0].Extra["selector"] != ".container" || css[0].Element != nil {
		t.Errorf("css = %+v, want one page-level incidence for .container", css)
	}

	scrolling := withTitle(got, "Horizontal scrolling detected")
	if len(scrolling) != 1 || scrolling[0].Element == nil || scrolling[0].Element.Tag != "div" {
		t.Errorf("scrolling = %+v, want the div only", scrolling)
	}
}

func TestLayoutStyleRules(t *testing.T) {
	t.Parallel()

	const markup = `<html><head><style>
.box { height: 40px; overflow: hidden }
.grow { height: 40px; min-height: 40px }
.menu li { white-space: nowrap }
.navbar-brand { white-space: nowrap }
</style></head><body>
<div class="box">Long text</div>
<div style="height: 60px; min-height: 60px">grows</div>
</body></html>`

	t.Run("text spacing", func(t *testing.T) {
		t.Parallel()

		got := check(t, "text-spacing-cropping", markup)
		want := []string{
			"Content may be cropped with text spacing adjustments",
			"Fixed height detected, may crop text",
		}
		if !reflect.DeepEqual(titles(got), want) {
			t.Fatalf("titles = %v, want %v", titles(got), want)
		}
		for _, inc := range got {
			if inc.Element != nil || inc.Extra["selector"] != ".box" {
				t.Errorf("incidence = %+v, want a page-level hit on .box", inc)
			}
		}
	})

	t.Run("zoom", func(t *testing.T) {
		t.Parallel()

		got := withTitle(check(t, "zoom-text-cutoff", markup), "Text may be cut off at 200% zoom")
		if len(got) != 1 || got[0].Extra["selector"] != ".box" {
			t.Fatalf("got %+v, want one hit on .box", got)
		}
		if !strings.Contains(got[0].Description, "overflow hidden, height: 40px") {
			t.Errorf("Description = %q", got[0].Description)
		}
	})

	t.Run("menu", func(t *testing.T) {
		t.Parallel()

		got := check(t, "menu-text-spacing", markup)
		if len(got) != 1 || got[0].Title != "Text does not wrap in the menu" || got[0].Extra["selector"] != ".menu li" {
			t.Errorf("got %+v, want one nowrap hit on .menu li", got)
		}
	})
}

func TestTargetsMenu(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"nav a":              true,
		"nav#main > li":      true,
		"ul.menu li":         true,
		".navbar .item":      true,
		"div.nav-menu:hover": true,
		".navbar-brand":      false,
		".menus":             false,
		"p":                  false,
	}
	for sel, want := range tests {
		if got := targetsMenu([]string{sel}); got != want {
			t.Errorf("targetsMenu(%q) = %v, want %v", sel, got, want)
		}
	}
}
