package cssrules

import (
	"testing"

	"github.com/nao1215/a11yscan/internal/dom"
)

func TestParseDeclarations(t *testing.T) {
	t.Parallel()

	decls := ParseDeclarations("color: #333; Background-Color: rgb(255, 255, 255) ; outline:none !important;;width:")

	tests := []struct {
		property string
		want     string
		ok       bool
	}{
		{"color", "#333", true},
		{"background-color", "rgb(255, 255, 255)", true},
		{"outline", "none", true},
		{"width", "", false},
		{"height", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			t.Parallel()
			got, ok := decls.Get(tt.property)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Get(%q) = %q, %v; want %q, %v", tt.property, got, ok, tt.want, tt.ok)
			}
		})
	}

	if len(decls) != 3 {
		t.Fatalf("len(decls) = %d, want 3", len(decls))
	}
	if !decls[2].Important {
		t.Error("outline should be marked !important")
	}
}

func TestDeclarationsLastWins(t *testing.T) {
	t.Parallel()

	decls := ParseDeclarations("color: red; color: #000")
	if got, _ := decls.Get("color"); got != "#000" {
		t.Errorf("Get(color) = %q, want #000", got)
	}
	if !decls.Has("COLOR") {
		t.Error("Has should be case-insensitive")
	}
}

func TestDeclarationsBackground(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		style string
		want  string
		ok    bool
	}{
		{name: "background-color", style: "background-color: #fff", want: "#fff", ok: true},
		{name: "shorthand with url", style: "background: url(bg.png) #eee no-repeat", want: "#eee", ok: true},
		{name: "shorthand with rgb", style: "background: rgb(1, 2, 3) repeat-x", want: "rgb(1, 2, 3)", ok: true},
		{name: "named", style: "background: white", want: "white", ok: true},
		{name: "none", style: "background: none", ok: false},
		{name: "later wins", style: "background: #000; background-color: #111", want: "#111", ok: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDeclarations(tt.style).Background()
			if ok != tt.ok {
				t.Fatalf("Background() ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("Background() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	markup := `<html><head><style>
option:hover, option:focus { color: #000000; background-color: #f1f4f4; }
option[selected] { background: #fff; color: #BAC7CB; color: #000 }
.empty { margin: 0 }
select option.active { color: rgb(0, 0, 0) }
</style><style>option:hover { color: #111 }</style></head><body></body></html>`

	rules := Extract(markup)

	if _, ok := rules[".empty"]; ok {
		t.Error("a block without colors should not create a rule")
	}

	hover := rules["option:hover"]
	if hover.Color != "#111" || hover.Background != "#f1f4f4" {
		t.Errorf("option:hover = %+v, later block should override color only", hover)
	}
	if focus := rules["option:focus"]; focus.Color != "#000000" {
		t.Errorf("option:focus color = %q, want #000000", focus.Color)
	}

	selected := rules["option[selected]"]
	if selected.Color != "#BAC7CB" {
		t.Errorf("option[selected] color = %q, first declaration in a block wins", selected.Color)
	}
	if selected.Background != "#fff" {
		t.Errorf("option[selected] background = %q, want #fff", selected.Background)
	}
}

func TestRulesLookup(t *testing.T) {
	t.Parallel()

	rules := Rules{
		"select option.active": {Color: "#111"},
		"option[selected]":     {Color: "#222"},
		"b option.active":      {Color: "#333"},
	}

	tests := []struct {
		selector string
		want     string
		ok       bool
	}{
		{"option[selected]", "#222", true},
		{"option.active", "#333", true},
		{"option:hover", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			t.Parallel()
			got, ok := rules.Lookup(tt.selector)
			if ok != tt.ok || got.Color != tt.want {
				t.Errorf("Lookup(%q) = %+v, %v", tt.selector, got, ok)
			}
		})
	}

	if got := (Colors{}).ColorOr("#000"); got != "#000" {
		t.Errorf("ColorOr default = %q", got)
	}
	if got := (Colors{Background: "#eee"}).BackgroundOr("#fff"); got != "#eee" {
		t.Errorf("BackgroundOr = %q", got)
	}
}

func TestBlocks(t *testing.T) {
	t.Parallel()

	doc := dom.Parse("page.html", `<html><head><style>
.wide, .box { width: 960px; overflow-x: scroll }
@media (min-width: 600px) { p { } }
</style></head><body></body></html>`)

	blocks := Blocks(doc)
	if len(blocks) != 2 {
		t.Fatalf("Blocks() returned %d blocks, want 2", len(blocks))
	}
	if got := blocks[0].Selectors; len(got) != 2 || got[0] != ".wide" || got[1] != ".box" {
		t.Errorf("selectors = %q, want [.wide .box]", got)
	}
	if v, _ := blocks[0].Declarations.Get("width"); v != "960px" {
		t.Errorf("width = %q, want 960px", v)
	}
	if got := blocks[1].Selectors; len(got) != 1 || got[0] != "p" {
		t.Errorf("selectors inside @media = %q, want [p]", got)
	}
	if len(blocks[1].Declarations) != 0 {
		t.Errorf("empty block has %d declarations", len(blocks[1].Declarations))
	}
}
