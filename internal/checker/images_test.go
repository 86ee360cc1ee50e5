package checker

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/a11yscan/internal/model"
)

// imagesDir returns a temporary folder holding empty files with the given names.
func imagesDir(t *testing.T, names ...string) string {
	t.Helper()

	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("img"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestImagesDecorative(t *testing.T) {
	t.Parallel()

	t.Run("missing alt is one high incidence with src", func(t *testing.T) {
		t.Parallel()

		got := check(t, "images-decorative", `<img src="/img/hero.jpg"><img src="/img/ok.jpg" alt="Team photo">`)
		if len(got) != 1 {
			t.Fatalf("got %d incidences, want 1", len(got))
		}
		inc := got[0]
		if inc.Title != "Missing alt attribute" || inc.Severity != model.SeverityHigh {
			t.Errorf("incidence = %+v", inc)
		}
		if !strings.Contains(inc.Description, "/img/hero.jpg") || inc.Extra["src"] != "/img/hero.jpg" {
			t.Errorf("Description = %q, extra = %v, want the src", inc.Description, inc.Extra)
		}
	})

	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"decorative image done right", `<img src="line.png" alt="">`, nil},
		{"decorative image in tab order", `<img src="line.png" alt="" tabindex="0">`, []string{"Decorative image is focused and announced"}},
		{"decorative file with alt", `<img src="/decorative/wave.svg" alt="wave">`, []string{"Decorative image has incorrect alt"}},
		{"bare hr", `<hr>`, []string{"Decorative separator is focused and announced"}},
		{"hidden hr", `<hr aria-hidden="true"><hr role="presentation">`, nil},
		{"styled divider", `<div class="divider"></div>`, nil},
		{"focusable divider", `<div class="divider" tabindex="0"></div>`, []string{"Decorative separator is focused and announced"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := titles(check(t, "images-decorative", tt.markup))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingAltReportedOnce(t *testing.T) {
	t.Parallel()

	markup := `<a href="/"><img src="logo.png"></a><p>Logo <img src="x.png"> text</p>`
	dir := imagesDir(t, "logo.png", "x.png")
	opts := []func(*Options){
		WithImagesDir(dir),
		withSimilarity(fakeScorer{score: 1}),
		withExtractor(fakeExtractor{text: "ACME"}),
	}

	total := 0
	for _, name := range []string{"images-decorative", "icons-informative", "alt-distinction", "informative-images", "images-of-text"} {
		total += len(check(t, name, markup, opts...))
	}
	if total != 2 {
		t.Errorf("image checkers reported %d incidences, want only the 2 missing-alt ones", total)
	}
}

func TestIconsInformative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   []string
	}{
		{"bare icon", `<span class="fa fa-cart"></span>`, []string{"Informative icon is not announced"}},
		{"hidden icon in named button", `<button>Cart <i class="fa fa-cart" aria-hidden="true"></i></button>`, nil},
		{"icon inside named link", `<a href="/cart" aria-label="Cart"><i class="icon icon-cart"></i></a>`, nil},
		{"labelled icon", `<i class="material-icons" aria-label="Warning">warning</i>`, nil},
		{"captioned image with empty alt", `<figure><img src="chart.png" alt=""><figcaption>Sales by month</figcaption></figure>`, []string{"Informative image is not set as such"}},
		{"titled image with empty alt", `<img src="a.png" alt="" title="Opening hours">`, []string{"Informative image is not set as such"}},
		{"plain decorative image", `<img src="a.png" alt="">`, nil},
		{"svg without name", `<svg viewBox="0 0 10 10"><path d="M0 0h10"/></svg>`, []string{"Informative SVG is not accessible"}},
		{"svg with title", `<svg><title>Logo</title></svg>`, nil},
		{"hidden svg", `<svg aria-hidden="true"></svg>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := titles(check(t, "icons-informative", tt.markup))
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("titles = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAltDistinction(t *testing.T) {
	t.Parallel()

	t.Run("empty alt in link without text", func(t *testing.T) {
		t.Parallel()

		got := check(t, "alt-distinction", `<a href="/"><img src="home.png" alt=""></a><a href="/x"><img src="x.png" alt="">Next</a>`)
		if len(got) != 1 || got[0].Title != "Link/button without accessible text" {
			t.Fatalf("got %v", titles(got))
		}
		if got[0].Element == nil || got[0].Element.Tag != "a" || got[0].Severity != model.SeverityHigh {
			t.Errorf("incidence = %+v, want the high link", got[0])
		}
	})

	t.Run("redundant alt above threshold", func(t *testing.T) {
		t.Parallel()

		got := check(t, "alt-distinction", `<p><img src="p.png" alt="Jane Doe"> Jane Doe, CEO</p>`, withSimilarity(fakeScorer{score: 0.93}))
		if len(got) != 1 || got[0].Title != "Redundant alternative text" {
			t.Fatalf("got %v", titles(got))
		}
		if got[0].Extra["similarity"] != 0.93 || !strings.Contains(got[0].Description, "0.93") {
			t.Errorf("incidence = %+v", got[0])
		}
	})

	t.Run("distinct alt below threshold", func(t *testing.T) {
		t.Parallel()

		got := check(t, "alt-distinction", `<p><img src="p.png" alt="Portrait"> Jane Doe, CEO</p>`, withSimilarity(fakeScorer{score: 0.2}))
		if len(got) != 0 {
			t.Errorf("got %v, want none", titles(got))
		}
	})

	t.Run("scorer failure is a tooling incidence", func(t *testing.T) {
		t.Parallel()

		got := check(t, "alt-distinction", `<p>Before <img src="p.png" alt="Jane"></p>`, withSimilarity(fakeScorer{err: errors.New("model not loaded")}))
		if len(got) != 1 {
			t.Fatalf("got %d incidences, want 1", len(got))
		}
		inc := got[0]
		if inc.Category != model.CategoryTestExecution || inc.WCAG != nil || inc.Severity != model.SeverityMedium {
			t.Errorf("incidence = %+v, want a test execution failure", inc)
		}
		if !strings.Contains(inc.Description, "model not loaded") {
			t.Errorf("Description = %q", inc.Description)
		}
	})

	t.Run("slow scorer times out", func(t *testing.T) {
		t.Parallel()

		got := check(t, "alt-distinction", `<p>Before <img src="p.png" alt="Jane"></p>`,
			withSimilarity(blockingScorer{}), func(o *Options) { o.CallTimeout = 10 * time.Millisecond })
		if len(got) != 1 || got[0].Category != model.CategoryTestExecution {
			t.Errorf("got %+v, want one timeout incidence", got)
		}
	})

	t.Run("no scorer skips redundancy", func(t *testing.T) {
		t.Parallel()

		if got := check(t, "alt-distinction", `<p>Jane <img src="p.png" alt="Jane"></p>`, withSimilarity(nil)); len(got) != 0 {
			t.Errorf("got %v, want none", titles(got))
		}
	})
}

func TestGenericAlt(t *testing.T) {
	t.Parallel()

	for alt, want := range map[string]bool{
		"image":              true,
		"Photo.":             true,
		"logos":              true,
		"an icon":            true,
		"A banner":           true,
		"Logo of ACME Corp":  false,
		"Sales grew in 2024": false,
	} {
		if got := genericAlt(alt); got != want {
			t.Errorf("genericAlt(%q) = %v, want %v", alt, got, want)
		}
	}
}

func TestInformativeImages(t *testing.T) {
	t.Parallel()

	t.Run("generic alt", func(t *testing.T) {
		t.Parallel()

		got := check(t, "informative-images", `<img src="chart.png" alt="Chart">`)
		if len(got) != 1 || got[0].Title != "Informative image has a generic alt text" {
			t.Errorf("got %v", titles(got))
		}
	})

	t.Run("alt missing most image words", func(t *testing.T) {
		t.Parallel()

		dir := imagesDir(t, "sale.png")
		got := check(t, "informative-images", `<img src="https://cdn.example.com/img/sale.png?v=2" alt="Summer offer">`,
			WithImagesDir(dir), withExtractor(fakeExtractor{text: "50% off all shoes until Sunday"}))
		if len(got) != 1 || got[0].Title != "Alt text may be inaccurate compared to image text" {
			t.Fatalf("got %v", titles(got))
		}
		if overlap, _ := got[0].Extra["overlap"].(float64); overlap != 0 {
			t.Errorf("overlap = %v, want 0", got[0].Extra["overlap"])
		}
	})

	t.Run("alt repeating image words", func(t *testing.T) {
		t.Parallel()

		dir := imagesDir(t, "sale.png")
		got := check(t, "informative-images", `<img src="sale.png" alt="50% off all shoes until Sunday">`,
			WithImagesDir(dir), withExtractor(fakeExtractor{text: "50% OFF all shoes until Sunday"}))
		if len(got) != 0 {
			t.Errorf("got %v, want none", titles(got))
		}
	})

	t.Run("images that were not downloaded are skipped", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		got := check(t, "informative-images", `<img src="missing.png" alt="Summer offer">`,
			WithImagesDir(t.TempDir()), withExtractor(fakeExtractor{text: "x", calls: &calls}))
		if len(got) != 0 || calls.Load() != 0 {
			t.Errorf("got %v with %d extractor calls, want none", titles(got), calls.Load())
		}
	})

	t.Run("extractor panic is a tooling incidence", func(t *testing.T) {
		t.Parallel()

		dir := imagesDir(t, "sale.png")
		got := check(t, "informative-images", `<img src="sale.png" alt="Summer offer">`,
			WithImagesDir(dir), withExtractor(panickingExtractor{}))
		if len(got) != 1 || got[0].Category != model.CategoryTestExecution {
			t.Fatalf("got %+v", got)
		}
		if !strings.Contains(got[0].Description, "decoder crashed") {
			t.Errorf("Description = %q", got[0].Description)
		}
	})
}

func TestImagesOfText(t *testing.T) {
	t.Parallel()

	dir := imagesDir(t, "banner.png")
	tests := []struct {
		name   string
		markup string
		want   int
	}{
		{"text not repeated", `<img src="banner.png" alt="Banner">`, 1},
		{"text in alt", `<img src="banner.png" alt="Free shipping over $50">`, 0},
		{"text after image", `<p><img src="banner.png" alt=""> free  shipping over $50</p>`, 0},
		{"no alt is left to images-decorative", `<img src="banner.png">`, 0},
		{"not downloaded", `<img src="other.png" alt="x">`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := check(t, "images-of-text", tt.markup,
				WithImagesDir(dir), withExtractor(fakeExtractor{text: "FREE SHIPPING\nover $50"}))
			if len(got) != tt.want {
				t.Fatalf("got %v, want %d incidences", titles(got), tt.want)
			}
			if tt.want > 0 && (got[0].Criterion() != "1.4.5" || got[0].Extra["image_text"] != "free shipping over $50") {
				t.Errorf("incidence = %+v", got[0])
			}
		})
	}
}
