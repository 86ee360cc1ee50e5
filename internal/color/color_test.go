package color

import (
	"errors"
	"math"
	"testing"
)

// TestParse tests the supported color syntaxes.
func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		input string
		want  RGB
	}{
		{"#000", RGB{0, 0, 0}},
		{"#FFF", RGB{255, 255, 255}},
		{"#bac7cb", RGB{0xBA, 0xC7, 0xCB}},
		{"  #BFCAD1 ", RGB{0xBF, 0xCA, 0xD1}},
		{"rgb(255, 0, 0)", RGB{255, 0, 0}},
		{"rgba(0,128,255,0.5)", RGB{0, 128, 255}},
		{"rgb(100% 0% 0%)", RGB{255, 0, 0}},
		{"white", RGB{255, 255, 255}},
		{"#123456 !important", RGB{0x12, 0x34, 0x56}},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			got, err := Parse(tc.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}

	t.Run("rejects invalid values", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"", "#12", "#GGGGGG", "rgb(1,2)", "hsl(0,0%,0%)", "notacolor"} {
			if _, err := Parse(in); !errors.Is(err, ErrInvalidColor) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidColor", in, err)
			}
		}
	})
}

// TestLuminance tests the endpoints of the luminance scale.
func TestLuminance(t *testing.T) {
	t.Parallel()

	black, err := Luminance("#000000")
	if err != nil {
		t.Fatal(err)
	}
	white, err := Luminance("#FFFFFF")
	if err != nil {
		t.Fatal(err)
	}
	if black != 0 {
		t.Errorf("black luminance = %v", black)
	}
	if math.Abs(white-1) > 1e-9 {
		t.Errorf("white luminance = %v", white)
	}
}

// TestContrastRatio tests the WCAG reference values.
func TestContrastRatio(t *testing.T) {
	t.Parallel()

	t.Run("black on white is 21", func(t *testing.T) {
		t.Parallel()
		r, err := ContrastRatio("#000000", "#FFFFFF")
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(r-21.0) > 1e-3 {
			t.Errorf("got %v, want 21.0", r)
		}
	})

	t.Run("order does not matter", func(t *testing.T) {
		t.Parallel()
		a, _ := ContrastRatio("#FFFFFF", "#000000")
		b, _ := ContrastRatio("#000000", "#FFFFFF")
		if a != b {
			t.Errorf("asymmetric ratio: %v vs %v", a, b)
		}
	})

	t.Run("a color against itself is 1", func(t *testing.T) {
		t.Parallel()
		for _, c := range []string{"#000", "#777777", "#BAC7CB", "rgb(10,200,30)"} {
			r, err := ContrastRatio(c, c)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(r-1.0) > 1e-9 {
				t.Errorf("ContrastRatio(%s, %s) = %v", c, c, r)
			}
		}
	})

	t.Run("known mid-grey values", func(t *testing.T) {
		t.Parallel()
		// #777777 on white is the classic 4.48:1 near miss.
		r, _ := ContrastRatio("#777777", "#FFFFFF")
		if r >= 4.5 || r < 4.4 {
			t.Errorf("got %.3f, want just under 4.5", r)
		}
		r, _ = ContrastRatio("#BAC7CB", "#FFFFFF")
		if r >= 4.5 {
			t.Errorf("#BAC7CB on white should fail 4.5, got %.2f", r)
		}
	})
}
