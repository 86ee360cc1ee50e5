// Package color implements the WCAG relative luminance and contrast ratio
// formulas over CSS color values.
package color

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidColor is returned for values that are not a supported color.
var ErrInvalidColor = errors.New("invalid color")

// RGB is an sRGB color with 8-bit channels.
type RGB struct {
	R, G, B uint8
}

// Hex renders the color as #RRGGBB.
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// named covers the keywords that commonly appear in inline styles.
var named = map[string]RGB{
	"black":       {0, 0, 0},
	"white":       {255, 255, 255},
	"transparent": {255, 255, 255},
	"gray":        {128, 128, 128},
	"grey":        {128, 128, 128},
	"silver":      {192, 192, 192},
	"lightgray":   {211, 211, 211},
	"lightgrey":   {211, 211, 211},
	"darkgray":    {169, 169, 169},
	"darkgrey":    {169, 169, 169},
	"red":         {255, 0, 0},
	"green":       {0, 128, 0},
	"blue":        {0, 0, 255},
	"yellow":      {255, 255, 0},
	"orange":      {255, 165, 0},
	"navy":        {0, 0, 128},
}

// Parse reads #RGB, #RRGGBB, rgb(r, g, b), rgba(r, g, b, a) or a basic
// color keyword. The alpha channel is ignored.
func Parse(s string) (RGB, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	v = strings.TrimSuffix(v, "!important")
	v = strings.TrimSpace(v)

	switch {
	case strings.HasPrefix(v, "#"):
		return parseHex(v[1:])
	case strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba("):
		return parseFunc(v)
	}

	if c, ok := named[v]; ok {
		return c, nil
	}
	return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

func parseHex(h string) (RGB, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return RGB{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}

	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: #%s", ErrInvalidColor, h)
	}
	return RGB{R: uint8(n >> 16), G: uint8(n >> 8), B: uint8(n)}, nil
}

func parseFunc(v string) (RGB, error) {
	open := strings.IndexByte(v, '(')
	end := strings.LastIndexByte(v, ')')
	if open < 0 || end <= open {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}

	parts := strings.FieldsFunc(v[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(parts) < 3 {
		return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
	}

	var channels [3]uint8
	for i := 0; i < 3; i++ {
		c, err := parseChannel(parts[i])
		if err != nil {
			return RGB{}, fmt.Errorf("%w: %q", ErrInvalidColor, v)
		}
		channels[i] = c
	}
	return RGB{R: channels[0], G: channels[1], B: channels[2]}, nil
}

func parseChannel(p string) (uint8, error) {
	if strings.HasSuffix(p, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(p, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clamp(f * 255 / 100), nil
	}
	f, err := strconv.ParseFloat(p, 64)
	if err != nil {
		return 0, err
	}
	return clamp(f), nil
}

func clamp(f float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

// linearize applies the sRGB transfer function to a channel in [0,1].
func linearize(c float64) float64 {
	if c <= 0.03928 {
		return c / 12.92
	}
	return math.Pow((c+0.055)/1.055, 2.4)
}

// RelativeLuminance returns the WCAG relative luminance in [0,1].
func (c RGB) RelativeLuminance() float64 {
	r := linearize(float64(c.R) / 255)
	g := linearize(float64(c.G) / 255)
	b := linearize(float64(c.B) / 255)
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// Ratio returns the contrast ratio between two colors, always >= 1.
func Ratio(a, b RGB) float64 {
	l1 := a.RelativeLuminance()
	l2 := b.RelativeLuminance()
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// Luminance parses a color value and returns its relative luminance.
func Luminance(s string) (float64, error) {
	c, err := Parse(s)
	if err != nil {
		return 0, err
	}
	return c.RelativeLuminance(), nil
}

// ContrastRatio parses two color values and returns their contrast ratio.
func ContrastRatio(fg, bg string) (float64, error) {
	a, err := Parse(fg)
	if err != nil {
		return 0, err
	}
	b, err := Parse(bg)
	if err != nil {
		return 0, err
	}
	return Ratio(a, b), nil
}
