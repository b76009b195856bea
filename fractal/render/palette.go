package render

import (
	"fmt"
	"image/color"
	"math"

	"deepzoom/fractal/escape"
)

// Palette maps the normalized iteration count to a color.
type Palette uint8

const (
	// Gray is norm as a gray level; points that never escape are white.
	Gray Palette = iota
	// Hot ramps black, red, yellow, white.
	Hot
	// HSV cycles hue with the iteration count; points that never escape are black.
	HSV
)

func (p Palette) String() string {
	switch p {
	case Gray:
		return "gray"
	case Hot:
		return "hot"
	case HSV:
		return "hsv"
	}
	return fmt.Sprintf("palette(%d)", uint8(p))
}

func ParsePalette(s string) (Palette, error) {
	switch s {
	case "", "gray", "grey":
		return Gray, nil
	case "hot":
		return Hot, nil
	case "hsv":
		return HSV, nil
	}
	return 0, fmt.Errorf("render: unknown palette %q", s)
}

// LUT returns colors for iteration counts 0..n inclusive.
func (p Palette) LUT(n int) []color.RGBA {
	if n < 0 {
		n = 0
	}
	lut := make([]color.RGBA, n+1)
	for i := range lut {
		lut[i] = p.at(i, n)
	}
	return lut
}

func (p Palette) at(i, n int) color.RGBA {
	norm := 1.0
	if n > 0 {
		norm = escape.Norm(i, n)
	}
	switch p {
	case Hot:
		return color.RGBA{
			R: unit8(norm / 0.365),
			G: unit8((norm - 0.365) / 0.375),
			B: unit8((norm - 0.74) / 0.26),
			A: 0xff,
		}
	case HSV:
		if i >= n {
			return color.RGBA{A: 0xff}
		}
		return hsv(math.Mod(float64(i)*0.02, 1), 1, 1)
	}
	v := unit8(norm)
	return color.RGBA{R: v, G: v, B: v, A: 0xff}
}

func unit8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(v*255 + 0.5)
}

func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{R: unit8(r), G: unit8(g), B: unit8(b), A: 0xff}
}
