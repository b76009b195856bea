// Package present picks the per-frame render resolution, owns the framebuffer
// for the duration of a frame and publishes finished frames to the display.
package present

import "math"

// maxScale bounds Scale so Resolution arithmetic cannot overflow.
const maxScale = 1 << 20

// Policy scales the render resolution with zoom, clamped to a maximum.
// Zero base dimensions mean "use the display size"; zero maxima mean "use the
// framebuffer limit".
type Policy struct {
	BaseWidth  int
	BaseHeight int
	MaxWidth   int
	MaxHeight  int
}

// Scale returns max(1, floor(zoom)). It is non-decreasing in zoom and
// saturates instead of overflowing.
func (p Policy) Scale(zoom float64) int {
	if !(zoom >= 1) {
		return 1
	}
	if zoom >= maxScale {
		return maxScale
	}
	return int(math.Floor(zoom))
}

// Resolution returns base*Scale(zoom) clamped to [1, max] in each dimension.
func (p Policy) Resolution(zoom float64) (w, h int) {
	s := p.Scale(zoom)
	return clampDim(p.BaseWidth, s, p.MaxWidth), clampDim(p.BaseHeight, s, p.MaxHeight)
}

func clampDim(base, scale, limit int) int {
	if base < 1 {
		base = 1
	}
	if limit < 1 {
		limit = 1
	}
	if base > limit/scale {
		return limit
	}
	return base * scale
}
