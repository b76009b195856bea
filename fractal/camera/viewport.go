package camera

import "deepzoom/fractal/dd"

// Viewport maps pixels of a Width x Height grid to points of the plane.
// StepX and StepY are plane units per pixel. At zoom 1 the view spans 2 plane
// units vertically and 2*aspect horizontally, whatever the grid size.
type Viewport struct {
	Center        dd.Complex
	Width, Height int
	StepX, StepY  dd.Float
}

// Viewport maps the snapshot onto a w x h pixel grid. aspect is the width/height
// ratio of the display the view is shown on; it stays fixed when the grid is
// supersampled or clamped.
func (s Snapshot) Viewport(w, h int, aspect float64) Viewport {
	z := dd.FromFloat(s.Zoom)
	return Viewport{
		Center: s.Center,
		Width:  w,
		Height: h,
		StepX:  dd.FromFloat(2 * aspect).Div(z.MulFloat(float64(w))),
		StepY:  dd.FromFloat(2).Div(z.MulFloat(float64(h))),
	}
}

// Sample returns center + ((px, py) - (w/2, h/2)) * step, in double-double.
// Pixel rows go down the screen, so the imaginary part decreases with py.
func (v Viewport) Sample(px, py int) dd.Complex {
	ox := float64(px) - float64(v.Width)/2
	oy := float64(py) - float64(v.Height)/2
	return dd.Complex{
		Re: v.Center.Re.Add(v.StepX.MulFloat(ox)),
		Im: v.Center.Im.Sub(v.StepY.MulFloat(oy)),
	}
}

// HalfSpan returns the half-width and half-height of the view in plane units.
func (v Viewport) HalfSpan() (float64, float64) {
	return v.StepX.Float64() * float64(v.Width) / 2, v.StepY.Float64() * float64(v.Height) / 2
}

// Rect is an axis-aligned region of the plane given by its center and half extents.
type Rect struct {
	Center     dd.Complex
	HalfWidth  float64
	HalfHeight float64
}

// Viewport maps the rectangle onto a w x h pixel grid.
func (r Rect) Viewport(w, h int) Viewport {
	return Viewport{
		Center: r.Center,
		Width:  w,
		Height: h,
		StepX:  dd.FromFloat(2 * r.HalfWidth).Div(dd.FromFloat(float64(w))),
		StepY:  dd.FromFloat(2 * r.HalfHeight).Div(dd.FromFloat(float64(h))),
	}
}
