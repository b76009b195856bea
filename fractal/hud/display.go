package hud

import (
	"image/color"

	"deepzoom/fractal/render"
)

// targetDisplay is a drivers.Displayer over a render target. Each font pixel
// covers a scale x scale block so text survives the downscale to the window.
type targetDisplay struct {
	t     *render.Target
	scale int
	ox    int
	oy    int
}

func (d *targetDisplay) Size() (x, y int16) {
	return clamp16(d.t.Width / d.scale), clamp16(d.t.Height / d.scale)
}

func (d *targetDisplay) SetPixel(x, y int16, c color.RGBA) {
	px := d.ox + int(x)*d.scale
	py := d.oy + int(y)*d.scale
	for dy := 0; dy < d.scale; dy++ {
		for dx := 0; dx < d.scale; dx++ {
			d.t.SetRGBA(px+dx, py+dy, c)
		}
	}
}

func (d *targetDisplay) Display() error { return nil }

// shade darkens a rectangle given in font pixels.
func (d *targetDisplay) shade(x, y, w, h int) {
	x0, y0 := d.ox+x*d.scale, d.oy+y*d.scale
	x1, y1 := x0+w*d.scale, y0+h*d.scale
	for py := max(y0, 0); py < min(y1, d.t.Height); py++ {
		off := py*d.t.Stride + max(x0, 0)*4
		for px := max(x0, 0); px < min(x1, d.t.Width); px++ {
			d.t.Pix[off+0] /= 3
			d.t.Pix[off+1] /= 3
			d.t.Pix[off+2] /= 3
			off += 4
		}
	}
}

func clamp16(v int) int16 {
	if v > 0x7fff {
		return 0x7fff
	}
	return int16(v)
}
