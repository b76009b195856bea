// Package hud draws a text overlay with the current view parameters onto
// each frame.
package hud

import (
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"deepzoom/fractal/present"
	"deepzoom/fractal/render"
)

var _ drivers.Displayer = (*targetDisplay)(nil)

var font = &tinyfont.TomThumb

const (
	lineHeight = 6 // TomThumb y advance
	charWidth  = 4 // TomThumb x advance
	pad        = 2
)

// Overlay implements present.Overlay.
type Overlay struct {
	Enabled bool
	// Scale is the font pixel size on a target as tall as the display.
	Scale int
	Color color.RGBA
	// DisplayHeight reports the window height so the scale can follow the
	// render resolution. Nil means the target is the display.
	DisplayHeight func() int
	// Lines overrides the default text.
	Lines func(f present.Frame) []string
}

func New() *Overlay {
	return &Overlay{
		Enabled: true,
		Scale:   2,
		Color:   color.RGBA{0xff, 0xff, 0x60, 0xff},
	}
}

func (o *Overlay) Toggle() { o.Enabled = !o.Enabled }

func (o *Overlay) Draw(t *render.Target, f present.Frame) {
	if !o.Enabled || t.Width <= 0 || t.Height <= 0 {
		return
	}
	linesFn := o.Lines
	if linesFn == nil {
		linesFn = Lines
	}
	lines := linesFn(f)
	if len(lines) == 0 {
		return
	}

	WriteLines(t, lines, o.scale(t), o.Color, true)
}

// WriteLines draws lines from the top left corner of t with font pixels of
// scale x scale target pixels. With shade set the text box is darkened first.
func WriteLines(t *render.Target, lines []string, scale int, fg color.RGBA, shade bool) {
	d := &targetDisplay{t: t, scale: max(scale, 1)}
	if shade {
		width := 0
		for _, l := range lines {
			_, w := tinyfont.LineWidth(font, l)
			width = max(width, int(w))
		}
		d.shade(0, 0, width+2*pad, len(lines)*lineHeight+2*pad)
	}
	for i, l := range lines {
		tinyfont.WriteLine(d, font, pad, int16(pad+(i+1)*lineHeight-1), l, fg)
	}
}

// Columns is the number of characters that fit across t at scale.
func Columns(t *render.Target, scale int) int {
	return (t.Width/max(scale, 1) - 2*pad) / charWidth
}

// Rows is the number of lines that fit down t at scale.
func Rows(t *render.Target, scale int) int {
	return (t.Height/max(scale, 1) - 2*pad) / lineHeight
}

func (o *Overlay) scale(t *render.Target) int {
	s := max(o.Scale, 1)
	if o.DisplayHeight != nil {
		if dh := o.DisplayHeight(); dh > 0 && t.Height > dh {
			s *= t.Height / dh
		}
	}
	return s
}

// Lines formats zoom, center, resolution, iteration budget and render time.
func Lines(f present.Frame) []string {
	c := f.Snapshot.Center
	return []string{
		fmt.Sprintf("zoom %.6e", f.Snapshot.Zoom),
		"re " + c.Re.String(),
		"im " + c.Im.String(),
		fmt.Sprintf("%dx%d iter %d %dms", f.Width, f.Height, f.MaxIter, f.Duration.Milliseconds()),
	}
}
