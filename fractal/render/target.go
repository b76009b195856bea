// Package render evaluates a viewport's pixel grid into an RGBA target.
package render

import (
	"fmt"
	"image"
	"image/color"
)

// Target is a row-major RGBA pixel buffer. It may own its buffer or be a view
// over a framebuffer.
type Target struct {
	Width  int
	Height int
	Stride int // bytes per row
	Pix    []byte
}

// NewTarget allocates a w x h target.
func NewTarget(w, h int) *Target {
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &Target{Width: w, Height: h, Stride: w * 4, Pix: make([]byte, w*h*4)}
}

// TargetOver wraps an existing RGBA buffer without copying.
func TargetOver(buf []byte, w, h, stride int) (*Target, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("render: invalid target size %dx%d", w, h)
	}
	if stride < w*4 {
		return nil, fmt.Errorf("render: stride %d too small for width %d", stride, w)
	}
	if len(buf) < (h-1)*stride+w*4 {
		return nil, fmt.Errorf("render: buffer of %d bytes too small for %dx%d", len(buf), w, h)
	}
	return &Target{Width: w, Height: h, Stride: stride, Pix: buf}, nil
}

func (t *Target) Size() (w, h int) { return t.Width, t.Height }

func (t *Target) Bounds() image.Rectangle { return image.Rect(0, 0, t.Width, t.Height) }

// Image returns an image.RGBA sharing the target's pixels.
func (t *Target) Image() *image.RGBA {
	return &image.RGBA{Pix: t.Pix, Stride: t.Stride, Rect: t.Bounds()}
}

// SetRGBA clips out-of-bounds coordinates.
func (t *Target) SetRGBA(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return
	}
	off := y*t.Stride + x*4
	t.Pix[off+0] = c.R
	t.Pix[off+1] = c.G
	t.Pix[off+2] = c.B
	t.Pix[off+3] = c.A
}

func (t *Target) RGBAAt(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return color.RGBA{}
	}
	off := y*t.Stride + x*4
	return color.RGBA{R: t.Pix[off], G: t.Pix[off+1], B: t.Pix[off+2], A: t.Pix[off+3]}
}

// Fill sets every pixel to c.
func (t *Target) Fill(c color.RGBA) {
	for y := 0; y < t.Height; y++ {
		row := t.Pix[y*t.Stride : y*t.Stride+t.Width*4]
		for i := 0; i < len(row); i += 4 {
			row[i+0] = c.R
			row[i+1] = c.G
			row[i+2] = c.B
			row[i+3] = c.A
		}
	}
}
