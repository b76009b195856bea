//go:build !tinygo

package hal

import (
	"fmt"
	"image"
	"sync"
)

type hostFramebuffer struct {
	maxW, maxH int

	// Back buffer. Only the frame owner touches it.
	width  int
	height int
	stride int
	buf    []byte

	mu     sync.Mutex
	front  *image.RGBA
	frames uint64
}

func newHostFramebuffer(width, height, maxW, maxH int) *hostFramebuffer {
	width = min(max(width, 1), maxW)
	height = min(max(height, 1), maxH)
	return &hostFramebuffer{
		maxW:   maxW,
		maxH:   maxH,
		width:  width,
		height: height,
		stride: width * 4,
		buf:    make([]byte, width*4*height),
	}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGBA8888 }
func (f *hostFramebuffer) StrideBytes() int    { return f.stride }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }
func (f *hostFramebuffer) MaxSize() (int, int) { return f.maxW, f.maxH }

func (f *hostFramebuffer) Resize(w, h int) error {
	if w == f.width && h == f.height {
		return nil
	}
	if w <= 0 || h <= 0 || w > f.maxW || h > f.maxH {
		return fmt.Errorf("%w: %dx%d outside 1x1..%dx%d", ErrIncompleteFramebuffer, w, h, f.maxW, f.maxH)
	}
	f.buf = make([]byte, w*4*h)
	f.width = w
	f.height = h
	f.stride = w * 4
	return nil
}

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	for i := 0; i+3 < len(f.buf); i += 4 {
		f.buf[i+0] = r
		f.buf[i+1] = g
		f.buf[i+2] = b
		f.buf[i+3] = 0xFF
	}
}

// Present copies the back buffer to the front buffer read by the display.
func (f *hostFramebuffer) Present() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.front == nil || f.front.Bounds().Dx() != f.width || f.front.Bounds().Dy() != f.height {
		f.front = image.NewRGBA(image.Rect(0, 0, f.width, f.height))
	}
	copy(f.front.Pix, f.buf)
	f.frames++
	return nil
}

// snapshot copies the front buffer into dst, reallocating it when the size
// differs. It returns nil before the first Present.
func (f *hostFramebuffer) snapshot(dst *image.RGBA) *image.RGBA {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.front == nil {
		return nil
	}
	if dst == nil || dst.Bounds() != f.front.Bounds() {
		dst = image.NewRGBA(f.front.Bounds())
	}
	copy(dst.Pix, f.front.Pix)
	return dst
}

func (f *hostFramebuffer) presented() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames
}
