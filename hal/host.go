//go:build !tinygo

package hal

import (
	"fmt"
	"image"
	"io"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Config sizes the host display and bounds its framebuffer.
type Config struct {
	Title     string
	Width     int // display width
	Height    int // display height
	MaxWidth  int // largest framebuffer width; 0 means 8192
	MaxHeight int // largest framebuffer height; 0 means 8192
	Hz        int // step rate
	Log       io.Writer
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "deepzoom"
	}
	if c.Width <= 0 {
		c.Width = 800
	}
	if c.Height <= 0 {
		c.Height = 600
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = 8192
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 8192
	}
	if c.Hz <= 0 {
		c.Hz = 100
	}
	if c.Log == nil {
		c.Log = os.Stdout
	}
}

type hostHAL struct {
	cfg    Config
	logger *hostLogger
	disp   *hostDisplay
	in     *hostInput
}

// New returns a host HAL implementation. The framebuffer starts at the
// display size.
func New(cfg Config) HAL {
	return newHost(cfg)
}

func newHost(cfg Config) *hostHAL {
	cfg.applyDefaults()
	return &hostHAL{
		cfg:    cfg,
		logger: &hostLogger{w: cfg.Log},
		disp: &hostDisplay{
			fb: newHostFramebuffer(cfg.Width, cfg.Height, cfg.MaxWidth, cfg.MaxHeight),
			w:  cfg.Width,
			h:  cfg.Height,
		},
		in: newHostInput(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return h.disp }
func (h *hostHAL) Input() Input     { return h.in }

func (h *hostHAL) InjectKey(ev KeyEvent)         { h.in.pushKey(ev) }
func (h *hostHAL) InjectPointer(ev PointerEvent) { h.in.pushPointer(ev) }

type hostDisplay struct {
	fb *hostFramebuffer

	mu   sync.Mutex
	w, h int
}

func (d *hostDisplay) Framebuffer() Framebuffer { return d.fb }

func (d *hostDisplay) Size() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w, d.h
}

func (d *hostDisplay) setSize(w, h int) {
	if w <= 0 || h <= 0 {
		return
	}
	d.mu.Lock()
	d.w, d.h = w, h
	d.mu.Unlock()
}

func (d *hostDisplay) Frame() *image.RGBA {
	src := d.fb.snapshot(nil)
	if src == nil {
		return nil
	}
	w, h := d.Size()
	if src.Bounds().Dx() == w && src.Bounds().Dy() == h {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

type hostLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns the host line logger writing to w, or to stdout when w
// is nil.
func NewLogger(w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	return &hostLogger{w: w}
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}
