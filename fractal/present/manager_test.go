package present

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

type lineLog struct{ lines []string }

func (l *lineLog) WriteLineString(s string) { l.lines = append(l.lines, s) }
func (l *lineLog) WriteLineBytes(b []byte)  { l.lines = append(l.lines, string(b)) }

type fillRenderer struct {
	calls int
	last  camera.Viewport
	err   error
}

func (r *fillRenderer) Render(t *render.Target, vp camera.Viewport, maxIter int) error {
	r.calls++
	r.last = vp
	if r.err != nil {
		return r.err
	}
	t.Fill(color.RGBA{R: uint8(maxIter), A: 0xff})
	return nil
}

// failingFramebuffer refuses every resize.
type failingFramebuffer struct {
	hal.Framebuffer
	presents int
}

func (f *failingFramebuffer) Resize(w, h int) error {
	if w == f.Width() && h == f.Height() {
		return nil
	}
	return hal.ErrIncompleteFramebuffer
}

func (f *failingFramebuffer) Present() error {
	f.presents++
	return f.Framebuffer.Present()
}

type fakeDisplay struct {
	hal.Display
	fb hal.Framebuffer
}

func (d fakeDisplay) Framebuffer() hal.Framebuffer { return d.fb }

func newHost(w, h, maxW, maxH int) hal.HAL {
	return hal.New(hal.Config{Width: w, Height: h, MaxWidth: maxW, MaxHeight: maxH, Log: &bytes.Buffer{}})
}

func TestFrameResizesBeforeRender(t *testing.T) {
	h := newHost(8, 6, 64, 64)
	r := &fillRenderer{}
	m := NewManager(h.Display(), r, Policy{}, nil)

	f, err := m.Frame(camera.Snapshot{Center: dd.C(-0.5, 0), Zoom: 3.5}, 7)
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if f.Width != 24 || f.Height != 18 {
		t.Fatalf("Frame() size = %dx%d, want 24x18", f.Width, f.Height)
	}
	fb := h.Display().Framebuffer()
	if fb.Width() != 24 || fb.Height() != 18 {
		t.Fatalf("framebuffer = %dx%d, want 24x18", fb.Width(), fb.Height())
	}
	if r.last.Width != 24 || r.last.Height != 18 {
		t.Fatalf("viewport = %dx%d, want 24x18", r.last.Width, r.last.Height)
	}

	img := h.Display().Frame()
	if img.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Fatalf("display frame bounds = %v", img.Bounds())
	}
	if got := img.RGBAAt(0, 0); got.R != 7 {
		t.Fatalf("display pixel = %v, want R=7", got)
	}
}

func TestFrameKeepsDisplayAspect(t *testing.T) {
	h := newHost(8, 4, 20, 100)
	r := &fillRenderer{}
	m := NewManager(h.Display(), r, Policy{}, nil)

	// 8x4 at scale 5 clamps to 20x20; the plane region must still be 2:1.
	if _, err := m.Frame(camera.Snapshot{Zoom: 5}, 1); err != nil {
		t.Fatal(err)
	}
	hw, hh := r.last.HalfSpan()
	if got := hw / hh; got < 1.999 || got > 2.001 {
		t.Fatalf("plane aspect = %v, want 2", got)
	}
}

func TestFrameSkipsOnIncompleteFramebuffer(t *testing.T) {
	h := newHost(8, 6, 64, 64)
	fb := &failingFramebuffer{Framebuffer: h.Display().Framebuffer()}
	log := &lineLog{}
	r := &fillRenderer{}
	m := NewManager(fakeDisplay{Display: h.Display(), fb: fb}, r, Policy{}, log)

	for i := 0; i < 3; i++ {
		_, err := m.Frame(camera.Snapshot{Zoom: 2}, 10)
		if !errors.Is(err, ErrFrameSkipped) {
			t.Fatalf("Frame() error = %v, want ErrFrameSkipped", err)
		}
		if !errors.Is(err, hal.ErrIncompleteFramebuffer) {
			t.Fatalf("Frame() error = %v, want wrapped ErrIncompleteFramebuffer", err)
		}
	}
	if r.calls != 0 || fb.presents != 0 {
		t.Fatalf("skipped frames rendered %d times, presented %d times", r.calls, fb.presents)
	}
	if s := m.Stats(); s.Skipped != 3 || s.Frames != 0 {
		t.Fatalf("Stats() = %+v", s)
	}
	if len(log.lines) != 1 || !strings.Contains(log.lines[0], "skipping frame") {
		t.Fatalf("log = %q, want one skip line", log.lines)
	}

	// Zoom back to 1: the current size fits again and rendering resumes.
	if _, err := m.Frame(camera.Snapshot{Zoom: 1}, 10); err != nil {
		t.Fatalf("Frame() after recovery error = %v", err)
	}
	if fb.presents != 1 {
		t.Fatalf("presents = %d, want 1", fb.presents)
	}
	if !strings.Contains(log.lines[len(log.lines)-1], "recovered") {
		t.Fatalf("last log = %q, want recovery line", log.lines[len(log.lines)-1])
	}
}

func TestFrameSkipsWhenRendererReportsIncomplete(t *testing.T) {
	h := newHost(4, 4, 16, 16)
	r := &fillRenderer{err: hal.ErrIncompleteFramebuffer}
	m := NewManager(h.Display(), r, Policy{}, nil)
	if _, err := m.Frame(camera.Snapshot{Zoom: 1}, 1); !errors.Is(err, ErrFrameSkipped) {
		t.Fatalf("Frame() error = %v, want ErrFrameSkipped", err)
	}
	if h.Display().Frame() != nil {
		t.Fatalf("skipped frame was presented")
	}
}

func TestFrameRendererErrorIsFatal(t *testing.T) {
	h := newHost(4, 4, 16, 16)
	boom := errors.New("boom")
	m := NewManager(h.Display(), &fillRenderer{err: boom}, Policy{}, nil)
	_, err := m.Frame(camera.Snapshot{Zoom: 1}, 1)
	if !errors.Is(err, boom) || errors.Is(err, ErrFrameSkipped) {
		t.Fatalf("Frame() error = %v, want boom and not skipped", err)
	}
}

func TestOverlaysDrawAfterRender(t *testing.T) {
	h := newHost(4, 4, 16, 16)
	m := NewManager(h.Display(), &fillRenderer{}, Policy{}, nil)
	var got Frame
	m.AddOverlay(OverlayFunc(func(t *render.Target, f Frame) {
		got = f
		t.SetRGBA(0, 0, color.RGBA{G: 0xff, A: 0xff})
	}))

	f, err := m.Frame(camera.Snapshot{Zoom: 1}, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got.Seq != 1 || got.MaxIter != 3 || f.Seq != 1 {
		t.Fatalf("overlay frame = %+v, returned %+v", got, f)
	}
	if px := h.Display().Frame().RGBAAt(0, 0); px.G != 0xff {
		t.Fatalf("overlay pixel = %v, want green", px)
	}
}

func TestPolicyDefaultsFromDisplayAndFramebuffer(t *testing.T) {
	h := newHost(10, 5, 30, 12)
	m := NewManager(h.Display(), &fillRenderer{}, Policy{MaxWidth: 100}, nil)
	p := m.Policy()
	if p.BaseWidth != 10 || p.BaseHeight != 5 || p.MaxWidth != 30 || p.MaxHeight != 12 {
		t.Fatalf("Policy() = %+v", p)
	}
}

func TestFrameWithCPURenderer(t *testing.T) {
	h := newHost(16, 12, 64, 64)
	m := NewManager(h.Display(), &render.Renderer{Workers: 2, TileSize: 5}, Policy{}, nil)
	if _, err := m.Frame(camera.Snapshot{Center: dd.C(-0.5, 0), Zoom: 1}, 32); err != nil {
		t.Fatal(err)
	}
	// The center of the default view lies in the set.
	if px := h.Display().Frame().RGBAAt(8, 6); px != (color.RGBA{0xff, 0xff, 0xff, 0xff}) {
		t.Fatalf("center pixel = %v, want white", px)
	}
}
