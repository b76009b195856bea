package present

import (
	"errors"
	"fmt"
	"time"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

// ErrFrameSkipped is returned by Manager.Frame when the frame was dropped
// because its target could not be allocated. The next frame retries.
var ErrFrameSkipped = errors.New("present: frame skipped")

// Renderer fills a target with the escape-time image of a viewport.
type Renderer interface {
	Render(t *render.Target, vp camera.Viewport, maxIter int) error
}

// Frame describes one presented frame.
type Frame struct {
	Seq      uint64
	Snapshot camera.Snapshot
	Width    int
	Height   int
	MaxIter  int
	Duration time.Duration
}

// Overlay draws on top of a rendered frame before it is presented.
type Overlay interface {
	Draw(t *render.Target, f Frame)
}

// OverlayFunc adapts a function to Overlay.
type OverlayFunc func(t *render.Target, f Frame)

func (fn OverlayFunc) Draw(t *render.Target, f Frame) { fn(t, f) }

// Stats counts presented and skipped frames.
type Stats struct {
	Frames  uint64
	Skipped uint64
	Last    Frame
}

// Manager drives one render-and-present cycle per call to Frame. It is not
// safe for concurrent use; the session step owns it.
type Manager struct {
	disp     hal.Display
	fb       hal.Framebuffer
	r        Renderer
	policy   Policy
	log      hal.Logger
	overlays []Overlay
	stats    Stats
	skipping bool
}

func NewManager(d hal.Display, r Renderer, p Policy, log hal.Logger) *Manager {
	return &Manager{
		disp:   d,
		fb:     d.Framebuffer(),
		r:      r,
		policy: p,
		log:    hal.OrDiscard(log),
	}
}

func (m *Manager) AddOverlay(o Overlay)         { m.overlays = append(m.overlays, o) }
func (m *Manager) SetRenderer(r Renderer)       { m.r = r }
func (m *Manager) Stats() Stats                 { return m.stats }
func (m *Manager) Framebuffer() hal.Framebuffer { return m.fb }

// Policy returns the effective policy: unset base dimensions are taken from
// the display and unset maxima from the framebuffer.
func (m *Manager) Policy() Policy {
	p := m.policy
	if p.BaseWidth <= 0 || p.BaseHeight <= 0 {
		p.BaseWidth, p.BaseHeight = m.disp.Size()
	}
	fw, fh := m.fb.MaxSize()
	if p.MaxWidth <= 0 || p.MaxWidth > fw {
		p.MaxWidth = fw
	}
	if p.MaxHeight <= 0 || p.MaxHeight > fh {
		p.MaxHeight = fh
	}
	return p
}

// Frame renders s at the resolution chosen by the policy and presents it. The
// framebuffer is resized first when the resolution changed; if that fails the
// frame is dropped without drawing and the error wraps ErrFrameSkipped.
func (m *Manager) Frame(s camera.Snapshot, maxIter int) (Frame, error) {
	w, h := m.Policy().Resolution(s.Zoom)
	if m.fb.Width() != w || m.fb.Height() != h {
		if err := m.fb.Resize(w, h); err != nil {
			return Frame{}, m.skip(w, h, err)
		}
		m.log.WriteLineString(fmt.Sprintf("present: resize %dx%d", w, h))
	}

	t, err := render.TargetOver(m.fb.Buffer(), m.fb.Width(), m.fb.Height(), m.fb.StrideBytes())
	if err != nil {
		return Frame{}, m.skip(w, h, fmt.Errorf("%w: %w", hal.ErrIncompleteFramebuffer, err))
	}

	start := time.Now()
	if err := m.r.Render(t, s.Viewport(w, h, m.aspect(w, h)), maxIter); err != nil {
		if errors.Is(err, hal.ErrIncompleteFramebuffer) {
			return Frame{}, m.skip(w, h, err)
		}
		return Frame{}, fmt.Errorf("present: render: %w", err)
	}

	f := Frame{
		Seq:      m.stats.Frames + 1,
		Snapshot: s,
		Width:    w,
		Height:   h,
		MaxIter:  maxIter,
		Duration: time.Since(start),
	}
	for _, o := range m.overlays {
		o.Draw(t, f)
	}
	if err := m.fb.Present(); err != nil {
		return Frame{}, fmt.Errorf("present: %w", err)
	}

	if m.skipping {
		m.log.WriteLineString(fmt.Sprintf("present: recovered at %dx%d after %d skipped frames", w, h, m.stats.Skipped))
		m.skipping = false
	}
	m.stats.Frames++
	m.stats.Last = f
	return f, nil
}

func (m *Manager) skip(w, h int, err error) error {
	m.stats.Skipped++
	if !m.skipping {
		m.log.WriteLineString(fmt.Sprintf("present: resize %dx%d failed: %v; skipping frame", w, h, err))
		m.skipping = true
	}
	return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
}

// aspect is the display's width/height ratio, so a clamped or scaled target
// still shows the same region of the plane.
func (m *Manager) aspect(w, h int) float64 {
	dw, dh := m.disp.Size()
	if dw > 0 && dh > 0 {
		return float64(dw) / float64(dh)
	}
	return float64(w) / float64(h)
}
