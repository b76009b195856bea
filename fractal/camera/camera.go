// Package camera holds the interactive view state and maps it to per-pixel
// samples of the complex plane.
//
// A Camera is owned by a single input context. Render ticks read it through
// Snapshot, which copies center and zoom in one step.
package camera

import (
	"math"

	"deepzoom/fractal/dd"
)

// State is the drag state of the camera.
type State uint8

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Config is the initial view and the input tuning.
type Config struct {
	Center dd.Complex
	// Zoom 1 shows two plane units vertically.
	Zoom    float64
	MinZoom float64
	// ZoomFactor is applied once per discrete wheel event.
	ZoomFactor float64
	// DragSensitivity multiplies raw pointer deltas. 1 keeps the plane under the pointer.
	DragSensitivity float64
}

// DefaultConfig is the view the explorer opens with.
func DefaultConfig() Config {
	return Config{
		Center:          dd.C(-0.5693038674840807, -0.5724608139558649),
		Zoom:            1,
		MinZoom:         1e-3,
		ZoomFactor:      1.1,
		DragSensitivity: 1,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if !(c.Zoom > 0) || math.IsInf(c.Zoom, 0) {
		c.Zoom = d.Zoom
	}
	if !(c.MinZoom > 0) {
		c.MinZoom = d.MinZoom
	}
	if c.Zoom < c.MinZoom {
		c.Zoom = c.MinZoom
	}
	if !(c.ZoomFactor > 1) {
		c.ZoomFactor = d.ZoomFactor
	}
	if c.DragSensitivity == 0 || math.IsNaN(c.DragSensitivity) {
		c.DragSensitivity = d.DragSensitivity
	}
	if !c.Center.IsFinite() {
		c.Center = d.Center
	}
}

// Snapshot is the part of the camera a frame reads.
type Snapshot struct {
	Center dd.Complex
	Zoom   float64
}

// Camera is the Idle/Dragging state machine driven by pointer and wheel input.
type Camera struct {
	home Config

	center dd.Complex
	zoom   float64

	state   State
	anchorX float64
	anchorY float64
}

// New returns a camera at cfg's view. Out-of-range fields fall back to defaults.
func New(cfg Config) *Camera {
	cfg.applyDefaults()
	return &Camera{home: cfg, center: cfg.Center, zoom: cfg.Zoom}
}

func (c *Camera) State() State       { return c.state }
func (c *Camera) Center() dd.Complex { return c.center }
func (c *Camera) Zoom() float64      { return c.zoom }
func (c *Camera) Config() Config     { return c.home }

// Snapshot copies the view for one frame.
func (c *Camera) Snapshot() Snapshot {
	return Snapshot{Center: c.center, Zoom: c.zoom}
}

// Press starts a drag at (x, y) screen pixels.
func (c *Camera) Press(x, y float64) {
	c.state = Dragging
	c.anchorX, c.anchorY = x, y
}

// Release ends a drag and clears the anchor.
func (c *Camera) Release() {
	c.state = Idle
	c.anchorX, c.anchorY = 0, 0
}

// Move pans the view while dragging. w and h are the window size in pixels.
// The plane moves with the pointer, so the center moves against it. It
// reports whether the center changed.
func (c *Camera) Move(x, y float64, w, h int) bool {
	if c.state != Dragging || w <= 0 || h <= 0 {
		return false
	}
	dx := (x - c.anchorX) * c.home.DragSensitivity
	dy := (y - c.anchorY) * c.home.DragSensitivity
	c.anchorX, c.anchorY = x, y
	if dx == 0 && dy == 0 {
		return false
	}

	vp := c.Snapshot().Viewport(w, h, float64(w)/float64(h))
	next := dd.Complex{
		Re: c.center.Re.Sub(vp.StepX.MulFloat(dx)),
		// Screen y grows downward, the imaginary axis grows upward.
		Im: c.center.Im.Add(vp.StepY.MulFloat(dy)),
	}
	if !next.IsFinite() {
		return false
	}
	c.center = next
	return true
}

// ZoomIn multiplies the zoom by the configured factor. A product that would
// overflow is dropped.
func (c *Camera) ZoomIn() {
	z := c.zoom * c.home.ZoomFactor
	if math.IsInf(z, 0) {
		return
	}
	c.zoom = z
}

// ZoomOut divides the zoom by the configured factor, stopping at MinZoom.
func (c *Camera) ZoomOut() {
	z := c.zoom / c.home.ZoomFactor
	if z < c.home.MinZoom {
		z = c.home.MinZoom
	}
	c.zoom = z
}

// Scroll applies one wheel event. dy > 0 zooms in, dy < 0 zooms out. The view
// stays anchored at its center regardless of the cursor position.
func (c *Camera) Scroll(dy float64) {
	switch {
	case dy > 0:
		c.ZoomIn()
	case dy < 0:
		c.ZoomOut()
	}
}

// Jump moves the camera to a stored view. It keeps the drag state.
func (c *Camera) Jump(center dd.Complex, zoom float64) {
	if !center.IsFinite() || !(zoom > 0) || math.IsInf(zoom, 0) {
		return
	}
	if zoom < c.home.MinZoom {
		zoom = c.home.MinZoom
	}
	c.center = center
	c.zoom = zoom
}

// Reset returns to the initial view and ends any drag.
func (c *Camera) Reset() {
	c.center = c.home.Center
	c.zoom = c.home.Zoom
	c.Release()
}
