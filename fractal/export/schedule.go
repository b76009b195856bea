// Package export renders a geometric zoom sequence at a fixed resolution into
// numbered images for an external video muxer.
package export

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
)

// Params describes a zoom sequence.
type Params struct {
	Center     dd.Complex
	StartRange float64 // half extent of frame 0
	ZoomFactor float64 // per-frame shrink of the half extent
	FrameCount int
	Width      int
	Height     int
	MaxIter    int
}

// DefaultParams is a 1600 frame dive at 1920x1080.
func DefaultParams() Params {
	return Params{
		Center:     dd.C(-0.5693038674840807, -0.5724608139558649),
		StartRange: 1.5,
		ZoomFactor: 1.05,
		FrameCount: 1600,
		Width:      1920,
		Height:     1080,
		MaxIter:    512,
	}
}

func (p Params) Validate() error {
	var errs []error
	if p.FrameCount <= 0 {
		errs = append(errs, fmt.Errorf("frame count %d must be positive", p.FrameCount))
	}
	if !(p.ZoomFactor > 1) || math.IsInf(p.ZoomFactor, 1) {
		errs = append(errs, fmt.Errorf("zoom factor %v must be finite and > 1", p.ZoomFactor))
	}
	if !(p.StartRange > 0) || math.IsInf(p.StartRange, 1) {
		errs = append(errs, fmt.Errorf("start range %v must be finite and > 0", p.StartRange))
	}
	if p.Width <= 0 || p.Height <= 0 {
		errs = append(errs, fmt.Errorf("resolution %dx%d must be positive", p.Width, p.Height))
	}
	if p.MaxIter < 0 {
		errs = append(errs, fmt.Errorf("max iterations %d must not be negative", p.MaxIter))
	}
	if !p.Center.IsFinite() {
		errs = append(errs, fmt.Errorf("center %v must be finite", p.Center))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

// Frame is one entry of the schedule.
type Frame struct {
	Index      int
	Center     dd.Complex
	HalfWidth  float64
	HalfHeight float64
}

func (f Frame) Rect() camera.Rect {
	return camera.Rect{Center: f.Center, HalfWidth: f.HalfWidth, HalfHeight: f.HalfHeight}
}

// Schedule lists every frame of p. Frame i has half extent
// StartRange / ZoomFactor^i; entries whose extent would stop shrinking in
// float64 are rejected.
func Schedule(p Params) ([]Frame, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	frames := make([]Frame, p.FrameCount)
	for i := range frames {
		half := p.StartRange / math.Pow(p.ZoomFactor, float64(i))
		if half == 0 || (i > 0 && !(half < frames[i-1].HalfWidth)) {
			return nil, fmt.Errorf("export: frame %d: extent %v no longer shrinks", i, half)
		}
		frames[i] = Frame{Index: i, Center: p.Center, HalfWidth: half, HalfHeight: half}
	}
	return frames, nil
}

// IndexWidth is the zero-padded width that keeps n indices in numeric order
// when sorted as strings (at least 4).
func IndexWidth(n int) int {
	w := 1
	if n > 1 {
		w = len(strconv.Itoa(n - 1))
	}
	return max(w, 4)
}

// FrameName returns prefix followed by i zero-padded to width and ".png".
func FrameName(prefix string, i, width int) string {
	return fmt.Sprintf("%s%0*d.png", prefix, width, i)
}
