package camera

import (
	"math"
	"testing"

	"deepzoom/fractal/dd"
)

func TestSampleCenterPixel(t *testing.T) {
	s := Snapshot{Center: dd.C(-0.75, 0.1), Zoom: 4}
	vp := s.Viewport(800, 600, 800.0/600.0)
	if got := vp.Sample(400, 300); got != s.Center {
		t.Fatalf("Sample(center) = %v, want %v", got, s.Center)
	}
}

func TestSampleSpan(t *testing.T) {
	s := Snapshot{Center: dd.C(0, 0), Zoom: 1}
	vp := s.Viewport(800, 600, 800.0/600.0)

	top := vp.Sample(400, 0)
	if math.Abs(top.Im.Hi-1) > 1e-15 {
		t.Fatalf("Sample(top).Im = %v, want 1", top.Im)
	}
	left := vp.Sample(0, 300)
	if math.Abs(left.Re.Hi+4.0/3.0) > 1e-15 {
		t.Fatalf("Sample(left).Re = %v, want -4/3", left.Re)
	}
	hw, hh := vp.HalfSpan()
	if math.Abs(hw-4.0/3.0) > 1e-15 || math.Abs(hh-1) > 1e-15 {
		t.Fatalf("HalfSpan() = %v, %v", hw, hh)
	}
}

func TestZoomOneSpansTwoUnitsVertically(t *testing.T) {
	for _, sz := range [][2]int{{800, 600}, {1920, 1080}, {7, 13}, {100, 100}} {
		w, h := sz[0], sz[1]
		aspect := float64(w) / float64(h)
		hw, hh := Snapshot{Zoom: 1}.Viewport(w, h, aspect).HalfSpan()
		if math.Abs(hh-1) > 1e-15 || math.Abs(hw-aspect) > 1e-14 {
			t.Fatalf("%dx%d: HalfSpan() = %v, %v, want %v, 1", w, h, hw, hh, aspect)
		}
		_, hh = Snapshot{Zoom: 4}.Viewport(w, h, aspect).HalfSpan()
		if math.Abs(hh-0.25) > 1e-15 {
			t.Fatalf("%dx%d zoom 4: half height = %v, want 0.25", w, h, hh)
		}
	}
}

func TestSupersampledViewportCoversSameRegion(t *testing.T) {
	s := Snapshot{Center: dd.C(-0.5, 0), Zoom: 3}
	base := s.Viewport(800, 600, 800.0/600.0)
	big := s.Viewport(2400, 1800, 800.0/600.0)
	a := base.Sample(0, 0)
	b := big.Sample(0, 0)
	if d := a.Sub(b); math.Abs(d.Re.Hi) > 1e-15 || math.Abs(d.Im.Hi) > 1e-15 {
		t.Fatalf("corner moved under supersampling: %v vs %v", a, b)
	}
}

func TestDeepZoomKeepsSubPixelOffsets(t *testing.T) {
	s := Snapshot{Center: dd.C(-0.5693038674840807, -0.5724608139558649), Zoom: 1e20}
	vp := s.Viewport(800, 600, 800.0/600.0)
	a := vp.Sample(400, 300)
	b := vp.Sample(401, 300)
	step := b.Re.Sub(a.Re).Float64()
	want := vp.StepX.Float64()
	if step == 0 || math.Abs(step-want) > 1e-6*want {
		t.Fatalf("neighbouring pixels differ by %g, want %g", step, want)
	}
}

func TestRectViewport(t *testing.T) {
	r := Rect{Center: dd.C(1, 2), HalfWidth: 1.5, HalfHeight: 1.5}
	vp := r.Viewport(1920, 1080)
	left := vp.Sample(0, 540)
	if math.Abs(left.Re.Hi-(-0.5)) > 1e-15 {
		t.Fatalf("Sample(left).Re = %v, want -0.5", left.Re)
	}
	top := vp.Sample(960, 0)
	if math.Abs(top.Im.Hi-3.5) > 1e-15 {
		t.Fatalf("Sample(top).Im = %v, want 3.5", top.Im)
	}
}
