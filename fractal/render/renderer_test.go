package render

import (
	"image"
	"image/color"
	"testing"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/escape"
)

func TestSplitTilesCoversRect(t *testing.T) {
	rect := image.Rect(0, 0, 130, 70)
	tiles := SplitTiles(rect, 64, 64)
	if got, want := len(tiles), 6; got != want {
		t.Fatalf("len(tiles) = %d, want %d", got, want)
	}

	seen := make(map[image.Point]int)
	for _, tile := range tiles {
		if !tile.In(rect) {
			t.Fatalf("tile %v outside %v", tile, rect)
		}
		for y := tile.Min.Y; y < tile.Max.Y; y++ {
			for x := tile.Min.X; x < tile.Max.X; x++ {
				seen[image.Pt(x, y)]++
			}
		}
	}
	if got, want := len(seen), rect.Dx()*rect.Dy(); got != want {
		t.Fatalf("covered %d pixels, want %d", got, want)
	}
	for p, n := range seen {
		if n != 1 {
			t.Fatalf("pixel %v covered %d times", p, n)
		}
	}
	if last := tiles[len(tiles)-1]; last != image.Rect(128, 64, 130, 70) {
		t.Fatalf("last tile = %v", last)
	}
}

func TestSplitTilesOffsetRect(t *testing.T) {
	tiles := SplitTiles(image.Rect(10, 20, 20, 25), 4, 4)
	if tiles[0] != image.Rect(10, 20, 14, 24) {
		t.Fatalf("tiles[0] = %v", tiles[0])
	}
	if len(tiles) != 6 {
		t.Fatalf("len(tiles) = %d, want 6", len(tiles))
	}
}

func TestRenderMatchesPerPixelEval(t *testing.T) {
	const w, h, n = 37, 23, 64
	snap := camera.Snapshot{Center: dd.C(-0.5, 0), Zoom: 1}
	vp := snap.Viewport(w, h, float64(w)/float64(h))

	r := &Renderer{Workers: 3, TileSize: 8, Palette: Gray}
	tg := NewTarget(w, h)
	if err := r.Render(tg, vp, n); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	lut := Gray.LUT(n)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			want := lut[escape.Iterations(vp.Sample(px, py), n)]
			if got := tg.RGBAAt(px, py); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", px, py, got, want)
			}
		}
	}
}

func TestRenderWithoutFMA(t *testing.T) {
	const w, h, n = 24, 16, 80
	vp := camera.Snapshot{Center: dd.C(-0.745, 0.11), Zoom: 20}.Viewport(w, h, float64(w)/float64(h))

	r := &Renderer{Workers: 2, TileSize: 8, Palette: Gray, Precision: escape.DoubleDoubleDekker}
	tg := NewTarget(w, h)
	if err := r.Render(tg, vp, n); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lut := Gray.LUT(n)
	for py := 0; py < h; py++ {
		for px := 0; px < w; px++ {
			want := lut[escape.IterationsDekker(vp.Sample(px, py), n)]
			if got := tg.RGBAAt(px, py); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", px, py, got, want)
			}
		}
	}
}

func TestRenderIndependentOfTiling(t *testing.T) {
	const w, h, n = 40, 30, 100
	vp := camera.Snapshot{Center: dd.C(-0.745, 0.11), Zoom: 50}.Viewport(w, h, float64(w)/float64(h))

	a := NewTarget(w, h)
	b := NewTarget(w, h)
	if err := (&Renderer{Workers: 1, TileSize: 1000, Palette: Hot}).Render(a, vp, n); err != nil {
		t.Fatal(err)
	}
	if err := (&Renderer{Workers: 8, TileSize: 7, Palette: Hot}).Render(b, vp, n); err != nil {
		t.Fatal(err)
	}
	for i := range a.Pix {
		if a.Pix[i] != b.Pix[i] {
			t.Fatalf("byte %d differs: %d vs %d", i, a.Pix[i], b.Pix[i])
		}
	}
}

func TestRenderInteriorIsWhite(t *testing.T) {
	// The whole 4x4 view sits inside the main cardioid.
	vp := camera.Rect{Center: dd.C(-0.1, 0), HalfWidth: 0.01, HalfHeight: 0.01}.Viewport(4, 4)
	tg := NewTarget(4, 4)
	if err := (&Renderer{}).Render(tg, vp, 50); err != nil {
		t.Fatal(err)
	}
	white := color.RGBA{0xff, 0xff, 0xff, 0xff}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := tg.RGBAAt(x, y); got != white {
				t.Fatalf("pixel (%d,%d) = %v, want white", x, y, got)
			}
		}
	}
}

func TestRenderRejectsMismatchedViewport(t *testing.T) {
	vp := camera.Snapshot{Zoom: 1}.Viewport(10, 10, 1)
	if err := (&Renderer{}).Render(NewTarget(5, 10), vp, 10); err == nil {
		t.Fatalf("Render() error = nil, want mismatch error")
	}
	if err := (&Renderer{}).Render(NewTarget(0, 0), vp, 10); err == nil {
		t.Fatalf("Render() error = nil, want empty target error")
	}
}

func TestRenderIntoStridedView(t *testing.T) {
	const w, h, stride = 3, 2, 20
	buf := make([]byte, h*stride)
	for i := range buf {
		buf[i] = 0xaa
	}
	tg, err := TargetOver(buf, w, h, stride)
	if err != nil {
		t.Fatalf("TargetOver() error = %v", err)
	}
	vp := camera.Rect{Center: dd.C(-0.1, 0), HalfWidth: 0.01, HalfHeight: 0.01}.Viewport(w, h)
	if err := (&Renderer{}).Render(tg, vp, 10); err != nil {
		t.Fatal(err)
	}
	for y := 0; y < h; y++ {
		for i := w * 4; i < stride; i++ {
			if buf[y*stride+i] != 0xaa {
				t.Fatalf("padding byte %d of row %d overwritten", i, y)
			}
		}
	}
}

func TestTargetOverValidates(t *testing.T) {
	if _, err := TargetOver(make([]byte, 10), 2, 2, 8); err == nil {
		t.Fatalf("TargetOver() short buffer error = nil")
	}
	if _, err := TargetOver(make([]byte, 64), 4, 2, 8); err == nil {
		t.Fatalf("TargetOver() short stride error = nil")
	}
	if _, err := TargetOver(make([]byte, 16), 2, 2, 8); err != nil {
		t.Fatalf("TargetOver() exact buffer error = %v", err)
	}
}
