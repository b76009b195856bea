package render

import (
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/escape"
)

// DefaultTileSize is the edge of the square work units handed to workers.
const DefaultTileSize = 64

// Renderer evaluates every pixel of a viewport independently on a bounded
// pool of workers. It is safe for concurrent use.
type Renderer struct {
	Workers   int // <= 0 means GOMAXPROCS
	TileSize  int // <= 0 means DefaultTileSize
	Palette   Palette
	Precision escape.Precision

	mu   sync.Mutex
	lut  []color.RGBA
	lutN int
	lutP Palette
}

// Render fills t with the viewport vp at maxIter iterations per pixel. It
// returns only after every pixel has been evaluated.
func (r *Renderer) Render(t *Target, vp camera.Viewport, maxIter int) error {
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return fmt.Errorf("render: empty target")
	}
	if vp.Width != t.Width || vp.Height != t.Height {
		return fmt.Errorf("render: viewport %dx%d does not match target %dx%d", vp.Width, vp.Height, t.Width, t.Height)
	}
	if maxIter < 0 {
		maxIter = 0
	}

	colors := r.colors(maxIter)
	ev := escape.Evaluator{MaxIter: maxIter, Precision: r.Precision}

	ts := r.TileSize
	if ts <= 0 {
		ts = DefaultTileSize
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for _, tile := range SplitTiles(t.Bounds(), ts, ts) {
		g.Go(func() error {
			renderTile(t, vp, ev, colors, tile)
			return nil
		})
	}
	return g.Wait()
}

func renderTile(t *Target, vp camera.Viewport, ev escape.Evaluator, colors []color.RGBA, tile image.Rectangle) {
	for py := tile.Min.Y; py < tile.Max.Y; py++ {
		off := py*t.Stride + tile.Min.X*4
		for px := tile.Min.X; px < tile.Max.X; px++ {
			c := colors[ev.Eval(vp.Sample(px, py))]
			t.Pix[off+0] = c.R
			t.Pix[off+1] = c.G
			t.Pix[off+2] = c.B
			t.Pix[off+3] = c.A
			off += 4
		}
	}
}

func (r *Renderer) colors(n int) []color.RGBA {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lut == nil || r.lutN != n || r.lutP != r.Palette {
		r.lut = r.Palette.LUT(n)
		r.lutN = n
		r.lutP = r.Palette
	}
	return r.lut
}

// SplitTiles splits rect into tiles of size tileW x tileH. Tiles at the right
// and bottom edges are smaller when rect is not divisible.
func SplitTiles(rect image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := rect.Dx()
	h := rect.Dy()

	var tiles []image.Rectangle
	for oy := 0; oy < h; oy += tileH {
		th := tileH
		if oy+th > h {
			th = h - oy
		}
		for ox := 0; ox < w; ox += tileW {
			tw := tileW
			if ox+tw > w {
				tw = w - ox
			}
			tiles = append(tiles, image.Rect(
				rect.Min.X+ox,
				rect.Min.Y+oy,
				rect.Min.X+ox+tw,
				rect.Min.Y+oy+th,
			))
		}
	}
	return tiles
}
