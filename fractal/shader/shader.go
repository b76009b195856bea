//go:build cgo

package shader

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/render"
	"deepzoom/hal"
)

// Renderer draws frames with the Kage program into an offscreen image and
// reads them back into the target. It must be used from the ebiten game loop.
type Renderer struct {
	Palette render.Palette

	shader  *ebiten.Shader
	img     *ebiten.Image
	scratch []byte
}

// New compiles the shader. A build failure carries the compiler diagnostic.
func New(p render.Palette) (*Renderer, error) {
	s, err := ebiten.NewShader(Source)
	if err != nil {
		return nil, fmt.Errorf("shader: build: %w", err)
	}
	return &Renderer{Palette: p, shader: s}, nil
}

func (r *Renderer) Render(t *render.Target, vp camera.Viewport, maxIter int) (err error) {
	if vp.Width != t.Width || vp.Height != t.Height {
		return fmt.Errorf("shader: viewport %dx%d does not match target %dx%d", vp.Width, vp.Height, t.Width, t.Height)
	}
	// The graphics backend panics when it cannot allocate a texture.
	defer func() {
		if p := recover(); p != nil {
			r.release()
			err = fmt.Errorf("%w: %dx%d: %v", hal.ErrIncompleteFramebuffer, t.Width, t.Height, p)
		}
	}()

	if r.img == nil || r.img.Bounds().Dx() != t.Width || r.img.Bounds().Dy() != t.Height {
		r.release()
		r.img = ebiten.NewImage(t.Width, t.Height)
	}
	r.img.DrawRectShader(t.Width, t.Height, r.shader, &ebiten.DrawRectShaderOptions{
		Uniforms: Uniforms(vp, maxIter, r.Palette),
	})

	row := t.Width * 4
	if t.Stride == row {
		r.img.ReadPixels(t.Pix[:row*t.Height])
		return nil
	}
	if len(r.scratch) != row*t.Height {
		r.scratch = make([]byte, row*t.Height)
	}
	r.img.ReadPixels(r.scratch)
	for y := 0; y < t.Height; y++ {
		copy(t.Pix[y*t.Stride:y*t.Stride+row], r.scratch[y*row:(y+1)*row])
	}
	return nil
}

func (r *Renderer) release() {
	if r.img != nil {
		r.img.Deallocate()
		r.img = nil
	}
}
