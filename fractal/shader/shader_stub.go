//go:build !cgo

package shader

import (
	"errors"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/render"
)

type Renderer struct {
	Palette render.Palette
}

func New(render.Palette) (*Renderer, error) {
	return nil, errors.New("shader: build: GPU rendering requires cgo (build/run with CGO_ENABLED=1)")
}

func (r *Renderer) Render(*render.Target, camera.Viewport, int) error {
	return errors.New("shader: unavailable")
}
