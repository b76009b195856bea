// Package shader runs the escape-time evaluator on the GPU as a Kage fragment
// shader. The shader carries each coordinate as an unevaluated sum of two
// float32 values, giving roughly 48 significant bits.
package shader

import (
	_ "embed"
	"math"

	"deepzoom/fractal/camera"
	"deepzoom/fractal/dd"
	"deepzoom/fractal/render"
)

// Source is the Kage program.
//
//go:embed mandelbrot.kage
var Source []byte

// MaxIterations is the shader's constant loop bound.
const MaxIterations = 65536

// Split32 packs f into a float32 pair whose sum approximates f to about
// 48 bits.
func Split32(f dd.Float) [2]float32 {
	hi := float32(f.Hi)
	if math.IsInf(float64(hi), 0) || math.IsNaN(float64(hi)) {
		return [2]float32{hi, 0}
	}
	lo := float32(f.Sub(dd.FromFloat(float64(hi))).Float64())
	return [2]float32{hi, lo}
}

// Uniforms returns the uniform values for rendering vp. maxIter is clamped to
// [0, MaxIterations].
func Uniforms(vp camera.Viewport, maxIter int, p render.Palette) map[string]any {
	maxIter = min(max(maxIter, 0), MaxIterations)
	re := Split32(vp.Center.Re)
	im := Split32(vp.Center.Im)
	sx := Split32(vp.StepX)
	sy := Split32(vp.StepY)
	return map[string]any{
		"Resolution": []float32{float32(vp.Width), float32(vp.Height)},
		"CenterRe":   []float32{re[0], re[1]},
		"CenterIm":   []float32{im[0], im[1]},
		"Step":       []float32{sx[0], sx[1], sy[0], sy[1]},
		"MaxIter":    float32(maxIter),
		"Palette":    float32(p),
	}
}
