// Package escape evaluates the Mandelbrot escape-time recurrence z -> z^2 + c.
//
// Evaluations are pure functions of their inputs, so any number of pixels may be
// evaluated concurrently and in any order.
package escape

import (
	"fmt"

	"deepzoom/fractal/dd"
)

// Bailout is the squared escape radius. An orbit has escaped once
// |z|^2 >= Bailout, so c = 2 escapes after exactly one iteration.
const Bailout = 4.0

// Precision selects the arithmetic used for the orbit.
type Precision uint8

const (
	// DoubleDouble iterates with compensated pairs (~32 digits).
	DoubleDouble Precision = iota
	// Double iterates with native float64. It is kept for comparison; past a
	// zoom of ~1e7 its pixels visibly collapse into blocks.
	Double
	// DoubleDoubleDekker is DoubleDouble with products split by Dekker's
	// method instead of FMA, the arithmetic the shader runs.
	DoubleDoubleDekker
)

func (p Precision) String() string {
	switch p {
	case DoubleDouble:
		return "double-double"
	case Double:
		return "double"
	case DoubleDoubleDekker:
		return "double-double-nofma"
	}
	return fmt.Sprintf("precision(%d)", uint8(p))
}

// ParsePrecision accepts "double-double" (or "dd"), "double-double-nofma"
// (or "dekker") and "double" (or "native").
func ParsePrecision(s string) (Precision, error) {
	switch s {
	case "", "dd", "double-double":
		return DoubleDouble, nil
	case "double-double-nofma", "dekker":
		return DoubleDoubleDekker, nil
	case "double", "native":
		return Double, nil
	}
	return 0, fmt.Errorf("escape: unknown precision %q", s)
}

// Iterations returns the number of completed iterations before the orbit of c
// escapes, or n if it stays bounded for n iterations. The test runs before
// the increment, so an orbit escaping at step i reports i.
func Iterations(c dd.Complex, n int) int {
	var zRe, zIm dd.Float
	i := 0
	for ; i < n; i++ {
		zRe2 := zRe.Sqr()
		zIm2 := zIm.Sqr()
		// The threshold is coarse; the high parts decide it.
		if zRe2.Hi+zIm2.Hi >= Bailout {
			break
		}
		x := zRe.Mul(zIm)
		zIm = x.Add(x).Add(c.Im)
		zRe = zRe2.Sub(zIm2).Add(c.Re)
	}
	return i
}

// IterationsDekker is Iterations without FMA.
func IterationsDekker(c dd.Complex, n int) int {
	var zRe, zIm dd.Float
	i := 0
	for ; i < n; i++ {
		zRe2 := zRe.SqrDekker()
		zIm2 := zIm.SqrDekker()
		if zRe2.Hi+zIm2.Hi >= Bailout {
			break
		}
		x := zRe.MulDekker(zIm)
		zIm = x.Add(x).Add(c.Im)
		zRe = zRe2.Sub(zIm2).Add(c.Re)
	}
	return i
}

// IterationsNative is Iterations in plain float64.
func IterationsNative(c complex128, n int) int {
	cr, ci := real(c), imag(c)
	var zr, zi float64
	i := 0
	for ; i < n; i++ {
		zr2 := zr * zr
		zi2 := zi * zi
		if zr2+zi2 >= Bailout {
			break
		}
		x := zr * zi
		zi = x + x + ci
		zr = zr2 - zi2 + cr
	}
	return i
}

// Norm maps an iteration count to [0,1]: the fraction of the budget consumed.
func Norm(i, n int) float64 {
	if n <= 0 {
		return 0
	}
	if i >= n {
		return 1
	}
	if i <= 0 {
		return 0
	}
	return float64(i) / float64(n)
}

// Evaluator bundles an iteration budget with a precision.
type Evaluator struct {
	MaxIter   int
	Precision Precision
}

// Eval returns the iteration count for c.
func (e Evaluator) Eval(c dd.Complex) int {
	switch e.Precision {
	case Double:
		return IterationsNative(c.Complex128(), e.MaxIter)
	case DoubleDoubleDekker:
		return IterationsDekker(c, e.MaxIter)
	}
	return Iterations(c, e.MaxIter)
}
