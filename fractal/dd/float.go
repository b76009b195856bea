package dd

import (
	"math"
	"math/big"
	"strconv"
)

// Float is a double-double number Hi+Lo.
type Float struct {
	Hi, Lo float64
}

var (
	Zero = Float{}
	One  = Float{Hi: 1}
)

// bigPrec is comfortably above the 106 bits a Float can hold.
const bigPrec = 128

// FromFloat returns the exact double-double value of f.
func FromFloat(f float64) Float { return Float{Hi: f} }

// Add returns a+b. This is the accurate variant: the low parts are summed
// error-free as well, so cancellation between a and b does not lose the result.
func (a Float) Add(b Float) Float {
	s1, s2 := TwoSum(a.Hi, b.Hi)
	t1, t2 := TwoSum(a.Lo, b.Lo)
	s2 += t1
	s1, s2 = QuickTwoSum(s1, s2)
	s2 += t2
	s1, s2 = QuickTwoSum(s1, s2)
	return Float{Hi: s1, Lo: s2}
}

// Sub returns a-b.
func (a Float) Sub(b Float) Float { return a.Add(b.Neg()) }

// AddFloat returns a+b for a plain float64 b.
func (a Float) AddFloat(b float64) Float {
	s, e := TwoSum(a.Hi, b)
	e += a.Lo
	s, e = QuickTwoSum(s, e)
	return Float{Hi: s, Lo: e}
}

// Mul returns a*b.
func (a Float) Mul(b Float) Float {
	p, e := TwoProd(a.Hi, b.Hi)
	e += float64(a.Hi*b.Lo) + float64(a.Lo*b.Hi)
	p, e = QuickTwoSum(p, e)
	return Float{Hi: p, Lo: e}
}

// MulDekker is Mul with the FMA-free error term.
func (a Float) MulDekker(b Float) Float {
	p, e := TwoProdDekker(a.Hi, b.Hi)
	e += float64(a.Hi*b.Lo) + float64(a.Lo*b.Hi)
	p, e = QuickTwoSum(p, e)
	return Float{Hi: p, Lo: e}
}

// MulFloat returns a*b for a plain float64 b.
func (a Float) MulFloat(b float64) Float {
	p, e := TwoProd(a.Hi, b)
	e += float64(a.Lo * b)
	p, e = QuickTwoSum(p, e)
	return Float{Hi: p, Lo: e}
}

// Sqr returns a*a. The two cross terms are identical, so it is computed once.
func (a Float) Sqr() Float {
	p, e := TwoProd(a.Hi, a.Hi)
	e += 2 * float64(a.Hi*a.Lo)
	p, e = QuickTwoSum(p, e)
	return Float{Hi: p, Lo: e}
}

// SqrDekker is Sqr with the FMA-free error term.
func (a Float) SqrDekker() Float {
	p, e := TwoProdDekker(a.Hi, a.Hi)
	e += 2 * float64(a.Hi*a.Lo)
	p, e = QuickTwoSum(p, e)
	return Float{Hi: p, Lo: e}
}

// Div returns a/b using three rounds of long division.
func (a Float) Div(b Float) Float {
	q1 := a.Hi / b.Hi
	r := a.Sub(b.MulFloat(q1))
	q2 := r.Hi / b.Hi
	r = r.Sub(b.MulFloat(q2))
	q3 := r.Hi / b.Hi
	q1, q2 = QuickTwoSum(q1, q2)
	return Float{Hi: q1, Lo: q2}.AddFloat(q3)
}

func (a Float) Neg() Float { return Float{Hi: -a.Hi, Lo: -a.Lo} }

func (a Float) Abs() Float {
	if a.Hi < 0 || (a.Hi == 0 && a.Lo < 0) {
		return a.Neg()
	}
	return a
}

// Cmp returns -1, 0 or +1. NaN compares as 0.
func (a Float) Cmp(b Float) int {
	switch {
	case a.Hi < b.Hi:
		return -1
	case a.Hi > b.Hi:
		return 1
	case a.Lo < b.Lo:
		return -1
	case a.Lo > b.Lo:
		return 1
	}
	return 0
}

// Float64 rounds a to the nearest float64.
func (a Float) Float64() float64 { return a.Hi + a.Lo }

func (a Float) IsFinite() bool {
	return !math.IsNaN(a.Hi) && !math.IsInf(a.Hi, 0) && !math.IsNaN(a.Lo) && !math.IsInf(a.Lo, 0)
}

// Big returns the exact value of a. It panics if a is not finite.
func (a Float) Big() *big.Float {
	f := new(big.Float).SetPrec(bigPrec).SetFloat64(a.Hi)
	return f.Add(f, new(big.Float).SetFloat64(a.Lo))
}

// FromBig rounds f to the nearest double-double.
func FromBig(f *big.Float) Float {
	hi, _ := f.Float64()
	if math.IsInf(hi, 0) {
		return Float{Hi: hi}
	}
	r := new(big.Float).SetPrec(bigPrec).Sub(f, big.NewFloat(hi))
	lo, _ := r.Float64()
	return Float{Hi: hi, Lo: lo}
}

// Parse reads a decimal or scientific literal at full double-double precision.
func Parse(s string) (Float, error) {
	f, _, err := big.ParseFloat(s, 10, bigPrec, big.ToNearestEven)
	if err != nil {
		return Float{}, err
	}
	return FromBig(f), nil
}

// String formats a with 32 significant digits.
func (a Float) String() string {
	if !a.IsFinite() {
		return strconv.FormatFloat(a.Hi, 'g', -1, 64)
	}
	return a.Big().Text('g', 32)
}

// MarshalText encodes a as a decimal string so it survives text formats.
func (a Float) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Float) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}
