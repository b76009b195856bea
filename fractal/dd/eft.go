package dd

import "math"

// splitter is 2^27+1, the Veltkamp constant for float64.
const splitter = 134217729.0

// Operands above this magnitude would overflow splitter*a.
const splitThresh = 6.69692879491417e+299

// TwoSum returns s = fl(a+b) and the exact rounding error e, so a+b == s+e.
func TwoSum(a, b float64) (s, e float64) {
	s = a + b
	v := s - a
	e = (a - (s - v)) + (b - v)
	return s, e
}

// QuickTwoSum is TwoSum for |a| >= |b|. It is used to renormalize a pair.
func QuickTwoSum(a, b float64) (s, e float64) {
	s = a + b
	e = b - (s - a)
	return s, e
}

// TwoProd returns p = fl(a*b) and the exact error e using a fused multiply-add.
func TwoProd(a, b float64) (p, e float64) {
	p = a * b
	e = math.FMA(a, b, -p)
	return p, e
}

// Split returns hi+lo == a where hi holds the upper 26 bits of the mantissa.
func Split(a float64) (hi, lo float64) {
	if a > splitThresh || a < -splitThresh {
		a *= 3.7252902984619140625e-09 // 2^-28
		t := float64(splitter * a)
		hi = t - (t - a)
		lo = a - hi
		return hi * 268435456.0, lo * 268435456.0 // 2^28
	}
	// The explicit conversions keep the compiler from fusing the products.
	t := float64(splitter * a)
	hi = t - (t - a)
	lo = a - hi
	return hi, lo
}

// TwoProdDekker is TwoProd without a fused multiply-add (Dekker's product). It
// is the form an execution unit without FMA has to use.
func TwoProdDekker(a, b float64) (p, e float64) {
	p = a * b
	ah, al := Split(a)
	bh, bl := Split(b)
	e = ((float64(ah*bh) - p) + float64(ah*bl) + float64(al*bh)) + float64(al*bl)
	return p, e
}
