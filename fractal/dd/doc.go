// Package dd implements double-double ("compensated pair") arithmetic.
//
// A Float is an unevaluated sum Hi+Lo of two float64 values with |Lo| <= ulp(Hi)/2,
// which carries about 106 bits of mantissa (~32 decimal digits). All operations are
// built from native float64 operations only: error-free transformations (TwoSum,
// QuickTwoSum, TwoProd) followed by renormalization.
//
// Values are immutable; every operation returns a new value.
//
// The package does not trap: NaN and Inf propagate the same way float64 does.
package dd
