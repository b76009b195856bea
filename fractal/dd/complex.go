package dd

// Complex is a point of the complex plane with double-double components.
type Complex struct {
	Re, Im Float
}

func C(re, im float64) Complex { return Complex{Re: FromFloat(re), Im: FromFloat(im)} }

func (a Complex) Sub(b Complex) Complex { return Complex{Re: a.Re.Sub(b.Re), Im: a.Im.Sub(b.Im)} }

func (a Complex) IsFinite() bool { return a.Re.IsFinite() && a.Im.IsFinite() }

// Complex128 rounds a to native precision.
func (a Complex) Complex128() complex128 { return complex(a.Re.Float64(), a.Im.Float64()) }

func (a Complex) String() string { return "(" + a.Re.String() + ", " + a.Im.String() + "i)" }
