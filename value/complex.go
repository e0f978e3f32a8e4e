package value

import (
	"math"
	"math/cmplx"
)

func (c Complex) c128() complex128 {
	return complex(c.Re, c.Im)
}

func fromC128(z complex128) Complex {
	return Complex{Re: real(z), Im: imag(z)}
}

// Add returns c + d.
func (c Complex) Add(d Complex) Complex {
	return Complex{Re: c.Re + d.Re, Im: c.Im + d.Im}
}

// Sub returns c - d.
func (c Complex) Sub(d Complex) Complex {
	return Complex{Re: c.Re - d.Re, Im: c.Im - d.Im}
}

// Mul returns c d = (ac - bd) + (ad + bc)i.
func (c Complex) Mul(d Complex) Complex {
	return Complex{
		Re: c.Re*d.Re - c.Im*d.Im,
		Im: c.Re*d.Im + c.Im*d.Re,
	}
}

// Div returns c / d, computed by multiplying by the conjugate of d.
func (c Complex) Div(d Complex) (Complex, error) {
	den := d.Re*d.Re + d.Im*d.Im
	if den == 0 {
		return Complex{}, &DivisionByZeroError{Op: "/", Left: c}
	}
	n := c.Mul(d.Conj())
	return Complex{Re: n.Re / den, Im: n.Im / den}, nil
}

// Conj returns the complex conjugate of c.
func (c Complex) Conj() Complex {
	return Complex{Re: c.Re, Im: -c.Im}
}

// Abs returns the modulus of c.
func (c Complex) Abs() float64 {
	return math.Hypot(c.Re, c.Im)
}

// Pow returns the principal value of c raised to a real power.
func (c Complex) Pow(x float64) Complex {
	if x == math.Trunc(x) && math.Abs(x) <= 64 {
		// Repeated squaring keeps integer powers of Gaussian integers exact.
		n := int(math.Abs(x))
		r, b := Complex{Re: 1}, c
		for n > 0 {
			if n&1 == 1 {
				r = r.Mul(b)
			}
			b = b.Mul(b)
			n >>= 1
		}
		if x < 0 {
			r, _ = Complex{Re: 1}.Div(r)
		}
		return r
	}
	return fromC128(cmplx.Pow(c.c128(), complex(x, 0)))
}

// Root returns the principal n-th root of c.
func (c Complex) Root(n int) (Complex, error) {
	if n < 1 {
		return Complex{}, &DomainError{X: Scalar(n), Func: "root"}
	}
	mag := math.Pow(c.Abs(), 1/float64(n))
	a := math.Atan2(c.Im, c.Re) / float64(n)
	return Complex{Re: mag * math.Cos(a), Im: mag * math.Sin(a)}, nil
}

// NthRoots returns all n n-th roots of c, starting with the principal root and
// proceeding counterclockwise. n must be at most MaxExponent.
func (c Complex) NthRoots(n int) ([]Complex, error) {
	if n < 1 || n > MaxExponent {
		return nil, &DomainError{X: Scalar(n), Func: "root"}
	}
	mag := math.Pow(c.Abs(), 1/float64(n))
	theta := math.Atan2(c.Im, c.Re)
	roots := make([]Complex, n)
	for k := range roots {
		a := (theta + 2*math.Pi*float64(k)) / float64(n)
		roots[k] = Complex{Re: mag * math.Cos(a), Im: mag * math.Sin(a)}
	}
	return roots, nil
}
