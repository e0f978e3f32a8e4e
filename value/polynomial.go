package value

import "math"

// pad returns a and b left-padded with zeros to the same length.
func pad(a, b []float64) ([]float64, []float64) {
	switch {
	case len(a) < len(b):
		a = append(make([]float64, len(b)-len(a), len(b)), a...)
	case len(b) < len(a):
		b = append(make([]float64, len(a)-len(b), len(a)), b...)
	}
	return a, b
}

// Add returns p + q.
func (p Polynomial) Add(q Polynomial) Polynomial {
	a, b := pad(p.Coeffs, q.Coeffs)
	r := make([]float64, len(a))
	for i := range r {
		r[i] = a[i] + b[i]
	}
	return Polynomial{Coeffs: r}
}

// Sub returns p - q.
func (p Polynomial) Sub(q Polynomial) Polynomial {
	a, b := pad(p.Coeffs, q.Coeffs)
	r := make([]float64, len(a))
	for i := range r {
		r[i] = a[i] - b[i]
	}
	return Polynomial{Coeffs: r}
}

// Mul returns p * q.
func (p Polynomial) Mul(q Polynomial) Polynomial {
	if len(p.Coeffs) == 0 || len(q.Coeffs) == 0 {
		return Polynomial{Coeffs: []float64{0}}
	}
	r := make([]float64, len(p.Coeffs)+len(q.Coeffs)-1)
	for i, a := range p.Coeffs {
		for j, b := range q.Coeffs {
			r[i+j] += a * b
		}
	}
	return Polynomial{Coeffs: r}
}

// Pow returns p raised to a non-negative integer power by repeated squaring.
func (p Polynomial) Pow(n int) Polynomial {
	r := Polynomial{Coeffs: []float64{1}}
	for n > 0 {
		if n&1 == 1 {
			r = r.Mul(p)
		}
		n >>= 1
		if n > 0 {
			p = p.Mul(p)
		}
	}
	return r
}

// Degree returns the degree of p, ignoring leading zeros. The zero polynomial
// has degree -1.
func (p Polynomial) Degree() int {
	return len(trimLeading(p.Coeffs)) - 1
}

// Eval evaluates p at x using Horner's method.
func (p Polynomial) Eval(x float64) float64 {
	var r float64
	for _, c := range p.Coeffs {
		r = r*x + c
	}
	return r
}

// LongDivide divides p by d, returning the quotient and remainder. The
// remainder has lower degree than d and no leading zeros; the zero remainder
// is Polynomial([0]).
func (p Polynomial) LongDivide(d Polynomial) (q, rem Polynomial, err error) {
	div := trimLeading(d.Coeffs)
	if len(div) == 0 {
		return Polynomial{}, Polynomial{}, &DivisionByZeroError{Op: "/", Left: p}
	}
	r := append([]float64(nil), trimLeading(p.Coeffs)...)
	if len(r) < len(div) {
		if len(r) == 0 {
			r = []float64{0}
		}
		return Polynomial{Coeffs: []float64{0}}, Polynomial{Coeffs: r}, nil
	}
	quo := make([]float64, len(r)-len(div)+1)
	for len(r) >= len(div) {
		c := r[0] / div[0]
		deg := len(r) - len(div)
		quo[len(quo)-1-deg] = c
		for i := range div {
			r[i] -= c * div[i]
		}
		// The leading term cancels by construction; don't trust rounding.
		r[0] = 0
		r = trimLeading(r)
	}
	if len(r) == 0 {
		r = []float64{0}
	}
	return Polynomial{Coeffs: quo}, Polynomial{Coeffs: r}, nil
}

// Roots finds the roots of a linear or quadratic polynomial. Real roots are
// returned as a Vector in descending order; a complex conjugate pair is
// returned as its root with positive imaginary part.
func (p Polynomial) Roots() (Value, error) {
	c := trimLeading(p.Coeffs)
	switch len(c) {
	case 2:
		return Vector{Components: []float64{-c[1] / c[0]}}, nil
	case 3:
		a, b, cc := c[0], c[1], c[2]
		disc := b*b - 4*a*cc
		switch {
		case disc > 0:
			s := math.Sqrt(disc)
			r1, r2 := (-b+s)/(2*a), (-b-s)/(2*a)
			if r1 < r2 {
				r1, r2 = r2, r1
			}
			return Vector{Components: []float64{r1, r2}}, nil
		case disc == 0:
			return Vector{Components: []float64{-b / (2 * a)}}, nil
		default:
			return Complex{Re: -b / (2 * a), Im: math.Abs(math.Sqrt(-disc) / (2 * a))}, nil
		}
	default:
		return nil, &DimensionError{Op: "roots", Msg: "only linear and quadratic polynomials are supported"}
	}
}
