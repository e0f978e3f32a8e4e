// Package value implements the closed set of values that stepcalc expressions
// evaluate to, along with their arithmetic.
//
// The variants are Scalar, Complex, Polynomial, Matrix, Vector, Boolean, and
// Function. No other package can add a variant: every operation dispatches with
// an exhaustive type switch over this set.
package value

import (
	"math"
	"strconv"
	"strings"
)

// Value is the result of evaluating an expression.
type Value interface {
	// Kind returns the variant of the value.
	Kind() Kind
	// String formats the value the way the step transcript shows it.
	String() string

	value()
}

// Kind identifies a variant of Value.
type Kind int8

const (
	KindScalar Kind = iota
	KindComplex
	KindPolynomial
	KindMatrix
	KindVector
	KindBoolean
	KindFunction
)

var kindNames = [...]string{
	KindScalar:     "Scalar",
	KindComplex:    "Complex",
	KindPolynomial: "Polynomial",
	KindMatrix:     "Matrix",
	KindVector:     "Vector",
	KindBoolean:    "Boolean",
	KindFunction:   "Function",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindNames[k]
}

// Scalar is a real number.
type Scalar float64

// Complex is a complex number Re + Im i.
type Complex struct {
	Re, Im float64
}

// Polynomial is a polynomial in one variable. Coeffs[0] is the coefficient of
// the highest-degree term.
type Polynomial struct {
	Coeffs []float64
}

// Matrix is a rectangular grid of reals, stored by rows.
type Matrix struct {
	Rows [][]float64
}

// Vector is a list of real components.
type Vector struct {
	Components []float64
}

// Boolean is the result of a comparison or logical operator.
type Boolean bool

// Function is a reference to a named function that has not been applied.
type Function struct {
	Name string
}

func (Scalar) Kind() Kind     { return KindScalar }
func (Complex) Kind() Kind    { return KindComplex }
func (Polynomial) Kind() Kind { return KindPolynomial }
func (Matrix) Kind() Kind     { return KindMatrix }
func (Vector) Kind() Kind     { return KindVector }
func (Boolean) Kind() Kind    { return KindBoolean }
func (Function) Kind() Kind   { return KindFunction }

func (Scalar) value()     {}
func (Complex) value()    {}
func (Polynomial) value() {}
func (Matrix) value()     {}
func (Vector) value()     {}
func (Boolean) value()    {}
func (Function) value()   {}

// FormatFloat formats a real the way values print it: shortest
// representation, with negative zero printed as 0.
func FormatFloat(x float64) string {
	if x == 0 {
		x = 0
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}

func (s Scalar) String() string {
	return FormatFloat(float64(s))
}

func (c Complex) String() string {
	if c.Im < 0 || (c.Im == 0 && math.Signbit(c.Im)) {
		return FormatFloat(c.Re) + " - " + FormatFloat(-c.Im) + "i"
	}
	return FormatFloat(c.Re) + " + " + FormatFloat(c.Im) + "i"
}

func (p Polynomial) String() string {
	return "Polynomial(" + fmtlist(p.Coeffs) + ")"
}

func (m Matrix) String() string {
	var b strings.Builder
	b.WriteString("Matrix([")
	for i, row := range m.Rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmtlist(row))
	}
	b.WriteString("])")
	return b.String()
}

func (v Vector) String() string {
	return "Vector(" + fmtlist(v.Components) + ")"
}

func (b Boolean) String() string {
	return strconv.FormatBool(bool(b))
}

func (f Function) String() string {
	return "<function " + f.Name + ">"
}

func fmtlist(xs []float64) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, x := range xs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(FormatFloat(x))
	}
	b.WriteByte(']')
	return b.String()
}

// Equal reports whether two values are the same variant with equal contents.
// Polynomials are compared after stripping leading zero coefficients.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Scalar:
		b, ok := b.(Scalar)
		return ok && a == b
	case Complex:
		b, ok := b.(Complex)
		return ok && a == b
	case Polynomial:
		b, ok := b.(Polynomial)
		return ok && floatsEqual(trimLeading(a.Coeffs), trimLeading(b.Coeffs))
	case Matrix:
		b, ok := b.(Matrix)
		if !ok || len(a.Rows) != len(b.Rows) {
			return false
		}
		for i := range a.Rows {
			if !floatsEqual(a.Rows[i], b.Rows[i]) {
				return false
			}
		}
		return true
	case Vector:
		b, ok := b.(Vector)
		return ok && floatsEqual(a.Components, b.Components)
	case Boolean:
		b, ok := b.(Boolean)
		return ok && a == b
	case Function:
		b, ok := b.(Function)
		return ok && a == b
	default:
		return false
	}
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// trimLeading returns xs without its leading zeros. The result aliases xs.
func trimLeading(xs []float64) []float64 {
	for len(xs) > 0 && xs[0] == 0 {
		xs = xs[1:]
	}
	return xs
}
