package value

import (
	"math"
	"math/cmplx"
)

// Binary operator symbols understood by Apply.
const (
	OpAdd   = "+"
	OpSub   = "-"
	OpMul   = "*"
	OpDiv   = "/"
	OpMod   = "%"
	OpPow   = "^"
	OpEq    = "=="
	OpNe    = "!="
	OpLt    = "<"
	OpLe    = "<="
	OpGt    = ">"
	OpGe    = ">="
	OpAnd   = "and"
	OpOr    = "or"
	OpDot   = "dot"
	OpCross = "cross"
	OpRoot  = "root"
)

// Unary operator symbols understood by Unary.
const (
	OpNeg = "neg"
	OpPos = "pos"
	OpNot = "not"
)

var binops = map[string]bool{
	OpAdd: true, OpSub: true, OpMul: true, OpDiv: true, OpMod: true, OpPow: true, "**": true,
	OpEq: true, OpNe: true, OpLt: true, OpLe: true, OpGt: true, OpGe: true,
	OpAnd: true, OpOr: true, OpDot: true, OpCross: true, OpRoot: true,
}

// IsBinary reports whether op is a binary operator symbol known to Apply.
func IsBinary(op string) bool {
	return binops[op]
}

// MaxExponent is the largest integer power of a matrix or polynomial that
// Apply computes. MaxDegree bounds the degree of a polynomial power.
const (
	MaxExponent = 1 << 20
	MaxDegree   = 1 << 12
)

// Apply applies a binary operator. If either operand is not a Scalar, the
// operation is defined by that variant's arithmetic, with scalars promoted
// where the variant allows it. A result with any NaN or infinite component is
// a DomainError.
func Apply(op string, l, r Value) (Value, error) {
	v, err := apply(op, l, r)
	if err != nil {
		return nil, err
	}
	return Finite(op, v, l)
}

// Finite returns v unchanged if every number in it is finite. Otherwise it
// returns a DomainError of op at arg.
func Finite(op string, v, arg Value) (Value, error) {
	if !isFinite(v) {
		return nil, &DomainError{X: arg, Func: op}
	}
	return v, nil
}

func isFinite(v Value) bool {
	switch v := v.(type) {
	case Scalar:
		return finiteAll(float64(v))
	case Complex:
		return finiteAll(v.Re, v.Im)
	case Polynomial:
		return finiteAll(v.Coeffs...)
	case Vector:
		return finiteAll(v.Components...)
	case Matrix:
		for _, row := range v.Rows {
			if !finiteAll(row...) {
				return false
			}
		}
	}
	return true
}

func finiteAll(xs ...float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// integer converts a scalar operand to an int in [lo, hi].
func integer(op string, v Value, lo, hi float64) (int, error) {
	n, ok := v.(Scalar)
	x := float64(n)
	if !ok || x != math.Trunc(x) || x < lo || x > hi {
		return 0, &DomainError{X: v, Func: op}
	}
	return int(x), nil
}

func apply(op string, l, r Value) (Value, error) {
	if !binops[op] {
		return nil, &UnknownOperatorError{Op: op}
	}
	if op == "**" {
		op = OpPow
	}
	if l == nil || r == nil {
		return nil, &TypeMismatchError{Op: op, Left: kindOf(l), Right: kindOf(r)}
	}
	switch op {
	case OpEq:
		return Boolean(equalPromoted(l, r)), nil
	case OpNe:
		return Boolean(!equalPromoted(l, r)), nil
	case OpAnd, OpOr:
		a, err := Truthy(l)
		if err != nil {
			return nil, mismatch(op, l, r)
		}
		b, err := Truthy(r)
		if err != nil {
			return nil, mismatch(op, l, r)
		}
		if op == OpAnd {
			return Boolean(a && b), nil
		}
		return Boolean(a || b), nil
	}
	lk, rk := l.Kind(), r.Kind()
	switch {
	case lk == KindBoolean || rk == KindBoolean || lk == KindFunction || rk == KindFunction:
		return nil, mismatch(op, l, r)
	case lk == KindScalar && rk == KindScalar:
		return scalarOp(op, float64(l.(Scalar)), float64(r.(Scalar)))
	case lk == KindMatrix || rk == KindMatrix:
		return matrixOp(op, l, r)
	case lk == KindVector || rk == KindVector:
		return vectorOp(op, l, r)
	case lk == KindPolynomial || rk == KindPolynomial:
		return polyOp(op, l, r)
	case lk == KindComplex || rk == KindComplex:
		return complexOp(op, l, r)
	}
	return nil, mismatch(op, l, r)
}

func kindOf(v Value) Kind {
	if v == nil {
		return -1
	}
	return v.Kind()
}

func mismatch(op string, l, r Value) error {
	return &TypeMismatchError{Op: op, Left: kindOf(l), Right: kindOf(r)}
}

func equalPromoted(l, r Value) bool {
	switch {
	case l.Kind() == KindScalar && r.Kind() == KindComplex,
		l.Kind() == KindComplex && r.Kind() == KindScalar:
		a, _ := toComplex(l)
		b, _ := toComplex(r)
		return a == b
	}
	return Equal(l, r)
}

// finite rejects NaN and infinite results rather than returning them.
func finite(op string, x float64, arg Value) (Value, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, &DomainError{X: arg, Func: op}
	}
	return Scalar(x), nil
}

func scalarOp(op string, a, b float64) (Value, error) {
	switch op {
	case OpAdd:
		return finite(op, a+b, Scalar(a))
	case OpSub:
		return finite(op, a-b, Scalar(a))
	case OpMul:
		return finite(op, a*b, Scalar(a))
	case OpDiv:
		if b == 0 {
			return nil, &DivisionByZeroError{Op: op, Left: Scalar(a)}
		}
		return finite(op, a/b, Scalar(a))
	case OpMod:
		if b == 0 {
			return nil, &DivisionByZeroError{Op: op, Left: Scalar(a)}
		}
		return finite(op, math.Mod(a, b), Scalar(a))
	case OpPow:
		return finite(op, math.Pow(a, b), Scalar(a))
	case OpRoot:
		return scalarRoot(a, b)
	case OpLt:
		return Boolean(a < b), nil
	case OpLe:
		return Boolean(a <= b), nil
	case OpGt:
		return Boolean(a > b), nil
	case OpGe:
		return Boolean(a >= b), nil
	}
	return nil, &TypeMismatchError{Op: op, Left: KindScalar, Right: KindScalar}
}

func scalarRoot(a, n float64) (Value, error) {
	if n == 0 {
		return nil, &DomainError{X: Scalar(n), Func: OpRoot}
	}
	if a < 0 {
		// Odd integer roots of negative numbers are real.
		if n != math.Trunc(n) || math.Mod(n, 2) == 0 {
			return nil, &DomainError{X: Scalar(a), Func: OpRoot}
		}
		return finite(OpRoot, -math.Pow(-a, 1/n), Scalar(a))
	}
	return finite(OpRoot, math.Pow(a, 1/n), Scalar(a))
}

func toComplex(v Value) (Complex, bool) {
	switch v := v.(type) {
	case Scalar:
		return Complex{Re: float64(v)}, true
	case Complex:
		return v, true
	}
	return Complex{}, false
}

func finiteComplex(op string, c Complex, arg Value) (Value, error) {
	if cmplx.IsNaN(c.c128()) || cmplx.IsInf(c.c128()) {
		return nil, &DomainError{X: arg, Func: op}
	}
	return c, nil
}

func complexOp(op string, l, r Value) (Value, error) {
	a, ok1 := toComplex(l)
	b, ok2 := toComplex(r)
	if !ok1 || !ok2 {
		return nil, mismatch(op, l, r)
	}
	switch op {
	case OpAdd:
		return finiteComplex(op, a.Add(b), l)
	case OpSub:
		return finiteComplex(op, a.Sub(b), l)
	case OpMul:
		return finiteComplex(op, a.Mul(b), l)
	case OpDiv:
		q, err := a.Div(b)
		if err != nil {
			return nil, err
		}
		return finiteComplex(op, q, l)
	case OpPow:
		if b.Im == 0 {
			if a == (Complex{}) && b.Re < 0 {
				return nil, &DivisionByZeroError{Op: op, Left: l}
			}
			return finiteComplex(op, a.Pow(b.Re), l)
		}
		return finiteComplex(op, fromC128(cmplx.Pow(a.c128(), b.c128())), l)
	case OpRoot:
		n, err := integer(op, r, 1, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		root, err := a.Root(n)
		if err != nil {
			return nil, err
		}
		return finiteComplex(op, root, l)
	}
	return nil, mismatch(op, l, r)
}

func toPoly(v Value) (Polynomial, bool) {
	switch v := v.(type) {
	case Scalar:
		return Polynomial{Coeffs: []float64{float64(v)}}, true
	case Polynomial:
		return v, true
	}
	return Polynomial{}, false
}

func polyOp(op string, l, r Value) (Value, error) {
	if op == OpPow {
		p, ok := l.(Polynomial)
		if _, isScalar := r.(Scalar); !ok || !isScalar {
			return nil, mismatch(op, l, r)
		}
		n, err := integer(op, r, 0, MaxExponent)
		if err != nil {
			return nil, err
		}
		if d := p.Degree(); d > 0 && n > MaxDegree/d {
			return nil, &DomainError{X: r, Func: op}
		}
		return p.Pow(n), nil
	}
	p, ok1 := toPoly(l)
	q, ok2 := toPoly(r)
	if !ok1 || !ok2 {
		return nil, mismatch(op, l, r)
	}
	switch op {
	case OpAdd:
		return p.Add(q), nil
	case OpSub:
		return p.Sub(q), nil
	case OpMul:
		return p.Mul(q), nil
	case OpDiv:
		quo, _, err := p.LongDivide(q)
		if err != nil {
			return nil, err
		}
		return quo, nil
	case OpMod:
		_, rem, err := p.LongDivide(q)
		if err != nil {
			return nil, &DivisionByZeroError{Op: op, Left: l}
		}
		return rem, nil
	}
	return nil, mismatch(op, l, r)
}

func matrixOp(op string, l, r Value) (Value, error) {
	switch l := l.(type) {
	case Matrix:
		switch r := r.(type) {
		case Matrix:
			switch op {
			case OpAdd:
				return l.Add(r)
			case OpSub:
				return l.Sub(r)
			case OpMul:
				return l.Mul(r)
			case OpDiv:
				inv, err := r.Inverse()
				if err != nil {
					return nil, err
				}
				return l.Mul(inv)
			}
		case Scalar:
			switch op {
			case OpMul:
				return l.Scale(float64(r)), nil
			case OpDiv:
				if r == 0 {
					return nil, &DivisionByZeroError{Op: op, Left: l}
				}
				return l.Scale(1 / float64(r)), nil
			case OpPow:
				return matrixPow(l, r)
			}
		case Vector:
			if op == OpMul {
				return l.MulVector(r)
			}
		}
	case Scalar:
		if m, ok := r.(Matrix); ok && op == OpMul {
			return m.Scale(float64(l)), nil
		}
	}
	return nil, mismatch(op, l, r)
}

func matrixPow(m Matrix, x Scalar) (Value, error) {
	n, err := integer(OpPow, x, -MaxExponent, MaxExponent)
	if err != nil {
		return nil, err
	}
	rows, cols := m.Dims()
	if rows != cols {
		return nil, &DimensionError{Op: OpPow, Msg: "matrix must be square, not " + dims(m)}
	}
	if n < 0 {
		inv, err := m.Inverse()
		if err != nil {
			return nil, err
		}
		m, n = inv, -n
	}
	// Square and multiply.
	res := Identity(rows)
	for n > 0 {
		if n&1 == 1 {
			res, _ = res.Mul(m)
		}
		n >>= 1
		if n > 0 {
			m, _ = m.Mul(m)
		}
		if !isFinite(res) || !isFinite(m) {
			return nil, &DomainError{X: x, Func: OpPow}
		}
	}
	return res, nil
}

func vectorOp(op string, l, r Value) (Value, error) {
	switch l := l.(type) {
	case Vector:
		switch r := r.(type) {
		case Vector:
			switch op {
			case OpAdd:
				return l.Add(r)
			case OpSub:
				return l.Sub(r)
			case OpDot:
				d, err := l.Dot(r)
				if err != nil {
					return nil, err
				}
				return Scalar(d), nil
			case OpCross:
				return l.Cross(r)
			}
		case Scalar:
			switch op {
			case OpMul:
				return l.Scale(float64(r)), nil
			case OpDiv:
				if r == 0 {
					return nil, &DivisionByZeroError{Op: op, Left: l}
				}
				return l.Scale(1 / float64(r)), nil
			}
		}
	case Scalar:
		if v, ok := r.(Vector); ok && op == OpMul {
			return v.Scale(float64(l)), nil
		}
	}
	return nil, mismatch(op, l, r)
}

// Unary applies a prefix operator: neg, pos, or not.
func Unary(op string, v Value) (Value, error) {
	if v == nil {
		return nil, &TypeMismatchError{Op: op, Right: -1, Unary: true}
	}
	switch op {
	case OpNot:
		t, err := Truthy(v)
		if err != nil {
			return nil, &TypeMismatchError{Op: op, Right: v.Kind(), Unary: true}
		}
		return Boolean(!t), nil
	case OpPos:
		switch v.(type) {
		case Scalar, Complex, Polynomial, Matrix, Vector:
			return v, nil
		}
	case OpNeg:
		switch v := v.(type) {
		case Scalar:
			return -v, nil
		case Complex:
			return Complex{Re: -v.Re, Im: -v.Im}, nil
		case Polynomial:
			r := make([]float64, len(v.Coeffs))
			for i, c := range v.Coeffs {
				r[i] = -c
			}
			return Polynomial{Coeffs: r}, nil
		case Matrix:
			return v.Scale(-1), nil
		case Vector:
			return v.Scale(-1), nil
		}
	default:
		return nil, &UnknownOperatorError{Op: op}
	}
	return nil, &TypeMismatchError{Op: op, Right: v.Kind(), Unary: true}
}

// Truthy converts a value to a truth value. Non-zero scalars and complex
// numbers are true. Other variants besides Boolean have no truth value.
func Truthy(v Value) (bool, error) {
	switch v := v.(type) {
	case Boolean:
		return bool(v), nil
	case Scalar:
		return v != 0, nil
	case Complex:
		return v != (Complex{}), nil
	}
	return false, &TypeMismatchError{Op: "truth", Right: kindOf(v), Unary: true}
}
