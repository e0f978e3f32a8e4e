package stepcalc

import (
	"errors"
	"math"
	"math/big"

	"github.com/zephyrtronium/bigfloat"

	"github.com/zephyrtronium/stepcalc/value"
)

// Func is a function of one value. Functions are applied with call syntax,
// as in sqrt(x), or method syntax, as in x.sqrt().
type Func interface {
	// Call applies the function. If the argument is outside the function's
	// domain, Call returns a *value.DomainError; the evaluator fills in its
	// Func field if it is empty.
	Call(x value.Value) (value.Value, error)
}

var globalfuncs = map[string]Func{
	"sqrt":  Unary(sqrt),
	"abs":   Unary(abs),
	"exp":   bigMonadic(bigExp),
	"log":   bigMonadic(bigLog),
	"ln":    bigMonadic(bigLog),
	"log10": Monadic(math.Log10),
	"log2":  Monadic(math.Log2),
	"sin":   Monadic(math.Sin),
	"cos":   Monadic(math.Cos),
	"tan":   Monadic(math.Tan),
	"asin":  Monadic(math.Asin),
	"acos":  Monadic(math.Acos),
	"atan":  Monadic(math.Atan),
	"sinh":  Monadic(math.Sinh),
	"cosh":  Monadic(math.Cosh),
	"tanh":  Monadic(math.Tanh),
	"floor": Monadic(math.Floor),
	"ceil":  Monadic(math.Ceil),
	"round": Monadic(math.Round),

	"det":         Unary(det),
	"determinant": Unary(det),
	"inverse":     Unary(inverse),
	"inv":         Unary(inverse),
	"transpose":   Unary(transpose),
	"roots":       Unary(roots),
	"find_roots":  Unary(roots),
	"degree":      Unary(degree),
	"conj":        Unary(conj),
	"re":          Unary(re),
	"im":          Unary(im),
	"norm":        Unary(norm),
}

// DefaultFuncs returns a copy of the default function table.
func DefaultFuncs() map[string]Func {
	m := make(map[string]Func, len(globalfuncs))
	for k, v := range globalfuncs {
		m[k] = v
	}
	return m
}

// constants are the named constants, computed to 64 bits and rounded.
var constants = map[string]float64{
	"pi": niladic(bigfloat.Pi),
	"e": niladic(func(out *big.Float) *big.Float {
		var one big.Float
		one.SetFloat64(1)
		return bigfloat.Exp(out, &one)
	}),
}

func niladic(f func(out *big.Float) *big.Float) float64 {
	out := new(big.Float).SetPrec(64)
	f(out)
	x, _ := out.Float64()
	return x
}

type monadic struct {
	f func(float64) float64
}

func (m monadic) Call(x value.Value) (value.Value, error) {
	s, ok := x.(value.Scalar)
	if !ok {
		return nil, &value.TypeMismatchError{Right: x.Kind(), Unary: true}
	}
	r := m.f(float64(s))
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return nil, &value.DomainError{X: x}
	}
	return value.Scalar(r), nil
}

// Monadic wraps a real function of one real variable into a Func. Calling it
// on a non-scalar is a type mismatch, and a NaN or infinite result is a
// domain error.
func Monadic(f func(float64) float64) Func {
	return monadic{f}
}

type bigmonadic struct {
	f func(out, in *big.Float) *big.Float
}

// Call evaluates the function at 64-bit precision. The wrapped function
// signals a domain error by panicking with big.ErrNaN.
func (m bigmonadic) Call(x value.Value) (r value.Value, err error) {
	s, ok := x.(value.Scalar)
	if !ok {
		return nil, &value.TypeMismatchError{Right: x.Kind(), Unary: true}
	}
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		perr, _ := p.(error)
		var nan big.ErrNaN
		if errors.As(perr, &nan) {
			r, err = nil, &value.DomainError{X: x}
			return
		}
		panic(p)
	}()
	in := new(big.Float).SetPrec(64).SetFloat64(float64(s))
	out := new(big.Float).SetPrec(64)
	m.f(out, in)
	f, _ := out.Float64()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &value.DomainError{X: x}
	}
	return value.Scalar(f), nil
}

func bigMonadic(f func(out, in *big.Float) *big.Float) Func {
	return bigmonadic{f}
}

func bigExp(out, in *big.Float) *big.Float {
	// Results outside these bounds don't fit in a float64 anyway.
	switch {
	case in.Cmp(big.NewFloat(710)) > 0:
		panic(big.ErrNaN{})
	case in.Cmp(big.NewFloat(-746)) < 0:
		return out.SetFloat64(0)
	}
	return bigfloat.Exp(out, in)
}

func bigLog(out, in *big.Float) *big.Float {
	if in.Sign() <= 0 {
		panic(big.ErrNaN{})
	}
	return bigfloat.Log(out, in)
}

type unary struct {
	f func(value.Value) (value.Value, error)
}

func (u unary) Call(x value.Value) (value.Value, error) {
	return u.f(x)
}

// Unary wraps a function on values into a Func.
func Unary(f func(value.Value) (value.Value, error)) Func {
	return unary{f}
}

func mismatch(x value.Value) error {
	return &value.TypeMismatchError{Right: x.Kind(), Unary: true}
}

func sqrt(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Scalar:
		if x < 0 {
			return nil, &value.DomainError{X: x}
		}
		in := new(big.Float).SetPrec(64).SetFloat64(float64(x))
		f, _ := new(big.Float).SetPrec(64).Sqrt(in).Float64()
		return value.Scalar(f), nil
	case value.Complex:
		return x.Root(2)
	}
	return nil, mismatch(x)
}

func abs(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Scalar:
		return value.Scalar(math.Abs(float64(x))), nil
	case value.Complex:
		return value.Scalar(x.Abs()), nil
	case value.Vector:
		return value.Scalar(x.Norm()), nil
	}
	return nil, mismatch(x)
}

func det(x value.Value) (value.Value, error) {
	m, ok := x.(value.Matrix)
	if !ok {
		return nil, mismatch(x)
	}
	d, err := m.Determinant()
	if err != nil {
		return nil, err
	}
	return value.Scalar(d), nil
}

func inverse(x value.Value) (value.Value, error) {
	m, ok := x.(value.Matrix)
	if !ok {
		return nil, mismatch(x)
	}
	return m.Inverse()
}

func transpose(x value.Value) (value.Value, error) {
	m, ok := x.(value.Matrix)
	if !ok {
		return nil, mismatch(x)
	}
	return m.Transpose(), nil
}

func roots(x value.Value) (value.Value, error) {
	p, ok := x.(value.Polynomial)
	if !ok {
		return nil, mismatch(x)
	}
	return p.Roots()
}

func degree(x value.Value) (value.Value, error) {
	p, ok := x.(value.Polynomial)
	if !ok {
		return nil, mismatch(x)
	}
	return value.Scalar(p.Degree()), nil
}

func conj(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Scalar:
		return x, nil
	case value.Complex:
		return x.Conj(), nil
	}
	return nil, mismatch(x)
}

func re(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Scalar:
		return x, nil
	case value.Complex:
		return value.Scalar(x.Re), nil
	}
	return nil, mismatch(x)
}

func im(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Scalar:
		return value.Scalar(0), nil
	case value.Complex:
		return value.Scalar(x.Im), nil
	}
	return nil, mismatch(x)
}

func norm(x value.Value) (value.Value, error) {
	switch x := x.(type) {
	case value.Vector:
		return value.Scalar(x.Norm()), nil
	case value.Complex:
		return value.Scalar(x.Abs()), nil
	}
	return nil, mismatch(x)
}
