package value

import "strconv"

// DivisionByZeroError is an error from dividing by an exact zero: a zero
// scalar, the complex zero, or the zero polynomial.
type DivisionByZeroError struct {
	// Op is the operator that divided.
	Op string
	// Left is the dividend.
	Left Value
}

func (err *DivisionByZeroError) Error() string {
	if err.Left == nil {
		return "division by zero"
	}
	return "division by zero: " + err.Left.String() + " " + err.Op + " 0"
}

// SingularMatrixError is an error from inverting a matrix whose determinant
// is exactly zero.
type SingularMatrixError struct {
	M Matrix
}

func (err *SingularMatrixError) Error() string {
	return "matrix is singular and cannot be inverted: " + err.M.String()
}

// DimensionError is an error from operands with incompatible shapes.
type DimensionError struct {
	// Op names the operation that was attempted.
	Op string
	// Msg describes the shape problem.
	Msg string
}

func (err *DimensionError) Error() string {
	if err.Op == "" {
		return "dimension error: " + err.Msg
	}
	return "dimension error in " + err.Op + ": " + err.Msg
}

// TypeMismatchError is an error from an operator applied to a pair of
// variants it is not defined for.
type TypeMismatchError struct {
	Op          string
	Left, Right Kind
	// Unary is set when the operator takes one operand, held in Right.
	Unary bool
}

func (err *TypeMismatchError) Error() string {
	if err.Unary {
		return "cannot apply " + strconv.Quote(err.Op) + " to " + err.Right.String()
	}
	return "cannot apply " + strconv.Quote(err.Op) + " to " + err.Left.String() + " and " + err.Right.String()
}

// UnknownOperatorError is an error from an operator symbol that has no
// definition.
type UnknownOperatorError struct {
	Op string
}

func (err *UnknownOperatorError) Error() string {
	return "unknown operator " + strconv.Quote(err.Op)
}

// DomainError is an error from an operation whose arguments are outside its
// domain, such as the square root of a negative scalar or a result that is
// not a finite number.
type DomainError struct {
	// X is the out-of-domain argument.
	X Value
	// Func is a name identifying the function or operator.
	Func string
}

func (err *DomainError) Error() string {
	r := "outside domain"
	if err.X != nil {
		r = err.X.String() + " " + r
	}
	if err.Func != "" {
		r += " of " + err.Func
	}
	return r
}

// LiteralError is an error from a constructor literal that does not describe
// a value, e.g. a ragged matrix or a complex number with three parts.
type LiteralError struct {
	// Literal is the constructor text.
	Literal string
	// Msg describes the problem.
	Msg string
}

func (err *LiteralError) Error() string {
	return "invalid literal " + strconv.Quote(err.Literal) + ": " + err.Msg
}
