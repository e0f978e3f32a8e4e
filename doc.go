// Package stepcalc implements a calculator that shows its work.
//
// An expression is tokenized, reordered into postfix with the shunting-yard
// algorithm, built into a syntax tree, and evaluated. Each of those stages
// records what it does in a Steps transcript, so that the derivation of a
// result can be shown one step at a time.
//
// Values are scalars, complex numbers, polynomials, matrices, vectors, and
// booleans, from package value. The non-scalar values are written as
// constructor literals:
//
//	Polynomial([1, 3, 2])        x² + 3x + 2
//	Matrix([[1, 2], [3, 4]])
//	Vector([1, 0, 0])
//	ComplexNumber(1, 2)          1 + 2i
//
// Operators, loosest first, are = (assignment, right-associative); or; and;
// not; comparisons; + and -; *, /, %, dot, cross, and root; unary - and +;
// and ^ (right-associative). "-2^2" is "-(2^2)". Functions such as sqrt take
// the operand that follows them, as in "sqrt(16)" or "sqrt 16", and can also
// be called with method syntax, as in "Matrix([[1, 2], [3, 4]]).inverse()".
// The operators dot, cross, root, /, and % also have method forms that take
// the right operand as an argument: "v.dot(w)", "z.nth_root(3)",
// "p.long_division(q)", and "p.remainder(q)".
//
// An Evaluator keeps the variables assigned by each expression, so
// "x = 10" followed by "x * 2" gives 20.
package stepcalc
