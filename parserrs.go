package stepcalc

import "strconv"

// TokenizationError indicates an invalid token. It implements InputError.
type TokenizationError struct {
	// Text is the offending text: a single unrecognized rune, or the whole
	// token the tokenizer was scanning.
	Text string
	// Kind is the type of token being scanned. This may be "number", "object",
	// "method", or the empty string if a token kind hadn't been decided.
	Kind string
	// Col is the column of the error.
	Col int
	// Msg optionally describes the problem.
	Msg string
	// Err is the underlying error, if any.
	Err error
}

func (err *TokenizationError) Error() string {
	s := "invalid token " + strconv.Quote(err.Text)
	if err.Kind != "" {
		s = "invalid " + err.Kind + " token " + strconv.Quote(err.Text)
	}
	switch {
	case err.Msg != "":
		s += ": " + err.Msg
	case err.Err != nil:
		s += ": " + err.Err.Error()
	}
	return errpos(err.Col, s)
}

func (err *TokenizationError) Unwrap() error {
	return err.Err
}

func (err *TokenizationError) Pos() int {
	return err.Col
}

// ParseError indicates input that does not form a valid expression, e.g.
// mismatched parentheses or an operator missing an operand. It implements
// InputError.
type ParseError struct {
	// Col is the position of the token that caused the error. It is zero when
	// the error is not attributable to one token.
	Col int
	// Op is the operator or token text involved, if any.
	Op string
	// Reason describes the problem.
	Reason string
}

func (err *ParseError) Error() string {
	s := err.Reason
	if err.Op != "" {
		s = err.Reason + " " + strconv.Quote(err.Op)
	}
	if err.Col <= 0 {
		return "parse error: " + s
	}
	return errpos(err.Col, s)
}

func (err *ParseError) Pos() int {
	return err.Col
}

// UnresolvedIdentifierError is an error from a name that is not a variable,
// constant, function, or constructor.
type UnresolvedIdentifierError struct {
	Name string
	Col  int
}

func (err *UnresolvedIdentifierError) Error() string {
	return errpos(err.Col, "undefined identifier "+strconv.Quote(err.Name))
}

func (err *UnresolvedIdentifierError) Pos() int {
	return err.Col
}

// MissingOperandError is an error from evaluating an operator node that lacks
// a child.
type MissingOperandError struct {
	Op  string
	Col int
}

func (err *MissingOperandError) Error() string {
	return errpos(err.Col, "missing operand for "+strconv.Quote(err.Op))
}

func (err *MissingOperandError) Pos() int {
	return err.Col
}

// RecursionLimitError is an error from an expression nested more deeply than
// the evaluator allows.
type RecursionLimitError struct {
	Limit int
}

func (err *RecursionLimitError) Error() string {
	return "expression nested deeper than " + strconv.Itoa(err.Limit) + " levels"
}

// errpos is a shortcut to create an error message with a position.
func errpos(pos int, msg string) string {
	return strconv.Itoa(pos) + ": " + msg
}

// InputError is an error with position information. Every error resulting from
// invalid input text implements InputError.
type InputError interface {
	error
	// Pos returns the 1-based column of the token that caused the error.
	Pos() int
}

var (
	_ InputError = (*TokenizationError)(nil)
	_ InputError = (*ParseError)(nil)
	_ InputError = (*UnresolvedIdentifierError)(nil)
	_ InputError = (*MissingOperandError)(nil)
)
