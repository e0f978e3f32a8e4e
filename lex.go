package stepcalc

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/zephyrtronium/stepcalc/value"
)

// Token is a lexical unit of an expression.
type Token struct {
	Kind TokenKind
	// Text is the token's text. Operators are normalized, so "&&" and "&" both
	// have the text "and", and "**" has the text "^". For objects, Text is the
	// full constructor literal.
	Text string
	// Num is the value of a number or constant token.
	Num float64
	// Pos is the 1-based rune column where the token starts.
	Pos int
	// Unary is set on operators in prefix position.
	Unary bool
	// Method is the method name of a binary operator written with method
	// syntax, as in v.dot(w). Text holds the operator it applies.
	Method string
}

func (t Token) String() string {
	return t.Kind.String() + ":" + t.Text + "@" + strconv.Itoa(t.Pos)
}

// TokenKind identifies the kind of a token.
type TokenKind int8

const (
	TokenNone TokenKind = iota
	// TokenNumber is a numeric literal.
	TokenNumber
	// TokenConstant is a named constant, pi or e.
	TokenConstant
	// TokenOperator is a unary or binary operator.
	TokenOperator
	// TokenFunction is a function name applied to the operand that follows.
	TokenFunction
	// TokenFuncRef is a function name used as a value.
	TokenFuncRef
	// TokenMethod is a function applied with method syntax, as in x.det().
	TokenMethod
	// TokenVariable is a variable name.
	TokenVariable
	// TokenObject is a constructor literal such as Vector([1, 2]).
	TokenObject
	// TokenLeftParen is (.
	TokenLeftParen
	// TokenRightParen is ).
	TokenRightParen
	// TokenComma is ,.
	TokenComma
)

var tokenKindNames = [...]string{
	TokenNone:       "None",
	TokenNumber:     "Number",
	TokenConstant:   "Constant",
	TokenOperator:   "Operator",
	TokenFunction:   "Function",
	TokenFuncRef:    "FuncRef",
	TokenMethod:     "Method",
	TokenVariable:   "Variable",
	TokenObject:     "Object",
	TokenLeftParen:  "LeftParen",
	TokenRightParen: "RightParen",
	TokenComma:      "Comma",
}

func (k TokenKind) String() string {
	if k < 0 || int(k) >= len(tokenKindNames) {
		return "TokenKind(" + strconv.Itoa(int(k)) + ")"
	}
	return tokenKindNames[k]
}

// keywords are words that tokenize as operators.
var keywords = map[string]bool{
	"and":   true,
	"or":    true,
	"not":   true,
	"dot":   true,
	"cross": true,
	"root":  true,
}

// symbols maps operator and punctuation spellings to their normalized text.
// Two-rune spellings are tried first.
var symbols = map[string]string{
	"**": "^",
	"==": "==",
	"!=": "!=",
	"<=": "<=",
	">=": ">=",
	"&&": "and",
	"||": "or",
	"+":  "+",
	"-":  "-",
	"*":  "*",
	"/":  "/",
	"%":  "%",
	"^":  "^",
	"=":  "=",
	"<":  "<",
	">":  ">",
	"!":  "not",
	"&":  "and",
	"|":  "or",
}

// methodops maps the names of methods that take one argument to the binary
// operators they apply. The receiver is the left operand.
var methodops = map[string]string{
	"dot":           "dot",
	"cross":         "cross",
	"root":          "root",
	"nth_root":      "root",
	"long_division": "/",
	"remainder":     "%",
}

// maxLiteralDepth is the deepest bracket nesting allowed in a constructor
// literal.
const maxLiteralDepth = 8

// Tokenize splits an expression into tokens using the default function table.
// It logs one step summarizing the tokens.
func Tokenize(src string, steps *Steps) ([]Token, error) {
	return tokenize(src, globalfuncs, steps)
}

type lexer struct {
	src   []rune
	i     int
	funcs map[string]Func
	toks  []Token
}

func tokenize(src string, funcs map[string]Func, steps *Steps) ([]Token, error) {
	l := lexer{src: []rune(src), funcs: funcs}
	for {
		tok, ok, err := l.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		l.add(tok)
	}
	// A function at the very end has nothing to apply to.
	if n := len(l.toks); n > 0 && l.toks[n-1].Kind == TokenFunction {
		l.toks[n-1].Kind = TokenFuncRef
	}
	steps.Logf(StageTokenize, "Tokens: %s", tokenTexts(l.toks))
	return l.toks, nil
}

// add appends a token, deciding whether operators are unary and whether the
// previous token is a function call or a function reference.
func (l *lexer) add(tok Token) {
	var prev *Token
	if len(l.toks) > 0 {
		prev = &l.toks[len(l.toks)-1]
	}
	if tok.Kind == TokenOperator {
		switch tok.Text {
		case "not":
			tok.Unary = true
		case "+", "-":
			tok.Unary = prev == nil || prefixPosition(*prev)
		}
	}
	if prev != nil && prev.Kind == TokenFunction && !startsOperand(tok) {
		prev.Kind = TokenFuncRef
	}
	l.toks = append(l.toks, tok)
}

// prefixPosition reports whether an operator following prev is in prefix
// position.
func prefixPosition(prev Token) bool {
	switch prev.Kind {
	case TokenOperator, TokenLeftParen, TokenComma, TokenFunction:
		return true
	}
	return false
}

// startsOperand reports whether tok can begin an operand.
func startsOperand(tok Token) bool {
	switch tok.Kind {
	case TokenNumber, TokenConstant, TokenFunction, TokenFuncRef, TokenVariable, TokenObject, TokenLeftParen:
		return true
	case TokenOperator:
		return tok.Unary
	}
	return false
}

// endsOperand reports whether tok can end an operand, so that a method call
// may follow it.
func endsOperand(tok Token) bool {
	switch tok.Kind {
	case TokenNumber, TokenConstant, TokenVariable, TokenObject, TokenRightParen, TokenMethod, TokenFuncRef:
		return true
	}
	return false
}

func tokenTexts(toks []Token) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, t := range toks {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case t.Kind == TokenMethod:
			b.WriteString("." + t.Text + "()")
		case t.Method != "":
			b.WriteString("." + t.Method)
		default:
			b.WriteString(t.Text)
		}
	}
	b.WriteByte(']')
	return b.String()
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdent(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (l *lexer) peek(k int) rune {
	if l.i+k >= len(l.src) {
		return 0
	}
	return l.src[l.i+k]
}

// next scans the next token. ok is false at the end of the input.
func (l *lexer) next() (tok Token, ok bool, err error) {
	for l.i < len(l.src) && unicode.IsSpace(l.src[l.i]) {
		l.i++
	}
	if l.i >= len(l.src) {
		return Token{}, false, nil
	}
	r := l.src[l.i]
	tok.Pos = l.i + 1
	switch {
	case isDigit(r), r == '.' && isDigit(l.peek(1)):
		return l.scanNum(tok)
	case r == '.':
		return l.scanMethod(tok)
	case isIdentStart(r):
		return l.scanWord(tok)
	case r == '(':
		l.i++
		tok.Kind, tok.Text = TokenLeftParen, "("
		return tok, true, nil
	case r == ')':
		l.i++
		tok.Kind, tok.Text = TokenRightParen, ")"
		return tok, true, nil
	case r == ',':
		l.i++
		tok.Kind, tok.Text = TokenComma, ","
		return tok, true, nil
	}
	if l.i+1 < len(l.src) {
		if op, ok := symbols[string(l.src[l.i:l.i+2])]; ok {
			l.i += 2
			tok.Kind, tok.Text = TokenOperator, op
			return tok, true, nil
		}
	}
	if op, ok := symbols[string(r)]; ok {
		l.i++
		tok.Kind, tok.Text = TokenOperator, op
		return tok, true, nil
	}
	return tok, false, &TokenizationError{Text: string(r), Col: tok.Pos}
}

func (l *lexer) scanNum(tok Token) (Token, bool, error) {
	start := l.i
	for isDigit(l.peek(0)) {
		l.i++
	}
	if l.peek(0) == '.' && isDigit(l.peek(1)) {
		l.i++
		for isDigit(l.peek(0)) {
			l.i++
		}
	} else if l.peek(0) == '.' && !isIdentStart(l.peek(1)) {
		// Trailing dot, as in "2.".
		l.i++
	}
	if r := l.peek(0); r == 'e' || r == 'E' {
		k := 1
		if s := l.peek(1); s == '+' || s == '-' {
			k = 2
		}
		if isDigit(l.peek(k)) {
			l.i += k
			for isDigit(l.peek(0)) {
				l.i++
			}
		}
	}
	text := string(l.src[start:l.i])
	x, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return tok, false, &TokenizationError{Text: text, Kind: "number", Col: tok.Pos, Err: err}
	}
	tok.Kind, tok.Text, tok.Num = TokenNumber, text, x
	return tok, true, nil
}

func (l *lexer) scanIdent() string {
	start := l.i
	for l.i < len(l.src) && isIdent(l.src[l.i]) {
		l.i++
	}
	return string(l.src[start:l.i])
}

func (l *lexer) scanWord(tok Token) (Token, bool, error) {
	start := l.i
	word := l.scanIdent()
	if _, ok := value.Constructors[word]; ok {
		k := l.i
		for k < len(l.src) && unicode.IsSpace(l.src[k]) {
			k++
		}
		if k < len(l.src) && l.src[k] == '(' {
			l.i = k
			return l.scanObject(tok, start)
		}
	}
	tok.Text = word
	switch {
	case word == "pi" || word == "e":
		tok.Kind, tok.Num = TokenConstant, constants[word]
	case keywords[word]:
		tok.Kind = TokenOperator
	case l.funcs[word] != nil:
		tok.Kind = TokenFunction
	default:
		tok.Kind = TokenVariable
	}
	return tok, true, nil
}

// scanObject scans a constructor literal whose name starts at start. l.i is
// at the opening parenthesis.
func (l *lexer) scanObject(tok Token, start int) (Token, bool, error) {
	var open []rune
	for l.i < len(l.src) {
		r := l.src[l.i]
		l.i++
		switch r {
		case '(', '[':
			open = append(open, r)
			if len(open) > maxLiteralDepth {
				text := string(l.src[start:l.i])
				return tok, false, &TokenizationError{Text: text, Kind: "object", Col: tok.Pos, Msg: "too deeply nested"}
			}
		case ')', ']':
			want := '('
			if r == ']' {
				want = '['
			}
			if len(open) == 0 || open[len(open)-1] != want {
				text := string(l.src[start:l.i])
				return tok, false, &TokenizationError{Text: text, Kind: "object", Col: l.i, Msg: "mismatched " + string(r)}
			}
			open = open[:len(open)-1]
			if len(open) == 0 {
				text := string(l.src[start:l.i])
				if _, err := value.ParseLiteral(text); err != nil {
					return tok, false, &TokenizationError{Text: text, Kind: "object", Col: tok.Pos, Err: err}
				}
				tok.Kind, tok.Text = TokenObject, text
				return tok, true, nil
			}
		}
	}
	text := string(l.src[start:])
	return tok, false, &TokenizationError{Text: text, Kind: "object", Col: tok.Pos, Msg: "unterminated literal"}
}

// scanMethod scans .name() following an operand, or .name( for a method
// that takes an argument.
func (l *lexer) scanMethod(tok Token) (Token, bool, error) {
	if len(l.toks) == 0 || !endsOperand(l.toks[len(l.toks)-1]) || !isIdentStart(l.peek(1)) {
		return tok, false, &TokenizationError{Text: ".", Col: tok.Pos}
	}
	l.i++
	name := l.scanIdent()
	op, binary := methodops[name]
	if !binary && l.funcs[name] == nil {
		return tok, false, &TokenizationError{Text: "." + name, Kind: "method", Col: tok.Pos, Msg: "unknown method"}
	}
	for l.i < len(l.src) && unicode.IsSpace(l.src[l.i]) {
		l.i++
	}
	if l.peek(0) != '(' {
		return tok, false, &TokenizationError{Text: "." + name, Kind: "method", Col: tok.Pos, Msg: "missing ()"}
	}
	if binary {
		// The parenthesized argument is scanned as ordinary tokens.
		tok.Kind, tok.Text, tok.Method = TokenOperator, op, name
		return tok, true, nil
	}
	l.i++
	for l.i < len(l.src) && unicode.IsSpace(l.src[l.i]) {
		l.i++
	}
	if l.peek(0) != ')' {
		return tok, false, &TokenizationError{Text: "." + name, Kind: "method", Col: tok.Pos, Msg: "methods take no arguments"}
	}
	l.i++
	tok.Kind, tok.Text = TokenMethod, name
	return tok, true, nil
}
