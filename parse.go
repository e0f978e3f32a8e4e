package stepcalc

import (
	"github.com/emirpasic/gods/stacks/arraystack"
)

// Operator precedence, lowest first. Prefix operators never pop the stack
// when they are pushed, so their precedence only decides how tightly they
// hold their operand against the binary operators that follow.
const (
	precAssign = iota
	precOr
	precAnd
	precNot
	precCompare
	precAdd
	precMul
	precUnary
	precPow
	precFunc
	precMethod
)

type opinfo struct {
	prec  int
	right bool
}

var binaryops = map[string]opinfo{
	"=":     {precAssign, true},
	"or":    {precOr, false},
	"and":   {precAnd, false},
	"==":    {precCompare, false},
	"!=":    {precCompare, false},
	"<":     {precCompare, false},
	"<=":    {precCompare, false},
	">":     {precCompare, false},
	">=":    {precCompare, false},
	"+":     {precAdd, false},
	"-":     {precAdd, false},
	"*":     {precMul, false},
	"/":     {precMul, false},
	"%":     {precMul, false},
	"dot":   {precMul, false},
	"cross": {precMul, false},
	"root":  {precMul, false},
	"^":     {precPow, true},
}

var unaryops = map[string]opinfo{
	"not": {precNot, true},
	"-":   {precUnary, true},
	"+":   {precUnary, true},
}

// info returns the precedence of an operator or function token on the
// operator stack.
func info(t Token) (opinfo, bool) {
	switch t.Kind {
	case TokenFunction:
		return opinfo{precFunc, true}, true
	case TokenOperator:
		if t.Unary {
			o, ok := unaryops[t.Text]
			return o, ok
		}
		if t.Method != "" {
			return opinfo{prec: precMethod}, true
		}
		o, ok := binaryops[t.Text]
		return o, ok
	}
	return opinfo{}, false
}

// Postfix reorders tokens into reverse Polish notation using the shunting-yard
// algorithm. Every token read and every push and pop of the operator stack is
// logged, followed by the complete postfix sequence.
func Postfix(toks []Token, steps *Steps) ([]Token, error) {
	ops := arraystack.New()
	out := make([]Token, 0, len(toks))
	emit := func(t Token) {
		out = append(out, t)
		steps.Logf(StageParse, "Output %s", label(t))
	}
	pop := func() Token {
		v, _ := ops.Pop()
		t := v.(Token)
		steps.Logf(StageParse, "Pop %s from operator stack", label(t))
		return t
	}
	push := func(t Token) {
		ops.Push(t)
		steps.Logf(StageParse, "Push %s onto operator stack", label(t))
	}
	top := func() (Token, bool) {
		v, ok := ops.Peek()
		if !ok {
			return Token{}, false
		}
		return v.(Token), true
	}

	// operand is set when the next token must begin an operand and clear
	// when it must continue one with an operator.
	operand := true
	var last Token
	for _, t := range toks {
		steps.Logf(StageParse, "Read %s %s", describeKind(t), label(t))
		switch t.Kind {
		case TokenNumber, TokenConstant, TokenVariable, TokenFuncRef, TokenObject:
			if !operand {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "missing operator before"}
			}
			emit(t)
			operand = false
		case TokenMethod:
			// Methods apply to the operand just output.
			if operand {
				return nil, &ParseError{Col: t.Pos, Op: label(t), Reason: "missing operand for"}
			}
			emit(t)
		case TokenFunction, TokenLeftParen:
			if !operand {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "missing operator before"}
			}
			push(t)
		case TokenOperator:
			if t.Unary {
				if !operand {
					return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "missing operator before"}
				}
				if _, ok := unaryops[t.Text]; !ok {
					return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "unknown unary operator"}
				}
				push(t)
				break
			}
			if operand {
				return nil, &ParseError{Col: t.Pos, Op: opText(t), Reason: "insufficient operands for"}
			}
			cur, ok := binaryops[t.Text]
			if !ok {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "unknown binary operator"}
			}
			if t.Method != "" {
				cur = opinfo{prec: precMethod}
			}
			for {
				s, ok := top()
				if !ok {
					break
				}
				si, ok := info(s)
				if !ok {
					// Left paren.
					break
				}
				if si.prec > cur.prec || si.prec == cur.prec && !cur.right {
					emit(pop())
					continue
				}
				break
			}
			push(t)
			operand = true
		case TokenRightParen:
			if operand {
				switch last.Kind {
				case TokenOperator:
					return nil, &ParseError{Col: last.Pos, Op: opText(last), Reason: "insufficient operands for"}
				case TokenLeftParen:
					return nil, &ParseError{Col: t.Pos, Op: ")", Reason: "empty parentheses at"}
				}
			}
			for {
				s, ok := top()
				if !ok {
					return nil, &ParseError{Col: t.Pos, Op: ")", Reason: "mismatched"}
				}
				if s.Kind == TokenLeftParen {
					pop()
					break
				}
				emit(pop())
			}
			// Functions and method operators own the parenthesized operand
			// that just closed.
			if s, ok := top(); ok && (s.Kind == TokenFunction || s.Method != "") {
				emit(pop())
			}
			operand = false
		case TokenComma:
			return nil, &ParseError{Col: t.Pos, Op: ",", Reason: "unexpected"}
		default:
			return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "invalid token"}
		}
		last = t
	}
	if operand && last.Kind == TokenOperator {
		return nil, &ParseError{Col: last.Pos, Op: opText(last), Reason: "insufficient operands for"}
	}
	for !ops.Empty() {
		s := pop()
		if s.Kind == TokenLeftParen {
			return nil, &ParseError{Col: s.Pos, Op: "(", Reason: "mismatched"}
		}
		emit(s)
	}
	steps.Logf(StageParse, "Postfix: %s", postfixText(out))
	return out, nil
}

// opText is the operator as written, for error messages.
func opText(t Token) string {
	if t.Method != "" {
		return "." + t.Method
	}
	return t.Text
}

func describeKind(t Token) string {
	switch t.Kind {
	case TokenNumber:
		return "number"
	case TokenConstant:
		return "constant"
	case TokenOperator:
		switch {
		case t.Unary:
			return "unary operator"
		case t.Method != "":
			return "method"
		}
		return "operator"
	case TokenFunction:
		return "function"
	case TokenFuncRef:
		return "function reference"
	case TokenMethod:
		return "method"
	case TokenVariable:
		return "variable"
	case TokenObject:
		return "object"
	case TokenLeftParen, TokenRightParen:
		return "parenthesis"
	case TokenComma:
		return "comma"
	}
	return "token"
}

// BuildTree builds a syntax tree from tokens in postfix order, logging each
// node it constructs.
func BuildTree(postfix []Token, steps *Steps) (*Node, error) {
	nodes := arraystack.New()
	pop := func() (*Node, bool) {
		v, ok := nodes.Pop()
		if !ok {
			return nil, false
		}
		return v.(*Node), true
	}
	for _, t := range postfix {
		var n *Node
		switch t.Kind {
		case TokenNumber, TokenConstant, TokenVariable, TokenFuncRef, TokenObject:
			n = &Node{Tok: t}
			nodes.Push(n)
			steps.Logf(StageParse, "Create leaf %s", t.Text)
			continue
		case TokenFunction, TokenMethod:
			r, ok := pop()
			if !ok {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "missing argument for function"}
			}
			n = &Node{Tok: t, Right: r}
		case TokenOperator:
			if t.Unary {
				r, ok := pop()
				if !ok {
					return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "insufficient operands for"}
				}
				n = &Node{Tok: t, Right: r}
				break
			}
			r, ok := pop()
			if !ok {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "insufficient operands for"}
			}
			l, ok := pop()
			if !ok {
				return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "insufficient operands for"}
			}
			if t.Text == "=" && l.Tok.Kind != TokenVariable {
				return nil, &ParseError{Col: t.Pos, Op: l.Tok.Text, Reason: "cannot assign to"}
			}
			n = &Node{Tok: t, Left: l, Right: r}
		default:
			return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "malformed postfix at"}
		}
		nodes.Push(n)
		steps.Logf(StageParse, "Create node %s", n.brief())
	}
	switch nodes.Size() {
	case 0:
		return nil, &ParseError{Reason: "empty expression"}
	case 1:
		n, _ := pop()
		return n, nil
	default:
		// The second node from the bottom is the first one nothing consumed.
		vals := nodes.Values()
		extra := vals[len(vals)-2].(*Node)
		return nil, &ParseError{Col: extra.Tok.Pos, Op: extra.Tok.Text, Reason: "missing operator before"}
	}
}

// Parse converts tokens into a syntax tree.
func Parse(toks []Token, steps *Steps) (*Node, error) {
	postfix, err := Postfix(toks, steps)
	if err != nil {
		return nil, err
	}
	return BuildTree(postfix, steps)
}
