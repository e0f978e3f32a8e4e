package stepcalc

import (
	"strings"
)

// Node is a node in the abstract syntax tree of an expression. Binary
// operators have both children. Unary operators, functions, and methods have
// only Right. Leaves have neither.
type Node struct {
	Tok   Token
	Left  *Node
	Right *Node
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// String formats the tree fully bracketed, alternating round and square
// brackets by depth.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	var b strings.Builder
	n.fmt(&b, false, -1)
	return b.String()
}

// brief formats the tree like String, but elides nodes deeper than a few
// levels.
func (n *Node) brief() string {
	var b strings.Builder
	n.fmt(&b, false, 3)
	return b.String()
}

// fmt writes the node. If limit is non-negative, it is the number of levels
// below n to write before eliding.
func (n *Node) fmt(b *strings.Builder, square bool, limit int) {
	if n == nil {
		// Missing children use invalid characters.
		b.WriteByte('$')
		return
	}
	var l, r byte = '(', ')'
	if square {
		l, r = '[', ']'
	}
	b.WriteByte(l)
	defer b.WriteByte(r)
	if limit == 0 && !n.IsLeaf() {
		b.WriteString("...")
		return
	}
	limit--
	t := n.Tok
	switch t.Kind {
	case TokenNumber, TokenConstant, TokenVariable, TokenFuncRef, TokenObject:
		b.WriteString(t.Text)
	case TokenFunction:
		b.WriteString(t.Text)
		n.Right.fmt(b, !square, limit)
	case TokenMethod:
		n.Right.fmt(b, !square, limit)
		b.WriteString("." + t.Text + "()")
	case TokenOperator:
		if t.Unary {
			b.WriteString(t.Text)
			if t.Text == "not" {
				b.WriteByte(' ')
			}
			n.Right.fmt(b, !square, limit)
			return
		}
		n.Left.fmt(b, !square, limit)
		if t.Method != "" {
			b.WriteString("." + t.Method)
		} else {
			b.WriteString(" " + t.Text + " ")
		}
		n.Right.fmt(b, !square, limit)
	default:
		b.WriteString("$" + t.Text + "$")
	}
}

// Postfix renders the tree in reverse Polish notation.
func (n *Node) Postfix() string {
	var toks []Token
	n.walk(func(m *Node) { toks = append(toks, m.Tok) })
	return postfixText(toks)
}

// walk calls f on each node of the tree in post-order.
func (n *Node) walk(f func(*Node)) {
	if n == nil {
		return
	}
	n.Left.walk(f)
	n.Right.walk(f)
	f(n)
}

// label is the text used for a token in postfix output, which distinguishes
// unary from binary signs.
func label(t Token) string {
	switch {
	case t.Kind == TokenOperator && t.Unary && t.Text == "-":
		return "neg"
	case t.Kind == TokenOperator && t.Unary && t.Text == "+":
		return "pos"
	case t.Kind == TokenMethod:
		return "." + t.Text + "()"
	case t.Kind == TokenOperator && t.Method != "":
		return "." + t.Method
	}
	return t.Text
}

func postfixText(toks []Token) string {
	s := make([]string, len(toks))
	for i, t := range toks {
		s[i] = label(t)
	}
	return strings.Join(s, " ")
}
