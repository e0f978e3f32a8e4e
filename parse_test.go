package stepcalc

import (
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/zephyrtronium/stepcalc/value"
)

func mustTokenize(t *testing.T, src string) []Token {
	t.Helper()
	toks, err := Tokenize(src, nil)
	if err != nil {
		t.Fatalf("tokenizing %q: %v", src, err)
	}
	return toks
}

func TestPostfix(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"num", "1", "1"},
		{"precedence", "2 + 3 * 4", "2 3 4 * +"},
		{"paren", "(2 + 3) * 4", "2 3 + 4 *"},
		{"sub-left", "8 - 3 - 2", "8 3 - 2 -"},
		{"div-left", "8 / 4 / 2", "8 4 / 2 /"},
		{"pow-right", "2 ^ 3 ^ 2", "2 3 2 ^ ^"},
		{"neg-pow", "-2 ^ 2", "2 2 ^ neg"},
		{"pow-neg", "2 ^ -1", "2 1 neg ^"},
		{"neg-add", "-2 + 3", "2 neg 3 +"},
		{"negneg", "--x", "x neg neg"},
		{"assign", "x = y = 2 + 1", "x y 2 1 + = ="},
		{"call", "sqrt(16) + 1", "16 sqrt 1 +"},
		{"call-bare", "sqrt 16 + 1", "16 sqrt 1 +"},
		{"call-pow", "sqrt 16 ^ 2", "16 sqrt 2 ^"},
		{"call-nested", "abs(sqrt(4) - 3)", "4 sqrt 3 - abs"},
		{"call-neg", "abs -1", "1 neg abs"},
		{"method", "m.det() * 2", "m .det() 2 *"},
		{"method-neg", "-m.det()", "m .det() neg"},
		{"method-chain", "(a + b).inverse().det()", "a b + .inverse() .det()"},
		{"logic", "a or b and not c", "a b c not and or"},
		{"not-compare", "not a == b", "a b == not"},
		{"compare-arith", "a + 1 < b * 2", "a 1 + b 2 * <"},
		{"keywords", "u dot v + w cross z", "u v dot w z cross +"},
		{"root", "27 root 3 + 1", "27 3 root 1 +"},
		{"funcref", "sqrt", "sqrt"},
		{"object", "Vector([1, 2]) * 2", "Vector([1, 2]) 2 *"},
		{"method-op", "u.dot(v) + 1", "u v .dot 1 +"},
		{"method-op-pow", "2 ^ u.root(3)", "2 u 3 .root ^"},
		{"method-op-neg", "-u.dot(v)", "u v .dot neg"},
		{"method-op-arg", "u.cross(v + w) * 2", "u v w + .cross 2 *"},
		{"method-op-chain", "p.long_division(q).degree()", "p q .long_division .degree()"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks := mustTokenize(t, c.src)
			out, err := Postfix(toks, nil)
			if err != nil {
				t.Fatalf("postfix of %q: %v", c.src, err)
			}
			if got := postfixText(out); got != c.want {
				t.Errorf("postfix of %q: want %q, got %q", c.src, c.want, got)
			}
			tree, err := BuildTree(out, nil)
			if err != nil {
				t.Fatalf("building %q: %v", c.src, err)
			}
			if got := tree.Postfix(); got != c.want {
				t.Errorf("tree postfix of %q: want %q, got %q", c.src, c.want, got)
			}
		})
	}
}

func TestParseTrees(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"leaf", "x", "(x)"},
		{"paren", "((x))", "(x)"},
		{"add", "x+y", "([x] + [y])"},
		{"desc", "w^x*y+z", "([([w] ^ [x]) * (y)] + [z])"},
		{"asc", "w+x*y^z", "([w] + [(x) * ([y] ^ [z])])"},
		{"neg", "-x", "(-[x])"},
		{"not", "not x", "(not [x])"},
		{"call", "sqrt(x)", "(sqrt[x])"},
		{"method", "x.det()", "([x].det())"},
		{"assign", "x = 1 + 2", "([x] = [(1) + (2)])"},
		{"method-op", "u.dot(v)", "([u].dot[v])"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			tree, err := Parse(mustTokenize(t, c.src), nil)
			if err != nil {
				t.Fatalf("parsing %q: %v", c.src, err)
			}
			if got := tree.String(); got != c.want {
				t.Errorf("parsing %q: want %s, got %s", c.src, c.want, got)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		op   string
		col  int
	}{
		{"close", "1 + 2)", ")", 6},
		{"open", "(1 + 2", "(", 1},
		{"open-nested", "((1 + 2)", "(", 1},
		{"comma", "1, 2", ",", 2},
		{"missing-rhs", "1 +", "+", 3},
		{"missing-lhs", "* 2", "*", 1},
		{"missing-unary", "-", "-", 1},
		{"missing-operator", "1 2", "2", 3},
		{"assign-number", "1 = 2", "1", 3},
		{"empty", "", "", 0},
		{"empty-parens", "()", ")", 2},
		{"postfix-input", "2 3 +", "3", 3},
		{"postfix-input-long", "2 3 + 4 *", "3", 3},
		{"prefix-assign", "= x 5", "=", 1},
		{"implicit-mul", "2 x", "x", 3},
		{"operand-after-paren", "(1) 2", "2", 5},
		{"paren-after-operand", "2 (3)", "(", 3},
		{"func-after-operand", "2 sqrt(4)", "sqrt", 3},
		{"unary-after-operand", "a not b", "not", 3},
		{"op-before-close", "(1 +)", "+", 4},
		{"trailing-op", "1 * 2 -", "-", 7},
		{"method-op-empty", "v.dot()", ")", 7},
		{"method-op-missing-arg", "v.dot(w +)", "+", 9},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := Parse(mustTokenize(t, c.src), nil)
			if err == nil {
				t.Fatalf("parsing %q gave no error", c.src)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("parsing %q gave %#v, not ParseError", c.src, err)
			}
			if pe.Op != c.op {
				t.Errorf("parsing %q: want error on %q, got %q", c.src, c.op, pe.Op)
			}
			if pe.Pos() != c.col {
				t.Errorf("parsing %q: want column %d, got %d", c.src, c.col, pe.Pos())
			}
			if c.op != "" && !strings.Contains(err.Error(), c.op) {
				t.Errorf("parsing %q: error %q doesn't name %q", c.src, err, c.op)
			}
		})
	}
}

func TestParseSteps(t *testing.T) {
	var steps Steps
	toks := mustTokenize(t, "2 + 3 * 4")
	if _, err := Parse(toks, &steps); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Read number 2",
		"Output 2",
		"Read operator +",
		"Push + onto operator stack",
		"Read number 3",
		"Output 3",
		"Read operator *",
		"Push * onto operator stack",
		"Read number 4",
		"Output 4",
		"Pop * from operator stack",
		"Output *",
		"Pop + from operator stack",
		"Output +",
		"Postfix: 2 3 4 * +",
		"Create leaf 2",
		"Create leaf 3",
		"Create leaf 4",
		"Create node ([3] * [4])",
		"Create node ([2] + [(3) * (4)])",
	}
	if diff := cmp.Diff(want, steps.Texts()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	for _, s := range steps.Entries() {
		if s.Stage != StageParse {
			t.Errorf("step %q has stage %v", s.Text, s.Stage)
		}
	}
}

func TestParseBriefNodes(t *testing.T) {
	var steps Steps
	toks := mustTokenize(t, "((((1 + 2) + 3) + 4) + 5) + 6")
	if _, err := Parse(toks, &steps); err != nil {
		t.Fatal(err)
	}
	last := steps.Texts()[steps.Len()-1]
	if !strings.Contains(last, "...") {
		t.Errorf("deep node not elided: %q", last)
	}
}

// arith is a generated arithmetic expression with its value computed from its
// structure rather than by parsing.
type arith struct {
	text string
	val  float64
	prec int
	// ok is false if the expression divides by zero.
	ok bool
}

func genArith(rng *rand.Rand, depth int) arith {
	if depth == 0 || rng.Intn(4) == 0 {
		n := rng.Intn(9) + 1
		return arith{text: strconv.Itoa(n), val: float64(n), prec: precMethod + 1, ok: true}
	}
	l, r := genArith(rng, depth-1), genArith(rng, depth-1)
	op := "+-*/"[rng.Intn(4)]
	e := arith{prec: precAdd, ok: l.ok && r.ok}
	switch op {
	case '+':
		e.val = l.val + r.val
	case '-':
		e.val = l.val - r.val
	case '*':
		e.val, e.prec = l.val*r.val, precMul
	case '/':
		e.val, e.prec = l.val/r.val, precMul
		e.ok = e.ok && r.val != 0
	}
	// Parenthesize where precedence and left associativity require it, and
	// sometimes where they don't.
	lt, rt := l.text, r.text
	if l.prec < e.prec || rng.Intn(6) == 0 {
		lt = "(" + lt + ")"
	}
	if r.prec <= e.prec || rng.Intn(6) == 0 {
		rt = "(" + rt + ")"
	}
	e.text = lt + " " + string(op) + " " + rt
	return e
}

// evalRPN evaluates arithmetic in postfix order with a stack machine.
func evalRPN(t *testing.T, toks []Token) float64 {
	t.Helper()
	var st []float64
	for _, tok := range toks {
		switch tok.Kind {
		case TokenNumber:
			st = append(st, tok.Num)
		case TokenOperator:
			if len(st) < 2 {
				t.Fatalf("stack underflow at %v", tok)
			}
			a, b := st[len(st)-2], st[len(st)-1]
			st = st[:len(st)-2]
			var r float64
			switch tok.Text {
			case "+":
				r = a + b
			case "-":
				r = a - b
			case "*":
				r = a * b
			case "/":
				r = a / b
			default:
				t.Fatalf("unexpected operator %v", tok)
			}
			st = append(st, r)
		default:
			t.Fatalf("unexpected token %v", tok)
		}
	}
	if len(st) != 1 {
		t.Fatalf("stack has %d values at end", len(st))
	}
	return st[0]
}

func TestPostfixMatchesEval(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		e := genArith(rng, 5)
		if !e.ok {
			continue
		}
		post, err := Postfix(mustTokenize(t, e.text), nil)
		if err != nil {
			t.Errorf("postfix of %q: %v", e.text, err)
			continue
		}
		if got := evalRPN(t, post); got != e.val {
			t.Errorf("%q: postfix %s gives %g, want %g", e.text, postfixText(post), got, e.val)
		}
		v, err := EvalString(e.text)
		if err != nil {
			t.Errorf("evaluating %q: %v", e.text, err)
			continue
		}
		if v != value.Scalar(e.val) {
			t.Errorf("%q: evaluates to %v, want %g", e.text, v, e.val)
		}
	}
}
