package stepcalc_test

import (
	"errors"
	"math"
	"regexp"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/zephyrtronium/stepcalc"
	"github.com/zephyrtronium/stepcalc/value"
)

var approx = cmp.Options{
	cmpopts.EquateApprox(0, 1e-9),
	cmp.Comparer(func(a, b value.Scalar) bool { return math.Abs(float64(a-b)) <= 1e-9 }),
}

func TestEval(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want value.Value
	}{
		{"num", "1", value.Scalar(1)},
		{"precedence", "2 + 3 * 4", value.Scalar(14)},
		{"paren", "(2 + 3) * 4", value.Scalar(20)},
		{"pow-right", "2 ^ 3 ^ 2", value.Scalar(512)},
		{"pow-alt", "2 ** 3", value.Scalar(8)},
		{"sub-left", "8 - 3 - 2", value.Scalar(3)},
		{"div-left", "8 / 4 / 2", value.Scalar(1)},
		{"mod", "7 % 3", value.Scalar(1)},
		{"neg-pow", "-2 ^ 2", value.Scalar(-4)},
		{"paren-neg-pow", "(-2) ^ 2", value.Scalar(4)},
		{"pow-neg", "2 ^ -1", value.Scalar(0.5)},
		{"negneg", "--3", value.Scalar(3)},
		{"plus", "+3", value.Scalar(3)},
		{"pi", "pi", value.Scalar(math.Pi)},
		{"e", "e", value.Scalar(math.E)},
		{"sqrt-log", "sqrt(16) + log(e)", value.Scalar(5)},
		{"sqrt-bare", "sqrt 16", value.Scalar(4)},
		{"ln", "ln(1)", value.Scalar(0)},
		{"exp", "exp(0)", value.Scalar(1)},
		{"log10", "log10(1000)", value.Scalar(3)},
		{"log2", "log2(8)", value.Scalar(3)},
		{"trig", "sin(0) + cos(0)", value.Scalar(1)},
		{"rounding", "floor(2.5) + ceil(2.5) + round(2.5)", value.Scalar(8)},
		{"abs-neg", "abs -3", value.Scalar(3)},
		{"root", "27 root 3", value.Scalar(3)},
		{"compare", "1 + 1 == 2", value.Boolean(true)},
		{"compare-lt", "2 < 1", value.Boolean(false)},
		{"logic", "1 < 2 and 2 < 3", value.Boolean(true)},
		{"logic-or", "0 or 0", value.Boolean(false)},
		{"not", "not 0", value.Boolean(true)},
		{"not-compare", "!(1 > 2)", value.Boolean(true)},
		{"and-sym", "1 && 0", value.Boolean(false)},
		{"assign", "x = 3 * 4", value.Scalar(12)},
		{"assign-chain", "x = y = 2", value.Scalar(2)},
		{"complex-add", "ComplexNumber(1,2) + ComplexNumber(3,4)", value.Complex{Re: 4, Im: 6}},
		{"complex-div", "ComplexNumber(6, 8) / ComplexNumber(3, 4)", value.Complex{Re: 2, Im: 0}},
		{"complex-scalar", "Complex(0, 1) * 2", value.Complex{Re: 0, Im: 2}},
		{"complex-sqrt", "sqrt(ComplexNumber(-4, 0))", value.Complex{Re: 0, Im: 2}},
		{"complex-abs", "abs(ComplexNumber(3, 4))", value.Scalar(5)},
		{"complex-conj", "conj(ComplexNumber(1, 2))", value.Complex{Re: 1, Im: -2}},
		{"complex-parts", "re(ComplexNumber(1, 2)) + im(ComplexNumber(1, 2))", value.Scalar(3)},
		{"matrix-identity", "Matrix([[1,2],[3,4]]) * Matrix([[1,0],[0,1]])", value.Matrix{Rows: [][]float64{{1, 2}, {3, 4}}}},
		{"matrix-det", "det(Matrix([[1,2],[3,4]]))", value.Scalar(-2)},
		{"matrix-inverse", "Matrix([[1,2],[3,4]]).inverse()", value.Matrix{Rows: [][]float64{{-2, 1}, {1.5, -0.5}}}},
		{"matrix-inv", "inv(Matrix([[2, 0], [0, 4]]))", value.Matrix{Rows: [][]float64{{0.5, 0}, {0, 0.25}}}},
		{"matrix-transpose", "transpose(Matrix([[1, 2, 3]]))", value.Matrix{Rows: [][]float64{{1}, {2}, {3}}}},
		{"matrix-vector", "Matrix([[1,2],[3,4]]) * Vector([1, 1])", value.Vector{Components: []float64{3, 7}}},
		{"matrix-scale", "2 * Matrix([[1, 2]])", value.Matrix{Rows: [][]float64{{2, 4}}}},
		{"vector-add", "Vector([2, 3]) + Vector([4, 5])", value.Vector{Components: []float64{6, 8}}},
		{"vector-dot", "Vector([1, 2, 3]) dot Vector([4, 5, 6])", value.Scalar(32)},
		{"vector-cross", "Vector([1, 0, 0]) cross Vector([0, 1, 0])", value.Vector{Components: []float64{0, 0, 1}}},
		{"vector-norm", "Vector([3, 4]).norm()", value.Scalar(5)},
		{"poly-add", "Polynomial([1, 2]) + Polynomial([1, 0, 0])", value.Polynomial{Coeffs: []float64{1, 1, 2}}},
		{"poly-mul", "Polynomial([1, 1]) * Polynomial([1, -1])", value.Polynomial{Coeffs: []float64{1, 0, -1}}},
		{"poly-div", "Polynomial([1, -3, 2]) / Polynomial([1, -1])", value.Polynomial{Coeffs: []float64{1, -2}}},
		{"poly-mod", "Polynomial([1, 0, 1]) % Polynomial([1, -1])", value.Polynomial{Coeffs: []float64{2}}},
		{"poly-roots", "roots(Polynomial([1, -3, 2]))", value.Vector{Components: []float64{2, 1}}},
		{"poly-degree", "Polynomial([0, 1, 2, 3]).degree()", value.Scalar(2)},
		{"poly-const", "Polynomial([1, 2]) + 1", value.Polynomial{Coeffs: []float64{1, 3}}},
		{"literal-constants", "Vector([pi, -e])", value.Vector{Components: []float64{math.Pi, -math.E}}},
		{"funcref", "sqrt", value.Function{Name: "sqrt"}},
		{"method-chain", "Matrix([[1,2],[3,4]]).inverse().det()", value.Scalar(-0.5)},
		{"find-roots", "Polynomial([1, -4, 4]).find_roots()", value.Vector{Components: []float64{2}}},
		{"determinant", "Matrix([[1,2],[3,4]]).determinant()", value.Scalar(-2)},
		{"method-dot", "Vector([1, 2, 3]).dot(Vector([4, 5, 6])) + 1", value.Scalar(33)},
		{"method-cross", "Vector([1, 0, 0]).cross(Vector([0, 1, 0]))", value.Vector{Components: []float64{0, 0, 1}}},
		{"method-nth-root", "ComplexNumber(-1, 0).nth_root(2)", value.Complex{Re: 0, Im: 1}},
		{"method-root", "27.root(3)", value.Scalar(3)},
		{"method-long-division", "Polynomial([1, -3, 2]).long_division(Polynomial([1, -1]))", value.Polynomial{Coeffs: []float64{1, -2}}},
		{"method-remainder", "Polynomial([1, 0, 1]).remainder(Polynomial([1, -1]))", value.Polynomial{Coeffs: []float64{2}}},
		{"method-precedence", "2 ^ Vector([1, 1]).dot(Vector([1, 2]))", value.Scalar(8)},
		{"method-chained-op", "Vector([3, 0]).dot(Vector([1, 0])).abs()", value.Scalar(3)},
		{"poly-pow", "Polynomial([1, 1]) ^ 2", value.Polynomial{Coeffs: []float64{1, 2, 1}}},
		{"matrix-pow", "Matrix([[1, 1], [0, 1]]) ^ 10", value.Matrix{Rows: [][]float64{{1, 10}, {0, 1}}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev := stepcalc.New()
			got, transcript, err := ev.Evaluate(c.src)
			if err != nil {
				t.Fatalf("evaluating %q: %v", c.src, err)
			}
			if diff := cmp.Diff(c.want, got, approx); diff != "" {
				t.Errorf("evaluating %q (-want +got):\n%s", c.src, diff)
			}
			if transcript == "" {
				t.Errorf("evaluating %q gave empty transcript", c.src)
			}
			lines := strings.Split(transcript, "\n")
			if last := lines[len(lines)-1]; !strings.Contains(last, got.String()) {
				t.Errorf("last step %q doesn't mention result %v", last, got)
			}
		})
	}
}

func TestEvalVars(t *testing.T) {
	ev := stepcalc.New()
	if _, _, err := ev.Evaluate("x = 10"); err != nil {
		t.Fatal(err)
	}
	r, _, err := ev.Evaluate("x * 2")
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(20) {
		t.Errorf("want 20, got %v", r)
	}
	if got := ev.Lookup("x"); got != value.Scalar(10) {
		t.Errorf("x is %v", got)
	}

	cl := ev.Clone(stepcalc.SetVar("y", value.Scalar(1)))
	if _, _, err := cl.Evaluate("x = x + y"); err != nil {
		t.Fatal(err)
	}
	if got := cl.Lookup("x"); got != value.Scalar(11) {
		t.Errorf("clone's x is %v", got)
	}
	if got := ev.Lookup("x"); got != value.Scalar(10) {
		t.Errorf("assigning in clone changed original x to %v", got)
	}
	if got := ev.Lookup("y"); got != nil {
		t.Errorf("original has y = %v", got)
	}

	vars := cl.Vars()
	want := map[string]value.Value{"x": value.Scalar(11), "y": value.Scalar(1)}
	if diff := cmp.Diff(want, vars); diff != "" {
		t.Errorf("vars (-want +got):\n%s", diff)
	}
}

func TestEvalSetVars(t *testing.T) {
	m := value.Matrix{Rows: [][]float64{{1, 2}, {3, 4}}}
	ev := stepcalc.New(stepcalc.SetVars(map[string]value.Value{"m": m, "k": value.Scalar(2)}))
	r, _, err := ev.Evaluate("m.det() * k")
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(-4) {
		t.Errorf("want -4, got %v", r)
	}
	ev.Set("k", value.Scalar(3))
	r, err = stepcalc.EvalString("m.det() * k", stepcalc.SetVars(ev.Vars()))
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(-6) {
		t.Errorf("want -6, got %v", r)
	}
}

func TestEvalVarShadowsFunc(t *testing.T) {
	ev := stepcalc.New(stepcalc.SetVar("sqrt", value.Scalar(7)))
	r, _, err := ev.Evaluate("sqrt")
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(7) {
		t.Errorf("want variable value 7, got %v", r)
	}
}

func TestEvalErrors(t *testing.T) {
	row := "[" + strings.TrimSuffix(strings.Repeat("1, ", 13), ", ") + "]"
	big := "Matrix([" + strings.TrimSuffix(strings.Repeat(row+", ", 13), ", ") + "])"
	cases := []struct {
		name string
		src  string
		want any
	}{
		{"div-zero", "5 / 0", new(*value.DivisionByZeroError)},
		{"mod-zero", "5 % 0", new(*value.DivisionByZeroError)},
		{"complex-div-zero", "ComplexNumber(1, 1) / 0", new(*value.DivisionByZeroError)},
		{"poly-div-zero", "Polynomial([1, 1]) / Polynomial([0])", new(*value.DivisionByZeroError)},
		{"singular", "inverse(Matrix([[1, 2], [2, 4]]))", new(*value.SingularMatrixError)},
		{"singular-div", "Matrix([[1]]) / Matrix([[0]])", new(*value.SingularMatrixError)},
		{"dims", "Matrix([[1, 2]]) + Matrix([[1], [2]])", new(*value.DimensionError)},
		{"ragged", "Matrix([[1, 2], [3]])", new(*value.DimensionError)},
		{"det-nonsquare", "det(Matrix([[1, 2]]))", new(*value.DimensionError)},
		{"cross-2d", "Vector([1, 2]) cross Vector([3, 4])", new(*value.DimensionError)},
		{"mismatch", "Matrix([[1]]) + Vector([1])", new(*value.TypeMismatchError)},
		{"func-arg", "det(2)", new(*value.TypeMismatchError)},
		{"funcref-arith", "sqrt * 2", new(*value.TypeMismatchError)},
		{"sqrt-neg", "sqrt(-1)", new(*value.DomainError)},
		{"log-zero", "log(0)", new(*value.DomainError)},
		{"ln-neg", "ln(-1)", new(*value.DomainError)},
		{"asin", "asin(2)", new(*value.DomainError)},
		{"exp-overflow", "exp(1000)", new(*value.DomainError)},
		{"overflow", "10 ^ 400", new(*value.DomainError)},
		{"undefined", "x + 1", new(*stepcalc.UnresolvedIdentifierError)},
		{"undefined-rhs", "y = z", new(*stepcalc.UnresolvedIdentifierError)},
		{"tokenize", "1 $ 2", new(*stepcalc.TokenizationError)},
		{"mismatched", "(1 + 2", new(*stepcalc.ParseError)},
		{"operands", "1 +", new(*stepcalc.ParseError)},
		{"assign-const", "pi = 3", new(*stepcalc.ParseError)},
		{"postfix-input", "2 3 +", new(*stepcalc.ParseError)},
		{"postfix-input-long", "2 3 + 4 *", new(*stepcalc.ParseError)},
		{"prefix-assign", "= x 5", new(*stepcalc.ParseError)},
		{"implicit-mul", "2 x", new(*stepcalc.ParseError)},
		{"method-no-arg", "Vector([1]).dot()", new(*stepcalc.ParseError)},
		{"matrix-inf", "Matrix([[1e308]]) * Matrix([[10]])", new(*value.DomainError)},
		{"poly-inf", "Polynomial([1e308]) * 10", new(*value.DomainError)},
		{"dot-inf", "Vector([1e308]) dot Vector([10])", new(*value.DomainError)},
		{"det-inf", "det(Matrix([[1e200, 0], [0, 1e200]]))", new(*value.DomainError)},
		{"complex-root-huge", "ComplexNumber(1, 1) root 4611686018427387904", new(*value.DomainError)},
		{"poly-pow-huge", "Polynomial([1, 1]) ^ 1e30", new(*value.DomainError)},
		{"matrix-pow-huge", "Matrix([[2, 0], [0, 2]]) ^ 1e30", new(*value.DomainError)},
		{"det-too-large", "det(" + big + ")", new(*value.DimensionError)},
		{"inverse-too-large", big + ".inverse()", new(*value.DimensionError)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ev := stepcalc.New()
			r, transcript, err := ev.Evaluate(c.src)
			if err == nil {
				t.Fatalf("evaluating %q gave %v with no error", c.src, r)
			}
			if !errors.As(err, c.want) {
				t.Errorf("evaluating %q gave %#v, want %T", c.src, err, c.want)
			}
			if r != nil {
				t.Errorf("evaluating %q gave non-nil result %v", c.src, r)
			}
			if transcript != "" {
				t.Errorf("evaluating %q gave transcript with error", c.src)
			}
		})
	}
}

func TestEvalErrorMessages(t *testing.T) {
	cases := []struct {
		name string
		src  string
		re   string
	}{
		{"undefined", "1 + foo", `^5: undefined identifier "foo"$`},
		{"tokenize", "1 + #", `^5: invalid token "#"$`},
		{"mismatch", "Matrix([[1]]) + Vector([1])", `Matrix and Vector`},
		{"domain", "sqrt(-4)", `-4 outside domain of sqrt`},
		{"func-mismatch", "det(ComplexNumber(1, 1))", `cannot apply "det" to Complex`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := stepcalc.EvalString(c.src)
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			if !regexp.MustCompile(c.re).MatchString(err.Error()) {
				t.Errorf("evaluating %q: error %q doesn't match %q", c.src, err, c.re)
			}
		})
	}
}

func TestEvalTranscript(t *testing.T) {
	ev := stepcalc.New()
	_, transcript, err := ev.Evaluate("x = 2 + 3")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(transcript, "\n")
	want := []string{
		"Tokens: [x = 2 + 3]",
		"Read variable x",
		"Output x",
		"Read operator =",
		"Push = onto operator stack",
		"Read number 2",
		"Output 2",
		"Read operator +",
		"Push + onto operator stack",
		"Read number 3",
		"Output 3",
		"Pop + from operator stack",
		"Output +",
		"Pop = from operator stack",
		"Output =",
		"Postfix: x 2 3 + =",
		"Create leaf x",
		"Create leaf 2",
		"Create leaf 3",
		"Create node ([2] + [3])",
		"Create node ([x] = [(2) + (3)])",
		"Number 2",
		"Number 3",
		"Apply +: 2 + 3 = 5",
		"Assign x = 5",
		"Result: 5",
	}
	if diff := cmp.Diff(want, lines); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}

	stages := ev.Steps().Entries()
	if stages[0].Stage != stepcalc.StageTokenize || stages[len(stages)-1].Stage != stepcalc.StageResult {
		t.Errorf("wrong stages at ends: %v, %v", stages[0].Stage, stages[len(stages)-1].Stage)
	}

	// The next evaluation starts a fresh transcript.
	_, transcript, err = ev.Evaluate("x")
	if err != nil {
		t.Fatal(err)
	}
	want = []string{
		"Tokens: [x]",
		"Read variable x",
		"Output x",
		"Postfix: x",
		"Create leaf x",
		"Variable x = 5",
		"Result: 5",
	}
	if diff := cmp.Diff(want, strings.Split(transcript, "\n")); diff != "" {
		t.Errorf("second transcript (-want +got):\n%s", diff)
	}
}

func TestEvalMethodDetail(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{
			"long-division",
			"Polynomial([1, -3, 3]).long_division(Polynomial([1, -1]))",
			"Long division: Polynomial([1, -3, 3]) = Polynomial([1, -1]) * Polynomial([1, -2]) + Polynomial([1])",
		},
		{
			"nth-root",
			"ComplexNumber(-1, 0).nth_root(4)",
			"All 4 roots of -1 + 0i: ",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, transcript, err := stepcalc.New().Evaluate(c.src)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(transcript, "\n"+c.want) {
				t.Errorf("transcript doesn't contain %q:\n%s", c.want, transcript)
			}
		})
	}
	_, transcript, err := stepcalc.New().Evaluate("ComplexNumber(-1, 0).root(4)")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(transcript, "All 4 roots") {
		t.Errorf("root listed all roots:\n%s", transcript)
	}
}

func TestEvalRecursionLimit(t *testing.T) {
	src := strings.Repeat("-", 100) + "1"
	ev := stepcalc.New(stepcalc.MaxDepth(50))
	_, _, err := ev.Evaluate(src)
	var rl *stepcalc.RecursionLimitError
	if !errors.As(err, &rl) {
		t.Fatalf("want RecursionLimitError, got %v", err)
	}
	if rl.Limit != 50 {
		t.Errorf("want limit 50, got %d", rl.Limit)
	}
	r, _, err := stepcalc.New().Evaluate(src)
	if err != nil {
		t.Fatalf("default limit: %v", err)
	}
	if r != value.Scalar(1) {
		t.Errorf("want 1, got %v", r)
	}
}

func TestEvalTreeMissingOperand(t *testing.T) {
	cases := []struct {
		name string
		n    *stepcalc.Node
	}{
		{"binary", &stepcalc.Node{
			Tok:  stepcalc.Token{Kind: stepcalc.TokenOperator, Text: "+", Pos: 2},
			Left: &stepcalc.Node{Tok: stepcalc.Token{Kind: stepcalc.TokenNumber, Text: "1", Num: 1, Pos: 1}},
		}},
		{"unary", &stepcalc.Node{
			Tok: stepcalc.Token{Kind: stepcalc.TokenOperator, Text: "-", Pos: 1, Unary: true},
		}},
		{"func", &stepcalc.Node{
			Tok: stepcalc.Token{Kind: stepcalc.TokenFunction, Text: "sqrt", Pos: 1},
		}},
		{"assign", &stepcalc.Node{
			Tok:   stepcalc.Token{Kind: stepcalc.TokenOperator, Text: "=", Pos: 3},
			Right: &stepcalc.Node{Tok: stepcalc.Token{Kind: stepcalc.TokenNumber, Text: "1", Num: 1, Pos: 5}},
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := stepcalc.New().EvalTree(c.n)
			var mo *stepcalc.MissingOperandError
			if !errors.As(err, &mo) {
				t.Fatalf("want MissingOperandError, got %v", err)
			}
			if mo.Op != c.n.Tok.Text {
				t.Errorf("want op %q, got %q", c.n.Tok.Text, mo.Op)
			}
		})
	}
}

func TestWithFunc(t *testing.T) {
	twice := stepcalc.Monadic(func(x float64) float64 { return 2 * x })
	ev := stepcalc.New(stepcalc.WithFunc("twice", twice))
	r, _, err := ev.Evaluate("twice(3) + 3.twice()")
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(12) {
		t.Errorf("want 12, got %v", r)
	}
	if _, err := stepcalc.EvalString("twice(3)"); err == nil {
		t.Error("default evaluator knows twice")
	}

	ev = stepcalc.New(stepcalc.WithFunc("sqrt", nil), stepcalc.SetVar("sqrt", value.Scalar(2)))
	r, _, err = ev.Evaluate("sqrt * 3")
	if err != nil {
		t.Fatal(err)
	}
	if r != value.Scalar(6) {
		t.Errorf("want 6, got %v", r)
	}
}
