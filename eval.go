package stepcalc

import (
	"errors"
	"log/slog"
	"math"
	"strings"

	"github.com/zephyrtronium/stepcalc/value"
)

// DefaultMaxDepth is the default limit on the nesting depth of evaluated
// expressions.
const DefaultMaxDepth = 512

// Evaluator evaluates expressions. It holds variables assigned by earlier
// expressions and the steps recorded for the most recent one. It is not safe
// to use an Evaluator concurrently; use one per session.
type Evaluator struct {
	names    map[string]value.Value
	funcs    map[string]Func
	steps    Steps
	maxDepth int
	log      *slog.Logger
}

// Option is an option used when creating an evaluator.
type Option interface {
	evalOption()
}

type (
	varopt struct {
		name string
		val  value.Value
	}
	varsopt  map[string]value.Value
	depthopt int
	funcopt  struct {
		name string
		fn   Func
	}
	logopt struct {
		log *slog.Logger
	}
)

func (varopt) evalOption()   {}
func (varsopt) evalOption()  {}
func (depthopt) evalOption() {}
func (funcopt) evalOption()  {}
func (logopt) evalOption()   {}

// SetVar sets the value of a variable.
func SetVar(name string, val value.Value) Option {
	return varopt{name, val}
}

// SetVars sets the values of any number of variables.
func SetVars(vars map[string]value.Value) Option {
	return varsopt(vars)
}

// MaxDepth sets the deepest nesting the evaluator will walk before failing
// with a RecursionLimitError. Values less than 1 select DefaultMaxDepth.
func MaxDepth(n int) Option {
	return depthopt(n)
}

// WithFunc adds a function. To remove a default function, pass nil for fn;
// its name is then an ordinary identifier.
func WithFunc(name string, fn Func) Option {
	return funcopt{name, fn}
}

// WithLogger sets a logger for debug output. By default nothing is logged.
func WithLogger(log *slog.Logger) Option {
	return logopt{log}
}

// New creates an evaluator with the default functions.
func New(opts ...Option) *Evaluator {
	ev := Evaluator{
		funcs:    globalfuncs,
		maxDepth: DefaultMaxDepth,
		log:      slog.New(slog.DiscardHandler),
	}
	return ev.Clone(opts...)
}

// Clone creates a copy of an evaluator and applies options to it. The copy
// shares no mutable state with ev and starts with no steps.
func (ev *Evaluator) Clone(opts ...Option) *Evaluator {
	n := Evaluator{
		names:    make(map[string]value.Value, len(ev.names)),
		funcs:    ev.funcs,
		maxDepth: ev.maxDepth,
		log:      ev.log,
	}
	for k, v := range ev.names {
		n.names[k] = v
	}
	copied := false
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		switch opt := opt.(type) {
		case varopt:
			n.names[opt.name] = opt.val
		case varsopt:
			for k, v := range opt {
				n.names[k] = v
			}
		case depthopt:
			n.maxDepth = int(opt)
			if n.maxDepth < 1 {
				n.maxDepth = DefaultMaxDepth
			}
		case funcopt:
			// Copy the table on first write so that the default table is
			// never modified.
			if !copied {
				m := make(map[string]Func, len(n.funcs)+1)
				for k, v := range n.funcs {
					m[k] = v
				}
				n.funcs = m
				copied = true
			}
			if opt.fn == nil {
				delete(n.funcs, opt.name)
			} else {
				n.funcs[opt.name] = opt.fn
			}
		case logopt:
			n.log = opt.log
			if n.log == nil {
				n.log = slog.New(slog.DiscardHandler)
			}
		default:
			panic("stepcalc: unknown option type")
		}
	}
	return &n
}

// Set sets the value of a variable. Returns ev for chaining.
func (ev *Evaluator) Set(name string, val value.Value) *Evaluator {
	ev.names[name] = val
	return ev
}

// Lookup returns the value of a variable, or nil if there is no such variable.
func (ev *Evaluator) Lookup(name string) value.Value {
	return ev.names[name]
}

// Vars returns a copy of the evaluator's variables.
func (ev *Evaluator) Vars() map[string]value.Value {
	m := make(map[string]value.Value, len(ev.names))
	for k, v := range ev.names {
		m[k] = v
	}
	return m
}

// Steps returns the steps recorded for the most recent expression. The
// returned value is owned by ev and is cleared by the next Evaluate.
func (ev *Evaluator) Steps() *Steps {
	return &ev.steps
}

// Tokenize splits an expression into tokens using ev's functions, logging to
// ev's steps.
func (ev *Evaluator) Tokenize(src string) ([]Token, error) {
	return tokenize(src, ev.funcs, &ev.steps)
}

// Parse tokenizes and parses an expression using ev's functions, logging to
// ev's steps.
func (ev *Evaluator) Parse(src string) (*Node, error) {
	toks, err := ev.Tokenize(src)
	if err != nil {
		return nil, err
	}
	return Parse(toks, &ev.steps)
}

// Evaluate evaluates an expression. It clears the steps from any previous
// expression, then returns the result and the transcript of every step taken,
// the last of which names the result. If an error occurs, the transcript is
// empty, and the variables and steps may have been partially updated.
func (ev *Evaluator) Evaluate(src string) (value.Value, string, error) {
	ev.steps.Clear()
	tree, err := ev.Parse(src)
	if err != nil {
		ev.log.Debug("parse failed", slog.String("expr", src), slog.Any("err", err))
		return nil, "", err
	}
	v, err := ev.EvalTree(tree)
	if err != nil {
		ev.log.Debug("evaluation failed", slog.String("expr", src), slog.Any("err", err))
		return nil, "", err
	}
	ev.steps.Logf(StageResult, "Result: %s", v)
	ev.log.Debug("evaluated",
		slog.String("expr", src),
		slog.String("kind", v.Kind().String()),
		slog.Int("steps", ev.steps.Len()),
	)
	return v, ev.steps.Transcript(), nil
}

// EvalTree evaluates a syntax tree, children before parents, logging every
// leaf resolution and operator application to ev's steps.
func (ev *Evaluator) EvalTree(n *Node) (value.Value, error) {
	if n == nil {
		return nil, &MissingOperandError{}
	}
	return ev.eval(n, 1)
}

func (ev *Evaluator) eval(n *Node, depth int) (value.Value, error) {
	if depth > ev.maxDepth {
		return nil, &RecursionLimitError{Limit: ev.maxDepth}
	}
	t := n.Tok
	switch t.Kind {
	case TokenNumber, TokenConstant, TokenVariable, TokenFuncRef, TokenObject:
		return ev.leaf(t)
	case TokenFunction, TokenMethod:
		return ev.call(n, depth)
	case TokenOperator:
		if t.Unary {
			return ev.unary(n, depth)
		}
		if t.Text == "=" {
			return ev.assign(n, depth)
		}
		return ev.binary(n, depth)
	}
	return nil, &ParseError{Col: t.Pos, Op: t.Text, Reason: "cannot evaluate"}
}

// leaf resolves a number, constant, variable, function reference, or object.
func (ev *Evaluator) leaf(t Token) (value.Value, error) {
	switch t.Kind {
	case TokenNumber:
		v := value.Scalar(t.Num)
		ev.steps.Logf(StageEvaluate, "Number %s", v)
		return v, nil
	case TokenConstant:
		v := value.Scalar(t.Num)
		ev.steps.Logf(StageEvaluate, "Constant %s = %s", t.Text, v)
		return v, nil
	case TokenObject:
		v, err := value.Instantiate(t.Text)
		if err != nil {
			return nil, err
		}
		ev.steps.Logf(StageEvaluate, "Instantiate %s", v)
		return v, nil
	}
	if v, ok := ev.names[t.Text]; ok {
		ev.steps.Logf(StageEvaluate, "Variable %s = %s", t.Text, v)
		return v, nil
	}
	if ev.funcs[t.Text] != nil {
		v := value.Function{Name: t.Text}
		ev.steps.Logf(StageEvaluate, "Function reference %s", t.Text)
		return v, nil
	}
	return nil, &UnresolvedIdentifierError{Name: t.Text, Col: t.Pos}
}

func (ev *Evaluator) call(n *Node, depth int) (value.Value, error) {
	t := n.Tok
	if n.Right == nil {
		return nil, &MissingOperandError{Op: t.Text, Col: t.Pos}
	}
	fn := ev.funcs[t.Text]
	if fn == nil {
		return nil, &UnresolvedIdentifierError{Name: t.Text, Col: t.Pos}
	}
	x, err := ev.eval(n.Right, depth+1)
	if err != nil {
		return nil, err
	}
	r, err := fn.Call(x)
	if err == nil {
		r, err = value.Finite(t.Text, r, x)
	}
	if err != nil {
		return nil, nameFunc(err, t.Text)
	}
	ev.steps.Logf(StageEvaluate, "Apply %s to %s = %s", t.Text, x, r)
	return r, nil
}

// nameFunc fills in the function name on errors from a Func.
func nameFunc(err error, name string) error {
	var dom *value.DomainError
	if errors.As(err, &dom) && dom.Func == "" {
		dom.Func = name
	}
	var tm *value.TypeMismatchError
	if errors.As(err, &tm) && tm.Op == "" {
		tm.Op = name
	}
	return err
}

var unarynames = map[string]string{
	"-":   value.OpNeg,
	"+":   value.OpPos,
	"not": value.OpNot,
}

func (ev *Evaluator) unary(n *Node, depth int) (value.Value, error) {
	t := n.Tok
	if n.Right == nil {
		return nil, &MissingOperandError{Op: t.Text, Col: t.Pos}
	}
	x, err := ev.eval(n.Right, depth+1)
	if err != nil {
		return nil, err
	}
	op, ok := unarynames[t.Text]
	if !ok {
		return nil, &value.UnknownOperatorError{Op: t.Text}
	}
	r, err := value.Unary(op, x)
	if err != nil {
		return nil, err
	}
	ev.steps.Logf(StageEvaluate, "Apply %s to %s = %s", op, x, r)
	return r, nil
}

func (ev *Evaluator) assign(n *Node, depth int) (value.Value, error) {
	t := n.Tok
	if n.Left == nil || n.Right == nil {
		return nil, &MissingOperandError{Op: t.Text, Col: t.Pos}
	}
	if n.Left.Tok.Kind != TokenVariable {
		return nil, &ParseError{Col: n.Left.Tok.Pos, Op: n.Left.Tok.Text, Reason: "cannot assign to"}
	}
	v, err := ev.eval(n.Right, depth+1)
	if err != nil {
		return nil, err
	}
	name := n.Left.Tok.Text
	ev.names[name] = v
	ev.steps.Logf(StageEvaluate, "Assign %s = %s", name, v)
	return v, nil
}

func (ev *Evaluator) binary(n *Node, depth int) (value.Value, error) {
	t := n.Tok
	if n.Left == nil || n.Right == nil {
		return nil, &MissingOperandError{Op: t.Text, Col: t.Pos}
	}
	l, err := ev.eval(n.Left, depth+1)
	if err != nil {
		return nil, err
	}
	r, err := ev.eval(n.Right, depth+1)
	if err != nil {
		return nil, err
	}
	res, err := value.Apply(t.Text, l, r)
	if err != nil {
		return nil, err
	}
	ev.steps.Logf(StageEvaluate, "Apply %s: %s %s %s = %s", t.Text, l, t.Text, r, res)
	ev.methodDetail(t.Method, l, r)
	return res, nil
}

// maxListedRoots is the most roots of a complex number that nth_root lists.
const maxListedRoots = 16

// methodDetail logs the parts of a method's answer that its result value
// leaves out.
func (ev *Evaluator) methodDetail(method string, l, r value.Value) {
	switch method {
	case "long_division":
		p, ok := l.(value.Polynomial)
		d, ok2 := r.(value.Polynomial)
		if !ok || !ok2 {
			return
		}
		q, rem, err := p.LongDivide(d)
		if err != nil {
			return
		}
		ev.steps.Logf(StageEvaluate, "Long division: %s = %s * %s + %s", p, d, q, rem)
	case "nth_root":
		z, ok := l.(value.Complex)
		n, ok2 := r.(value.Scalar)
		if !ok || !ok2 || n < 1 || n > maxListedRoots || n != value.Scalar(math.Trunc(float64(n))) {
			return
		}
		roots, err := z.NthRoots(int(n))
		if err != nil {
			return
		}
		s := make([]string, len(roots))
		for i, root := range roots {
			s[i] = root.String()
		}
		ev.steps.Logf(StageEvaluate, "All %d roots of %s: %s", len(roots), z, strings.Join(s, ", "))
	}
}

// EvalString is a shortcut to evaluate an expression with a new evaluator.
func EvalString(src string, opts ...Option) (value.Value, error) {
	v, _, err := New(opts...).Evaluate(src)
	return v, err
}
