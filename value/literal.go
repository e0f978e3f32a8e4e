package value

import (
	"math"
	"strconv"

	"github.com/alecthomas/participle/v2"
)

// Constructors lists the names that introduce constructor literals, mapped to
// the kind each one builds.
var Constructors = map[string]Kind{
	"Polynomial":    KindPolynomial,
	"Matrix":        KindMatrix,
	"Vector":        KindVector,
	"ComplexNumber": KindComplex,
	"Complex":       KindComplex,
}

// Literal is the parsed form of a constructor literal such as
// Matrix([[1, 2], [3, 4]]).
type Literal struct {
	Name string    `@Ident "("`
	Args []*LitArg `( @@ ( "," @@ )* )? ")"`
}

// LitArg is one argument of a constructor literal: a bracketed list or a
// number.
type LitArg struct {
	List   *LitList `  @@`
	Number *LitNum  `| @@`
}

// LitList is a bracketed list of arguments.
type LitList struct {
	Open  string    `@"["`
	Items []*LitArg `( @@ ( "," @@ )* )? "]"`
}

// LitNum is an optionally signed number or named constant.
type LitNum struct {
	Sign  string   `@( "-" | "+" )?`
	Const string   `( @( "pi" | "e" )`
	Value *float64 `| @( Float | Int ) )`
}

var literalParser = participle.MustBuild[Literal]()

// ParseLiteral parses the syntax of a constructor literal without building
// the value.
func ParseLiteral(src string) (*Literal, error) {
	lit, err := literalParser.ParseString("", src)
	if err != nil {
		return nil, &LiteralError{Literal: src, Msg: err.Error()}
	}
	if _, ok := Constructors[lit.Name]; !ok {
		return nil, &LiteralError{Literal: src, Msg: "unknown constructor " + strconv.Quote(lit.Name)}
	}
	return lit, nil
}

// Instantiate parses a constructor literal and builds the value it describes.
func Instantiate(src string) (Value, error) {
	lit, err := ParseLiteral(src)
	if err != nil {
		return nil, err
	}
	return lit.Build(src)
}

// Float returns the number n denotes.
func (n *LitNum) Float() float64 {
	var x float64
	switch n.Const {
	case "pi":
		x = math.Pi
	case "e":
		x = math.E
	default:
		if n.Value != nil {
			x = *n.Value
		}
	}
	if n.Sign == "-" {
		x = -x
	}
	return x
}

// Build constructs the value described by the literal. src is used for error
// messages.
func (lit *Literal) Build(src string) (Value, error) {
	bad := func(msg string) error {
		return &LiteralError{Literal: src, Msg: msg}
	}
	switch Constructors[lit.Name] {
	case KindComplex:
		if len(lit.Args) != 2 || lit.Args[0].Number == nil || lit.Args[1].Number == nil {
			return nil, bad(lit.Name + " takes two numbers")
		}
		return Complex{Re: lit.Args[0].Number.Float(), Im: lit.Args[1].Number.Float()}, nil
	case KindPolynomial:
		xs, err := flatArg(lit)
		if err != nil {
			return nil, bad(err.Error())
		}
		if len(xs) == 0 {
			return nil, bad("polynomial needs at least one coefficient")
		}
		return Polynomial{Coeffs: xs}, nil
	case KindVector:
		xs, err := flatArg(lit)
		if err != nil {
			return nil, bad(err.Error())
		}
		return Vector{Components: xs}, nil
	case KindMatrix:
		if len(lit.Args) != 1 || lit.Args[0].List == nil {
			return nil, bad("Matrix takes one list of rows")
		}
		rows := make([][]float64, 0, len(lit.Args[0].List.Items))
		for _, it := range lit.Args[0].List.Items {
			if it.List == nil {
				return nil, bad("matrix rows must be lists")
			}
			row, err := numbers(it.List.Items)
			if err != nil {
				return nil, bad(err.Error())
			}
			rows = append(rows, row)
		}
		return NewMatrix(rows)
	}
	return nil, bad("unknown constructor " + strconv.Quote(lit.Name))
}

// flatArg extracts the single list of numbers that Polynomial and Vector take.
func flatArg(lit *Literal) ([]float64, error) {
	if len(lit.Args) != 1 || lit.Args[0].List == nil {
		return nil, &DimensionError{Op: lit.Name, Msg: lit.Name + " takes one list of numbers"}
	}
	return numbers(lit.Args[0].List.Items)
}

func numbers(items []*LitArg) ([]float64, error) {
	xs := make([]float64, len(items))
	for i, it := range items {
		if it.Number == nil {
			return nil, &DimensionError{Msg: "element " + strconv.Itoa(i) + " is a list, want a number"}
		}
		xs[i] = it.Number.Float()
	}
	return xs, nil
}
