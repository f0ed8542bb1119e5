package eval

import (
	"fmt"
	"strings"

	"src.weft.sh/pkg/vals"
)

// Expr is a value-expression, as found in text, attributes, conditions and
// loop collections of a template. Expressions are produced by the template
// compiler and never mutated afterwards.
//
// The set of implementations is closed: *Lit, *Ident, *Dot, *Index, *List,
// *Unary and *Binary.
type Expr interface {
	fmt.Stringer
	expr()
}

// Lit is a literal value: a string, int, float64 or bool.
type Lit struct{ Value any }

// Ident is a bare identifier, resolved through the scope and then the state.
type Ident struct{ Name string }

// Dot is a field access, LHS.Name.
type Dot struct {
	LHS  Expr
	Name string
}

// Index is an index access, LHS[Index].
type Index struct {
	LHS   Expr
	Index Expr
}

// List is a literal list. When used as text, its items are resolved and
// concatenated, which is how interpolated strings are represented.
type List struct{ Items []Expr }

// UnaryOp is an operator of a Unary expression.
type UnaryOp uint8

// Unary operators.
const (
	Not UnaryOp = iota
	Neg
)

// Unary is a unary operation.
type Unary struct {
	Op      UnaryOp
	Operand Expr
}

// BinaryOp is an operator of a Binary expression.
type BinaryOp uint8

// Binary operators.
const (
	And BinaryOp = iota
	Or
	Eq
	NotEq
	Less
	LessEq
	Greater
	GreaterEq
	Add
	Sub
	Mul
	Div
	Mod
)

var binaryOpNames = [...]string{
	"&&", "||", "==", "!=", "<", "<=", ">", ">=", "+", "-", "*", "/", "%"}

// Binary is a binary operation.
type Binary struct {
	Op       BinaryOp
	LHS, RHS Expr
}

func (*Lit) expr()    {}
func (*Ident) expr()  {}
func (*Dot) expr()    {}
func (*Index) expr()  {}
func (*List) expr()   {}
func (*Unary) expr()  {}
func (*Binary) expr() {}

func (e *Lit) String() string {
	if s, ok := e.Value.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return vals.ToString(e.Value)
}

func (e *Ident) String() string { return e.Name }
func (e *Dot) String() string   { return e.LHS.String() + "." + e.Name }
func (e *Index) String() string { return e.LHS.String() + "[" + e.Index.String() + "]" }

func (e *List) String() string {
	parts := make([]string, len(e.Items))
	for i, item := range e.Items {
		parts[i] = item.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (e *Unary) String() string {
	if e.Op == Not {
		return "!" + e.Operand.String()
	}
	return "-" + e.Operand.String()
}

func (e *Binary) String() string {
	return "(" + e.LHS.String() + " " + binaryOpNames[e.Op] + " " + e.RHS.String() + ")"
}

// Shorthands for building expressions by hand, mostly useful in tests and
// programs that construct templates in Go.

// L returns a literal expression.
func L(v any) *Lit { return &Lit{v} }

// I returns an identifier expression.
func I(name string) *Ident { return &Ident{name} }

// D returns a dot expression.
func D(lhs Expr, name string) *Dot { return &Dot{lhs, name} }

// Idx returns an index expression.
func Idx(lhs, index Expr) *Index { return &Index{lhs, index} }

// Ls returns a list expression.
func Ls(items ...Expr) *List { return &List{items} }

// Op returns a binary expression.
func Op(lhs Expr, op BinaryOp, rhs Expr) *Binary { return &Binary{op, lhs, rhs} }

// Text returns a list expression that concatenates literal strings and other
// expressions; plain strings among parts become literals.
func Text(parts ...any) *List {
	items := make([]Expr, len(parts))
	for i, part := range parts {
		if e, ok := part.(Expr); ok {
			items[i] = e
		} else {
			items[i] = L(part)
		}
	}
	return &List{items}
}
