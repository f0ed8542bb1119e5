// Package gen turns template expressions into a lazily materialized node tree
// and keeps the tree up to date as changes are dispatched to it.
package gen

import (
	"fmt"
	"strings"

	"src.weft.sh/pkg/eval"
)

// Expression is one element of a compiled template. Expressions are immutable.
//
// The set of implementations is closed: *SingleExpr, *LoopExpr,
// *ControlFlowExpr and *ViewExpr.
type Expression interface {
	fmt.Stringer
	expression()
}

// SingleExpr describes one renderable element with its children.
type SingleExpr struct {
	Tag        string
	Text       eval.Expr
	Attributes map[string]eval.Expr
	Children   []Expression
}

// LoopExpr repeats Body once for every item of Collection, binding the item
// to Binding.
type LoopExpr struct {
	Binding    string
	Collection eval.Expr
	Body       []Expression
}

// ControlFlowExpr selects the body of the first branch whose condition holds.
type ControlFlowExpr struct {
	If    IfExpr
	Elses []ElseExpr
}

// IfExpr is the leading branch of a ControlFlowExpr.
type IfExpr struct {
	Cond eval.Expr
	Body []Expression
}

// ElseExpr is an "else if" branch, or an unconditional "else" branch when Cond
// is nil.
type ElseExpr struct {
	Cond eval.Expr
	Body []Expression
}

// ViewExpr instantiates the view registered as Name. When State is not nil it
// names the part of the state the view sees.
type ViewExpr struct {
	Name  string
	State eval.Expr
}

func (*SingleExpr) expression()      {}
func (*LoopExpr) expression()        {}
func (*ControlFlowExpr) expression() {}
func (*ViewExpr) expression()        {}

func (e *SingleExpr) String() string {
	var sb strings.Builder
	sb.WriteString(e.Tag)
	if len(e.Attributes) > 0 {
		sb.WriteString(" [")
		for i, k := range sortedKeys(e.Attributes) {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k + ": " + e.Attributes[k].String())
		}
		sb.WriteString("]")
	}
	if e.Text != nil {
		sb.WriteString(" " + e.Text.String())
	}
	writeBody(&sb, e.Children)
	return sb.String()
}

func (e *LoopExpr) String() string {
	var sb strings.Builder
	sb.WriteString("for " + e.Binding + " in " + e.Collection.String())
	writeBody(&sb, e.Body)
	return sb.String()
}

func (e *ControlFlowExpr) String() string {
	var sb strings.Builder
	sb.WriteString("if " + e.If.Cond.String())
	writeBody(&sb, e.If.Body)
	for _, b := range e.Elses {
		if b.Cond == nil {
			sb.WriteString(" else")
		} else {
			sb.WriteString(" else if " + b.Cond.String())
		}
		writeBody(&sb, b.Body)
	}
	return sb.String()
}

func (e *ViewExpr) String() string {
	if e.State == nil {
		return "@" + e.Name
	}
	return "@" + e.Name + " " + e.State.String()
}

func writeBody(sb *strings.Builder, body []Expression) {
	if len(body) == 0 {
		return
	}
	sb.WriteString(" {")
	for i, e := range body {
		if i > 0 {
			sb.WriteString(";")
		}
		sb.WriteString(" " + e.String())
	}
	sb.WriteString(" }")
}

// Shorthands for building templates in Go.

// Elem returns a SingleExpr with the given tag, text and children.
func Elem(tag string, text eval.Expr, children ...Expression) *SingleExpr {
	return &SingleExpr{Tag: tag, Text: text, Children: children}
}

// WithAttr returns a copy of e with an additional attribute.
func (e *SingleExpr) WithAttr(key string, value eval.Expr) *SingleExpr {
	attrs := make(map[string]eval.Expr, len(e.Attributes)+1)
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	attrs[key] = value
	return &SingleExpr{e.Tag, e.Text, attrs, e.Children}
}

// For returns a LoopExpr.
func For(binding string, collection eval.Expr, body ...Expression) *LoopExpr {
	return &LoopExpr{binding, collection, body}
}

// If returns a ControlFlowExpr with only an if branch.
func If(cond eval.Expr, body ...Expression) *ControlFlowExpr {
	return &ControlFlowExpr{If: IfExpr{cond, body}}
}

// ElseIf returns a copy of e with an additional "else if" branch.
func (e *ControlFlowExpr) ElseIf(cond eval.Expr, body ...Expression) *ControlFlowExpr {
	elses := append(e.Elses[:len(e.Elses):len(e.Elses)], ElseExpr{cond, body})
	return &ControlFlowExpr{e.If, elses}
}

// Else returns a copy of e with an additional unconditional branch.
func (e *ControlFlowExpr) Else(body ...Expression) *ControlFlowExpr {
	return e.ElseIf(nil, body...)
}

// ViewOf returns a ViewExpr.
func ViewOf(name string, state eval.Expr) *ViewExpr { return &ViewExpr{name, state} }
