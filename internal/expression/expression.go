// Package expression defines the immutable expression trees a query recipe
// is made of. Trees are built by callers (directly or through an HCL
// document), handed to the processor read-only, and rendered into a stable
// canonical form that the optimizer uses to recognize shared subtrees.
package expression

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// Node is one operation in an expression tree.
type Node interface {
	// String returns the canonical rendering of the subtree. Two subtrees
	// with equal renderings compute the same value.
	String() string
	isNode()
}

// ConceptRef references a semantic concept resolved through the mapping.
// With Property set, only that property of the concept is translated.
type ConceptRef struct {
	Reference []string
	Property  string
}

// LayerRef references a physical datacube layer directly.
type LayerRef struct {
	Reference []string
}

// ResultRef references another named result of the same recipe.
type ResultRef struct {
	Name string
}

// Literal is a constant scalar operand.
type Literal struct {
	Value cty.Value
}

// Reduce collapses one dimension of its input with a named reducer.
type Reduce struct {
	Input     Node
	Dimension string
	Reducer   string
}

// Filter keeps the input where the filterer is true and blanks the rest.
type Filter struct {
	Input    Node
	Filterer Node
}

// Evaluate applies an elementwise operator. Right is nil for unary
// operators.
type Evaluate struct {
	Operator string
	Left     Node
	Right    Node
}

// Merge stacks its members and collapses the stack with a named reducer.
type Merge struct {
	Reducer string
	Members []Node
}

// Apply invokes a registered custom function on its input.
type Apply struct {
	Function string
	Input    Node
	Args     []cty.Value
}

func (*ConceptRef) isNode() {}
func (*LayerRef) isNode()   {}
func (*ResultRef) isNode()  {}
func (*Literal) isNode()    {}
func (*Reduce) isNode()     {}
func (*Filter) isNode()     {}
func (*Evaluate) isNode()   {}
func (*Merge) isNode()      {}
func (*Apply) isNode()      {}

// Concept builds a reference to a semantic concept by its mapping path.
func Concept(reference ...string) *ConceptRef {
	return &ConceptRef{Reference: reference}
}

// Entity is shorthand for a concept under the "entity" category.
func Entity(name string) *ConceptRef {
	return Concept("entity", name)
}

// WithProperty narrows a concept reference to a single property.
func (c *ConceptRef) WithProperty(property string) *ConceptRef {
	return &ConceptRef{Reference: c.Reference, Property: property}
}

// Layer builds a direct reference to a datacube layer.
func Layer(reference ...string) *LayerRef {
	return &LayerRef{Reference: reference}
}

// Result references the value of another named recipe result.
func Result(name string) *ResultRef {
	return &ResultRef{Name: name}
}

// Lit wraps a constant value.
func Lit(v cty.Value) *Literal {
	return &Literal{Value: v}
}

// NumberLit wraps a numeric constant.
func NumberLit(v float64) *Literal {
	return Lit(cty.NumberFloatVal(v))
}

// NewReduce builds a reduction over the named dimension.
func NewReduce(input Node, dimension, reducerName string) *Reduce {
	return &Reduce{Input: input, Dimension: dimension, Reducer: reducerName}
}

// NewFilter builds a filter of input by a boolean filterer expression.
func NewFilter(input, filterer Node) *Filter {
	return &Filter{Input: input, Filterer: filterer}
}

// NewEvaluate builds a binary elementwise operation.
func NewEvaluate(op string, left, right Node) *Evaluate {
	return &Evaluate{Operator: op, Left: left, Right: right}
}

// NewEvaluateUnary builds a unary elementwise operation.
func NewEvaluateUnary(op string, operand Node) *Evaluate {
	return &Evaluate{Operator: op, Left: operand}
}

// NewMerge builds a merge of members through a reducer.
func NewMerge(reducerName string, members ...Node) *Merge {
	return &Merge{Reducer: reducerName, Members: members}
}

// NewApply builds a custom function application.
func NewApply(function string, input Node, args ...cty.Value) *Apply {
	return &Apply{Function: function, Input: input, Args: args}
}

func (c *ConceptRef) String() string {
	s := "concept(" + strings.Join(c.Reference, "/")
	if c.Property != "" {
		s += "#" + c.Property
	}
	return s + ")"
}

func (l *LayerRef) String() string {
	return "layer(" + strings.Join(l.Reference, "/") + ")"
}

func (r *ResultRef) String() string {
	return "result(" + r.Name + ")"
}

func (l *Literal) String() string {
	return "lit(" + FormatValue(l.Value) + ")"
}

func (r *Reduce) String() string {
	return fmt.Sprintf("reduce(%s, %s, %s)", r.Dimension, r.Reducer, r.Input)
}

func (f *Filter) String() string {
	return fmt.Sprintf("filter(%s, %s)", f.Input, f.Filterer)
}

func (e *Evaluate) String() string {
	if e.Right == nil {
		return fmt.Sprintf("eval(%s, %s)", e.Operator, e.Left)
	}
	return fmt.Sprintf("eval(%s, %s, %s)", e.Operator, e.Left, e.Right)
}

func (m *Merge) String() string {
	parts := make([]string, len(m.Members))
	for i, member := range m.Members {
		parts[i] = member.String()
	}
	return fmt.Sprintf("merge(%s, [%s])", m.Reducer, strings.Join(parts, ", "))
}

func (a *Apply) String() string {
	parts := make([]string, 0, len(a.Args)+1)
	parts = append(parts, a.Input.String())
	for _, arg := range a.Args {
		parts = append(parts, FormatValue(arg))
	}
	return fmt.Sprintf("apply(%s, %s)", a.Function, strings.Join(parts, ", "))
}

// FormatValue renders a cty literal deterministically.
func FormatValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	switch v.Type() {
	case cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case cty.String:
		return fmt.Sprintf("%q", v.AsString())
	case cty.Bool:
		if v.True() {
			return "true"
		}
		return "false"
	default:
		return v.GoString()
	}
}
