// Package hcldoc loads recipes and mappings from HCL documents. Result
// and rule expressions are written with a small function vocabulary
// (concept, layer, reduce, eq, ...) that builds expression trees during
// HCL evaluation; the trees travel through evaluation as capsule values.
package hcldoc

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/semcube/internal/expression"
)

// nodeBox carries an expression tree through cty evaluation.
type nodeBox struct {
	node expression.Node
}

var nodeType = cty.Capsule("expression", reflect.TypeOf(nodeBox{}))

func wrapNode(n expression.Node) cty.Value {
	return cty.CapsuleVal(nodeType, &nodeBox{node: n})
}

// asNode returns the expression a value holds. Bare numbers, bools and
// strings lift to literals, so operator and apply arguments can be
// written without wrapping.
func asNode(v cty.Value) (expression.Node, error) {
	if v.Type() == nodeType {
		return v.EncapsulatedValue().(*nodeBox).node, nil
	}
	switch v.Type() {
	case cty.Number, cty.Bool, cty.String:
		return expression.Lit(v), nil
	}
	return nil, fmt.Errorf("expected an expression or literal, got %s", v.Type().FriendlyName())
}

func parseFile(path string) (hcl.Body, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, diags
	}
	return file.Body, nil
}

func parseBytes(src []byte, filename string) (hcl.Body, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diags
	}
	return file.Body, nil
}

// evalExpr evaluates an HCL attribute into an expression tree.
func evalExpr(attr *hcl.Attribute) (expression.Node, error) {
	val, diags := attr.Expr.Value(evalContext())
	if diags.HasErrors() {
		return nil, diags
	}
	node, err := asNode(val)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", attr.Range.String(), err)
	}
	return node, nil
}
