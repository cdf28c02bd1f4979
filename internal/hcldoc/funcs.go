package hcldoc

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/vk/semcube/internal/expression"
)

// evalContext returns the evaluation context recipe and mapping
// expressions run in. Every function builds a node; nothing touches
// data.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{Functions: documentFunctions()}
}

func documentFunctions() map[string]function.Function {
	funcs := map[string]function.Function{
		"concept":  refFunc(func(ref []string) expression.Node { return expression.Concept(ref...) }),
		"entity":   refFunc(func(ref []string) expression.Node { return expression.Concept(append([]string{"entity"}, ref...)...) }),
		"layer":    refFunc(func(ref []string) expression.Node { return expression.Layer(ref...) }),
		"result":   resultFunc(),
		"property": propertyFunc(),
		"reduce":   reduceFunc(),
		"filter":   filterFunc(),
		"merge":    mergeFunc(),
		"apply":    applyFunc(),
		"not":      unaryFunc("not"),
	}
	binary := map[string]string{
		"eq":  "equal",
		"ne":  "not_equal",
		"gt":  "greater",
		"ge":  "greater_equal",
		"lt":  "less",
		"le":  "less_equal",
		"add": "add",
		"sub": "subtract",
		"mul": "multiply",
		"div": "divide",
		"and": "and",
		"or":  "or",
	}
	for name, op := range binary {
		funcs[name] = binaryFunc(op)
	}
	return funcs
}

// refFunc builds reference constructors taking one or more string path
// components.
func refFunc(build func(ref []string) expression.Node) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "component", Type: cty.String},
		},
		VarParam: &function.Parameter{Name: "components", Type: cty.String},
		Type:     function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			ref := make([]string, len(args))
			for i, arg := range args {
				ref[i] = arg.AsString()
			}
			return wrapNode(build(ref)), nil
		},
	})
}

func resultFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return wrapNode(expression.Result(args[0].AsString())), nil
		},
	})
}

// propertyFunc narrows a concept reference to one of its properties.
func propertyFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "concept", Type: nodeType},
			{Name: "name", Type: cty.String},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			node, err := asNode(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			ref, ok := node.(*expression.ConceptRef)
			if !ok {
				return cty.NilVal, fmt.Errorf("property() expects a concept reference")
			}
			return wrapNode(ref.WithProperty(args[1].AsString())), nil
		},
	})
}

func reduceFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "input", Type: nodeType},
			{Name: "dimension", Type: cty.String},
			{Name: "reducer", Type: cty.String},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			input, err := asNode(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			return wrapNode(expression.NewReduce(input, args[1].AsString(), args[2].AsString())), nil
		},
	})
}

func filterFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "input", Type: nodeType},
			{Name: "filterer", Type: nodeType},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			input, err := asNode(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			filterer, err := asNode(args[1])
			if err != nil {
				return cty.NilVal, err
			}
			return wrapNode(expression.NewFilter(input, filterer)), nil
		},
	})
}

func mergeFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "reducer", Type: cty.String},
			{Name: "member", Type: nodeType},
		},
		VarParam: &function.Parameter{Name: "members", Type: nodeType},
		Type:     function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			members := make([]expression.Node, 0, len(args)-1)
			for _, arg := range args[1:] {
				node, err := asNode(arg)
				if err != nil {
					return cty.NilVal, err
				}
				members = append(members, node)
			}
			return wrapNode(expression.NewMerge(args[0].AsString(), members...)), nil
		},
	})
}

func applyFunc() function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "function", Type: cty.String},
			{Name: "input", Type: nodeType},
		},
		VarParam: &function.Parameter{Name: "args", Type: cty.DynamicPseudoType},
		Type:     function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			input, err := asNode(args[1])
			if err != nil {
				return cty.NilVal, err
			}
			return wrapNode(expression.NewApply(args[0].AsString(), input, args[2:]...)), nil
		},
	})
}

// binaryFunc wires an infix operator as a two-argument function whose
// right side may be an expression or a bare literal.
func binaryFunc(op string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "left", Type: nodeType},
			{Name: "right", Type: cty.DynamicPseudoType},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			left, err := asNode(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			right, err := asNode(args[1])
			if err != nil {
				return cty.NilVal, err
			}
			return wrapNode(expression.NewEvaluate(op, left, right)), nil
		},
	})
}

func unaryFunc(op string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "operand", Type: nodeType},
		},
		Type: function.StaticReturnType(nodeType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			operand, err := asNode(args[0])
			if err != nil {
				return cty.NilVal, err
			}
			return wrapNode(expression.NewEvaluateUnary(op, operand)), nil
		},
	})
}
