package processor

import (
	"fmt"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/expression"
)

// opKind identifies the operation a plan node performs.
type opKind int

const (
	opFetch opKind = iota
	opReduce
	opFilter
	opEvaluate
	opMerge
	opApply
	opRename
)

// planNode is one operation of the evaluation plan. Parse produces one
// tree per result; Optimize rewrites the trees into a shared DAG. Nodes
// are owned by a single processor instance and evaluated at most once.
type planNode struct {
	key      string
	kind     opKind
	children []*planNode

	// fetch
	layerRef []string
	// reduce / merge
	dimension string
	reducer   string
	// evaluate
	operator string
	scalar   *float64
	unary    bool
	// apply
	function string
	args     []cty.Value
	// rename
	name string

	// set during execution
	value *array.Array
}

type resultPlan struct {
	name string
	root *planNode
}

func newFetch(reference []string) *planNode {
	return &planNode{
		kind:     opFetch,
		layerRef: reference,
		key:      "fetch(" + strings.Join(reference, "/") + ")",
	}
}

func newReduce(input *planNode, dimension, reducerName string) *planNode {
	return &planNode{
		kind:      opReduce,
		children:  []*planNode{input},
		dimension: dimension,
		reducer:   reducerName,
		key:       fmt.Sprintf("reduce(%s, %s, %s)", dimension, reducerName, input.key),
	}
}

func newFilter(input, filterer *planNode) *planNode {
	return &planNode{
		kind:     opFilter,
		children: []*planNode{input, filterer},
		key:      fmt.Sprintf("filter(%s, %s)", input.key, filterer.key),
	}
}

func newEvaluate(operator string, left *planNode, right *planNode) *planNode {
	return &planNode{
		kind:     opEvaluate,
		operator: operator,
		children: []*planNode{left, right},
		key:      fmt.Sprintf("eval(%s, %s, %s)", operator, left.key, right.key),
	}
}

func newEvaluateScalar(operator string, left *planNode, scalar float64) *planNode {
	return &planNode{
		kind:     opEvaluate,
		operator: operator,
		children: []*planNode{left},
		scalar:   &scalar,
		key:      fmt.Sprintf("eval(%s, %s, %s)", operator, left.key, expression.FormatValue(cty.NumberFloatVal(scalar))),
	}
}

func newEvaluateUnary(operator string, operand *planNode) *planNode {
	return &planNode{
		kind:     opEvaluate,
		operator: operator,
		unary:    true,
		children: []*planNode{operand},
		key:      fmt.Sprintf("eval(%s, %s)", operator, operand.key),
	}
}

func newMerge(reducerName string, members []*planNode) *planNode {
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.key
	}
	return &planNode{
		kind:     opMerge,
		children: members,
		reducer:  reducerName,
		key:      fmt.Sprintf("merge(%s, [%s])", reducerName, strings.Join(keys, ", ")),
	}
}

func newApply(function string, input *planNode, args []cty.Value) *planNode {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, input.key)
	for _, arg := range args {
		parts = append(parts, expression.FormatValue(arg))
	}
	return &planNode{
		kind:     opApply,
		children: []*planNode{input},
		function: function,
		args:     args,
		key:      fmt.Sprintf("apply(%s, %s)", function, strings.Join(parts, ", ")),
	}
}

func newRename(name string, input *planNode) *planNode {
	return &planNode{
		kind:     opRename,
		children: []*planNode{input},
		name:     name,
		key:      fmt.Sprintf("name(%s, %s)", name, input.key),
	}
}

// walk visits every distinct node of a plan tree exactly once, children
// before parents.
func walk(root *planNode, seen map[*planNode]bool, visit func(*planNode)) {
	if seen[root] {
		return
	}
	seen[root] = true
	for _, child := range root.children {
		walk(child, seen, visit)
	}
	visit(root)
}

// contains reports whether the subtree under root includes the node.
func contains(root, target *planNode) bool {
	found := false
	walk(root, map[*planNode]bool{}, func(n *planNode) {
		if n == target {
			found = true
		}
	})
	return found
}
