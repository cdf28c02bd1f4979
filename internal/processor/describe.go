package processor

import (
	"fmt"
	"strings"

	"github.com/vk/semcube/internal/expression"
)

// Describe renders the plan as indented text, one block per result in
// recipe order. After Optimize, a subtree shared with an earlier
// occurrence is printed once and referenced with "shared" afterwards.
func (qp *QueryProcessor) Describe() string {
	var b strings.Builder
	printed := make(map[*planNode]bool)
	for _, r := range qp.results {
		fmt.Fprintf(&b, "result %s\n", r.name)
		describeNode(&b, r.root, 1, printed)
	}
	return b.String()
}

func describeNode(b *strings.Builder, n *planNode, depth int, printed map[*planNode]bool) {
	indent := strings.Repeat("  ", depth)
	if printed[n] {
		fmt.Fprintf(b, "%s%s (shared)\n", indent, n.label())
		return
	}
	printed[n] = true
	fmt.Fprintf(b, "%s%s\n", indent, n.label())
	for _, child := range n.children {
		describeNode(b, child, depth+1, printed)
	}
}

// label is the one-line summary of a node, without its children.
func (n *planNode) label() string {
	switch n.kind {
	case opFetch:
		return "fetch " + strings.Join(n.layerRef, "/")
	case opReduce:
		return fmt.Sprintf("reduce %s over %s", n.reducer, n.dimension)
	case opFilter:
		return "filter"
	case opEvaluate:
		if n.unary {
			return "evaluate " + n.operator
		}
		if n.scalar != nil {
			return fmt.Sprintf("evaluate %s %v", n.operator, *n.scalar)
		}
		return "evaluate " + n.operator
	case opMerge:
		return "merge " + n.reducer
	case opApply:
		if len(n.args) == 0 {
			return "apply " + n.function
		}
		parts := make([]string, len(n.args))
		for i, arg := range n.args {
			parts[i] = expression.FormatValue(arg)
		}
		return fmt.Sprintf("apply %s(%s)", n.function, strings.Join(parts, ", "))
	case opRename:
		return "name " + n.name
	}
	return "unknown"
}
