package processor

// Optimize rewrites the plan so that structurally identical
// subexpressions, within and across results, point at a single shared
// node. Node keys are canonical renderings of the subtree, so two nodes
// with equal keys compute the same value on the same inputs. Skipping
// this phase changes nothing about the produced arrays.
func (qp *QueryProcessor) Optimize() *QueryProcessor {
	if qp.optimized {
		return qp
	}
	interned := make(map[string]*planNode)
	var rewrite func(n *planNode) *planNode
	rewrite = func(n *planNode) *planNode {
		if shared, ok := interned[n.key]; ok {
			return shared
		}
		for i, child := range n.children {
			n.children[i] = rewrite(child)
		}
		interned[n.key] = n
		return n
	}
	for i := range qp.results {
		qp.results[i].root = rewrite(qp.results[i].root)
	}
	qp.optimized = true
	return qp
}
