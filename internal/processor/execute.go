package processor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vk/semcube/internal/array"
	"github.com/vk/semcube/internal/ctxlog"
	"github.com/vk/semcube/internal/dag"
	"github.com/vk/semcube/internal/operator"
	"github.com/vk/semcube/internal/reducer"
	"github.com/vk/semcube/internal/valuetype"
)

// Execute evaluates the plan and returns one array per result, keyed by
// result name. Plan nodes run bottom-up on a worker pool; each distinct
// node is evaluated exactly once and its value reused by every parent.
// The first failing node cancels all remaining work and no partial
// result map is returned.
func (qp *QueryProcessor) Execute(ctx context.Context) (map[string]*array.Array, error) {
	if qp.executed {
		return nil, errors.New("processor has already executed its plan")
	}
	qp.executed = true
	logger := ctxlog.FromContext(ctx)

	seen := make(map[*planNode]bool)
	var order []*planNode
	for _, r := range qp.results {
		walk(r.root, seen, func(n *planNode) { order = append(order, n) })
	}
	if len(order) == 0 {
		return map[string]*array.Array{}, nil
	}

	ids := make(map[*planNode]string, len(order))
	nodes := make(map[string]*planNode, len(order))
	graph := dag.New()
	for i, n := range order {
		id := fmt.Sprintf("%04d:%s", i, kindName(n.kind))
		ids[n] = id
		nodes[id] = n
		graph.AddNode(id)
	}
	for _, n := range order {
		for _, child := range n.children {
			if err := graph.AddEdge(ids[child], ids[n]); err != nil {
				return nil, err
			}
		}
	}
	if err := graph.DetectCycles(); err != nil {
		return nil, err
	}
	graph.InitCounters()

	logger.Debug("Executing plan.",
		"processor", qp.id, "nodes", graph.Len(), "workers", qp.config.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan string, len(order))
	for _, id := range graph.Roots() {
		ready <- id
	}

	var remaining atomic.Int64
	remaining.Store(int64(len(order)))

	var (
		errMu     sync.Mutex
		firstErr  error
		firstNode *planNode
	)
	fail := func(n *planNode, err error) {
		errMu.Lock()
		if firstErr == nil {
			firstErr = err
			firstNode = n
		}
		errMu.Unlock()
		cancel()
	}

	workers := qp.config.Workers
	if workers > len(order) {
		workers = len(order)
	}
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-runCtx.Done():
					return
				case id := <-ready:
					n := nodes[id]
					value, err := qp.eval(runCtx, n)
					if err != nil {
						fail(n, err)
						return
					}
					n.value = value
					if remaining.Add(-1) == 0 {
						cancel()
						return
					}
					dependents, err := graph.Dependents(id)
					if err != nil {
						fail(n, err)
						return
					}
					for _, dep := range dependents {
						left, err := graph.Decrement(dep)
						if err != nil {
							fail(n, err)
							return
						}
						if left == 0 {
							ready <- dep
						}
					}
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, qp.wrapNodeError(firstNode, firstErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(map[string]*array.Array, len(qp.results))
	for _, r := range qp.results {
		out[r.name] = r.root.value.Clone().Rename(r.name)
	}
	logger.Debug("Plan executed.", "processor", qp.id, "results", len(out))
	return out, nil
}

// wrapNodeError attributes a node failure to the first result whose plan
// contains the node.
func (qp *QueryProcessor) wrapNodeError(n *planNode, err error) error {
	for _, r := range qp.results {
		if contains(r.root, n) {
			return &ResultError{Result: r.name, Path: n.key, Err: err}
		}
	}
	return err
}

func (qp *QueryProcessor) eval(ctx context.Context, n *planNode) (*array.Array, error) {
	tt := qp.config.TrackTypes
	switch n.kind {
	case opFetch:
		ctxlog.FromContext(ctx).Debug("Fetching layer.",
			"processor", qp.id, "layer", n.key)
		return qp.cache.retrieve(ctx, qp.datacube, n.layerRef, qp.extent)
	case opReduce:
		return reducer.Reduce(n.children[0].value, n.dimension, n.reducer, tt)
	case opFilter:
		return applyFilter(n.children[0].value, n.children[1].value, tt)
	case opEvaluate:
		left := n.children[0].value
		if n.unary {
			return operator.ApplyUnary(left, n.operator, tt)
		}
		if n.scalar != nil {
			return operator.ApplyScalar(left, *n.scalar, n.operator, tt)
		}
		return operator.Apply(left, n.children[1].value, n.operator, tt)
	case opMerge:
		members := make([]*array.Array, len(n.children))
		for i, child := range n.children {
			members[i] = child.value
		}
		stacked, err := array.Stack(members[0].Name(), "member", members)
		if err != nil {
			return nil, err
		}
		return reducer.Reduce(stacked, "member", n.reducer, tt)
	case opApply:
		fn, err := lookupFunction(n.function)
		if err != nil {
			return nil, err
		}
		return fn(n.children[0].value, n.args)
	case opRename:
		return n.children[0].value.Clone().Rename(n.name), nil
	}
	return nil, fmt.Errorf("unknown plan operation %d", int(n.kind))
}

// applyFilter keeps the cells of x where the filterer is true and blanks
// the rest. Both arrays must share the exact same shape; a no-data cell
// in the filterer blanks the output cell as well.
func applyFilter(x, filterer *array.Array, trackTypes bool) (*array.Array, error) {
	if trackTypes && filterer.ValueType() != valuetype.Boolean {
		return nil, &valuetype.UnsupportedTypeError{
			Operation: "filter",
			Input:     filterer.ValueType(),
		}
	}
	out, err := x.Zip(filterer, func(v, keep float64) float64 {
		if keep == 1 {
			return v
		}
		return array.NoData()
	})
	if err != nil {
		return nil, err
	}
	if trackTypes {
		t, err := valuetype.Promote("filter", valuetype.FilterOperations, x.ValueType())
		if err != nil {
			return nil, err
		}
		out.SetValueType(t)
	}
	return out, nil
}

func kindName(k opKind) string {
	switch k {
	case opFetch:
		return "fetch"
	case opReduce:
		return "reduce"
	case opFilter:
		return "filter"
	case opEvaluate:
		return "eval"
	case opMerge:
		return "merge"
	case opApply:
		return "apply"
	case opRename:
		return "name"
	}
	return "unknown"
}
