package processor

import (
	"errors"
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/semcube/internal/expression"
	"github.com/vk/semcube/internal/mapping"
)

// pathError pins a failure to the innermost offending sub-expression.
// tagResult later lifts it into a ResultError carrying the result name.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return fmt.Sprintf("at %s: %v", e.path, e.err) }
func (e *pathError) Unwrap() error { return e.err }

func withPath(err error, node expression.Node) error {
	if err == nil {
		return nil
	}
	var pe *pathError
	if errors.As(err, &pe) {
		return err
	}
	return &pathError{path: node.String(), err: err}
}

func tagResult(name string, err error) error {
	var pe *pathError
	if errors.As(err, &pe) {
		return &ResultError{Result: name, Path: pe.path, Err: pe.err}
	}
	return &ResultError{Result: name, Err: err}
}

// parser resolves result expressions into plan nodes. byName memoizes
// fully resolved results so result references share a single subtree;
// parsing marks results currently being resolved to reject cycles.
type parser struct {
	qp      *QueryProcessor
	rec     recipeSource
	byName  map[string]*planNode
	parsing map[string]bool
}

type recipeSource interface {
	Get(name string) (expression.Node, bool)
}

func (p *parser) resolveResult(name string) (*planNode, error) {
	if n, ok := p.byName[name]; ok {
		return n, nil
	}
	if p.parsing[name] {
		return nil, fmt.Errorf("result %q references itself", name)
	}
	expr, ok := p.rec.Get(name)
	if !ok {
		return nil, fmt.Errorf("recipe has no result %q", name)
	}
	p.parsing[name] = true
	defer delete(p.parsing, name)

	node, err := p.resolve(expr)
	if err != nil {
		return nil, err
	}
	p.byName[name] = node
	return node, nil
}

func (p *parser) resolve(expr expression.Node) (*planNode, error) {
	switch e := expr.(type) {
	case *expression.ConceptRef:
		n, err := p.resolveConcept(e)
		return n, withPath(err, e)
	case *expression.LayerRef:
		if err := p.qp.datacube.Lookup(e.Reference); err != nil {
			return nil, withPath(err, e)
		}
		return newFetch(e.Reference), nil
	case *expression.ResultRef:
		n, err := p.resolveResult(e.Name)
		return n, withPath(err, e)
	case *expression.Reduce:
		child, err := p.resolve(e.Input)
		if err != nil {
			return nil, err
		}
		return newReduce(child, e.Dimension, e.Reducer), nil
	case *expression.Filter:
		child, err := p.resolve(e.Input)
		if err != nil {
			return nil, err
		}
		filterer, err := p.resolve(e.Filterer)
		if err != nil {
			return nil, err
		}
		return newFilter(child, filterer), nil
	case *expression.Evaluate:
		return p.resolveEvaluate(e)
	case *expression.Merge:
		members := make([]*planNode, len(e.Members))
		for i, m := range e.Members {
			child, err := p.resolve(m)
			if err != nil {
				return nil, err
			}
			members[i] = child
		}
		return newMerge(e.Reducer, members), nil
	case *expression.Apply:
		if _, err := lookupFunction(e.Function); err != nil {
			return nil, withPath(err, e)
		}
		child, err := p.resolve(e.Input)
		if err != nil {
			return nil, err
		}
		return newApply(e.Function, child, e.Args), nil
	case *expression.Literal:
		return nil, withPath(fmt.Errorf("literal %s is only valid as an operand or argument", e), e)
	default:
		return nil, withPath(fmt.Errorf("unsupported expression %T", expr), expr)
	}
}

// resolveConcept translates a semantic reference through the mapping.
// A single-property concept becomes its rule renamed after the concept;
// a multi-property concept requires every property to hold, expressed as
// an "all" merge over the property rules.
func (p *parser) resolveConcept(e *expression.ConceptRef) (*planNode, error) {
	rules, err := p.qp.mapping.Lookup(e.Reference...)
	if err != nil {
		var miss *mapping.ConceptNotFoundError
		if errors.As(err, &miss) {
			return nil, &UnresolvedReferenceError{Reference: e.Reference, Err: err}
		}
		return nil, err
	}
	if e.Property != "" {
		prop, ok := rules.Find(e.Property)
		if !ok {
			return nil, &UnresolvedReferenceError{
				Reference: e.Reference,
				Err: &mapping.ConceptNotFoundError{
					Reference: e.Reference,
					Property:  e.Property,
				},
			}
		}
		rules = mapping.Ruleset{prop}
	}

	name := e.Reference[len(e.Reference)-1]
	if len(rules) == 1 {
		child, err := p.resolve(rules[0].Rule)
		if err != nil {
			return nil, err
		}
		return newRename(name, child), nil
	}
	members := make([]*planNode, len(rules))
	for i, prop := range rules {
		child, err := p.resolve(prop.Rule)
		if err != nil {
			return nil, err
		}
		members[i] = child
	}
	return newRename(name, newMerge("all", members)), nil
}

func (p *parser) resolveEvaluate(e *expression.Evaluate) (*planNode, error) {
	left, err := p.resolve(e.Left)
	if err != nil {
		return nil, err
	}
	if e.Right == nil {
		return newEvaluateUnary(e.Operator, left), nil
	}
	if lit, ok := e.Right.(*expression.Literal); ok {
		scalar, err := literalScalar(lit.Value)
		if err != nil {
			return nil, withPath(err, lit)
		}
		return newEvaluateScalar(e.Operator, left, scalar), nil
	}
	right, err := p.resolve(e.Right)
	if err != nil {
		return nil, err
	}
	return newEvaluate(e.Operator, left, right), nil
}

// literalScalar lowers a cty literal to the cell representation used by
// arrays: numbers as themselves, booleans as 1 and 0.
func literalScalar(v cty.Value) (float64, error) {
	switch {
	case v.Type() == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f, nil
	case v.Type() == cty.Bool:
		if v.True() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("literal of type %s is not usable as an operand", v.Type().FriendlyName())
	}
}
