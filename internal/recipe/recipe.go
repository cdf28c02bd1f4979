// Package recipe holds the declarative form of a query: an ordered set
// of named result expressions. A recipe is pure data; resolving its
// references against backends is the processor's job.
package recipe

import (
	"fmt"

	"github.com/vk/semcube/internal/expression"
)

// QueryRecipe maps result names to expression trees, preserving the
// order in which results were added.
type QueryRecipe struct {
	names []string
	trees map[string]expression.Node
}

// New returns an empty recipe.
func New() *QueryRecipe {
	return &QueryRecipe{trees: make(map[string]expression.Node)}
}

// Set adds a result under the given name, or replaces an existing one
// keeping its original position.
func (r *QueryRecipe) Set(name string, expr expression.Node) {
	if _, ok := r.trees[name]; !ok {
		r.names = append(r.names, name)
	}
	r.trees[name] = expr
}

// Get returns the expression stored under the given name.
func (r *QueryRecipe) Get(name string) (expression.Node, bool) {
	expr, ok := r.trees[name]
	return expr, ok
}

// Names returns the result names in insertion order.
func (r *QueryRecipe) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of results.
func (r *QueryRecipe) Len() int { return len(r.names) }

// String renders the recipe as one line per result.
func (r *QueryRecipe) String() string {
	out := ""
	for _, name := range r.names {
		out += fmt.Sprintf("%s = %s\n", name, r.trees[name])
	}
	return out
}
