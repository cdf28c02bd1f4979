// Package mapping provides the backend contract for translating semantic
// concept references into expressions over datacube layers, plus a rule
// table implementation.
package mapping

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vk/semcube/internal/expression"
)

// ConceptNotFoundError reports a reference to a concept or property the
// mapping does not define.
type ConceptNotFoundError struct {
	Reference []string
	Property  string
}

func (e *ConceptNotFoundError) Error() string {
	if e.Property != "" {
		return fmt.Sprintf("property %q is not defined for concept %q",
			e.Property, strings.Join(e.Reference, "/"))
	}
	return fmt.Sprintf("mapping does not contain concept %q", strings.Join(e.Reference, "/"))
}

// Property is one named rule of a concept: an expression quantifying the
// relation between the concept and raw layer values.
type Property struct {
	Name string
	Rule expression.Node
}

// Ruleset is the ordered list of properties defining one concept.
type Ruleset []Property

// Find returns the named property of the ruleset.
func (rs Ruleset) Find(name string) (Property, bool) {
	for _, p := range rs {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}

// Mapping resolves concept references into rulesets.
type Mapping interface {
	// Lookup returns the ruleset of the referenced concept, or a
	// ConceptNotFoundError.
	Lookup(reference ...string) (Ruleset, error)
}

// RuleMapping is a concept table populated by the caller or loaded from a
// mapping document.
type RuleMapping struct {
	mu    sync.RWMutex
	rules map[string]Ruleset
}

// NewRuleMapping returns an empty mapping.
func NewRuleMapping() *RuleMapping {
	return &RuleMapping{rules: make(map[string]Ruleset)}
}

// Define registers the ruleset of a concept, replacing any previous
// definition.
func (m *RuleMapping) Define(reference []string, rules Ruleset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[strings.Join(reference, "/")] = rules
}

// Lookup implements Mapping.
func (m *RuleMapping) Lookup(reference ...string) (Ruleset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rules, ok := m.rules[strings.Join(reference, "/")]
	if !ok {
		return nil, &ConceptNotFoundError{Reference: reference}
	}
	return rules, nil
}
