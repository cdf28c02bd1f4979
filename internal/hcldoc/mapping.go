package hcldoc

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/semcube/internal/mapping"
)

var mappingSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "concept", LabelNames: []string{"category", "name"}},
	},
}

var conceptSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "property", LabelNames: []string{"name"}},
	},
}

var propertySchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "expr", Required: true},
	},
}

// LoadMapping reads a mapping document from disk.
//
// A mapping document defines concepts by their properties:
//
//	concept "entity" "water" {
//	  property "color" {
//	    expr = eq(layer("appearance", "colortype"), 21)
//	  }
//	}
func LoadMapping(path string) (*mapping.RuleMapping, error) {
	body, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return decodeMapping(body)
}

// ParseMapping reads a mapping document from a byte source.
func ParseMapping(src []byte, filename string) (*mapping.RuleMapping, error) {
	body, err := parseBytes(src, filename)
	if err != nil {
		return nil, err
	}
	return decodeMapping(body)
}

func decodeMapping(body hcl.Body) (*mapping.RuleMapping, error) {
	content, diags := body.Content(mappingSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	m := mapping.NewRuleMapping()
	seen := make(map[string]bool)
	for _, block := range content.Blocks {
		reference := block.Labels
		key := strings.Join(reference, "/")
		if seen[key] {
			return nil, fmt.Errorf("%s: duplicate concept %q", block.DefRange.String(), key)
		}
		seen[key] = true

		rules, err := decodeConcept(block.Body, key)
		if err != nil {
			return nil, err
		}
		m.Define(reference, rules)
	}
	return m, nil
}

func decodeConcept(body hcl.Body, key string) (mapping.Ruleset, error) {
	content, diags := body.Content(conceptSchema)
	if diags.HasErrors() {
		return nil, diags
	}
	if len(content.Blocks) == 0 {
		return nil, fmt.Errorf("concept %q defines no properties", key)
	}

	var rules mapping.Ruleset
	for _, block := range content.Blocks {
		name := block.Labels[0]
		if _, ok := rules.Find(name); ok {
			return nil, fmt.Errorf("%s: concept %q defines property %q twice",
				block.DefRange.String(), key, name)
		}
		inner, diags := block.Body.Content(propertySchema)
		if diags.HasErrors() {
			return nil, diags
		}
		node, err := evalExpr(inner.Attributes["expr"])
		if err != nil {
			return nil, fmt.Errorf("concept %q, property %q: %w", key, name, err)
		}
		rules = append(rules, mapping.Property{Name: name, Rule: node})
	}
	return rules, nil
}
