package hcldoc

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/semcube/internal/recipe"
)

var recipeSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "result", LabelNames: []string{"name"}},
	},
}

var resultSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "expr", Required: true},
	},
}

// LoadRecipe reads a recipe document from disk.
//
// A recipe document is a sequence of result blocks:
//
//	result "water" {
//	  expr = concept("entity", "water")
//	}
func LoadRecipe(path string) (*recipe.QueryRecipe, error) {
	body, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(body)
}

// ParseRecipe reads a recipe document from a byte source.
func ParseRecipe(src []byte, filename string) (*recipe.QueryRecipe, error) {
	body, err := parseBytes(src, filename)
	if err != nil {
		return nil, err
	}
	return decodeRecipe(body)
}

func decodeRecipe(body hcl.Body) (*recipe.QueryRecipe, error) {
	content, diags := body.Content(recipeSchema)
	if diags.HasErrors() {
		return nil, diags
	}

	rec := recipe.New()
	for _, block := range content.Blocks {
		name := block.Labels[0]
		if _, exists := rec.Get(name); exists {
			return nil, fmt.Errorf("%s: duplicate result %q", block.DefRange.String(), name)
		}
		inner, diags := block.Body.Content(resultSchema)
		if diags.HasErrors() {
			return nil, diags
		}
		node, err := evalExpr(inner.Attributes["expr"])
		if err != nil {
			return nil, fmt.Errorf("result %q: %w", name, err)
		}
		rec.Set(name, node)
	}
	if rec.Len() == 0 {
		return nil, fmt.Errorf("recipe document defines no results")
	}
	return rec, nil
}
