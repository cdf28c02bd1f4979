package hcldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRecipe = `
result "water" {
  expr = concept("entity", "water")
}

result "dry" {
  expr = not(result("water"))
}

result "water_count" {
  expr = reduce(result("water"), "time", "count")
}
`

const sampleMapping = `
concept "entity" "water" {
  property "color" {
    expr = eq(layer("appearance", "colortype"), 21)
  }
}

concept "entity" "lake" {
  property "color" {
    expr = eq(layer("appearance", "colortype"), 21)
  }
  property "depth" {
    expr = gt(layer("topography", "elevation"), 15)
  }
}
`

func TestParseRecipe(t *testing.T) {
	rec, err := ParseRecipe([]byte(sampleRecipe), "recipe.hcl")
	require.NoError(t, err)

	assert.Equal(t, []string{"water", "dry", "water_count"}, rec.Names())

	water, ok := rec.Get("water")
	require.True(t, ok)
	assert.Equal(t, "concept(entity/water)", water.String())

	dry, ok := rec.Get("dry")
	require.True(t, ok)
	assert.Equal(t, "eval(not, result(water))", dry.String())

	count, ok := rec.Get("water_count")
	require.True(t, ok)
	assert.Equal(t, "reduce(time, count, result(water))", count.String())
}

func TestParseRecipeRejectsDuplicateResult(t *testing.T) {
	src := `
result "a" {
  expr = layer("x")
}
result "a" {
  expr = layer("y")
}
`
	_, err := ParseRecipe([]byte(src), "recipe.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate result "a"`)
}

func TestParseRecipeRejectsEmptyDocument(t *testing.T) {
	_, err := ParseRecipe([]byte(""), "recipe.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no results")
}

func TestParseRecipeLiftsBareLiterals(t *testing.T) {
	// A bare literal parses as a document; the processor rejects it later
	// when it is not used as an operand or argument.
	src := `
result "a" {
  expr = "water"
}
`
	rec, err := ParseRecipe([]byte(src), "recipe.hcl")
	require.NoError(t, err)
	a, ok := rec.Get("a")
	require.True(t, ok)
	assert.Equal(t, `lit("water")`, a.String())
}

func TestParseMapping(t *testing.T) {
	m, err := ParseMapping([]byte(sampleMapping), "mapping.hcl")
	require.NoError(t, err)

	water, err := m.Lookup("entity", "water")
	require.NoError(t, err)
	require.Len(t, water, 1)
	assert.Equal(t, "color", water[0].Name)
	assert.Equal(t, "eval(equal, layer(appearance/colortype), lit(21))", water[0].Rule.String())

	lake, err := m.Lookup("entity", "lake")
	require.NoError(t, err)
	require.Len(t, lake, 2)
	depth, ok := lake.Find("depth")
	require.True(t, ok)
	assert.Equal(t, "eval(greater, layer(topography/elevation), lit(15))", depth.Rule.String())
}

func TestParseMappingRejectsEmptyConcept(t *testing.T) {
	src := `
concept "entity" "void" {
}
`
	_, err := ParseMapping([]byte(src), "mapping.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defines no properties")
}

func TestParseMappingRejectsDuplicateProperty(t *testing.T) {
	src := `
concept "entity" "water" {
  property "color" {
    expr = eq(layer("a"), 1)
  }
  property "color" {
    expr = eq(layer("b"), 2)
  }
}
`
	_, err := ParseMapping([]byte(src), "mapping.hcl")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `property "color" twice`)
}

func TestExpressionFunctions(t *testing.T) {
	src := `
result "combo" {
  expr = merge("any",
    filter(layer("a"), property(concept("entity", "water"), "color")),
    apply("scale", layer("b"), 2),
  )
}
`
	rec, err := ParseRecipe([]byte(src), "recipe.hcl")
	require.NoError(t, err)
	combo, ok := rec.Get("combo")
	require.True(t, ok)
	assert.Equal(t,
		"merge(any, [filter(layer(a), concept(entity/water#color)), apply(scale, layer(b), 2)])",
		combo.String())
}
