package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"chefskiss/tools/storage"
)

type RecipeMacros struct {
	recipes storage.RecipeState
	macros  storage.MacroState
}

func NewRecipeMacros(recipes storage.RecipeState, macros storage.MacroState) *RecipeMacros {
	return &RecipeMacros{recipes: recipes, macros: macros}
}

func (t *RecipeMacros) Name() string  { return "recipe_macros" }
func (t *RecipeMacros) Title() string { return "Calculate Recipe Macros" }
func (t *RecipeMacros) Description() string {
	return "Calculates total protein, carbs, fat and calories for a recipe from per-100g ingredient data."
}

func (t *RecipeMacros) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipe": {
				Type: "string",
			},
		},
		Required: []string{"recipe"},
	}
}

func (t *RecipeMacros) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"found": {Type: "boolean"},
			"macros": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"protein":  {Type: "number"},
					"carbs":    {Type: "number"},
					"fat":      {Type: "number"},
					"calories": {Type: "number"},
				},
				Required: []string{"protein", "carbs", "fat", "calories"},
			},
		},
		Required: []string{"found"},
	}
}

func (t *RecipeMacros) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, _ := input["recipe"].(string)
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("recipe name is required")
	}

	recipes, err := t.loadRecipes(ctx)
	if err != nil {
		return nil, err
	}

	var target *Recipe
	for i := range recipes {
		if strings.EqualFold(recipes[i].Name, name) {
			target = &recipes[i]
			break
		}
	}
	if target == nil {
		slog.Warn("TOOL: Recipe not found in database", "recipe", name)
		return map[string]any{"found": false}, nil
	}

	perIngredient, err := t.loadMacros(ctx)
	if err != nil {
		return nil, err
	}

	var total Macros
	for _, portion := range target.Ingredients {
		if portion.Name == "" || portion.WeightGrams == 0 {
			slog.Warn("TOOL: Skipping ingredient with missing data", "recipe", target.Name)
			continue
		}
		per100g, ok := perIngredient[strings.ToLower(portion.Name)]
		if !ok {
			slog.Warn("TOOL: No macro data for ingredient", "ingredient", portion.Name, "recipe", target.Name)
			continue
		}
		scale := portion.WeightGrams / 100.0
		total.Protein += per100g.Protein * scale
		total.Carbs += per100g.Carbs * scale
		total.Fat += per100g.Fat * scale
		total.Calories += per100g.Calories * scale
	}

	return map[string]any{
		"found": true,
		"macros": map[string]any{
			"protein":  round1(total.Protein),
			"carbs":    round1(total.Carbs),
			"fat":      round1(total.Fat),
			"calories": round1(total.Calories),
		},
	}, nil
}

func (t *RecipeMacros) loadRecipes(ctx context.Context) ([]Recipe, error) {
	b, err := t.recipes.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var recipes []Recipe
	if err := json.Unmarshal(b, &recipes); err != nil {
		return nil, fmt.Errorf("parse recipes: %w", err)
	}
	return recipes, nil
}

// loadMacros reads the ingredient database, keyed by lowercase ingredient name.
func (t *RecipeMacros) loadMacros(ctx context.Context) (map[string]Macros, error) {
	b, err := t.macros.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read macros: %w", err)
	}
	var m map[string]Macros
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse macros: %w", err)
	}
	lower := make(map[string]Macros, len(m))
	for k, v := range m {
		lower[strings.ToLower(k)] = v
	}
	return lower, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
