package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"

	"chefskiss/tools/storage"
)

// defaultMaxMissing is how many recipe ingredients may be absent from the
// user's list before the recipe stops counting as a match.
const defaultMaxMissing = 2

type RecipeFind struct{ state storage.RecipeState }

func NewRecipeFind(state storage.RecipeState) *RecipeFind { return &RecipeFind{state: state} }

func (t *RecipeFind) Name() string  { return "recipe_find" }
func (t *RecipeFind) Title() string { return "Find Recipes" }
func (t *RecipeFind) Description() string {
	return "Returns recipe names matching the available ingredients, allowing up to max_missing missing ingredients."
}

func (t *RecipeFind) InputSchema() *jsonschema.Schema {
	minMissing := 0.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ingredients": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"max_missing": {
				Type:    "integer",
				Minimum: &minMissing,
			},
		},
		Required: []string{"ingredients"},
	}
}

func (t *RecipeFind) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"recipes": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
		},
		Required: []string{"recipes"},
	}
}

func (t *RecipeFind) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	recipes, err := t.load(ctx)
	if err != nil {
		return nil, err
	}

	maxMissing := defaultMaxMissing
	if v, ok := input["max_missing"].(float64); ok {
		maxMissing = int(v)
	}

	available := map[string]bool{}
	if raw, ok := input["ingredients"].([]any); ok {
		for _, v := range raw {
			if s, _ := v.(string); s != "" {
				available[strings.ToLower(s)] = true
			}
		}
	}

	matches := make([]string, 0)
	for _, rec := range recipes {
		// A recipe may list the same ingredient in several portions; it
		// counts once against max_missing.
		required := map[string]bool{}
		for _, ing := range rec.Ingredients {
			required[strings.ToLower(ing.Name)] = true
		}

		missing := 0
		for name := range required {
			if !available[name] {
				missing++
			}
		}
		if missing <= maxMissing {
			matches = append(matches, rec.Name)
		}
	}

	return map[string]any{"recipes": matches}, nil
}

func (t *RecipeFind) load(ctx context.Context) ([]Recipe, error) {
	b, err := t.state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read recipes: %w", err)
	}
	var recipes []Recipe
	if err := json.Unmarshal(b, &recipes); err != nil {
		return nil, fmt.Errorf("parse recipes: %w", err)
	}
	return recipes, nil
}
