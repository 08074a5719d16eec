package tools

import (
	"fmt"

	"chefskiss/tools/storage"
)

// Registry maps tool names to implementations
type Registry map[string]Tool

// NewRegistry creates a new tool registry over the given recipe and macro states.
func NewRegistry(recipes storage.RecipeState, macros storage.MacroState) (*Registry, error) {
	tools := map[string]Tool{
		"recipe_find":   NewRecipeFind(recipes),
		"recipe_macros": NewRecipeMacros(recipes, macros),
	}

	registry := Registry(tools)
	return &registry, nil
}

// GetTools returns all tools in the registry as a slice
func (r *Registry) GetTools() []Tool {
	tools := make([]Tool, 0, len(*r))
	for _, tool := range *r {
		tools = append(tools, tool)
	}
	return tools
}

// GetTool retrieves a tool by name from the registry
func (r Registry) GetTool(name string) (Tool, error) {
	tool, exists := r[name]
	if !exists {
		return nil, fmt.Errorf("tool %q not found in registry", name)
	}
	return tool, nil
}
