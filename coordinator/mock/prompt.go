package mock

import "chefskiss"

// NewPrompt builds the initial conversation. The mock path exists to exercise
// the coordination loop without a model, so only the system contract and the
// user task matter.
func NewPrompt(task string, tp chefskiss.ToolProvider) (Prompt, error) {
	return Prompt{
		Messages: []Message{
			{
				Role:    "system",
				Content: "You are a recipe recommendation assistant. Use recipe_find and recipe_macros, then return the final recommendations JSON.",
			},
			{
				Role:    "user",
				Content: task,
			},
		},
	}, nil
}
