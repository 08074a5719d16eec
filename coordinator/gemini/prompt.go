package gemini

import (
	"encoding/json"
	"fmt"

	"chefskiss"
)

// NewPrompt creates a prompt with the system contract, the user task, and the
// registry's tools converted to Gemini function declarations.
func NewPrompt(task string, tp chefskiss.ToolProvider) (Prompt, error) {
	tools := tp.GetTools()

	geminiTools := make([]Tool, len(tools))
	for i, tool := range tools {
		// Round-trip through JSON so the declaration carries plain maps.
		schemaJSON, err := json.Marshal(tool.InputSchema())
		if err != nil {
			return Prompt{}, fmt.Errorf("failed to marshal schema for %s: %w", tool.Name(), err)
		}
		var parameters map[string]any
		if err := json.Unmarshal(schemaJSON, &parameters); err != nil {
			return Prompt{}, fmt.Errorf("failed to unmarshal schema for %s: %w", tool.Name(), err)
		}

		geminiTools[i] = Tool{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  parameters,
		}
	}

	return Prompt{
		Messages: []Message{
			{
				Role:    "system",
				Content: systemPrompt,
			},
			{
				Role:    "user",
				Content: task,
			},
		},
		Tools: geminiTools,
	}, nil
}

const systemPrompt string = `You are a recipe recommendation assistant.

GOAL
Given the user's available ingredients and dietary goal, use the tools to find
matching recipes and their nutritional macros, then return recommendations
that fit the dietary goal.

OUTPUT CONTRACT
- Your final response must be ONE valid JSON object only (no extra text, no markdown, no code fences). Start with '{' and end with '}'.
- UTF-8, no trailing commas.
- Shape:
{
  "summary": string,                 // <= 400 chars
  "recommendations": [               // at least one element
    {
      "recipe": string,              // recipe name from recipe_find
      "macros": { "protein": number, "carbs": number, "fat": number, "calories": number },
      "reason": string               // why this fits the dietary goal
    }
  ]
}

TOOLS
- When you need data, call the declared function directly; never print a JSON blob that describes a call.
- Function results come back as functionResponse parts; use them to continue.
- Call recipe_find once with the user's ingredients. Call recipe_macros once per candidate recipe.
- Do not re-call a function for data you already have.

RECOMMENDATION RULES
- Always call recipe_find first with {"ingredients": [...]}.
- Call recipe_macros for EVERY candidate before recommending it; never estimate macros yourself.
- If recipe_macros returns found=false for a recipe, exclude it.
- High protein goal: favor highest protein. Low carb: favor lowest carbs.
  Weight loss: favor lower calories. Muscle gain: favor protein with adequate calories.
  Balanced: favor an even macro split.
- The macros in your final JSON must be exactly the values recipe_macros returned.

WORKFLOW (typical)
1) Call recipe_find with the user's ingredients.
2) Call recipe_macros for each returned recipe name.
3) Rank candidates against the dietary goal using the returned macros.
4) Return the final JSON object (no commentary).`
