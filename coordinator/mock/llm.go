package mock

import (
	"context"
	"encoding/json"
	"log/slog"
)

type LLMClient struct{}

func NewLLMClient(_ Prompt) *LLMClient {
	return &LLMClient{}
}

// Invoke is a mock implementation that simulates an LLM response based on the presence of tool results in the prompt. It is, of course, deterministic and only serves as a learning aid to see how the coordinator handles different phases of tool use and response generation. Real LLMs may not be so kind :)
func (m *LLMClient) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	slog.Info("LLM_CLIENT: Invoked", "messages_len", len(prompt.Messages))

	// Phase 1: no recipe matches yet -> plan to find recipes
	if !prompt.HasToolResultInContent("recipe_find") {
		plan := map[string]any{
			"tool_calls": []map[string]any{
				{"name": "recipe_find", "input": map[string]any{"ingredients": []string{"chicken", "rice"}}},
			},
		}
		b, err := json.Marshal(plan)
		if err != nil {
			slog.Error("Failed to marshal plan", "error", err)
			return Response{Content: ""}, nil
		}

		slog.Info("LLM_CLIENT: Returning plan for recipe_find")

		return Response{Content: string(b)}, nil
	}

	// Phase 2: matches in hand but no macros yet -> plan to fetch macros
	if !prompt.HasToolResultInContent("recipe_macros") {
		plan := map[string]any{
			"tool_calls": []map[string]any{
				{"name": "recipe_macros", "input": map[string]any{"recipe": "Chicken Rice Bowl"}},
			},
		}
		b, err := json.Marshal(plan)
		if err != nil {
			slog.Error("Failed to marshal plan", "error", err)
			return Response{Content: ""}, nil
		}

		slog.Info("LLM_CLIENT: Returning plan for recipe_macros")

		return Response{Content: string(b)}, nil
	}

	// Phase 3: all tool results present -> return final recommendations
	final := map[string]any{
		"summary": "One recipe matches your ingredients and fits a high protein goal.",
		"recommendations": []map[string]any{
			{
				"recipe": "Chicken Rice Bowl",
				"macros": map[string]any{"protein": 56.7, "carbs": 28.0, "fat": 7.5, "calories": 460.0},
				"reason": "Uses only ingredients you already have and delivers the most protein.",
			},
		},
	}
	b, err := json.Marshal(final)
	if err != nil {
		slog.Error("Failed to marshal final response", "error", err)
		return Response{Content: ""}, nil
	}

	slog.Info("LLM_CLIENT: Returning final recommendations")

	return Response{Content: string(b)}, nil
}
