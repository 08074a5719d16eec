package mock

import (
	"context"
	"encoding/json"
	"testing"

	"chefskiss"
	"chefskiss/tools"
	"chefskiss/tools/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockLLMClient_Invoke(t *testing.T) {
	llm := NewLLMClient(Prompt{})

	newPrompt := func(t *testing.T) Prompt {
		rs := storage.NewTestRecipeState([]byte("[]"))
		ms := storage.NewTestMacroState([]byte("{}"))
		registry, err := tools.NewRegistry(rs, ms)
		require.NoError(t, err)

		prompt, err := NewPrompt("What can I cook?", registry)
		require.NoError(t, err)
		return prompt
	}

	t.Run("phase 1: no tool results - returns recipe_find call", func(t *testing.T) {
		prompt := newPrompt(t)

		ctx := context.Background()
		response, err := llm.Invoke(ctx, prompt)

		require.NoError(t, err)
		assert.NotEmpty(t, response.Content, "Should have content with tool calls")

		err = response.ParseModelOutput()
		require.NoError(t, err)

		require.Len(t, response.ToolCalls, 1, "Should have 1 tool call")
		assert.Equal(t, "recipe_find", response.ToolCalls[0].Name)
		assert.Contains(t, response.ToolCalls[0].Input, "ingredients", "recipe_find should have ingredients input")
	})

	t.Run("phase 2: recipes found - returns recipe_macros call", func(t *testing.T) {
		prompt := newPrompt(t)

		prompt.Messages = append(prompt.Messages, Message{
			Role:    "user",
			Content: `{"tool_result":"recipe_find","data":{"recipes":["Chicken Rice Bowl"]}}`,
		})

		ctx := context.Background()
		response, err := llm.Invoke(ctx, prompt)

		require.NoError(t, err)
		assert.NotEmpty(t, response.Content)

		err = response.ParseModelOutput()
		require.NoError(t, err)

		require.Len(t, response.ToolCalls, 1, "Should have 1 tool call")
		assert.Equal(t, "recipe_macros", response.ToolCalls[0].Name)
		assert.Equal(t, "Chicken Rice Bowl", response.ToolCalls[0].Input["recipe"])
	})

	t.Run("phase 3: all tool results - returns final recommendations", func(t *testing.T) {
		prompt := newPrompt(t)

		prompt.Messages = append(prompt.Messages, Message{
			Role:    "user",
			Content: `{"tool_result":"recipe_find","data":{"recipes":["Chicken Rice Bowl"]}}`,
		})
		prompt.Messages = append(prompt.Messages, Message{
			Role:    "user",
			Content: `{"tool_result":"recipe_macros","data":{"found":true,"macros":{"protein":56.7,"carbs":28,"fat":7.5,"calories":460}}}`,
		})

		ctx := context.Background()
		response, err := llm.Invoke(ctx, prompt)

		require.NoError(t, err)
		assert.NotEmpty(t, response.Content, "Should have final content")

		var recs chefskiss.Recommendations
		err = json.Unmarshal([]byte(response.Content), &recs)
		require.NoError(t, err, "Response should be valid recommendations JSON")

		assert.True(t, recs.IsValid(), "Should be valid recommendations")
		assert.NotEmpty(t, recs.Summary, "Should have a summary")
		require.Len(t, recs.Recommendations, 1, "Should have 1 recommendation")
		assert.Equal(t, "Chicken Rice Bowl", recs.Recommendations[0].Recipe)
		assert.InDelta(t, 56.7, recs.Recommendations[0].Macros.Protein, 0.01)
	})
}

func TestResponse_ParseModelOutput(t *testing.T) {
	tests := []struct {
		name          string
		content       string
		wantContent   string
		wantToolCalls int
	}{
		{
			name:          "pure tool calls",
			content:       `{"tool_calls":[{"name":"recipe_find","input":{"ingredients":["chicken"]}}]}`,
			wantContent:   "",
			wantToolCalls: 1,
		},
		{
			name:          "mixed content and tool calls",
			content:       "Let me look that up.\n" + `{"tool_calls":[{"name":"recipe_macros","input":{"recipe":"Chicken Rice Bowl"}}]}`,
			wantContent:   "Let me look that up.",
			wantToolCalls: 1,
		},
		{
			name:          "pure content",
			content:       `{"summary":"done","recommendations":[]}`,
			wantContent:   `{"summary":"done","recommendations":[]}`,
			wantToolCalls: 0,
		},
		{
			name:          "plain text",
			content:       "I cannot help with that.",
			wantContent:   "I cannot help with that.",
			wantToolCalls: 0,
		},
		{
			name:          "malformed JSON treated as content",
			content:       `{"tool_calls":[{"name":"recipe_find"`,
			wantContent:   `{"tool_calls":[{"name":"recipe_find"`,
			wantToolCalls: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Response{Content: tt.content}
			err := res.ParseModelOutput()
			require.NoError(t, err)

			assert.Equal(t, tt.wantContent, res.Content)
			assert.Len(t, res.ToolCalls, tt.wantToolCalls)
		})
	}
}

func TestNewLLMClient(t *testing.T) {
	llm := NewLLMClient(Prompt{})
	assert.NotNil(t, llm, "NewLLMClient should return a non-nil client")
	assert.IsType(t, &LLMClient{}, llm, "Should return correct type")
}
