package ollama

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chefskiss/tools"
	"chefskiss/tools/storage"
)

func TestPrompt_New(t *testing.T) {
	// Create test storage
	rs := storage.NewTestRecipeState([]byte("[]"))
	ms := storage.NewTestMacroState([]byte("{}"))
	registry, err := tools.NewRegistry(rs, ms)
	require.NoError(t, err)

	// Create prompt
	prompt, err := NewPrompt("What can I cook with chicken and rice?", registry)
	require.NoError(t, err)

	// Verify basic structure
	assert.Len(t, prompt.Messages, 2, "Should have system and user messages")
	assert.Equal(t, "system", prompt.Messages[0].Role)
	assert.Equal(t, "user", prompt.Messages[1].Role)
	assert.Equal(t, "What can I cook with chicken and rice?", prompt.Messages[1].Content)

	// Verify tools are in Ollama format
	assert.Len(t, prompt.Tools, 2, "Should have 2 tools")

	// Check tool names
	toolNames := make(map[string]bool)
	for _, tool := range prompt.Tools {
		toolNames[tool.Function.Name] = true
		assert.Equal(t, "function", tool.Type, "Tool type should be 'function'")
		assert.NotEmpty(t, tool.Function.Description, "Tool should have description")
		assert.NotNil(t, tool.Function.Parameters, "Tool should have parameters")
	}

	assert.True(t, toolNames["recipe_find"], "Should have recipe_find tool")
	assert.True(t, toolNames["recipe_macros"], "Should have recipe_macros tool")

	// Verify recipe_find tool structure
	var findTool *Tool
	for i := range prompt.Tools {
		if prompt.Tools[i].Function.Name == "recipe_find" {
			findTool = &prompt.Tools[i]
			break
		}
	}
	require.NotNil(t, findTool, "Should find recipe_find tool")

	// Check parameters structure
	params := findTool.Function.Parameters
	assert.Equal(t, "object", params["type"])
	assert.NotNil(t, params["properties"])

	// Verify the tool can be marshaled to the expected JSON format
	toolJSON, err := json.MarshalIndent(findTool, "", "  ")
	require.NoError(t, err)

	// Parse it back to verify structure
	var parsedTool map[string]interface{}
	err = json.Unmarshal(toolJSON, &parsedTool)
	require.NoError(t, err)

	assert.Equal(t, "function", parsedTool["type"])
	function := parsedTool["function"].(map[string]interface{})
	assert.Equal(t, "recipe_find", function["name"])
	assert.Contains(t, function["description"], "ingredients")
}

func TestPrompt_HasToolResult(t *testing.T) {
	rs := storage.NewTestRecipeState([]byte("[]"))
	ms := storage.NewTestMacroState([]byte("{}"))
	registry, err := tools.NewRegistry(rs, ms)
	require.NoError(t, err)

	prompt, err := NewPrompt("What can I cook?", registry)
	require.NoError(t, err)

	t.Run("no tool results", func(t *testing.T) {
		assert.False(t, prompt.HasToolResult("recipe_find"))
		assert.False(t, prompt.HasToolResult("recipe_macros"))
	})

	t.Run("with tool results", func(t *testing.T) {
		// Add a message with tool result (using Ollama's role:"tool" format)
		prompt.Messages = append(prompt.Messages, Message{
			Role:    "tool",
			Name:    "recipe_find",
			Content: `{"recipes":[]}`,
		})

		assert.True(t, prompt.HasToolResult("recipe_find"))
		assert.False(t, prompt.HasToolResult("recipe_macros"))
	})
}
