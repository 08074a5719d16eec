package gemini

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"chefskiss"
	"chefskiss/tools"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
	"go.opentelemetry.io/otel/sdk/trace"
)

// Mock LLM Client
type mockLLMClient struct {
	responses []Response
	prompts   []Prompt
	callCount int
	shouldErr bool
}

func (m *mockLLMClient) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	m.prompts = append(m.prompts, prompt)

	if m.shouldErr {
		return Response{}, errors.New("mock LLM error")
	}

	if m.callCount >= len(m.responses) {
		return Response{Content: "No more responses configured"}, nil
	}

	response := m.responses[m.callCount]
	m.callCount++
	return response, nil
}

// Mock Tool Provider
type mockToolProvider struct {
	tools []tools.Tool
}

func (m *mockToolProvider) GetTools() []tools.Tool {
	return m.tools
}

func (m *mockToolProvider) GetTool(name string) (tools.Tool, error) {
	for _, tool := range m.tools {
		if tool.Name() == name {
			return tool, nil
		}
	}
	return nil, fmt.Errorf("tool not found: %s", name)
}

// Mock Tool
type mockTool struct {
	name      string
	shouldErr bool
	callCount int
	result    map[string]any
}

func (m *mockTool) Name() string        { return m.name }
func (m *mockTool) Title() string       { return m.name + " Tool" }
func (m *mockTool) Description() string { return "Mock tool for testing" }

func (m *mockTool) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"ingredients": {Type: "array"},
			"recipe":      {Type: "string"},
		},
	}
}

func (m *mockTool) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"result": {Type: "string"},
		},
	}
}

func (m *mockTool) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	m.callCount++

	if m.shouldErr {
		return nil, fmt.Errorf("mock tool error: %s", m.name)
	}

	if m.result != nil {
		return m.result, nil
	}

	return map[string]any{"result": fmt.Sprintf("Mock result from %s", m.name)}, nil
}

const finalRecommendation = `{"summary":"One match for your pantry.","recommendations":[{"recipe":"Chicken Rice Bowl","macros":{"protein":56.7,"carbs":28,"fat":7.5,"calories":460},"reason":"Every ingredient is on hand and it is high in protein."}]}`

func TestCoordinator_Run(t *testing.T) {
	tests := []struct {
		name           string
		llmResponses   []Response
		llmShouldErr   bool
		tools          []tools.Tool
		expectedResult string
		expectError    bool
	}{
		{
			name: "successful recommendation",
			llmResponses: []Response{
				{
					ToolCalls: []ToolCall{
						{Name: "recipe_find", Args: map[string]any{"ingredients": []any{"chicken", "rice"}}},
						{Name: "recipe_macros", Args: map[string]any{"recipe": "Chicken Rice Bowl"}},
					},
				},
				{
					Content: finalRecommendation,
				},
			},
			tools: []tools.Tool{
				&mockTool{name: "recipe_find", result: map[string]any{"recipes": []string{"Chicken Rice Bowl"}}},
				&mockTool{name: "recipe_macros", result: map[string]any{"found": true, "macros": map[string]any{"calories": 460.0}}},
			},
			expectedResult: finalRecommendation,
		},
		{
			name:         "LLM error",
			llmShouldErr: true,
			tools:        []tools.Tool{},
			expectError:  true,
		},
		{
			name: "tool error",
			llmResponses: []Response{
				{
					ToolCalls: []ToolCall{
						{Name: "recipe_find", Args: map[string]any{"ingredients": []any{"chicken"}}},
					},
				},
			},
			tools: []tools.Tool{
				&mockTool{name: "recipe_find", shouldErr: true},
			},
			expectError: true,
		},
		{
			name: "tool not found",
			llmResponses: []Response{
				{
					ToolCalls: []ToolCall{
						{Name: "nonexistent_tool", Args: map[string]any{}},
					},
				},
			},
			tools:       []tools.Tool{},
			expectError: true,
		},
		{
			name: "empty response error",
			llmResponses: []Response{
				{},
			},
			tools:       []tools.Tool{},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			llm := &mockLLMClient{responses: tt.llmResponses, shouldErr: tt.llmShouldErr}
			tp := &mockToolProvider{tools: tt.tools}
			logger := chefskiss.NewNoOpCoordinationLogger()

			coord := NewCoordinator(llm, tp, 5, logger, trace.NewTracerProvider())

			result, err := coord.Run(context.Background(), "What can I cook with chicken and rice?")

			if tt.expectError && err == nil {
				t.Errorf("Expected error but got none")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
			if !tt.expectError && result != tt.expectedResult {
				t.Errorf("Expected result %q, got %q", tt.expectedResult, result)
			}
		})
	}
}

func TestCoordinator_Run_ReplaysFunctionCallTurn(t *testing.T) {
	// The assistant's functionCall turn must be in the history the next time
	// the model is invoked, ahead of the tool results.
	findTool := &mockTool{name: "recipe_find", result: map[string]any{"recipes": []string{"Chicken Rice Bowl"}}}
	macrosTool := &mockTool{name: "recipe_macros", result: map[string]any{"found": true, "macros": map[string]any{"calories": 460.0}}}
	tp := &mockToolProvider{tools: []tools.Tool{findTool, macrosTool}}

	llm := &mockLLMClient{
		responses: []Response{
			{
				ToolCalls: []ToolCall{
					{Name: "recipe_find", Args: map[string]any{"ingredients": []any{"chicken", "rice"}}},
					{Name: "recipe_macros", Args: map[string]any{"recipe": "Chicken Rice Bowl"}},
				},
			},
			{Content: finalRecommendation},
		},
	}

	coord := NewCoordinator(llm, tp, 5, chefskiss.NewNoOpCoordinationLogger(), trace.NewTracerProvider())

	result, err := coord.Run(context.Background(), "What can I cook?")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != finalRecommendation {
		t.Errorf("Expected result %q, got %q", finalRecommendation, result)
	}

	if len(llm.prompts) != 2 {
		t.Fatalf("Expected 2 LLM invocations, got %d", len(llm.prompts))
	}

	second := llm.prompts[1]
	var sawAssistantCalls, sawFindResult, sawMacrosResult bool
	for _, msg := range second.Messages {
		if msg.Role == "assistant" && len(msg.ToolCalls) == 2 {
			sawAssistantCalls = true
		}
		if msg.Role == "tool" && msg.Name == "recipe_find" {
			sawFindResult = true
		}
		if msg.Role == "tool" && msg.Name == "recipe_macros" {
			sawMacrosResult = true
		}
	}
	if !sawAssistantCalls {
		t.Error("Expected assistant functionCall turn in replayed history")
	}
	if !sawFindResult || !sawMacrosResult {
		t.Error("Expected both tool results in replayed history")
	}
}

func TestCoordinator_Run_NudgesUntilToolsUsed(t *testing.T) {
	findTool := &mockTool{name: "recipe_find", result: map[string]any{"recipes": []string{"Chicken Rice Bowl"}}}
	macrosTool := &mockTool{name: "recipe_macros", result: map[string]any{"found": true, "macros": map[string]any{"calories": 460.0}}}
	tp := &mockToolProvider{tools: []tools.Tool{findTool, macrosTool}}

	llm := &mockLLMClient{
		responses: []Response{
			// Premature final answer, no tools called yet.
			{Content: finalRecommendation},
			{
				ToolCalls: []ToolCall{
					{Name: "recipe_find", Args: map[string]any{"ingredients": []any{"chicken", "rice"}}},
					{Name: "recipe_macros", Args: map[string]any{"recipe": "Chicken Rice Bowl"}},
				},
			},
			{Content: finalRecommendation},
		},
	}

	coord := NewCoordinator(llm, tp, 5, chefskiss.NewNoOpCoordinationLogger(), trace.NewTracerProvider())

	result, err := coord.Run(context.Background(), "What can I cook?")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != finalRecommendation {
		t.Errorf("Expected result %q, got %q", finalRecommendation, result)
	}
	if llm.callCount != 3 {
		t.Errorf("Expected 3 LLM invocations, got %d", llm.callCount)
	}
}

func TestCoordinator_Run_RejectsEmptyObjectFinal(t *testing.T) {
	findTool := &mockTool{name: "recipe_find", result: map[string]any{"recipes": []string{"Chicken Rice Bowl"}}}
	macrosTool := &mockTool{name: "recipe_macros", result: map[string]any{"found": true, "macros": map[string]any{"calories": 460.0}}}
	tp := &mockToolProvider{tools: []tools.Tool{findTool, macrosTool}}

	llm := &mockLLMClient{
		responses: []Response{
			{
				ToolCalls: []ToolCall{
					{Name: "recipe_find", Args: map[string]any{"ingredients": []any{"chicken", "rice"}}},
					{Name: "recipe_macros", Args: map[string]any{"recipe": "Chicken Rice Bowl"}},
				},
			},
			// Valid JSON but no summary and no recommendations.
			{Content: "{}"},
			{Content: finalRecommendation},
		},
	}

	coord := NewCoordinator(llm, tp, 5, chefskiss.NewNoOpCoordinationLogger(), trace.NewTracerProvider())

	result, err := coord.Run(context.Background(), "What can I cook?")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != finalRecommendation {
		t.Errorf("Expected result %q, got %q", finalRecommendation, result)
	}
	if llm.callCount != 3 {
		t.Errorf("Expected 3 LLM invocations, got %d", llm.callCount)
	}
}
