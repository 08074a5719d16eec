package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chefskiss"
)

// Coordinator is responsible for managing the interaction between the LLM, tools, and output channel.
type Coordinator struct {
	llm           llmClient
	toolProvider  chefskiss.ToolProvider
	maxIterations int
	logger        chefskiss.CoordinationLogger
}

// llmClient interface for mock-specific client. It's fake and just returns canned responses.
type llmClient interface {
	Invoke(ctx context.Context, prompt Prompt) (Response, error)
}

// NewCoordinator initializes a new coordinator.
func NewCoordinator(llm llmClient, tp chefskiss.ToolProvider, maxIter int, log chefskiss.CoordinationLogger) *Coordinator {
	return &Coordinator{
		llm:           llm,
		toolProvider:  tp,
		maxIterations: maxIter,
		logger:        log,
	}
}

// Run executes the coordination process for a given task.
func (c *Coordinator) Run(ctx context.Context, task string) (string, error) {
	slog.Info("COORDINATOR: Starting run", "task", task)

	prompt, err := NewPrompt(task, c.toolProvider)
	if err != nil {
		return "", fmt.Errorf("failed to apply system prompt: %w", err)
	}

	var finalOut string

	for iter := 0; iter < c.maxIterations; iter++ {
		iterLog := chefskiss.IterationLog{Iteration: iter + 1, Timestamp: time.Now()}

		promptJSON, err := json.Marshal(prompt)
		if err != nil {
			err := fmt.Errorf("failed to marshal prompt: %w", err)
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return finalOut, err
		}
		iterLog.LLMInput = string(promptJSON)

		slog.Info("COORDINATOR: Sending prompt to LLM",
			"iteration", iter+1,
			"messages_count", len(prompt.Messages),
			"prompt_size_bytes", len(promptJSON),
		)

		// Invoke model
		res, err := c.llm.Invoke(ctx, prompt)
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return finalOut, fmt.Errorf("failed to invoke LLM: %w", err)
		}
		iterLog.LLMOutput = res

		// Parse model output
		contentLengthBeforeParsing := len(res.Content)
		if err := res.ParseModelOutput(); err != nil {
			iterLog.Error = fmt.Sprintf("failed to parse model output: %v", err)
			c.logIteration(iterLog)
			return finalOut, fmt.Errorf("failed to parse model output: %w", err)
		}

		slog.Info("COORDINATOR: LLM response received",
			"iteration", iter+1,
			"content_length", contentLengthBeforeParsing,
			"tool_calls", len(res.ToolCalls),
		)

		// Final? (only accept if recipe_find + recipe_macros have occurred)
		if res.Content != "" {
			usedFind := prompt.HasToolResultInContent("recipe_find")
			usedMacros := prompt.HasToolResultInContent("recipe_macros")

			if !(usedFind && usedMacros) {
				// Nudge the model back to tool planning
				correction := `{
					"tool_calls": [
						{ "name": "recipe_find", "input": { "ingredients": [] } }
					]
				}`

				prompt.Messages = append(prompt.Messages,
					Message{
						Role:    "user",
						Content: `Your last output was a final answer but you did not look up recipes or macros. Use "recipe_find" for matches and "recipe_macros" for nutrition before finalizing.`,
					},
					Message{
						Role:    "assistant",
						Content: correction,
					},
				)

				c.logIteration(iterLog)
				continue
			}

			slog.Info("COORDINATOR: Content is final output, ending run", "iteration", iter+1, "content_length", len(res.Content))

			finalOut = res.Content
			c.logIteration(iterLog)
			break
		}

		// Execute tool calls
		if len(res.ToolCalls) == 0 {
			err := fmt.Errorf("COORDINATOR: no tool_calls and no final in response")
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return finalOut, err
		}

		var toolCallLogs []chefskiss.ToolCallLog
		for _, call := range res.ToolCalls {
			slog.Info("COORDINATOR: Handling tool call", "name", call.Name, "iteration", iter+1)

			toolLog := chefskiss.ToolCallLog{Name: call.Name, Input: call.Input}

			tool, err := c.toolProvider.GetTool(call.Name)
			if err != nil {
				toolLog.Error = err.Error()
				toolCallLogs = append(toolCallLogs, toolLog)
				iterLog.ToolCalls = toolCallLogs
				c.logIteration(iterLog)
				return finalOut, fmt.Errorf("failed to get tool %q: %w", call.Name, err)
			}

			result, err := tool.Run(ctx, call.Input)
			if err != nil {
				toolLog.Error = err.Error()
				toolCallLogs = append(toolCallLogs, toolLog)
				iterLog.ToolCalls = toolCallLogs
				c.logIteration(iterLog)
				return finalOut, fmt.Errorf("failed to run tool %q: %w", call.Name, err)
			}

			toolLog.Output = result
			toolCallLogs = append(toolCallLogs, toolLog)

			payload, err := json.Marshal(result)
			if err != nil {
				iterLog.Error = fmt.Sprintf("failed to marshal tool result: %v", err)
				c.logIteration(iterLog)
				return finalOut, fmt.Errorf("failed to marshal tool result: %w", err)
			}

			prompt.Messages = append(
				prompt.Messages,
				Message{
					Role:    "user",
					Content: fmt.Sprintf(`{"tool_result":"%s","data":%s}`, tool.Name(), string(payload)),
				},
			)

			slog.Info("COORDINATOR: Tool executed, appended message", "name", call.Name, "iteration", iter+1)
		}

		iterLog.ToolCalls = toolCallLogs
		c.logIteration(iterLog)
	}

	return finalOut, nil
}

// logIteration logs a step using the configured logger, handling errors gracefully
func (c *Coordinator) logIteration(iteration chefskiss.IterationLog) {
	if c.logger != nil {
		if err := c.logger.LogIteration(iteration); err != nil {
			slog.Error("Failed to log coordination iteration", "error", err, "iteration", iteration.Iteration)
		}
	}
}
