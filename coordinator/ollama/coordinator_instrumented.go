package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"chefskiss"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedCoordinator is the Coordinator with tracing and metrics around
// every model and tool interaction.
type InstrumentedCoordinator struct {
	llm           llmClient
	toolProvider  chefskiss.ToolProvider
	maxIterations int
	logger        chefskiss.CoordinationLogger
	tracer        trace.Tracer
	meter         metric.Meter
}

// NewInstrumentedCoordinator initializes a new instrumented coordinator.
func NewInstrumentedCoordinator(llm llmClient, tp chefskiss.ToolProvider, maxIter int, log chefskiss.CoordinationLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedCoordinator {
	return &InstrumentedCoordinator{
		llm:           llm,
		toolProvider:  tp,
		maxIterations: maxIter,
		logger:        log,
		tracer:        tracer,
		meter:         meter,
	}
}

// Run executes the coordination process for a given task with full instrumentation.
func (c *InstrumentedCoordinator) Run(ctx context.Context, task string) (string, error) {
	ctx, span := c.tracer.Start(ctx, "InstrumentedCoordinator.Run")
	defer span.End()

	slog.Info("COORDINATOR: Starting instrumented run", "task", task)

	runsCounter, _ := c.meter.Int64Counter("coordinator_runs_total",
		metric.WithDescription("Total number of coordination runs started"))
	runsCompletedCounter, _ := c.meter.Int64Counter("coordinator_runs_completed_total",
		metric.WithDescription("Total number of coordination runs completed successfully"))
	runsFailedCounter, _ := c.meter.Int64Counter("coordinator_runs_failed_total",
		metric.WithDescription("Total number of coordination runs that failed"))
	toolCallsCounter, _ := c.meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	toolCallsFailedCounter, _ := c.meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))
	iterationCounter, _ := c.meter.Int64Counter("coordinator_iterations_total",
		metric.WithDescription("Total number of coordination iterations"))
	nudgesCounter, _ := c.meter.Int64Counter("coordinator_nudges_total",
		metric.WithDescription("Total number of times the model was nudged back to tool use"))

	promptSizeGauge, _ := c.meter.Int64Gauge("prompt_size_bytes",
		metric.WithDescription("Size of the prompt sent to LLM in bytes"))
	toolsAvailableGauge, _ := c.meter.Int64Gauge("tools_available_count",
		metric.WithDescription("Number of tools available to the coordinator"))

	coordinationDurationHist, _ := c.meter.Float64Histogram("coordination_duration_seconds",
		metric.WithDescription("Total duration of the coordination process in seconds"))
	llmResponseTimeHist, _ := c.meter.Float64Histogram("llm_response_time_seconds",
		metric.WithDescription("Time taken to receive a response from the LLM in seconds"))
	toolExecutionTimeHist, _ := c.meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))

	runsCounter.Add(ctx, 1)
	runStart := time.Now()

	fail := func(err error) (string, error) {
		runsFailedCounter.Add(ctx, 1)
		coordinationDurationHist.Record(ctx, time.Since(runStart).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	prompt, err := NewPrompt(task, c.toolProvider)
	if err != nil {
		return fail(fmt.Errorf("failed to apply system prompt: %w", err))
	}
	toolsAvailableGauge.Record(ctx, int64(len(prompt.Tools)))

	var finalOut string

	for iter := 0; iter < c.maxIterations; iter++ {
		iterationCounter.Add(ctx, 1)
		iterLog := chefskiss.IterationLog{Iteration: iter + 1, Timestamp: time.Now()}

		if b, merr := json.Marshal(prompt); merr == nil {
			iterLog.LLMInput = string(b)
			promptSizeGauge.Record(ctx, int64(len(b)))
		}

		llmStart := time.Now()
		res, err := c.llm.Invoke(ctx, prompt)
		llmResponseTimeHist.Record(ctx, time.Since(llmStart).Seconds())
		if err != nil {
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return fail(fmt.Errorf("failed to invoke LLM: %w", err))
		}
		iterLog.LLMOutput = res

		span.AddEvent("llm response", trace.WithAttributes(
			attribute.Int("iteration", iter+1),
			attribute.Int("content_length", len(res.Content)),
			attribute.Int("tool_calls", len(res.ToolCalls)),
		))

		if len(res.ToolCalls) == 0 && res.Content != "" {
			if !(prompt.HasToolResult("recipe_find") && prompt.HasToolResult("recipe_macros")) {
				nudgesCounter.Add(ctx, 1)
				prompt.Messages = append(prompt.Messages,
					Message{
						Role:    "user",
						Content: "Before finalizing, call recipe_find (with the user's ingredients) and recipe_macros for each candidate recipe. Then use those results and return ONLY the final JSON object.",
					},
				)
				c.logIteration(iterLog)
				continue
			}

			var recs chefskiss.Recommendations
			if jerr := json.Unmarshal([]byte(res.Content), &recs); jerr != nil || !recs.IsValid() {
				nudgesCounter.Add(ctx, 1)
				prompt.Messages = append(prompt.Messages,
					Message{
						Role:    "user",
						Content: "Your last output was not a complete recommendation. Return ONLY the final JSON object with a summary and at least one recommendation, starting with { and ending with }.",
					},
				)
				c.logIteration(iterLog)
				continue
			}

			finalOut = res.Content
			c.logIteration(iterLog)
			break
		}

		if len(res.ToolCalls) == 0 && res.Content == "" {
			err := fmt.Errorf("no tool_calls and no final content")
			iterLog.Error = err.Error()
			c.logIteration(iterLog)
			return fail(err)
		}

		var toolCallLogs []chefskiss.ToolCallLog

		for _, call := range dedupeToolCalls(res.ToolCalls) {
			toolCallsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", call.Name)))
			toolLog := chefskiss.ToolCallLog{Name: call.Name, Input: call.Args}

			tool, err := c.toolProvider.GetTool(call.Name)
			if err != nil {
				toolCallsFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", call.Name)))
				toolLog.Error = err.Error()
				toolCallLogs = append(toolCallLogs, toolLog)
				iterLog.ToolCalls = toolCallLogs
				c.logIteration(iterLog)
				return fail(fmt.Errorf("failed to get tool %q: %w", call.Name, err))
			}

			toolStart := time.Now()
			result, err := tool.Run(ctx, call.Args)
			toolExecutionTimeHist.Record(ctx, time.Since(toolStart).Seconds(),
				metric.WithAttributes(attribute.String("tool", call.Name)))
			if err != nil {
				toolCallsFailedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("tool", call.Name)))
				toolLog.Error = err.Error()
				toolCallLogs = append(toolCallLogs, toolLog)
				iterLog.ToolCalls = toolCallLogs
				c.logIteration(iterLog)
				return fail(fmt.Errorf("failed to run tool %q: %w", call.Name, err))
			}

			toolLog.Output = result
			toolCallLogs = append(toolCallLogs, toolLog)

			payload, err := json.Marshal(result)
			if err != nil {
				iterLog.Error = fmt.Sprintf("failed to marshal tool result: %v", err)
				c.logIteration(iterLog)
				return fail(fmt.Errorf("failed to marshal tool result: %w", err))
			}

			prompt.Messages = append(
				prompt.Messages,
				Message{
					Role:    "tool",
					Name:    tool.Name(),
					Content: string(payload),
				},
			)
		}

		iterLog.ToolCalls = toolCallLogs
		c.logIteration(iterLog)
	}

	runsCompletedCounter.Add(ctx, 1)
	coordinationDurationHist.Record(ctx, time.Since(runStart).Seconds())
	span.SetStatus(codes.Ok, "run complete")
	return finalOut, nil
}

func (c *InstrumentedCoordinator) logIteration(iteration chefskiss.IterationLog) {
	if c.logger != nil {
		if err := c.logger.LogIteration(iteration); err != nil {
			slog.Error("Failed to log coordination iteration", "error", err, "iteration", iteration.Iteration)
		}
	}
}
