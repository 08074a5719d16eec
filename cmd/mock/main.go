// Command mock runs the coordination loop against a canned LLM so the tool
// plumbing can be exercised without a model or an API key.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/joeshaw/envdecode"

	"chefskiss"
	"chefskiss/coordinator/mock"
	"chefskiss/tools"
	"chefskiss/tools/storage"
)

func main() {
	ctx := context.Background()

	var agentConfig chefskiss.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	rs := storage.NewFileRecipeState(agentConfig.ArtifactsRecipesPath)
	ms := storage.NewFileMacroState(agentConfig.ArtifactsMacrosPath)
	registry, err := tools.NewRegistry(rs, ms)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		os.Exit(1)
	}

	task := argOr(1, "What can I cook with chicken and rice? I want something high in protein.")

	llm := mock.NewLLMClient(mock.Prompt{})
	logger := chefskiss.NewStdoutCoordinationLogger()

	output, err := mock.NewCoordinator(llm, registry, agentConfig.MaxIterations, logger).Run(ctx, task)
	if err != nil {
		slog.Error("FAILURE: Error handling task", "error", err)
		os.Exit(1)
	}

	fmt.Println(output)
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}
