package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/joeshaw/envdecode"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"chefskiss"
	"chefskiss/backend"
	"chefskiss/coordinator/gemini"
	"chefskiss/coordinator/ollama"
	"chefskiss/notify"
	"chefskiss/tools"
	"chefskiss/tools/storage"
)

func main() {
	ctx := context.Background()

	// Backend resolution happens before anything else. A malformed config
	// file or a blank hosted API key is fatal at startup.
	cfg, err := backend.Resolve()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	slog.Info("SETUP: Backend resolved", "backend", cfg.Kind, "model", cfg.ModelName, "endpoint", cfg.Endpoint)

	var modelConfig chefskiss.ModelConfig
	if err := envdecode.Decode(&modelConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	var agentConfig chefskiss.AgentConfig
	if err := envdecode.Decode(&agentConfig); err != nil {
		log.Fatalf("SETUP: Failed to decode: %s", err)
	}

	rs, ms, err := newArtifactStores(ctx, agentConfig)
	if err != nil {
		slog.Error("SETUP: Failed to create artifact stores", "error", err)
		os.Exit(1)
	}

	registry, err := tools.NewRegistry(rs, ms)
	if err != nil {
		slog.Error("SETUP: Failed to create tool registry", "error", err)
		os.Exit(1)
	}

	logger, cleanup, err := newCoordinationLogger(cfg.ModelName)
	if err != nil {
		slog.Error("SETUP: Failed to create coordination logger", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := cleanup(); err != nil {
			slog.Error("SETUP: Failed to flush coordination log", "error", err)
		}
	}()

	tracerProvider, meterProvider, otelShutdown, err := chefskiss.InitOtel(ctx)
	if err != nil {
		slog.Error("SETUP: Failed to initialize OpenTelemetry", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := otelShutdown(ctx); err != nil {
			slog.Error("SETUP: Failed to shutdown OpenTelemetry", "error", err)
		}
	}()

	task := argOr(1, "What can I cook with chicken, rice, and spinach? I want something high in protein.")

	var coord chefskiss.Coordinator
	tracerName := chefskiss.TracerNameOllama

	switch cfg.Kind {
	case backend.KindLocalInference:
		prompt, err := ollama.NewPrompt(task, registry)
		if err != nil {
			slog.Error("SETUP: Failed to apply system prompt", "error", err)
			os.Exit(1)
		}

		llm, err := ollama.NewClient(ollama.ClientOpts{
			BaseEndpoint: cfg.Endpoint,
			ModelID:      cfg.ModelName,
			Temperature:  modelConfig.Temperature,
			TopP:         modelConfig.TopP,
			Prompt:       prompt,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create LLM client", "error", err)
			os.Exit(1)
		}

		tracer := tracerProvider.Tracer(chefskiss.TracerNameOllama)
		meter := meterProvider.Meter(chefskiss.TracerNameOllama)
		coord = ollama.NewInstrumentedCoordinator(llm, registry, agentConfig.MaxIterations, logger, tracer, meter)

	case backend.KindHostedAPI:
		tracerName = chefskiss.TracerNameGemini
		prompt, err := gemini.NewPrompt(task, registry)
		if err != nil {
			slog.Error("SETUP: Failed to apply system prompt", "error", err)
			os.Exit(1)
		}

		llm, err := gemini.NewClient(gemini.ClientOpts{
			BaseEndpoint: cfg.Endpoint,
			ModelID:      cfg.ModelName,
			APIKey:       cfg.APIKey,
			MaxTokens:    modelConfig.MaxTokens,
			Temperature:  modelConfig.Temperature,
			TopP:         modelConfig.TopP,
			Prompt:       prompt,
			HTTPClient:   http.DefaultClient,
		})
		if err != nil {
			slog.Error("SETUP: Failed to create LLM client", "error", err)
			os.Exit(1)
		}

		coord = gemini.NewCoordinator(llm, registry, agentConfig.MaxIterations, logger, tracerProvider)

	default:
		slog.Error("SETUP: Unknown backend", "backend", cfg.Kind)
		os.Exit(1)
	}

	ctx, span := tracerProvider.Tracer(tracerName).Start(ctx, "chefskiss.run", trace.WithAttributes(
		attribute.String("backend", cfg.Kind.String()),
		attribute.String("model.name", cfg.ModelName),
		attribute.Int("model.max_tokens", int(modelConfig.MaxTokens)),
		attribute.Float64("model.temperature", float64(modelConfig.Temperature)),
		attribute.Float64("model.top_p", float64(modelConfig.TopP)),
	))
	defer span.End()

	output, err := coord.Run(ctx, task)
	if err != nil {
		slog.Error("FAILURE: Error handling task", "error", err)
		os.Exit(1)
	}

	fmt.Println(output)

	if agentConfig.WebhookURL != "" {
		var recs chefskiss.Recommendations
		message := output
		if json.Unmarshal([]byte(output), &recs) == nil {
			message = notify.FormatRecommendations(recs)
		}

		var notifier chefskiss.Notifier = notify.NewClient(agentConfig.WebhookURL, http.DefaultClient)
		if err := notifier.PostMessage(ctx, agentConfig.WebhookChannel, message); err != nil {
			slog.Error("Failed to post result to webhook", "error", err)
		}
	}
}

func argOr(i int, def string) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return def
}

// newArtifactStores returns recipe and macro stores backed by S3 when a
// bucket is configured, and by local files otherwise.
func newArtifactStores(ctx context.Context, cfg chefskiss.AgentConfig) (storage.RecipeState, storage.MacroState, error) {
	if cfg.ArtifactsS3Bucket == "" {
		return storage.NewFileRecipeState(cfg.ArtifactsRecipesPath), storage.NewFileMacroState(cfg.ArtifactsMacrosPath), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	return storage.NewS3RecipeState(s3Client, cfg.ArtifactsS3Bucket, cfg.ArtifactsRecipesPath),
		storage.NewS3MacroState(s3Client, cfg.ArtifactsS3Bucket, cfg.ArtifactsMacrosPath),
		nil
}

func newCoordinationLogger(model string) (chefskiss.CoordinationLogger, func() error, error) {
	logFilePath := chefskiss.NewCoordinationLogFilePath(model)
	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, func() error { return err }, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := chefskiss.NewFileCoordinationLogger(logFile)
	cleanup := func() error {
		return errors.Join(logger.Flush(), logFile.Close())
	}
	return logger, cleanup, nil
}
