package chefskiss

type ModelConfig struct {
	MaxTokens   int32   `env:"MAX_TOKENS,default=1024"`
	Temperature float32 `env:"TEMPERATURE,default=0.2"`
	TopP        float32 `env:"TOP_P,default=0.9"`
}

type AgentConfig struct {
	ArtifactsRecipesPath string `env:"ARTIFACTS_RECIPES_PATH,default=artifacts/recipes.json"`
	ArtifactsMacrosPath  string `env:"ARTIFACTS_MACROS_PATH,default=artifacts/macros.json"`
	ArtifactsS3Bucket    string `env:"ARTIFACTS_S3_BUCKET,default="`
	MaxIterations        int    `env:"MAX_ITERATIONS,default=10"`
	WebhookURL           string `env:"WEBHOOK_URL,default="`
	WebhookChannel       string `env:"WEBHOOK_CHANNEL,default=#chefskiss"`
}
