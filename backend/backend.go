// Package backend decides which inference backend the agent runtime talks to.
// Resolution happens exactly once at process startup, before any model
// interaction; the resulting Config is immutable and handed read-only to the
// rest of the process.
package backend

// Kind identifies the selected inference backend.
type Kind int

const (
	// KindLocalInference targets a model server on the local machine or network.
	KindLocalInference Kind = iota
	// KindHostedAPI targets a remote LLM service authenticated by an API key.
	KindHostedAPI
)

func (k Kind) String() string {
	switch k {
	case KindLocalInference:
		return "local_inference"
	case KindHostedAPI:
		return "hosted_api"
	default:
		return "unknown"
	}
}

// Recognized configuration keys. The same names work as environment variables
// and as keys in the optional chefskiss.env file; the environment wins.
const (
	EnvAPIKey   = "CHEFSKISS_API_KEY"
	EnvModel    = "CHEFSKISS_MODEL"
	EnvEndpoint = "CHEFSKISS_ENDPOINT"
)

// DefaultConfigPath is the fixed relative location of the optional
// key=value configuration file.
const DefaultConfigPath = "chefskiss.env"

const (
	DefaultLocalModel    = "qwen2.5"
	DefaultLocalEndpoint = "http://localhost:11434"
	DefaultHostedModel   = "gemini-2.0-flash"
)

// Config describes the backend the agent runtime should use. It is
// constructed only by Resolve and never mutated afterwards.
type Config struct {
	Kind      Kind
	ModelName string
	// APIKey is set only when Kind == KindHostedAPI.
	APIKey string
	// Endpoint is set only when Kind == KindLocalInference.
	Endpoint string
}
