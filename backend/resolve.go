package backend

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Resolve produces the validated backend Config from the process environment
// and the optional key=value file at DefaultConfigPath. Precedence per key:
// environment variable (if set, even to an empty string) over file value over
// built-in default. No network calls are made; reachability of the chosen
// backend is the runtime's concern.
func Resolve() (Config, error) {
	return ResolveFile(DefaultConfigPath)
}

// ResolveFile is Resolve with an explicit file location, mostly for tests.
func ResolveFile(path string) (Config, error) {
	fileVals, err := readFile(path)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return fileVals[key]
	}

	if key := lookup(EnvAPIKey); key != "" {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			return Config{}, &MissingCredentialError{Key: EnvAPIKey}
		}
		model := strings.TrimSpace(lookup(EnvModel))
		if model == "" {
			model = DefaultHostedModel
		}
		return Config{
			Kind:      KindHostedAPI,
			ModelName: model,
			APIKey:    trimmed,
		}, nil
	}

	model := strings.TrimSpace(lookup(EnvModel))
	if model == "" {
		model = DefaultLocalModel
	}
	endpoint := strings.TrimSpace(lookup(EnvEndpoint))
	if endpoint == "" {
		endpoint = DefaultLocalEndpoint
	}
	return Config{
		Kind:      KindLocalInference,
		ModelName: model,
		Endpoint:  endpoint,
	}, nil
}

// readFile loads the optional configuration file. A missing file is not an
// error; anything else wrong with it is.
func readFile(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &ParseError{Path: path, Reason: "cannot read", Err: err}
	}

	// godotenv quietly accepts a bare KEY line as "inherit from the
	// environment"; here every line must be a comment or key=value.
	for i, line := range strings.Split(string(raw), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if !strings.Contains(trimmed, "=") {
			return nil, &ParseError{Path: path, Reason: fmt.Sprintf("line %d: missing '='", i+1)}
		}
	}

	vals, err := godotenv.UnmarshalBytes(raw)
	if err != nil {
		return nil, &ParseError{Path: path, Reason: "malformed", Err: err}
	}

	// A misspelled key here would silently select the wrong backend, so
	// unrecognized keys are rejected rather than ignored.
	for k := range vals {
		switch k {
		case EnvAPIKey, EnvModel, EnvEndpoint:
		default:
			return nil, &ParseError{Path: path, Reason: "unrecognized key " + k}
		}
	}
	return vals, nil
}
