package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"chefskiss"
)

const (
	// defaultBaseEndpoint is the Gemini API host. Only the model and key vary
	// between deployments.
	defaultBaseEndpoint = "https://generativelanguage.googleapis.com"

	// Low temperature keeps outputs more deterministic and consistent, which
	// is better for tool use, JSON, and structured outputs.
	defaultTemperature = 0.2

	// Low top_p keeps outputs more focused and less random.
	defaultTopP = 0.9

	defaultMaxOutputTokens = 2048
)

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// Client is an LLM client for the Gemini generateContent API. Authentication
// is a per-request API key header; no SDK or OAuth flow is involved.
type Client struct {
	endpoint     string
	model        string
	apiKey       string
	systemPrompt string
	httpClient   chefskiss.HTTPClient
	config       generationConfig
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	APIKey       string
	MaxTokens    int32
	Temperature  float32
	TopP         float32
	Prompt       Prompt
	HTTPClient   chefskiss.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if len(opts.Prompt.Messages) == 0 {
		return nil, fmt.Errorf("prompt must have at least one message")
	}

	systemPrompt := ""
	if opts.Prompt.Messages[0].Role == "system" {
		systemPrompt = opts.Prompt.Messages[0].Content
	}
	if systemPrompt == "" {
		return nil, fmt.Errorf("prompt must have a system message")
	}

	base := strings.TrimSuffix(opts.BaseEndpoint, "/")
	if base == "" {
		base = defaultBaseEndpoint
	}

	genCfg := generationConfig{
		Temperature:     defaultTemperature,
		TopP:            defaultTopP,
		MaxOutputTokens: defaultMaxOutputTokens,
	}
	if opts.Temperature != 0 {
		genCfg.Temperature = float64(opts.Temperature)
	}
	if opts.TopP != 0 {
		genCfg.TopP = float64(opts.TopP)
	}
	if opts.MaxTokens != 0 {
		genCfg.MaxOutputTokens = int(opts.MaxTokens)
	}

	return &Client{
		endpoint:     fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, opts.ModelID),
		model:        opts.ModelID,
		apiKey:       opts.APIKey,
		systemPrompt: systemPrompt,
		httpClient:   opts.HTTPClient,
		config: genCfg,
	}, nil
}

// Wire types for the generateContent request and response.

type wirePart struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *wireFunctionCall `json:"functionCall,omitempty"`
	FunctionResponse *wireFunctionResp `json:"functionResponse,omitempty"`
}

type wireFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

type wireFunctionResp struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireToolDecls struct {
	FunctionDeclarations []wireFunctionDecl `json:"functionDeclarations"`
}

type wireFunctionDecl struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type wireRequest struct {
	SystemInstruction *wireContent     `json:"systemInstruction,omitempty"`
	Contents          []wireContent    `json:"contents"`
	Tools             []wireToolDecls  `json:"tools,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type wireResponse struct {
	Candidates []struct {
		Content      wireContent `json:"content"`
		FinishReason string      `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Invoke sends the prompt to Gemini and normalizes the first candidate into a
// Response.
func (c *Client) Invoke(ctx context.Context, prompt Prompt) (Response, error) {
	contents, err := c.buildContents(prompt)
	if err != nil {
		return Response{}, err
	}

	reqBody := wireRequest{
		SystemInstruction: &wireContent{Parts: []wirePart{{Text: c.systemPrompt}}},
		Contents:          contents,
		GenerationConfig:  c.config,
	}

	if len(prompt.Tools) > 0 {
		decls := make([]wireFunctionDecl, 0, len(prompt.Tools))
		for _, t := range prompt.Tools {
			decls = append(decls, wireFunctionDecl{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			})
		}
		reqBody.Tools = []wireToolDecls{{FunctionDeclarations: decls}}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	slog.Info("LLM_CLIENT: Invoking Gemini", "model", c.model, "contents", len(contents), "payload_bytes", len(payload))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var wr wireResponse
		if json.Unmarshal(body, &wr) == nil && wr.Error != nil {
			return Response{}, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, wr.Error.Message)
		}
		return Response{}, fmt.Errorf("LLM_CLIENT: %s: %s", resp.Status, string(body))
	}

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		return Response{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(wr.Candidates) == 0 {
		return Response{}, fmt.Errorf("response has no candidates")
	}

	var out Response
	var texts []string
	for _, part := range wr.Candidates[0].Content.Parts {
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{Name: part.FunctionCall.Name, Args: args})
			continue
		}
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	out.Content = strings.TrimSpace(strings.Join(texts, "\n"))

	slog.Info("LLM_CLIENT: Gemini response received",
		"finish_reason", wr.Candidates[0].FinishReason,
		"content_length", len(out.Content),
		"tool_calls", len(out.ToolCalls),
	)

	return out, nil
}

// buildContents converts the prompt history into Gemini contents. The system
// message travels separately as systemInstruction; assistant turns map to the
// "model" role; tool results become functionResponse parts in a user turn.
func (c *Client) buildContents(prompt Prompt) ([]wireContent, error) {
	var contents []wireContent

	for _, m := range prompt.Messages {
		switch m.Role {
		case "system":
			continue

		case "assistant":
			content := wireContent{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, wirePart{Text: m.Content})
			}
			for _, call := range m.ToolCalls {
				content.Parts = append(content.Parts, wirePart{
					FunctionCall: &wireFunctionCall{Name: call.Name, Args: call.Args},
				})
			}
			if len(content.Parts) == 0 {
				continue
			}
			contents = append(contents, content)

		case "tool":
			if m.Name == "" {
				slog.Warn("LLM_CLIENT: Tool message has no tool name; skipping", "content", m.Content)
				continue
			}
			var result map[string]any
			if err := json.Unmarshal([]byte(m.Content), &result); err != nil {
				return nil, fmt.Errorf("tool result for %q is not a JSON object: %w", m.Name, err)
			}
			contents = append(contents, wireContent{
				Role: "user",
				Parts: []wirePart{{
					FunctionResponse: &wireFunctionResp{Name: m.Name, Response: result},
				}},
			})

		default:
			contents = append(contents, wireContent{
				Role:  "user",
				Parts: []wirePart{{Text: m.Content}},
			})
		}
	}

	return contents, nil
}
