// Package openai provides an inference provider adapter for OpenAI-compatible
// chat completion APIs (OpenAI, Ollama, LM Studio).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.InferenceProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultBaseURL  = "https://api.openai.com/v1"
	DefaultModel    = "gpt-4o-mini"
	DefaultTimeout  = 120 * time.Second
	OllamaBaseURL   = "http://localhost:11434/v1"
	OllamaModel     = "llama3.2"
	maxErrorBodyLen = 512
)

// Config holds configuration for the OpenAI-compatible provider.
type Config struct {
	// APIKey is the API key. Required for the default OpenAI endpoint;
	// local servers usually need none.
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client
}

// Provider answers inference requests through /chat/completions.
type Provider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatRequest is the /chat/completions request format.
type chatRequest struct {
	Model      string        `json:"model"`
	Messages   []chatMessage `json:"messages"`
	Tools      []chatTool    `json:"tools,omitempty"`
	ToolChoice string        `json:"tool_choice,omitempty"`
	MaxTokens  int           `json:"max_tokens,omitempty"`
}

// chatMessage is the OpenAI chat message format.
type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []chatToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type chatToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type chatTool struct {
	Type     string       `json:"type"`
	Function chatFunction `json:"function"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

// chatResponse is the /chat/completions response format.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content   *string        `json:"content"`
			ToolCalls []chatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewProvider creates a new OpenAI-compatible provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.APIKey == "" && cfg.BaseURL == DefaultBaseURL {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Provider{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Complete sends one chat completion request.
func (p *Provider) Complete(ctx context.Context, req driven.InferenceRequest) (*driven.InferenceResponse, error) {
	reqBody := chatRequest{
		Model:     p.model,
		Messages:  convertMessages(req.System, req.Messages),
		Tools:     convertTools(req.Tools),
		MaxTokens: req.MaxTokens,
	}
	if len(reqBody.Tools) > 0 && req.ToolChoice == driven.ToolChoiceNone {
		reqBody.ToolChoice = string(driven.ToolChoiceNone)
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		p.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openai error (status %d): %s", resp.StatusCode, truncate(string(body)))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return nil, fmt.Errorf("openai error: %s", chatResp.Error.Message)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("openai: no response choices returned")
	}

	choice := chatResp.Choices[0]
	out := &driven.InferenceResponse{StopReason: choice.FinishReason}
	if choice.Message.Content != nil {
		out.Text = *choice.Message.Content
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out, nil
}

// ModelName returns the model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Close releases resources.
func (p *Provider) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// convertMessages prepends the system prompt and maps tool turns to the
// function-calling message shapes.
func convertMessages(system string, messages []domain.Message) []chatMessage {
	result := make([]chatMessage, 0, len(messages)+1)
	if system != "" {
		result = append(result, chatMessage{Role: "system", Content: system})
	}

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			result = append(result, chatMessage{Role: "user", Content: msg.Content})

		case domain.RoleAssistant:
			m := chatMessage{Role: "assistant", Content: msg.Content}
			if tc := msg.ToolCall; tc != nil {
				call := chatToolCall{ID: tc.ID, Type: "function"}
				call.Function.Name = tc.Name
				call.Function.Arguments = string(tc.Arguments)
				m.ToolCalls = []chatToolCall{call}
			}
			result = append(result, m)

		case domain.RoleTool:
			result = append(result, chatMessage{Role: "tool", Content: msg.Content, ToolCallID: msg.ToolCallID})
		}
	}
	return result
}

func convertTools(tools []domain.ToolSpec) []chatTool {
	if len(tools) == 0 {
		return nil
	}
	result := make([]chatTool, len(tools))
	for i, tool := range tools {
		result[i] = chatTool{
			Type: "function",
			Function: chatFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}
	return result
}

func truncate(s string) string {
	if len(s) <= maxErrorBodyLen {
		return s
	}
	return s[:maxErrorBodyLen] + "..."
}
