// Package anthropic provides an inference provider adapter using the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// Ensure Provider implements the interface.
var _ driven.InferenceProvider = (*Provider)(nil)

// Default configuration values.
const (
	DefaultModel     = "claude-sonnet-4-5"
	DefaultTimeout   = 120 * time.Second
	DefaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic provider.
type Config struct {
	// APIKey is the Anthropic API key (required).
	APIKey string

	// BaseURL overrides the API root.
	BaseURL string

	// Model is the model to use (default: claude-sonnet-4-5).
	Model string

	// Timeout is the request timeout (default: 120s).
	Timeout time.Duration

	// MaxRetries is the SDK retry count for transient API errors.
	// Zero keeps the SDK default; negative disables retries.
	MaxRetries int

	// HTTPClient replaces the default HTTP client.
	HTTPClient *http.Client
}

// Provider answers inference requests with Claude models.
type Provider struct {
	client anthropic.Client
	model  string
}

// NewProvider creates a new Anthropic provider.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.MaxRetries != 0 {
		opts = append(opts, option.WithMaxRetries(max(cfg.MaxRetries, 0)))
	}

	return &Provider{
		client: anthropic.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Complete sends one Messages API request.
func (p *Provider) Complete(ctx context.Context, req driven.InferenceRequest) (*driven.InferenceResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = DefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  convertMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := convertTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
		if req.ToolChoice == driven.ToolChoiceNone {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
		}
	}

	msg, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w", err)
	}
	return convertResponse(msg), nil
}

// ModelName returns the model being used.
func (p *Provider) ModelName() string {
	return p.model
}

// Close releases resources.
func (p *Provider) Close() error {
	return nil
}

// convertMessages maps the conversation to Messages API turns. Tool results
// travel in user turns, and consecutive user turns are merged so roles
// alternate.
func convertMessages(messages []domain.Message) []anthropic.MessageParam {
	result := make([]anthropic.MessageParam, 0, len(messages))

	appendTurn := func(role anthropic.MessageParamRole, blocks ...anthropic.ContentBlockParamUnion) {
		if len(blocks) == 0 {
			return
		}
		if n := len(result); n > 0 && result[n-1].Role == role {
			result[n-1].Content = append(result[n-1].Content, blocks...)
			return
		}
		result = append(result, anthropic.MessageParam{Role: role, Content: blocks})
	}

	for _, msg := range messages {
		switch msg.Role {
		case domain.RoleUser:
			if msg.Content != "" {
				appendTurn(anthropic.MessageParamRoleUser, anthropic.NewTextBlock(msg.Content))
			}

		case domain.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if strings.TrimSpace(msg.Content) != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			if tc := msg.ToolCall; tc != nil {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: json.RawMessage(tc.Arguments),
					},
				})
			}
			appendTurn(anthropic.MessageParamRoleAssistant, blocks...)

		case domain.RoleTool:
			appendTurn(anthropic.MessageParamRoleUser,
				anthropic.NewToolResultBlock(msg.ToolCallID, msg.Content, msg.IsError))
		}
	}

	return result
}

// convertTools maps tool specs to Anthropic tool definitions.
func convertTools(tools []domain.ToolSpec) ([]anthropic.ToolUnionParam, error) {
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var schema struct {
			Properties map[string]any `json:"properties"`
			Required   []string       `json:"required"`
		}
		if err := json.Unmarshal(tool.Parameters, &schema); err != nil {
			return nil, fmt.Errorf("anthropic: tool %s schema: %w", tool.Name, err)
		}
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: schema.Properties,
					Required:   schema.Required,
				},
			},
		}
	}
	return result, nil
}

// convertResponse collects text and tool-use blocks.
func convertResponse(msg *anthropic.Message) *driven.InferenceResponse {
	resp := &driven.InferenceResponse{StopReason: string(msg.StopReason)}

	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			resp.ToolCalls = append(resp.ToolCalls, domain.ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: json.RawMessage(b.Input),
			})
		}
	}
	resp.Text = text.String()

	return resp
}
