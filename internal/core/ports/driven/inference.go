package driven

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// InferenceProvider is a stateless conversational model.
// Each call carries the whole context; the provider keeps no session.
//
// Implementations include:
//   - Anthropic (Claude) via the official SDK
//   - OpenAI-compatible chat completion APIs (OpenAI, Ollama, LM Studio)
type InferenceProvider interface {
	// Complete produces one model response.
	Complete(ctx context.Context, req InferenceRequest) (*InferenceResponse, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// InferenceRequest is one model request.
type InferenceRequest struct {
	// System is the system prompt.
	System string

	// Messages is the conversation so far, oldest first.
	Messages []domain.Message

	// Tools declares the callable tools.
	Tools []domain.ToolSpec

	// ToolChoice controls whether the model may call Tools.
	// The zero value lets the model decide.
	ToolChoice ToolChoice

	// MaxTokens caps the response length.
	MaxTokens int
}

// ToolChoice restricts tool use for one request.
type ToolChoice string

// Tool choices.
const (
	ToolChoiceAuto ToolChoice = ""
	ToolChoiceNone ToolChoice = "none"
)

// InferenceResponse is one model response.
type InferenceResponse struct {
	// Text is the concatenated text output.
	Text string

	// ToolCalls holds native tool-use requests, if the provider supports them.
	ToolCalls []domain.ToolCall

	// StopReason is the provider's stop reason, for logging.
	StopReason string
}
