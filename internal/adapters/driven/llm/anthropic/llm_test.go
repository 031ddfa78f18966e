package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// capturedRequest is the subset of a Messages API request the tests inspect.
type capturedRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string           `json:"role"`
		Content []map[string]any `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string         `json:"name"`
		Description string         `json:"description"`
		InputSchema map[string]any `json:"input_schema"`
	} `json:"tools"`
	ToolChoice *struct {
		Type string `json:"type"`
	} `json:"tool_choice"`
}

func newTestProvider(t *testing.T, status int, body string, captured *capturedRequest) *Provider {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		raw, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		if captured != nil {
			assert.NoError(t, json.Unmarshal(raw, captured))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	p, err := NewProvider(Config{
		APIKey:     "test-key",
		BaseURL:    server.URL,
		Model:      "claude-test",
		MaxRetries: -1,
	})
	require.NoError(t, err)
	return p
}

func TestNewProvider_RequiresAPIKey(t *testing.T) {
	_, err := NewProvider(Config{})
	assert.Error(t, err)
}

func TestNewProvider_Defaults(t *testing.T) {
	p, err := NewProvider(Config{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, p.ModelName())
	assert.NoError(t, p.Close())
}

func TestComplete_TextAnswer(t *testing.T) {
	var got capturedRequest
	p := newTestProvider(t, http.StatusOK, `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "Two rules were published."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &got)

	resp, err := p.Complete(context.Background(), driven.InferenceRequest{
		System:    "You answer questions.",
		Messages:  []domain.Message{{Role: domain.RoleUser, Content: "How many rules?"}},
		MaxTokens: 256,
	})
	require.NoError(t, err)

	assert.Equal(t, "Two rules were published.", resp.Text)
	assert.Empty(t, resp.ToolCalls)
	assert.Equal(t, "end_turn", resp.StopReason)

	assert.Equal(t, "claude-test", got.Model)
	assert.Equal(t, 256, got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "You answer questions.", got.System[0].Text)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Empty(t, got.Tools)
}

func TestComplete_NativeToolUse(t *testing.T) {
	var got capturedRequest
	p := newTestProvider(t, http.StatusOK, `{
		"id": "msg_2", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [
			{"type": "text", "text": "Let me search."},
			{"type": "tool_use", "id": "toolu_1", "name": "search_documents",
			 "input": {"document_type": "executive_order"}}
		],
		"stop_reason": "tool_use",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &got)

	resp, err := p.Complete(context.Background(), driven.InferenceRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "Any executive orders?"}},
		Tools: []domain.ToolSpec{{
			Name:        "search_documents",
			Description: "Search stored documents.",
			Parameters: json.RawMessage(`{"type":"object","additionalProperties":false,
				"properties":{"document_type":{"type":"string"}},"required":["document_type"]}`),
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Let me search.", resp.Text)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "toolu_1", resp.ToolCalls[0].ID)
	assert.Equal(t, "search_documents", resp.ToolCalls[0].Name)
	assert.JSONEq(t, `{"document_type":"executive_order"}`, string(resp.ToolCalls[0].Arguments))

	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "search_documents", got.Tools[0].Name)
	assert.Equal(t, "object", got.Tools[0].InputSchema["type"])
	assert.Contains(t, got.Tools[0].InputSchema["properties"], "document_type")
}

func TestComplete_ToolChoiceNoneKeepsToolsForTranscript(t *testing.T) {
	var got capturedRequest
	p := newTestProvider(t, http.StatusOK, `{
		"id": "msg_3", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "Based on the counts, there are 4 rules."}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 10, "output_tokens": 5}
	}`, &got)

	resp, err := p.Complete(context.Background(), driven.InferenceRequest{
		Messages: []domain.Message{
			{Role: domain.RoleUser, Content: "How many rules?"},
			{Role: domain.RoleAssistant, ToolCall: &domain.ToolCall{
				ID: "toolu_1", Name: "count_documents", Arguments: json.RawMessage(`{}`),
			}},
			{Role: domain.RoleTool, ToolCallID: "toolu_1", Content: `{"rows":[{"total":4}]}`},
			{Role: domain.RoleUser, Content: "Answer now."},
		},
		Tools: []domain.ToolSpec{{
			Name:       "count_documents",
			Parameters: json.RawMessage(`{"type":"object","properties":{}}`),
		}},
		ToolChoice: driven.ToolChoiceNone,
	})
	require.NoError(t, err)
	assert.Equal(t, "Based on the counts, there are 4 rules.", resp.Text)

	require.Len(t, got.Tools, 1, "tool_use blocks require declared tools")
	require.NotNil(t, got.ToolChoice)
	assert.Equal(t, "none", got.ToolChoice.Type)

	var blocks []string
	for _, m := range got.Messages {
		for _, c := range m.Content {
			blocks = append(blocks, c["type"].(string))
		}
	}
	assert.Equal(t, []string{"text", "tool_use", "tool_result", "text"}, blocks)
}

func TestComplete_ToolChoiceAutoIsOmitted(t *testing.T) {
	var got capturedRequest
	p := newTestProvider(t, http.StatusOK, `{
		"id": "msg_4", "type": "message", "role": "assistant", "model": "claude-test",
		"content": [{"type": "text", "text": "ok"}],
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 1, "output_tokens": 1}
	}`, &got)

	_, err := p.Complete(context.Background(), driven.InferenceRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
		Tools: []domain.ToolSpec{{
			Name:       "count_documents",
			Parameters: json.RawMessage(`{"type":"object","properties":{}}`),
		}},
	})
	require.NoError(t, err)
	assert.Nil(t, got.ToolChoice)
}

func TestComplete_APIError(t *testing.T) {
	p := newTestProvider(t, http.StatusBadRequest,
		`{"type":"error","error":{"type":"invalid_request_error","message":"bad"}}`, nil)

	_, err := p.Complete(context.Background(), driven.InferenceRequest{
		Messages: []domain.Message{{Role: domain.RoleUser, Content: "hi"}},
	})
	assert.Error(t, err)
}

func TestConvertMessages_ToolRoundTrip(t *testing.T) {
	call := &domain.ToolCall{ID: "toolu_1", Name: "count_documents", Arguments: json.RawMessage(`{}`)}
	params := convertMessages([]domain.Message{
		{Role: domain.RoleUser, Content: "How many?"},
		{Role: domain.RoleAssistant, ToolCall: call},
		{Role: domain.RoleTool, Content: `{"count":1}`, ToolCallID: "toolu_1"},
		{Role: domain.RoleUser, Content: "Answer now."},
	})

	require.Len(t, params, 3, "tool result and following user text share one turn")
	assert.Equal(t, "user", string(params[0].Role))
	assert.Equal(t, "assistant", string(params[1].Role))
	require.Len(t, params[1].Content, 1, "empty assistant text is dropped")
	require.NotNil(t, params[1].Content[0].OfToolUse)
	assert.Equal(t, "toolu_1", params[1].Content[0].OfToolUse.ID)

	assert.Equal(t, "user", string(params[2].Role))
	require.Len(t, params[2].Content, 2)
	require.NotNil(t, params[2].Content[0].OfToolResult)
	assert.Equal(t, "toolu_1", params[2].Content[0].OfToolResult.ToolUseID)
	require.NotNil(t, params[2].Content[1].OfText)
}

func TestConvertTools_BadSchema(t *testing.T) {
	_, err := convertTools([]domain.ToolSpec{{Name: "x", Parameters: json.RawMessage(`[`)}})
	assert.Error(t, err)
}
