package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/regdesk/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// --- Test doubles for agent testing ---

// scriptedProvider replays responses in order, repeating the last one.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []driven.InferenceResponse
	errs      []error
	requests  []driven.InferenceRequest
}

func (p *scriptedProvider) Complete(ctx context.Context, req driven.InferenceRequest) (*driven.InferenceResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req.Messages = append([]domain.Message(nil), req.Messages...)
	p.requests = append(p.requests, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	i := len(p.requests) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i >= len(p.responses) {
		i = len(p.responses) - 1
	}
	resp := p.responses[i]
	return &resp, nil
}

func (p *scriptedProvider) ModelName() string { return "scripted" }
func (p *scriptedProvider) Close() error      { return nil }

func (p *scriptedProvider) request(t *testing.T, i int) driven.InferenceRequest {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.Greater(t, len(p.requests), i)
	return p.requests[i]
}

// spyRegistry records calls and delegates to a real registry.
type spyRegistry struct {
	*ToolRegistry
	mu    sync.Mutex
	calls []domain.ToolCall
}

func (s *spyRegistry) Call(ctx context.Context, call domain.ToolCall) (*domain.ToolResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
	return s.ToolRegistry.Call(ctx, call)
}

func toolCallResponse(name, args string) driven.InferenceResponse {
	return driven.InferenceResponse{
		ToolCalls:  []domain.ToolCall{{ID: "toolu_" + name, Name: name, Arguments: json.RawMessage(args)}},
		StopReason: "tool_use",
	}
}

func answer(text string) driven.InferenceResponse {
	return driven.InferenceResponse{Text: text, StopReason: "end_turn"}
}

func testAgentConfig() domain.AgentConfig {
	return domain.AgentConfig{
		MaxTokens:       512,
		MaxToolTurns:    3,
		MaxParseRetries: 2,
		HistoryTurns:    6,
		TurnTimeout:     5 * time.Second,
	}
}

func newAgentFixture(t *testing.T, provider *scriptedProvider, cfg domain.AgentConfig) (*ConversationService, *spyRegistry, *memory.DocumentStore) {
	t.Helper()
	store := memory.NewDocumentStore()
	registry := &spyRegistry{ToolRegistry: NewToolRegistry()}
	require.NoError(t, RegisterDocumentTools(registry.ToolRegistry, store, domain.ToolsConfig{MaxRows: 20}))

	svc := NewConversationService(provider, registry, cfg, domain.ToolsConfig{MaxResultBytes: 16 * 1024})
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, registry, store
}

// --- Tests ---

func TestSession_ExecutiveOrdersQuestionUsesOneFilteredToolCall(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		toolCallResponse(ToolSearchDocuments,
			`{"document_type":"executive_order","published_after":"2025-02-09","published_before":"2025-03-10"}`),
		answer("At least ten executive orders were published, including 2025-eo-12."),
	}}
	svc, registry, store := newAgentFixture(t, provider, testAgentConfig())
	insertDocs(t, store,
		doc("2025-1", domain.DocumentTypeExecutiveOrder, "2025-01-15", "Executive Office of the President"),
		doc("2025-3", domain.DocumentTypeRule, "2025-02-21", "Environmental Protection Agency"),
		doc("2025-late", domain.DocumentTypeExecutiveOrder, "2025-03-11", "Executive Office of the President"),
	)
	// More matches than the default row cap.
	for day := 10; day <= 21; day++ {
		id := fmt.Sprintf("2025-eo-%02d", day-9)
		insertDocs(t, store, doc(id, domain.DocumentTypeExecutiveOrder, fmt.Sprintf("2025-02-%02d", day), "Executive Office of the President"))
	}

	reply, err := svc.NewSession().Submit(context.Background(), "What executive orders were published in the last month?")
	require.NoError(t, err)

	assert.Equal(t, "At least ten executive orders were published, including 2025-eo-12.", reply.Text)
	assert.Equal(t, 1, reply.ToolCalls)
	assert.False(t, reply.Partial)
	assert.False(t, reply.Failed)

	require.Len(t, registry.calls, 1)
	var args map[string]any
	require.NoError(t, json.Unmarshal(registry.calls[0].Arguments, &args))
	assert.Equal(t, "executive_order", args["document_type"])
	assert.Equal(t, "2025-02-09", args["published_after"])
	assert.Equal(t, "2025-03-10", args["published_before"])

	// The tool result reaches the model as a tool message tied to the call.
	second := provider.request(t, 1)
	last := second.Messages[len(second.Messages)-1]
	assert.Equal(t, domain.RoleTool, last.Role)
	assert.Equal(t, "toolu_search_documents", last.ToolCallID)
	assert.False(t, last.IsError)

	var result struct {
		Count     int  `json:"count"`
		Truncated bool `json:"truncated"`
		Rows      []struct {
			DocumentID   string `json:"document_id"`
			DocumentType string `json:"document_type"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal([]byte(last.Content), &result))
	assert.Equal(t, defaultToolRows, result.Count, "capped at the default row limit")
	assert.True(t, result.Truncated)
	require.Len(t, result.Rows, defaultToolRows)
	assert.Equal(t, "2025-eo-12", result.Rows[0].DocumentID, "newest first")
	for _, row := range result.Rows {
		assert.Equal(t, "executive_order", row.DocumentType)
		assert.NotEqual(t, "2025-1", row.DocumentID)
		assert.NotEqual(t, "2025-late", row.DocumentID)
	}

	first := provider.request(t, 0)
	assert.Len(t, first.Tools, 4)
	assert.Contains(t, first.System, "2025-03-10")
	assert.Equal(t, 512, first.MaxTokens)
}

func TestSession_ToolTurnBudgetIsEnforced(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		toolCallResponse(ToolCountDocuments, `{}`),
	}}
	svc, registry, _ := newAgentFixture(t, provider, testAgentConfig())

	reply, err := svc.NewSession().Submit(context.Background(), "Keep counting forever")
	require.NoError(t, err)

	assert.Len(t, registry.calls, 3, "exactly the configured number of tool calls")
	assert.Equal(t, 3, reply.ToolCalls)
	assert.True(t, reply.Partial)
	assert.True(t, strings.HasSuffix(reply.Text, PartialResultsDisclaimer))
	assert.Contains(t, reply.Text, partialFallbackAnswer)

	// Three tool turns, the over-budget request, then one forced summary.
	require.Len(t, provider.requests, 5)
	summary := provider.request(t, 4)
	assert.Len(t, summary.Tools, 4, "tools stay declared for the transcript")
	assert.Equal(t, driven.ToolChoiceNone, summary.ToolChoice)
	assert.NotContains(t, summary.System, "tool_name")
	assert.Equal(t, summaryInstruction, summary.Messages[len(summary.Messages)-1].Content)
}

func TestSession_ForcedSummaryUsesModelAnswer(t *testing.T) {
	cfg := testAgentConfig()
	cfg.MaxToolTurns = 1
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		toolCallResponse(ToolCountDocuments, `{}`),
		toolCallResponse(ToolListAgencies, `{}`),
		answer("There are no stored documents yet."),
	}}
	svc, registry, _ := newAgentFixture(t, provider, cfg)

	reply, err := svc.NewSession().Submit(context.Background(), "How many documents and agencies?")
	require.NoError(t, err)

	assert.Len(t, registry.calls, 1)
	assert.True(t, reply.Partial)
	assert.Equal(t, "There are no stored documents yet.\n\n"+PartialResultsDisclaimer, reply.Text)
}

func TestSession_ParseFailureIsRetriedWithCorrection(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		{Text: `{"tool_name": "search_documents", "arguments": {`},
		answer("Nothing matched."),
	}}
	svc, registry, _ := newAgentFixture(t, provider, testAgentConfig())

	reply, err := svc.NewSession().Submit(context.Background(), "Any rules about ozone?")
	require.NoError(t, err)

	assert.Equal(t, "Nothing matched.", reply.Text)
	assert.Empty(t, registry.calls)

	retry := provider.request(t, 1)
	last := retry.Messages[len(retry.Messages)-1]
	assert.Equal(t, domain.RoleUser, last.Role)
	assert.Contains(t, last.Content, "could not be used")
}

func TestSession_ParseRetriesAreBounded(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{{Text: `{"tool_name": `}}}
	svc, _, _ := newAgentFixture(t, provider, testAgentConfig())

	reply, err := svc.NewSession().Submit(context.Background(), "Hello?")
	require.NoError(t, err)

	assert.True(t, reply.Failed)
	assert.Equal(t, GenericFailureAnswer, reply.Text)
	assert.Len(t, provider.requests, 3, "first attempt plus two corrective retries")
}

func TestSession_InvalidToolCallIsReportedToModel(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		toolCallResponse(ToolSearchDocuments, `{"sql":"DROP TABLE documents"}`),
		answer("I could not run that search."),
	}}
	svc, registry, _ := newAgentFixture(t, provider, testAgentConfig())

	reply, err := svc.NewSession().Submit(context.Background(), "Delete everything")
	require.NoError(t, err)

	assert.Equal(t, "I could not run that search.", reply.Text)
	assert.Len(t, registry.calls, 1)

	second := provider.request(t, 1)
	toolMsg := second.Messages[len(second.Messages)-1]
	assert.True(t, toolMsg.IsError)
	assert.True(t, strings.HasPrefix(toolMsg.Content, toolErrorPrefix))
	assert.Contains(t, toolMsg.Content, "sql")
}

func TestSession_ProviderErrorYieldsGenericAnswer(t *testing.T) {
	provider := &scriptedProvider{
		responses: []driven.InferenceResponse{answer("unused")},
		errs:      []error{errors.New("503 overloaded")},
	}
	svc, _, _ := newAgentFixture(t, provider, testAgentConfig())

	reply, err := svc.NewSession().Submit(context.Background(), "Anything new?")
	require.NoError(t, err)
	assert.True(t, reply.Failed)
	assert.Equal(t, GenericFailureAnswer, reply.Text)
	assert.NotContains(t, reply.Text, "503")
}

func TestSession_CancellationIsReturned(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{answer("unused")}}
	svc, _, _ := newAgentFixture(t, provider, testAgentConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reply, err := svc.NewSession().Submit(ctx, "Anything new?")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, reply)
}

func TestSession_HistoryWindow(t *testing.T) {
	cfg := testAgentConfig()
	cfg.HistoryTurns = 1
	provider := &scriptedProvider{responses: []driven.InferenceResponse{
		answer("first answer"),
		answer("second answer"),
		answer("third answer"),
	}}
	svc, _, _ := newAgentFixture(t, provider, cfg)
	session := svc.NewSession()
	ctx := context.Background()

	for _, q := range []string{"first", "second", "third"} {
		_, err := session.Submit(ctx, q)
		require.NoError(t, err)
	}

	third := provider.request(t, 2)
	require.Len(t, third.Messages, 3)
	assert.Equal(t, "second", third.Messages[0].Content)
	assert.Equal(t, "second answer", third.Messages[1].Content)
	assert.Equal(t, "third", third.Messages[2].Content)
}

func TestSession_SessionsAreIsolated(t *testing.T) {
	provider := &scriptedProvider{responses: []driven.InferenceResponse{answer("ok")}}
	svc, _, _ := newAgentFixture(t, provider, testAgentConfig())

	a, b := svc.NewSession(), svc.NewSession()
	assert.NotEqual(t, a.ID(), b.ID())

	_, err := a.Submit(context.Background(), "from a")
	require.NoError(t, err)
	_, err = b.Submit(context.Background(), "from b")
	require.NoError(t, err)

	assert.Len(t, provider.request(t, 1).Messages, 1, "b does not see a's history")
}

func TestSession_EmptyUtterance(t *testing.T) {
	svc, _, _ := newAgentFixture(t, &scriptedProvider{responses: []driven.InferenceResponse{answer("x")}}, testAgentConfig())
	_, err := svc.NewSession().Submit(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
