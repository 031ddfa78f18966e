package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

// User-visible fallback texts.
const (
	// GenericFailureAnswer replaces any answer the agent could not produce.
	GenericFailureAnswer = "Sorry, I couldn't answer that right now. " +
		"Please try rephrasing your question or ask again in a moment."

	// PartialResultsDisclaimer is appended when the tool budget ran out.
	PartialResultsDisclaimer = "Note: this answer is based on partial results " +
		"because the lookup limit for a single question was reached."

	partialFallbackAnswer = "I looked through the stored documents but could not " +
		"finish gathering everything needed for a complete answer."

	correctiveInstruction = "Your previous reply could not be used: %s. " +
		"Either answer in plain text, or request exactly one tool with a bare JSON object " +
		`of the form {"tool_name": "<name>", "arguments": {...}} and nothing else.`

	summaryInstruction = "The lookup limit for this question has been reached. " +
		"Do not request any more tools. Answer now using only the results above."

	toolErrorPrefix = "error: "
)

// ConversationService answers questions about stored documents by letting a
// model call read-only tools.
type ConversationService struct {
	provider driven.InferenceProvider
	tools    driving.ToolRegistry
	config   domain.AgentConfig
	maxBytes int
	now      func() time.Time
}

// NewConversationService creates a conversation service.
func NewConversationService(
	provider driven.InferenceProvider,
	tools driving.ToolRegistry,
	agentCfg domain.AgentConfig,
	toolsCfg domain.ToolsConfig,
) *ConversationService {
	return &ConversationService{
		provider: provider,
		tools:    tools,
		config:   agentCfg,
		maxBytes: toolsCfg.MaxResultBytes,
		now:      time.Now,
	}
}

// NewSession starts an empty conversation.
func (s *ConversationService) NewSession() driving.Session {
	return &Session{
		id:  uuid.New().String(),
		svc: s,
	}
}

// Session is one conversation. Submit calls are serialised.
type Session struct {
	id  string
	svc *ConversationService

	mu      sync.Mutex
	history []domain.Message
}

// ID identifies the session in logs.
func (s *Session) ID() string {
	return s.id
}

// turn is the working state of one utterance.
type turn struct {
	state        domain.AgentState
	messages     []domain.Message
	toolCalls    int
	parseRetries int
	log          *logger.Scoped
}

// Submit answers one user utterance.
func (s *Session) Submit(ctx context.Context, utterance string) (*domain.Reply, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	utterance = strings.TrimSpace(utterance)
	if utterance == "" {
		return nil, fmt.Errorf("%w: empty utterance", domain.ErrInvalidInput)
	}

	if s.svc.config.TurnTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.svc.config.TurnTimeout)
		defer cancel()
	}

	t := &turn{
		state:    domain.AgentModelTurn,
		messages: append(s.window(), domain.Message{Role: domain.RoleUser, Content: utterance}),
		log:      logger.With("session", s.id),
	}

	reply, err := s.run(ctx, t)
	if err != nil {
		return nil, err
	}

	s.history = append(s.history,
		domain.Message{Role: domain.RoleUser, Content: utterance},
		domain.Message{Role: domain.RoleAssistant, Content: reply.Text},
	)
	t.state = domain.AgentDone
	t.log.Info("utterance answered", "tool_calls", reply.ToolCalls, "partial", reply.Partial, "failed", reply.Failed)
	return reply, nil
}

// run drives MODEL_TURN, TOOL_DISPATCH and MODEL_SUMMARY until DONE.
func (s *Session) run(ctx context.Context, t *turn) (*domain.Reply, error) {
	cfg := s.svc.config
	tools := s.svc.tools.Specs()

	for {
		resp, err := s.complete(ctx, t.messages, tools, driven.ToolChoiceAuto)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
				return nil, ctxErr
			}
			t.log.Error("inference failed", "state", string(t.state), "error", err)
			return s.failed(t), nil
		}

		reply := ParseModelReply(resp)
		switch reply.Kind {
		case domain.ReplyAnswer:
			return &domain.Reply{Text: reply.Text, ToolCalls: t.toolCalls}, nil

		case domain.ReplyParseFailure:
			t.parseRetries++
			t.log.Warn("unparseable model reply", "reason", reply.Err.Reason, "retry", t.parseRetries)
			if t.parseRetries > cfg.MaxParseRetries {
				return s.failed(t), nil
			}
			t.messages = append(t.messages,
				domain.Message{Role: domain.RoleAssistant, Content: resp.Text},
				domain.Message{Role: domain.RoleUser, Content: fmt.Sprintf(correctiveInstruction, reply.Err.Reason)},
			)

		case domain.ReplyToolCall:
			if t.toolCalls >= cfg.MaxToolTurns {
				t.log.Warn("tool budget exhausted", "error", &domain.ToolTurnBudgetExceeded{Limit: cfg.MaxToolTurns})
				return s.summarise(ctx, t)
			}

			t.state = domain.AgentToolDispatch
			t.toolCalls++
			content, isErr := s.dispatch(ctx, t, reply.Call)
			if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			t.messages = append(t.messages,
				domain.Message{Role: domain.RoleAssistant, Content: reply.Text, ToolCall: reply.Call},
				domain.Message{Role: domain.RoleTool, Content: content, ToolCallID: reply.Call.ID, IsError: isErr},
			)
			t.state = domain.AgentModelSummary
		}
	}
}

// summarise forces a final answer once the budget is spent. The tools stay
// declared because the transcript holds tool calls, but none may be used.
func (s *Session) summarise(ctx context.Context, t *turn) (*domain.Reply, error) {
	t.state = domain.AgentModelSummary
	messages := append(t.messages, domain.Message{Role: domain.RoleUser, Content: summaryInstruction})

	text := partialFallbackAnswer
	resp, err := s.complete(ctx, messages, s.svc.tools.Specs(), driven.ToolChoiceNone)
	switch {
	case err != nil:
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, ctxErr
		}
		t.log.Warn("forced summary failed", "error", err)
	default:
		if reply := ParseModelReply(resp); reply.Kind == domain.ReplyAnswer {
			text = reply.Text
		}
	}

	return &domain.Reply{
		Text:      text + "\n\n" + PartialResultsDisclaimer,
		ToolCalls: t.toolCalls,
		Partial:   true,
	}, nil
}

// dispatch runs one tool call and renders its outcome for the model.
// Invalid calls are reported back so the model can correct itself.
func (s *Session) dispatch(ctx context.Context, t *turn, call *domain.ToolCall) (string, bool) {
	result, err := s.svc.tools.Call(ctx, *call)
	if err != nil {
		if domain.IsInvalidToolCall(err) {
			t.log.Warn("invalid tool call", "tool", call.Name, "error", err)
			return toolErrorPrefix + err.Error(), true
		}
		t.log.Error("tool failed", "tool", call.Name, "error", err)
		return toolErrorPrefix + "the tool could not run; try a different request or answer with what you have", true
	}

	content, err := EncodeToolResult(result, s.svc.maxBytes)
	if err != nil {
		t.log.Error("encode tool result", "tool", call.Name, "error", err)
		return toolErrorPrefix + "the tool result could not be encoded", true
	}
	t.log.Debug("tool dispatched", "tool", call.Name, "rows", result.Count, "truncated", result.Truncated)
	return content, false
}

func (s *Session) complete(
	ctx context.Context,
	messages []domain.Message,
	tools []domain.ToolSpec,
	choice driven.ToolChoice,
) (*driven.InferenceResponse, error) {
	return s.svc.provider.Complete(ctx, driven.InferenceRequest{
		System:     s.svc.systemPrompt(len(tools) > 0 && choice != driven.ToolChoiceNone),
		Messages:   messages,
		Tools:      tools,
		ToolChoice: choice,
		MaxTokens:  s.svc.config.MaxTokens,
	})
}

func (s *Session) failed(t *turn) *domain.Reply {
	return &domain.Reply{Text: GenericFailureAnswer, ToolCalls: t.toolCalls, Failed: true}
}

// window returns the most recent exchanges kept as context.
func (s *Session) window() []domain.Message {
	keep := 2 * s.svc.config.HistoryTurns
	start := max(len(s.history)-keep, 0)
	return append([]domain.Message(nil), s.history[start:]...)
}

// systemPrompt describes the assistant's job and the tool protocol.
func (s *ConversationService) systemPrompt(withTools bool) string {
	var b strings.Builder
	b.WriteString("You answer questions about U.S. Federal Register documents stored in a local database. ")
	fmt.Fprintf(&b, "Today's date is %s. ", s.now().UTC().Format(domain.DateLayout))
	b.WriteString("Base every factual statement on tool results and cite document numbers. ")
	b.WriteString("If the results do not contain the answer, say so instead of guessing.\n")
	if !withTools {
		return b.String()
	}
	fmt.Fprintf(&b, "You may use at most %d tool calls per question, one at a time. ", s.config.MaxToolTurns)
	b.WriteString("Dates are YYYY-MM-DD and date filters are inclusive. ")
	fmt.Fprintf(&b, "To summarise a document, read it with %s first. ", ToolGetDocument)
	b.WriteString("Document types are: ")
	for i, typ := range domain.DocumentTypes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(typ.String())
	}
	b.WriteString(".\nIf native tool calling is unavailable, request a tool by replying with only ")
	b.WriteString(`{"tool_name": "<name>", "arguments": {...}}`)
	b.WriteString(" and nothing else.")
	return b.String()
}
