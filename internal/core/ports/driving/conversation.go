package driving

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// ConversationService creates conversations. One Session serves one
// transport connection.
type ConversationService interface {
	// NewSession starts an empty conversation.
	NewSession() Session
}

// Session is a single conversation. History lives only as long as the
// Session value and is never persisted.
type Session interface {
	// ID identifies the session in logs.
	ID() string

	// Submit answers one user utterance. Failures of the model or the tools
	// are folded into a generic answer; only context cancellation is
	// returned as an error.
	Submit(ctx context.Context, utterance string) (*domain.Reply, error)
}
