package driving

import (
	"context"

	"github.com/custodia-labs/regdesk/internal/core/domain"
)

// ToolRegistry exposes named, schema-validated, read-only tools.
type ToolRegistry interface {
	// Specs returns the declared tools in registration order.
	Specs() []domain.ToolSpec

	// Call validates the call's arguments against the tool's schema and
	// invokes it. Unknown tools and invalid arguments yield a
	// *domain.InvalidToolCallError.
	Call(ctx context.Context, call domain.ToolCall) (*domain.ToolResult, error)
}
