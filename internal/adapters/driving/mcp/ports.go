package mcp

import (
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Tools provides the schema-validated document tools.
	Tools driving.ToolRegistry

	// Pipeline reports ingestion status. Optional.
	Pipeline driving.PipelineOrchestrator

	// MaxResultBytes caps serialised tool results. Zero disables the cap.
	MaxResultBytes int
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Tools == nil {
		return ErrMissingToolRegistry
	}
	return nil
}
