package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/services"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// registerTools mirrors every registry tool as an MCP tool. The registry
// validates arguments, so the MCP schema is advertised as declared.
func (s *Server) registerTools() error {
	for _, spec := range s.ports.Tools.Specs() {
		var schema map[string]any
		if err := json.Unmarshal(spec.Parameters, &schema); err != nil {
			return fmt.Errorf("tool %s schema: %w", spec.Name, err)
		}
		s.server.AddTool(&mcp.Tool{
			Name:        spec.Name,
			Description: spec.Description,
			InputSchema: schema,
		}, s.handleToolCall)
		s.tools = append(s.tools, spec.Name)
	}
	return nil
}

// handleToolCall dispatches an MCP tool call to the registry.
// Invalid calls come back as tool errors so the client model can correct them.
func (s *Server) handleToolCall(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call := domain.ToolCall{
		Name:      req.Params.Name,
		Arguments: req.Params.Arguments,
	}

	result, err := s.ports.Tools.Call(ctx, call)
	if err != nil {
		var invalid *domain.InvalidToolCallError
		if errors.As(err, &invalid) {
			logger.Debug("MCP tool call rejected: %v", err)
			return errorResult(invalid.Error()), nil
		}
		logger.Warn("MCP tool %s failed: %v", call.Name, err)
		return nil, fmt.Errorf("tool %s: %w", call.Name, err)
	}

	text, err := services.EncodeToolResult(result, s.ports.MaxResultBytes)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
