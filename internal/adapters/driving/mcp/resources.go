package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/services"
)

// uriScheme is the custom URI scheme for regdesk resources.
const uriScheme = "regdesk://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Pipeline != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "pipeline/status",
			Name:        "pipeline-status",
			Description: "Ingestion status: active run, watermark and document count",
			MIMEType:    "application/json",
		}, s.handleStatusResource)
		s.resources = append(s.resources, uriScheme+"pipeline/status")
	}

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "A stored Federal Register document by document number",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
	s.resources = append(s.resources, uriScheme+"documents/{documentId}")
}

// statusInfo is the JSON shape of the pipeline status resource.
type statusInfo struct {
	Running       bool   `json:"running"`
	RunID         string `json:"run_id,omitempty"`
	State         string `json:"state,omitempty"`
	StartedAt     string `json:"started_at,omitempty"`
	LastProcessed string `json:"last_processed_date,omitempty"`
	Documents     int    `json:"documents"`
}

// handleStatusResource returns the current pipeline status.
func (s *Server) handleStatusResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	status, err := s.ports.Pipeline.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting pipeline status: %w", err)
	}

	info := statusInfo{
		Running:   status.Running,
		Documents: status.Documents,
	}
	if status.Run != nil {
		info.RunID = status.Run.ID
		info.State = string(status.Run.State)
		info.StartedAt = formatRunTime(status.Run.StartedAt)
	}
	if !status.Watermark.IsZero() {
		info.LastProcessed = domain.FormatDate(status.Watermark.LastProcessedDate)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling status: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleDocumentResource returns one document through the get_document tool,
// so resource reads share the tools' validation and size cap.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	// Extract documentId from URI: regdesk://documents/{documentId}
	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	args, err := json.Marshal(map[string]string{"document_id": docID})
	if err != nil {
		return nil, err
	}
	result, err := s.ports.Tools.Call(ctx, domain.ToolCall{Name: services.ToolGetDocument, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}
	if result.Count == 0 {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := services.EncodeToolResult(result, s.ports.MaxResultBytes)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     text,
		}},
	}, nil
}

// extractDocumentID extracts the document ID from a URI like regdesk://documents/{documentId}.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}

// formatRunTime renders a run timestamp for status output.
func formatRunTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
