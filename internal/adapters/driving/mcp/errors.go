// Package mcp provides an MCP (Model Context Protocol) server adapter for regdesk.
// It exposes the read-only document tools to MCP clients such as Claude Desktop.
package mcp

import "errors"

// ErrMissingToolRegistry is returned when the tool registry is not provided.
var ErrMissingToolRegistry = errors.New("mcp: tool registry is required")
