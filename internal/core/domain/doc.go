// Package domain defines the core business entities for regdesk.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A regulatory document as stored locally
//   - Agency: A publishing agency, deduplicated by normalised name
//   - RawRecord: An upstream record before normalisation
//   - Watermark: The persisted ingestion cursor
//   - ToolCall / ToolResult: The model-facing tool contract
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
