package domain

import "encoding/json"

// ToolSpec declares a tool to the inference provider.
type ToolSpec struct {
	// Name is the unique tool name.
	Name string

	// Description tells the model when to use the tool.
	Description string

	// Parameters is the JSON Schema of the argument object.
	Parameters json.RawMessage
}

// ToolCall is a structured request from the model to invoke a tool.
type ToolCall struct {
	// ID correlates the call with its result for providers that need it.
	ID string `json:"id,omitempty"`

	// Name is the requested tool.
	Name string `json:"tool_name"`

	// Arguments is the JSON argument object.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolResult is the serialisable, row-capped output of a tool.
type ToolResult struct {
	// Tool is the tool that produced the result.
	Tool string `json:"tool"`

	// Count is the number of rows returned.
	Count int `json:"count"`

	// Truncated is true when more rows matched than were returned.
	Truncated bool `json:"truncated"`

	// Rows holds the result rows.
	Rows []any `json:"rows"`
}
