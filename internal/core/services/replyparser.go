package services

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driven"
)

// fencedJSON matches a single fenced code block, optionally tagged json.
var fencedJSON = regexp.MustCompile("(?s)^```(?:json|JSON)?\\s*(.*?)\\s*```$")

// textToolCall is the text-carried tool call protocol:
// {"tool_name": "...", "arguments": {...}}.
type textToolCall struct {
	ToolName  *string         `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ParseModelReply classifies a model response as exactly one of an answer,
// a tool call, or a parse failure. Native tool calls win over text; only the
// first native call is used.
func ParseModelReply(resp *driven.InferenceResponse) domain.ModelReply {
	text := strings.TrimSpace(resp.Text)

	if len(resp.ToolCalls) > 0 {
		call := resp.ToolCalls[0]
		return toolCallReply(text, call.ID, call.Name, call.Arguments)
	}

	if text == "" {
		return parseFailure("empty response")
	}

	candidate := text
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		candidate = m[1]
	}

	if strings.HasPrefix(candidate, "{") {
		var tc textToolCall
		err := json.Unmarshal([]byte(candidate), &tc)
		switch {
		case err == nil && tc.ToolName != nil:
			return toolCallReply("", "", *tc.ToolName, tc.Arguments)
		case err != nil && strings.Contains(candidate, `"tool_name"`):
			return parseFailure("tool call is not valid JSON")
		}
	} else if strings.Contains(text, `"tool_name"`) {
		return parseFailure(`tool call must be a bare JSON object {"tool_name": ..., "arguments": {...}}`)
	}

	return domain.ModelReply{Kind: domain.ReplyAnswer, Text: text}
}

func toolCallReply(text, id, name string, args json.RawMessage) domain.ModelReply {
	name = strings.TrimSpace(name)
	if name == "" {
		return parseFailure("tool call has no tool name")
	}

	args = bytes.TrimSpace(args)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = json.RawMessage("{}")
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(args, &obj); err != nil {
		return parseFailure("tool arguments must be a JSON object")
	}

	if id == "" {
		id = "call_" + strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return domain.ModelReply{
		Kind: domain.ReplyToolCall,
		Text: text,
		Call: &domain.ToolCall{ID: id, Name: name, Arguments: args},
	}
}

func parseFailure(reason string) domain.ModelReply {
	return domain.ModelReply{
		Kind: domain.ReplyParseFailure,
		Err:  &domain.ToolCallParseError{Reason: reason},
	}
}
