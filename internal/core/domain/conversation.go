package domain

// Role identifies the author of a conversation message.
type Role string

// Message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation entry sent to the inference provider.
type Message struct {
	// Role is the author.
	Role Role

	// Content is the message text. For RoleTool it is the tool output.
	Content string

	// ToolCall is set on assistant messages that requested a tool.
	ToolCall *ToolCall

	// ToolCallID links a RoleTool message to the call it answers.
	ToolCallID string

	// IsError marks a RoleTool message carrying a tool error.
	IsError bool
}

// ReplyKind tags a parsed model response.
type ReplyKind int

const (
	// ReplyAnswer is a direct natural-language answer.
	ReplyAnswer ReplyKind = iota

	// ReplyToolCall is a structured tool invocation request.
	ReplyToolCall

	// ReplyParseFailure is a response that is neither.
	ReplyParseFailure
)

// String returns the string representation.
func (k ReplyKind) String() string {
	switch k {
	case ReplyAnswer:
		return "answer"
	case ReplyToolCall:
		return "tool_call"
	case ReplyParseFailure:
		return "parse_failure"
	default:
		return "unknown"
	}
}

// ModelReply is a model response parsed into exactly one of
// Answer(text), ToolCall(name, args) or ParseFailure.
type ModelReply struct {
	// Kind selects which of the other fields is meaningful.
	Kind ReplyKind

	// Text is the answer text, or any text accompanying a tool call.
	Text string

	// Call is set when Kind is ReplyToolCall.
	Call *ToolCall

	// Err is set when Kind is ReplyParseFailure.
	Err *ToolCallParseError
}

// AgentState is a state of the per-conversation tool-calling machine.
type AgentState string

// Agent loop states.
const (
	AgentAwaitUser    AgentState = "AWAIT_USER"
	AgentModelTurn    AgentState = "MODEL_TURN"
	AgentToolDispatch AgentState = "TOOL_DISPATCH"
	AgentModelSummary AgentState = "MODEL_SUMMARY"
	AgentDone         AgentState = "DONE"
)

// Reply is what the transport delivers back for one utterance.
type Reply struct {
	// Text is the user-visible answer.
	Text string

	// ToolCalls is the number of tools dispatched for this utterance.
	ToolCalls int

	// Partial is true when the tool budget cut the turn short.
	Partial bool

	// Failed is true when the generic failure answer was returned.
	Failed bool
}
