package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/custodia-labs/regdesk/internal/core/domain"
	"github.com/custodia-labs/regdesk/internal/core/ports/driving"
	"github.com/custodia-labs/regdesk/internal/logger"
)

// Ensure ToolRegistry implements the interface.
var _ driving.ToolRegistry = (*ToolRegistry)(nil)

// ToolHandler executes a tool on schema-validated arguments.
type ToolHandler func(ctx context.Context, args json.RawMessage) (*domain.ToolResult, error)

type registeredTool struct {
	spec    domain.ToolSpec
	schema  *jsonschema.Schema
	handler ToolHandler
}

// ToolRegistry holds named tools with compiled argument schemas.
// Arguments are validated before any handler runs.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools map[string]*registeredTool
	order []string
}

// NewToolRegistry creates an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{tools: make(map[string]*registeredTool)}
}

// Register adds a tool. The parameter schema must describe an object and
// set additionalProperties to false.
func (r *ToolRegistry) Register(spec domain.ToolSpec, handler ToolHandler) error {
	if spec.Name == "" || handler == nil {
		return fmt.Errorf("%w: tool name and handler are required", domain.ErrInvalidInput)
	}
	if err := checkClosedObject(spec.Parameters); err != nil {
		return fmt.Errorf("tool %s: %w", spec.Name, err)
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	schemaURL := fmt.Sprintf("https://regdesk.local/tools/%s.schema.json", spec.Name)
	if err := c.AddResource(schemaURL, bytes.NewReader(spec.Parameters)); err != nil {
		return fmt.Errorf("tool %s: load schema: %w", spec.Name, err)
	}
	compiled, err := c.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("tool %s: compile schema: %w", spec.Name, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[spec.Name]; exists {
		return fmt.Errorf("%w: tool %s already registered", domain.ErrInvalidInput, spec.Name)
	}
	r.tools[spec.Name] = &registeredTool{spec: spec, schema: compiled, handler: handler}
	r.order = append(r.order, spec.Name)
	return nil
}

// Specs returns the declared tools in registration order.
func (r *ToolRegistry) Specs() []domain.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]domain.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].spec)
	}
	return specs
}

// Call validates and dispatches a tool call.
func (r *ToolRegistry) Call(ctx context.Context, call domain.ToolCall) (*domain.ToolResult, error) {
	r.mu.RLock()
	tool, ok := r.tools[call.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, &domain.InvalidToolCallError{Tool: call.Name, Reason: "unknown tool"}
	}

	args := bytes.TrimSpace(call.Arguments)
	if len(args) == 0 || bytes.Equal(args, []byte("null")) {
		args = []byte("{}")
	}

	var decoded any
	if err := json.Unmarshal(args, &decoded); err != nil {
		return nil, &domain.InvalidToolCallError{Tool: call.Name, Reason: "arguments are not valid JSON"}
	}
	if err := tool.schema.Validate(decoded); err != nil {
		return nil, &domain.InvalidToolCallError{Tool: call.Name, Reason: describeValidation(err)}
	}

	logger.Debug("Dispatching tool %s %s", call.Name, args)
	result, err := tool.handler(ctx, args)
	if err != nil {
		return nil, err
	}
	result.Tool = call.Name
	result.Count = len(result.Rows)
	return result, nil
}

// EncodeToolResult serialises a result for the model, dropping trailing rows
// until it fits in maxBytes. Dropped rows mark the result truncated.
func EncodeToolResult(result *domain.ToolResult, maxBytes int) (string, error) {
	out := *result
	for {
		data, err := json.Marshal(&out)
		if err != nil {
			return "", fmt.Errorf("encode tool result: %w", err)
		}
		if maxBytes <= 0 || len(data) <= maxBytes || len(out.Rows) == 0 {
			return string(data), nil
		}
		out.Rows = out.Rows[:len(out.Rows)-1]
		out.Count = len(out.Rows)
		out.Truncated = true
	}
}

// checkClosedObject rejects parameter schemas that would accept arbitrary
// extra fields.
func checkClosedObject(schema json.RawMessage) error {
	var s struct {
		Type                 string `json:"type"`
		AdditionalProperties *bool  `json:"additionalProperties"`
	}
	if err := json.Unmarshal(schema, &s); err != nil {
		return fmt.Errorf("%w: parameters are not a JSON object: %w", domain.ErrInvalidInput, err)
	}
	if s.Type != "object" {
		return fmt.Errorf("%w: parameters must have type object", domain.ErrInvalidInput)
	}
	if s.AdditionalProperties == nil || *s.AdditionalProperties {
		return fmt.Errorf("%w: parameters must set additionalProperties to false", domain.ErrInvalidInput)
	}
	return nil
}

// describeValidation flattens a schema validation error into one line the
// model can act on.
func describeValidation(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	var parts []string
	var walk func(v *jsonschema.ValidationError)
	walk = func(v *jsonschema.ValidationError) {
		if len(v.Causes) == 0 {
			loc := strings.TrimPrefix(v.InstanceLocation, "/")
			if loc == "" {
				loc = "arguments"
			}
			parts = append(parts, loc+": "+v.Message)
			return
		}
		for _, c := range v.Causes {
			walk(c)
		}
	}
	walk(ve)
	return strings.Join(parts, "; ")
}
