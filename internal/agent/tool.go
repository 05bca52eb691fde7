package agent

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool is a callable capability exposed to the model. Implementations
// must be safe for concurrent use: one tool instance serves every
// session.
type Tool interface {
	// Name is the identifier the model calls the tool by.
	Name() string

	// Description tells the model what the tool does and when to use it.
	Description() string

	// Schema describes the tool's JSON argument object.
	Schema() *jsonschema.Schema

	// Call executes the tool with raw JSON arguments and returns text
	// for the model. An error aborts the invocation.
	Call(ctx context.Context, args json.RawMessage) (string, error)
}

// Func adapts a plain function into a Tool. Used for small tools and by
// tests for stubs.
type Func struct {
	ToolName        string
	ToolDescription string
	ToolSchema      *jsonschema.Schema
	Fn              func(ctx context.Context, args json.RawMessage) (string, error)
}

// Name implements Tool.
func (f Func) Name() string { return f.ToolName }

// Description implements Tool.
func (f Func) Description() string { return f.ToolDescription }

// Schema implements Tool.
func (f Func) Schema() *jsonschema.Schema { return f.ToolSchema }

// Call implements Tool.
func (f Func) Call(ctx context.Context, args json.RawMessage) (string, error) {
	return f.Fn(ctx, args)
}
