// Package agent defines the immutable configuration units submitted to
// the runner: agent definitions (personality + capability) and run
// configurations (model + execution flags).
package agent

import (
	"errors"
	"fmt"

	"github.com/herald0/herald/internal/provider"
)

var (
	// ErrMissingName indicates an agent without a name.
	ErrMissingName = errors.New("missing agent name")

	// ErrMissingInstructions indicates an agent without instructions.
	ErrMissingInstructions = errors.New("missing agent instructions")

	// ErrMissingModel indicates an agent or run config without a model.
	ErrMissingModel = errors.New("missing model")

	// ErrDuplicateTool indicates two tools registered under one name.
	ErrDuplicateTool = errors.New("duplicate tool name")
)

// Definition is a named bundle of instructions, an optional tool set,
// and the model that answers for it. One definition is constructed at
// process start and reused across all turns and sessions; it is
// immutable after construction.
type Definition struct {
	name         string
	instructions string
	model        *provider.Model
	tools        []Tool
	toolsByName  map[string]Tool
}

// New creates a validated agent definition.
func New(name, instructions string, model *provider.Model, tools ...Tool) (*Definition, error) {
	if name == "" {
		return nil, ErrMissingName
	}
	if instructions == "" {
		return nil, ErrMissingInstructions
	}
	if model == nil {
		return nil, ErrMissingModel
	}

	byName := make(map[string]Tool, len(tools))
	for _, t := range tools {
		if _, exists := byName[t.Name()]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTool, t.Name())
		}
		byName[t.Name()] = t
	}

	return &Definition{
		name:         name,
		instructions: instructions,
		model:        model,
		tools:        tools,
		toolsByName:  byName,
	}, nil
}

// Name returns the agent name.
func (d *Definition) Name() string { return d.name }

// Instructions returns the system instructions text.
func (d *Definition) Instructions() string { return d.instructions }

// Model returns the model adapter this agent answers through.
func (d *Definition) Model() *provider.Model { return d.model }

// Tools returns the agent's tool set in registration order.
func (d *Definition) Tools() []Tool {
	out := make([]Tool, len(d.tools))
	copy(out, d.tools)
	return out
}

// Tool looks up a tool by name.
func (d *Definition) Tool(name string) (Tool, bool) {
	t, ok := d.toolsByName[name]
	return t, ok
}

// RunConfig bundles the model and execution flags passed uniformly to
// every invocation. It is an immutable value; the runner never mutates
// it mid-call.
type RunConfig struct {
	// Model must match the invoked agent's model; the runner rejects
	// divergent pairs.
	Model *provider.Model

	// TracingEnabled wraps each invocation in an OpenTelemetry span.
	TracingEnabled bool

	// MaxTurns bounds the tool-call loop per invocation. Zero means the
	// runner default.
	MaxTurns int

	// Sampling parameters forwarded verbatim to the provider.
	Temperature float32
	MaxTokens   int
}

// Validate checks the run configuration.
func (c RunConfig) Validate() error {
	if c.Model == nil {
		return fmt.Errorf("%w: run config has no model", ErrMissingModel)
	}
	return nil
}
