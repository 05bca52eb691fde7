package agent

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/herald0/herald/internal/provider"
)

func testModel(t *testing.T) *provider.Model {
	t.Helper()
	binding, err := provider.New("test-key", "https://generativelanguage.googleapis.com/v1beta/openai/")
	if err != nil {
		t.Fatalf("provider.New: %v", err)
	}
	m, err := provider.NewModel(binding, "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("provider.NewModel: %v", err)
	}
	return m
}

func stubTool(name string) Tool {
	return Func{
		ToolName:        name,
		ToolDescription: "stub",
		Fn: func(context.Context, json.RawMessage) (string, error) {
			return "ok", nil
		},
	}
}

func TestNewValidation(t *testing.T) {
	model := testModel(t)

	tests := []struct {
		name         string
		agentName    string
		instructions string
		model        *provider.Model
		tools        []Tool
		wantErr      error
	}{
		{name: "valid", agentName: "assistant", instructions: "be helpful", model: model},
		{name: "missing name", agentName: "", instructions: "x", model: model, wantErr: ErrMissingName},
		{name: "missing instructions", agentName: "a", instructions: "", model: model, wantErr: ErrMissingInstructions},
		{name: "missing model", agentName: "a", instructions: "x", model: nil, wantErr: ErrMissingModel},
		{
			name: "duplicate tool", agentName: "a", instructions: "x", model: model,
			tools:   []Tool{stubTool("search"), stubTool("search")},
			wantErr: ErrDuplicateTool,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.agentName, tt.instructions, tt.model, tt.tools...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
		})
	}
}

func TestToolLookup(t *testing.T) {
	model := testModel(t)
	def, err := New("news", "search the web", model, stubTool("web_search"), stubTool("web_fetch"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, ok := def.Tool("web_search"); !ok {
		t.Error("Tool(web_search) should be found")
	}
	if _, ok := def.Tool("nope"); ok {
		t.Error("Tool(nope) should not be found")
	}
	if got := len(def.Tools()); got != 2 {
		t.Errorf("len(Tools()) = %d, want 2", got)
	}
}

func TestRunConfigValidate(t *testing.T) {
	if err := (RunConfig{}).Validate(); !errors.Is(err, ErrMissingModel) {
		t.Errorf("empty RunConfig: error = %v, want ErrMissingModel", err)
	}
	if err := (RunConfig{Model: testModel(t)}).Validate(); err != nil {
		t.Errorf("valid RunConfig: error = %v", err)
	}
}
