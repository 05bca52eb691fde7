package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/log"
	"github.com/herald0/herald/internal/session"
)

// defaultMaxTurns bounds the tool-call loop when the run config leaves
// MaxTurns unset.
const defaultMaxTurns = 5

// ChatCompleter executes invocations against the OpenAI-compatible chat
// completions endpoint carried by the agent's provider binding. It runs
// the agentic loop: while the model answers with tool calls and turns
// remain, tools execute and their outputs feed back into the
// conversation.
type ChatCompleter struct {
	logger log.Logger
}

// NewCompleter creates the production completer.
func NewCompleter(logger log.Logger) *ChatCompleter {
	if logger == nil {
		logger = log.NewNop()
	}
	return &ChatCompleter{logger: logger}
}

// Complete implements Completer.
func (c *ChatCompleter) Complete(ctx context.Context, inv Invocation) (string, error) {
	model := inv.Agent.Model()
	client := model.Binding().Client()

	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(inv.Messages)+1)
	msgs = append(msgs, openai.SystemMessage(inv.Agent.Instructions()))
	for _, m := range inv.Messages {
		switch m.Role {
		case session.RoleUser:
			msgs = append(msgs, openai.UserMessage(m.Content))
		case session.RoleAssistant:
			msgs = append(msgs, openai.AssistantMessage(m.Content))
		}
	}

	tools, err := toolParams(inv.Agent.Tools())
	if err != nil {
		return "", err
	}

	maxTurns := inv.Config.MaxTurns
	if maxTurns <= 0 {
		maxTurns = defaultMaxTurns
	}

	for turn := 0; turn < maxTurns; turn++ {
		params := openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(model.Name()),
			Messages: msgs,
		}
		if inv.Config.Temperature > 0 {
			params.Temperature = openai.Float(float64(inv.Config.Temperature))
		}
		if inv.Config.MaxTokens > 0 {
			params.MaxCompletionTokens = openai.Int(int64(inv.Config.MaxTokens))
		}
		if len(tools) > 0 {
			params.Tools = tools
		}

		completion, err := client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("chat completion: %w", err)
		}
		if len(completion.Choices) == 0 {
			return "", errors.New("completion has no choices")
		}

		msg := completion.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			text := strings.TrimSpace(msg.Content)
			if text == "" {
				return "", errors.New("model returned empty output")
			}
			return text, nil
		}

		// Tool round: echo the assistant turn, then answer each call.
		msgs = append(msgs, msg.ToParam())
		for _, call := range msg.ToolCalls {
			out, err := c.callTool(ctx, inv.Agent, call.Function.Name, call.Function.Arguments)
			if err != nil {
				return "", err
			}
			msgs = append(msgs, openai.ToolMessage(out, call.ID))
		}
	}

	return "", fmt.Errorf("no final answer after %d tool turns", maxTurns)
}

// callTool resolves and executes one tool call requested by the model.
// An unknown tool name or undecodable arguments is a malformed tool-call
// response from the collaborator's perspective, so it fails the
// invocation.
func (c *ChatCompleter) callTool(ctx context.Context, ag *agent.Definition, name, rawArgs string) (string, error) {
	tool, ok := ag.Tool(name)
	if !ok {
		return "", fmt.Errorf("model requested unknown tool %q", name)
	}
	if !json.Valid([]byte(rawArgs)) {
		return "", fmt.Errorf("tool %q: malformed arguments", name)
	}

	c.logger.Debug("executing tool", "agent", ag.Name(), "tool", name)

	out, err := tool.Call(ctx, json.RawMessage(rawArgs))
	if err != nil {
		return "", fmt.Errorf("tool %q: %w", name, err)
	}
	return out, nil
}

// toolParams converts the agent's tool handles into chat-completions
// function declarations. Schemas go through a JSON round-trip because
// the wire format wants a plain parameter map.
func toolParams(tools []agent.Tool) ([]openai.ChatCompletionToolParam, error) {
	if len(tools) == 0 {
		return nil, nil
	}

	params := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:        t.Name(),
			Description: openai.String(t.Description()),
		}
		if schema := t.Schema(); schema != nil {
			raw, err := json.Marshal(schema)
			if err != nil {
				return nil, fmt.Errorf("marshaling schema for tool %q: %w", t.Name(), err)
			}
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("decoding schema for tool %q: %w", t.Name(), err)
			}
			fn.Parameters = shared.FunctionParameters(m)
		}
		params = append(params, openai.ChatCompletionToolParam{Function: fn})
	}
	return params, nil
}
