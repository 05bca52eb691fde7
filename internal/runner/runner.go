// Package runner is the call boundary that turns (agent, input, config)
// into one textual result.
//
// The runner is a stateless pass-through: it forwards the message
// history, the agent's instructions and tools, and the run
// configuration to the completion collaborator, and maps any failure to
// the single [ErrRemoteInvocation] condition. It performs no retries and
// no partial-result handling, and never touches the session store;
// callers append results themselves.
//
// Two invocation modes exist: [Runner.Run] blocks the calling goroutine;
// [Runner.RunAsync] returns a channel that delivers exactly one
// [Outcome], letting the caller suspend at the call site while other
// work proceeds.
package runner

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/log"
	"github.com/herald0/herald/internal/session"
)

var (
	// ErrRemoteInvocation indicates the remote model call produced no
	// usable output (network failure, provider error, malformed tool
	// call). Recoverable at the entry-surface boundary.
	ErrRemoteInvocation = errors.New("remote invocation failed")

	// ErrModelMismatch indicates the run config references a different
	// model than the agent definition. Divergent pairs are rejected
	// instead of silently picking one.
	ErrModelMismatch = errors.New("run config model does not match agent model")

	// ErrInvalidInput indicates an empty history or one whose most
	// recent message is not a user message.
	ErrInvalidInput = errors.New("invalid invocation input")
)

// Result is the output of one invocation. Produced once; never retried
// or cached.
type Result struct {
	// FinalOutput is the model's final text. Non-empty on success.
	FinalOutput string
}

// Outcome is the single value delivered by RunAsync.
type Outcome struct {
	Result *Result
	Err    error
}

// Invocation carries everything the completion collaborator needs for
// one model call.
type Invocation struct {
	Agent    *agent.Definition
	Messages []session.Message
	Config   agent.RunConfig
}

// Completer is the external agent-reasoning collaborator: it executes
// one full invocation (including any tool-call rounds) and returns the
// final text. Production code uses [NewCompleter]; tests stub this.
type Completer interface {
	Complete(ctx context.Context, inv Invocation) (string, error)
}

// Config contains the runner's dependencies.
type Config struct {
	Logger    log.Logger
	Completer Completer // nil selects the chat-completions completer
}

// Runner invokes a remote model on behalf of an agent definition.
// Stateless and safe for concurrent use.
type Runner struct {
	logger    log.Logger
	completer Completer
	tracer    trace.Tracer
}

// New creates a Runner.
func New(cfg Config) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	completer := cfg.Completer
	if completer == nil {
		completer = NewCompleter(logger)
	}
	return &Runner{
		logger:    logger,
		completer: completer,
		tracer:    otel.Tracer("herald/runner"),
	}
}

// Run invokes the model with the full message history and blocks until
// the result is available.
func (r *Runner) Run(ctx context.Context, ag *agent.Definition, messages []session.Message, cfg agent.RunConfig) (*Result, error) {
	if err := r.check(ag, messages, cfg); err != nil {
		return nil, err
	}

	if cfg.TracingEnabled {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "runner.invoke", trace.WithAttributes(
			attribute.String("agent.name", ag.Name()),
			attribute.String("model.name", ag.Model().Name()),
			attribute.Int("history.len", len(messages)),
		))
		defer span.End()

		result, err := r.invoke(ctx, ag, messages, cfg)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "invocation failed")
			return nil, err
		}
		span.SetStatus(codes.Ok, "")
		return result, nil
	}

	return r.invoke(ctx, ag, messages, cfg)
}

// RunQuery invokes the model with a single query string and no prior
// history. This is the CLI path.
func (r *Runner) RunQuery(ctx context.Context, ag *agent.Definition, query string, cfg agent.RunConfig) (*Result, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}
	return r.Run(ctx, ag, []session.Message{session.NewUserMessage(query)}, cfg)
}

// RunAsync starts the invocation and returns a channel that delivers
// exactly one Outcome. The channel is buffered: the invocation
// goroutine never blocks on a caller that went away.
func (r *Runner) RunAsync(ctx context.Context, ag *agent.Definition, messages []session.Message, cfg agent.RunConfig) <-chan Outcome {
	ch := make(chan Outcome, 1)
	go func() {
		result, err := r.Run(ctx, ag, messages, cfg)
		ch <- Outcome{Result: result, Err: err}
	}()
	return ch
}

// check validates the invocation shape before anything goes on the wire.
func (r *Runner) check(ag *agent.Definition, messages []session.Message, cfg agent.RunConfig) error {
	if ag == nil {
		return fmt.Errorf("%w: nil agent", ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Model != ag.Model() {
		return fmt.Errorf("%w: agent %q uses %q, config has %q",
			ErrModelMismatch, ag.Name(), ag.Model().Name(), cfg.Model.Name())
	}
	if len(messages) == 0 {
		return fmt.Errorf("%w: empty message history", ErrInvalidInput)
	}
	if last := messages[len(messages)-1]; last.Role != session.RoleUser {
		return fmt.Errorf("%w: most recent message must be a user message, got %q",
			ErrInvalidInput, last.Role)
	}
	return nil
}

// invoke delegates to the completer and maps failures to the single
// error condition entry surfaces recover from.
func (r *Runner) invoke(ctx context.Context, ag *agent.Definition, messages []session.Message, cfg agent.RunConfig) (*Result, error) {
	r.logger.Debug("invoking agent",
		"agent", ag.Name(),
		"model", ag.Model().Name(),
		"history_len", len(messages),
	)

	text, err := r.completer.Complete(ctx, Invocation{Agent: ag, Messages: messages, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteInvocation, err)
	}

	return &Result{FinalOutput: text}, nil
}
