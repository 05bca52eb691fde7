// Package chat is the event-driven chat entry surface: session start and
// message events read and write the session store and call the runner
// with the full conversation history.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/herald0/herald/internal/agent"
	"github.com/herald0/herald/internal/log"
	"github.com/herald0/herald/internal/runner"
	"github.com/herald0/herald/internal/session"
)

// Greeting is emitted to the caller-visible channel when a session starts.
const Greeting = "Hello! I am your assistant. How can I help you today?"

// ErrEmptyMessage indicates a message event with no content.
var ErrEmptyMessage = errors.New("empty message")

// Invoker is the slice of the runner the chat surface needs. Satisfied
// by *runner.Runner; stubbed in tests.
type Invoker interface {
	RunAsync(ctx context.Context, ag *agent.Definition, messages []session.Message, cfg agent.RunConfig) <-chan runner.Outcome
}

// Config contains the chat service dependencies.
type Config struct {
	Store   *session.Store
	Invoker Invoker
	Agent   *agent.Definition
	Run     agent.RunConfig
	Logger  log.Logger
}

// Service handles chat session events. One service instance serves all
// sessions; per-session state lives in the store.
type Service struct {
	store   *session.Store
	invoker Invoker
	agent   *agent.Definition
	run     agent.RunConfig
	logger  log.Logger
}

// New creates the chat service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Invoker == nil {
		return nil, errors.New("invoker is required")
	}
	if cfg.Agent == nil {
		return nil, errors.New("agent is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Service{
		store:   cfg.Store,
		invoker: cfg.Invoker,
		agent:   cfg.Agent,
		run:     cfg.Run,
		logger:  logger,
	}, nil
}

// OnSessionStart attaches a fresh empty history to the session key and
// returns the greeting for the caller-visible channel. Starting an
// already-started session resets it.
func (s *Service) OnSessionStart(_ context.Context, key string) string {
	s.store.Init(key)
	s.logger.Debug("session started", "session", key)
	return Greeting
}

// OnMessage handles one user message: it appends the user turn, invokes
// the runner with the full history, and appends and returns the
// assistant reply.
//
// On failure the user message stays in the history, nothing else is
// appended, and the error surfaces to the caller-visible channel. The
// next turn proceeds normally from the preserved state.
func (s *Service) OnMessage(ctx context.Context, key, text string) (string, error) {
	if text == "" {
		return "", ErrEmptyMessage
	}

	userMsg, err := session.NewMessage(session.RoleUser, text)
	if err != nil {
		return "", err
	}

	history := s.store.Get(key)
	history.Append(userMsg)

	// Suspend at the call: other sessions keep making progress while
	// this one waits for its result.
	outcome := <-s.invoker.RunAsync(ctx, s.agent, history.Messages(), s.run)
	if outcome.Err != nil {
		s.logger.Warn("invocation failed, history preserved",
			"session", key,
			"history_len", history.Len(),
			"error", outcome.Err,
		)
		return "", fmt.Errorf("handling message: %w", outcome.Err)
	}

	reply := outcome.Result.FinalOutput
	history.Append(session.NewAssistantMessage(reply))

	s.logger.Debug("turn completed", "session", key, "history_len", history.Len())
	return reply, nil
}

// OnSessionEnd destroys the session's history. No state survives.
func (s *Service) OnSessionEnd(_ context.Context, key string) {
	s.store.Remove(key)
	s.logger.Debug("session ended", "session", key)
}

// Has reports whether the session key has been started and not ended.
func (s *Service) Has(key string) bool {
	return s.store.Has(key)
}

// History returns a snapshot of the session's conversation.
func (s *Service) History(key string) []session.Message {
	return s.store.Get(key).Messages()
}
