package session

import (
	"errors"
	"fmt"
	"sync"
)

// Role identifies the author of a conversation message.
type Role string

// Valid message roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

var (
	// ErrInvalidRole indicates a message role outside the allowed set.
	ErrInvalidRole = errors.New("invalid message role")

	// ErrEmptyContent indicates a message with no content.
	ErrEmptyContent = errors.New("empty message content")
)

// Message is a single role-tagged conversation turn.
// Messages are immutable once appended to a History; ordering is
// chronological turn order.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a validated message.
func NewMessage(role Role, content string) (Message, error) {
	switch role {
	case RoleUser, RoleAssistant:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if content == "" {
		return Message{}, ErrEmptyContent
	}
	return Message{Role: role, Content: content}, nil
}

// NewUserMessage creates a user message. Panics on empty content are
// avoided by validating at the caller boundary; this helper is for
// content already known to be non-empty.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// History is an append-only ordered sequence of messages for one session.
//
// History grows without bound for the life of its session: every turn
// appends two messages and the full sequence is sent to the remote model
// on each invocation. There is no eviction or truncation policy, which
// affects both memory use and per-call payload size as a conversation
// gets long.
//
// The zero value is not useful; use NewHistory.
type History struct {
	mu       sync.RWMutex
	messages []Message
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{messages: make([]Message, 0)}
}

// Append adds a message at the end, preserving insertion order.
func (h *History) Append(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
}

// Messages returns a copy of all messages in conversation order.
func (h *History) Messages() []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Len returns the number of messages.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// Last returns the most recent message and true, or a zero Message and
// false when the history is empty.
func (h *History) Last() (Message, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Clear removes all messages.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = make([]Message, 0)
}
