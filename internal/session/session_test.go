package session

import (
	"errors"
	"testing"
)

func TestNewMessageValidation(t *testing.T) {
	tests := []struct {
		name    string
		role    Role
		content string
		wantErr error
	}{
		{name: "user ok", role: RoleUser, content: "hi"},
		{name: "assistant ok", role: RoleAssistant, content: "hello"},
		{name: "unknown role", role: Role("system"), content: "x", wantErr: ErrInvalidRole},
		{name: "empty role", role: Role(""), content: "x", wantErr: ErrInvalidRole},
		{name: "empty content", role: RoleUser, content: "", wantErr: ErrEmptyContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.role, tt.content)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NewMessage() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMessage() error = %v", err)
			}
			if msg.Role != tt.role || msg.Content != tt.content {
				t.Errorf("NewMessage() = %+v", msg)
			}
		})
	}
}

func TestHistoryAppendOrder(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("first"))
	h.Append(NewAssistantMessage("second"))
	h.Append(NewUserMessage("third"))

	msgs := h.Messages()
	if len(msgs) != 3 {
		t.Fatalf("len = %d, want 3", len(msgs))
	}
	want := []string{"first", "second", "third"}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("msgs[%d].Content = %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestHistoryMessagesReturnsCopy(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("original"))

	msgs := h.Messages()
	msgs[0].Content = "mutated"

	if got := h.Messages()[0].Content; got != "original" {
		t.Errorf("history mutated through returned slice: %q", got)
	}
}

func TestHistoryLast(t *testing.T) {
	h := NewHistory()
	if _, ok := h.Last(); ok {
		t.Error("Last() on empty history should report false")
	}

	h.Append(NewUserMessage("a"))
	h.Append(NewAssistantMessage("b"))
	last, ok := h.Last()
	if !ok || last.Role != RoleAssistant || last.Content != "b" {
		t.Errorf("Last() = %+v, %v", last, ok)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory()
	h.Append(NewUserMessage("a"))
	h.Clear()
	if h.Len() != 0 {
		t.Errorf("Len after Clear = %d, want 0", h.Len())
	}
}
