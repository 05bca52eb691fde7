package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/herald0/herald/internal/chat"
	"github.com/herald0/herald/internal/log"
	"github.com/herald0/herald/internal/runner"
)

// maxMessageBytes caps the request body on the message route.
const maxMessageBytes = 64 << 10 // 64KB

// sessionHandler serves the session lifecycle and message routes.
type sessionHandler struct {
	chat   *chat.Service
	logger log.Logger

	// inflight tracks sessions with a turn being processed. A second
	// message for the same session is rejected instead of queued so the
	// history stays strictly alternating.
	mu       sync.Mutex
	inflight map[string]struct{}
}

func newSessionHandler(svc *chat.Service, logger log.Logger) *sessionHandler {
	return &sessionHandler{
		chat:     svc,
		logger:   logger,
		inflight: make(map[string]struct{}),
	}
}

// createResponse is the body returned by session creation.
type createResponse struct {
	SessionID string `json:"sessionId"`
	Greeting  string `json:"greeting"`
}

// create starts a new session and returns its ID and the greeting.
func (h *sessionHandler) create(w http.ResponseWriter, r *http.Request) {
	id := uuid.New().String()
	greeting := h.chat.OnSessionStart(r.Context(), id)

	writeJSON(w, http.StatusCreated, createResponse{
		SessionID: id,
		Greeting:  greeting,
	}, h.logger)
}

// messageRequest is the body accepted by the message route.
type messageRequest struct {
	Message string `json:"message"`
}

// messageResponse is the body returned for a successful turn.
type messageResponse struct {
	Reply string `json:"reply"`
}

// sendMessage runs one conversation turn.
func (h *sessionHandler) sendMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.chat.Has(id) {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	}

	if !h.acquire(id) {
		writeError(w, http.StatusConflict, "turn_in_progress", "a turn is already being processed for this session", h.logger)
		return
	}
	defer h.release(id)

	var req messageRequest
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON with a message field", h.logger)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "message must not be empty", h.logger)
		return
	}

	reply, err := h.chat.OnMessage(r.Context(), id, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, runner.ErrRemoteInvocation):
			writeError(w, http.StatusBadGateway, "remote_invocation_failed", "the model call failed; the conversation is intact, try again", h.logger)
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, runner.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "invalid_request", err.Error(), h.logger)
		default:
			h.logger.Error("message turn failed", "session", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "internal server error", h.logger)
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Reply: reply}, h.logger)
}

// messageView is one history entry in list responses.
type messageView struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// listMessages returns the session's full history.
func (h *sessionHandler) listMessages(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.chat.Has(id) {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	}

	history := h.chat.History(id)
	views := make([]messageView, 0, len(history))
	for _, m := range history {
		views = append(views, messageView{Role: string(m.Role), Content: m.Content})
	}

	writeJSON(w, http.StatusOK, map[string][]messageView{"messages": views}, h.logger)
}

// remove ends the session and discards its history.
func (h *sessionHandler) remove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.chat.Has(id) {
		writeError(w, http.StatusNotFound, "session_not_found", "unknown session", h.logger)
		return
	}

	h.chat.OnSessionEnd(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *sessionHandler) acquire(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, busy := h.inflight[id]; busy {
		return false
	}
	h.inflight[id] = struct{}{}
	return true
}

func (h *sessionHandler) release(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.inflight, id)
}
