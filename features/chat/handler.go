package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"cineqa/internal/answer"
	"cineqa/internal/middleware"
)

type Handler struct {
	service *Service
	model   string
}

func NewHandler(service *Service, model string) *Handler {
	return &Handler{service: service, model: model}
}

// streamFrame is one NDJSON line of the chat response stream. DoneReason is
// set only on the terminal frame.
type streamFrame struct {
	Model      string        `json:"model"`
	CreatedAt  time.Time     `json:"created_at"`
	Message    streamMessage `json:"message"`
	Done       bool          `json:"done"`
	DoneReason string        `json:"done_reason,omitempty"`
}

type streamMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		req.Title = "新对话"
	}

	session, err := h.service.CreateSession(r.Context(), req.Title)
	if err != nil {
		slog.Error("session create failed", "error", err)
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": session}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.service.ListSessions(r.Context())
	if err != nil {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if sessions == nil {
		sessions = []Session{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": sessions,
		"meta": map[string]int{"count": len(sessions)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.service.DeleteSession(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Session not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	messages, err := h.service.History(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(r.Context(), w, "NOT_FOUND", "Session not found", http.StatusNotFound)
			return
		}
		h.writeError(r.Context(), w, "INTERNAL_ERROR", err.Error(), http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"data": messages,
		"meta": map[string]int{"count": len(messages)},
	}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Ask streams the answer as newline-delimited JSON frames. Each token frame
// carries done=false; the terminal frame has done=true and done_reason
// "stop". Failures after streaming has started can only be logged.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
		Question  string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" {
		h.writeError(r.Context(), w, "VALIDATION_ERROR", "Question is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(r.Context(), w, "INTERNAL_ERROR", "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")

	enc := json.NewEncoder(w)
	started := false
	onToken := func(token string) error {
		started = true
		if err := enc.Encode(streamFrame{
			Model:     h.model,
			CreatedAt: time.Now().UTC(),
			Message:   streamMessage{Role: answer.RoleAssistant, Content: token},
			Done:      false,
		}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	_, sessionID, err := h.service.Ask(r.Context(), req.SessionID, req.Question, onToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) && !started {
			h.writeError(r.Context(), w, "NOT_FOUND", "Session not found", http.StatusNotFound)
			return
		}
		slog.ErrorContext(r.Context(), "chat answer failed", "error", err, "sessionId", sessionID)
		if !started {
			h.writeError(r.Context(), w, "INTERNAL_ERROR", "Internal Server Error", http.StatusInternalServerError)
		}
		return
	}

	if err := enc.Encode(streamFrame{
		Model:      h.model,
		CreatedAt:  time.Now().UTC(),
		Message:    streamMessage{Role: answer.RoleAssistant, Content: ""},
		Done:       true,
		DoneReason: "stop",
	}); err != nil {
		slog.Error("failed to encode terminal frame", "error", err)
		return
	}
	flusher.Flush()
}

func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, code, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := map[string]interface{}{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
		"correlationId": middleware.GetCorrelationID(ctx),
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}
