package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

const (
	maxChatBody         = 16 << 10
	defaultHistoryLimit = 50
)

// TurnService is the conversation surface the chat endpoints need.
type TurnService interface {
	ProcessTurn(ctx context.Context, sessionID, text string) (*conversation.Turn, error)
	History(ctx context.Context, sessionID string, limit int64) ([]conversation.Message, error)
}

// ChatHandler serves POST /chat and GET /chat/history.
type ChatHandler struct {
	service TurnService
	logger  *logging.Logger
}

func NewChatHandler(service TurnService, logger *logging.Logger) *ChatHandler {
	if service == nil {
		panic("handlers: chat service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChatHandler{service: service, logger: logger}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	UserInput string `json:"userInput"`
}

// HandleChat runs one turn. Missing or blank userInput is a 400.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.UserInput) == "" {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx := conversation.WithChannel(r.Context(), "http")
	turn, err := h.service.ProcessTurn(ctx, strings.TrimSpace(req.SessionID), req.UserInput)
	if err != nil {
		if errors.Is(err, dialogue.ErrEmptyInput) {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		h.logger.Error("chat turn failed", "error", err, "session_id", req.SessionID)
		writeError(w, http.StatusInternalServerError, dialogue.GenericError)
		return
	}
	writeJSON(w, http.StatusOK, turn)
}

type historyResponse struct {
	SessionID string                 `json:"session_id"`
	Messages  []conversation.Message `json:"messages"`
}

// HandleHistory returns the transcript for ?session=, newest last.
func (h *ChatHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}
	limit := int64(defaultHistoryLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	messages, err := h.service.History(r.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("history lookup failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, "failed to load history")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: sessionID, Messages: messages})
}
