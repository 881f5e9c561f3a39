// Package webchat serves the booking assistant over a websocket so a browser
// widget can hold one live conversation per connection.
package webchat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

const historyOnConnect = 50

// TurnService runs chat turns and reads transcripts.
type TurnService interface {
	ProcessTurn(ctx context.Context, sessionID, text string) (*conversation.Turn, error)
	History(ctx context.Context, sessionID string, limit int64) ([]conversation.Message, error)
}

// Handler upgrades GET /chat/ws and relays frames to the conversation service.
type Handler struct {
	service TurnService
	logger  *logging.Logger
}

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "ping"
	Text string `json:"text"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type         string               `json:"type"` // "session", "history", "message", "pong", "error"
	SessionID    string               `json:"session_id,omitempty"`
	Text         string               `json:"text,omitempty"`
	Role         string               `json:"role,omitempty"`
	Timestamp    string               `json:"timestamp,omitempty"`
	Doctors      []directory.Doctor   `json:"doctors,omitempty"`
	Slots        []string             `json:"slots,omitempty"`
	Appointments []ledger.Appointment `json:"appointments,omitempty"`
	Messages     []HistoryMessage     `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history frames.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

// NewHandler creates a web chat handler.
func NewHandler(service TurnService, logger *logging.Logger) *Handler {
	if service == nil {
		panic("webchat: service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// HandleWebSocket upgrades to WebSocket. ?session= resumes a conversation.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	ctx := conversation.WithChannel(r.Context(), "ws")
	sessionID := strings.TrimSpace(r.URL.Query().Get("session"))

	if sessionID != "" {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		h.sendHistory(ctx, conn, sessionID)
	}
	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		case "message":
		default:
			continue
		}
		if strings.TrimSpace(msg.Text) == "" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "Invalid request body"})
			continue
		}

		turn, err := h.service.ProcessTurn(ctx, sessionID, msg.Text)
		if err != nil {
			text := dialogue.GenericError
			if errors.Is(err, dialogue.ErrEmptyInput) {
				text = "Invalid request body"
			}
			h.logger.Error("webchat: turn failed", "error", err, "session_id", sessionID)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: text})
			continue
		}
		if sessionID == "" {
			sessionID = turn.SessionID
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})
		}
		if err := websocket.JSON.Send(conn, replyFrame(turn)); err != nil {
			h.logger.Debug("webchat: send failed", "session_id", sessionID, "error", err)
			return
		}
	}
}

func (h *Handler) sendHistory(ctx context.Context, conn *websocket.Conn, sessionID string) {
	msgs, err := h.service.History(ctx, sessionID, historyOnConnect)
	if err != nil {
		h.logger.Warn("webchat: history unavailable", "error", err, "session_id", sessionID)
		return
	}
	if len(msgs) == 0 {
		return
	}
	history := make([]HistoryMessage, 0, len(msgs))
	for _, m := range msgs {
		history = append(history, HistoryMessage{
			Role:      string(m.Role),
			Text:      m.Body,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: history})
}

func replyFrame(turn *conversation.Turn) OutboundMessage {
	return OutboundMessage{
		Type:         "message",
		Role:         string(conversation.RoleAssistant),
		SessionID:    turn.SessionID,
		Text:         turn.Message,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Doctors:      turn.Doctors,
		Slots:        turn.Slots,
		Appointments: turn.Appointments,
	}
}
