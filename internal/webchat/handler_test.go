package webchat

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

func newServer(t *testing.T) (*httptest.Server, *conversation.Service) {
	t.Helper()
	logger := logging.NewWithWriter(io.Discard, "error")
	engine := dialogue.NewEngine(directory.Default(), ledger.NewMemoryLedger(), nil, logger)
	svc := conversation.NewService(engine, session.NewMemoryStore(), logger,
		conversation.WithTranscript(conversation.NewMemoryTranscript(0)))
	srv := httptest.NewServer(http.HandlerFunc(NewHandler(svc, logger).HandleWebSocket))
	t.Cleanup(srv.Close)
	return srv, svc
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws" + query
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg InboundMessage) {
	t.Helper()
	require.NoError(t, websocket.JSON.Send(conn, msg))
}

func receive(t *testing.T, conn *websocket.Conn) OutboundMessage {
	t.Helper()
	var out OutboundMessage
	require.NoError(t, websocket.JSON.Receive(conn, &out))
	return out
}

func TestWebSocketNewSession(t *testing.T) {
	srv, _ := newServer(t)
	conn := dial(t, srv, "")

	send(t, conn, InboundMessage{Type: "ping"})
	assert.Equal(t, "pong", receive(t, conn).Type)

	send(t, conn, InboundMessage{Type: "message", Text: "hello"})
	sess := receive(t, conn)
	require.Equal(t, "session", sess.Type)
	require.NotEmpty(t, sess.SessionID)

	reply := receive(t, conn)
	assert.Equal(t, "message", reply.Type)
	assert.Equal(t, "assistant", reply.Role)
	assert.Contains(t, reply.Text, "full name")

	send(t, conn, InboundMessage{Type: "message", Text: "   "})
	assert.Equal(t, "error", receive(t, conn).Type)
}

func TestWebSocketResumesWithHistory(t *testing.T) {
	srv, svc := newServer(t)
	_, err := svc.ProcessTurn(context.Background(), "s1", "hello")
	require.NoError(t, err)

	conn := dial(t, srv, "?session=s1")
	sess := receive(t, conn)
	assert.Equal(t, "s1", sess.SessionID)

	history := receive(t, conn)
	require.Equal(t, "history", history.Type)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, "hello", history.Messages[0].Text)

	send(t, conn, InboundMessage{Type: "message", Text: "Alice Wong"})
	reply := receive(t, conn)
	assert.Equal(t, "s1", reply.SessionID)
	assert.Contains(t, reply.Text, "Thank you, alice wong")
}
