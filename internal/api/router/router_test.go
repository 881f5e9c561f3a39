package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/vitalpoint-assistant/internal/http/middleware"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/observability/metrics"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/internal/webchat"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

const adminSecret = "test-secret"

func newTestRouter(t *testing.T, limiter *httpmiddleware.RateLimiter) (http.Handler, *ledger.MemoryLedger) {
	t.Helper()
	logger := logging.NewWithWriter(io.Discard, "error")
	dir := directory.Default()
	l := ledger.NewMemoryLedger()
	reg := prometheus.NewRegistry()

	engine := dialogue.NewEngine(dir, l, nil, logger)
	svc := conversation.NewService(engine, session.NewMemoryStore(), logger,
		conversation.WithTranscript(conversation.NewMemoryTranscript(0)),
		conversation.WithMetrics(metrics.NewConversationMetrics(reg)))

	return New(&Config{
		Logger:             logger,
		Chat:               handlers.NewChatHandler(svc, logger),
		Doctors:            handlers.NewDoctorsHandler(dir),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(l, logger),
		WebChat:            webchat.NewHandler(svc, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AdminAuthSecret:    adminSecret,
		CORSAllowedOrigins: []string{"https://clinic.example"},
		ChatLimiter:        limiter,
	}), l
}

func do(h http.Handler, method, target, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthEndpoint(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(httpmiddleware.RequestIDHeader))
}

func TestRouterChatAndMetrics(t *testing.T) {
	h, _ := newTestRouter(t, nil)

	rec := do(h, http.MethodPost, "/chat", `{"userInput":"hello"}`, map[string]string{"Origin": "https://clinic.example"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://clinic.example", rec.Header().Get("Access-Control-Allow-Origin"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	rec = do(h, http.MethodGet, "/chat/history?session="+sessionID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(h, http.MethodPost, "/chat", `{"session_id":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "vitalpoint_conversation_turns_total")
}

func TestRouterDoctors(t *testing.T) {
	h, _ := newTestRouter(t, nil)
	rec := do(h, http.MethodGet, "/doctors", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Dr. Mary Johnson")
}

func TestRouterChatRateLimit(t *testing.T) {
	h, _ := newTestRouter(t, httpmiddleware.NewRateLimiter(0, 1))
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/chat", `{"userInput":"hi"}`, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/chat", `{"userInput":"hi"}`, nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/doctors", "", nil).Code)
}

func TestRouterHistoryRateLimit(t *testing.T) {
	h, _ := newTestRouter(t, httpmiddleware.NewRateLimiter(0, 1))
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/chat/history?session=s1", "", nil).Code)
	rec := do(h, http.MethodGet, "/chat/history?session=s1", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRouterAdminAppointmentsRequiresToken(t *testing.T) {
	h, l := newTestRouter(t, nil)
	_, err := l.Append(context.Background(), ledger.Appointment{
		Patient: ledger.Patient{Name: "alice wong", Email: "alice@example.com"},
		Doctor:  directory.Default().Doctors()[0],
		Day:     "Monday",
		Time:    "2:00 PM",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodGet, "/admin/appointments", "", nil).Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, httpmiddleware.AdminClaims{
		Role:             httpmiddleware.AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute))},
	}).SignedString([]byte(adminSecret))
	require.NoError(t, err)

	rec := do(h, http.MethodGet, "/admin/appointments?email=alice@example.com", "", map[string]string{"Authorization": "Bearer " + token})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":1`)
}
