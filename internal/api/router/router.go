package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/vitalpoint-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/vitalpoint-assistant/internal/http/middleware"
	"github.com/wolfman30/vitalpoint-assistant/internal/webchat"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Chat               *handlers.ChatHandler
	Doctors            *handlers.DoctorsHandler
	Health             *handlers.HealthHandler
	AdminAppointments  *handlers.AdminAppointmentsHandler
	WebChat            *webchat.Handler
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string
	// ChatLimiter throttles POST /chat per client IP. Nil disables it.
	ChatLimiter *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	health := cfg.Health
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}
	r.Get("/health", health.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Doctors != nil {
		r.Get("/doctors", cfg.Doctors.ListDoctors)
	}

	r.Route("/chat", func(chat chi.Router) {
		if cfg.Chat != nil {
			limited := chat.With(httpmiddleware.RateLimit(cfg.ChatLimiter))
			limited.Post("/", cfg.Chat.HandleChat)
			limited.Get("/history", cfg.Chat.HandleHistory)
		}
		if cfg.WebChat != nil {
			chat.Get("/ws", cfg.WebChat.HandleWebSocket)
		}
	})

	if cfg.AdminAppointments != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/appointments", cfg.AdminAppointments.ListAppointments)
		})
	}

	return r
}
