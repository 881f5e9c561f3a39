package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/vitalpoint-assistant/cmd/mainconfig"
	"github.com/wolfman30/vitalpoint-assistant/internal/api/router"
	"github.com/wolfman30/vitalpoint-assistant/internal/app/bootstrap"
	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
	"github.com/wolfman30/vitalpoint-assistant/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/vitalpoint-assistant/internal/http/middleware"
	"github.com/wolfman30/vitalpoint-assistant/internal/observability/metrics"
	"github.com/wolfman30/vitalpoint-assistant/internal/webchat"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// app is everything main needs to serve and later tear down.
type app struct {
	handler http.Handler
	limiter *httpmiddleware.RateLimiter
	closers []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting vitalpoint booking assistant",
		"env", cfg.Env,
		"port", cfg.Port,
		"clinic", cfg.ClinicName,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer a.close()

	go a.limiter.RunEviction(ctx, time.Minute, 10*time.Minute)

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     a.handler,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}

	var awsCfg *aws.Config
	if cfg.NeedsAWS() {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	dir, err := bootstrap.BuildDirectory(cfg, logger)
	if err != nil {
		return nil, err
	}

	appointments, closeLedger, err := bootstrap.BuildLedger(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, closeLedger)

	checks := map[string]handlers.Pinger{}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
		checks["redis"] = redisPinger(redisClient)
	}

	metricsHandler, convMetrics := setupMetrics()

	svc, err := bootstrap.BuildConversationService(cfg, bootstrap.Dependencies{
		Directory:  dir,
		Ledger:     appointments,
		Store:      bootstrap.BuildSessionStore(redisClient, cfg, logger),
		Transcript: bootstrap.BuildTranscript(redisClient, cfg),
		Email:      bootstrap.BuildEmailSender(cfg, awsCfg, logger),
		Publisher:  bootstrap.BuildPublisher(cfg, awsCfg, logger),
		Metrics:    convMetrics,
	}, logger)
	if err != nil {
		a.close()
		return nil, err
	}

	if cfg.AdminJWTSecret == "" {
		logger.Warn("ADMIN_JWT_SECRET not set; admin routes will reject every request")
	}

	a.limiter = httpmiddleware.NewRateLimiter(cfg.ChatRateLimit, cfg.ChatRateBurst)
	a.handler = router.New(&router.Config{
		Logger:             logger,
		Chat:               handlers.NewChatHandler(svc, logger),
		Doctors:            handlers.NewDoctorsHandler(dir),
		Health:             handlers.NewHealthHandler(checks),
		AdminAppointments:  handlers.NewAdminAppointmentsHandler(appointments, logger),
		WebChat:            webchat.NewHandler(svc, logger),
		MetricsHandler:     metricsHandler,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		ChatLimiter:        a.limiter,
	})
	return a, nil
}

func setupMetrics() (http.Handler, *metrics.ConversationMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), metrics.NewConversationMetrics(reg)
}

func redisPinger(client *redis.Client) handlers.PingFunc {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}
