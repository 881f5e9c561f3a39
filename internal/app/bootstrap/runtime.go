package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/vitalpoint-assistant/internal/config"
	"github.com/wolfman30/vitalpoint-assistant/internal/conversation"
	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore keeps sessions in Redis when a client is available.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if redisClient == nil {
		logger.Warn("redis not configured; sessions are kept in memory")
		return session.NewMemoryStore()
	}
	return session.NewRedisStore(redisClient, cfg.SessionTTL)
}

// BuildTranscript mirrors BuildSessionStore for chat transcripts.
func BuildTranscript(redisClient *redis.Client, cfg *appconfig.Config) conversation.Transcript {
	if redisClient == nil {
		return conversation.NewMemoryTranscript(cfg.TranscriptMaxMessages)
	}
	return conversation.NewRedisTranscript(redisClient, cfg.SessionTTL, int64(cfg.TranscriptMaxMessages))
}

// BuildLedger connects the Postgres ledger when DATABASE_URL is set. The
// returned close func is never nil.
func BuildLedger(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (ledger.Ledger, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("DATABASE_URL not set; appointments are kept in memory")
		return ledger.NewMemoryLedger(), func() {}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	logger.Info("appointment ledger backed by postgres")
	return ledger.NewPostgresLedger(pool), pool.Close, nil
}

// BuildDirectory loads DIRECTORY_FILE or falls back to the built-in catalog.
func BuildDirectory(cfg *appconfig.Config, logger *logging.Logger) (*directory.Directory, error) {
	if logger == nil {
		logger = logging.Default()
	}
	path := ""
	if cfg != nil {
		path = strings.TrimSpace(cfg.DirectoryFile)
	}
	if path == "" {
		return directory.Default(), nil
	}
	dir, err := directory.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: load directory: %w", err)
	}
	logger.Info("doctor directory loaded", "path", path, "doctors", dir.Len())
	return dir, nil
}
