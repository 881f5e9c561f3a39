package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const (
	transcriptKeyPrefix = "transcript:"

	// DefaultTranscriptTTL matches the session lifetime.
	DefaultTranscriptTTL = 24 * time.Hour
	// DefaultTranscriptMax bounds how many messages are kept per session.
	DefaultTranscriptMax = 250
)

var errTranscriptID = errors.New("conversation: transcript session id required")

// Role says who sent a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one line of a chat transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Body      string    `json:"body"`
	Outcome   string    `json:"outcome,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript records the messages of each session.
type Transcript interface {
	Append(ctx context.Context, sessionID string, msgs ...Message) error
	List(ctx context.Context, sessionID string, limit int64) ([]Message, error)
}

// RedisTranscript keeps each transcript in a capped Redis list.
type RedisTranscript struct {
	redis       *redis.Client
	tracer      trace.Tracer
	ttl         time.Duration
	maxMessages int64
}

func NewRedisTranscript(redisClient *redis.Client, ttl time.Duration, maxMessages int64) *RedisTranscript {
	if redisClient == nil {
		panic("conversation: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTranscriptTTL
	}
	if maxMessages <= 0 {
		maxMessages = DefaultTranscriptMax
	}
	return &RedisTranscript{
		redis:       redisClient,
		tracer:      otel.Tracer("vitalpoint.internal.conversation.transcript"),
		ttl:         ttl,
		maxMessages: maxMessages,
	}
}

func (s *RedisTranscript) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return errTranscriptID
	}
	if len(msgs) == 0 {
		return nil
	}

	values := make([]any, 0, len(msgs))
	for _, msg := range msgs {
		data, err := json.Marshal(stamp(msg))
		if err != nil {
			return fmt.Errorf("conversation: marshal transcript message: %w", err)
		}
		values = append(values, data)
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.append")
	defer span.End()

	key := transcriptKey(sessionID)
	pipe := s.redis.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -s.maxMessages, -1)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: append transcript: %w", err)
	}
	return nil
}

// List returns the last limit messages, oldest first. limit <= 0 means all.
func (s *RedisTranscript) List(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if sessionID == "" {
		return nil, errTranscriptID
	}

	ctx, span := s.tracer.Start(ctx, "conversation.transcript.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := s.redis.LRange(ctx, transcriptKey(sessionID), start, -1).Result()
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, redis.Nil) {
			return []Message{}, nil
		}
		return nil, fmt.Errorf("conversation: list transcript: %w", err)
	}

	out := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			span.RecordError(err)
			continue
		}
		out = append(out, msg)
	}
	return out, nil
}

func transcriptKey(sessionID string) string {
	return transcriptKeyPrefix + sessionID
}

// MemoryTranscript is an in-process Transcript for tests and the simulator.
type MemoryTranscript struct {
	mu          sync.Mutex
	sessions    map[string][]Message
	maxMessages int
}

func NewMemoryTranscript(maxMessages int) *MemoryTranscript {
	if maxMessages <= 0 {
		maxMessages = DefaultTranscriptMax
	}
	return &MemoryTranscript{sessions: make(map[string][]Message), maxMessages: maxMessages}
}

func (m *MemoryTranscript) Append(_ context.Context, sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return errTranscriptID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sessions[sessionID]
	for _, msg := range msgs {
		list = append(list, stamp(msg))
	}
	if over := len(list) - m.maxMessages; over > 0 {
		list = append([]Message(nil), list[over:]...)
	}
	m.sessions[sessionID] = list
	return nil
}

func (m *MemoryTranscript) List(_ context.Context, sessionID string, limit int64) ([]Message, error) {
	if sessionID == "" {
		return nil, errTranscriptID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.sessions[sessionID]
	if limit > 0 && int64(len(list)) > limit {
		list = list[int64(len(list))-limit:]
	}
	return append([]Message{}, list...), nil
}

func stamp(msg Message) Message {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return msg
}
