// Package conversation hosts chat turns: it owns session storage, per-session
// locking and the side effects that follow a booking.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/vitalpoint-assistant/internal/dialogue"
	"github.com/wolfman30/vitalpoint-assistant/internal/events"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/notify"
	"github.com/wolfman30/vitalpoint-assistant/internal/observability/metrics"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

var errEnginePanic = errors.New("conversation: engine panicked")

// Engine runs one dialogue turn against a session state.
type Engine interface {
	Process(ctx context.Context, st *session.State, text string) (*dialogue.Response, error)
}

// Turn is the reply to one user message.
type Turn struct {
	SessionID string `json:"session_id"`
	dialogue.Response
}

type channelKey struct{}

// WithChannel tags ctx with the transport a turn arrived on ("http", "ws", ...).
func WithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey{}, channel)
}

func channelFrom(ctx context.Context) string {
	if ch, ok := ctx.Value(channelKey{}).(string); ok && ch != "" {
		return ch
	}
	return "http"
}

// Option configures a Service.
type Option func(*Service)

func WithTranscript(t Transcript) Option {
	return func(s *Service) { s.transcript = t }
}

func WithEmailSender(sender notify.EmailSender) Option {
	return func(s *Service) { s.email = sender }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithMetrics(m *metrics.ConversationMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClinicName(name string) Option {
	return func(s *Service) { s.clinic = name }
}

// Service serializes turns per session and persists state between them.
// Serialization uses session.Locker and only holds within one process.
type Service struct {
	engine     Engine
	store      session.Store
	locker     *session.Locker
	transcript Transcript
	email      notify.EmailSender
	events     events.Publisher
	metrics    *metrics.ConversationMetrics
	clinic     string
	logger     *logging.Logger
	now        func() time.Time
}

func NewService(engine Engine, store session.Store, logger *logging.Logger, opts ...Option) *Service {
	if engine == nil {
		panic("conversation: engine cannot be nil")
	}
	if store == nil {
		panic("conversation: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		engine: engine,
		store:  store,
		locker: session.NewLocker(),
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessTurn runs one user message. An empty sessionID starts a new session.
// Only dialogue.ErrEmptyInput is returned as an error; every other failure
// becomes the generic reply and the session is left as it was.
func (s *Service) ProcessTurn(ctx context.Context, sessionID, text string) (*Turn, error) {
	if strings.TrimSpace(text) == "" {
		return nil, dialogue.ErrEmptyInput
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	start := s.now()
	channel := channelFrom(ctx)
	logger := s.logger.ForSession(sessionID)

	unlock := s.locker.Lock(sessionID)
	defer unlock()

	st, err := s.store.Load(ctx, sessionID)
	if err != nil {
		logger.Error("failed to load session", "error", err)
		return s.failed(ctx, sessionID, text, session.StepNone, start, channel), nil
	}
	step := st.Step

	resp, err := s.run(ctx, st, text)
	if err != nil {
		if errors.Is(err, dialogue.ErrEmptyInput) {
			return nil, err
		}
		logger.Error("turn failed", "error", err, "step", step.String())
		return s.failed(ctx, sessionID, text, step, start, channel), nil
	}

	if err := s.store.Save(ctx, st); err != nil {
		logger.Error("failed to save session", "error", err, "step", step.String())
		return s.failed(ctx, sessionID, text, step, start, channel), nil
	}

	s.record(ctx, logger, sessionID, text, resp)
	s.metrics.ObserveTurn(step.String(), string(resp.Outcome))
	s.metrics.ObserveLatency(channel, s.now().Sub(start).Seconds())
	logger.Debug("turn processed", "step", step.String(), "next_step", st.Step.String(), "outcome", resp.Outcome)

	if resp.Booked != nil {
		s.afterBooking(ctx, logger, sessionID, *resp.Booked)
	}
	return &Turn{SessionID: sessionID, Response: *resp}, nil
}

// History returns the last limit transcript messages for a session.
func (s *Service) History(ctx context.Context, sessionID string, limit int64) ([]Message, error) {
	if sessionID == "" {
		return nil, session.ErrMissingID
	}
	if s.transcript == nil {
		return []Message{}, nil
	}
	return s.transcript.List(ctx, sessionID, limit)
}

func (s *Service) run(ctx context.Context, st *session.State, text string) (resp *dialogue.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			resp, err = nil, fmt.Errorf("%w: %v", errEnginePanic, r)
		}
	}()
	return s.engine.Process(ctx, st, text)
}

func (s *Service) failed(ctx context.Context, sessionID, text string, step session.Step, start time.Time, channel string) *Turn {
	resp := dialogue.Response{Message: dialogue.GenericError, Outcome: dialogue.OutcomeError}
	s.record(ctx, s.logger.ForSession(sessionID), sessionID, text, &resp)
	s.metrics.ObserveTurn(step.String(), string(dialogue.OutcomeError))
	s.metrics.ObserveLatency(channel, s.now().Sub(start).Seconds())
	return &Turn{SessionID: sessionID, Response: resp}
}

func (s *Service) record(ctx context.Context, logger *logging.Logger, sessionID, text string, resp *dialogue.Response) {
	if s.transcript == nil {
		return
	}
	err := s.transcript.Append(ctx, sessionID,
		Message{Role: RoleUser, Body: text},
		Message{Role: RoleAssistant, Body: resp.Message, Outcome: string(resp.Outcome)},
	)
	if err != nil {
		logger.Warn("failed to append transcript", "error", err)
	}
}

func (s *Service) afterBooking(ctx context.Context, logger *logging.Logger, sessionID string, appt ledger.Appointment) {
	s.metrics.ObserveBooking(appt.Doctor.Name)

	if s.email != nil {
		err := s.email.Send(ctx, notify.AppointmentConfirmation(s.clinic, appt))
		s.metrics.ObserveSideEffect("email", err == nil)
		if err != nil {
			logger.Warn("confirmation email failed", "error", err, "appointment_id", appt.ID)
		}
	}
	if s.events != nil {
		err := s.events.PublishAppointmentBooked(ctx, events.NewAppointmentBooked(sessionID, appt))
		s.metrics.ObserveSideEffect("event", err == nil)
		if err != nil {
			logger.Warn("booking event publish failed", "error", err, "appointment_id", appt.ID)
		}
	}
}
