// Package dialogue is the booking conversation state machine. Each turn takes
// the caller's session state and raw text, updates the state in place and
// returns the reply.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/internal/nlp"
	"github.com/wolfman30/vitalpoint-assistant/internal/session"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

var (
	// ErrEmptyInput is returned for blank user text. No state changes.
	ErrEmptyInput = errors.New("dialogue: empty input")
	// ErrNoSession is returned when Process is called without a state.
	ErrNoSession = errors.New("dialogue: session state required")
)

// DefaultClinicName is used when no clinic name is configured.
const DefaultClinicName = "VitalPoint Clinic"

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

var (
	listingPhrases      = []string{"available doctors", "list of doctors"}
	appointmentPhrases  = []string{"my appointments", "appointment history"}
	bookingKeywords     = []string{"schedule", "book", "appointment"}
	doctorTitlePrefixes = []string{"dr. ", "dr "}
)

// Outcome labels what a turn did. It feeds metrics and logs.
type Outcome string

const (
	OutcomeNamePrompt         Outcome = "name_prompt"
	OutcomeNameCaptured       Outcome = "name_captured"
	OutcomeEmailPrompt        Outcome = "email_prompt"
	OutcomeEmailCaptured      Outcome = "email_captured"
	OutcomeEmailInvalid       Outcome = "email_invalid"
	OutcomeListedDoctors      Outcome = "listed_doctors"
	OutcomeListedAppointments Outcome = "listed_appointments"
	OutcomeBookingStarted     Outcome = "booking_started"
	OutcomeDoctorSelected     Outcome = "doctor_selected"
	OutcomeDoctorUnmatched    Outcome = "doctor_unmatched"
	OutcomeDaySelected        Outcome = "day_selected"
	OutcomeDayUnmatched       Outcome = "day_unmatched"
	OutcomeBooked             Outcome = "booked"
	OutcomeSlotUnmatched      Outcome = "slot_unmatched"
	OutcomeFallback           Outcome = "fallback"
	OutcomeError              Outcome = "error"
)

// Response is the reply to one turn.
type Response struct {
	Message      string               `json:"message"`
	Doctors      []directory.Doctor   `json:"doctors,omitempty"`
	Slots        []string             `json:"slots,omitempty"`
	Appointments []ledger.Appointment `json:"appointments,omitempty"`

	// Booked is set on the turn that appended an appointment.
	Booked  *ledger.Appointment `json:"-"`
	Outcome Outcome             `json:"-"`
}

// Analyzer turns raw text into an utterance.
type Analyzer interface {
	Analyze(text string) nlp.Utterance
	Normalize(text string) string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClinicName sets the name used in greetings.
func WithClinicName(name string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(name) != "" {
			e.clinic = name
		}
	}
}

// WithMatcher replaces the default substring matcher.
func WithMatcher(m Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// Engine runs turns against a directory and a ledger. It holds no
// per-session data and is safe for concurrent use across sessions.
type Engine struct {
	directory *directory.Directory
	ledger    ledger.Ledger
	analyzer  Analyzer
	matcher   Matcher
	clinic    string
	logger    *logging.Logger
}

// NewEngine wires an engine. A nil analyzer falls back to a tokenizer
// without lemmatization.
func NewEngine(dir *directory.Directory, l ledger.Ledger, analyzer Analyzer, logger *logging.Logger, opts ...Option) *Engine {
	if dir == nil {
		panic("dialogue: directory required")
	}
	if l == nil {
		panic("dialogue: ledger required")
	}
	if analyzer == nil {
		analyzer = nlp.NewTokenizer(nil)
	}
	if logger == nil {
		logger = logging.Default()
	}
	e := &Engine{
		directory: dir,
		ledger:    l,
		analyzer:  analyzer,
		matcher:   NewSubstringMatcher(analyzer),
		clinic:    DefaultClinicName,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Process runs one turn. The state is mutated in place; on a non-nil error
// the caller must discard it.
func (e *Engine) Process(ctx context.Context, st *session.State, text string) (*Response, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}
	if st == nil {
		return nil, ErrNoSession
	}
	u := e.analyzer.Analyze(text)

	if !st.IdentityComplete() {
		return e.captureIdentity(st, u), nil
	}

	if containsAny(u.Surface, listingPhrases) {
		doctors := e.directory.Doctors()
		return &Response{Message: doctorListing(doctors), Doctors: doctors, Outcome: OutcomeListedDoctors}, nil
	}
	if containsAny(u.Surface, appointmentPhrases) {
		return e.listAppointments(ctx, st)
	}

	if !st.Consistent() {
		e.logger.Warn("inconsistent booking state, resetting", "session_id", st.ID, "step", st.Step.String())
		st.ResetBooking()
		return &Response{Message: GenericError, Outcome: OutcomeError}, nil
	}

	switch st.Step {
	case session.StepSelectDoctor:
		return e.selectDoctor(st, u)
	case session.StepSelectDay:
		return e.selectDay(st, u)
	case session.StepSelectTime:
		return e.selectTime(ctx, st, u)
	}

	for _, kw := range bookingKeywords {
		if e.matcher.Contains(u, kw) {
			if err := st.BeginBooking(); err != nil {
				return nil, err
			}
			return &Response{Message: doctorChoicePrompt(e.directory.Doctors()), Outcome: OutcomeBookingStarted}, nil
		}
	}
	return &Response{Message: msgFallback, Outcome: OutcomeFallback}, nil
}

func (e *Engine) captureIdentity(st *session.State, u nlp.Utterance) *Response {
	joined := strings.Join(u.Tokens, " ")

	if !st.HasName() {
		if !st.Capture.NameAsked {
			st.MarkNameAsked()
			return &Response{Message: namePrompt(e.clinic), Outcome: OutcomeNamePrompt}
		}
		if err := st.SetName(joined); err != nil {
			return &Response{Message: namePrompt(e.clinic), Outcome: OutcomeNamePrompt}
		}
		// The reply already asks for the email, so the next turn is the answer.
		st.MarkEmailAsked()
		return &Response{Message: nameCaptured(st.Name), Outcome: OutcomeNameCaptured}
	}

	if !st.Capture.EmailAsked {
		st.MarkEmailAsked()
		return &Response{Message: msgEmailPrompt, Outcome: OutcomeEmailPrompt}
	}
	if !emailPattern.MatchString(joined) {
		return &Response{Message: msgInvalidEmail, Outcome: OutcomeEmailInvalid}
	}
	if err := st.SetEmail(joined); err != nil {
		return &Response{Message: msgInvalidEmail, Outcome: OutcomeEmailInvalid}
	}
	return &Response{Message: identitySummary(e.clinic, st.Name, st.Email), Outcome: OutcomeEmailCaptured}
}

func (e *Engine) listAppointments(ctx context.Context, st *session.State) (*Response, error) {
	appts, err := e.ledger.Query(ctx, ledger.Filter{PatientEmail: st.Email})
	if err != nil {
		return nil, fmt.Errorf("dialogue: query appointments: %w", err)
	}
	if len(appts) == 0 {
		return &Response{Message: msgNoAppointments, Outcome: OutcomeListedAppointments}, nil
	}
	return &Response{Message: appointmentListing(appts), Appointments: appts, Outcome: OutcomeListedAppointments}, nil
}

func (e *Engine) selectDoctor(st *session.State, u nlp.Utterance) (*Response, error) {
	doctors := e.directory.Doctors()
	for _, d := range doctors {
		if !e.matchesDoctor(u, d) {
			continue
		}
		if err := st.ChooseDoctor(d); err != nil {
			return nil, err
		}
		return &Response{Message: doctorSelected(d), Outcome: OutcomeDoctorSelected}, nil
	}
	return &Response{Message: doctorRetryPrompt(doctors), Outcome: OutcomeDoctorUnmatched}, nil
}

func (e *Engine) matchesDoctor(u nlp.Utterance, d directory.Doctor) bool {
	if e.matcher.Contains(u, d.Name) || e.matcher.Contains(u, d.Specialty) {
		return true
	}
	lower := strings.ToLower(d.Name)
	for _, prefix := range doctorTitlePrefixes {
		if bare, ok := strings.CutPrefix(lower, prefix); ok {
			return e.matcher.Contains(u, bare)
		}
	}
	return false
}

func (e *Engine) selectDay(st *session.State, u nlp.Utterance) (*Response, error) {
	for _, a := range st.Pending.Doctor.Availability {
		if !e.matcher.Contains(u, a.Day) {
			continue
		}
		if err := st.ChooseDay(a.Day); err != nil {
			return nil, err
		}
		slots := append([]string(nil), a.Slots...)
		return &Response{Message: slotList(a.Day, slots), Slots: slots, Outcome: OutcomeDaySelected}, nil
	}
	return &Response{Message: msgInvalidDay, Outcome: OutcomeDayUnmatched}, nil
}

func (e *Engine) selectTime(ctx context.Context, st *session.State, u nlp.Utterance) (*Response, error) {
	pending := st.Pending
	slots, ok := pending.Doctor.SlotsFor(pending.Day)
	if !ok {
		e.logger.Warn("pending day missing from doctor availability", "session_id", st.ID, "day", pending.Day)
		st.ResetBooking()
		return &Response{Message: GenericError, Outcome: OutcomeError}, nil
	}

	for _, slot := range slots {
		if !e.matcher.Contains(u, slot) {
			continue
		}
		appt, found, err := e.existingBooking(ctx, st.Email, pending.Doctor.ID, pending.Day, slot)
		if err != nil {
			return nil, err
		}
		if !found {
			appt, err = e.ledger.Append(ctx, ledger.Appointment{
				Patient: ledger.Patient{Name: st.Name, Email: st.Email},
				Doctor:  pending.Doctor,
				Day:     pending.Day,
				Time:    slot,
			})
			if err != nil {
				return nil, fmt.Errorf("dialogue: append appointment: %w", err)
			}
		}
		if _, err := st.CompleteBooking(slot); err != nil {
			return nil, err
		}
		if found {
			e.logger.Info("appointment already recorded", "session_id", st.ID, "appointment_id", appt.ID)
		} else {
			e.logger.Info("appointment booked", "session_id", st.ID, "appointment_id", appt.ID, "doctor_id", appt.Doctor.ID)
		}
		return &Response{Message: confirmation(appt), Booked: &appt, Outcome: OutcomeBooked}, nil
	}
	return &Response{Message: msgInvalidSlot, Outcome: OutcomeSlotUnmatched}, nil
}

// existingBooking finds an appointment the patient already holds for the same
// doctor, day and slot, so a retried confirmation does not book twice.
func (e *Engine) existingBooking(ctx context.Context, email string, doctorID int, day, slot string) (ledger.Appointment, bool, error) {
	appts, err := e.ledger.Query(ctx, ledger.Filter{PatientEmail: email})
	if err != nil {
		return ledger.Appointment{}, false, fmt.Errorf("dialogue: query appointments: %w", err)
	}
	for _, a := range appts {
		if a.Doctor.ID == doctorID && a.Day == day && a.Time == slot {
			return a, true, nil
		}
	}
	return ledger.Appointment{}, false, nil
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
