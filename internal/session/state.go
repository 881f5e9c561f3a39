// Package session holds per-conversation dialogue state and its storage.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
)

var (
	// ErrIdentityImmutable is returned when a captured name or email would change.
	ErrIdentityImmutable = errors.New("session: identity already captured")
	// ErrEmptyIdentity is returned when an empty name or email is offered.
	ErrEmptyIdentity = errors.New("session: identity value is empty")
	// ErrInvalidTransition is returned when a booking step is taken out of order.
	ErrInvalidTransition = errors.New("session: invalid booking transition")
)

// Step is the position in the booking sub-flow.
type Step string

const (
	StepNone         Step = ""
	StepSelectDoctor Step = "select_doctor"
	StepSelectDay    Step = "select_day"
	StepSelectTime   Step = "select_time"
)

func (s Step) String() string {
	if s == StepNone {
		return "none"
	}
	return string(s)
}

// CaptureFlags record which identity prompts were already sent.
type CaptureFlags struct {
	NameAsked  bool `json:"name_asked"`
	EmailAsked bool `json:"email_asked"`
}

// PendingAppointment is built up one step at a time.
type PendingAppointment struct {
	Doctor directory.Doctor `json:"doctor"`
	Day    string           `json:"day,omitempty"`
	Time   string           `json:"time,omitempty"`
}

// State is one conversation's progress. Name and Email are empty until
// captured and never change afterwards.
type State struct {
	ID        string              `json:"id"`
	Name      string              `json:"name,omitempty"`
	Email     string              `json:"email,omitempty"`
	Capture   CaptureFlags        `json:"capture"`
	Step      Step                `json:"appointment_step,omitempty"`
	Pending   *PendingAppointment `json:"pending_appointment,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// New returns a fresh state for id.
func New(id string) *State {
	now := time.Now().UTC()
	return &State{ID: id, CreatedAt: now, UpdatedAt: now}
}

// HasName reports whether a name was captured.
func (s *State) HasName() bool { return s.Name != "" }

// HasEmail reports whether an email was captured.
func (s *State) HasEmail() bool { return s.Email != "" }

// IdentityComplete reports whether both name and email are captured.
func (s *State) IdentityComplete() bool { return s.HasName() && s.HasEmail() }

// MarkNameAsked flips the name flag; it never resets.
func (s *State) MarkNameAsked() { s.Capture.NameAsked = true }

// MarkEmailAsked flips the email flag; it never resets.
func (s *State) MarkEmailAsked() { s.Capture.EmailAsked = true }

// SetName captures the name once.
func (s *State) SetName(name string) error {
	if s.HasName() {
		return ErrIdentityImmutable
	}
	if strings.TrimSpace(name) == "" {
		return ErrEmptyIdentity
	}
	s.Name = name
	return nil
}

// SetEmail captures the email once. Format validation is the caller's job.
func (s *State) SetEmail(email string) error {
	if s.HasEmail() {
		return ErrIdentityImmutable
	}
	if strings.TrimSpace(email) == "" {
		return ErrEmptyIdentity
	}
	s.Email = email
	return nil
}

// BeginBooking moves None -> SelectDoctor.
func (s *State) BeginBooking() error {
	if s.Step != StepNone {
		return fmt.Errorf("%w: begin from %s", ErrInvalidTransition, s.Step)
	}
	s.Step = StepSelectDoctor
	s.Pending = nil
	return nil
}

// ChooseDoctor moves SelectDoctor -> SelectDay.
func (s *State) ChooseDoctor(doc directory.Doctor) error {
	if s.Step != StepSelectDoctor {
		return fmt.Errorf("%w: doctor from %s", ErrInvalidTransition, s.Step)
	}
	s.Pending = &PendingAppointment{Doctor: doc.Clone()}
	s.Step = StepSelectDay
	return nil
}

// ChooseDay moves SelectDay -> SelectTime.
func (s *State) ChooseDay(day string) error {
	if s.Step != StepSelectDay || s.Pending == nil {
		return fmt.Errorf("%w: day from %s", ErrInvalidTransition, s.Step)
	}
	s.Pending.Day = day
	s.Step = StepSelectTime
	return nil
}

// CompleteBooking records the slot and returns the finished pending record,
// moving SelectTime -> None.
func (s *State) CompleteBooking(slot string) (PendingAppointment, error) {
	if s.Step != StepSelectTime || s.Pending == nil || s.Pending.Day == "" {
		return PendingAppointment{}, fmt.Errorf("%w: time from %s", ErrInvalidTransition, s.Step)
	}
	done := *s.Pending
	done.Time = slot
	s.ResetBooking()
	return done, nil
}

// ResetBooking abandons any in-progress booking.
func (s *State) ResetBooking() {
	s.Step = StepNone
	s.Pending = nil
}

// Consistent checks the step/pending invariant.
func (s *State) Consistent() bool {
	switch s.Step {
	case StepNone, StepSelectDoctor:
		return s.Pending == nil
	case StepSelectDay:
		return s.Pending != nil
	case StepSelectTime:
		return s.Pending != nil && s.Pending.Day != ""
	default:
		return false
	}
}

// Clone returns a deep copy.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	if s.Pending != nil {
		p := *s.Pending
		p.Doctor = s.Pending.Doctor.Clone()
		out.Pending = &p
	}
	return &out
}
