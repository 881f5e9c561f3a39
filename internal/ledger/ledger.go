// Package ledger is the append-only record of confirmed appointments.
package ledger

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
)

// ErrIncomplete is returned when an appointment lacks patient, day or time.
var ErrIncomplete = errors.New("ledger: appointment is incomplete")

// Patient identifies who booked.
type Patient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Appointment is immutable once appended. ID is assigned by the ledger.
type Appointment struct {
	ID       int64            `json:"id"`
	Patient  Patient          `json:"patient"`
	Doctor   directory.Doctor `json:"doctor"`
	Day      string           `json:"day"`
	Time     string           `json:"time"`
	BookedAt time.Time        `json:"booked_at"`
}

func (a Appointment) validate() error {
	if strings.TrimSpace(a.Patient.Email) == "" || a.Day == "" || a.Time == "" || a.Doctor.ID == 0 {
		return ErrIncomplete
	}
	return nil
}

// Filter narrows a query. The zero Filter matches everything.
type Filter struct {
	PatientEmail string
}

// Matches reports whether a satisfies f.
func (f Filter) Matches(a Appointment) bool {
	return f.PatientEmail == "" || a.Patient.Email == f.PatientEmail
}

// Ledger appends and queries appointments. Append assigns ids 1, 2, 3, ...
// with no gaps, and is safe for concurrent callers.
type Ledger interface {
	Append(ctx context.Context, appt Appointment) (Appointment, error)
	Query(ctx context.Context, filter Filter) ([]Appointment, error)
}

// MemoryLedger keeps appointments in process memory.
type MemoryLedger struct {
	mu      sync.RWMutex
	entries []Appointment
	now     func() time.Time
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{now: func() time.Time { return time.Now().UTC() }}
}

func (m *MemoryLedger) Append(_ context.Context, appt Appointment) (Appointment, error) {
	if err := appt.validate(); err != nil {
		return Appointment{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	appt.ID = int64(len(m.entries)) + 1
	appt.Doctor = appt.Doctor.Clone()
	if appt.BookedAt.IsZero() {
		appt.BookedAt = m.now()
	}
	m.entries = append(m.entries, appt)
	return appt, nil
}

func (m *MemoryLedger) Query(_ context.Context, filter Filter) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Appointment, 0)
	for _, appt := range m.entries {
		if filter.Matches(appt) {
			appt.Doctor = appt.Doctor.Clone()
			out = append(out, appt)
		}
	}
	return out, nil
}

// Len returns the number of appointments.
func (m *MemoryLedger) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
