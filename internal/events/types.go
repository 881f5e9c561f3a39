// Package events carries booking notifications to downstream consumers.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
)

// TypeAppointmentBooked names the event emitted after a ledger append.
const TypeAppointmentBooked = "appointment.booked.v1"

type AppointmentBookedV1 struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	SessionID     string    `json:"session_id"`
	AppointmentID int64     `json:"appointment_id"`
	PatientName   string    `json:"patient_name"`
	PatientEmail  string    `json:"patient_email"`
	DoctorID      int       `json:"doctor_id"`
	DoctorName    string    `json:"doctor_name"`
	Specialty     string    `json:"specialty"`
	Day           string    `json:"day"`
	Time          string    `json:"time"`
	Location      string    `json:"location"`
	BookedAt      time.Time `json:"booked_at"`
}

// NewAppointmentBooked builds the event for appt with a fresh event id.
func NewAppointmentBooked(sessionID string, appt ledger.Appointment) AppointmentBookedV1 {
	return AppointmentBookedV1{
		EventID:       uuid.NewString(),
		Type:          TypeAppointmentBooked,
		SessionID:     sessionID,
		AppointmentID: appt.ID,
		PatientName:   appt.Patient.Name,
		PatientEmail:  appt.Patient.Email,
		DoctorID:      appt.Doctor.ID,
		DoctorName:    appt.Doctor.Name,
		Specialty:     appt.Doctor.Specialty,
		Day:           appt.Day,
		Time:          appt.Time,
		Location:      appt.Doctor.Location,
		BookedAt:      appt.BookedAt,
	}
}
