package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
)

// AppointmentConfirmation builds the email sent after a booking.
func AppointmentConfirmation(clinic string, appt ledger.Appointment) EmailMessage {
	if strings.TrimSpace(clinic) == "" {
		clinic = DefaultFromName
	}
	lines := []string{
		fmt.Sprintf("Hi %s,", appt.Patient.Name),
		"",
		fmt.Sprintf("Your appointment at %s is confirmed.", clinic),
		"",
		fmt.Sprintf("Appointment #%d", appt.ID),
		fmt.Sprintf("Doctor: %s (%s)", appt.Doctor.Name, appt.Doctor.Specialty),
		fmt.Sprintf("Date: %s", appt.Day),
		fmt.Sprintf("Time: %s", appt.Time),
		fmt.Sprintf("Location: %s", appt.Doctor.Location),
		fmt.Sprintf("Contact: %s", appt.Doctor.ContactNumber),
	}
	text := strings.Join(lines, "\n")

	var b strings.Builder
	for _, line := range lines {
		if line == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>", html.EscapeString(line))
	}

	return EmailMessage{
		To:      appt.Patient.Email,
		ToName:  appt.Patient.Name,
		Subject: fmt.Sprintf("Appointment confirmed: %s, %s at %s", appt.Doctor.Name, appt.Day, appt.Time),
		Body:    text,
		HTML:    b.String(),
	}
}
