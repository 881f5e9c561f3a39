package dialogue

import (
	"fmt"
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
)

const (
	msgEmailPrompt     = "I'll need your email address to complete your profile."
	msgInvalidEmail    = "That doesn't look like a valid email address. Please enter a valid email."
	msgInvalidDay      = "Please select a valid day from the options provided."
	msgInvalidSlot     = "Please select a valid time slot from the options provided."
	msgNoAppointments  = "You have no scheduled appointments."
	msgFallback        = "I'm here to assist you. What would you like to do?"
	msgDoctorsHeader   = "Here are our available doctors:"
	msgAppointmentsHdr = "Your Scheduled Appointments:"

	// GenericError is shown whenever a turn cannot be completed.
	GenericError = "Something went wrong. Please try again."
)

func namePrompt(clinic string) string {
	return fmt.Sprintf("Hello! Welcome to %s. I'll need your full name to get started.", clinic)
}

func nameCaptured(name string) string {
	return fmt.Sprintf("Thank you, %s. Now, could you please provide your email address?", name)
}

func identitySummary(clinic, name, email string) string {
	return fmt.Sprintf("Great! I've captured your information:\nName: %s\nEmail: %s\n\n"+
		"Welcome to %s! Would you like to:\n"+
		"1. View available doctors\n"+
		"2. Schedule an appointment\n"+
		"3. View your appointments", name, email, clinic)
}

func doctorChoicePrompt(doctors []directory.Doctor) string {
	var b strings.Builder
	b.WriteString("Let's schedule your appointment. Please choose a doctor by name or specialty:\n")
	for _, d := range doctors {
		fmt.Fprintf(&b, "\n- %s (%s)", d.Name, d.Specialty)
	}
	return b.String()
}

func doctorRetryPrompt(doctors []directory.Doctor) string {
	var b strings.Builder
	b.WriteString("I couldn't find that doctor. Please choose one of the following by name or specialty:\n")
	for _, d := range doctors {
		fmt.Fprintf(&b, "\n- %s (%s)", d.Name, d.Specialty)
	}
	return b.String()
}

func doctorSelected(d directory.Doctor) string {
	return fmt.Sprintf("You've selected %s. Please choose a day from their availability:\n%s",
		d.Name, strings.Join(d.AvailableDays(), "\n"))
}

func slotList(day string, slots []string) string {
	return fmt.Sprintf("Available time slots for %s:\n%s\n\nPlease select a time slot.",
		day, strings.Join(slots, "\n"))
}

func confirmation(a ledger.Appointment) string {
	return fmt.Sprintf("Appointment Confirmed!\n\nDetails:\n"+
		"Patient: %s\nDoctor: %s\nSpecialty: %s\nDate: %s\nTime: %s\nLocation: %s\n\n"+
		"A confirmation will be sent to %s",
		a.Patient.Name, a.Doctor.Name, a.Doctor.Specialty, a.Day, a.Time, a.Doctor.Location, a.Patient.Email)
}

func doctorListing(doctors []directory.Doctor) string {
	parts := make([]string, 0, len(doctors))
	for _, d := range doctors {
		parts = append(parts, d.Summary())
	}
	return msgDoctorsHeader + "\n\n" + strings.Join(parts, "\n\n")
}

func appointmentListing(appts []ledger.Appointment) string {
	var b strings.Builder
	b.WriteString(msgAppointmentsHdr)
	for _, a := range appts {
		fmt.Fprintf(&b, "\n\nAppointment #%d\nDoctor: %s (%s)\nDate: %s\nTime: %s\nLocation: %s",
			a.ID, a.Doctor.Name, a.Doctor.Specialty, a.Day, a.Time, a.Doctor.Location)
	}
	return b.String()
}
