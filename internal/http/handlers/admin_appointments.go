package handlers

import (
	"net/http"
	"strings"

	"github.com/wolfman30/vitalpoint-assistant/internal/ledger"
	"github.com/wolfman30/vitalpoint-assistant/pkg/logging"
)

// AdminAppointmentsHandler lists ledger entries for staff.
type AdminAppointmentsHandler struct {
	ledger ledger.Ledger
	logger *logging.Logger
}

func NewAdminAppointmentsHandler(l ledger.Ledger, logger *logging.Logger) *AdminAppointmentsHandler {
	if l == nil {
		panic("handlers: ledger required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{ledger: l, logger: logger}
}

type appointmentsResponse struct {
	Appointments []ledger.Appointment `json:"appointments"`
	Count        int                  `json:"count"`
}

// ListAppointments returns every appointment, or one patient's with ?email=.
func (h *AdminAppointmentsHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	filter := ledger.Filter{PatientEmail: strings.TrimSpace(r.URL.Query().Get("email"))}
	appts, err := h.ledger.Query(r.Context(), filter)
	if err != nil {
		h.logger.Error("appointment query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load appointments")
		return
	}
	writeJSON(w, http.StatusOK, appointmentsResponse{Appointments: appts, Count: len(appts)})
}
