package handlers

import (
	"net/http"

	"github.com/wolfman30/vitalpoint-assistant/internal/directory"
)

// DoctorsHandler serves the read-only catalog.
type DoctorsHandler struct {
	directory *directory.Directory
}

func NewDoctorsHandler(dir *directory.Directory) *DoctorsHandler {
	if dir == nil {
		panic("handlers: directory required")
	}
	return &DoctorsHandler{directory: dir}
}

func (h *DoctorsHandler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"doctors": h.directory.Doctors()})
}
