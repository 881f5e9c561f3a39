// Package directory holds the read-only catalog of doctors and their weekly
// availability.
package directory

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed doctors.json
var seedJSON []byte

var (
	// ErrDuplicateID is returned when two doctors share an id.
	ErrDuplicateID = errors.New("directory: duplicate doctor id")
	// ErrInvalidDoctor is returned when a doctor lacks a name or id.
	ErrInvalidDoctor = errors.New("directory: invalid doctor")
	// ErrDoctorNotFound is returned by Get for unknown ids.
	ErrDoctorNotFound = errors.New("directory: doctor not found")
)

// Availability is one weekday and its ordered time slots.
type Availability struct {
	Day   string   `json:"day"`
	Slots []string `json:"slots"`
}

// Doctor is a catalog entry.
type Doctor struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Specialty      string         `json:"specialty"`
	Qualifications string         `json:"qualifications"`
	Experience     string         `json:"experience"`
	Location       string         `json:"location"`
	ContactNumber  string         `json:"contactNumber"`
	Availability   []Availability `json:"availability"`
}

// AvailableDays lists the doctor's days in catalog order.
func (d Doctor) AvailableDays() []string {
	days := make([]string, 0, len(d.Availability))
	for _, a := range d.Availability {
		days = append(days, a.Day)
	}
	return days
}

// SlotsFor returns the slots offered on day (exact catalog spelling).
func (d Doctor) SlotsFor(day string) ([]string, bool) {
	for _, a := range d.Availability {
		if a.Day == day {
			return append([]string(nil), a.Slots...), true
		}
	}
	return nil, false
}

// Summary renders the doctor as a multi-line description.
func (d Doctor) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", d.Name, d.Specialty)
	fmt.Fprintf(&b, "Qualifications: %s\n", d.Qualifications)
	fmt.Fprintf(&b, "Experience: %s\n", d.Experience)
	fmt.Fprintf(&b, "Location: %s\n", d.Location)
	fmt.Fprintf(&b, "Available Days: %s\n", strings.Join(d.AvailableDays(), ", "))
	fmt.Fprintf(&b, "Contact: %s", d.ContactNumber)
	return b.String()
}

// Clone returns a deep copy so callers cannot reach into catalog slices.
func (d Doctor) Clone() Doctor {
	out := d
	out.Availability = make([]Availability, len(d.Availability))
	for i, a := range d.Availability {
		out.Availability[i] = Availability{Day: a.Day, Slots: append([]string(nil), a.Slots...)}
	}
	return out
}

// Directory is immutable after construction and safe for concurrent reads.
type Directory struct {
	doctors []Doctor
	byID    map[int]int
}

// New validates and copies doctors into a Directory.
func New(doctors []Doctor) (*Directory, error) {
	d := &Directory{
		doctors: make([]Doctor, 0, len(doctors)),
		byID:    make(map[int]int, len(doctors)),
	}
	for _, doc := range doctors {
		if doc.ID <= 0 || strings.TrimSpace(doc.Name) == "" {
			return nil, fmt.Errorf("%w: id=%d name=%q", ErrInvalidDoctor, doc.ID, doc.Name)
		}
		if _, dup := d.byID[doc.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, doc.ID)
		}
		d.byID[doc.ID] = len(d.doctors)
		d.doctors = append(d.doctors, doc.Clone())
	}
	return d, nil
}

// Load decodes a JSON array of doctors.
func Load(r io.Reader) (*Directory, error) {
	var doctors []Doctor
	if err := json.NewDecoder(r).Decode(&doctors); err != nil {
		return nil, fmt.Errorf("directory: decode catalog: %w", err)
	}
	return New(doctors)
}

// LoadFile reads a JSON catalog from disk.
func LoadFile(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("directory: open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the built-in clinic catalog.
func Default() *Directory {
	var doctors []Doctor
	if err := json.Unmarshal(seedJSON, &doctors); err != nil {
		panic("directory: embedded catalog is invalid: " + err.Error())
	}
	d, err := New(doctors)
	if err != nil {
		panic(err)
	}
	return d
}

// Doctors returns a copy of the catalog in order.
func (d *Directory) Doctors() []Doctor {
	out := make([]Doctor, len(d.doctors))
	for i, doc := range d.doctors {
		out[i] = doc.Clone()
	}
	return out
}

// Get looks a doctor up by id.
func (d *Directory) Get(id int) (Doctor, error) {
	idx, ok := d.byID[id]
	if !ok {
		return Doctor{}, fmt.Errorf("%w: %d", ErrDoctorNotFound, id)
	}
	return d.doctors[idx].Clone(), nil
}

// Len is the number of doctors.
func (d *Directory) Len() int {
	return len(d.doctors)
}
