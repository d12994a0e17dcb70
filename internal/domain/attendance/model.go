package attendance

import (
	"errors"
	"strings"
	"time"
)

// Status constants for an attendance mark.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

// MaxNotesLength bounds the free-text notes staff can attach.
const MaxNotesLength = 500

// DateLayout is the storage and wire format for class dates.
const DateLayout = "2006-01-02"

// Domain errors
var (
	ErrMissingStudent = errors.New("attendance must be associated with a student")
	ErrMissingClass   = errors.New("attendance must be associated with a class")
	ErrMissingDate    = errors.New("attendance date must be set")
	ErrInvalidStatus  = errors.New("status must be 'present', 'absent', 'late', or 'excused'")
	ErrNotesTooLong   = errors.New("notes cannot exceed 500 characters")
)

// Record is a single student's mark for one class session.
type Record struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	ClassID   string    `json:"class_id"`
	Date      time.Time `json:"date"` // calendar date, UTC midnight
	Status    string    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
}

// Validate checks if the Record has valid data.
// PRE: Record struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: StudentID, ClassID and Date are required
func (r *Record) Validate() error {
	if strings.TrimSpace(r.StudentID) == "" {
		return ErrMissingStudent
	}
	if strings.TrimSpace(r.ClassID) == "" {
		return ErrMissingClass
	}
	if r.Date.IsZero() {
		return ErrMissingDate
	}
	if !ValidStatus(r.Status) {
		return ErrInvalidStatus
	}
	if len(r.Notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	return nil
}

// Edit applies a staff correction to status and notes.
// PRE: status is a valid status
// POST: Status and Notes replaced; identity fields untouched
func (r *Record) Edit(status, notes string) error {
	if !ValidStatus(status) {
		return ErrInvalidStatus
	}
	if len(notes) > MaxNotesLength {
		return ErrNotesTooLong
	}
	r.Status = status
	r.Notes = notes
	return nil
}

// ValidStatus reports whether s is a known attendance status.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// DateOf returns t's calendar date, read in t's own location, as UTC
// midnight. A mark taken late in the evening in Auckland keeps its local day.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a UTC calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}
