package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"dojo/internal/domain/attendance"
)

// RecordAttendanceInput carries one mark taken at a class session.
type RecordAttendanceInput struct {
	StudentID string    `validate:"required"`
	ClassID   string    `validate:"required"`
	Date      time.Time `validate:"required"`
	Status    string    `validate:"required,oneof=present absent late excused"`
	Notes     string    `validate:"max=500"`
}

// RecordAttendanceDeps holds dependencies for RecordAttendance.
type RecordAttendanceDeps struct {
	AttendanceStore AttendanceStore
}

// ExecuteRecordAttendance stores a student's mark for a session.
// Marking the same student, class and date again replaces the earlier mark.
// PRE: input passes validation
// POST: Record persisted with its date normalised to UTC midnight
func ExecuteRecordAttendance(ctx context.Context, input RecordAttendanceInput, deps RecordAttendanceDeps) (attendance.Record, error) {
	if err := validateInput(input); err != nil {
		return attendance.Record{}, err
	}

	day := attendance.DateOf(input.Date)
	r := attendance.Record{
		ID:        attendanceID(input.StudentID, input.ClassID, day),
		StudentID: input.StudentID,
		ClassID:   input.ClassID,
		Date:      day,
		Status:    input.Status,
		Notes:     input.Notes,
	}
	if err := r.Validate(); err != nil {
		return attendance.Record{}, invalid(err)
	}
	if err := deps.AttendanceStore.Save(ctx, r); err != nil {
		return attendance.Record{}, fmt.Errorf("save attendance: %w", err)
	}

	slog.Info("attendance_recorded", "student_id", r.StudentID, "class_id", r.ClassID, "date", day.Format(attendance.DateLayout), "status", r.Status)
	return r, nil
}

// attendanceID derives a stable id from the natural key.
func attendanceID(studentID, classID string, day time.Time) string {
	key := studentID + "|" + classID + "|" + day.Format(attendance.DateLayout)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key)).String()
}

// UpdateAttendanceInput is a staff correction to an existing mark.
type UpdateAttendanceInput struct {
	ID     string `validate:"required"`
	Status string `validate:"required,oneof=present absent late excused"`
	Notes  string `validate:"max=500"`
}

// UpdateAttendanceDeps holds dependencies for UpdateAttendance.
type UpdateAttendanceDeps struct {
	AttendanceStore AttendanceStore
}

// ExecuteUpdateAttendance edits status and notes of a stored mark.
// PRE: the record exists
// POST: only Status and Notes change
func ExecuteUpdateAttendance(ctx context.Context, input UpdateAttendanceInput, deps UpdateAttendanceDeps) (attendance.Record, error) {
	if err := validateInput(input); err != nil {
		return attendance.Record{}, err
	}
	r, err := deps.AttendanceStore.GetByID(ctx, input.ID)
	if err != nil {
		return attendance.Record{}, fmt.Errorf("get attendance %s: %w", input.ID, err)
	}
	previous := r.Status
	if err := r.Edit(input.Status, input.Notes); err != nil {
		return attendance.Record{}, invalid(err)
	}
	if err := deps.AttendanceStore.Save(ctx, r); err != nil {
		return attendance.Record{}, fmt.Errorf("save attendance: %w", err)
	}
	slog.Info("attendance_updated", "id", r.ID, "from", previous, "to", r.Status)
	return r, nil
}
