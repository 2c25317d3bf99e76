package reservation

import (
	"context"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
)

// ReserveResponse is the server's confirmation of a placement.
type ReserveResponse struct {
	Message        string
	RemainingSpots int
	// Student is the server's record after booking, with any flags it
	// cleared as a side effect.
	Student *model.Student
}

// CancelResponse is the server's confirmation of a cancellation.
type CancelResponse struct {
	Message        string
	RemainingSpots int
}

// Remote is the system of record the coordinator confirms changes with.
// Implementations report refusals as *RejectionError and failures to get
// an answer as *TransportError.
type Remote interface {
	FetchWeeklySchedule(ctx context.Context) (schedule.WeeklySchedule, error)
	Reserve(ctx context.Context, studentID, clinicID int64) (ReserveResponse, error)
	Cancel(ctx context.Context, studentID, clinicID int64) (CancelResponse, error)
	FetchAttendance(ctx context.Context, clinicID int64, date string) ([]model.Reservation, error)
	UpdateAttendanceStatus(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error)
	UpdateStudentFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	FetchWeekReservations(ctx context.Context) ([]model.Reservation, error)
}
