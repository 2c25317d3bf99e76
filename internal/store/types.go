package store

import (
	"errors"
	"fmt"
	"time"

	"clinic-reservation-backend/internal/model"
)

var (
	ErrStudentNotFound      = errors.New("student not found")
	ErrClinicNotFound       = errors.New("clinic not found")
	ErrReservationNotFound  = errors.New("reservation not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")

	ErrReservationClosed = errors.New("reservation_closed")
	ErrAlreadyReserved   = errors.New("already_reserved")
	ErrNotReserved       = errors.New("not_reserved")
	ErrOccupied          = errors.New("occupied")
	ErrNoShowBlocked     = errors.New("no_show_blocked")

	ErrSlotOutsideGrid       = errors.New("slot outside the weekly grid")
	ErrCapacityBelowReserved = errors.New("capacity below reserved seats")
)

// OccupiedError reports the counts that made the clinic full.
type OccupiedError struct {
	CurrentCount int
	Capacity     int
}

func (e *OccupiedError) Error() string {
	return fmt.Sprintf("occupied: %d/%d", e.CurrentCount, e.Capacity)
}

func (e *OccupiedError) Unwrap() error { return ErrOccupied }

// NoShowBlockedError reports a student blocked for repeated no-shows.
type NoShowBlockedError struct {
	NoShowCount int
	StudentName string
}

func (e *NoShowBlockedError) Error() string {
	return fmt.Sprintf("no_show_blocked: %s has %d no-shows", e.StudentName, e.NoShowCount)
}

func (e *NoShowBlockedError) Unwrap() error { return ErrNoShowBlocked }

// ReserveOutcome is the result of a committed reservation.
type ReserveOutcome struct {
	Reservation    model.Reservation
	Clinic         model.Clinic
	Student        model.Student
	RemainingSpots int
}

// CancelOutcome is the result of a committed cancellation.
type CancelOutcome struct {
	Clinic         model.Clinic
	RemainingSpots int
}

// AttendanceFilter narrows ListAttendance. Zero fields are ignored.
type AttendanceFilter struct {
	ClinicID   int64
	StudentID  int64
	Date       string
	WeekOf     *time.Time
	ActiveOnly bool
}

// ResetSummary describes what a weekly reset changed, or would change.
type ResetSummary struct {
	WeekStart   string `json:"week_start"`
	Deactivated int64  `json:"deactivated"`
	Clinics     int64  `json:"clinics"`
	DryRun      bool   `json:"dry_run"`
}

// ClinicPatch lists the clinic fields an administrator may change. Nil
// fields are left alone.
type ClinicPatch struct {
	Capacity *int
	IsActive *bool
}
