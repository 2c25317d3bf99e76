package eligibility

import (
	"fmt"
	"time"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
	"clinic-reservation-backend/internal/week"
)

// Outcome is the single answer to "may this student act on this slot now".
type Outcome int

const (
	Eligible Outcome = iota
	BookingBanned
	SlotDoesNotExist
	SlotBusy
	DayAlreadyPassed
	SlotFull
	AlreadyBooked
	NotReserved
)

var outcomeNames = map[Outcome]string{
	Eligible:         "eligible",
	BookingBanned:    "booking_banned",
	SlotDoesNotExist: "slot_does_not_exist",
	SlotBusy:         "slot_busy",
	DayAlreadyPassed: "day_already_passed",
	SlotFull:         "slot_full",
	AlreadyBooked:    "already_booked",
	NotReserved:      "not_reserved",
}

var outcomeMessages = map[Outcome]string{
	BookingBanned:    "booking is blocked because of repeated no-shows",
	SlotDoesNotExist: "no clinic is scheduled in this slot",
	SlotBusy:         "another change to this slot is still being confirmed",
	DayAlreadyPassed: "this day has already passed for the current week",
	SlotFull:         "the clinic is full",
	AlreadyBooked:    "a clinic is already reserved on this day",
	NotReserved:      "the student has no reservation in this slot",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Err returns nil for Eligible and a *ValidationError otherwise.
func (o Outcome) Err() error {
	if o == Eligible {
		return nil
	}
	return &ValidationError{Outcome: o}
}

// ValidationError is a local rejection that never reached the server.
type ValidationError struct {
	Outcome Outcome
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Outcome, outcomeMessages[e.Outcome])
}

// PlaceRequest is everything the validator looks at for a placement.
type PlaceRequest struct {
	Student model.Student
	// Banned is an externally supplied ban applied on top of the no-show count.
	Banned bool
	Day    week.Day
	// Slot is nil when (Day, time) is not part of the grid.
	Slot     *schedule.Slot
	InFlight bool
	// BookedOnDay reports an existing reservation anywhere on Day.
	BookedOnDay bool
	Now         time.Time
}

// CancelRequest is everything the validator looks at for a cancellation.
type CancelRequest struct {
	StudentID int64
	Slot      *schedule.Slot
	InFlight  bool
}

// Validator answers eligibility questions without side effects.
type Validator struct {
	NoShowThreshold int
}

// New creates a Validator with the given no-show threshold.
func New(noShowThreshold int) Validator {
	return Validator{NoShowThreshold: noShowThreshold}
}

// Banned reports whether the student's no-show count blocks booking.
func (v Validator) Banned(s model.Student) bool {
	return v.NoShowThreshold > 0 && s.NoShowCount >= v.NoShowThreshold
}

// CheckPlace evaluates a placement. When several rules fail the first in
// this order wins: banned, missing slot, busy slot, past day, full slot,
// already booked.
func (v Validator) CheckPlace(req PlaceRequest) Outcome {
	if req.Banned || v.Banned(req.Student) {
		return BookingBanned
	}
	if req.Slot == nil || !req.Slot.Bookable() {
		return SlotDoesNotExist
	}
	if req.InFlight {
		return SlotBusy
	}
	if week.IsPast(req.Day, req.Now) {
		return DayAlreadyPassed
	}
	if req.Slot.Counts().Full {
		return SlotFull
	}
	if req.BookedOnDay || req.Slot.HasOccupant(req.Student.ID) {
		return AlreadyBooked
	}
	return Eligible
}

// CheckCancel evaluates a cancellation. Cancelling is allowed on past days
// and for banned students.
func (v Validator) CheckCancel(req CancelRequest) Outcome {
	if req.Slot == nil || !req.Slot.Bookable() {
		return SlotDoesNotExist
	}
	if req.InFlight {
		return SlotBusy
	}
	if !req.Slot.HasOccupant(req.StudentID) {
		return NotReserved
	}
	return Eligible
}
