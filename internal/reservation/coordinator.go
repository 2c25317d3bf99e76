package reservation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clinic-reservation-backend/internal/classify"
	"clinic-reservation-backend/internal/eligibility"
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
	"clinic-reservation-backend/internal/week"
)

// Options configures a Coordinator.
type Options struct {
	NoShowThreshold int
	// ResyncOnConflict refetches the whole grid after a rejection that shows
	// the local view was stale.
	ResyncOnConflict bool
	Now              func() time.Time
	Logger           *zap.Logger
}

// Coordinator places and cancels students against the local schedule and
// confirms every change with the Remote.
type Coordinator struct {
	remote    Remote
	store     *schedule.Store
	students  *Directory
	validator eligibility.Validator
	resync    bool
	now       func() time.Time
	logger    *zap.Logger
}

// NewCoordinator wires a coordinator around store and students.
func NewCoordinator(remote Remote, store *schedule.Store, students *Directory, opts Options) *Coordinator {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Coordinator{
		remote:    remote,
		store:     store,
		students:  students,
		validator: eligibility.New(opts.NoShowThreshold),
		resync:    opts.ResyncOnConflict,
		now:       opts.Now,
		logger:    opts.Logger,
	}
}

// Store returns the schedule store the coordinator mutates.
func (c *Coordinator) Store() *schedule.Store {
	return c.store
}

// Students returns the student directory.
func (c *Coordinator) Students() *Directory {
	return c.students
}

// Refresh replaces the local grid with the server's.
func (c *Coordinator) Refresh(ctx context.Context) error {
	ws, err := c.remote.FetchWeeklySchedule(ctx)
	if err != nil {
		return remoteError("fetch weekly schedule", err)
	}
	c.store.Replace(ws)
	c.logger.Debug("Schedule refreshed", zap.Int("clinics", ws.TotalClinics()))
	return nil
}

// RefreshStudents replaces the student directory with the server's.
func (c *Coordinator) RefreshStudents(ctx context.Context) error {
	students, err := c.remote.ListStudents(ctx)
	if err != nil {
		return remoteError("list students", err)
	}
	c.students.Load(students)
	return nil
}

// PlaceResult describes a confirmed placement.
type PlaceResult struct {
	Slot           schedule.Slot
	Student        model.Student
	Status         classify.Status
	RemainingSpots int
	Message        string
}

// Place books studentID into (day, slotTime). Local rule violations return an
// *eligibility.ValidationError without contacting the server; any server
// failure leaves the local schedule and student record as they were.
func (c *Coordinator) Place(ctx context.Context, studentID int64, day week.Day, slotTime string) (PlaceResult, error) {
	log := c.logger.With(zap.Int64("student_id", studentID), zap.String("day", string(day)), zap.String("time", slotTime))

	student, ok := c.students.Get(studentID)
	if !ok {
		return PlaceResult{}, ErrUnknownStudent
	}

	if outcome := c.checkPlace(student, day, slotTime, c.store.InFlight(day, slotTime)); outcome != eligibility.Eligible {
		log.Info("Placement rejected locally", zap.Stringer("outcome", outcome))
		return PlaceResult{}, outcome.Err()
	}

	txn, err := c.store.Begin(day, slotTime)
	if err != nil {
		return PlaceResult{}, beginError(err)
	}
	// Re-check now that the slot is ours; another path may have changed it.
	if outcome := c.checkPlace(student, day, slotTime, false); outcome != eligibility.Eligible {
		txn.Rollback()
		log.Info("Placement rejected locally", zap.Stringer("outcome", outcome))
		return PlaceResult{}, outcome.Err()
	}

	slot, _ := txn.Slot()
	if err := txn.AddOccupant(schedule.Occupant{ID: student.ID, Name: student.Name, Username: student.Username}); err != nil {
		txn.Rollback()
		return PlaceResult{}, fmt.Errorf("failed to apply placement: %w", err)
	}
	undoStudent, _ := c.students.Update(studentID, func(s *model.Student) { s.NonPass = false })

	res, err := c.remote.Reserve(ctx, studentID, *slot.ClinicID)
	if err != nil {
		txn.Rollback()
		undoStudent()
		err = remoteError("reserve", err)
		log.Warn("Placement rolled back", zap.Error(err))
		c.resyncAfter(ctx, err)
		return PlaceResult{}, err
	}
	txn.Commit()

	// Only a record from the server confirms the cleared flag.
	if res.Student != nil {
		c.students.Put(*res.Student)
	} else {
		undoStudent()
	}
	student, _ = c.students.Get(studentID)
	placed, _ := c.store.Slot(day, slotTime)
	log.Info("Student placed", zap.Int64("clinic_id", *slot.ClinicID), zap.Int("remaining_spots", res.RemainingSpots))

	return PlaceResult{
		Slot:           placed,
		Student:        student,
		Status:         c.StatusOf(student),
		RemainingSpots: res.RemainingSpots,
		Message:        res.Message,
	}, nil
}

func (c *Coordinator) checkPlace(student model.Student, day week.Day, slotTime string, inFlight bool) eligibility.Outcome {
	req := eligibility.PlaceRequest{
		Student:     student,
		Day:         day,
		InFlight:    inFlight,
		BookedOnDay: c.store.HasOccupantOnDay(student.ID, day),
		Now:         c.now(),
	}
	if slot, ok := c.store.Slot(day, slotTime); ok {
		req.Slot = &slot
	}
	return c.validator.CheckPlace(req)
}

// CancelResult describes a confirmed cancellation.
type CancelResult struct {
	Slot           schedule.Slot
	Status         classify.Status
	RemainingSpots int
	Message        string
}

// Cancel removes studentID from (day, slotTime). It mirrors Place: the occupant
// is removed first and put back at the same position if the server refuses.
func (c *Coordinator) Cancel(ctx context.Context, studentID int64, day week.Day, slotTime string) (CancelResult, error) {
	log := c.logger.With(zap.Int64("student_id", studentID), zap.String("day", string(day)), zap.String("time", slotTime))

	if outcome := c.checkCancel(studentID, day, slotTime, c.store.InFlight(day, slotTime)); outcome != eligibility.Eligible {
		log.Info("Cancellation rejected locally", zap.Stringer("outcome", outcome))
		return CancelResult{}, outcome.Err()
	}

	txn, err := c.store.Begin(day, slotTime)
	if err != nil {
		return CancelResult{}, beginError(err)
	}
	if outcome := c.checkCancel(studentID, day, slotTime, false); outcome != eligibility.Eligible {
		txn.Rollback()
		log.Info("Cancellation rejected locally", zap.Stringer("outcome", outcome))
		return CancelResult{}, outcome.Err()
	}

	slot, _ := txn.Slot()
	if err := txn.RemoveOccupant(studentID); err != nil {
		txn.Rollback()
		return CancelResult{}, fmt.Errorf("failed to apply cancellation: %w", err)
	}

	res, err := c.remote.Cancel(ctx, studentID, *slot.ClinicID)
	if err != nil {
		txn.Rollback()
		err = remoteError("cancel", err)
		log.Warn("Cancellation rolled back", zap.Error(err))
		c.resyncAfter(ctx, err)
		return CancelResult{}, err
	}
	txn.Commit()

	cancelled, _ := c.store.Slot(day, slotTime)
	log.Info("Reservation cancelled", zap.Int64("clinic_id", *slot.ClinicID), zap.Int("remaining_spots", res.RemainingSpots))

	out := CancelResult{Slot: cancelled, RemainingSpots: res.RemainingSpots, Message: res.Message}
	if student, ok := c.students.Get(studentID); ok {
		out.Status = c.StatusOf(student)
	}
	return out, nil
}

func (c *Coordinator) checkCancel(studentID int64, day week.Day, slotTime string, inFlight bool) eligibility.Outcome {
	req := eligibility.CancelRequest{StudentID: studentID, InFlight: inFlight}
	if slot, ok := c.store.Slot(day, slotTime); ok {
		req.Slot = &slot
	}
	return c.validator.CheckCancel(req)
}

// SetFlag toggles an administrative flag. The cached record changes first
// and is corrected to the server's answer, or restored on failure.
func (c *Coordinator) SetFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
	undo, ok := c.students.Update(studentID, func(s *model.Student) { s.SetFlag(flag, value) })
	if !ok {
		return model.Student{}, ErrUnknownStudent
	}

	updated, err := c.remote.UpdateStudentFlag(ctx, studentID, flag, value)
	if err != nil {
		undo()
		err = remoteError("update student flag", err)
		c.logger.Warn("Flag change rolled back", zap.Int64("student_id", studentID), zap.String("flag", string(flag)), zap.Error(err))
		return model.Student{}, err
	}
	c.students.Put(updated)
	return updated, nil
}

// Attendance lists the reservations of a clinic on date (YYYY-MM-DD).
func (c *Coordinator) Attendance(ctx context.Context, clinicID int64, date string) ([]model.Reservation, error) {
	list, err := c.remote.FetchAttendance(ctx, clinicID, date)
	if err != nil {
		return nil, remoteError("fetch attendance", err)
	}
	return list, nil
}

// MarkAttendance records what happened at a reservation. The student's
// cached record is refreshed from the response since marking absences moves
// the no-show count.
func (c *Coordinator) MarkAttendance(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error) {
	r, err := c.remote.UpdateAttendanceStatus(ctx, reservationID, status)
	if err != nil {
		return model.Reservation{}, remoteError("update attendance", err)
	}
	if r.Student != nil {
		c.students.Put(*r.Student)
	}
	return r, nil
}

// StatusOf classifies s using the reservations visible in the local grid.
func (c *Coordinator) StatusOf(s model.Student) classify.Status {
	return classify.Classify(s, c.LocalReservations(), c.now())
}

// LocalReservations derives active reservations for the current week from
// the occupants of the local grid.
func (c *Coordinator) LocalReservations() []model.Reservation {
	now := c.now()
	var out []model.Reservation
	for _, slot := range c.store.Snapshot().Slots() {
		if !slot.Bookable() {
			continue
		}
		date := week.DateOf(slot.Day, now).Format(week.DateLayout)
		for _, o := range slot.Occupants {
			out = append(out, model.Reservation{
				StudentID:          o.ID,
				ClinicID:           *slot.ClinicID,
				ExpectedClinicDate: date,
				IsActive:           true,
			})
		}
	}
	return out
}

// Listing classifies every known student against this week's reservations
// as reported by the server.
func (c *Coordinator) Listing(ctx context.Context, f classify.Filter) ([]classify.Entry, error) {
	reservations, err := c.remote.FetchWeekReservations(ctx)
	if err != nil {
		return nil, remoteError("fetch week reservations", err)
	}
	return classify.List(c.students.All(), reservations, c.now(), f), nil
}

// Countdown renders the time left until the weekly reset.
func (c *Coordinator) Countdown() string {
	return week.FormatCountdown(week.TimeUntilNextMonday(c.now()))
}

func (c *Coordinator) resyncAfter(ctx context.Context, err error) {
	if !c.resync || !IsRejected(err, ReasonOccupied, ReasonAlreadyReserved, ReasonNotReserved, ReasonReservationClosed) {
		return
	}
	if rerr := c.Refresh(ctx); rerr != nil {
		c.logger.Warn("Resync after conflict failed", zap.Error(rerr))
	}
}

func beginError(err error) error {
	switch {
	case errors.Is(err, schedule.ErrSlotBusy):
		return eligibility.SlotBusy.Err()
	case errors.Is(err, schedule.ErrSlotNotFound):
		return eligibility.SlotDoesNotExist.Err()
	}
	return fmt.Errorf("failed to begin slot transaction: %w", err)
}
