package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
	"clinic-reservation-backend/internal/week"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	WeeklySchedule(ctx context.Context, now time.Time) (schedule.WeeklySchedule, error)
	Reserve(ctx context.Context, studentID, clinicID int64, now time.Time) (ReserveOutcome, error)
	Cancel(ctx context.Context, studentID, clinicID int64, now time.Time) (CancelOutcome, error)
	ResetWeek(ctx context.Context, now time.Time, dryRun bool) (ResetSummary, error)

	CreateClinic(ctx context.Context, clinic *model.Clinic) error
	ListClinics(ctx context.Context) ([]model.Clinic, error)
	UpdateClinic(ctx context.Context, clinicID int64, patch ClinicPatch, now time.Time) (model.Clinic, error)

	ListAttendance(ctx context.Context, filter AttendanceFilter) ([]model.Reservation, error)
	UpdateAttendanceStatus(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error)

	UpsertStudents(ctx context.Context, students []model.Student) error
	ListStudents(ctx context.Context) ([]model.Student, error)
	UpdateStudentFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error)
	ResetNoShow(ctx context.Context, studentIDs []int64) (int64, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context, studentID int64) ([]model.PushSubscription, error)
}

// Options holds the rules the store enforces.
type Options struct {
	NoShowThreshold int
	Days            []week.Day
	Times           []string
	Logger          *zap.Logger
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db   *gorm.DB
	opts Options
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts Options) Store {
	if len(opts.Days) == 0 {
		opts.Days = schedule.DefaultDays
	}
	if len(opts.Times) == 0 {
		opts.Times = schedule.DefaultTimes
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &gormStore{db: db, opts: opts}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// WeeklySchedule builds the dense grid for now's week from active clinics and
// their active reservations, occupants in booking order.
func (s *gormStore) WeeklySchedule(ctx context.Context, now time.Time) (schedule.WeeklySchedule, error) {
	ws := schedule.NewWeeklySchedule(s.opts.Days, s.opts.Times)

	var clinics []model.Clinic
	if err := s.db.WithContext(ctx).
		Preload("Teacher").
		Preload("Subject").
		Where("is_active = ?", true).
		Order("id").
		Find(&clinics).Error; err != nil {
		return ws, fmt.Errorf("failed to fetch clinics: %w", err)
	}

	from := week.WeekStart(now)
	var reservations []model.Reservation
	if err := s.db.WithContext(ctx).
		Preload("Student").
		Where("is_active = ? AND expected_clinic_date BETWEEN ? AND ?", true,
			from.Format(week.DateLayout), from.AddDate(0, 0, 6).Format(week.DateLayout)).
		Order("reserved_at, id").
		Find(&reservations).Error; err != nil {
		return ws, fmt.Errorf("failed to fetch reservations: %w", err)
	}

	byClinic := make(map[int64][]model.Reservation)
	for _, r := range reservations {
		byClinic[r.ClinicID] = append(byClinic[r.ClinicID], r)
	}

	for _, c := range clinics {
		id := c.ID
		slot := schedule.Slot{
			Day:         c.Day,
			Time:        c.Time,
			ClinicID:    &id,
			TeacherName: c.TeacherName(),
			Subject:     c.SubjectName(),
			Room:        c.Room,
			Capacity:    c.Capacity,
		}
		date := week.DateOf(c.Day, now).Format(week.DateLayout)
		for _, r := range byClinic[c.ID] {
			if r.ExpectedClinicDate != date || r.Student == nil {
				continue
			}
			slot.Occupants = append(slot.Occupants, schedule.Occupant{
				ID:       r.Student.ID,
				Name:     r.Student.Name,
				Username: r.Student.Username,
			})
		}
		if err := ws.Put(slot); err != nil {
			s.opts.Logger.Warn("Clinic outside the weekly grid", zap.Int64("clinic_id", c.ID), zap.Error(err))
		}
	}
	return ws, nil
}

// Reserve books studentID into clinicID for the clinic's date in now's week.
// The seat is taken with a conditional increment so concurrent requests can
// never push the clinic past its capacity.
func (s *gormStore) Reserve(ctx context.Context, studentID, clinicID int64, now time.Time) (ReserveOutcome, error) {
	var out ReserveOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var student model.Student
		if err := tx.First(&student, studentID).Error; err != nil {
			return notFound(err, ErrStudentNotFound)
		}

		var clinic model.Clinic
		if err := tx.Preload("Teacher").Preload("Subject").First(&clinic, clinicID).Error; err != nil {
			return notFound(err, ErrClinicNotFound)
		}
		if !clinic.IsActive {
			return ErrReservationClosed
		}

		date := week.DateOf(clinic.Day, now).Format(week.DateLayout)
		var sameDay int64
		if err := tx.Model(&model.Reservation{}).
			Where("student_id = ? AND expected_clinic_date = ? AND is_active = ?", studentID, date, true).
			Count(&sameDay).Error; err != nil {
			return fmt.Errorf("failed to check existing reservations: %w", err)
		}
		if sameDay > 0 {
			return ErrAlreadyReserved
		}

		if s.opts.NoShowThreshold > 0 && student.NoShowCount >= s.opts.NoShowThreshold {
			return &NoShowBlockedError{NoShowCount: student.NoShowCount, StudentName: student.Name}
		}

		if err := syncSeatCounter(tx, &clinic, now); err != nil {
			return err
		}

		res := tx.Model(&model.Clinic{}).
			Where("id = ? AND reserved_count < capacity", clinic.ID).
			UpdateColumn("reserved_count", gorm.Expr("reserved_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to take a seat in clinic %d: %w", clinic.ID, res.Error)
		}
		if res.RowsAffected == 0 {
			return &OccupiedError{CurrentCount: clinic.ReservedCount, Capacity: clinic.Capacity}
		}
		clinic.ReservedCount++

		reservation, err := activateReservation(tx, studentID, clinic.ID, date, now)
		if err != nil {
			return err
		}

		if student.NonPass {
			if err := tx.Model(&student).UpdateColumn("non_pass", false).Error; err != nil {
				return fmt.Errorf("failed to clear non_pass for student %d: %w", studentID, err)
			}
			student.NonPass = false
		}

		out = ReserveOutcome{
			Reservation:    reservation,
			Clinic:         clinic,
			Student:        student,
			RemainingSpots: remaining(clinic),
		}
		return nil
	})
	if err != nil {
		return ReserveOutcome{}, err
	}
	s.opts.Logger.Info("Reservation created",
		zap.Int64("student_id", studentID),
		zap.Int64("clinic_id", clinicID),
		zap.String("date", out.Reservation.ExpectedClinicDate),
		zap.Int("remaining_spots", out.RemainingSpots))
	return out, nil
}

// syncSeatCounter recounts clinic's seats from now's week when the stored
// counter belongs to an earlier week, so bookings left over from a missed
// weekly reset never hold seats. The update locks the clinic row for the
// rest of the transaction.
func syncSeatCounter(tx *gorm.DB, clinic *model.Clinic, now time.Time) error {
	start := week.WeekStart(now)
	from := start.Format(week.DateLayout)
	to := start.AddDate(0, 0, 7).Format(week.DateLayout)

	res := tx.Exec(`UPDATE clinics SET reserved_count = (
			SELECT COUNT(*) FROM reservations
			WHERE reservations.clinic_id = clinics.id
			  AND reservations.is_active = ?
			  AND reservations.expected_clinic_date >= ?
			  AND reservations.expected_clinic_date < ?), counted_week = ?
		WHERE id = ? AND (counted_week IS NULL OR counted_week <> ?)`,
		true, from, to, from, clinic.ID, from)
	if res.Error != nil {
		return fmt.Errorf("failed to recount seats in clinic %d: %w", clinic.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil
	}

	var fresh model.Clinic
	if err := tx.Select("id", "reserved_count").First(&fresh, clinic.ID).Error; err != nil {
		return fmt.Errorf("failed to reload clinic %d: %w", clinic.ID, err)
	}
	clinic.ReservedCount = fresh.ReservedCount
	clinic.CountedWeek = from
	return nil
}

// activateReservation creates the reservation row or revives a cancelled one.
func activateReservation(tx *gorm.DB, studentID, clinicID int64, date string, now time.Time) (model.Reservation, error) {
	var r model.Reservation
	err := tx.Where("student_id = ? AND clinic_id = ? AND expected_clinic_date = ?", studentID, clinicID, date).
		First(&r).Error
	switch {
	case err == nil:
		if r.IsActive {
			return r, ErrAlreadyReserved
		}
		r.IsActive = true
		r.AttendanceType = model.AttendanceNone
		r.ReservedAt = now
		if err := tx.Model(&r).Select("is_active", "attendance_type", "reserved_at").Updates(&r).Error; err != nil {
			if isDuplicateKey(err) {
				return r, ErrAlreadyReserved
			}
			return r, fmt.Errorf("failed to reactivate reservation %d: %w", r.ID, err)
		}
		return r, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		r = model.Reservation{
			StudentID:          studentID,
			ClinicID:           clinicID,
			ExpectedClinicDate: date,
			IsActive:           true,
			AttendanceType:     model.AttendanceNone,
			ReservedAt:         now,
		}
		if err := tx.Create(&r).Error; err != nil {
			if isDuplicateKey(err) {
				return r, ErrAlreadyReserved
			}
			return r, fmt.Errorf("failed to create reservation: %w", err)
		}
		return r, nil
	default:
		return r, fmt.Errorf("failed to look up reservation: %w", err)
	}
}

// Cancel deactivates the student's reservation of clinicID in now's week and
// frees the seat.
func (s *gormStore) Cancel(ctx context.Context, studentID, clinicID int64, now time.Time) (CancelOutcome, error) {
	var out CancelOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var clinic model.Clinic
		if err := tx.First(&clinic, clinicID).Error; err != nil {
			return notFound(err, ErrClinicNotFound)
		}

		if err := syncSeatCounter(tx, &clinic, now); err != nil {
			return err
		}

		date := week.DateOf(clinic.Day, now).Format(week.DateLayout)
		res := tx.Model(&model.Reservation{}).
			Where("student_id = ? AND clinic_id = ? AND expected_clinic_date = ? AND is_active = ?", studentID, clinicID, date, true).
			UpdateColumn("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("failed to cancel reservation: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrNotReserved
		}

		if err := tx.Model(&model.Clinic{}).
			Where("id = ? AND reserved_count > 0", clinicID).
			UpdateColumn("reserved_count", gorm.Expr("reserved_count - ?", 1)).Error; err != nil {
			return fmt.Errorf("failed to free a seat in clinic %d: %w", clinicID, err)
		}
		if clinic.ReservedCount > 0 {
			clinic.ReservedCount--
		}

		out = CancelOutcome{Clinic: clinic, RemainingSpots: remaining(clinic)}
		return nil
	})
	if err != nil {
		return CancelOutcome{}, err
	}
	s.opts.Logger.Info("Reservation cancelled",
		zap.Int64("student_id", studentID),
		zap.Int64("clinic_id", clinicID),
		zap.Int("remaining_spots", out.RemainingSpots))
	return out, nil
}

// ResetWeek deactivates every reservation dated before now's week and
// recomputes each clinic's seat counter from what remains.
func (s *gormStore) ResetWeek(ctx context.Context, now time.Time, dryRun bool) (ResetSummary, error) {
	start := week.WeekStart(now).Format(week.DateLayout)
	summary := ResetSummary{WeekStart: start, DryRun: dryRun}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stale := tx.Model(&model.Reservation{}).Where("is_active = ? AND expected_clinic_date < ?", true, start)
		if dryRun {
			if err := stale.Count(&summary.Deactivated).Error; err != nil {
				return fmt.Errorf("failed to count stale reservations: %w", err)
			}
			return tx.Model(&model.Clinic{}).Where("reserved_count > 0").Count(&summary.Clinics).Error
		}

		res := stale.UpdateColumn("is_active", false)
		if res.Error != nil {
			return fmt.Errorf("failed to deactivate stale reservations: %w", res.Error)
		}
		summary.Deactivated = res.RowsAffected

		res = tx.Exec(`UPDATE clinics SET reserved_count = (
			SELECT COUNT(*) FROM reservations
			WHERE reservations.clinic_id = clinics.id
			  AND reservations.is_active = ?
			  AND reservations.expected_clinic_date >= ?), counted_week = ?`, true, start, start)
		if res.Error != nil {
			return fmt.Errorf("failed to recompute seat counters: %w", res.Error)
		}
		summary.Clinics = res.RowsAffected
		return nil
	})
	if err != nil {
		return ResetSummary{}, err
	}
	return summary, nil
}

// CreateClinic inserts clinic into an empty grid cell. A teacher or subject
// given by name only is matched to an existing row or created.
func (s *gormStore) CreateClinic(ctx context.Context, clinic *model.Clinic) error {
	if !s.inGrid(clinic.Day, clinic.Time) {
		return fmt.Errorf("%w: %s %s", ErrSlotOutsideGrid, clinic.Day, clinic.Time)
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t := clinic.Teacher; t != nil && t.ID == 0 {
			if err := tx.Where(model.Teacher{Name: t.Name}).FirstOrCreate(t).Error; err != nil {
				return fmt.Errorf("failed to resolve teacher %q: %w", t.Name, err)
			}
			clinic.TeacherID = &t.ID
		}
		if sub := clinic.Subject; sub != nil && sub.ID == 0 {
			if err := tx.Where(model.Subject{Name: sub.Name}).FirstOrCreate(sub).Error; err != nil {
				return fmt.Errorf("failed to resolve subject %q: %w", sub.Name, err)
			}
			clinic.SubjectID = &sub.ID
		}
		return tx.Omit(clause.Associations).Create(clinic).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("clinic already scheduled at %s %s: %w", clinic.Day, clinic.Time, gorm.ErrDuplicatedKey)
		}
		return fmt.Errorf("failed to create clinic: %w", err)
	}
	s.opts.Logger.Info("Clinic created",
		zap.Int64("clinic_id", clinic.ID),
		zap.String("day", string(clinic.Day)),
		zap.String("time", clinic.Time),
		zap.Int("capacity", clinic.Capacity))
	return nil
}

func (s *gormStore) inGrid(day week.Day, t string) bool {
	dayOK, timeOK := false, false
	for _, d := range s.opts.Days {
		dayOK = dayOK || d == day
	}
	for _, gt := range s.opts.Times {
		timeOK = timeOK || gt == t
	}
	return dayOK && timeOK
}

func (s *gormStore) ListClinics(ctx context.Context) ([]model.Clinic, error) {
	var clinics []model.Clinic
	if err := s.db.WithContext(ctx).Preload("Teacher").Preload("Subject").Order("id").Find(&clinics).Error; err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

// UpdateClinic changes capacity or the open flag of a clinic. Capacity may
// not drop below the seats already taken this week.
func (s *gormStore) UpdateClinic(ctx context.Context, clinicID int64, patch ClinicPatch, now time.Time) (model.Clinic, error) {
	var clinic model.Clinic
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&clinic, clinicID).Error; err != nil {
			return notFound(err, ErrClinicNotFound)
		}
		if err := syncSeatCounter(tx, &clinic, now); err != nil {
			return err
		}

		updates := map[string]any{}
		if patch.Capacity != nil {
			if *patch.Capacity < clinic.ReservedCount {
				return fmt.Errorf("%w: %d seats taken", ErrCapacityBelowReserved, clinic.ReservedCount)
			}
			updates["capacity"] = *patch.Capacity
		}
		if patch.IsActive != nil {
			updates["is_active"] = *patch.IsActive
		}
		if len(updates) > 0 {
			if err := tx.Model(&clinic).Updates(updates).Error; err != nil {
				return fmt.Errorf("failed to update clinic %d: %w", clinicID, err)
			}
		}
		return tx.Preload("Teacher").Preload("Subject").First(&clinic, clinicID).Error
	})
	if err != nil {
		return model.Clinic{}, err
	}
	return clinic, nil
}

func (s *gormStore) ListAttendance(ctx context.Context, f AttendanceFilter) ([]model.Reservation, error) {
	q := s.db.WithContext(ctx).Preload("Student").Preload("Clinic")
	if f.ClinicID != 0 {
		q = q.Where("clinic_id = ?", f.ClinicID)
	}
	if f.StudentID != 0 {
		q = q.Where("student_id = ?", f.StudentID)
	}
	if f.Date != "" {
		q = q.Where("expected_clinic_date = ?", f.Date)
	}
	if f.WeekOf != nil {
		from := week.WeekStart(*f.WeekOf)
		q = q.Where("expected_clinic_date BETWEEN ? AND ?",
			from.Format(week.DateLayout), from.AddDate(0, 0, 6).Format(week.DateLayout))
	}
	if f.ActiveOnly {
		q = q.Where("is_active = ?", true)
	}

	var out []model.Reservation
	if err := q.Order("expected_clinic_date, reserved_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return out, nil
}

// UpdateAttendanceStatus records an attendance result. Marking a reservation
// absent counts a no-show against the student; moving it away from absent
// takes that no-show back.
func (s *gormStore) UpdateAttendanceStatus(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error) {
	var r model.Reservation
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&r, reservationID).Error; err != nil {
			return notFound(err, ErrReservationNotFound)
		}
		prev := r.AttendanceType
		if prev != status {
			if err := tx.Model(&r).UpdateColumn("attendance_type", status).Error; err != nil {
				return fmt.Errorf("failed to update attendance %d: %w", reservationID, err)
			}
			r.AttendanceType = status
		}

		switch {
		case prev != model.AttendanceAbsent && status == model.AttendanceAbsent:
			if err := tx.Model(&model.Student{}).Where("id = ?", r.StudentID).
				UpdateColumn("no_show_count", gorm.Expr("no_show_count + ?", 1)).Error; err != nil {
				return fmt.Errorf("failed to count no-show for student %d: %w", r.StudentID, err)
			}
		case prev == model.AttendanceAbsent && status != model.AttendanceAbsent:
			if err := tx.Model(&model.Student{}).Where("id = ? AND no_show_count > 0", r.StudentID).
				UpdateColumn("no_show_count", gorm.Expr("no_show_count - ?", 1)).Error; err != nil {
				return fmt.Errorf("failed to revert no-show for student %d: %w", r.StudentID, err)
			}
		}

		var student model.Student
		if err := tx.First(&student, r.StudentID).Error; err != nil {
			return notFound(err, ErrStudentNotFound)
		}
		r.Student = &student
		return nil
	})
	if err != nil {
		return model.Reservation{}, err
	}
	return r, nil
}

// UpsertStudents inserts students or refreshes their profile by username.
// Flags and no-show counts are left untouched on existing rows.
func (s *gormStore) UpsertStudents(ctx context.Context, students []model.Student) error {
	if len(students) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "school", "grade", "updated_at"}),
	}).Create(&students).Error
}

func (s *gormStore) ListStudents(ctx context.Context) ([]model.Student, error) {
	var students []model.Student
	if err := s.db.WithContext(ctx).Order("name, id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	return students, nil
}

func (s *gormStore) UpdateStudentFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
	var student model.Student
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&student, studentID).Error; err != nil {
			return notFound(err, ErrStudentNotFound)
		}
		if err := tx.Model(&student).UpdateColumn(string(flag), value).Error; err != nil {
			return fmt.Errorf("failed to update %s for student %d: %w", flag, studentID, err)
		}
		student.SetFlag(flag, value)
		return nil
	})
	if err != nil {
		return model.Student{}, err
	}
	return student, nil
}

func (s *gormStore) ResetNoShow(ctx context.Context, studentIDs []int64) (int64, error) {
	if len(studentIDs) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Model(&model.Student{}).
		Where("id IN ?", studentIDs).
		UpdateColumn("no_show_count", 0)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reset no-show counts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *gormStore) SaveSubscription(ctx context.Context, sub model.PushSubscription) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "endpoint"}},
		DoUpdates: clause.AssignmentColumns([]string{"student_id", "p256dh", "auth"}),
	}).Create(&sub).Error
}

func (s *gormStore) GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error) {
	var sub model.PushSubscription
	if err := s.db.WithContext(ctx).First(&sub, "endpoint = ?", endpoint).Error; err != nil {
		return sub, notFound(err, ErrSubscriptionNotFound)
	}
	return sub, nil
}

func (s *gormStore) DeleteSubscription(ctx context.Context, endpoint string) error {
	return s.db.WithContext(ctx).Delete(&model.PushSubscription{Endpoint: endpoint}).Error
}

func (s *gormStore) ListSubscriptions(ctx context.Context, studentID int64) ([]model.PushSubscription, error) {
	var subs []model.PushSubscription
	if err := s.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions for student %d: %w", studentID, err)
	}
	return subs, nil
}

func remaining(c model.Clinic) int {
	return schedule.CountsFor(c.Capacity, c.ReservedCount).Remaining
}

func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

// isDuplicateKey recognises unique violations from postgres and sqlite,
// whether or not gorm translated them.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
