package reservation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-reservation-backend/internal/classify"
	"clinic-reservation-backend/internal/eligibility"
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
	"clinic-reservation-backend/internal/week"
)

// mockRemote is a mock implementation of the Remote interface.
type mockRemote struct {
	FetchWeeklyScheduleFunc    func(ctx context.Context) (schedule.WeeklySchedule, error)
	ReserveFunc                func(ctx context.Context, studentID, clinicID int64) (ReserveResponse, error)
	CancelFunc                 func(ctx context.Context, studentID, clinicID int64) (CancelResponse, error)
	FetchAttendanceFunc        func(ctx context.Context, clinicID int64, date string) ([]model.Reservation, error)
	UpdateAttendanceStatusFunc func(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error)
	UpdateStudentFlagFunc      func(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error)
	ListStudentsFunc           func(ctx context.Context) ([]model.Student, error)
	FetchWeekReservationsFunc  func(ctx context.Context) ([]model.Reservation, error)

	reserveCalls int
	cancelCalls  int
}

func (m *mockRemote) FetchWeeklySchedule(ctx context.Context) (schedule.WeeklySchedule, error) {
	return m.FetchWeeklyScheduleFunc(ctx)
}

func (m *mockRemote) Reserve(ctx context.Context, studentID, clinicID int64) (ReserveResponse, error) {
	m.reserveCalls++
	return m.ReserveFunc(ctx, studentID, clinicID)
}

func (m *mockRemote) Cancel(ctx context.Context, studentID, clinicID int64) (CancelResponse, error) {
	m.cancelCalls++
	return m.CancelFunc(ctx, studentID, clinicID)
}

func (m *mockRemote) FetchAttendance(ctx context.Context, clinicID int64, date string) ([]model.Reservation, error) {
	return m.FetchAttendanceFunc(ctx, clinicID, date)
}

func (m *mockRemote) UpdateAttendanceStatus(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error) {
	return m.UpdateAttendanceStatusFunc(ctx, reservationID, status)
}

func (m *mockRemote) UpdateStudentFlag(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
	return m.UpdateStudentFlagFunc(ctx, studentID, flag, value)
}

func (m *mockRemote) ListStudents(ctx context.Context) ([]model.Student, error) {
	return m.ListStudentsFunc(ctx)
}

func (m *mockRemote) FetchWeekReservations(ctx context.Context) ([]model.Reservation, error) {
	return m.FetchWeekReservationsFunc(ctx)
}

// Wednesday 2025-03-12.
var wednesday = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)

var (
	alice = model.Student{ID: 1, Name: "Alice", Username: "alice"}
	bob   = model.Student{ID: 2, Name: "Bob", Username: "bob"}
	carol = model.Student{ID: 3, Name: "Carol", Username: "carol", NonPass: true}
)

const clinicID = int64(40)

func gridWith(day week.Day, capacity int, occupants ...model.Student) schedule.WeeklySchedule {
	ws := schedule.NewWeeklySchedule(schedule.DefaultDays, schedule.DefaultTimes)
	id := clinicID
	slot := schedule.Slot{Day: day, Time: "19:00", ClinicID: &id, Room: "A", Capacity: capacity}
	for _, s := range occupants {
		slot.Occupants = append(slot.Occupants, schedule.Occupant{ID: s.ID, Name: s.Name, Username: s.Username})
	}
	if err := ws.Put(slot); err != nil {
		panic(err)
	}
	return ws
}

func newCoordinator(remote Remote, ws schedule.WeeklySchedule) *Coordinator {
	return NewCoordinator(remote, schedule.NewStore(ws), NewDirectory(alice, bob, carol), Options{
		NoShowThreshold:  2,
		ResyncOnConflict: true,
		Now:              func() time.Time { return wednesday },
	})
}

func occupantIDs(c *Coordinator, day week.Day) []int64 {
	slot, _ := c.Store().Slot(day, "19:00")
	var out []int64
	for _, o := range slot.Occupants {
		out = append(out, o.ID)
	}
	return out
}

func validationOutcome(t *testing.T, err error) eligibility.Outcome {
	t.Helper()
	var verr *eligibility.ValidationError
	require.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
	return verr.Outcome
}

func TestPlace_Success(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			assert.Equal(t, alice.ID, studentID)
			assert.Equal(t, clinicID, cid)
			return ReserveResponse{Message: "ok", RemainingSpots: 2}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	res, err := c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, occupantIDs(c, week.Wed))
	assert.Equal(t, 1, res.Slot.Counts().Current)
	assert.Equal(t, 2, res.RemainingSpots)
	assert.Equal(t, classify.Reserved, res.Status)
	assert.False(t, c.Store().InFlight(week.Wed, "19:00"))
}

func TestPlace_TwiceIsAlreadyBooked(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{RemainingSpots: 2}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	_, err := c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	require.NoError(t, err)
	_, err = c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	assert.Equal(t, eligibility.AlreadyBooked, validationOutcome(t, err))
	assert.Equal(t, []int64{1}, occupantIDs(c, week.Wed))
	assert.Equal(t, 1, remote.reserveCalls)
}

func TestPlace_LocalRejections(t *testing.T) {
	testCases := []struct {
		name     string
		grid     schedule.WeeklySchedule
		student  int64
		day      week.Day
		expected eligibility.Outcome
		before   []int64
	}{
		{
			name:     "full slot",
			grid:     gridWith(week.Wed, 2, alice, bob),
			student:  carol.ID,
			day:      week.Wed,
			expected: eligibility.SlotFull,
			before:   []int64{1, 2},
		},
		{
			name:     "already an occupant",
			grid:     gridWith(week.Wed, 3, alice),
			student:  alice.ID,
			day:      week.Wed,
			expected: eligibility.AlreadyBooked,
			before:   []int64{1},
		},
		{
			name:     "monday has passed on wednesday",
			grid:     gridWith(week.Mon, 3),
			student:  alice.ID,
			day:      week.Mon,
			expected: eligibility.DayAlreadyPassed,
		},
		{
			name:     "no clinic scheduled",
			grid:     gridWith(week.Fri, 3),
			student:  alice.ID,
			day:      week.Thu,
			expected: eligibility.SlotDoesNotExist,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			remote := &mockRemote{}
			c := newCoordinator(remote, tc.grid)

			_, err := c.Place(context.Background(), tc.student, tc.day, "19:00")
			assert.Equal(t, tc.expected, validationOutcome(t, err))
			assert.Equal(t, tc.before, occupantIDs(c, tc.day))
			assert.Zero(t, remote.reserveCalls)
		})
	}
}

func TestPlace_BannedStudent(t *testing.T) {
	remote := &mockRemote{}
	c := newCoordinator(remote, gridWith(week.Wed, 3))
	c.Students().Put(model.Student{ID: 7, Name: "Dave", NoShowCount: 2})

	_, err := c.Place(context.Background(), 7, week.Wed, "19:00")
	assert.Equal(t, eligibility.BookingBanned, validationOutcome(t, err))
	assert.Zero(t, remote.reserveCalls)
}

func TestPlace_UnknownStudent(t *testing.T) {
	c := newCoordinator(&mockRemote{}, gridWith(week.Wed, 3))
	_, err := c.Place(context.Background(), 99, week.Wed, "19:00")
	assert.ErrorIs(t, err, ErrUnknownStudent)
}

func TestPlace_RemoteRejectionRollsBack(t *testing.T) {
	before := gridWith(week.Wed, 3, alice)
	var refreshes int
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, &RejectionError{Reason: ReasonOccupied, Message: "full"}
		},
		FetchWeeklyScheduleFunc: func(ctx context.Context) (schedule.WeeklySchedule, error) {
			refreshes++
			return gridWith(week.Wed, 3, alice, bob, model.Student{ID: 8, Name: "Eve"}), nil
		},
	}
	c := newCoordinator(remote, before)
	c.resync = false

	_, err := c.Place(context.Background(), carol.ID, week.Wed, "19:00")
	require.Error(t, err)
	assert.True(t, IsRejected(err, ReasonOccupied))
	assert.False(t, IsRetryable(err))
	assert.Equal(t, before, c.Store().Snapshot())
	assert.Zero(t, refreshes)

	student, _ := c.Students().Get(carol.ID)
	assert.True(t, student.NonPass, "optimistic flag change must be undone")
	assert.False(t, c.Store().InFlight(week.Wed, "19:00"))
}

func TestPlace_ConflictResyncs(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, &RejectionError{Reason: ReasonOccupied}
		},
		FetchWeeklyScheduleFunc: func(ctx context.Context) (schedule.WeeklySchedule, error) {
			return gridWith(week.Wed, 2, alice, bob), nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 2, alice))

	_, err := c.Place(context.Background(), carol.ID, week.Wed, "19:00")
	assert.True(t, IsRejected(err, ReasonOccupied))
	assert.Equal(t, []int64{1, 2}, occupantIDs(c, week.Wed))
}

func TestPlace_NoShowBlockedFromServer(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, &RejectionError{Reason: ReasonNoShowBlocked, NoShowCount: 3}
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	_, err := c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	var re *RejectionError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 3, re.NoShowCount)
	assert.Empty(t, occupantIDs(c, week.Wed))
}

func TestPlace_TransportErrorRollsBack(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, errors.New("connection reset")
		},
	}
	before := gridWith(week.Wed, 3, bob)
	c := newCoordinator(remote, before)

	_, err := c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	require.Error(t, err)
	assert.True(t, IsRetryable(err))
	assert.False(t, IsRejected(err))
	assert.Contains(t, err.Error(), "connection reset")
	assert.Equal(t, before, c.Store().Snapshot())
}

func TestPlace_AdoptsServerStudentRecord(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			s := carol
			s.NonPass = false
			s.EssentialClinic = true
			return ReserveResponse{RemainingSpots: 2, Student: &s}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	res, err := c.Place(context.Background(), carol.ID, week.Wed, "19:00")
	require.NoError(t, err)
	assert.False(t, res.Student.NonPass)
	assert.True(t, res.Student.EssentialClinic)
	assert.Equal(t, classify.Reserved, res.Status)
}

func TestPlace_KeepsFlagWithoutServerRecord(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{RemainingSpots: 2}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	res, err := c.Place(context.Background(), carol.ID, week.Wed, "19:00")
	require.NoError(t, err)
	assert.True(t, res.Student.NonPass)
	assert.Equal(t, classify.Mandatory, res.Status)
	cached, _ := c.Students().Get(carol.ID)
	assert.True(t, cached.NonPass)
	assert.Equal(t, []int64{3}, occupantIDs(c, week.Wed))
}

func TestPlace_SurvivesRefreshWhileInFlight(t *testing.T) {
	remote := &mockRemote{
		FetchWeeklyScheduleFunc: func(ctx context.Context) (schedule.WeeklySchedule, error) {
			return gridWith(week.Thu, 3), nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Thu, 3))
	remote.ReserveFunc = func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
		// A periodic sync lands with a grid fetched before the booking.
		require.NoError(t, c.Refresh(ctx))
		assert.Empty(t, occupantIDs(c, week.Thu))
		return ReserveResponse{RemainingSpots: 2}, nil
	}

	res, err := c.Place(context.Background(), alice.ID, week.Thu, "19:00")
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, occupantIDs(c, week.Thu))
	assert.Equal(t, 1, res.Slot.Counts().Current)
	assert.False(t, c.Store().InFlight(week.Thu, "19:00"))
}

func TestCancel_SurvivesRefreshWhileInFlight(t *testing.T) {
	remote := &mockRemote{
		FetchWeeklyScheduleFunc: func(ctx context.Context) (schedule.WeeklySchedule, error) {
			return gridWith(week.Thu, 3, alice, bob), nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Thu, 3, alice, bob))
	remote.CancelFunc = func(ctx context.Context, studentID, cid int64) (CancelResponse, error) {
		require.NoError(t, c.Refresh(ctx))
		return CancelResponse{RemainingSpots: 2}, nil
	}

	_, err := c.Cancel(context.Background(), alice.ID, week.Thu, "19:00")
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, occupantIDs(c, week.Thu))
}

func TestPlace_InFlightSlotIsBusy(t *testing.T) {
	c := newCoordinator(&mockRemote{}, gridWith(week.Wed, 3))
	txn, err := c.Store().Begin(week.Wed, "19:00")
	require.NoError(t, err)
	defer txn.Rollback()

	_, err = c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	assert.Equal(t, eligibility.SlotBusy, validationOutcome(t, err))
	_, err = c.Cancel(context.Background(), alice.ID, week.Wed, "19:00")
	assert.Equal(t, eligibility.SlotBusy, validationOutcome(t, err))
}

func TestCancel(t *testing.T) {
	testCases := []struct {
		name      string
		remoteErr error
		expected  []int64
		wantErr   bool
	}{
		{name: "confirmed", expected: []int64{2}},
		{name: "rejected rolls back", remoteErr: &RejectionError{Reason: ReasonNotReserved}, expected: []int64{1, 2}, wantErr: true},
		{name: "transport failure rolls back", remoteErr: &TransportError{Op: "cancel", Err: context.DeadlineExceeded}, expected: []int64{1, 2}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			remote := &mockRemote{
				CancelFunc: func(ctx context.Context, studentID, cid int64) (CancelResponse, error) {
					assert.Equal(t, alice.ID, studentID)
					if tc.remoteErr != nil {
						return CancelResponse{}, tc.remoteErr
					}
					return CancelResponse{RemainingSpots: 2}, nil
				},
			}
			c := newCoordinator(remote, gridWith(week.Wed, 3, alice, bob))
			c.resync = false

			res, err := c.Cancel(context.Background(), alice.ID, week.Wed, "19:00")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, classify.Unrequired, res.Status)
				assert.Equal(t, 2, res.RemainingSpots)
			}
			assert.Equal(t, tc.expected, occupantIDs(c, week.Wed))
		})
	}
}

func TestCancel_NonOccupantIsNoOp(t *testing.T) {
	remote := &mockRemote{}
	c := newCoordinator(remote, gridWith(week.Wed, 3, bob))

	_, err := c.Cancel(context.Background(), alice.ID, week.Wed, "19:00")
	assert.Equal(t, eligibility.NotReserved, validationOutcome(t, err))
	assert.Zero(t, remote.cancelCalls)
	assert.Equal(t, []int64{2}, occupantIDs(c, week.Wed))
}

func TestCancel_AllowedOnPastDay(t *testing.T) {
	remote := &mockRemote{
		CancelFunc: func(ctx context.Context, studentID, cid int64) (CancelResponse, error) {
			return CancelResponse{RemainingSpots: 3}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Mon, 3, alice))

	_, err := c.Cancel(context.Background(), alice.ID, week.Mon, "19:00")
	require.NoError(t, err)
	assert.Empty(t, occupantIDs(c, week.Mon))
}

func TestPlaceThenCancelRestoresStore(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{RemainingSpots: 1}, nil
		},
		CancelFunc: func(ctx context.Context, studentID, cid int64) (CancelResponse, error) {
			return CancelResponse{RemainingSpots: 2}, nil
		},
	}
	before := gridWith(week.Thu, 3, bob)
	c := newCoordinator(remote, before)

	_, err := c.Place(context.Background(), alice.ID, week.Thu, "19:00")
	require.NoError(t, err)
	_, err = c.Cancel(context.Background(), alice.ID, week.Thu, "19:00")
	require.NoError(t, err)

	assert.Equal(t, before, c.Store().Snapshot())
}

func TestCapacityNeverExceeded(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Fri, 2))
	for id := int64(100); id < 110; id++ {
		c.Students().Put(model.Student{ID: id, Name: "s"})
		_, _ = c.Place(context.Background(), id, week.Fri, "19:00")
	}

	slot, _ := c.Store().Slot(week.Fri, "19:00")
	assert.Len(t, slot.Occupants, 2)
	assert.Equal(t, 2, remote.reserveCalls)
}

func TestOneReservationPerDay(t *testing.T) {
	remote := &mockRemote{
		ReserveFunc: func(ctx context.Context, studentID, cid int64) (ReserveResponse, error) {
			return ReserveResponse{}, nil
		},
	}
	ws := gridWith(week.Thu, 3)
	other := int64(41)
	require.NoError(t, ws.Put(schedule.Slot{Day: week.Thu, Time: "20:00", ClinicID: &other, Capacity: 3}))
	c := newCoordinator(remote, ws)

	_, err := c.Place(context.Background(), alice.ID, week.Thu, "19:00")
	require.NoError(t, err)
	_, err = c.Place(context.Background(), alice.ID, week.Thu, "20:00")
	assert.Equal(t, eligibility.AlreadyBooked, validationOutcome(t, err))
}

func TestSetFlag(t *testing.T) {
	t.Run("server value wins", func(t *testing.T) {
		remote := &mockRemote{
			UpdateStudentFlagFunc: func(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
				s := alice
				s.EssentialClinic = value
				s.Name = "Alice (server)"
				return s, nil
			},
		}
		c := newCoordinator(remote, gridWith(week.Wed, 3))

		updated, err := c.SetFlag(context.Background(), alice.ID, model.FlagEssentialClinic, true)
		require.NoError(t, err)
		assert.True(t, updated.EssentialClinic)
		cached, _ := c.Students().Get(alice.ID)
		assert.Equal(t, "Alice (server)", cached.Name)
		assert.Equal(t, classify.Required, c.StatusOf(cached))
	})

	t.Run("failure rolls back", func(t *testing.T) {
		remote := &mockRemote{
			UpdateStudentFlagFunc: func(ctx context.Context, studentID int64, flag model.StudentFlag, value bool) (model.Student, error) {
				return model.Student{}, errors.New("boom")
			},
		}
		c := newCoordinator(remote, gridWith(week.Wed, 3))

		_, err := c.SetFlag(context.Background(), carol.ID, model.FlagNonPass, false)
		assert.True(t, IsRetryable(err))
		cached, _ := c.Students().Get(carol.ID)
		assert.True(t, cached.NonPass)
	})

	t.Run("unknown student", func(t *testing.T) {
		c := newCoordinator(&mockRemote{}, gridWith(week.Wed, 3))
		_, err := c.SetFlag(context.Background(), 99, model.FlagNonPass, true)
		assert.ErrorIs(t, err, ErrUnknownStudent)
	})
}

func TestMarkAttendanceRefreshesStudent(t *testing.T) {
	remote := &mockRemote{
		UpdateAttendanceStatusFunc: func(ctx context.Context, reservationID int64, status model.AttendanceStatus) (model.Reservation, error) {
			s := alice
			s.NoShowCount = 2
			return model.Reservation{ID: reservationID, AttendanceType: status, Student: &s}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	r, err := c.MarkAttendance(context.Background(), 5, model.AttendanceAbsent)
	require.NoError(t, err)
	assert.Equal(t, model.AttendanceAbsent, r.AttendanceType)

	_, err = c.Place(context.Background(), alice.ID, week.Wed, "19:00")
	assert.Equal(t, eligibility.BookingBanned, validationOutcome(t, err))
}

func TestListing(t *testing.T) {
	remote := &mockRemote{
		FetchWeekReservationsFunc: func(ctx context.Context) ([]model.Reservation, error) {
			return []model.Reservation{
				{StudentID: bob.ID, ExpectedClinicDate: "2025-03-13", IsActive: true},
				{StudentID: carol.ID, ExpectedClinicDate: "2025-03-13", IsActive: true},
			}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3))

	entries, err := c.Listing(context.Background(), classify.Filter{})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, carol.ID, entries[0].Student.ID)
	assert.Equal(t, classify.Mandatory, entries[0].Status)
	assert.Equal(t, bob.ID, entries[1].Student.ID)
	assert.Equal(t, classify.Reserved, entries[1].Status)
	assert.Equal(t, classify.Unrequired, entries[2].Status)
}

func TestRefresh(t *testing.T) {
	remote := &mockRemote{
		FetchWeeklyScheduleFunc: func(ctx context.Context) (schedule.WeeklySchedule, error) {
			return gridWith(week.Tue, 4, bob), nil
		},
		ListStudentsFunc: func(ctx context.Context) ([]model.Student, error) {
			return []model.Student{bob}, nil
		},
	}
	c := newCoordinator(remote, gridWith(week.Wed, 3, alice))

	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, []int64{2}, occupantIDs(c, week.Tue))
	assert.Empty(t, occupantIDs(c, week.Wed))

	require.NoError(t, c.RefreshStudents(context.Background()))
	assert.Len(t, c.Students().All(), 1)
}

func TestCountdown(t *testing.T) {
	c := NewCoordinator(&mockRemote{}, schedule.NewStore(gridWith(week.Wed, 3)), NewDirectory(), Options{
		Now: func() time.Time { return time.Date(2025, time.March, 16, 23, 59, 59, 0, time.UTC) },
	})
	assert.Equal(t, "00:00:01", c.Countdown())
}
