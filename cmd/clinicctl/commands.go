package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"clinic-reservation-backend/internal/classify"
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/parse"
	"clinic-reservation-backend/internal/remote"
	"clinic-reservation-backend/internal/reservation"
	"clinic-reservation-backend/internal/week"
)

func newScheduleCmd(s *session) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show this week's clinic grid",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !watch {
				if err := s.coordinator.Refresh(cmd.Context()); err != nil {
					return err
				}
				renderSchedule(s.out, s.coordinator.Store().Snapshot())
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			syncer := remote.NewSyncer(s.coordinator, s.cfg.Client.RefreshInterval, s.logger)
			syncer.OnRefresh = func() {
				fmt.Fprintf(s.out, "\n-- %s --\n", s.now().Format("15:04:05"))
				renderSchedule(s.out, s.coordinator.Store().Snapshot())
			}
			syncer.Run(ctx)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep refreshing until interrupted")
	return cmd
}

func newPlaceCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "place <student-id> <slot>",
		Short:   "Reserve a clinic slot for a student",
		Example: `  clinicctl place 12 "wed 19:00"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, day, slotTime, err := placementArgs(args)
			if err != nil {
				return err
			}
			if err := s.load(cmd.Context()); err != nil {
				return err
			}
			res, err := s.coordinator.Place(cmd.Context(), studentID, day, slotTime)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s placed in %s %s (%s), %d spots left [%s]\n",
				res.Student.Name, day.KoreanLabel(), slotTime, res.Slot.Room, res.RemainingSpots, res.Status)
			return nil
		},
	}
}

func newCancelCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:     "cancel <student-id> <slot>",
		Short:   "Cancel a student's reservation in a slot",
		Example: `  clinicctl cancel 12 "수 19"`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, day, slotTime, err := placementArgs(args)
			if err != nil {
				return err
			}
			if err := s.load(cmd.Context()); err != nil {
				return err
			}
			res, err := s.coordinator.Cancel(cmd.Context(), studentID, day, slotTime)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "cancelled %s %s, %d spots left [%s]\n",
				day.KoreanLabel(), slotTime, res.RemainingSpots, res.Status)
			return nil
		},
	}
}

func newStudentsCmd(s *session) *cobra.Command {
	var filter classify.Filter
	var status string
	var group bool
	cmd := &cobra.Command{
		Use:   "students",
		Short: "List students by reservation status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if status != "" {
				st, err := classify.ParseStatus(status)
				if err != nil {
					return err
				}
				filter.Status = &st
			}
			if err := s.coordinator.RefreshStudents(cmd.Context()); err != nil {
				return err
			}
			entries, err := s.coordinator.Listing(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if group {
				renderStudentGroups(s.out, classify.Group(entries))
				return nil
			}
			renderStudents(s.out, entries)
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "match name, username, school or grade")
	cmd.Flags().StringVar(&filter.School, "school", "", "only this school")
	cmd.Flags().StringVar(&filter.Grade, "grade", "", "only this grade")
	cmd.Flags().StringVar(&status, "status", "", "mandatory, reserved, required or unrequired")
	cmd.Flags().BoolVarP(&group, "group", "g", false, "print one section per status")

	cmd.AddCommand(newStudentsAddCmd(s))
	return cmd
}

func newStudentsAddCmd(s *session) *cobra.Command {
	var profile remote.StudentProfile
	cmd := &cobra.Command{
		Use:     "add <username> <name>",
		Short:   "Add a student or refresh an existing profile",
		Example: `  clinicctl students add minji 민지 --school Hana --grade 2`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile.Username, profile.Name = args[0], args[1]
			n, err := s.client.UpsertStudents(cmd.Context(), []remote.StudentProfile{profile})
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "saved %d students\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile.School, "school", "", "school name")
	cmd.Flags().StringVar(&profile.Grade, "grade", "", "grade")
	return cmd
}

func newBookingsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "bookings <student-id>",
		Short: "Show the slots a student holds this week",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := s.load(cmd.Context()); err != nil {
				return err
			}
			student, ok := s.coordinator.Students().Get(studentID)
			if !ok {
				return reservation.ErrUnknownStudent
			}
			slots := s.coordinator.Store().OccupiedSlots(studentID)
			fmt.Fprintf(s.out, "%s [%s]\n", student.Name, s.coordinator.StatusOf(student))
			if len(slots) == 0 {
				fmt.Fprintln(s.out, "no reservations this week")
				return nil
			}
			for _, slot := range slots {
				fmt.Fprintf(s.out, "%s %s  %s  %s\n", slot.Day.KoreanLabel(), slot.Time, slot.Room, slot.TeacherName)
			}
			return nil
		},
	}
}

func newClinicsCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clinics",
		Short: "Open, close and resize clinics",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List every clinic, open or closed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clinics, err := s.client.ListClinics(cmd.Context())
			if err != nil {
				return err
			}
			renderClinics(s.out, clinics)
			return nil
		},
	}

	var clinic remote.NewClinic
	var closed bool
	add := &cobra.Command{
		Use:     "add <slot>",
		Short:   "Open a clinic in an empty grid cell",
		Example: `  clinicctl clinics add "tue 19:00" --room C1 --teacher Lee --subject 물리`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day, slotTime, err := parse.ParseSlot(args[0])
			if err != nil {
				return err
			}
			clinic.Day, clinic.Time = day, slotTime
			if closed {
				inactive := false
				clinic.IsActive = &inactive
			}
			created, err := s.client.CreateClinic(cmd.Context(), clinic)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "clinic %d opened at %s %s (%s), %d seats\n",
				created.ID, created.Day.KoreanLabel(), created.Time, created.Room, created.Capacity)
			return nil
		},
	}
	add.Flags().StringVar(&clinic.Room, "room", "", "room name")
	add.Flags().IntVar(&clinic.Capacity, "capacity", 0, "seats, defaults to the server's reservation.default_capacity")
	add.Flags().StringVar(&clinic.TeacherName, "teacher", "", "teacher name")
	add.Flags().StringVar(&clinic.Subject, "subject", "", "subject name")
	add.Flags().BoolVar(&closed, "closed", false, "create the clinic closed for booking")
	_ = add.MarkFlagRequired("room")

	var capacity int
	var open, shut bool
	set := &cobra.Command{
		Use:   "set <clinic-id>",
		Short: "Change a clinic's capacity or open it or close it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clinicID, err := parseID(args[0])
			if err != nil {
				return err
			}
			var update remote.ClinicUpdate
			if cmd.Flags().Changed("capacity") {
				update.Capacity = &capacity
			}
			switch {
			case open && shut:
				return fmt.Errorf("--open and --close are exclusive")
			case open || shut:
				active := open
				update.IsActive = &active
			}
			if update.Capacity == nil && update.IsActive == nil {
				return fmt.Errorf("nothing to change, pass --capacity, --open or --close")
			}
			updated, err := s.client.UpdateClinic(cmd.Context(), clinicID, update)
			if err != nil {
				return err
			}
			state := "open"
			if !updated.IsActive {
				state = "closed"
			}
			fmt.Fprintf(s.out, "clinic %d: %d seats, %s\n", updated.ID, updated.Capacity, state)
			return nil
		},
	}
	set.Flags().IntVar(&capacity, "capacity", 0, "new number of seats")
	set.Flags().BoolVar(&open, "open", false, "open the clinic for booking")
	set.Flags().BoolVar(&shut, "close", false, "close the clinic for booking")

	cmd.AddCommand(list, add, set)
	return cmd
}

func newFlagCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "flag <student-id> <non_pass|essential_clinic> <true|false>",
		Short: "Set an administrative flag on a student",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			studentID, err := parseID(args[0])
			if err != nil {
				return err
			}
			flag, err := model.ParseStudentFlag(args[1])
			if err != nil {
				return err
			}
			value, err := strconv.ParseBool(args[2])
			if err != nil {
				return fmt.Errorf("invalid flag value %q", args[2])
			}
			if err := s.coordinator.RefreshStudents(cmd.Context()); err != nil {
				return err
			}
			student, err := s.coordinator.SetFlag(cmd.Context(), studentID, flag, value)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "%s: %s=%t\n", student.Name, flag, student.Flag(flag))
			return nil
		},
	}
}

func newAttendanceCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "Review and record clinic attendance",
	}

	var date string
	list := &cobra.Command{
		Use:   "list <clinic-id>",
		Short: "List the reservations of a clinic on a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clinicID, err := parseID(args[0])
			if err != nil {
				return err
			}
			if date == "" {
				date = s.now().In(s.cfg.Reservation.Location()).Format(week.DateLayout)
			}
			reservations, err := s.coordinator.Attendance(cmd.Context(), clinicID, date)
			if err != nil {
				return err
			}
			renderAttendance(s.out, reservations)
			return nil
		},
	}
	list.Flags().StringVarP(&date, "date", "d", "", "clinic date as YYYY-MM-DD, defaults to today")

	set := &cobra.Command{
		Use:   "set <reservation-id> <attended|absent|late|sick|none>",
		Short: "Record what happened at a reservation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reservationID, err := parseID(args[0])
			if err != nil {
				return err
			}
			status, err := model.ParseAttendanceStatus(args[1])
			if err != nil {
				return err
			}
			r, err := s.coordinator.MarkAttendance(cmd.Context(), reservationID, status)
			if err != nil {
				return err
			}
			name := strconv.FormatInt(r.StudentID, 10)
			noShows := 0
			if r.Student != nil {
				name, noShows = r.Student.Name, r.Student.NoShowCount
			}
			fmt.Fprintf(s.out, "%s: %s (no-shows %d)\n", name, r.AttendanceType.Label(), noShows)
			return nil
		},
	}

	cmd.AddCommand(list, set)
	return cmd
}

func newCountdownCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "countdown",
		Short: "Show the time left until the weekly reset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(s.out, s.coordinator.Countdown())
			return nil
		},
	}
}

func newResetNoShowCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-noshow <student-id>...",
		Short: "Clear the no-show count of students",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			n, err := s.client.ResetNoShow(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(s.out, "reset no-show count for %d students\n", n)
			return nil
		},
	}
}

func newResetWeekCmd(s *session) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reset-week",
		Short: "Close out past weeks' reservations now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			summary, err := s.client.ResetWeek(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			verb := "deactivated"
			if summary.DryRun {
				verb = "would deactivate"
			}
			fmt.Fprintf(s.out, "week of %s: %s %d reservations\n", summary.WeekStart, verb, summary.Deactivated)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "only report what would change")
	return cmd
}

func newHealthCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its database are reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), s.cfg.Client.Timeout)
			defer cancel()
			if err := s.client.Health(ctx); err != nil {
				return err
			}
			fmt.Fprintln(s.out, "ok")
			return nil
		},
	}
}

func placementArgs(args []string) (int64, week.Day, string, error) {
	studentID, err := parseID(args[0])
	if err != nil {
		return 0, "", "", err
	}
	day, slotTime, err := parse.ParseSlot(args[1])
	if err != nil {
		return 0, "", "", err
	}
	return studentID, day, slotTime, nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}
