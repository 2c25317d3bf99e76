package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"clinic-reservation-backend/internal/classify"
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/schedule"
)

func renderSchedule(out io.Writer, ws schedule.WeeklySchedule) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tTIME\tCLINIC\tTEACHER\tROOM\tSEATS\tSTUDENTS")
	for _, slot := range ws.Slots() {
		if !slot.Bookable() {
			continue
		}
		counts := slot.Counts()
		seats := fmt.Sprintf("%d/%d", counts.Current, slot.Capacity)
		if counts.Full {
			seats += " full"
		}
		names := make([]string, 0, len(slot.Occupants))
		for _, o := range slot.Occupants {
			names = append(names, o.Name)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			slot.Day.KoreanLabel(), slot.Time, *slot.ClinicID, slot.TeacherName, slot.Room, seats, strings.Join(names, ", "))
	}
	tw.Flush()
	fmt.Fprintf(out, "%d clinics\n", ws.TotalClinics())
}

func renderStudents(out io.Writer, entries []classify.Entry) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSCHOOL\tGRADE\tSTATUS\tNO-SHOWS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%d\n",
			e.Student.ID, e.Student.Name, e.Student.School, e.Student.Grade, e.Status, e.Student.NoShowCount)
	}
	tw.Flush()
}

func renderStudentGroups(out io.Writer, groups map[classify.Status][]classify.Entry) {
	for _, st := range []classify.Status{classify.Mandatory, classify.Reserved, classify.Required, classify.Unrequired} {
		entries := groups[st]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(out, "== %s (%d) ==\n", st, len(entries))
		renderStudents(out, entries)
	}
}

func renderClinics(out io.Writer, clinics []model.Clinic) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDAY\tTIME\tROOM\tTEACHER\tSUBJECT\tCAPACITY\tOPEN")
	for _, c := range clinics {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\t%t\n",
			c.ID, c.Day.KoreanLabel(), c.Time, c.Room, c.TeacherName(), c.SubjectName(), c.Capacity, c.IsActive)
	}
	tw.Flush()
}

func renderAttendance(out io.Writer, reservations []model.Reservation) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RESERVATION\tSTUDENT\tDATE\tATTENDANCE")
	for _, r := range reservations {
		name := fmt.Sprintf("#%d", r.StudentID)
		if r.Student != nil {
			name = r.Student.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", r.ID, name, r.ExpectedClinicDate, r.AttendanceType.Label())
	}
	tw.Flush()
}
