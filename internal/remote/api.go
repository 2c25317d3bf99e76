package remote

import (
	"clinic-reservation-backend/internal/model"
	"clinic-reservation-backend/internal/week"
)

// errorResponse is the body of every non-2xx answer from the server.
type errorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	NoShowCount int    `json:"no_show_count"`
}

type placementRequest struct {
	UserID   int64 `json:"user_id"`
	ClinicID int64 `json:"clinic_id"`
}

type reserveResponse struct {
	Message        string             `json:"message"`
	RemainingSpots int                `json:"remaining_spots"`
	Reservation    *model.Reservation `json:"reservation"`
	Student        *model.Student     `json:"student"`
}

type cancelResponse struct {
	Message        string `json:"message"`
	RemainingSpots int    `json:"remaining_spots"`
}

type attendanceRequest struct {
	AttendanceType model.AttendanceStatus `json:"attendance_type"`
}

type flagRequest struct {
	Flag  model.StudentFlag `json:"flag"`
	Value bool              `json:"value"`
}

type resetNoShowRequest struct {
	StudentIDs []int64 `json:"student_ids"`
}

type resetNoShowResponse struct {
	Updated int64 `json:"updated"`
}

type resetWeekRequest struct {
	DryRun bool `json:"dry_run"`
}

// ResetSummary is the server's report of a weekly reset.
type ResetSummary struct {
	WeekStart   string `json:"week_start"`
	Deactivated int64  `json:"deactivated"`
	Clinics     int64  `json:"clinics"`
	DryRun      bool   `json:"dry_run"`
}

// NewClinic describes a clinic to open in an empty grid cell. A zero
// Capacity takes the server's default.
type NewClinic struct {
	Day         week.Day `json:"day"`
	Time        string   `json:"time"`
	Room        string   `json:"room"`
	Capacity    int      `json:"capacity,omitempty"`
	TeacherName string   `json:"teacher_name,omitempty"`
	Subject     string   `json:"subject,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// ClinicUpdate changes an existing clinic. Nil fields are left alone.
type ClinicUpdate struct {
	Capacity *int  `json:"capacity,omitempty"`
	IsActive *bool `json:"is_active,omitempty"`
}

// StudentProfile is the part of a student record the roster import owns.
type StudentProfile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	School   string `json:"school,omitempty"`
	Grade    string `json:"grade,omitempty"`
}

type upsertStudentsRequest struct {
	Students []StudentProfile `json:"students"`
}

type upsertStudentsResponse struct {
	Upserted int `json:"upserted"`
}
