package model

import (
	"fmt"
	"time"
)

// AttendanceStatus records what happened at a reserved clinic.
type AttendanceStatus string

const (
	AttendanceNone     AttendanceStatus = "none"
	AttendanceAttended AttendanceStatus = "attended"
	AttendanceAbsent   AttendanceStatus = "absent"
	AttendanceLate     AttendanceStatus = "late"
	AttendanceSick     AttendanceStatus = "sick"
)

// attendanceLabels is the single display table for attendance statuses.
var attendanceLabels = map[AttendanceStatus]string{
	AttendanceNone:     "미정",
	AttendanceAttended: "출석",
	AttendanceAbsent:   "결석",
	AttendanceLate:     "지각",
	AttendanceSick:     "병결",
}

// AttendanceStatuses returns every status in display order.
func AttendanceStatuses() []AttendanceStatus {
	return []AttendanceStatus{AttendanceAttended, AttendanceAbsent, AttendanceLate, AttendanceSick, AttendanceNone}
}

// ParseAttendanceStatus validates a raw status string.
func ParseAttendanceStatus(raw string) (AttendanceStatus, error) {
	s := AttendanceStatus(raw)
	if _, ok := attendanceLabels[s]; !ok {
		return "", fmt.Errorf("unknown attendance status %q", raw)
	}
	return s, nil
}

// Label returns the display label for s.
func (s AttendanceStatus) Label() string {
	return attendanceLabels[s]
}

// Reservation is one student's booking of a clinic for a concrete date.
// Cancelled reservations are kept with IsActive=false.
type Reservation struct {
	ID                 int64            `gorm:"primaryKey" json:"id"`
	StudentID          int64            `gorm:"not null;index;uniqueIndex:idx_reservation_once" json:"student_id"`
	ClinicID           int64            `gorm:"not null;uniqueIndex:idx_reservation_once" json:"clinic_id"`
	ExpectedClinicDate string           `gorm:"size:10;not null;index;uniqueIndex:idx_reservation_once" json:"expected_clinic_date"`
	IsActive           bool             `gorm:"not null;index" json:"is_active"`
	AttendanceType     AttendanceStatus `gorm:"size:16;not null" json:"attendance_type"`
	ReservedAt         time.Time        `gorm:"not null" json:"reserved_at"`
	CreatedAt          time.Time        `json:"-"`
	UpdatedAt          time.Time        `json:"updated_at"`

	// Associations
	Student *Student `gorm:"constraint:OnDelete:CASCADE" json:"student,omitempty"`
	Clinic  *Clinic  `gorm:"constraint:OnDelete:CASCADE" json:"clinic,omitempty"`
}
