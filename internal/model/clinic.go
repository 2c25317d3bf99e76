package model

import (
	"time"

	"clinic-reservation-backend/internal/week"
)

// Teacher runs one or more clinics.
type Teacher struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:128;not null" json:"name"`
}

// Subject is the topic a clinic covers.
type Subject struct {
	ID   int64  `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:64;not null" json:"name"`
}

// Clinic is a recurring weekly session occupying one (day, time) cell.
type Clinic struct {
	ID       int64    `gorm:"primaryKey" json:"id"`
	Day      week.Day `gorm:"size:3;not null;uniqueIndex:idx_clinic_slot" json:"day"`
	Time     string   `gorm:"size:5;not null;uniqueIndex:idx_clinic_slot" json:"time"`
	Room     string   `gorm:"size:64;not null" json:"room"`
	Capacity int      `gorm:"not null" json:"capacity"`
	// ReservedCount mirrors the number of active reservations for the
	// current week and is only changed by conditional updates.
	ReservedCount int `gorm:"not null" json:"reserved_count"`
	// CountedWeek is the Monday (YYYY-MM-DD) ReservedCount was last
	// counted for. A counter from an earlier week is recounted before use.
	CountedWeek string    `gorm:"size:10" json:"-"`
	IsActive    bool      `gorm:"not null;index" json:"is_active"`
	TeacherID   *int64    `gorm:"index" json:"teacher_id"`
	SubjectID   *int64    `json:"subject_id"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`

	// Associations
	Teacher *Teacher `gorm:"constraint:OnDelete:SET NULL" json:"teacher,omitempty"`
	Subject *Subject `gorm:"constraint:OnDelete:SET NULL" json:"subject,omitempty"`
}

// TeacherName returns the teacher's name or an empty string.
func (c Clinic) TeacherName() string {
	if c.Teacher == nil {
		return ""
	}
	return c.Teacher.Name
}

// SubjectName returns the subject's name or an empty string.
func (c Clinic) SubjectName() string {
	if c.Subject == nil {
		return ""
	}
	return c.Subject.Name
}
