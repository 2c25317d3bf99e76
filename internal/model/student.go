package model

import (
	"fmt"
	"time"
)

// Student represents a clinic participant.
type Student struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	Username        string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Name            string    `gorm:"size:128;not null" json:"name"`
	School          string    `gorm:"size:128" json:"school"`
	Grade           string    `gorm:"size:32" json:"grade"`
	NonPass         bool      `gorm:"not null" json:"non_pass"`
	EssentialClinic bool      `gorm:"not null" json:"essential_clinic"`
	NoShowCount     int       `gorm:"not null" json:"no_show_count"`
	CreatedAt       time.Time `json:"-"`
	UpdatedAt       time.Time `json:"-"`
}

// StudentFlag names one of the administrative booleans on a Student.
type StudentFlag string

const (
	FlagNonPass         StudentFlag = "non_pass"
	FlagEssentialClinic StudentFlag = "essential_clinic"
)

// ParseStudentFlag validates a flag name.
func ParseStudentFlag(raw string) (StudentFlag, error) {
	switch f := StudentFlag(raw); f {
	case FlagNonPass, FlagEssentialClinic:
		return f, nil
	}
	return "", fmt.Errorf("unknown student flag %q", raw)
}

// Flag returns the current value of f on s.
func (s Student) Flag(f StudentFlag) bool {
	if f == FlagNonPass {
		return s.NonPass
	}
	return s.EssentialClinic
}

// SetFlag sets f on s.
func (s *Student) SetFlag(f StudentFlag, value bool) {
	switch f {
	case FlagNonPass:
		s.NonPass = value
	case FlagEssentialClinic:
		s.EssentialClinic = value
	}
}
