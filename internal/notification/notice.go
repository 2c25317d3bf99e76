package notification

import (
	"fmt"

	"clinic-reservation-backend/internal/model"
)

// ReservedNotice confirms a booking to the student.
func ReservedNotice(studentID int64, c model.Clinic, date string) Notice {
	return Notice{
		StudentID: studentID,
		Title:     "클리닉 예약 완료",
		Body:      fmt.Sprintf("%s %s %s 클리닉이 예약되었습니다.", date, c.Day.KoreanLabel(), c.Time),
	}
}

// CancelledNotice confirms a cancellation to the student.
func CancelledNotice(studentID int64, c model.Clinic, date string) Notice {
	return Notice{
		StudentID: studentID,
		Title:     "클리닉 예약 취소",
		Body:      fmt.Sprintf("%s %s %s 클리닉 예약이 취소되었습니다.", date, c.Day.KoreanLabel(), c.Time),
	}
}
