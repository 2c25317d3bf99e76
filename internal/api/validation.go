package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"clinic-reservation-backend/internal/model"
)

var registerOnce sync.Once

// registerValidations adds the domain tags to gin's validator.
func registerValidations() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
			_, err := model.ParseAttendanceStatus(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("student_flag", func(fl validator.FieldLevel) bool {
			_, err := model.ParseStudentFlag(fl.Field().String())
			return err == nil
		})
	})
}
